package repository

import (
	"context"

	"github.com/ophrus/backend/internal/model"
)

// FavoriteRepository はお気に入り関係の永続化インターフェース。
// Add / Remove は set 操作として原子的（read-modify-write しない）。
type FavoriteRepository interface {
	// Add はお気に入りを登録する（冪等: 既に存在する場合は無視）
	Add(ctx context.Context, userID, propertyID string) error
	// Remove はお気に入りを解除する。実際に削除された場合 true を返す。
	Remove(ctx context.Context, userID, propertyID string) (bool, error)
	// ListByUser はユーザーのお気に入り物件一覧を返す
	ListByUser(ctx context.Context, userID string) ([]*model.Property, error)
}
