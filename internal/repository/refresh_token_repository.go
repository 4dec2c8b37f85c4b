package repository

import (
	"context"
	"time"
)

// MaxRefreshTokensPerUser はユーザーあたりの有効リフレッシュトークン上限。
// 超過分は古いものから削除される。
const MaxRefreshTokensPerUser = 5

// RefreshTokenRepository は有効なリフレッシュトークン集合の永続化インターフェース
type RefreshTokenRepository interface {
	// Add はトークンを登録し、上限を超えた分を古い順に削除する
	Add(ctx context.Context, userID, token string, expiresAt time.Time) error
	Exists(ctx context.Context, userID, token string) (bool, error)
	// Delete は一致するトークンを 1 件削除する。削除できた場合 true を返す。
	Delete(ctx context.Context, userID, token string) (bool, error)
}
