package repository

import (
	"context"

	"github.com/ophrus/backend/internal/model"
)

// PropertyFilter は掲載一覧の絞り込み条件
type PropertyFilter struct {
	Ville     string
	Categorie string
	PrixMin   *float64
	PrixMax   *float64
	Search    string
	Limit     int
	Offset    int
}

// PropertyRepository は掲載物件永続化のインターフェース
type PropertyRepository interface {
	Create(ctx context.Context, p *model.Property) error
	FindByID(ctx context.Context, id string) (*model.Property, error)
	// List は絞り込み・ページング済みの一覧と総件数を返す
	List(ctx context.Context, f PropertyFilter) ([]*model.Property, int, error)
	Update(ctx context.Context, p *model.Property) error
	// ReplaceImages は既存画像レコードを削除して差し替える
	ReplaceImages(ctx context.Context, propertyID string, images []model.PropertyImage) error
	Delete(ctx context.Context, id string) error
	// Rate は評価を upsert し、再計算後の平均点を返す（トランザクション内で原子的に行う）
	Rate(ctx context.Context, propertyID, userID string, note int) (float64, error)
	// FindRating はユーザー自身の評価を返す。未評価なら ok=false。
	FindRating(ctx context.Context, propertyID, userID string) (note int, ok bool, err error)
}
