package service

import (
	"context"
	"io"

	"github.com/ophrus/backend/internal/model"
	"github.com/ophrus/backend/internal/repository"
)

// PropertyInput は物件の作成・更新入力。更新時は空値のフィールドが無視される。
type PropertyInput struct {
	Titre       string
	Description string
	Prix        float64
	Ville       string
	Adresse     string
	Categorie   string
}

// ImageUpload はアップロードされた画像 1 枚。Data はサービス側で必ず Close される。
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        io.ReadCloser
}

// PropertyPage はページング済みの物件一覧
type PropertyPage struct {
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"totalPages"`
	Properties []*model.Property `json:"properties"`
	Categories []string          `json:"categories"`
}

// PropertyRating は物件と閲覧ユーザー自身の評価の組
type PropertyRating struct {
	Property      *model.Property `json:"property"`
	UserRating    *int            `json:"userRating"`
	AverageRating float64         `json:"averageRating"`
}

// PropertyService は掲載物件に関するビジネスロジックのインターフェース
type PropertyService interface {
	Create(ctx context.Context, userID string, in PropertyInput, images []ImageUpload) (*model.Property, error)
	Get(ctx context.Context, id string) (*model.Property, error)
	List(ctx context.Context, f repository.PropertyFilter, page, limit int) (*PropertyPage, error)
	// Update は所有者のみ許可。images が非空なら既存画像を差し替える。
	Update(ctx context.Context, userID, id string, in PropertyInput, images []ImageUpload) (*model.Property, error)
	Delete(ctx context.Context, userID, id string) error
	// ToggleFavorite はお気に入りを原子的にトグルし、登録後の状態を返す
	ToggleFavorite(ctx context.Context, userID, propertyID string) (favori bool, err error)
	ListFavorites(ctx context.Context, userID string) ([]*model.Property, error)
	// Rate は 1〜5 の評価を登録・更新し、新しい平均点を返す
	Rate(ctx context.Context, userID, propertyID string, note int) (float64, error)
	GetWithRating(ctx context.Context, userID, propertyID string) (*PropertyRating, error)
}
