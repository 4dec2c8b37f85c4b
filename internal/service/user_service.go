package service

import (
	"context"

	"github.com/ophrus/backend/internal/model"
)

// ProfileInput はプロフィール更新入力。空値のフィールドは据え置き。
type ProfileInput struct {
	Nom       string
	Email     string
	Telephone string
	Password  string
}

// UserService はユーザーアカウントに関するビジネスロジックのインターフェース
type UserService interface {
	Get(ctx context.Context, id string) (*model.User, error)
	// UpdateProfile は本人のみ許可
	UpdateProfile(ctx context.Context, userID, targetID string, in ProfileInput) (*model.User, error)
	// Search は nom またはメールアドレスの部分一致で検索する
	Search(ctx context.Context, nom, email string) ([]*model.PublicUser, error)
	// Delete は本人または管理者のみ許可。最後の管理者は削除できない。
	Delete(ctx context.Context, actorID, targetID string) error
}
