package repository

import (
	"context"
	"time"

	"github.com/ophrus/backend/internal/model"
)

// DB は DB 接続の生存確認を行うインターフェース
type DB interface {
	Ping(ctx context.Context) error
}

// UserRepository はユーザー永続化のインターフェース
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// FindByIdentifier はメールアドレスまたは表示名（nom）でユーザーを検索する
	FindByIdentifier(ctx context.Context, identifier string) (*model.User, error)
	// FindByEmailAndResetCode はメールアドレスとリセットコードの組で検索する
	FindByEmailAndResetCode(ctx context.Context, email, code string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	// UpdatePassword はパスワードハッシュを置き換え、リセットコードを同時に無効化する
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetResetCode(ctx context.Context, id, code string, expires time.Time) error
	// ConsumeResetCode はコードが一致した場合のみ無効化する（single-use）。
	// 一致して消費できたときに true を返す。
	ConsumeResetCode(ctx context.Context, id, code string) (bool, error)
	// ClearResetCode はコードを無条件に無効化する（送信失敗時の巻き戻し用）
	ClearResetCode(ctx context.Context, id string) error
	Search(ctx context.Context, nom, email string) ([]*model.PublicUser, error)
	Delete(ctx context.Context, id string) error
	CountByRole(ctx context.Context, role string) (int, error)
	ListAdminEmails(ctx context.Context) ([]string, error)
}
