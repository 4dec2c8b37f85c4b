package service

import (
	"context"

	"github.com/ophrus/backend/internal/model"
)

// TokenPair はアクセストークンとリフレッシュトークンの組
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResult は登録・ログイン成功時の結果
type AuthResult struct {
	User *model.User
	TokenPair
}

// AuthService は認証に関するビジネスロジックのインターフェース
type AuthService interface {
	Register(ctx context.Context, nom, email, telephone, password string) (*AuthResult, error)
	// Login は identifier（メールアドレスまたは nom）とパスワードで認証する
	Login(ctx context.Context, identifier, password string) (*AuthResult, error)
	// Logout は提示されたリフレッシュトークン 1 件を失効させる
	Logout(ctx context.Context, refreshToken string) error
	// Refresh はトークンをローテーションする（旧トークン失効、新ペア発行）
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
}
