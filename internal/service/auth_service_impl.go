package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ophrus/backend/internal/model"
	"github.com/ophrus/backend/internal/repository"
	"github.com/ophrus/backend/pkg/auth"
)

// AuthServiceImpl は AuthService の実装
type AuthServiceImpl struct {
	userRepo  repository.UserRepository
	tokenRepo repository.RefreshTokenRepository
	tokens    *auth.TokenManager
	now       func() time.Time
}

// NewAuthService は AuthServiceImpl を生成する
func NewAuthService(userRepo repository.UserRepository, tokenRepo repository.RefreshTokenRepository, tokens *auth.TokenManager) *AuthServiceImpl {
	return &AuthServiceImpl{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		tokens:    tokens,
		now:       time.Now,
	}
}

// issueTokens はアクセス／リフレッシュトークンを発行し、リフレッシュ側を保存する
func (s *AuthServiceImpl) issueTokens(ctx context.Context, userID string) (*TokenPair, error) {
	accessToken, err := s.tokens.GenerateAccessToken(userID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(userID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	expiresAt := s.now().Add(s.tokens.RefreshTTL())
	if err := s.tokenRepo.Add(ctx, userID, refreshToken, expiresAt); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &TokenPair{Token: accessToken, RefreshToken: refreshToken}, nil
}

// Register は新規ユーザーを作成しトークンを発行する
func (s *AuthServiceImpl) Register(ctx context.Context, nom, email, telephone, password string) (*AuthResult, error) {
	_, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Nom:          nom,
		Email:        email,
		Telephone:    telephone,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// 事前チェックをすり抜けた同時登録は一意制約で弾かれる
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	pair, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, TokenPair: *pair}, nil
}

// Login は identifier とパスワードで認証しトークンを発行する
func (s *AuthServiceImpl) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	user, err := s.userRepo.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, TokenPair: *pair}, nil
}

// Logout は提示されたリフレッシュトークンを失効させる（存在しなくても成功）
func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	userID, err := s.tokens.Parse(refreshToken)
	if err != nil {
		return ErrInvalidToken
	}
	if _, err := s.tokenRepo.Delete(ctx, userID, refreshToken); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

// Refresh はトークンをローテーションする。署名と保存済み集合の両方を検証し、
// 旧トークンを失効させた上で新しいペアを発行する。
func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := s.tokens.Parse(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	exists, err := s.tokenRepo.Exists(ctx, userID, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}
	if !exists {
		return nil, ErrInvalidToken
	}

	if _, err := s.tokenRepo.Delete(ctx, userID, refreshToken); err != nil {
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	return s.issueTokens(ctx, userID)
}
