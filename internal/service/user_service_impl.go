package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/ophrus/backend/internal/model"
	"github.com/ophrus/backend/internal/repository"
)

// UserServiceImpl は UserService の実装
type UserServiceImpl struct {
	userRepo repository.UserRepository
}

// NewUserService は UserServiceImpl を生成する
func NewUserService(userRepo repository.UserRepository) *UserServiceImpl {
	return &UserServiceImpl{userRepo: userRepo}
}

// Get はユーザーを取得する
func (s *UserServiceImpl) Get(ctx context.Context, id string) (*model.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

// UpdateProfile はプロフィールを更新する。本人のみ許可。
func (s *UserServiceImpl) UpdateProfile(ctx context.Context, userID, targetID string, in ProfileInput) (*model.User, error) {
	if userID != targetID {
		return nil, ErrForbidden
	}

	user, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if in.Email != "" && in.Email != user.Email {
		// 他ユーザーが使用中のメールアドレスへは変更できない
		if existing, err := s.userRepo.FindByEmail(ctx, in.Email); err == nil && existing.ID != user.ID {
			return nil, ErrEmailTaken
		} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("lookup email: %w", err)
		}
		user.Email = in.Email
	}
	if in.Nom != "" {
		user.Nom = in.Nom
	}
	if in.Telephone != "" {
		user.Telephone = in.Telephone
	}
	var newHash string
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		newHash = string(hash)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if newHash != "" {
		// Update はプロフィール列しか書かないため、ハッシュは専用の UPDATE で保存する
		if err := s.userRepo.UpdatePassword(ctx, user.ID, newHash); err != nil {
			return nil, fmt.Errorf("update password: %w", err)
		}
		user.PasswordHash = newHash
	}
	return user, nil
}

// Search はユーザーを検索する
func (s *UserServiceImpl) Search(ctx context.Context, nom, email string) ([]*model.PublicUser, error) {
	users, err := s.userRepo.Search(ctx, nom, email)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	if users == nil {
		users = []*model.PublicUser{}
	}
	return users, nil
}

// Delete はアカウントを削除する。本人または管理者のみ許可。
// 対象が最後の管理者の場合は拒否する。
func (s *UserServiceImpl) Delete(ctx context.Context, actorID, targetID string) error {
	if actorID != targetID {
		actor, err := s.userRepo.FindByID(ctx, actorID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() {
			return ErrForbidden
		}
	}

	target, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target.IsAdmin() {
		count, err := s.userRepo.CountByRole(ctx, model.RoleAdmin)
		if err != nil {
			return fmt.Errorf("count admins: %w", err)
		}
		if count <= 1 {
			return ErrLastAdmin
		}
	}

	if err := s.userRepo.Delete(ctx, targetID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
