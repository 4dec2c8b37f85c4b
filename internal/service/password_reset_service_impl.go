package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ophrus/backend/internal/mail"
	"github.com/ophrus/backend/internal/repository"
)

const (
	resetCodeTTL = 10 * time.Minute
	bcryptCost   = 10
	resetSubject = "Code de réinitialisation de mot de passe"
)

// PasswordResetServiceImpl は PasswordResetService の実装
type PasswordResetServiceImpl struct {
	userRepo repository.UserRepository
	mailer   mail.Mailer

	// テストから差し替えるためのフック
	now          func() time.Time
	generateCode func() (string, error)
}

// NewPasswordResetService は PasswordResetServiceImpl を生成する
func NewPasswordResetService(userRepo repository.UserRepository, mailer mail.Mailer) *PasswordResetServiceImpl {
	return &PasswordResetServiceImpl{
		userRepo:     userRepo,
		mailer:       mailer,
		now:          time.Now,
		generateCode: generateResetCode,
	}
}

// generateResetCode は 100000〜999999 の一様乱数コードを生成する
func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate reset code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// RequestReset はリセットコードを発行しメールで送信する
func (s *PasswordResetServiceImpl) RequestReset(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	now := s.now()
	if user.HasActiveResetCode(now) {
		// 再発行クールダウン: 残り分数は切り上げ
		remaining := user.ResetExpires.Sub(now)
		minutes := int((remaining + time.Minute - 1) / time.Minute)
		return &CooldownError{Remaining: minutes}
	}

	code, err := s.generateCode()
	if err != nil {
		return err
	}
	if err := s.userRepo.SetResetCode(ctx, user.ID, code, now.Add(resetCodeTTL)); err != nil {
		return fmt.Errorf("store reset code: %w", err)
	}

	if err := s.mailer.Send([]string{user.Email}, resetSubject, mail.TemplatePasswordReset,
		map[string]any{"Code": code}); err != nil {
		// 届かなかったコードでクールダウンに入らないよう巻き戻す
		if clearErr := s.userRepo.ClearResetCode(ctx, user.ID); clearErr != nil {
			slog.Error("clear reset code after send failure", "error", clearErr, "user_id", user.ID)
		}
		return fmt.Errorf("send reset code: %w", err)
	}
	return nil
}

// VerifyCode はコードを検証し、成功時に消費する。
// 不一致と期限切れは区別せず一律 ErrInvalidResetCode を返す（列挙攻撃対策）。
func (s *PasswordResetServiceImpl) VerifyCode(ctx context.Context, email, code string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetCode
		}
		return err
	}

	if !user.HasActiveResetCode(s.now()) {
		return ErrInvalidResetCode
	}

	code = strings.TrimSpace(code)
	if *user.ResetCode != code {
		return ErrInvalidResetCode
	}

	consumed, err := s.userRepo.ConsumeResetCode(ctx, user.ID, code)
	if err != nil {
		return fmt.Errorf("consume reset code: %w", err)
	}
	if !consumed {
		return ErrInvalidResetCode
	}
	return nil
}

// ResetPassword はコードを再検証してパスワードを置き換える
func (s *PasswordResetServiceImpl) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	code = strings.TrimSpace(code)
	user, err := s.userRepo.FindByEmailAndResetCode(ctx, email, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetCode
		}
		return err
	}
	if user.ResetExpires == nil || !user.ResetExpires.After(s.now()) {
		return ErrInvalidResetCode
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	// UpdatePassword はコードの無効化も同じ UPDATE で行う
	if err := s.userRepo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
