package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ophrus/backend/internal/model"
	"github.com/ophrus/backend/internal/repository"
)

// ---------------------------------------------------------------------------
// mockMailer : Mailer のモック
// ---------------------------------------------------------------------------

type mockMailer struct {
	sendFunc func(to []string, subject, templateName string, data map[string]any) error
	sent     int
}

func (m *mockMailer) Send(to []string, subject, templateName string, data map[string]any) error {
	m.sent++
	if m.sendFunc != nil {
		return m.sendFunc(to, subject, templateName, data)
	}
	return nil
}

func newResetService(userRepo *mockUserRepository, mailer *mockMailer, now time.Time) *PasswordResetServiceImpl {
	svc := NewPasswordResetService(userRepo, mailer)
	svc.now = func() time.Time { return now }
	svc.generateCode = func() (string, error) { return "123456", nil }
	return svc
}

func ptr[T any](v T) *T { return &v }

// ---------------------------------------------------------------------------
// Tests: PasswordResetService.RequestReset
// ---------------------------------------------------------------------------

func TestPasswordResetService_RequestReset_IssuesAndEmailsCode(t *testing.T) {
	now := time.Now()
	var storedCode string
	var storedExpiry time.Time
	userRepo := &mockUserRepository{
		findByEmailFunc: func(_ context.Context, email string) (*model.User, error) {
			return &model.User{ID: "user-1", Email: email}, nil
		},
		setResetCodeFunc: func(_ context.Context, id, code string, expires time.Time) error {
			storedCode = code
			storedExpiry = expires
			return nil
		},
	}
	var mailData map[string]any
	mailer := &mockMailer{
		sendFunc: func(to []string, _, templateName string, data map[string]any) error {
			if len(to) != 1 || to[0] != "a@example.com" {
				t.Errorf("unexpected recipients: %v", to)
			}
			if templateName != "passwordReset" {
				t.Errorf("unexpected template: %q", templateName)
			}
			mailData = data
			return nil
		},
	}
	svc := newResetService(userRepo, mailer, now)

	if err := svc.RequestReset(context.Background(), "a@example.com"); err != nil {
		t.Fatalf("RequestReset returned unexpected error: %v", err)
	}
	if storedCode != "123456" {
		t.Errorf("expected code 123456 stored, got %q", storedCode)
	}
	if !storedExpiry.Equal(now.Add(10 * time.Minute)) {
		t.Errorf("expected expiry now+10min, got %v", storedExpiry)
	}
	if mailData["Code"] != "123456" {
		t.Errorf("code not passed to template: %v", mailData)
	}
}

func TestPasswordResetService_RequestReset_UnknownEmail(t *testing.T) {
	svc := newResetService(&mockUserRepository{}, &mockMailer{}, time.Now())

	err := svc.RequestReset(context.Background(), "ghost@example.com")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPasswordResetService_RequestReset_CooldownWhileCodeActive(t *testing.T) {
	now := time.Now()
	userRepo := &mockUserRepository{
		findByEmailFunc: func(_ context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:           "user-1",
				Email:        email,
				ResetCode:    ptr("999999"),
				ResetExpires: ptr(now.Add(4*time.Minute + 30*time.Second)),
			}, nil
		},
	}
	mailer := &mockMailer{}
	svc := newResetService(userRepo, mailer, now)

	err := svc.RequestReset(context.Background(), "a@example.com")
	var cooldown *CooldownError
	if !errors.As(err, &cooldown) {
		t.Fatalf("expected CooldownError, got %v", err)
	}
	// 残り 4分30秒 は切り上げて 5 分
	if cooldown.Remaining != 5 {
		t.Errorf("expected remaining=5, got %d", cooldown.Remaining)
	}
	if mailer.sent != 0 {
		t.Error("no mail should be sent during cooldown")
	}
}

func TestPasswordResetService_RequestReset_ReissueAfterExpiry(t *testing.T) {
	now := time.Now()
	userRepo := &mockUserRepository{
		findByEmailFunc: func(_ context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:           "user-1",
				Email:        email,
				ResetCode:    ptr("999999"),
				ResetExpires: ptr(now.Add(-time.Second)),
			}, nil
		},
	}
	mailer := &mockMailer{}
	svc := newResetService(userRepo, mailer, now)

	if err := svc.RequestReset(context.Background(), "a@example.com"); err != nil {
		t.Fatalf("expected reissue after expiry, got %v", err)
	}
	if mailer.sent != 1 {
		t.Errorf("expected 1 mail sent, got %d", mailer.sent)
	}
}

func TestPasswordResetService_RequestReset_SendFailureClearsCode(t *testing.T) {
	now := time.Now()
	cleared := false
	userRepo := &mockUserRepository{
		findByEmailFunc: func(_ context.Context, email string) (*model.User, error) {
			return &model.User{ID: "user-1", Email: email}, nil
		},
		clearResetCodeFunc: func(_ context.Context, id string) error {
			cleared = true
			return nil
		},
	}
	mailer := &mockMailer{
		sendFunc: func(_ []string, _, _ string, _ map[string]any) error {
			return errors.New("smtp down")
		},
	}
	svc := newResetService(userRepo, mailer, now)

	if err := svc.RequestReset(context.Background(), "a@example.com"); err == nil {
		t.Error("expected error when mail dispatch fails")
	}
	if !cleared {
		t.Error("stored code must be cleared after send failure")
	}
}

// ---------------------------------------------------------------------------
// Tests: PasswordResetService.VerifyCode
// ---------------------------------------------------------------------------

func activeCodeRepo(now time.Time, code string) *mockUserRepository {
	return &mockUserRepository{
		findByEmailFunc: func(_ context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:           "user-1",
				Email:        email,
				ResetCode:    ptr(code),
				ResetExpires: ptr(now.Add(5 * time.Minute)),
			}, nil
		},
	}
}

func TestPasswordResetService_VerifyCode_ConsumesCode(t *testing.T) {
	now := time.Now()
	userRepo := activeCodeRepo(now, "123456")
	consumed := false
	userRepo.consumeResetCodeFunc = func(_ context.Context, id, code string) (bool, error) {
		if id != "user-1" || code != "123456" {
			t.Errorf("unexpected consume args: %s / %s", id, code)
		}
		consumed = true
		return true, nil
	}
	svc := newResetService(userRepo, &mockMailer{}, now)

	if err := svc.VerifyCode(context.Background(), "a@example.com", "123456"); err != nil {
		t.Fatalf("VerifyCode returned unexpected error: %v", err)
	}
	if !consumed {
		t.Error("successful verify must consume the code")
	}
}

func TestPasswordResetService_VerifyCode_TrimsInput(t *testing.T) {
	now := time.Now()
	svc := newResetService(activeCodeRepo(now, "123456"), &mockMailer{}, now)

	if err := svc.VerifyCode(context.Background(), "a@example.com", "  123456  "); err != nil {
		t.Errorf("whitespace around code should be ignored, got %v", err)
	}
}

func TestPasswordResetService_VerifyCode_UniformError(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name string
		repo *mockUserRepository
		code string
	}{
		{"unknown account", &mockUserRepository{}, "123456"},
		{"no active code", &mockUserRepository{
			findByEmailFunc: func(_ context.Context, email string) (*model.User, error) {
				return &model.User{ID: "user-1", Email: email}, nil
			},
		}, "123456"},
		{"expired code", &mockUserRepository{
			findByEmailFunc: func(_ context.Context, email string) (*model.User, error) {
				return &model.User{
					ID: "user-1", Email: email,
					ResetCode:    ptr("123456"),
					ResetExpires: ptr(now.Add(-time.Second)),
				}, nil
			},
		}, "123456"},
		{"wrong code", activeCodeRepo(now, "123456"), "654321"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newResetService(tc.repo, &mockMailer{}, now)
			err := svc.VerifyCode(context.Background(), "a@example.com", tc.code)
			if !errors.Is(err, ErrInvalidResetCode) {
				t.Errorf("expected ErrInvalidResetCode, got %v", err)
			}
		})
	}
}

func TestPasswordResetService_VerifyCode_SingleUse(t *testing.T) {
	now := time.Now()
	userRepo := activeCodeRepo(now, "123456")
	// 競合する verify が先にコードを消費した場合
	userRepo.consumeResetCodeFunc = func(_ context.Context, _, _ string) (bool, error) {
		return false, nil
	}
	svc := newResetService(userRepo, &mockMailer{}, now)

	err := svc.VerifyCode(context.Background(), "a@example.com", "123456")
	if !errors.Is(err, ErrInvalidResetCode) {
		t.Errorf("expected ErrInvalidResetCode when code already consumed, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Tests: PasswordResetService.ResetPassword
// ---------------------------------------------------------------------------

func TestPasswordResetService_ResetPassword_RehashesAndStores(t *testing.T) {
	now := time.Now()
	var newHash string
	userRepo := &mockUserRepository{
		findByEmailAndResetCodeFunc: func(_ context.Context, email, code string) (*model.User, error) {
			return &model.User{
				ID: "user-1", Email: email,
				ResetCode:    ptr(code),
				ResetExpires: ptr(now.Add(5 * time.Minute)),
			}, nil
		},
		updatePasswordFunc: func(_ context.Context, id, passwordHash string) error {
			newHash = passwordHash
			return nil
		},
	}
	svc := newResetService(userRepo, &mockMailer{}, now)

	if err := svc.ResetPassword(context.Background(), "a@example.com", "123456", "newsecret"); err != nil {
		t.Fatalf("ResetPassword returned unexpected error: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(newHash), []byte("newsecret")); err != nil {
		t.Errorf("stored hash does not match new password: %v", err)
	}
}

func TestPasswordResetService_ResetPassword_ExpiredCode(t *testing.T) {
	now := time.Now()
	userRepo := &mockUserRepository{
		findByEmailAndResetCodeFunc: func(_ context.Context, email, code string) (*model.User, error) {
			return &model.User{
				ID: "user-1", Email: email,
				ResetCode:    ptr(code),
				ResetExpires: ptr(now.Add(-time.Second)),
			}, nil
		},
	}
	svc := newResetService(userRepo, &mockMailer{}, now)

	err := svc.ResetPassword(context.Background(), "a@example.com", "123456", "newsecret")
	if !errors.Is(err, ErrInvalidResetCode) {
		t.Errorf("expected ErrInvalidResetCode, got %v", err)
	}
}

func TestPasswordResetService_ResetPassword_WrongPairUniformError(t *testing.T) {
	svc := newResetService(&mockUserRepository{}, &mockMailer{}, time.Now())

	err := svc.ResetPassword(context.Background(), "a@example.com", "000000", "newsecret")
	if !errors.Is(err, ErrInvalidResetCode) {
		t.Errorf("expected ErrInvalidResetCode, got %v", err)
	}
}
