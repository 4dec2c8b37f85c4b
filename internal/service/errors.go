package service

import (
	"errors"
	"fmt"
)

// ドメインエラー。ハンドラ側で HTTP ステータスに変換される。
var (
	ErrForbidden          = errors.New("forbidden")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid refresh token")
	ErrInvalidResetCode   = errors.New("invalid or expired reset code")
	ErrLastAdmin          = errors.New("cannot delete the last admin account")
	ErrSelfMessage        = errors.New("cannot send a message to yourself")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrNoImages           = errors.New("at least one image is required")
)

// CooldownError は有効なリセットコードが残っている間の再発行拒否。
// Remaining は再試行までの残り分数（切り上げ）。
type CooldownError struct {
	Remaining int
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("reset code already issued, retry in %d minute(s)", e.Remaining)
}
