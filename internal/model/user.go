package model

import "time"

// ユーザーロール
const (
	RoleClient = "client"
	RoleAdmin  = "admin"
)

type User struct {
	ID           string     `json:"id"`
	Nom          string     `json:"nom"`
	Email        string     `json:"email"`
	Telephone    string     `json:"telephone"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	ResetCode    *string    `json:"-"`
	ResetExpires *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasActiveResetCode はまだ有効期限内のリセットコードを持つかどうかを返す
func (u *User) HasActiveResetCode(now time.Time) bool {
	return u.ResetCode != nil && u.ResetExpires != nil && u.ResetExpires.After(now)
}

// PublicUser は検索やスレッド表示で公開されるユーザー情報のサブセット
type PublicUser struct {
	ID    string `json:"id"`
	Nom   string `json:"nom"`
	Email string `json:"email"`
}

// Public returns the publicly visible subset of the user.
func (u *User) Public() *PublicUser {
	return &PublicUser{ID: u.ID, Nom: u.Nom, Email: u.Email}
}
