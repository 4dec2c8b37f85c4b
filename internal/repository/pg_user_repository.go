package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ophrus/backend/internal/model"
)

// PgUserRepository は UserRepository の PostgreSQL 実装
type PgUserRepository struct {
	pool *pgxpool.Pool
}

// NewPgUserRepository は PgUserRepository を生成する
func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

// Ping は DB 接続を確認する（DB インターフェース実装）
func (r *PgUserRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

const userSelectCols = `id, nom, email, telephone, password_hash, role, reset_code, reset_code_expires, created_at, updated_at`

func scanUser(scan func(...any) error) (*model.User, error) {
	var u model.User
	if err := scan(&u.ID, &u.Nom, &u.Email, &u.Telephone, &u.PasswordHash, &u.Role,
		&u.ResetCode, &u.ResetExpires, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindByID は ID でユーザーを取得する
func (r *PgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userSelectCols+` FROM users WHERE id = $1`, id)
	return scanUser(row.Scan)
}

// FindByEmail はメールアドレスでユーザーを取得する
func (r *PgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userSelectCols+` FROM users WHERE email = $1`, email)
	return scanUser(row.Scan)
}

// FindByIdentifier はメールアドレスまたは表示名でユーザーを取得する
func (r *PgUserRepository) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userSelectCols+` FROM users WHERE email = $1 OR nom = $1 LIMIT 1`, identifier)
	return scanUser(row.Scan)
}

// FindByEmailAndResetCode はメールアドレスとリセットコードの組で取得する
func (r *PgUserRepository) FindByEmailAndResetCode(ctx context.Context, email, code string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userSelectCols+` FROM users WHERE email = $1 AND reset_code = $2`, email, code)
	return scanUser(row.Scan)
}

// Create はユーザーを作成する
func (r *PgUserRepository) Create(ctx context.Context, user *model.User) error {
	role := user.Role
	if role == "" {
		role = model.RoleClient
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (nom, email, telephone, password_hash, role)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, role, created_at, updated_at`,
		user.Nom, user.Email, user.Telephone, user.PasswordHash, role,
	).Scan(&user.ID, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// Update はプロフィール項目（nom, email, telephone）を更新する
func (r *PgUserRepository) Update(ctx context.Context, user *model.User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET nom = $1, email = $2, telephone = $3, updated_at = NOW() WHERE id = $4`,
		user.Nom, user.Email, user.Telephone, user.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword はパスワードハッシュを置き換え、リセットコードを無効化する
func (r *PgUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET password_hash = $1, reset_code = NULL, reset_code_expires = NULL, updated_at = NOW()
		 WHERE id = $2`,
		passwordHash, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetResetCode はリセットコードと有効期限を設定する
func (r *PgUserRepository) SetResetCode(ctx context.Context, id, code string, expires time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET reset_code = $1, reset_code_expires = $2, updated_at = NOW() WHERE id = $3`,
		code, expires, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeResetCode はコードが一致する場合のみ無効化する。
// WHERE 句でコードを照合するため、並行する検証リクエストでも一度しか消費できない。
func (r *PgUserRepository) ConsumeResetCode(ctx context.Context, id, code string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET reset_code = NULL, reset_code_expires = NULL, updated_at = NOW()
		 WHERE id = $1 AND reset_code = $2`,
		id, code)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ClearResetCode はリセットコードを無条件に無効化する
func (r *PgUserRepository) ClearResetCode(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET reset_code = NULL, reset_code_expires = NULL, updated_at = NOW() WHERE id = $1`,
		id)
	return err
}

// Search は nom / email の部分一致（大文字小文字無視）で検索する
func (r *PgUserRepository) Search(ctx context.Context, nom, email string) ([]*model.PublicUser, error) {
	query := `SELECT id, nom, email FROM users`
	var args []any
	switch {
	case nom != "" && email != "":
		query += ` WHERE nom ILIKE '%' || $1 || '%' OR email ILIKE '%' || $2 || '%'`
		args = append(args, nom, email)
	case nom != "":
		query += ` WHERE nom ILIKE '%' || $1 || '%'`
		args = append(args, nom)
	case email != "":
		query += ` WHERE email ILIKE '%' || $1 || '%'`
		args = append(args, email)
	}
	query += ` ORDER BY nom`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*model.PublicUser
	for rows.Next() {
		var u model.PublicUser
		if err := rows.Scan(&u.ID, &u.Nom, &u.Email); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// Delete はユーザーを削除する
func (r *PgUserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByRole は指定ロールのユーザー数を返す
func (r *PgUserRepository) CountByRole(ctx context.Context, role string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&count)
	return count, err
}

// ListAdminEmails は管理者のメールアドレス一覧を返す（バックアップ警告の宛先）
func (r *PgUserRepository) ListAdminEmails(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT email FROM users WHERE role = $1`, model.RoleAdmin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}
