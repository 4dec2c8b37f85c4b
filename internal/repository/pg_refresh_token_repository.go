package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgRefreshTokenRepository は RefreshTokenRepository の PostgreSQL 実装
type PgRefreshTokenRepository struct {
	pool *pgxpool.Pool
}

// NewPgRefreshTokenRepository は PgRefreshTokenRepository を生成する
func NewPgRefreshTokenRepository(pool *pgxpool.Pool) *PgRefreshTokenRepository {
	return &PgRefreshTokenRepository{pool: pool}
}

// Add はトークンを登録し、ユーザーあたりの上限を超えた分を古い順に削除する
func (r *PgRefreshTokenRepository) Add(ctx context.Context, userID, token string, expiresAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO refresh_tokens (user_id, token, expires_at) VALUES ($1, $2, $3)`,
		userID, token, expiresAt); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM refresh_tokens
		 WHERE user_id = $1 AND id NOT IN (
		   SELECT id FROM refresh_tokens
		   WHERE user_id = $1
		   ORDER BY created_at DESC, id DESC
		   LIMIT $2
		 )`,
		userID, MaxRefreshTokensPerUser); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Exists はトークンが有効な集合に含まれるかを返す（期限切れは含まれない）
func (r *PgRefreshTokenRepository) Exists(ctx context.Context, userID, token string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(
		   SELECT 1 FROM refresh_tokens
		   WHERE user_id = $1 AND token = $2 AND expires_at > NOW()
		 )`,
		userID, token).Scan(&exists)
	return exists, err
}

// Delete は一致するトークンを削除する。削除できた場合 true を返す。
func (r *PgRefreshTokenRepository) Delete(ctx context.Context, userID, token string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE user_id = $1 AND token = $2`,
		userID, token)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
