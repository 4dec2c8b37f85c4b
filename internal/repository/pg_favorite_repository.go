package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ophrus/backend/internal/model"
)

// PgFavoriteRepository は FavoriteRepository の PostgreSQL 実装
type PgFavoriteRepository struct {
	pool *pgxpool.Pool
}

// NewPgFavoriteRepository は PgFavoriteRepository を生成する
func NewPgFavoriteRepository(pool *pgxpool.Pool) *PgFavoriteRepository {
	return &PgFavoriteRepository{pool: pool}
}

// Add はお気に入りを登録する（冪等: 既に存在する場合は無視）
func (r *PgFavoriteRepository) Add(ctx context.Context, userID, propertyID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO favorites (user_id, property_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, property_id) DO NOTHING`,
		userID, propertyID,
	)
	return err
}

// Remove はお気に入りを解除する。実際に削除された場合 true を返す。
func (r *PgFavoriteRepository) Remove(ctx context.Context, userID, propertyID string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND property_id = $2`,
		userID, propertyID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListByUser はユーザーのお気に入り物件一覧を返す（登録の新しい順）
func (r *PgFavoriteRepository) ListByUser(ctx context.Context, userID string) ([]*model.Property, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+propertySelectCols+`
		 FROM properties p
		 INNER JOIN favorites f ON f.property_id = p.id
		 WHERE f.user_id = $1
		 ORDER BY f.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var properties []*model.Property
	for rows.Next() {
		p, err := scanProperty(rows.Scan)
		if err != nil {
			return nil, err
		}
		properties = append(properties, p)
	}
	return properties, rows.Err()
}
