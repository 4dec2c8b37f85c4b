package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ophrus/backend/internal/model"
)

// PgPropertyRepository は PropertyRepository の PostgreSQL 実装
type PgPropertyRepository struct {
	pool *pgxpool.Pool
}

// NewPgPropertyRepository は PgPropertyRepository を生成する
func NewPgPropertyRepository(pool *pgxpool.Pool) *PgPropertyRepository {
	return &PgPropertyRepository{pool: pool}
}

const propertySelectCols = `p.id, p.user_id, p.titre, p.description, p.prix, p.ville, p.adresse, p.categorie, p.note_moyenne, p.created_at, p.updated_at`

func scanProperty(scan func(...any) error) (*model.Property, error) {
	var p model.Property
	if err := scan(&p.ID, &p.UserID, &p.Titre, &p.Description, &p.Prix,
		&p.Ville, &p.Adresse, &p.Categorie, &p.NoteMoyenne, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create は物件と画像レコードを 1 トランザクションで作成する
func (r *PgPropertyRepository) Create(ctx context.Context, p *model.Property) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO properties (user_id, titre, description, prix, ville, adresse, categorie)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, note_moyenne, created_at, updated_at`,
		p.UserID, p.Titre, p.Description, p.Prix, p.Ville, p.Adresse, p.Categorie,
	).Scan(&p.ID, &p.NoteMoyenne, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return err
	}

	for i := range p.Images {
		img := &p.Images[i]
		if err := tx.QueryRow(ctx,
			`INSERT INTO property_images (property_id, url, storage_key, position)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			p.ID, img.URL, img.StorageKey, i,
		).Scan(&img.ID); err != nil {
			return err
		}
		img.Position = i
	}

	return tx.Commit(ctx)
}

// FindByID は物件を画像・所有者情報付きで取得する
func (r *PgPropertyRepository) FindByID(ctx context.Context, id string) (*model.Property, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+propertySelectCols+`, u.id, u.nom, u.email
		 FROM properties p
		 INNER JOIN users u ON u.id = p.user_id
		 WHERE p.id = $1`, id)

	var p model.Property
	var owner model.PublicUser
	if err := row.Scan(&p.ID, &p.UserID, &p.Titre, &p.Description, &p.Prix,
		&p.Ville, &p.Adresse, &p.Categorie, &p.NoteMoyenne, &p.CreatedAt, &p.UpdatedAt,
		&owner.ID, &owner.Nom, &owner.Email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Owner = &owner

	images, err := r.listImages(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Images = images
	return &p, nil
}

func (r *PgPropertyRepository) listImages(ctx context.Context, propertyID string) ([]model.PropertyImage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, url, storage_key, position FROM property_images
		 WHERE property_id = $1 ORDER BY position`,
		propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []model.PropertyImage
	for rows.Next() {
		var img model.PropertyImage
		if err := rows.Scan(&img.ID, &img.URL, &img.StorageKey, &img.Position); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// List は絞り込み・ページング済みの一覧と総件数を返す
func (r *PgPropertyRepository) List(ctx context.Context, f PropertyFilter) ([]*model.Property, int, error) {
	where := ` WHERE TRUE`
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Search != "" {
		ph := arg(f.Search)
		where += ` AND (p.titre ILIKE '%' || ` + ph + ` || '%'
			OR p.description ILIKE '%' || ` + ph + ` || '%'
			OR p.ville ILIKE '%' || ` + ph + ` || '%'
			OR p.categorie ILIKE '%' || ` + ph + ` || '%')`
	}
	if f.Ville != "" {
		where += ` AND p.ville = ` + arg(f.Ville)
	}
	if f.Categorie != "" {
		where += ` AND p.categorie = ` + arg(f.Categorie)
	}
	if f.PrixMin != nil {
		where += ` AND p.prix >= ` + arg(*f.PrixMin)
	}
	if f.PrixMax != nil {
		where += ` AND p.prix <= ` + arg(*f.PrixMax)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM properties p`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + propertySelectCols + `, u.id, u.nom, u.email
		 FROM properties p INNER JOIN users u ON u.id = p.user_id` + where +
		` ORDER BY p.created_at DESC LIMIT ` + arg(f.Limit) + ` OFFSET ` + arg(f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var properties []*model.Property
	for rows.Next() {
		var p model.Property
		var owner model.PublicUser
		if err := rows.Scan(&p.ID, &p.UserID, &p.Titre, &p.Description, &p.Prix,
			&p.Ville, &p.Adresse, &p.Categorie, &p.NoteMoyenne, &p.CreatedAt, &p.UpdatedAt,
			&owner.ID, &owner.Nom, &owner.Email); err != nil {
			return nil, 0, err
		}
		p.Owner = &owner
		properties = append(properties, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for _, p := range properties {
		images, err := r.listImages(ctx, p.ID)
		if err != nil {
			return nil, 0, err
		}
		p.Images = images
	}
	return properties, total, nil
}

// Update は物件の本体項目を更新する
func (r *PgPropertyRepository) Update(ctx context.Context, p *model.Property) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE properties
		 SET titre = $1, description = $2, prix = $3, ville = $4, adresse = $5, categorie = $6, updated_at = NOW()
		 WHERE id = $7`,
		p.Titre, p.Description, p.Prix, p.Ville, p.Adresse, p.Categorie, p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceImages は既存画像レコードを削除して差し替える
func (r *PgPropertyRepository) ReplaceImages(ctx context.Context, propertyID string, images []model.PropertyImage) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM property_images WHERE property_id = $1`, propertyID); err != nil {
		return err
	}
	for i := range images {
		img := &images[i]
		if err := tx.QueryRow(ctx,
			`INSERT INTO property_images (property_id, url, storage_key, position)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			propertyID, img.URL, img.StorageKey, i,
		).Scan(&img.ID); err != nil {
			return err
		}
		img.Position = i
	}
	return tx.Commit(ctx)
}

// Delete は物件を削除する（画像・評価・お気に入りは外部キーで連鎖削除）
func (r *PgPropertyRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Rate は評価を upsert し、同一トランザクションで平均点を再計算する。
// read-modify-write ではなく DB 側で原子的に行うため、並行評価で更新が失われない。
func (r *PgPropertyRepository) Rate(ctx context.Context, propertyID, userID string, note int) (float64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO property_ratings (property_id, user_id, note)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (property_id, user_id) DO UPDATE SET note = EXCLUDED.note`,
		propertyID, userID, note); err != nil {
		return 0, err
	}

	var average float64
	err = tx.QueryRow(ctx,
		`UPDATE properties
		 SET note_moyenne = (SELECT COALESCE(AVG(note), 0) FROM property_ratings WHERE property_id = $1),
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING note_moyenne`,
		propertyID).Scan(&average)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return average, nil
}

// FindRating はユーザー自身の評価を返す
func (r *PgPropertyRepository) FindRating(ctx context.Context, propertyID, userID string) (int, bool, error) {
	var note int
	err := r.pool.QueryRow(ctx,
		`SELECT note FROM property_ratings WHERE property_id = $1 AND user_id = $2`,
		propertyID, userID).Scan(&note)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return note, true, nil
}
