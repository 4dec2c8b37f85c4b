package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ophrus/backend/internal/model"
)

// PgMessageRepository は MessageRepository の PostgreSQL 実装
type PgMessageRepository struct {
	pool *pgxpool.Pool
}

// NewPgMessageRepository は PgMessageRepository を生成する
func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

const messageSelectCols = `id, expediteur, destinataire, contenu, lu, created_at`

func scanMessage(scan func(...any) error) (*model.Message, error) {
	var m model.Message
	if err := scan(&m.ID, &m.Expediteur, &m.Destinataire, &m.Contenu, &m.Lu, &m.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func collectMessages(rows pgx.Rows) ([]*model.Message, error) {
	defer rows.Close()
	var messages []*model.Message
	for rows.Next() {
		m, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// Create はメッセージを作成する
func (r *PgMessageRepository) Create(ctx context.Context, m *model.Message) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO messages (expediteur, destinataire, contenu)
		 VALUES ($1, $2, $3)
		 RETURNING id, lu, created_at`,
		m.Expediteur, m.Destinataire, m.Contenu,
	).Scan(&m.ID, &m.Lu, &m.CreatedAt)
}

// FindByID は ID でメッセージを取得する
func (r *PgMessageRepository) FindByID(ctx context.Context, id string) (*model.Message, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+messageSelectCols+` FROM messages WHERE id = $1`, id)
	return scanMessage(row.Scan)
}

// ListByUser は送信者または受信者が userID のメッセージを新しい順で返す
func (r *PgMessageRepository) ListByUser(ctx context.Context, userID string) ([]*model.Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+messageSelectCols+` FROM messages
		 WHERE expediteur = $1 OR destinataire = $1
		 ORDER BY created_at DESC, id DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

// ListConversation は二者間の全メッセージを古い順で返す
func (r *PgMessageRepository) ListConversation(ctx context.Context, userID, otherID string) ([]*model.Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+messageSelectCols+` FROM messages
		 WHERE (expediteur = $1 AND destinataire = $2)
		    OR (expediteur = $2 AND destinataire = $1)
		 ORDER BY created_at ASC, id ASC`,
		userID, otherID)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

// CountUnread は userID 宛の未読メッセージ数を返す
func (r *PgMessageRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE destinataire = $1 AND lu = FALSE`,
		userID).Scan(&count)
	return count, err
}

// MarkRead は既読フラグを立てる（冪等）
func (r *PgMessageRepository) MarkRead(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE messages SET lu = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkThreadRead は expediteur から destinataire 宛の未読を一括既読にする（冪等）
func (r *PgMessageRepository) MarkThreadRead(ctx context.Context, destinataire, expediteur string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE messages SET lu = TRUE
		 WHERE destinataire = $1 AND expediteur = $2 AND lu = FALSE`,
		destinataire, expediteur)
	return err
}
