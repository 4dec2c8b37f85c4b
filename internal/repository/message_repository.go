package repository

import (
	"context"

	"github.com/ophrus/backend/internal/model"
)

// MessageRepository はメッセージ永続化のインターフェース。
// メッセージは追記専用で、更新されるのは既読フラグ（lu）のみ。
type MessageRepository interface {
	Create(ctx context.Context, m *model.Message) error
	FindByID(ctx context.Context, id string) (*model.Message, error)
	// ListByUser は userID が送信者または受信者であるメッセージを新しい順で返す
	ListByUser(ctx context.Context, userID string) ([]*model.Message, error)
	// ListConversation は二者間の全メッセージを古い順で返す
	ListConversation(ctx context.Context, userID, otherID string) ([]*model.Message, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id string) error
	// MarkThreadRead は expediteur から destinataire 宛の未読を一括既読にする
	MarkThreadRead(ctx context.Context, destinataire, expediteur string) error
}
