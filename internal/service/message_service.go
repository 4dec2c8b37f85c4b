package service

import (
	"context"

	"github.com/ophrus/backend/internal/model"
)

// Thread は受信箱に表示される、相手ごとの会話ビュー（永続化されない導出データ）
type Thread struct {
	Correspondant  *model.PublicUser `json:"correspondant"`
	DernierMessage *model.Message    `json:"dernierMessage"`
	NonLus         int               `json:"nonLus"`
}

// Inbox はページング済みの受信箱
type Inbox struct {
	Page         int       `json:"page"`
	Limit        int       `json:"limit"`
	TotalThreads int       `json:"totalThreads"`
	TotalPages   int       `json:"totalPages"`
	Threads      []*Thread `json:"threads"`
}

// MessageService はメッセージ機能に関するビジネスロジックのインターフェース
type MessageService interface {
	Send(ctx context.Context, senderID, receiverID, contenu string) (*model.Message, error)
	Conversation(ctx context.Context, userID, otherID string) ([]*model.Message, error)
	Inbox(ctx context.Context, userID string, page, limit int) (*Inbox, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, messageID string) error
	MarkThreadRead(ctx context.Context, userID, otherID string) error
}
