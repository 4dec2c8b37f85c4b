package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ophrus/backend/internal/model"
	"github.com/ophrus/backend/internal/repository"
)

const defaultInboxLimit = 10

// MessageServiceImpl は MessageService の実装
type MessageServiceImpl struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
}

// NewMessageService は MessageServiceImpl を生成する（DI: リポジトリを注入）
func NewMessageService(messageRepo repository.MessageRepository, userRepo repository.UserRepository) MessageService {
	return &MessageServiceImpl{messageRepo: messageRepo, userRepo: userRepo}
}

// Send はメッセージを作成する。宛先の存在を確認し、自分宛は拒否する。
func (s *MessageServiceImpl) Send(ctx context.Context, senderID, receiverID, contenu string) (*model.Message, error) {
	if senderID == receiverID {
		return nil, ErrSelfMessage
	}
	if _, err := s.userRepo.FindByID(ctx, receiverID); err != nil {
		return nil, err
	}

	m := &model.Message{
		Expediteur:   senderID,
		Destinataire: receiverID,
		Contenu:      contenu,
	}
	if err := s.messageRepo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return m, nil
}

// Conversation は二者間の全メッセージを古い順で返す
func (s *MessageServiceImpl) Conversation(ctx context.Context, userID, otherID string) ([]*model.Message, error) {
	return s.messageRepo.ListConversation(ctx, userID, otherID)
}

// threadAgg は集約途中のスレッド（相手 ID ごとの最新メッセージと未読数）
type threadAgg struct {
	otherID string
	dernier *model.Message
	nonLus  int
}

// aggregateThreads はメッセージログからスレッド一覧を導出する純関数。
// messages は新しい順であること。スレッドは最初に出現した順（= 最新メッセージの
// 新しい順）で並ぶ。nonLus は userID 宛かつ未読のメッセージ数。
func aggregateThreads(messages []*model.Message, userID string) []*threadAgg {
	index := make(map[string]*threadAgg)
	var threads []*threadAgg
	for _, m := range messages {
		other := m.Destinataire
		if m.Destinataire == userID {
			other = m.Expediteur
		}
		agg, ok := index[other]
		if !ok {
			agg = &threadAgg{otherID: other, dernier: m}
			index[other] = agg
			threads = append(threads, agg)
		}
		if !m.Lu && m.Destinataire == userID {
			agg.nonLus++
		}
	}
	return threads
}

// Inbox はスレッド単位でページングされた受信箱を返す
func (s *MessageServiceImpl) Inbox(ctx context.Context, userID string, page, limit int) (*Inbox, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultInboxLimit
	}

	messages, err := s.messageRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	threads := aggregateThreads(messages, userID)
	totalThreads := len(threads)
	totalPages := (totalThreads + limit - 1) / limit

	start := (page - 1) * limit
	end := start + limit
	if start > totalThreads {
		start = totalThreads
	}
	if end > totalThreads {
		end = totalThreads
	}
	pageThreads := threads[start:end]

	result := make([]*Thread, 0, len(pageThreads))
	for _, agg := range pageThreads {
		correspondant, err := s.userRepo.FindByID(ctx, agg.otherID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// 相手アカウントが削除済みでもスレッドは返す
				result = append(result, &Thread{
					Correspondant:  nil,
					DernierMessage: agg.dernier,
					NonLus:         agg.nonLus,
				})
				continue
			}
			return nil, fmt.Errorf("resolve correspondent: %w", err)
		}
		result = append(result, &Thread{
			Correspondant:  correspondant.Public(),
			DernierMessage: agg.dernier,
			NonLus:         agg.nonLus,
		})
	}

	return &Inbox{
		Page:         page,
		Limit:        limit,
		TotalThreads: totalThreads,
		TotalPages:   totalPages,
		Threads:      result,
	}, nil
}

// UnreadCount は未読メッセージの総数を返す
func (s *MessageServiceImpl) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.messageRepo.CountUnread(ctx, userID)
}

// MarkRead はメッセージを既読にする。受信者本人のみ許可、冪等。
func (s *MessageServiceImpl) MarkRead(ctx context.Context, userID, messageID string) error {
	m, err := s.messageRepo.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if m.Destinataire != userID {
		return ErrForbidden
	}
	if m.Lu {
		return nil
	}
	return s.messageRepo.MarkRead(ctx, messageID)
}

// MarkThreadRead は相手からの未読メッセージを一括既読にする（冪等）
func (s *MessageServiceImpl) MarkThreadRead(ctx context.Context, userID, otherID string) error {
	return s.messageRepo.MarkThreadRead(ctx, userID, otherID)
}
