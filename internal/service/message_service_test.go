package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ophrus/backend/internal/model"
	"github.com/ophrus/backend/internal/repository"
)

// ---------------------------------------------------------------------------
// mockMessageRepository : MessageRepository のモック
// ---------------------------------------------------------------------------

type mockMessageRepository struct {
	createFunc           func(ctx context.Context, m *model.Message) error
	findByIDFunc         func(ctx context.Context, id string) (*model.Message, error)
	listByUserFunc       func(ctx context.Context, userID string) ([]*model.Message, error)
	listConversationFunc func(ctx context.Context, userID, otherID string) ([]*model.Message, error)
	countUnreadFunc      func(ctx context.Context, userID string) (int, error)
	markReadFunc         func(ctx context.Context, id string) error
	markThreadReadFunc   func(ctx context.Context, destinataire, expediteur string) error
}

func (m *mockMessageRepository) Create(ctx context.Context, msg *model.Message) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, msg)
	}
	msg.ID = "new-message"
	return nil
}

func (m *mockMessageRepository) FindByID(ctx context.Context, id string) (*model.Message, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockMessageRepository) ListByUser(ctx context.Context, userID string) ([]*model.Message, error) {
	if m.listByUserFunc != nil {
		return m.listByUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockMessageRepository) ListConversation(ctx context.Context, userID, otherID string) ([]*model.Message, error) {
	if m.listConversationFunc != nil {
		return m.listConversationFunc(ctx, userID, otherID)
	}
	return nil, nil
}

func (m *mockMessageRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	if m.countUnreadFunc != nil {
		return m.countUnreadFunc(ctx, userID)
	}
	return 0, nil
}

func (m *mockMessageRepository) MarkRead(ctx context.Context, id string) error {
	if m.markReadFunc != nil {
		return m.markReadFunc(ctx, id)
	}
	return nil
}

func (m *mockMessageRepository) MarkThreadRead(ctx context.Context, destinataire, expediteur string) error {
	if m.markThreadReadFunc != nil {
		return m.markThreadReadFunc(ctx, destinataire, expediteur)
	}
	return nil
}

// msg は降順ログ構築用のヘルパ
func msg(id, from, to string, lu bool, at time.Time) *model.Message {
	return &model.Message{ID: id, Expediteur: from, Destinataire: to, Contenu: "m-" + id, Lu: lu, CreatedAt: at}
}

func knownUsers(ids ...string) *mockUserRepository {
	users := make(map[string]*model.User, len(ids))
	for _, id := range ids {
		users[id] = &model.User{ID: id, Nom: "nom-" + id, Email: id + "@example.com"}
	}
	return &mockUserRepository{findByIDFunc: userByID(users)}
}

// ---------------------------------------------------------------------------
// Tests: MessageService.Send
// ---------------------------------------------------------------------------

func TestMessageService_Send_Success(t *testing.T) {
	var created *model.Message
	msgRepo := &mockMessageRepository{
		createFunc: func(_ context.Context, m *model.Message) error {
			m.ID = "msg-1"
			created = m
			return nil
		},
	}
	svc := NewMessageService(msgRepo, knownUsers("user-1", "user-2"))

	m, err := svc.Send(context.Background(), "user-1", "user-2", "bonjour")
	if err != nil {
		t.Fatalf("Send returned unexpected error: %v", err)
	}
	if m.ID != "msg-1" || m.Expediteur != "user-1" || m.Destinataire != "user-2" {
		t.Errorf("unexpected message: %+v", m)
	}
	if created == nil || created.Lu {
		t.Error("new message must be created unread")
	}
}

func TestMessageService_Send_SelfRejected(t *testing.T) {
	svc := NewMessageService(&mockMessageRepository{}, knownUsers("user-1"))

	_, err := svc.Send(context.Background(), "user-1", "user-1", "salut moi")
	if !errors.Is(err, ErrSelfMessage) {
		t.Errorf("expected ErrSelfMessage, got %v", err)
	}
}

func TestMessageService_Send_UnknownRecipient(t *testing.T) {
	svc := NewMessageService(&mockMessageRepository{}, knownUsers("user-1"))

	_, err := svc.Send(context.Background(), "user-1", "ghost", "hello?")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Tests: aggregateThreads
// ---------------------------------------------------------------------------

func TestAggregateThreads_FirstSeenKeepsRecencyOrder(t *testing.T) {
	now := time.Now()
	// 新しい順のログ: B からの最新、A への送信、B からの古いもの
	log := []*model.Message{
		msg("3", "user-b", "me", false, now),
		msg("2", "me", "user-a", false, now.Add(-time.Minute)),
		msg("1", "user-b", "me", true, now.Add(-2*time.Minute)),
	}

	threads := aggregateThreads(log, "me")
	if len(threads) != 2 {
		t.Fatalf("expected 2 threads, got %d", len(threads))
	}
	if threads[0].otherID != "user-b" || threads[0].dernier.ID != "3" {
		t.Errorf("thread 0 should be user-b with message 3, got %s/%s", threads[0].otherID, threads[0].dernier.ID)
	}
	if threads[1].otherID != "user-a" || threads[1].dernier.ID != "2" {
		t.Errorf("thread 1 should be user-a with message 2, got %s/%s", threads[1].otherID, threads[1].dernier.ID)
	}
}

func TestAggregateThreads_UnreadCountsOnlyIncoming(t *testing.T) {
	now := time.Now()
	log := []*model.Message{
		msg("4", "user-a", "me", false, now),
		msg("3", "me", "user-a", false, now.Add(-time.Minute)), // 自分の送信は未読数に含めない
		msg("2", "user-a", "me", false, now.Add(-2*time.Minute)),
		msg("1", "user-a", "me", true, now.Add(-3*time.Minute)), // 既読も含めない
	}

	threads := aggregateThreads(log, "me")
	if len(threads) != 1 {
		t.Fatalf("expected 1 thread, got %d", len(threads))
	}
	if threads[0].nonLus != 2 {
		t.Errorf("expected nonLus=2, got %d", threads[0].nonLus)
	}
}

func TestAggregateThreads_EmptyLog(t *testing.T) {
	if threads := aggregateThreads(nil, "me"); len(threads) != 0 {
		t.Errorf("expected no threads, got %d", len(threads))
	}
}

// ---------------------------------------------------------------------------
// Tests: MessageService.Inbox
// ---------------------------------------------------------------------------

func inboxFixture(t *testing.T, totalThreads int) *MessageServiceImpl {
	t.Helper()
	now := time.Now()
	var log []*model.Message
	ids := make([]string, 0, totalThreads)
	for i := 0; i < totalThreads; i++ {
		other := string(rune('a' + i))
		ids = append(ids, "user-"+other)
		log = append(log, msg("m-"+other, "user-"+other, "me", false, now.Add(-time.Duration(i)*time.Minute)))
	}
	msgRepo := &mockMessageRepository{
		listByUserFunc: func(_ context.Context, _ string) ([]*model.Message, error) {
			return log, nil
		},
	}
	return NewMessageService(msgRepo, knownUsers(append(ids, "me")...)).(*MessageServiceImpl)
}

func TestMessageService_Inbox_Pagination(t *testing.T) {
	svc := inboxFixture(t, 13)

	inbox, err := svc.Inbox(context.Background(), "me", 2, 5)
	if err != nil {
		t.Fatalf("Inbox returned unexpected error: %v", err)
	}
	if inbox.TotalThreads != 13 {
		t.Errorf("expected totalThreads=13, got %d", inbox.TotalThreads)
	}
	if inbox.TotalPages != 3 {
		t.Errorf("expected totalPages=3, got %d", inbox.TotalPages)
	}
	if len(inbox.Threads) != 5 {
		t.Errorf("expected 5 threads on page 2, got %d", len(inbox.Threads))
	}
	// 2 ページ目の先頭は 6 番目に新しいスレッド (user-f)
	if inbox.Threads[0].Correspondant.ID != "user-f" {
		t.Errorf("expected first thread user-f, got %q", inbox.Threads[0].Correspondant.ID)
	}
}

func TestMessageService_Inbox_LastPagePartial(t *testing.T) {
	svc := inboxFixture(t, 13)

	inbox, err := svc.Inbox(context.Background(), "me", 3, 5)
	if err != nil {
		t.Fatalf("Inbox returned unexpected error: %v", err)
	}
	if len(inbox.Threads) != 3 {
		t.Errorf("expected 3 threads on last page, got %d", len(inbox.Threads))
	}
}

func TestMessageService_Inbox_OutOfRangePage(t *testing.T) {
	svc := inboxFixture(t, 3)

	inbox, err := svc.Inbox(context.Background(), "me", 9, 10)
	if err != nil {
		t.Fatalf("Inbox returned unexpected error: %v", err)
	}
	if inbox.Threads == nil || len(inbox.Threads) != 0 {
		t.Errorf("expected empty threads slice, got %v", inbox.Threads)
	}
	if inbox.TotalThreads != 3 || inbox.TotalPages != 1 {
		t.Errorf("totals wrong: %+v", inbox)
	}
}

func TestMessageService_Inbox_Empty(t *testing.T) {
	svc := NewMessageService(&mockMessageRepository{}, knownUsers("me"))

	inbox, err := svc.Inbox(context.Background(), "me", 0, 0)
	if err != nil {
		t.Fatalf("Inbox returned unexpected error: %v", err)
	}
	if inbox.Page != 1 || inbox.Limit != 10 {
		t.Errorf("expected defaults page=1 limit=10, got page=%d limit=%d", inbox.Page, inbox.Limit)
	}
	if inbox.TotalThreads != 0 || inbox.TotalPages != 0 {
		t.Errorf("expected zero totals, got %+v", inbox)
	}
	if inbox.Threads == nil || len(inbox.Threads) != 0 {
		t.Errorf("expected empty threads slice, got %v", inbox.Threads)
	}
}

func TestMessageService_Inbox_DeletedCorrespondentKeepsThread(t *testing.T) {
	now := time.Now()
	msgRepo := &mockMessageRepository{
		listByUserFunc: func(_ context.Context, _ string) ([]*model.Message, error) {
			return []*model.Message{msg("1", "ghost", "me", false, now)}, nil
		},
	}
	svc := NewMessageService(msgRepo, knownUsers("me"))

	inbox, err := svc.Inbox(context.Background(), "me", 1, 10)
	if err != nil {
		t.Fatalf("Inbox returned unexpected error: %v", err)
	}
	if len(inbox.Threads) != 1 {
		t.Fatalf("expected 1 thread, got %d", len(inbox.Threads))
	}
	if inbox.Threads[0].Correspondant != nil {
		t.Error("expected nil correspondant for deleted account")
	}
	if inbox.Threads[0].DernierMessage.ID != "1" {
		t.Error("thread should keep its last message")
	}
}

// ---------------------------------------------------------------------------
// Tests: MessageService.MarkRead / MarkThreadRead
// ---------------------------------------------------------------------------

func TestMessageService_MarkRead_RecipientOnly(t *testing.T) {
	msgRepo := &mockMessageRepository{
		findByIDFunc: func(_ context.Context, id string) (*model.Message, error) {
			return msg(id, "user-1", "user-2", false, time.Now()), nil
		},
	}
	svc := NewMessageService(msgRepo, knownUsers("user-1", "user-2"))

	if err := svc.MarkRead(context.Background(), "user-1", "msg-1"); !errors.Is(err, ErrForbidden) {
		t.Errorf("sender marking read should be forbidden, got %v", err)
	}
	if err := svc.MarkRead(context.Background(), "user-2", "msg-1"); err != nil {
		t.Errorf("recipient MarkRead returned unexpected error: %v", err)
	}
}

func TestMessageService_MarkRead_UnknownMessage(t *testing.T) {
	svc := NewMessageService(&mockMessageRepository{}, knownUsers())

	if err := svc.MarkRead(context.Background(), "user-1", "ghost"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMessageService_MarkRead_AlreadyReadIsNoop(t *testing.T) {
	repoCalled := false
	msgRepo := &mockMessageRepository{
		findByIDFunc: func(_ context.Context, id string) (*model.Message, error) {
			return msg(id, "user-1", "user-2", true, time.Now()), nil
		},
		markReadFunc: func(_ context.Context, _ string) error {
			repoCalled = true
			return nil
		},
	}
	svc := NewMessageService(msgRepo, knownUsers())

	if err := svc.MarkRead(context.Background(), "user-2", "msg-1"); err != nil {
		t.Fatalf("MarkRead returned unexpected error: %v", err)
	}
	if repoCalled {
		t.Error("already-read message should not trigger an update")
	}
}

func TestMessageService_MarkThreadRead_DirectionIsolated(t *testing.T) {
	var gotDestinataire, gotExpediteur string
	msgRepo := &mockMessageRepository{
		markThreadReadFunc: func(_ context.Context, destinataire, expediteur string) error {
			gotDestinataire = destinataire
			gotExpediteur = expediteur
			return nil
		},
	}
	svc := NewMessageService(msgRepo, knownUsers())

	if err := svc.MarkThreadRead(context.Background(), "me", "user-b"); err != nil {
		t.Fatalf("MarkThreadRead returned unexpected error: %v", err)
	}
	// 既読化するのは「user-b → me」方向のみ
	if gotDestinataire != "me" || gotExpediteur != "user-b" {
		t.Errorf("wrong direction: destinataire=%q expediteur=%q", gotDestinataire, gotExpediteur)
	}
}
