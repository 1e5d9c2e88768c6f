package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"nice/internal/domain"
	"nice/internal/models"

	"gorm.io/gorm"
)

type fakeMessageStore struct {
	nextID   uint
	messages []*models.Message
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{nextID: 1}
}

func (f *fakeMessageStore) pair(m *models.Message, a, b uint) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

func (f *fakeMessageStore) Create(m *models.Message) error {
	m.ID = f.nextID
	f.nextID++
	m.CreatedAt = time.Now()
	f.messages = append(f.messages, m)
	return nil
}

func (f *fakeMessageStore) Latest(a, b uint) (*models.Message, error) {
	for i := len(f.messages) - 1; i >= 0; i-- {
		if f.pair(f.messages[i], a, b) {
			return f.messages[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeMessageStore) ListThread(a, b uint, limit, offset int) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.messages {
		if f.pair(m, a, b) {
			out = append(out, *m)
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMessageStore) AnyAccepted(a, b uint) (bool, error) {
	for _, m := range f.messages {
		if f.pair(m, a, b) && m.RequestStatus == domain.RequestStatusAccepted {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMessageStore) CountPendingFor(userID, peerID uint) (int64, error) {
	var c int64
	for _, m := range f.messages {
		if m.SenderID == peerID && m.ReceiverID == userID && m.RequestStatus == domain.RequestStatusPending {
			c++
		}
	}
	return c, nil
}

func (f *fakeMessageStore) RelabelPending(a, b uint, status string) ([]uint, error) {
	var ids []uint
	for _, m := range f.messages {
		if f.pair(m, a, b) && m.RequestStatus == domain.RequestStatusPending {
			m.RequestStatus = status
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

func newTestMessagingService() (*MessagingService, *fakeMessageStore, *fakeBlockStore) {
	messages := newFakeMessageStore()
	blocks := newFakeBlockStore()
	return NewMessagingService(messages, blocks), messages, blocks
}

func TestFirstMessageIsPending(t *testing.T) {
	svc, _, _ := newTestMessagingService()
	m, err := svc.Send(1, 2, "hello", "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if m.RequestStatus != domain.RequestStatusPending {
		t.Errorf("status = %q, want pending", m.RequestStatus)
	}
	status, err := svc.ThreadStatus(1, 2)
	if err != nil {
		t.Fatalf("thread status: %v", err)
	}
	if status != domain.RequestStatusPending {
		t.Errorf("thread = %q, want pending", status)
	}
}

func TestSenderMayAddToPendingRequest(t *testing.T) {
	svc, _, _ := newTestMessagingService()
	if _, err := svc.Send(1, 2, "hello", ""); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := svc.Send(1, 2, "still there?", ""); err != nil {
		t.Fatalf("second from initiator: %v", err)
	}
}

func TestReceiverCannotReplyWhilePending(t *testing.T) {
	svc, _, _ := newTestMessagingService()
	if _, err := svc.Send(1, 2, "hello", ""); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.Send(2, 1, "hi back", ""); !errors.Is(err, ErrThreadPending) {
		t.Fatalf("reply while pending: err = %v, want ErrThreadPending", err)
	}
}

func TestAcceptRelabelsAllPending(t *testing.T) {
	svc, store, _ := newTestMessagingService()
	for i := 0; i < 3; i++ {
		if _, err := svc.Send(1, 2, fmt.Sprintf("msg %d", i), ""); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	ids, err := svc.Accept(2, 1)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("relabeled %d messages, want 3", len(ids))
	}
	for _, m := range store.messages {
		if m.RequestStatus != domain.RequestStatusAccepted {
			t.Errorf("message %d status = %q, want accepted", m.ID, m.RequestStatus)
		}
	}
	// Receiver can now reply, and the reply is born accepted.
	reply, err := svc.Send(2, 1, "hi back", "")
	if err != nil {
		t.Fatalf("reply after accept: %v", err)
	}
	if reply.RequestStatus != domain.RequestStatusAccepted {
		t.Errorf("reply status = %q, want accepted", reply.RequestStatus)
	}
}

func TestOnceAcceptedAlwaysAccepted(t *testing.T) {
	svc, _, _ := newTestMessagingService()
	if _, err := svc.Send(1, 2, "hello", ""); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.Accept(2, 1); err != nil {
		t.Fatalf("accept: %v", err)
	}
	m, err := svc.Send(1, 2, "later message", "")
	if err != nil {
		t.Fatalf("send after accept: %v", err)
	}
	if m.RequestStatus != domain.RequestStatusAccepted {
		t.Errorf("status = %q, want accepted", m.RequestStatus)
	}
	status, _ := svc.ThreadStatus(2, 1)
	if status != domain.RequestStatusAccepted {
		t.Errorf("thread = %q, want accepted", status)
	}
}

func TestRejectAllowsFreshRequest(t *testing.T) {
	svc, _, _ := newTestMessagingService()
	if _, err := svc.Send(1, 2, "hello", ""); err != nil {
		t.Fatalf("send: %v", err)
	}
	ids, err := svc.Reject(2, 1)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("relabeled %d, want 1", len(ids))
	}
	status, _ := svc.ThreadStatus(1, 2)
	if status != domain.RequestStatusRejected {
		t.Errorf("thread = %q, want rejected", status)
	}
	// The sender may try again; the new message is a fresh pending request.
	m, err := svc.Send(1, 2, "sorry, one more try", "")
	if err != nil {
		t.Fatalf("resend after reject: %v", err)
	}
	if m.RequestStatus != domain.RequestStatusPending {
		t.Errorf("status = %q, want pending", m.RequestStatus)
	}
}

func TestAcceptWithoutPendingFails(t *testing.T) {
	svc, _, _ := newTestMessagingService()
	if _, err := svc.Accept(2, 1); !errors.Is(err, ErrNothingToAct) {
		t.Fatalf("err = %v, want ErrNothingToAct", err)
	}
	if _, err := svc.Send(1, 2, "hello", ""); err != nil {
		t.Fatalf("send: %v", err)
	}
	// The sender of the pending request cannot accept their own request.
	if _, err := svc.Accept(1, 2); !errors.Is(err, ErrNothingToAct) {
		t.Fatalf("self accept: err = %v, want ErrNothingToAct", err)
	}
}

func TestSendBlockedEitherDirection(t *testing.T) {
	svc, _, blocks := newTestMessagingService()
	if err := blocks.Create(&models.Block{BlockerID: 2, BlockedID: 1}); err != nil {
		t.Fatalf("seed block: %v", err)
	}
	if _, err := svc.Send(1, 2, "hello", ""); !errors.Is(err, ErrBlocked) {
		t.Errorf("blocked sender: err = %v, want ErrBlocked", err)
	}
	if _, err := svc.Send(2, 1, "hello", ""); !errors.Is(err, ErrBlocked) {
		t.Errorf("blocker sending: err = %v, want ErrBlocked", err)
	}
}

func TestSendRequiresContentOrMedia(t *testing.T) {
	svc, _, _ := newTestMessagingService()
	if _, err := svc.Send(1, 2, "   ", ""); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("err = %v, want ErrEmptyMessage", err)
	}
	if _, err := svc.Send(1, 2, "", "https://example.com/pic.jpg"); err != nil {
		t.Fatalf("media-only message: %v", err)
	}
}

func TestThreadStatusEmptyThread(t *testing.T) {
	svc, _, _ := newTestMessagingService()
	status, err := svc.ThreadStatus(1, 2)
	if err != nil {
		t.Fatalf("thread status: %v", err)
	}
	if status != "" {
		t.Errorf("status = %q, want empty", status)
	}
}
