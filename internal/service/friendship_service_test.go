package service

import (
	"errors"
	"testing"

	"nice/internal/models"

	"gorm.io/gorm"
)

// fakeFriendStore mimics the repository's constraint behavior in memory:
// one request row per pair, one canonical friendship row per pair.
type fakeFriendStore struct {
	nextID      uint
	requests    map[uint]*models.FriendRequest
	friendships map[string]*models.Friendship
}

func newFakeFriendStore() *fakeFriendStore {
	return &fakeFriendStore{
		nextID:      1,
		requests:    make(map[uint]*models.FriendRequest),
		friendships: make(map[string]*models.Friendship),
	}
}

func (f *fakeFriendStore) CreateRequest(fr *models.FriendRequest) error {
	key := models.PairKey(fr.SenderID, fr.ReceiverID)
	for _, r := range f.requests {
		if models.PairKey(r.SenderID, r.ReceiverID) == key {
			return gorm.ErrDuplicatedKey
		}
	}
	fr.ID = f.nextID
	f.nextID++
	fr.PairKey = key
	f.requests[fr.ID] = fr
	return nil
}

func (f *fakeFriendStore) GetRequestByID(id uint) (*models.FriendRequest, error) {
	fr, ok := f.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return fr, nil
}

func (f *fakeFriendStore) DeleteRequest(id uint) error {
	delete(f.requests, id)
	return nil
}

func (f *fakeFriendStore) DeleteRequestsBetween(a, b uint) (int64, error) {
	key := models.PairKey(a, b)
	var n int64
	for id, r := range f.requests {
		if r.PairKey == key {
			delete(f.requests, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeFriendStore) GetRequestBetween(a, b uint) (*models.FriendRequest, error) {
	key := models.PairKey(a, b)
	for _, r := range f.requests {
		if r.PairKey == key {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeFriendStore) CreateFriendship(fr *models.Friendship) error {
	if fr.UserID > fr.FriendID {
		fr.UserID, fr.FriendID = fr.FriendID, fr.UserID
	}
	key := models.PairKey(fr.UserID, fr.FriendID)
	if _, ok := f.friendships[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	f.friendships[key] = fr
	return nil
}

func (f *fakeFriendStore) DeleteFriendship(a, b uint) (int64, error) {
	key := models.PairKey(a, b)
	if _, ok := f.friendships[key]; !ok {
		return 0, nil
	}
	delete(f.friendships, key)
	return 1, nil
}

func (f *fakeFriendStore) AreFriends(a, b uint) (bool, error) {
	_, ok := f.friendships[models.PairKey(a, b)]
	return ok, nil
}

type fakeBlockStore struct {
	blocks map[[2]uint]bool // [blocker, blocked]
}

func newFakeBlockStore() *fakeBlockStore {
	return &fakeBlockStore{blocks: make(map[[2]uint]bool)}
}

func (f *fakeBlockStore) Create(b *models.Block) error {
	key := [2]uint{b.BlockerID, b.BlockedID}
	if f.blocks[key] {
		return gorm.ErrDuplicatedKey
	}
	f.blocks[key] = true
	return nil
}

func (f *fakeBlockStore) Delete(blockerID, blockedID uint) (int64, error) {
	key := [2]uint{blockerID, blockedID}
	if !f.blocks[key] {
		return 0, nil
	}
	delete(f.blocks, key)
	return 1, nil
}

func (f *fakeBlockStore) IsBlocked(blockerID, blockedID uint) (bool, error) {
	return f.blocks[[2]uint{blockerID, blockedID}], nil
}

func (f *fakeBlockStore) IsBlockedEither(a, b uint) (bool, error) {
	return f.blocks[[2]uint{a, b}] || f.blocks[[2]uint{b, a}], nil
}

func newTestFriendshipService() (*FriendshipService, *fakeFriendStore, *fakeBlockStore) {
	friends := newFakeFriendStore()
	blocks := newFakeBlockStore()
	return NewFriendshipService(friends, blocks), friends, blocks
}

func TestSendRequestToSelf(t *testing.T) {
	svc, _, _ := newTestFriendshipService()
	if _, err := svc.SendRequest(1, 1); !errors.Is(err, ErrSelfRequest) {
		t.Fatalf("err = %v, want ErrSelfRequest", err)
	}
}

func TestSendRequestDuplicateEitherDirection(t *testing.T) {
	svc, _, _ := newTestFriendshipService()
	if _, err := svc.SendRequest(1, 2); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, err := svc.SendRequest(1, 2); !errors.Is(err, ErrDuplicateRequest) {
		t.Fatalf("same direction: err = %v, want ErrDuplicateRequest", err)
	}
	if _, err := svc.SendRequest(2, 1); !errors.Is(err, ErrDuplicateRequest) {
		t.Fatalf("reverse direction: err = %v, want ErrDuplicateRequest", err)
	}
}

func TestAcceptCreatesSingleCanonicalFriendship(t *testing.T) {
	svc, friends, _ := newTestFriendshipService()
	fr, err := svc.SendRequest(5, 2)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.Accept(fr.ID, 2); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if len(friends.friendships) != 1 {
		t.Fatalf("friendships = %d, want 1", len(friends.friendships))
	}
	for _, f := range friends.friendships {
		if f.UserID != 2 || f.FriendID != 5 {
			t.Errorf("stored pair = (%d,%d), want canonical (2,5)", f.UserID, f.FriendID)
		}
	}
	if len(friends.requests) != 0 {
		t.Errorf("requests remaining = %d, want 0", len(friends.requests))
	}
	rel, err := svc.Relationship(5, 2)
	if err != nil {
		t.Fatalf("relationship: %v", err)
	}
	if rel.State != RelFriends {
		t.Errorf("state = %q, want %q", rel.State, RelFriends)
	}
}

func TestAcceptOnlyByReceiver(t *testing.T) {
	svc, _, _ := newTestFriendshipService()
	fr, _ := svc.SendRequest(1, 2)
	if _, err := svc.Accept(fr.ID, 1); !errors.Is(err, ErrNotReceiver) {
		t.Fatalf("sender accept: err = %v, want ErrNotReceiver", err)
	}
	if _, err := svc.Accept(fr.ID, 3); !errors.Is(err, ErrNotReceiver) {
		t.Fatalf("third party accept: err = %v, want ErrNotReceiver", err)
	}
}

func TestRejectReturnsToStrangers(t *testing.T) {
	svc, friends, _ := newTestFriendshipService()
	fr, _ := svc.SendRequest(1, 2)
	if err := svc.Reject(fr.ID, 2); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if len(friends.requests) != 0 || len(friends.friendships) != 0 {
		t.Fatalf("requests=%d friendships=%d, want 0/0",
			len(friends.requests), len(friends.friendships))
	}
	// A fresh request after rejection is allowed.
	if _, err := svc.SendRequest(2, 1); err != nil {
		t.Fatalf("resend after reject: %v", err)
	}
}

func TestUnfriendIdempotent(t *testing.T) {
	svc, _, _ := newTestFriendshipService()
	fr, _ := svc.SendRequest(1, 2)
	if _, err := svc.Accept(fr.ID, 2); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := svc.Unfriend(2, 1); err != nil {
		t.Fatalf("unfriend: %v", err)
	}
	if err := svc.Unfriend(1, 2); err != nil {
		t.Fatalf("second unfriend: %v", err)
	}
	rel, _ := svc.Relationship(1, 2)
	if rel.State != RelStrangers {
		t.Errorf("state = %q, want %q", rel.State, RelStrangers)
	}
}

func TestBlockDestroysFriendshipAndRequests(t *testing.T) {
	svc, friends, _ := newTestFriendshipService()
	fr, _ := svc.SendRequest(1, 2)
	if _, err := svc.Accept(fr.ID, 2); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := svc.Block(1, 2); err != nil {
		t.Fatalf("block: %v", err)
	}
	if len(friends.friendships) != 0 {
		t.Errorf("friendships = %d, want 0", len(friends.friendships))
	}
	rel, _ := svc.Relationship(2, 1)
	if rel.State != RelBlocked {
		t.Errorf("state = %q, want %q", rel.State, RelBlocked)
	}
	if rel.BlockedBy != 1 {
		t.Errorf("blocked by = %d, want 1", rel.BlockedBy)
	}
	// No new requests while blocked, in either direction.
	if _, err := svc.SendRequest(2, 1); !errors.Is(err, ErrBlocked) {
		t.Errorf("blocked user sending: err = %v, want ErrBlocked", err)
	}
	if _, err := svc.SendRequest(1, 2); !errors.Is(err, ErrBlocked) {
		t.Errorf("blocker sending: err = %v, want ErrBlocked", err)
	}
}

func TestBlockDeletesPendingRequest(t *testing.T) {
	svc, friends, _ := newTestFriendshipService()
	if _, err := svc.SendRequest(1, 2); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := svc.Block(2, 1); err != nil {
		t.Fatalf("block: %v", err)
	}
	if len(friends.requests) != 0 {
		t.Errorf("requests = %d, want 0", len(friends.requests))
	}
}

func TestBlockIdempotent(t *testing.T) {
	svc, _, _ := newTestFriendshipService()
	if err := svc.Block(1, 2); err != nil {
		t.Fatalf("block: %v", err)
	}
	if err := svc.Block(1, 2); err != nil {
		t.Fatalf("second block: %v", err)
	}
}

func TestUnblockDoesNotRestoreFriendship(t *testing.T) {
	svc, friends, _ := newTestFriendshipService()
	fr, _ := svc.SendRequest(1, 2)
	if _, err := svc.Accept(fr.ID, 2); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := svc.Block(1, 2); err != nil {
		t.Fatalf("block: %v", err)
	}
	if err := svc.Unblock(1, 2); err != nil {
		t.Fatalf("unblock: %v", err)
	}
	if len(friends.friendships) != 0 {
		t.Errorf("friendships = %d, want 0 after unblock", len(friends.friendships))
	}
	rel, _ := svc.Relationship(1, 2)
	if rel.State != RelStrangers {
		t.Errorf("state = %q, want %q", rel.State, RelStrangers)
	}
	// Either side may now start over.
	if _, err := svc.SendRequest(2, 1); err != nil {
		t.Errorf("request after unblock: %v", err)
	}
}

func TestRelationshipPending(t *testing.T) {
	svc, _, _ := newTestFriendshipService()
	fr, _ := svc.SendRequest(3, 7)
	rel, err := svc.Relationship(7, 3)
	if err != nil {
		t.Fatalf("relationship: %v", err)
	}
	if rel.State != RelPending {
		t.Fatalf("state = %q, want %q", rel.State, RelPending)
	}
	if rel.PendingFrom != 3 {
		t.Errorf("pending from = %d, want 3", rel.PendingFrom)
	}
	if rel.RequestID != fr.ID {
		t.Errorf("request id = %d, want %d", rel.RequestID, fr.ID)
	}
}

func TestRelationshipBlockedWinsOverFriends(t *testing.T) {
	svc, friends, blocks := newTestFriendshipService()
	if err := friends.CreateFriendship(&models.Friendship{UserID: 1, FriendID: 2}); err != nil {
		t.Fatalf("seed friendship: %v", err)
	}
	if err := blocks.Create(&models.Block{BlockerID: 2, BlockedID: 1}); err != nil {
		t.Fatalf("seed block: %v", err)
	}
	rel, _ := svc.Relationship(1, 2)
	if rel.State != RelBlocked {
		t.Errorf("state = %q, want %q", rel.State, RelBlocked)
	}
	if rel.BlockedBy != 2 {
		t.Errorf("blocked by = %d, want 2", rel.BlockedBy)
	}
}
