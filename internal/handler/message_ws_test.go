package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nice/config"
	"nice/internal/auth"
	"nice/internal/models"
	"nice/internal/realtime"
	"nice/internal/ws"

	"github.com/gin-gonic/gin"
)

func TestThreadSnapshotRowsChronological(t *testing.T) {
	// Repo pages newest first; the seed must come out oldest first.
	msgs := make([]models.Message, 0, 100)
	for id := 150; id > 50; id-- {
		msgs = append(msgs, models.Message{ID: uint(id), SenderID: 1, ReceiverID: 2})
	}
	rows := threadSnapshotRows(msgs)
	if len(rows) != 100 {
		t.Fatalf("rows = %d, want 100", len(rows))
	}
	if rows[0].ID != 51 || rows[99].ID != 150 {
		t.Errorf("rows span %d..%d, want 51..150", rows[0].ID, rows[99].ID)
	}
}

func TestThreadSnapshotStaysRecentAfterInserts(t *testing.T) {
	// A thread longer than the view cap: seeding with the newest page
	// keeps the capped view contiguous once live inserts arrive.
	msgs := make([]models.Message, 0, 100)
	for id := 150; id > 50; id-- {
		msgs = append(msgs, models.Message{ID: uint(id), SenderID: 1, ReceiverID: 2})
	}
	room := ws.NewFeedRoom("thread:1:2")
	room.Seed(threadSnapshotRows(msgs))
	room.Publish(realtime.Event{
		Action: realtime.ActionInsert,
		Table:  "messages",
		Row:    realtime.Row{ID: 151, Data: []byte(`{}`)},
	})

	view := room.View()
	for i := 1; i < len(view); i++ {
		if view[i].ID != view[i-1].ID+1 {
			t.Fatalf("view gap between %d and %d; history must stay contiguous", view[i-1].ID, view[i].ID)
		}
	}
	if last := view[len(view)-1].ID; last != 151 {
		t.Errorf("newest row = %d, want 151", last)
	}
}

type stubBlockChecker struct {
	blocked bool
	err     error
}

func (s stubBlockChecker) IsBlockedEither(a, b uint) (bool, error) {
	return s.blocked, s.err
}

func threadWSRequest(t *testing.T, blocks stubBlockChecker) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.JWTConfig{AccessSecret: "test-secret", AccessExpiry: time.Minute}
	token, err := auth.GenerateAccessToken(cfg, 1, "a@example.com")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	r := gin.New()
	r.GET("/ws/thread", UpgradeThreadWS(cfg, ws.NewFeedHub(), nil, blocks))

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/ws/thread?token=%s&peer_id=2", token), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestThreadWSRejectsBlockedPair(t *testing.T) {
	if code := threadWSRequest(t, stubBlockChecker{blocked: true}); code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", code)
	}
}

func TestThreadWSBlockLookupFailureClosesDoor(t *testing.T) {
	// A failing lookup must not fail open and admit a blocked pair.
	if code := threadWSRequest(t, stubBlockChecker{err: fmt.Errorf("db down")}); code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", code)
	}
}
