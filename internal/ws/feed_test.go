package ws

import (
	"encoding/json"
	"testing"

	"nice/internal/realtime"
)

func row(id uint, body string) realtime.Row {
	data, _ := json.Marshal(map[string]string{"body": body})
	return realtime.Row{ID: id, Data: data}
}

func viewIDs(r *FeedRoom) []uint {
	view := r.View()
	ids := make([]uint, len(view))
	for i, r := range view {
		ids[i] = r.ID
	}
	return ids
}

func TestFeedRoomSnapshotOnJoin(t *testing.T) {
	room := NewFeedRoom("thread:1:2")
	room.Seed([]realtime.Row{row(1, "a"), row(2, "b")})

	c := &Client{UserID: 7, Send: make(chan []byte, 8)}
	room.Join(c)

	select {
	case data := <-c.Send:
		var msg struct {
			Type string         `json:"type"`
			Rows []realtime.Row `json:"rows"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Type != "snapshot" {
			t.Errorf("type = %q, want snapshot", msg.Type)
		}
		if len(msg.Rows) != 2 {
			t.Errorf("snapshot rows = %d, want 2", len(msg.Rows))
		}
	default:
		t.Fatal("no snapshot delivered on join")
	}
}

func TestFeedRoomPublishMergesAndBroadcasts(t *testing.T) {
	room := NewFeedRoom("forum:5")
	room.Seed([]realtime.Row{row(1, "a")})

	c := &Client{UserID: 3, Send: make(chan []byte, 8)}
	room.Join(c)
	<-c.Send // snapshot

	room.Publish(realtime.Event{
		Action: realtime.ActionInsert,
		Table:  "forum_posts",
		Row:    row(2, "b"),
	})
	ids := viewIDs(room)
	if len(ids) != 2 || ids[1] != 2 {
		t.Fatalf("view ids = %v, want [1 2]", ids)
	}

	select {
	case data := <-c.Send:
		var msg struct {
			Type  string         `json:"type"`
			Event realtime.Event `json:"event"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Type != "event" || msg.Event.Row.ID != 2 {
			t.Errorf("got %s/%d, want event/2", msg.Type, msg.Event.Row.ID)
		}
	default:
		t.Fatal("event not broadcast to subscriber")
	}
}

func TestFeedRoomEchoedInsertDoesNotDuplicate(t *testing.T) {
	room := NewFeedRoom("thread:1:2")
	room.Seed([]realtime.Row{row(1, "a")})
	room.Publish(realtime.Event{Action: realtime.ActionInsert, Table: "messages", Row: row(1, "a")})
	if ids := viewIDs(room); len(ids) != 1 {
		t.Fatalf("view ids = %v, want [1]", ids)
	}
}

func TestFeedRoomUpdateAndDelete(t *testing.T) {
	room := NewFeedRoom("thread:1:2")
	room.Seed([]realtime.Row{row(1, "a"), row(2, "b"), row(3, "c")})

	room.Publish(realtime.Event{Action: realtime.ActionUpdate, Table: "messages", Row: row(2, "b2")})
	view := room.View()
	if len(view) != 3 {
		t.Fatalf("view len = %d, want 3", len(view))
	}
	var body map[string]string
	_ = json.Unmarshal(view[1].Data, &body)
	if body["body"] != "b2" {
		t.Errorf("row 2 body = %q, want b2", body["body"])
	}

	room.Publish(realtime.Event{Action: realtime.ActionDelete, Table: "messages", Row: realtime.Row{ID: 2}})
	if ids := viewIDs(room); len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Fatalf("view ids = %v, want [1 3]", ids)
	}
}

func TestFeedRoomViewCap(t *testing.T) {
	room := NewFeedRoom("forum:1")
	for i := 1; i <= feedViewCap+10; i++ {
		room.Publish(realtime.Event{Action: realtime.ActionInsert, Table: "forum_posts", Row: row(uint(i), "x")})
	}
	ids := viewIDs(room)
	if len(ids) != feedViewCap {
		t.Fatalf("view len = %d, want %d", len(ids), feedViewCap)
	}
	if ids[0] != 11 {
		t.Errorf("oldest retained id = %d, want 11", ids[0])
	}
}

func TestFeedHubGetOrCreateSeedsOnce(t *testing.T) {
	hub := NewFeedHub()
	calls := 0
	seed := func() []realtime.Row {
		calls++
		return []realtime.Row{row(1, "a")}
	}
	r1 := hub.GetOrCreateRoom("k", seed)
	r2 := hub.GetOrCreateRoom("k", seed)
	if r1 != r2 {
		t.Fatal("same key returned different rooms")
	}
	if calls != 1 {
		t.Errorf("seed called %d times, want 1", calls)
	}
	hub.RemoveRoom("k")
	if hub.GetRoom("k") != nil {
		t.Error("room still present after remove")
	}
}
