package repository

import (
	"testing"

	"nice/internal/models"
)

func TestAssembleConversations(t *testing.T) {
	latest := []models.Message{
		{ID: 10, SenderID: 1, ReceiverID: 2, Content: "to bea"},
		{ID: 9, SenderID: 3, ReceiverID: 1, Content: "from carl"},
		{ID: 4, SenderID: 4, ReceiverID: 1, Content: "from gone account"},
	}
	peers := map[uint]models.User{
		2: {ID: 2, FirstName: "Bea", AvatarURL: "https://cdn/b.jpg"},
		3: {ID: 3, FirstName: "Carl"},
	}

	rows := assembleConversations(1, latest, peers)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0].PeerID != 2 || rows[0].PeerName != "Bea" || rows[0].PeerAvatarURL != "https://cdn/b.jpg" {
		t.Errorf("row 0 = %+v, want peer 2 Bea", rows[0])
	}
	if rows[1].PeerID != 3 || rows[1].PeerName != "Carl" {
		t.Errorf("row 1 = %+v, want peer 3 Carl", rows[1])
	}
	// Peer missing from the map: the conversation still lists, unnamed.
	if rows[2].PeerID != 4 || rows[2].PeerName != "" {
		t.Errorf("row 2 = %+v, want peer 4 with empty name", rows[2])
	}
	if rows[2].LastMessage.ID != 4 {
		t.Errorf("row 2 message = %d, want 4", rows[2].LastMessage.ID)
	}
}
