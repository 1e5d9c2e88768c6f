package models

import "testing"

func TestFriendshipCanonicalOrder(t *testing.T) {
	f := &Friendship{UserID: 9, FriendID: 1}
	if err := f.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate: %v", err)
	}
	if f.UserID != 1 || f.FriendID != 9 {
		t.Errorf("got (%d,%d), want smaller id first (1,9)", f.UserID, f.FriendID)
	}

	// Already canonical stays put.
	f = &Friendship{UserID: 2, FriendID: 5}
	_ = f.BeforeCreate(nil)
	if f.UserID != 2 || f.FriendID != 5 {
		t.Errorf("got (%d,%d), want (2,5)", f.UserID, f.FriendID)
	}
}

func TestPairKey(t *testing.T) {
	if PairKey(9, 1) != "1:9" {
		t.Errorf("PairKey(9,1) = %q, want %q", PairKey(9, 1), "1:9")
	}
	if PairKey(1, 9) != PairKey(9, 1) {
		t.Error("pair key must be direction-independent")
	}
}

func TestFriendRequestPairKeyOnCreate(t *testing.T) {
	fr := &FriendRequest{SenderID: 9, ReceiverID: 1}
	if err := fr.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate: %v", err)
	}
	if fr.PairKey != "1:9" {
		t.Errorf("PairKey = %q, want %q", fr.PairKey, "1:9")
	}
	// Direction is preserved even though the key is canonical.
	if fr.SenderID != 9 || fr.ReceiverID != 1 {
		t.Errorf("sender/receiver mutated: (%d,%d)", fr.SenderID, fr.ReceiverID)
	}
}

func TestLanguageList(t *testing.T) {
	u := &User{Languages: "Tigrinya, English ,Arabic"}
	got := u.LanguageList()
	want := []string{"Tigrinya", "English", "Arabic"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("language[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if u.PrimaryLanguage() != "Tigrinya" {
		t.Errorf("primary = %q, want Tigrinya", u.PrimaryLanguage())
	}
	if (&User{}).PrimaryLanguage() != "" {
		t.Error("empty profile should have no primary language")
	}
}
