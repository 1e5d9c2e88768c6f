package realtime

import (
	"encoding/json"
	"testing"
)

func row(id uint, body string) Row {
	return Row{ID: id, Data: json.RawMessage(body)}
}

func ids(view []Row) []uint {
	out := make([]uint, len(view))
	for i, r := range view {
		out[i] = r.ID
	}
	return out
}

func TestMergeInsertAppends(t *testing.T) {
	view := []Row{row(1, `"a"`)}
	view = Merge(view, Event{Action: ActionInsert, Row: row(2, `"b"`)})
	if got := ids(view); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("ids = %v, want [1 2]", got)
	}
}

func TestMergeInsertDeduplicatesEcho(t *testing.T) {
	// The optimistic local insert already holds id 2; the server echo for
	// the same row must not create a second entry.
	view := []Row{row(1, `"a"`), row(2, `"local"`)}
	view = Merge(view, Event{Action: ActionInsert, Row: row(2, `"echo"`)})
	if len(view) != 2 {
		t.Fatalf("len = %d, want 2", len(view))
	}
	if string(view[1].Data) != `"local"` {
		t.Errorf("insert must not replace the existing row, got %s", view[1].Data)
	}
}

func TestMergeUpdateReplacesInPlace(t *testing.T) {
	view := []Row{row(1, `"a"`), row(2, `"b"`), row(3, `"c"`)}
	view = Merge(view, Event{Action: ActionUpdate, Row: row(2, `"B"`)})
	if got := ids(view); len(got) != 3 || got[1] != 2 {
		t.Fatalf("update changed ordering: %v", got)
	}
	if string(view[1].Data) != `"B"` {
		t.Errorf("row 2 = %s, want \"B\"", view[1].Data)
	}
}

func TestMergeUpdateUnknownIDIsNoop(t *testing.T) {
	view := []Row{row(1, `"a"`)}
	out := Merge(view, Event{Action: ActionUpdate, Row: row(9, `"x"`)})
	if len(out) != 1 || out[0].ID != 1 || string(out[0].Data) != `"a"` {
		t.Errorf("unexpected view after unknown update: %v", out)
	}
}

func TestMergeDeleteRemoves(t *testing.T) {
	view := []Row{row(1, `"a"`), row(2, `"b"`), row(3, `"c"`)}
	view = Merge(view, Event{Action: ActionDelete, Row: Row{ID: 2}})
	if got := ids(view); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("ids = %v, want [1 3]", got)
	}
	// Deleting again is a no-op.
	view = Merge(view, Event{Action: ActionDelete, Row: Row{ID: 2}})
	if len(view) != 2 {
		t.Errorf("second delete changed the view")
	}
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	orig := []Row{row(1, `"a"`), row(2, `"b"`)}
	_ = Merge(orig, Event{Action: ActionUpdate, Row: row(1, `"A"`)})
	_ = Merge(orig, Event{Action: ActionDelete, Row: Row{ID: 1}})
	if string(orig[0].Data) != `"a"` || len(orig) != 2 {
		t.Error("Merge mutated its input slice")
	}
}
