package realtime

// Merge applies one change event to a view and returns the new view.
// Semantics are last-write-wins by row id:
//
//	insert: append iff the id is not already present (an optimistic local
//	        insert and the server echo must not produce two rows)
//	update: replace the matching row in place, keeping position
//	delete: remove the matching row
//
// Unknown ids on update/delete are no-ops; no ordering is assumed across
// rows beyond per-row event order. The input slice is not mutated.
func Merge(view []Row, ev Event) []Row {
	switch ev.Action {
	case ActionInsert:
		for _, r := range view {
			if r.ID == ev.Row.ID {
				return view
			}
		}
		out := make([]Row, len(view), len(view)+1)
		copy(out, view)
		return append(out, ev.Row)
	case ActionUpdate:
		out := make([]Row, len(view))
		copy(out, view)
		for i, r := range out {
			if r.ID == ev.Row.ID {
				out[i] = ev.Row
				break
			}
		}
		return out
	case ActionDelete:
		out := make([]Row, 0, len(view))
		for _, r := range view {
			if r.ID != ev.Row.ID {
				out = append(out, r)
			}
		}
		return out
	}
	return view
}
