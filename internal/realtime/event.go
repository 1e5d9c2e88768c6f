// Package realtime models row-level change events and the pure
// reconciliation that mirrors them into an ordered in-memory view.
package realtime

import "encoding/json"

type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Row is a change-feed payload: a primary key plus the marshalled record.
type Row struct {
	ID   uint            `json:"id"`
	Data json.RawMessage `json:"data"`
}

// Event is one row-level change on a table.
type Event struct {
	Action Action `json:"action"`
	Table  string `json:"table"`
	Row    Row    `json:"row"`
}

// NewEvent marshals v into an event payload. Marshal failures are
// programming errors (all row types are plain structs), so Data is left
// nil rather than propagating an error through every publish site.
func NewEvent(action Action, table string, id uint, v interface{}) Event {
	data, _ := json.Marshal(v)
	return Event{
		Action: action,
		Table:  table,
		Row:    Row{ID: id, Data: data},
	}
}
