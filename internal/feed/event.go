package feed

import "encoding/json"

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event is one row change on a collection. Before carries the old row for
// updates and deletes, After the new row for inserts and updates; each is
// the raw JSON produced by the database trigger.
type Event struct {
	Collection string          `json:"collection"`
	Op         Op              `json:"op"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

// Row returns the payload that identifies the affected row: After for
// inserts and updates, Before for deletes.
func (e *Event) Row() json.RawMessage {
	if e.Op == OpDelete {
		return e.Before
	}
	return e.After
}
