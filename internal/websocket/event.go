package websocket

import "github.com/CarlosNatanauan/listly/internal/model"

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type Kind string

const (
	KindNote Kind = "note"
	KindTask Kind = "task"
)

// Event is a committed mutation as pushed to sync clients. Creates and
// updates carry the full record, deletes only the id.
type Event struct {
	Action Action `json:"action"`
	Kind   Kind   `json:"kind"`
	Record any    `json:"record,omitempty"`
	ID     string `json:"id,omitempty"`

	// OwnerID scopes delivery; Origin names the connection that caused the
	// mutation and is skipped.
	OwnerID string `json:"-"`
	Origin  string `json:"-"`
}

// FromConn returns a copy of e attributed to the given connection.
func (e Event) FromConn(connID string) Event {
	e.Origin = connID
	return e
}

func NoteCreated(n *model.Note) Event {
	return Event{Action: ActionCreate, Kind: KindNote, Record: n, OwnerID: n.UserID}
}

func NoteUpdated(n *model.Note) Event {
	return Event{Action: ActionUpdate, Kind: KindNote, Record: n, OwnerID: n.UserID}
}

func NoteDeleted(ownerID, id string) Event {
	return Event{Action: ActionDelete, Kind: KindNote, ID: id, OwnerID: ownerID}
}

func TaskCreated(t *model.Task) Event {
	return Event{Action: ActionCreate, Kind: KindTask, Record: t, OwnerID: t.UserID}
}

func TaskUpdated(t *model.Task) Event {
	return Event{Action: ActionUpdate, Kind: KindTask, Record: t, OwnerID: t.UserID}
}

func TaskDeleted(ownerID, id string) Event {
	return Event{Action: ActionDelete, Kind: KindTask, ID: id, OwnerID: ownerID}
}

// hello is the first frame on every connection; clients echo ConnectionID
// in the X-Connection-ID header of their own mutations.
type hello struct {
	Action       string `json:"action"`
	ConnectionID string `json:"connectionId"`
}
