package events

import (
	"encoding/json"
	"time"
)

// Kind names the store mutation an event reports.
type Kind string

const (
	KindAdded    Kind = "transaction.added"
	KindRemoved  Kind = "transaction.removed"
	KindImported Kind = "transactions.imported"
	KindReplaced Kind = "transactions.replaced"
)

// Event is a lightweight change notice. It carries ids only; listeners
// re-read the collection they care about.
type Event struct {
	Kind      Kind      `json:"kind"`
	IDs       []string  `json:"ids,omitempty"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent creates an event stamped with the current time.
func NewEvent(kind Kind, ids ...string) Event {
	return Event{
		Kind:      kind,
		IDs:       ids,
		Count:     len(ids),
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes an event published by Publish.
func EventFromJSON(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, err
	}
	return e, nil
}
