package event

import (
	"encoding/json"
)

// Actions carried by a DomainEvent.
const (
	ActionAdded     = "added"
	ActionUpdated   = "updated"
	ActionDestroyed = "destroyed"
)

// Entity kinds carried by a DomainEvent.
const (
	KindCard       = "card"
	KindComment    = "comment"
	KindActionItem = "action_item"
	KindMembership = "membership"
)

// DomainEvent is an immutable added/updated/destroyed notification for one
// entity. It exists only in transit from the mutation pipeline to
// subscribers; nothing persists it.
type DomainEvent struct {
	// Topic is the slug of the board the entity belongs to.
	Topic   string          `json:"-"`
	Action  string          `json:"action"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// New builds a DomainEvent with the payload marshalled to JSON.
func New(topic, action, kind string, payload any) (DomainEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return DomainEvent{}, err
	}
	return DomainEvent{Topic: topic, Action: action, Kind: kind, Payload: data}, nil
}
