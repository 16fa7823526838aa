package models

import "time"

// Everyone is the distinguished recipient meaning "the whole room".
// Messages addressed to it are broadcast.
const Everyone = "Todos"

// Kind classifies a message. The values double as the wire names used
// by the HTTP API.
type Kind string

const (
	KindBroadcast Kind = "message"
	KindPrivate   Kind = "private_message"
	KindSystem    Kind = "system"
)

// ParseKind maps a wire value to a Kind. The boolean is false for
// anything outside the recognized set.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindBroadcast, KindPrivate, KindSystem:
		return Kind(s), true
	}
	return "", false
}

// Valid reports whether k is one of the recognized kinds.
func (k Kind) Valid() bool {
	_, ok := ParseKind(string(k))
	return ok
}

// Message is one chat event. Messages are immutable once stored; From
// references a Participant by name only, so past messages stay valid
// after that participant leaves.
type Message struct {
	ID   string    `json:"id"` // ULID
	From string    `json:"from"`
	To   string    `json:"to"`
	Text string    `json:"text"`
	Kind Kind      `json:"type"`
	Time time.Time `json:"time"`
}

// IsBroadcast reports whether the message is addressed to the whole room.
func (m Message) IsBroadcast() bool {
	return m.To == Everyone
}
