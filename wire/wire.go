// Package wire defines the JSON messages exchanged between a session
// hub and its clients. One envelope type with a discriminator keeps the
// read loop to a single Unmarshal.
package wire

import (
	"encoding/json"

	"collab/presence"
)

const (
	// TypeInit is the client's hello; the hub answers with a snapshot.
	TypeInit = "init"
	// TypeSnapshot carries the full session state to a joining client.
	TypeSnapshot = "snapshot"
	// TypeChange carries a client's local document ops to the hub.
	TypeChange = "change"
	// TypeUpdate fans document ops out to every client.
	TypeUpdate = "update"
	// TypePresence replaces one peer's presence record.
	TypePresence = "presence"
	// TypePresenceGone announces peers that disconnected.
	TypePresenceGone = "presence_gone"
)

type Message struct {
	Type string `json:"type"`

	// Snapshot fields. Client is the id the hub assigned to the
	// receiver, Session identifies the hub instance.
	Session string                  `json:"session,omitempty"`
	Client  int                     `json:"client,omitempty"`
	States  map[int]presence.Fields `json:"states,omitempty"`

	// Document ops, encoded by the doc package. From says which client
	// produced them so that client can skip its own echo.
	Ops  []string `json:"ops,omitempty"`
	From int      `json:"from,omitempty"`

	// Presence payload.
	Fields presence.Fields `json:"fields,omitempty"`
	Gone   []int           `json:"gone,omitempty"`
}

func Encode(m *Message) ([]byte, error) {
	return json.Marshal(m)
}

func Decode(data []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
