package nats

import (
	"time"

	jsoniter "github.com/json-iterator/go"

	"huddle.com/server/game"
	"huddle.com/server/room"
)

// Envelope is the JSON body of every message the gateway publishes. Node is
// the publishing gateway's id; receivers drop their own messages.
type Envelope struct {
	Node    string                `json:"node"`
	Type    EventType             `json:"type"`
	RoomID  string                `json:"roomId"`
	Room    *room.Room            `json:"room,omitempty"`
	User    *room.User            `json:"user,omitempty"`
	Content *room.ContentState    `json:"content,omitempty"`
	Game    *game.TexasHoldemGame `json:"game,omitempty"`
	Rooms   []room.Room           `json:"rooms,omitempty"`
	SentAt  time.Time             `json:"sentAt"`
}

var envelopeJSON = jsoniter.ConfigCompatibleWithStandardLibrary

func encodeEnvelope(e *Envelope) ([]byte, error) {
	return envelopeJSON.Marshal(e)
}

func decodeEnvelope(data []byte) (*Envelope, error) {
	var e Envelope
	if err := envelopeJSON.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
