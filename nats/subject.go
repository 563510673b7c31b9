package nats

import (
	"fmt"
	"strings"
)

// Room events are published on huddle.room.<roomID>.<event>.
const (
	subjectPrefix    = "huddle.room"
	roomSubjectsAll  = "huddle.room.*.*"
	roomsSyncSubject = "huddle.rooms.sync"
)

type EventType string

const (
	EventRoomChanged EventType = "changed"
	EventRoomDeleted EventType = "deleted"
	EventUserJoined  EventType = "joined"
	EventContent     EventType = "content"
	EventGame        EventType = "game"
)

func (e EventType) Valid() bool {
	switch e {
	case EventRoomChanged, EventRoomDeleted, EventUserJoined, EventContent, EventGame:
		return true
	}
	return false
}

func RoomSubject(roomID string, event EventType) string {
	return fmt.Sprintf("%s.%s.%s", subjectPrefix, roomID, event)
}

// parseRoomSubject returns the room id and event of a room subject.
func parseRoomSubject(subject string) (string, EventType, error) {
	tokens := strings.Split(subject, ".")
	if len(tokens) != 4 || tokens[0]+"."+tokens[1] != subjectPrefix {
		return "", "", fmt.Errorf("Invalid room subject [%s]", subject)
	}
	event := EventType(tokens[3])
	if tokens[2] == "" || !event.Valid() {
		return "", "", fmt.Errorf("Invalid room subject [%s]", subject)
	}
	return tokens[2], event, nil
}

// validRoomToken reports whether the room id can be used as a single subject token.
func validRoomToken(roomID string) bool {
	return roomID != "" && !strings.ContainsAny(roomID, ".*> \t\r\n")
}
