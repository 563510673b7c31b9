package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomSubject(t *testing.T) {
	subject := RoomSubject("4f1c", EventUserJoined)
	assert.Equal(t, "huddle.room.4f1c.joined", subject)

	roomID, event, err := parseRoomSubject(subject)
	require.NoError(t, err)
	assert.Equal(t, "4f1c", roomID)
	assert.Equal(t, EventUserJoined, event)

	for _, bad := range []string{"huddle.room.x", "huddle.room.x.unknown", "other.room.x.changed", "huddle.room..changed"} {
		_, _, err := parseRoomSubject(bad)
		assert.Error(t, err, bad)
	}
}

func TestValidRoomToken(t *testing.T) {
	assert.True(t, validRoomToken("c0ffee-1234"))
	assert.False(t, validRoomToken(""))
	assert.False(t, validRoomToken("a.b"))
	assert.False(t, validRoomToken("a*"))
	assert.False(t, validRoomToken("a>"))
}
