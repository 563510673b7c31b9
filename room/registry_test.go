package room

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huddle.com/server/util"
)

var testTime = time.Date(2021, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestRegistry() *Registry {
	n := 0
	return NewRegistry(
		WithClock(func() time.Time { return testTime }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("room%d", n)
		}),
	)
}

func TestCreateRoom(t *testing.T) {
	r := newTestRegistry()
	room, err := r.CreateRoom("Movie night", "host", ActivityWatchTogether)
	require.NoError(t, err)

	expected := Room{
		ID:              "room1",
		Name:            "Movie night",
		HostID:          "host",
		ParticipantIDs:  []string{"host"},
		SubHostIDs:      []string{},
		ActivityType:    ActivityWatchTogether,
		MaxParticipants: DefaultMaxParticipants,
		CreatedAt:       testTime,
	}
	if !cmp.Equal(expected, room) {
		t.Errorf("unexpected room: %s", cmp.Diff(expected, room))
	}

	room, err = r.CreateRoom("Poker", "host2", ActivityCardGame, WithMaxParticipants(6), WithPrivate(true))
	require.NoError(t, err)
	assert.Equal(t, 6, room.MaxParticipants)
	assert.True(t, room.IsPrivate)
}

func TestCreateRoomValidation(t *testing.T) {
	testCases := []struct {
		name     string
		roomName string
		hostID   string
		activity ActivityType
		opts     []RoomOption
		expected error
	}{
		{"empty name", "", "host", ActivityBoardGame, nil, ErrInvalidName},
		{"blank name", "   ", "host", ActivityBoardGame, nil, ErrInvalidName},
		{"empty host", "Room", "", ActivityBoardGame, nil, ErrInvalidHost},
		{"bad activity", "Room", "host", ActivityType("karaoke"), nil, ErrInvalidActivity},
		{"capacity too small", "Room", "host", ActivityBoardGame, []RoomOption{WithMaxParticipants(1)}, ErrInvalidCapacity},
		{"capacity too large", "Room", "host", ActivityBoardGame, []RoomOption{WithMaxParticipants(101)}, ErrInvalidCapacity},
	}
	for _, tc := range testCases {
		r := newTestRegistry()
		_, err := r.CreateRoom(tc.roomName, tc.hostID, tc.activity, tc.opts...)
		assert.True(t, errors.Is(err, tc.expected), "%s: %v", tc.name, err)
		assert.Equal(t, util.KindInvalidInput, util.KindOf(err), tc.name)
		assert.Empty(t, r.FetchRooms(), tc.name)
	}

	r := newTestRegistry()
	_, err := r.CreateRoom("Room", "host", ActivityBoardGame, WithMaxParticipants(2))
	assert.NoError(t, err)
	_, err = r.CreateRoom("Room", "host", ActivityBoardGame, WithMaxParticipants(100))
	assert.NoError(t, err)
}

func TestJoinRoom(t *testing.T) {
	r := newTestRegistry()
	room, err := r.CreateRoom("Room", "host", ActivityListenTogether, WithMaxParticipants(3))
	require.NoError(t, err)

	_, err = r.JoinRoom("missing", "a")
	assert.True(t, errors.Is(err, ErrRoomNotFound))
	assert.Equal(t, util.KindNotFound, util.KindOf(err))

	room, err = r.JoinRoom(room.ID, "a")
	require.NoError(t, err)
	room, err = r.JoinRoom(room.ID, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"host", "a", "b"}, room.ParticipantIDs)

	_, err = r.JoinRoom(room.ID, "c")
	assert.True(t, errors.Is(err, ErrRoomFull))
	assert.Equal(t, util.KindCapacityExceeded, util.KindOf(err))
	after, err := r.GetRoom(room.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"host", "a", "b"}, after.ParticipantIDs)

	// Re-joining a full room is still a success.
	again, err := r.JoinRoom(room.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"host", "a", "b"}, again.ParticipantIDs)
}

func TestLeaveRoom(t *testing.T) {
	r := newTestRegistry()
	room, err := r.CreateRoom("Room", "host", ActivityCardGame)
	require.NoError(t, err)
	_, err = r.JoinRoom(room.ID, "a")
	require.NoError(t, err)
	require.NoError(t, r.PromoteToSubHost(room.ID, "a"))

	deleted, err := r.LeaveRoom(room.ID, "stranger")
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = r.LeaveRoom(room.ID, "a")
	require.NoError(t, err)
	assert.False(t, deleted)
	room, err = r.GetRoom(room.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"host"}, room.ParticipantIDs)
	assert.Empty(t, room.SubHostIDs)

	_, err = r.LeaveRoom("missing", "a")
	assert.True(t, errors.Is(err, ErrRoomNotFound))
}

func TestHostLeavingDeletesRoom(t *testing.T) {
	r := newTestRegistry()
	keep, err := r.CreateRoom("Keep", "other", ActivityBoardGame)
	require.NoError(t, err)
	room, err := r.CreateRoom("Room", "host", ActivityCardGame)
	require.NoError(t, err)
	_, err = r.JoinRoom(room.ID, "a")
	require.NoError(t, err)
	require.NoError(t, r.PromoteToSubHost(room.ID, "a"))

	deleted, err := r.LeaveRoom(room.ID, "host")
	require.NoError(t, err)
	assert.True(t, deleted)

	rooms := r.FetchRooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, keep.ID, rooms[0].ID)
	_, err = r.GetRoom(room.ID)
	assert.True(t, errors.Is(err, ErrRoomNotFound))
}

func TestPromoteAndDemote(t *testing.T) {
	r := newTestRegistry()
	room, err := r.CreateRoom("Room", "host", ActivityWatchTogether)
	require.NoError(t, err)
	_, err = r.JoinRoom(room.ID, "a")
	require.NoError(t, err)

	require.NoError(t, r.PromoteToSubHost(room.ID, "stranger"))
	require.NoError(t, r.PromoteToSubHost(room.ID, "a"))
	require.NoError(t, r.PromoteToSubHost(room.ID, "a"))
	room, err = r.GetRoom(room.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, room.SubHostIDs)

	require.NoError(t, r.DemoteSubHost(room.ID, "a"))
	require.NoError(t, r.DemoteSubHost(room.ID, "a"))
	room, err = r.GetRoom(room.ID)
	require.NoError(t, err)
	assert.Empty(t, room.SubHostIDs)
	assert.Equal(t, []string{"host", "a"}, room.ParticipantIDs)

	assert.True(t, errors.Is(r.PromoteToSubHost("missing", "a"), ErrRoomNotFound))
	assert.True(t, errors.Is(r.DemoteSubHost("missing", "a"), ErrRoomNotFound))
}

func TestDeleteRoom(t *testing.T) {
	r := newTestRegistry()
	room, err := r.CreateRoom("Room", "host", ActivityBoardGame)
	require.NoError(t, err)
	require.NoError(t, r.DeleteRoom(room.ID))
	assert.Empty(t, r.FetchRooms())
	assert.True(t, errors.Is(r.DeleteRoom(room.ID), ErrRoomNotFound))
}

func TestFetchRoomsOrderAndCopies(t *testing.T) {
	r := newTestRegistry()
	for i := 0; i < 5; i++ {
		_, err := r.CreateRoom(fmt.Sprintf("Room %d", i), "host", ActivityBoardGame)
		require.NoError(t, err)
	}
	require.NoError(t, r.DeleteRoom("room2"))
	rooms := r.FetchRooms()
	ids := make([]string, len(rooms))
	for i, room := range rooms {
		ids[i] = room.ID
	}
	assert.Equal(t, []string{"room1", "room3", "room4", "room5"}, ids)

	rooms[0].ParticipantIDs[0] = "mutated"
	rooms[0].Name = "mutated"
	fresh, err := r.GetRoom("room1")
	require.NoError(t, err)
	assert.Equal(t, "Room 0", fresh.Name)
	assert.Equal(t, []string{"host"}, fresh.ParticipantIDs)
}

func TestSubHostsStayParticipants(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	users := []string{"host", "a", "b", "c", "d", "e", "f"}
	r := newTestRegistry()
	room, err := r.CreateRoom("Room", "host", ActivityCardGame, WithMaxParticipants(4))
	require.NoError(t, err)

	for i := 0; i < 2000; i++ {
		user := users[1+rnd.Intn(len(users)-1)]
		switch rnd.Intn(4) {
		case 0:
			_, err = r.JoinRoom(room.ID, user)
			if err != nil {
				assert.True(t, errors.Is(err, ErrRoomFull))
			}
		case 1:
			_, err = r.LeaveRoom(room.ID, user)
			require.NoError(t, err)
		case 2:
			require.NoError(t, r.PromoteToSubHost(room.ID, user))
		case 3:
			require.NoError(t, r.DemoteSubHost(room.ID, user))
		}

		current, err := r.GetRoom(room.ID)
		require.NoError(t, err)
		require.LessOrEqual(t, len(current.ParticipantIDs), current.MaxParticipants)
		for _, id := range current.SubHostIDs {
			require.True(t, current.IsParticipant(id), "sub-host %s is not a participant at step %d", id, i)
		}
		seen := make(map[string]bool)
		for _, id := range current.ParticipantIDs {
			require.False(t, seen[id], "duplicate participant %s", id)
			seen[id] = true
		}
	}
}

func TestConcurrentJoinsRespectCapacity(t *testing.T) {
	r := newTestRegistry()
	room, err := r.CreateRoom("Room", "host", ActivityWatchTogether, WithMaxParticipants(10))
	require.NoError(t, err)

	var wg sync.WaitGroup
	var lock sync.Mutex
	joined, full := 0, 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.JoinRoom(room.ID, fmt.Sprintf("user%d", i))
			lock.Lock()
			defer lock.Unlock()
			if err == nil {
				joined++
			} else if errors.Is(err, ErrRoomFull) {
				full++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 9, joined)
	assert.Equal(t, 41, full)
	room, err = r.GetRoom(room.ID)
	require.NoError(t, err)
	assert.Len(t, room.ParticipantIDs, 10)
}

func TestListenersOrderAndOrigin(t *testing.T) {
	var log []string
	first := newRecordingListener("first", &log)
	second := newRecordingListener("second", &log)
	r := newTestRegistry()
	r.AddListener(first)
	r.AddListener(second)

	room, err := r.CreateRoom("Room", "host", ActivityCardGame)
	require.NoError(t, err)
	_, err = r.JoinRoom(room.ID, "a")
	require.NoError(t, err)
	_, err = r.JoinRoom(room.ID, "a")
	require.NoError(t, err)
	require.NoError(t, r.PromoteToSubHost(room.ID, "stranger"))
	_, err = r.LeaveRoom(room.ID, "host")
	require.NoError(t, err)

	expected := []string{
		"first:changed/local", "second:changed/local",
		"first:joined/local", "second:joined/local",
		"first:changed/local", "second:changed/local",
		"first:deleted/local", "second:deleted/local",
	}
	assert.Equal(t, expected, log)
}

func TestListenerReceivesCopies(t *testing.T) {
	mutator := &mutatingListener{}
	recorder := newRecordingListener("recorder", nil)
	r := newTestRegistry()
	r.AddListener(mutator)
	r.AddListener(recorder)

	room, err := r.CreateRoom("Room", "host", ActivityCardGame)
	require.NoError(t, err)
	require.Len(t, recorder.rooms, 1)
	assert.Equal(t, []string{"host"}, recorder.rooms[0].ParticipantIDs)
	stored, err := r.GetRoom(room.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"host"}, stored.ParticipantIDs)
	assert.Equal(t, []string{"host"}, room.ParticipantIDs)
}

type mutatingListener struct{}

func (mutatingListener) OnRoomChanged(room Room, _ Origin) {
	room.ParticipantIDs[0] = "mutated"
}
func (mutatingListener) OnRoomDeleted(string, Origin)                 {}
func (mutatingListener) OnUserJoined(User, Room, Origin)              {}
func (mutatingListener) OnContentOrStateChanged(ContentState, Origin) {}

func TestListenerMayCallRegistry(t *testing.T) {
	r := newTestRegistry()
	reentrant := &reentrantListener{registry: r}
	r.AddListener(reentrant)
	_, err := r.CreateRoom("Room", "host", ActivityCardGame)
	require.NoError(t, err)
	assert.Equal(t, 1, reentrant.seen)
}

type reentrantListener struct {
	mutatingListener
	registry *Registry
	seen     int
}

func (l *reentrantListener) OnRoomChanged(room Room, _ Origin) {
	l.seen = len(l.registry.FetchRooms())
}

func TestJoinNotifiesResolvedUser(t *testing.T) {
	recorder := newRecordingListener("recorder", nil)
	r := newTestRegistry()
	r.AddListener(recorder)
	require.NoError(t, r.RegisterUser(User{ID: "a", DisplayName: "Alice", AvatarURL: "http://avatar/a"}))
	assert.True(t, errors.Is(r.RegisterUser(User{}), ErrInvalidUser))

	room, err := r.CreateRoom("Room", "host", ActivityCardGame)
	require.NoError(t, err)
	_, err = r.JoinRoom(room.ID, "a")
	require.NoError(t, err)
	_, err = r.JoinRoom(room.ID, "b")
	require.NoError(t, err)

	expected := []User{
		{ID: "a", DisplayName: "Alice", AvatarURL: "http://avatar/a"},
		{ID: "b"},
	}
	if !cmp.Equal(expected, recorder.users) {
		t.Errorf("unexpected users: %s", cmp.Diff(expected, recorder.users))
	}
}

func TestPublishContentState(t *testing.T) {
	recorder := newRecordingListener("recorder", nil)
	r := newTestRegistry()
	r.AddListener(recorder)
	room, err := r.CreateRoom("Room", "host", ActivityWatchTogether)
	require.NoError(t, err)

	payload := []byte(`{"position":42.5,"playing":true}`)
	require.NoError(t, r.PublishContentState(room.ID, "host", payload))
	payload[2] = 'X'

	err = r.PublishContentState(room.ID, "stranger", payload)
	assert.True(t, errors.Is(err, ErrNotAParticipant))
	assert.Equal(t, util.KindInvalidInput, util.KindOf(err))
	err = r.PublishContentState("missing", "host", payload)
	assert.True(t, errors.Is(err, ErrRoomNotFound))

	require.Len(t, recorder.states, 1)
	state := recorder.states[0]
	assert.Equal(t, room.ID, state.RoomID)
	assert.Equal(t, "host", state.UserID)
	assert.JSONEq(t, `{"position":42.5,"playing":true}`, string(state.Payload))
	assert.Equal(t, testTime, state.SentAt)
}

func TestApplyRemoteRoom(t *testing.T) {
	recorder := newRecordingListener("recorder", nil)
	r := newTestRegistry()
	r.AddListener(recorder)

	remote := Room{
		ID:              "remote1",
		Name:            "Remote",
		HostID:          "host",
		ParticipantIDs:  []string{"host", "a", "a"},
		SubHostIDs:      []string{"a", "ghost"},
		ActivityType:    ActivityBoardGame,
		MaxParticipants: 5,
		CreatedAt:       testTime,
	}
	require.NoError(t, r.ApplyRemoteRoom(remote))
	require.NoError(t, r.ApplyRemoteRoom(remote))

	rooms := r.FetchRooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, []string{"host", "a"}, rooms[0].ParticipantIDs)
	assert.Equal(t, []string{"a"}, rooms[0].SubHostIDs)
	assert.Equal(t, []string{"changed/remote", "changed/remote"}, recorder.Events())

	remote.Name = "Renamed"
	require.NoError(t, r.ApplyRemoteRoom(remote))
	rooms = r.FetchRooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, "Renamed", rooms[0].Name)

	err := r.ApplyRemoteRoom(Room{ID: "bad", MaxParticipants: 1})
	assert.True(t, errors.Is(err, ErrInvalidCapacity))
	err = r.ApplyRemoteRoom(Room{ID: "bad", MaxParticipants: 2, ParticipantIDs: []string{"a", "b", "c"}})
	assert.True(t, errors.Is(err, ErrInvalidCapacity))
	assert.True(t, errors.Is(r.ApplyRemoteRoom(Room{}), ErrInvalidRoom))
}

func TestApplyRemoteParticipant(t *testing.T) {
	recorder := newRecordingListener("recorder", nil)
	r := newTestRegistry()
	room, err := r.CreateRoom("Room", "host", ActivityCardGame, WithMaxParticipants(2))
	require.NoError(t, err)
	r.AddListener(recorder)

	user := User{ID: "a", DisplayName: "Alice"}
	require.NoError(t, r.ApplyRemoteParticipant(user, room.ID))
	require.NoError(t, r.ApplyRemoteParticipant(user, room.ID))
	assert.Equal(t, []string{"joined/remote", "changed/remote"}, recorder.Events())
	assert.Equal(t, "Alice", recorder.users[0].DisplayName)

	err = r.ApplyRemoteParticipant(User{ID: "b"}, room.ID)
	assert.True(t, errors.Is(err, ErrRoomFull))
	err = r.ApplyRemoteParticipant(User{ID: "b"}, "missing")
	assert.True(t, errors.Is(err, ErrRoomNotFound))
}

func TestApplyRemoteRoomDeletedAndContent(t *testing.T) {
	recorder := newRecordingListener("recorder", nil)
	r := newTestRegistry()
	room, err := r.CreateRoom("Room", "host", ActivityCardGame)
	require.NoError(t, err)
	r.AddListener(recorder)

	r.ApplyRemoteRoomDeleted(room.ID)
	r.ApplyRemoteRoomDeleted(room.ID)
	assert.Empty(t, r.FetchRooms())

	r.ApplyRemoteContentState(ContentState{RoomID: room.ID, UserID: "host", Payload: []byte(`{}`)})
	assert.Equal(t, []string{"deleted/remote", "content/remote"}, recorder.Events())
}
