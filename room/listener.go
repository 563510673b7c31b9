package room

import (
	"encoding/json"
	"sync"
	"time"
)

// Origin tells a listener whether a change was made on this node or applied
// from a peer. Sync gateways only forward local changes.
type Origin int

const (
	OriginLocal Origin = iota
	OriginRemote
)

func (o Origin) String() string {
	if o == OriginRemote {
		return "remote"
	}
	return "local"
}

// ContentState is an opaque activity update (playback position, board move,
// ...) published by a room participant.
type ContentState struct {
	RoomID  string          `json:"roomId"`
	UserID  string          `json:"userId"`
	Payload json.RawMessage `json:"payload"`
	SentAt  time.Time       `json:"sentAt"`
}

func (c ContentState) clone() ContentState {
	c.Payload = append(json.RawMessage(nil), c.Payload...)
	return c
}

// Listener receives registry changes after the registry lock is released.
// Every call gets its own copy of the data.
type Listener interface {
	OnRoomChanged(room Room, origin Origin)
	OnRoomDeleted(roomID string, origin Origin)
	OnUserJoined(user User, room Room, origin Origin)
	OnContentOrStateChanged(state ContentState, origin Origin)
}

// UserDirectory resolves user profiles for join notifications.
type UserDirectory interface {
	Lookup(userID string) (User, bool)
	Remember(user User)
}

type mapDirectory struct {
	lock  sync.RWMutex
	users map[string]User
}

func newMapDirectory() *mapDirectory {
	return &mapDirectory{users: make(map[string]User)}
}

func (d *mapDirectory) Lookup(userID string) (User, bool) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	u, ok := d.users[userID]
	return u, ok
}

func (d *mapDirectory) Remember(user User) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.users[user.ID] = user
}
