package room

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"huddle.com/server/logging"
	"huddle.com/server/util"
)

var registryLogger = log.With().Str("logger_name", "room::registry").Logger()

// Registry owns every room on this node. Each operation runs atomically under
// one lock; listeners are called after the lock is released, in the order
// they were added.
type Registry struct {
	lock      sync.Mutex
	rooms     map[string]*Room
	order     []string
	listeners []Listener
	users     UserDirectory
	now       func() time.Time
	newID     func() string
}

type Option func(*Registry)

func WithUserDirectory(dir UserDirectory) Option {
	return func(r *Registry) {
		r.users = dir
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(r *Registry) {
		r.newID = newID
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		rooms: make(map[string]*Room),
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.users == nil {
		r.users = newMapDirectory()
	}
	return r
}

func (r *Registry) AddListener(l Listener) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.listeners = append(r.listeners, l)
}

func (r *Registry) CreateRoom(name string, hostID string, activity ActivityType, opts ...RoomOption) (Room, error) {
	if strings.TrimSpace(name) == "" {
		return Room{}, ErrInvalidName
	}
	if hostID == "" {
		return Room{}, ErrInvalidHost
	}
	if !activity.Valid() {
		return Room{}, errors.Wrapf(ErrInvalidActivity, "activity [%s]", activity)
	}
	room := &Room{
		Name:            name,
		HostID:          hostID,
		ParticipantIDs:  []string{hostID},
		SubHostIDs:      []string{},
		ActivityType:    activity,
		MaxParticipants: DefaultMaxParticipants,
	}
	for _, opt := range opts {
		opt(room)
	}
	if !validCapacity(room.MaxParticipants) {
		return Room{}, errors.Wrapf(ErrInvalidCapacity, "max participants %d", room.MaxParticipants)
	}

	r.lock.Lock()
	room.ID = r.newID()
	room.CreatedAt = r.now()
	r.insert(room)
	snapshot := room.clone()
	listeners, count := r.listenerSnapshot(), len(r.rooms)
	r.lock.Unlock()

	registryLogger.Info().Str(logging.RoomIDKey, snapshot.ID).Str(logging.UserIDKey, hostID).
		Str("activity", string(activity)).Msg("Room created")
	util.Metrics.RoomCreated()
	util.Metrics.SetActiveRooms(count)
	notifyRoomChanged(listeners, snapshot, OriginLocal)
	return snapshot, nil
}

// JoinRoom adds the user to the room. Joining a room the user is already in
// succeeds without changes, even when the room is full.
func (r *Registry) JoinRoom(roomID string, userID string) (Room, error) {
	if userID == "" {
		return Room{}, ErrInvalidUser
	}
	return r.join(roomID, userID, OriginLocal)
}

func (r *Registry) join(roomID string, userID string, origin Origin) (Room, error) {
	r.lock.Lock()
	room, ok := r.rooms[roomID]
	if !ok {
		r.lock.Unlock()
		return Room{}, errors.Wrapf(ErrRoomNotFound, "room %s", roomID)
	}
	if room.IsParticipant(userID) {
		snapshot := room.clone()
		r.lock.Unlock()
		return snapshot, nil
	}
	if room.IsFull() {
		r.lock.Unlock()
		return Room{}, errors.Wrapf(ErrRoomFull, "room %s has %d participants", roomID, room.MaxParticipants)
	}
	room.ParticipantIDs = append(room.ParticipantIDs, userID)
	snapshot := room.clone()
	listeners := r.listenerSnapshot()
	r.lock.Unlock()

	registryLogger.Debug().Str(logging.RoomIDKey, roomID).Str(logging.UserIDKey, userID).
		Str("origin", origin.String()).Msg("User joined")
	util.Metrics.ParticipantJoined()
	user := r.resolveUser(userID, snapshot)
	for _, l := range listeners {
		l.OnUserJoined(user, snapshot.clone(), origin)
	}
	notifyRoomChanged(listeners, snapshot, origin)
	return snapshot, nil
}

// LeaveRoom removes the user from the room. When the host leaves the room is
// deleted and deleted is true. Leaving a room the user is not in is a no-op.
func (r *Registry) LeaveRoom(roomID string, userID string) (deleted bool, err error) {
	r.lock.Lock()
	room, ok := r.rooms[roomID]
	if !ok {
		r.lock.Unlock()
		return false, errors.Wrapf(ErrRoomNotFound, "room %s", roomID)
	}
	if userID == room.HostID {
		r.remove(roomID)
		listeners, count := r.listenerSnapshot(), len(r.rooms)
		r.lock.Unlock()

		registryLogger.Info().Str(logging.RoomIDKey, roomID).Str(logging.UserIDKey, userID).
			Msg("Host left, room deleted")
		r.roomDeleted(listeners, roomID, count, OriginLocal)
		return true, nil
	}
	if !room.removeMember(userID) {
		r.lock.Unlock()
		return false, nil
	}
	snapshot := room.clone()
	listeners := r.listenerSnapshot()
	r.lock.Unlock()

	registryLogger.Debug().Str(logging.RoomIDKey, roomID).Str(logging.UserIDKey, userID).Msg("User left")
	notifyRoomChanged(listeners, snapshot, OriginLocal)
	return false, nil
}

// PromoteToSubHost is a no-op for non-participants and existing sub-hosts.
func (r *Registry) PromoteToSubHost(roomID string, userID string) error {
	return r.updateRoom(roomID, func(room *Room) bool {
		if !room.IsParticipant(userID) || room.IsSubHost(userID) {
			return false
		}
		room.SubHostIDs = append(room.SubHostIDs, userID)
		return true
	})
}

func (r *Registry) DemoteSubHost(roomID string, userID string) error {
	return r.updateRoom(roomID, func(room *Room) bool {
		idx := indexOf(room.SubHostIDs, userID)
		if idx < 0 {
			return false
		}
		room.SubHostIDs = removeAt(room.SubHostIDs, idx)
		return true
	})
}

// updateRoom applies fn under the lock and notifies listeners when fn reports
// a change.
func (r *Registry) updateRoom(roomID string, fn func(room *Room) bool) error {
	r.lock.Lock()
	room, ok := r.rooms[roomID]
	if !ok {
		r.lock.Unlock()
		return errors.Wrapf(ErrRoomNotFound, "room %s", roomID)
	}
	if !fn(room) {
		r.lock.Unlock()
		return nil
	}
	snapshot := room.clone()
	listeners := r.listenerSnapshot()
	r.lock.Unlock()

	notifyRoomChanged(listeners, snapshot, OriginLocal)
	return nil
}

func (r *Registry) DeleteRoom(roomID string) error {
	r.lock.Lock()
	if _, ok := r.rooms[roomID]; !ok {
		r.lock.Unlock()
		return errors.Wrapf(ErrRoomNotFound, "room %s", roomID)
	}
	r.remove(roomID)
	listeners, count := r.listenerSnapshot(), len(r.rooms)
	r.lock.Unlock()

	registryLogger.Info().Str(logging.RoomIDKey, roomID).Msg("Room deleted")
	r.roomDeleted(listeners, roomID, count, OriginLocal)
	return nil
}

// FetchRooms returns copies of all rooms in creation order.
func (r *Registry) FetchRooms() []Room {
	r.lock.Lock()
	defer r.lock.Unlock()
	rooms := make([]Room, 0, len(r.order))
	for _, id := range r.order {
		rooms = append(rooms, r.rooms[id].clone())
	}
	return rooms
}

func (r *Registry) GetRoom(roomID string) (Room, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return Room{}, errors.Wrapf(ErrRoomNotFound, "room %s", roomID)
	}
	return room.clone(), nil
}

func (r *Registry) RegisterUser(user User) error {
	if user.ID == "" {
		return ErrInvalidUser
	}
	r.users.Remember(user)
	return nil
}

// PublishContentState fans an activity update out to listeners. Only
// participants of the room may publish.
func (r *Registry) PublishContentState(roomID string, userID string, payload []byte) error {
	r.lock.Lock()
	room, ok := r.rooms[roomID]
	if !ok {
		r.lock.Unlock()
		return errors.Wrapf(ErrRoomNotFound, "room %s", roomID)
	}
	if !room.IsParticipant(userID) {
		r.lock.Unlock()
		return errors.Wrapf(ErrNotAParticipant, "user %s in room %s", userID, roomID)
	}
	listeners := r.listenerSnapshot()
	r.lock.Unlock()

	state := ContentState{
		RoomID:  roomID,
		UserID:  userID,
		Payload: append([]byte(nil), payload...),
		SentAt:  r.now(),
	}
	notifyContentState(listeners, state, OriginLocal)
	return nil
}

// ApplyRemoteRoom upserts a room received from a peer. Sub-hosts that are not
// participants are dropped. Applying the same room twice has no further effect.
func (r *Registry) ApplyRemoteRoom(remote Room) error {
	if remote.ID == "" {
		return ErrInvalidRoom
	}
	if !validCapacity(remote.MaxParticipants) || len(remote.ParticipantIDs) > remote.MaxParticipants {
		return errors.Wrapf(ErrInvalidCapacity, "room %s max %d with %d participants",
			remote.ID, remote.MaxParticipants, len(remote.ParticipantIDs))
	}
	room := sanitize(remote)

	r.lock.Lock()
	if existing, ok := r.rooms[room.ID]; ok {
		*existing = room
	} else {
		r.insert(&room)
	}
	snapshot := room.clone()
	listeners, count := r.listenerSnapshot(), len(r.rooms)
	r.lock.Unlock()

	registryLogger.Debug().Str(logging.RoomIDKey, room.ID).Msg("Remote room applied")
	util.Metrics.RemoteApplied("changed")
	util.Metrics.SetActiveRooms(count)
	notifyRoomChanged(listeners, snapshot, OriginRemote)
	return nil
}

// ApplyRemoteParticipant remembers the profile and adds the user with the
// usual join rules.
func (r *Registry) ApplyRemoteParticipant(user User, roomID string) error {
	if user.ID == "" {
		return ErrInvalidUser
	}
	r.users.Remember(user)
	if _, err := r.join(roomID, user.ID, OriginRemote); err != nil {
		return err
	}
	util.Metrics.RemoteApplied("joined")
	return nil
}

// ApplyRemoteRoomDeleted removes the room if it is still present.
func (r *Registry) ApplyRemoteRoomDeleted(roomID string) {
	r.lock.Lock()
	if _, ok := r.rooms[roomID]; !ok {
		r.lock.Unlock()
		return
	}
	r.remove(roomID)
	listeners, count := r.listenerSnapshot(), len(r.rooms)
	r.lock.Unlock()

	registryLogger.Debug().Str(logging.RoomIDKey, roomID).Msg("Remote room deletion applied")
	util.Metrics.RemoteApplied("deleted")
	r.roomDeleted(listeners, roomID, count, OriginRemote)
}

func (r *Registry) ApplyRemoteContentState(state ContentState) {
	r.lock.Lock()
	listeners := r.listenerSnapshot()
	r.lock.Unlock()

	util.Metrics.RemoteApplied("content")
	notifyContentState(listeners, state, OriginRemote)
}

// Restore replaces the registry contents with the stored snapshot. A missing
// or unreadable snapshot leaves the registry empty; it is never fatal.
func (r *Registry) Restore(ctx context.Context, store Store) {
	rooms, err := store.LoadSnapshot(ctx)
	if err != nil {
		if errors.Is(err, ErrSnapshotNotFound) {
			registryLogger.Info().Msg("No room snapshot found, starting empty")
		} else {
			registryLogger.Warn().Err(err).Msg("Unable to restore rooms, starting empty")
		}
		return
	}

	restored := make(map[string]*Room, len(rooms))
	order := make([]string, 0, len(rooms))
	for _, stored := range rooms {
		if stored.ID == "" || !validCapacity(stored.MaxParticipants) || len(stored.ParticipantIDs) > stored.MaxParticipants {
			registryLogger.Warn().Str(logging.RoomIDKey, stored.ID).Msg("Skipping invalid room in snapshot")
			continue
		}
		if _, dup := restored[stored.ID]; dup {
			continue
		}
		room := sanitize(stored)
		restored[room.ID] = &room
		order = append(order, room.ID)
	}

	r.lock.Lock()
	r.rooms = restored
	r.order = order
	r.lock.Unlock()

	util.Metrics.SetActiveRooms(len(order))
	registryLogger.Info().Int("rooms", len(order)).Msg("Rooms restored from snapshot")
}

// Persist writes a snapshot of all rooms. The copy is taken under the lock;
// the store is called after it is released.
func (r *Registry) Persist(ctx context.Context, store Store) error {
	rooms := r.FetchRooms()
	if err := store.SaveSnapshot(ctx, rooms); err != nil {
		util.Metrics.SnapshotFailed()
		return errors.Wrap(err, "Unable to persist rooms")
	}
	util.Metrics.SnapshotSaved()
	registryLogger.Debug().Int("rooms", len(rooms)).Msg("Rooms persisted")
	return nil
}

func (r *Registry) insert(room *Room) {
	r.rooms[room.ID] = room
	r.order = append(r.order, room.ID)
}

func (r *Registry) remove(roomID string) {
	delete(r.rooms, roomID)
	if idx := indexOf(r.order, roomID); idx >= 0 {
		r.order = removeAt(r.order, idx)
	}
}

// listenerSnapshot must be called with the lock held.
func (r *Registry) listenerSnapshot() []Listener {
	return append([]Listener(nil), r.listeners...)
}

func (r *Registry) roomDeleted(listeners []Listener, roomID string, count int, origin Origin) {
	util.Metrics.RoomDeleted()
	util.Metrics.SetActiveRooms(count)
	for _, l := range listeners {
		l.OnRoomDeleted(roomID, origin)
	}
}

func (r *Registry) resolveUser(userID string, room Room) User {
	user, ok := r.users.Lookup(userID)
	if !ok {
		user = User{ID: userID}
	}
	user.IsHost = room.HostID == userID
	user.IsSubHost = room.IsSubHost(userID)
	return user
}

func notifyRoomChanged(listeners []Listener, room Room, origin Origin) {
	for _, l := range listeners {
		l.OnRoomChanged(room.clone(), origin)
	}
}

func notifyContentState(listeners []Listener, state ContentState, origin Origin) {
	for _, l := range listeners {
		l.OnContentOrStateChanged(state.clone(), origin)
	}
}

// sanitize copies a room from outside the registry, removing duplicate
// participants and sub-hosts that are not participants.
func sanitize(in Room) Room {
	out := in.clone()
	out.ParticipantIDs = make([]string, 0, len(in.ParticipantIDs))
	for _, id := range in.ParticipantIDs {
		if id != "" && indexOf(out.ParticipantIDs, id) < 0 {
			out.ParticipantIDs = append(out.ParticipantIDs, id)
		}
	}
	out.SubHostIDs = make([]string, 0, len(in.SubHostIDs))
	for _, id := range in.SubHostIDs {
		if indexOf(out.ParticipantIDs, id) >= 0 && indexOf(out.SubHostIDs, id) < 0 {
			out.SubHostIDs = append(out.SubHostIDs, id)
		}
	}
	return out
}
