package room

import (
	"fmt"
	"sync"
)

type recordingListener struct {
	name   string
	lock   sync.Mutex
	events []string
	rooms  []Room
	users  []User
	states []ContentState
	log    *[]string
}

func newRecordingListener(name string, log *[]string) *recordingListener {
	return &recordingListener{name: name, log: log}
}

func (l *recordingListener) record(event string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.events = append(l.events, event)
	if l.log != nil {
		*l.log = append(*l.log, l.name+":"+event)
	}
}

func (l *recordingListener) OnRoomChanged(room Room, origin Origin) {
	l.record(fmt.Sprintf("changed/%s", origin))
	l.lock.Lock()
	l.rooms = append(l.rooms, room)
	l.lock.Unlock()
}

func (l *recordingListener) OnRoomDeleted(roomID string, origin Origin) {
	l.record(fmt.Sprintf("deleted/%s", origin))
}

func (l *recordingListener) OnUserJoined(user User, room Room, origin Origin) {
	l.record(fmt.Sprintf("joined/%s", origin))
	l.lock.Lock()
	l.users = append(l.users, user)
	l.lock.Unlock()
}

func (l *recordingListener) OnContentOrStateChanged(state ContentState, origin Origin) {
	l.record(fmt.Sprintf("content/%s", origin))
	l.lock.Lock()
	l.states = append(l.states, state)
	l.lock.Unlock()
}

func (l *recordingListener) Events() []string {
	l.lock.Lock()
	defer l.lock.Unlock()
	return append([]string{}, l.events...)
}
