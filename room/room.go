package room

import (
	"time"
)

const (
	MinParticipants        = 2
	MaxParticipants        = 100
	DefaultMaxParticipants = 20
)

type ActivityType string

const (
	ActivityWatchTogether  ActivityType = "watchTogether"
	ActivityListenTogether ActivityType = "listenTogether"
	ActivityCardGame       ActivityType = "cardGame"
	ActivityBoardGame      ActivityType = "boardGame"
)

func (a ActivityType) Valid() bool {
	switch a {
	case ActivityWatchTogether, ActivityListenTogether, ActivityCardGame, ActivityBoardGame:
		return true
	}
	return false
}

// User is a participant profile. IsHost and IsSubHost are display hints for
// a single room; the room itself holds the authoritative roles.
type User struct {
	ID             string `json:"id"`
	DisplayName    string `json:"displayName"`
	IsHost         bool   `json:"isHost"`
	IsSubHost      bool   `json:"isSubHost"`
	AvatarURL      string `json:"avatarUrl,omitempty"`
	ExternalAuthID string `json:"externalAuthId,omitempty"`
}

// Room is a shared activity space. SubHostIDs is always a subset of
// ParticipantIDs and the participant count never exceeds MaxParticipants.
type Room struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	HostID          string       `json:"hostId"`
	ParticipantIDs  []string     `json:"participantIds"`
	SubHostIDs      []string     `json:"subHostIds"`
	ActivityType    ActivityType `json:"activityType"`
	MaxParticipants int          `json:"maxParticipants"`
	IsPrivate       bool         `json:"isPrivate"`
	CreatedAt       time.Time    `json:"createdAt"`
}

type RoomOption func(*Room)

func WithMaxParticipants(n int) RoomOption {
	return func(r *Room) {
		r.MaxParticipants = n
	}
}

func WithPrivate(private bool) RoomOption {
	return func(r *Room) {
		r.IsPrivate = private
	}
}

func (r *Room) IsParticipant(userID string) bool {
	return indexOf(r.ParticipantIDs, userID) >= 0
}

func (r *Room) IsSubHost(userID string) bool {
	return indexOf(r.SubHostIDs, userID) >= 0
}

func (r *Room) IsFull() bool {
	return len(r.ParticipantIDs) >= r.MaxParticipants
}

func (r *Room) clone() Room {
	c := *r
	c.ParticipantIDs = append([]string{}, r.ParticipantIDs...)
	c.SubHostIDs = append([]string{}, r.SubHostIDs...)
	return c
}

// removeMember drops the user from participants and sub-hosts. Returns false
// if the user was not a participant.
func (r *Room) removeMember(userID string) bool {
	idx := indexOf(r.ParticipantIDs, userID)
	if idx < 0 {
		return false
	}
	r.ParticipantIDs = removeAt(r.ParticipantIDs, idx)
	if i := indexOf(r.SubHostIDs, userID); i >= 0 {
		r.SubHostIDs = removeAt(r.SubHostIDs, i)
	}
	return true
}

func validCapacity(n int) bool {
	return n >= MinParticipants && n <= MaxParticipants
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func removeAt(ids []string, i int) []string {
	return append(ids[:i], ids[i+1:]...)
}
