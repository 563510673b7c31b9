package caches

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"huddle.com/server/room"
)

const DefaultUserCacheSize = 10000

// UserDirectory caches user profiles for join notifications. Least recently
// used profiles are evicted once the cache is full; a miss falls back to an
// id-only user in the registry.
type UserDirectory struct {
	byID           *lru.Cache
	externalToUser *lru.Cache
}

func NewUserDirectory(size int) (*UserDirectory, error) {
	if size <= 0 {
		size = DefaultUserCacheSize
	}
	byID, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to initialize user cache")
	}
	externalToUser, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to initialize external auth id cache")
	}
	return &UserDirectory{
		byID:           byID,
		externalToUser: externalToUser,
	}, nil
}

// Remember stores the profile without the room scoped role flags.
func (d *UserDirectory) Remember(user room.User) {
	if user.ID == "" {
		return
	}
	user.IsHost = false
	user.IsSubHost = false
	d.byID.Add(user.ID, user)
	if user.ExternalAuthID != "" {
		d.externalToUser.Add(user.ExternalAuthID, user.ID)
	}
}

func (d *UserDirectory) Lookup(userID string) (room.User, bool) {
	v, exists := d.byID.Get(userID)
	if !exists {
		return room.User{}, false
	}
	return v.(room.User), true
}

// LookupExternal resolves a user by the id an auth provider assigned to them.
func (d *UserDirectory) LookupExternal(externalAuthID string) (room.User, bool) {
	v, exists := d.externalToUser.Get(externalAuthID)
	if !exists {
		return room.User{}, false
	}
	return d.Lookup(v.(string))
}

func (d *UserDirectory) Len() int {
	return d.byID.Len()
}
