package room

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// Store keeps the latest snapshot of the registry as one blob.
// LoadSnapshot returns ErrSnapshotNotFound when nothing has been saved.
type Store interface {
	SaveSnapshot(ctx context.Context, rooms []Room) error
	LoadSnapshot(ctx context.Context) ([]Room, error)
}

const snapshotVersion = 1

type snapshotEnvelope struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"savedAt"`
	Rooms   []Room    `json:"rooms"`
}

var snapshotJSON = jsoniter.ConfigCompatibleWithStandardLibrary

func encodeSnapshot(rooms []Room, savedAt time.Time) ([]byte, error) {
	if rooms == nil {
		rooms = []Room{}
	}
	data, err := snapshotJSON.Marshal(snapshotEnvelope{
		Version: snapshotVersion,
		SavedAt: savedAt,
		Rooms:   rooms,
	})
	if err != nil {
		return nil, errors.Wrap(err, "Unable to encode room snapshot")
	}
	return data, nil
}

func decodeSnapshot(data []byte) ([]Room, error) {
	var envelope snapshotEnvelope
	if err := snapshotJSON.Unmarshal(data, &envelope); err != nil {
		return nil, errors.Wrapf(ErrSnapshotCorrupt, "%s", err)
	}
	if envelope.Version != snapshotVersion {
		return nil, errors.Wrapf(ErrSnapshotCorrupt, "unsupported snapshot version %d", envelope.Version)
	}
	return envelope.Rooms, nil
}
