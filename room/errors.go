package room

import "huddle.com/server/util"

var (
	ErrRoomNotFound     = util.NewKindError(util.KindNotFound, "RoomNotFound", "room does not exist")
	ErrRoomFull         = util.NewKindError(util.KindCapacityExceeded, "RoomFull", "room is at capacity")
	ErrInvalidName      = util.NewKindError(util.KindInvalidInput, "InvalidName", "room name is empty")
	ErrInvalidHost      = util.NewKindError(util.KindInvalidInput, "InvalidHost", "host id is empty")
	ErrInvalidActivity  = util.NewKindError(util.KindInvalidInput, "InvalidActivity", "unknown activity type")
	ErrInvalidCapacity  = util.NewKindError(util.KindInvalidInput, "InvalidCapacity", "max participants must be between 2 and 100")
	ErrInvalidUser      = util.NewKindError(util.KindInvalidInput, "InvalidUser", "user id is empty")
	ErrInvalidRoom      = util.NewKindError(util.KindInvalidInput, "InvalidRoom", "room id is empty")
	ErrNotAParticipant  = util.NewKindError(util.KindInvalidInput, "NotAParticipant", "user is not a participant of the room")
	ErrSnapshotNotFound = util.NewKindError(util.KindNotFound, "SnapshotNotFound", "no room snapshot is stored")
	ErrSnapshotCorrupt  = util.NewKindError(util.KindInvalidInput, "SnapshotCorrupt", "room snapshot cannot be decoded")
)
