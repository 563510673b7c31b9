package logging

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Field keys shared by every package so room and node logs can be grepped
// the same way everywhere.
const (
	RoomIDKey   string = "roomID"
	UserIDKey   string = "userID"
	PlayerIDKey string = "playerID"
	PhaseKey    string = "phase"
	EventKey    string = "event"
	NodeIDKey   string = "nodeID"
	SubjectKey  string = "subject"
	StoreKey    string = "store"
)

const colorEnv = "COLORIZE_LOG"

// ColorEnabled reports whether console output is colorized. Anything other
// than a false boolean in COLORIZE_LOG, including unset, turns color on.
func ColorEnabled() bool {
	enabled, err := strconv.ParseBool(os.Getenv(colorEnv))
	return err != nil || enabled
}

// GetZeroLogger returns a console logger tagged with name. A nil out writes
// to stdout.
func GetZeroLogger(name string, out io.Writer) *zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	output := zerolog.ConsoleWriter{Out: out, NoColor: !ColorEnabled(), TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Str("logger", name).Logger()
	return &logger
}

// ForRoom derives a logger that stamps every event with the room id.
func ForRoom(logger zerolog.Logger, roomID string) zerolog.Logger {
	return logger.With().Str(RoomIDKey, roomID).Logger()
}
