package util

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies a rejected operation so the host application can map
// it to a user facing message or a transport status.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindCapacityExceeded
	KindInvalidInput
	KindInsufficientResource
	KindIllegalState
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindCapacityExceeded:
		return "CapacityExceeded"
	case KindInvalidInput:
		return "InvalidInput"
	case KindInsufficientResource:
		return "InsufficientResource"
	case KindIllegalState:
		return "IllegalState"
	}
	return "Unknown"
}

// KindError is a sentinel error carrying a kind and a stable code.
type KindError struct {
	Kind ErrorKind
	Code string
	Msg  string
}

func NewKindError(kind ErrorKind, code string, msg string) *KindError {
	return &KindError{Kind: kind, Code: code, Msg: msg}
}

func (e *KindError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// KindOf returns the kind of the first KindError in the chain.
func KindOf(err error) ErrorKind {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return KindUnknown
}

// CodeOf returns the code of the first KindError in the chain, or an empty string.
func CodeOf(err error) string {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.Code
	}
	return ""
}
