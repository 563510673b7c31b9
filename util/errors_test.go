package util

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

var errSample = NewKindError(KindNotFound, "SampleNotFound", "sample not found")

func TestKindOfWrapped(t *testing.T) {
	err := errors.Wrapf(errSample, "sample %s", "abc")
	assert.True(t, errors.Is(err, errSample))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "SampleNotFound", CodeOf(err))
	assert.Contains(t, err.Error(), "sample abc")
}

func TestKindOfPlainError(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, KindUnknown, KindOf(err))
	assert.Equal(t, "", CodeOf(err))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestKindString(t *testing.T) {
	testCases := []struct {
		kind     ErrorKind
		expected string
	}{
		{KindNotFound, "NotFound"},
		{KindCapacityExceeded, "CapacityExceeded"},
		{KindInvalidInput, "InvalidInput"},
		{KindInsufficientResource, "InsufficientResource"},
		{KindIllegalState, "IllegalState"},
		{KindUnknown, "Unknown"},
	}
	for _, tc := range testCases {
		if tc.kind.String() != tc.expected {
			t.Errorf("kind %d: expected %s, actual %s", tc.kind, tc.expected, tc.kind.String())
		}
	}
}
