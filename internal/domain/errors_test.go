package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFaultHelpers_MatchWrappedErrors(t *testing.T) {
	conflict := NewConflict("stream-1", 5, 2)
	wrapped := fmt.Errorf("append failed: %w", conflict)

	assert.True(t, IsConflict(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.False(t, IsStorageUnavailable(wrapped))
}

func TestFaultError_IncludesContext(t *testing.T) {
	f := NewConflict("stream-1", 5, 2)
	assert.Contains(t, f.Error(), "CONCURRENCY_CONFLICT")
	assert.Contains(t, f.Error(), "stream-1")

	nf := NewNotFound("version", "v-9")
	assert.Contains(t, nf.Error(), "NOT_FOUND")
	assert.Contains(t, nf.Error(), "v-9")
}

func TestStorageUnavailable_UnwrapsCause(t *testing.T) {
	cause := fmt.Errorf("disk on fire")
	f := NewStorageUnavailable("insert events", cause)

	assert.True(t, IsStorageUnavailable(f))
	assert.ErrorContains(t, f, "insert events")
	assert.ErrorIs(t, f, cause)
}
