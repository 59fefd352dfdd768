package testutil

import (
	"testing"
	"time"
)

func TestSteppingClock_Advances(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewSteppingClock(start, time.Second)

	if got := c.Now(); !got.Equal(start) {
		t.Errorf("first Now() = %v, want %v", got, start)
	}
	if got := c.Now(); !got.Equal(start.Add(time.Second)) {
		t.Errorf("second Now() = %v, want %v", got, start.Add(time.Second))
	}
}

func TestSteppingClock_PeekDoesNotAdvance(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewSteppingClock(start, time.Minute)

	if got := c.Peek(); !got.Equal(start) {
		t.Errorf("Peek() = %v, want %v", got, start)
	}
	if got := c.Now(); !got.Equal(start) {
		t.Errorf("Now() after Peek() = %v, want %v", got, start)
	}
}
