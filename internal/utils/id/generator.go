package id

import (
	"fmt"

	"github.com/google/uuid"
)

// NewSessionID generates a new session identifier with a stable prefix for display.
func NewSessionID() string {
	return newIdentifier("session")
}

// NewTaskID generates a new task identifier with a stable prefix for display.
func NewTaskID() string {
	return newIdentifier("task")
}

// NewEventID generates an identifier for calendar events assembled from agent text.
// Events carry no identity of their own, so every parse mints fresh IDs.
func NewEventID() string {
	return newIdentifier("evt")
}

func newIdentifier(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}
