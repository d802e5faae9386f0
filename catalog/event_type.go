package catalog

import (
	"fmt"
	"strings"
)

// EventType is the data-modification event a trigger is bound to.
// Available values: EventInsert, EventUpdate, EventDelete.
type EventType uint8

const (
	// EventInsert is the INSERT event type.
	EventInsert EventType = iota + 1
	// EventUpdate is the UPDATE event type.
	EventUpdate
	// EventDelete is the DELETE event type.
	EventDelete
)

// EventTypes holds all the valid event types in their declaration order.
var EventTypes = []EventType{EventInsert, EventUpdate, EventDelete}

// IsValid reports whether the event type is one of INSERT, UPDATE or DELETE.
func (e EventType) IsValid() bool {
	switch e {
	case EventInsert, EventUpdate, EventDelete:
		return true
	default:
		return false
	}
}

func (e EventType) String() string {
	switch e {
	case EventInsert:
		return "INSERT"
	case EventUpdate:
		return "UPDATE"
	case EventDelete:
		return "DELETE"
	default:
		return fmt.Sprintf("EventType(%d)", uint8(e))
	}
}

// ParseEventType parses the given string and returns the corresponding EventType.
// The comparison is case-insensitive, e.g. "insert" and "INSERT" are the same.
func ParseEventType(s string) (EventType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INSERT":
		return EventInsert, nil
	case "UPDATE":
		return EventUpdate, nil
	case "DELETE":
		return EventDelete, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidEventType, s)
	}
}

// JoinEventTypes returns the events joined by " OR ",
// the form CREATE TRIGGER expects, e.g. "INSERT OR DELETE".
func JoinEventTypes(events []EventType) string {
	if len(events) == 0 {
		return ""
	}

	var b strings.Builder
	for i, e := range events {
		b.WriteString(e.String())
		if i < len(events)-1 {
			b.WriteString(" OR ")
		}
	}

	return b.String()
}
