package model

import (
	"fmt"
	"time"
)

// CalendarEvent is a flattened calendar entry. EndsAt is zero for
// open-ended events.
type CalendarEvent struct {
	ID       string
	Title    string
	StartsAt time.Time
	EndsAt   time.Time
}

// ParseCalendarEvent builds a CalendarEvent from a raw record. A start
// timestamp is required; the end is optional.
func ParseCalendarEvent(raw Raw) (CalendarEvent, error) {
	id := rawString(raw, "id")
	if id == "" {
		return CalendarEvent{}, fmt.Errorf("event record missing id")
	}
	startRaw := rawString(raw, "starts_at", "start", "startAt")
	if startRaw == "" {
		return CalendarEvent{}, fmt.Errorf("event %s missing start timestamp", id)
	}
	startsAt, err := ParseTime(startRaw)
	if err != nil {
		return CalendarEvent{}, fmt.Errorf("event %s: %w", id, err)
	}

	event := CalendarEvent{
		ID:       id,
		Title:    rawString(raw, "title"),
		StartsAt: startsAt,
	}
	if endRaw := rawString(raw, "ends_at", "end", "endAt"); endRaw != "" {
		endsAt, err := ParseTime(endRaw)
		if err != nil {
			return CalendarEvent{}, fmt.Errorf("event %s: %w", id, err)
		}
		event.EndsAt = endsAt
	}
	return event, nil
}

// Summary returns the wire form of the event for listing responses.
func (e CalendarEvent) Summary() Raw {
	summary := Raw{
		"id":        e.ID,
		"title":     e.Title,
		"starts_at": e.StartsAt.Format(time.RFC3339),
	}
	if e.EndsAt.IsZero() {
		summary["ends_at"] = nil
	} else {
		summary["ends_at"] = e.EndsAt.Format(time.RFC3339)
	}
	return summary
}
