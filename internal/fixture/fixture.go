// Package fixture loads the bundled sample records used when the live
// backend is unreachable.
package fixture

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/fmbridge/fmbridge/internal/model"
)

// Sentinel errors distinguishing an absent fixture file from a present
// but unusable one. Callers branch on these with errors.Is.
var (
	ErrMissing   = errors.New("fixture data missing")
	ErrMalformed = errors.New("fixture data malformed")
)

// Source reads sample records from JSON files, one file per record
// kind. Each file must hold a top-level JSON array.
type Source struct {
	MessagesPath string
	ContactsPath string
	EventsPath   string
}

func (s *Source) readRecords(path string) ([]model.Raw, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s: provide FASTMAIL_SAMPLE_DATA or a live transport", ErrMissing, path)
		}
		return nil, fmt.Errorf("%w at %s: %v", ErrMalformed, path, err)
	}
	var records []model.Raw
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w at %s: payload must be a JSON array: %v", ErrMalformed, path, err)
	}
	return records, nil
}

// Messages loads and parses the sample message records.
func (s *Source) Messages() ([]model.Message, error) {
	records, err := s.readRecords(s.MessagesPath)
	if err != nil {
		return nil, err
	}
	messages := make([]model.Message, 0, len(records))
	for _, record := range records {
		message, err := model.ParseMessage(record)
		if err != nil {
			return nil, fmt.Errorf("%w at %s: %v", ErrMalformed, s.MessagesPath, err)
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// Contacts loads and parses the sample contact records.
func (s *Source) Contacts() ([]model.Contact, error) {
	records, err := s.readRecords(s.ContactsPath)
	if err != nil {
		return nil, err
	}
	contacts := make([]model.Contact, 0, len(records))
	for _, record := range records {
		contact, err := model.ParseContact(record)
		if err != nil {
			return nil, fmt.Errorf("%w at %s: %v", ErrMalformed, s.ContactsPath, err)
		}
		contacts = append(contacts, contact)
	}
	return contacts, nil
}

// Events loads and parses the sample calendar event records.
func (s *Source) Events() ([]model.CalendarEvent, error) {
	records, err := s.readRecords(s.EventsPath)
	if err != nil {
		return nil, err
	}
	events := make([]model.CalendarEvent, 0, len(records))
	for _, record := range records {
		event, err := model.ParseCalendarEvent(record)
		if err != nil {
			return nil, fmt.Errorf("%w at %s: %v", ErrMalformed, s.EventsPath, err)
		}
		events = append(events, event)
	}
	return events, nil
}
