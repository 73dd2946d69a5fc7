package jmap

import (
	"fmt"
	"time"
)

// MailFilter holds the optional predicates of a message search. Nil or
// zero-valued predicates are omitted from the JMAP filter object
// entirely; there are never null keys on the wire.
type MailFilter struct {
	Sender        string
	Subject       string
	Mailbox       string
	Read          *bool
	HasAttachment *bool
	After         *time.Time
	Before        *time.Time
}

// Validate rejects an inverted date range.
func (f *MailFilter) Validate() error {
	if f.After != nil && f.Before != nil && f.After.After(*f.Before) {
		return fmt.Errorf("start date cannot be after end date")
	}
	return nil
}

// IsZero reports whether no predicate is set.
func (f *MailFilter) IsZero() bool {
	return f.Sender == "" && f.Subject == "" && f.Mailbox == "" &&
		f.Read == nil && f.HasAttachment == nil && f.After == nil && f.Before == nil
}

// ToJMAP converts the filter to a JMAP filter object. The read predicate
// inverts into isUnread, matching the backend's vocabulary.
func (f *MailFilter) ToJMAP() map[string]any {
	filter := map[string]any{}
	if f.Sender != "" {
		filter["from"] = f.Sender
	}
	if f.Subject != "" {
		filter["subject"] = f.Subject
	}
	if f.Mailbox != "" {
		filter["inMailbox"] = f.Mailbox
	}
	if f.Read != nil {
		filter["isUnread"] = !*f.Read
	}
	if f.HasAttachment != nil {
		filter["hasAttachment"] = *f.HasAttachment
	}
	if f.After != nil {
		filter["after"] = f.After.Format(time.RFC3339)
	}
	if f.Before != nil {
		filter["before"] = f.Before.Format(time.RFC3339)
	}
	return filter
}
