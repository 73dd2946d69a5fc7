package model

import (
	"fmt"
	"time"
)

// Message is the lightweight representation of the subset of message
// fields the agent needs.
type Message struct {
	ID         string
	Subject    string
	Snippet    string
	ReceivedAt time.Time
}

// ParseMessage builds a Message from a raw record. The id and a parsable
// received timestamp are required; everything else defaults. A failure
// here marks the whole record set as structurally invalid, which is what
// triggers the facade's fixture fallback.
func ParseMessage(raw Raw) (Message, error) {
	id := rawString(raw, "id")
	if id == "" {
		return Message{}, fmt.Errorf("message record missing id")
	}
	receivedRaw := rawString(raw, "received_at", "receivedAt")
	if receivedRaw == "" {
		return Message{}, fmt.Errorf("message %s missing received_at field", id)
	}
	receivedAt, err := ParseTime(receivedRaw)
	if err != nil {
		return Message{}, fmt.Errorf("message %s: %w", id, err)
	}
	return Message{
		ID:         id,
		Subject:    rawString(raw, "subject"),
		Snippet:    rawString(raw, "snippet", "preview"),
		ReceivedAt: receivedAt,
	}, nil
}

// Summary returns the wire form of the message for listing responses.
// ParseMessage accepts this form back unchanged.
func (m Message) Summary() Raw {
	return Raw{
		"id":          m.ID,
		"subject":     m.Subject,
		"snippet":     m.Snippet,
		"received_at": m.ReceivedAt.Format(time.RFC3339),
	}
}

// MessageSummary is a search-result row with the extended property set.
// Mailbox is nil when the message reports no mailbox membership.
type MessageSummary struct {
	ID            string  `json:"id"`
	Subject       string  `json:"subject"`
	Sender        string  `json:"sender"`
	Snippet       string  `json:"snippet"`
	ReceivedAt    string  `json:"received_at"`
	Read          bool    `json:"read"`
	HasAttachment bool    `json:"has_attachment"`
	Mailbox       *string `json:"mailbox"`
}

// MessageDetail is the full record returned by get-by-id. Body, header
// and attachment structures are passed through as the backend shaped
// them.
type MessageDetail struct {
	ID          string   `json:"id"`
	Subject     string   `json:"subject"`
	Sender      string   `json:"sender"`
	To          []string `json:"to"`
	Cc          []string `json:"cc,omitempty"`
	Bcc         []string `json:"bcc,omitempty"`
	ReceivedAt  string   `json:"received_at,omitempty"`
	SentAt      string   `json:"sent_at,omitempty"`
	BodyText    any      `json:"body_text,omitempty"`
	BodyHTML    any      `json:"body_html,omitempty"`
	Headers     any      `json:"headers,omitempty"`
	Attachments any      `json:"attachments,omitempty"`
}
