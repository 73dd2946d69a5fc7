package client

import (
	"context"
	"strings"

	"github.com/fmbridge/fmbridge/internal/errors"
	"github.com/fmbridge/fmbridge/internal/jmap"
	"github.com/fmbridge/fmbridge/internal/model"
)

// Service is the operation surface shared by the command dispatcher and
// the MCP tools.
type Service interface {
	ListMessages(ctx context.Context, limit int) ([]model.Message, error)
	ListContacts(ctx context.Context, limit int) ([]model.Contact, error)
	ListEvents(ctx context.Context, limit int) ([]model.CalendarEvent, error)
	SearchMessages(ctx context.Context, filter *jmap.MailFilter, page PageRequest, sortBy string, sortAscending bool) (jmap.SearchResult, error)
	GetMessage(ctx context.Context, messageID string, properties []string) (model.MessageDetail, error)
	ListMailboxes(ctx context.Context, page PageRequest) (jmap.MailboxPage, error)
	SendMessage(ctx context.Context, msg OutgoingMessage) (SendReceipt, error)
}

// OutgoingMessage is the input to the send operation.
type OutgoingMessage struct {
	To       []string `json:"to"`
	Cc       []string `json:"cc,omitempty"`
	Bcc      []string `json:"bcc,omitempty"`
	Subject  string   `json:"subject"`
	TextBody string   `json:"body_text,omitempty"`
	HTMLBody string   `json:"body_html,omitempty"`
}

// Validate checks the structural requirements: at least one recipient, a
// subject, and at least one body form.
func (m OutgoingMessage) Validate() error {
	if len(m.To) == 0 {
		return errors.NewValidation("to", "at least one recipient is required")
	}
	for _, addr := range m.To {
		if !strings.Contains(addr, "@") {
			return errors.NewValidation("to", "recipient "+addr+" is not an email address")
		}
	}
	if strings.TrimSpace(m.Subject) == "" {
		return errors.NewValidation("subject", "must not be empty")
	}
	if m.TextBody == "" && m.HTMLBody == "" {
		return errors.NewValidation("body", "either body_text or body_html is required")
	}
	return nil
}

// SendReceipt reports the outcome of a send attempt.
type SendReceipt struct {
	Accepted bool   `json:"accepted"`
	Note     string `json:"note,omitempty"`
}
