// Package client implements the hybrid facade: live JMAP data when the
// backend cooperates, bundled fixtures when it does not.
package client

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/fmbridge/fmbridge/internal/errors"
	"github.com/fmbridge/fmbridge/internal/fixture"
	"github.com/fmbridge/fmbridge/internal/jmap"
	"github.com/fmbridge/fmbridge/internal/model"
)

// Backend is the live JMAP surface the facade builds on, implemented by
// *jmap.Transport.
type Backend interface {
	ListMessages(ctx context.Context, limit int) ([]model.Raw, error)
	SearchMessages(ctx context.Context, opts jmap.SearchOptions) (jmap.SearchResult, error)
	GetMessage(ctx context.Context, messageID string, properties []string) (model.MessageDetail, error)
	ListMailboxes(ctx context.Context, limit, offset int) (jmap.MailboxPage, error)
	ListContacts(ctx context.Context, limit int) ([]model.Raw, error)
	ListEvents(ctx context.Context, limit int) ([]model.Raw, error)
}

// Client prefers live data and falls back per-operation. It satisfies
// Service.
type Client struct {
	backend     Backend
	fixtures    *fixture.Source
	enableWrite bool
	logger      *slog.Logger
}

// Options configures optional facade behavior.
type Options struct {
	EnableWrite bool
	Logger      *slog.Logger
}

// New builds a facade over a live backend and a fixture source.
func New(backend Backend, fixtures *fixture.Source, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		backend:     backend,
		fixtures:    fixtures,
		enableWrite: opts.EnableWrite,
		logger:      logger,
	}
}

// ListMessages returns recent messages, newest first, truncated to limit.
// Transport failures and structurally invalid live records both fall back
// to fixtures.
func (c *Client) ListMessages(ctx context.Context, limit int) ([]model.Message, error) {
	messages, err := c.liveMessages(ctx, limit)
	if err != nil {
		if errors.KindOf(err) == errors.KindValidation {
			return nil, err
		}
		c.logger.Warn("falling back to fixture messages", "error", err)
		messages, err = c.fixtures.Messages()
		if err != nil {
			return nil, err
		}
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].ReceivedAt.After(messages[j].ReceivedAt)
	})
	return messages[:min(limit, len(messages))], nil
}

func (c *Client) liveMessages(ctx context.Context, limit int) ([]model.Message, error) {
	records, err := c.backend.ListMessages(ctx, limit)
	if err != nil {
		return nil, err
	}
	messages := make([]model.Message, 0, len(records))
	for _, record := range records {
		message, err := model.ParseMessage(record)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// ListContacts returns contacts sorted by display name.
func (c *Client) ListContacts(ctx context.Context, limit int) ([]model.Contact, error) {
	contacts, err := c.liveContacts(ctx, limit)
	if err != nil {
		if errors.KindOf(err) == errors.KindValidation {
			return nil, err
		}
		c.logger.Warn("falling back to fixture contacts", "error", err)
		contacts, err = c.fixtures.Contacts()
		if err != nil {
			return nil, err
		}
	}

	sort.SliceStable(contacts, func(i, j int) bool {
		return contacts[i].DisplayName < contacts[j].DisplayName
	})
	return contacts[:min(limit, len(contacts))], nil
}

func (c *Client) liveContacts(ctx context.Context, limit int) ([]model.Contact, error) {
	records, err := c.backend.ListContacts(ctx, limit)
	if err != nil {
		return nil, err
	}
	contacts := make([]model.Contact, 0, len(records))
	for _, record := range records {
		contact, err := model.ParseContact(record)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	return contacts, nil
}

// ListEvents returns upcoming events sorted by start time.
func (c *Client) ListEvents(ctx context.Context, limit int) ([]model.CalendarEvent, error) {
	events, err := c.liveEvents(ctx, limit)
	if err != nil {
		if errors.KindOf(err) == errors.KindValidation {
			return nil, err
		}
		c.logger.Warn("falling back to fixture events", "error", err)
		events, err = c.fixtures.Events()
		if err != nil {
			return nil, err
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartsAt.Before(events[j].StartsAt)
	})
	return events[:min(limit, len(events))], nil
}

func (c *Client) liveEvents(ctx context.Context, limit int) ([]model.CalendarEvent, error) {
	records, err := c.backend.ListEvents(ctx, limit)
	if err != nil {
		return nil, err
	}
	events := make([]model.CalendarEvent, 0, len(records))
	for _, record := range records {
		event, err := model.ParseCalendarEvent(record)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

// SearchMessages runs a live search. On transport failure it degrades to
// the plain listing reshaped as a search result; validation failures
// reject before any network call.
func (c *Client) SearchMessages(ctx context.Context, filter *jmap.MailFilter, page PageRequest, sortBy string, sortAscending bool) (jmap.SearchResult, error) {
	var filterObj map[string]any
	if filter != nil {
		if err := filter.Validate(); err != nil {
			return jmap.SearchResult{}, errors.NewValidation("filter", err.Error())
		}
		if !filter.IsZero() {
			filterObj = filter.ToJMAP()
		}
	}

	result, err := c.backend.SearchMessages(ctx, jmap.SearchOptions{
		Limit:         page.Limit,
		Offset:        page.Offset,
		Filter:        filterObj,
		SortBy:        sortBy,
		SortAscending: sortAscending,
	})
	if err == nil {
		return result, nil
	}
	if !errors.IsTransportLevel(err) {
		return jmap.SearchResult{}, err
	}

	c.logger.Warn("search failed, degrading to plain listing", "error", err)
	messages, err := c.ListMessages(ctx, page.Limit)
	if err != nil {
		return jmap.SearchResult{}, err
	}

	summaries := make([]model.MessageSummary, 0, len(messages))
	for _, message := range messages {
		summaries = append(summaries, model.MessageSummary{
			ID:         message.ID,
			Subject:    message.Subject,
			Snippet:    message.Snippet,
			ReceivedAt: message.ReceivedAt.Format(time.RFC3339),
		})
	}
	total := len(summaries)
	limit := page.Limit
	return jmap.SearchResult{
		Messages: summaries,
		Total:    &total,
		Position: page.Offset,
		Limit:    &limit,
	}, nil
}

// GetMessage is pure pass-through; there is no meaningful fallback for an
// ID-addressed lookup.
func (c *Client) GetMessage(ctx context.Context, messageID string, properties []string) (model.MessageDetail, error) {
	if messageID == "" {
		return model.MessageDetail{}, errors.NewValidation("message_id", "must not be empty")
	}
	return c.backend.GetMessage(ctx, messageID, properties)
}

// ListMailboxes substitutes a single synthetic Inbox when the live
// listing fails, so agents always see a usable structure.
func (c *Client) ListMailboxes(ctx context.Context, page PageRequest) (jmap.MailboxPage, error) {
	result, err := c.backend.ListMailboxes(ctx, page.Limit, page.Offset)
	if err == nil {
		return result, nil
	}
	if !errors.IsTransportLevel(err) {
		return jmap.MailboxPage{}, err
	}

	c.logger.Warn("mailbox listing failed, substituting synthetic inbox", "error", err)
	total := 1
	limit := page.Limit
	return jmap.MailboxPage{
		Mailboxes: []model.Mailbox{model.SyntheticInbox()},
		Total:     &total,
		Position:  page.Offset,
		Limit:     &limit,
	}, nil
}

// SendMessage validates the input and honors the write switch. Delivery
// is not implemented; an enabled send structurally succeeds but reports
// accepted=false so callers cannot mistake it for delivery.
func (c *Client) SendMessage(ctx context.Context, msg OutgoingMessage) (SendReceipt, error) {
	if err := msg.Validate(); err != nil {
		return SendReceipt{}, err
	}
	if !c.enableWrite {
		return SendReceipt{}, errors.NewPermissionDenied("write operations are disabled")
	}
	return SendReceipt{
		Accepted: false,
		Note:     "message validated but not submitted: outbound delivery is not implemented",
	}, nil
}
