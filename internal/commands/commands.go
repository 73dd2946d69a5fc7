// Package commands registers the dispatcher's command surface against
// the client facade.
package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fmbridge/fmbridge/internal/client"
	"github.com/fmbridge/fmbridge/internal/errors"
	"github.com/fmbridge/fmbridge/internal/jmap"
	"github.com/fmbridge/fmbridge/internal/model"
	"github.com/fmbridge/fmbridge/internal/server"
)

// Command names are part of the external contract.
const (
	CommandListMessages   = "list-messages"
	CommandSearchMessages = "search-messages"
	CommandGetMessage     = "get-message-by-id"
	CommandListMailboxes  = "list-mailboxes"
	CommandListContacts   = "list-contacts"
	CommandListEvents     = "list-events"
	CommandSendMessage    = "send-message"
)

// decode unmarshals raw command params into a typed struct. Absent
// params decode to the zero value so every field keeps its default.
func decode[T any](params json.RawMessage) (T, error) {
	var result T
	if len(params) == 0 || string(params) == "null" {
		return result, nil
	}
	if err := json.Unmarshal(params, &result); err != nil {
		return result, errors.NewInvalidRequest(fmt.Sprintf("invalid params: %v", err))
	}
	return result, nil
}

type listParams struct {
	Limit int `json:"limit"`
}

type paginationParams struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func (p *paginationParams) page() (client.PageRequest, error) {
	if p == nil {
		return client.DefaultPageRequest(), nil
	}
	return client.NewPageRequest(p.Limit, p.Offset)
}

type dateRangeParams struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type filterParams struct {
	Sender        string           `json:"sender"`
	Subject       string           `json:"subject"`
	Mailbox       string           `json:"mailbox"`
	Read          *bool            `json:"read"`
	HasAttachment *bool            `json:"has_attachment"`
	DateRange     *dateRangeParams `json:"date_range"`
}

func (p *filterParams) filter() (*jmap.MailFilter, error) {
	if p == nil {
		return nil, nil
	}
	filter := &jmap.MailFilter{
		Sender:        p.Sender,
		Subject:       p.Subject,
		Mailbox:       p.Mailbox,
		Read:          p.Read,
		HasAttachment: p.HasAttachment,
	}
	if p.DateRange != nil {
		if p.DateRange.Start != "" {
			start, err := model.ParseTime(p.DateRange.Start)
			if err != nil {
				return nil, errors.NewValidation("date_range.start", err.Error())
			}
			filter.After = &start
		}
		if p.DateRange.End != "" {
			end, err := model.ParseTime(p.DateRange.End)
			if err != nil {
				return nil, errors.NewValidation("date_range.end", err.Error())
			}
			filter.Before = &end
		}
	}
	return filter, nil
}

type searchParams struct {
	Filter        *filterParams     `json:"filter"`
	Pagination    *paginationParams `json:"pagination"`
	SortBy        string            `json:"sort_by"`
	SortAscending bool              `json:"sort_ascending"`
}

var validSortFields = map[string]bool{
	"receivedAt": true,
	"sentAt":     true,
	"subject":    true,
	"from":       true,
}

type getParams struct {
	MessageID      string `json:"message_id"`
	IncludeBody    bool   `json:"include_body"`
	IncludeHeaders bool   `json:"include_headers"`
}

// detailProperties maps the include flags to a JMAP property list.
func (p getParams) detailProperties() []string {
	properties := []string{"id", "subject", "from", "to", "cc", "bcc", "receivedAt", "sentAt"}
	if p.IncludeBody {
		properties = append(properties, "textBody", "htmlBody", "attachments")
	}
	if p.IncludeHeaders {
		properties = append(properties, "headers")
	}
	return properties
}

type mailboxParams struct {
	Pagination *paginationParams `json:"pagination"`
}

// RegisterAll wires every command into the registry. The send command
// is registered only when writes are enabled, so a disabled deployment
// reports it as unknown rather than forbidden.
func RegisterAll(registry *server.Registry, svc client.Service, enableWrite bool) error {
	type command struct {
		name        string
		handler     server.Handler
		description string
	}

	commands := []command{
		{
			name:        CommandListMessages,
			handler:     listMessages(svc),
			description: "Return recent messages for the authenticated account.",
		},
		{
			name:        CommandSearchMessages,
			handler:     searchMessages(svc),
			description: "Search messages with filtering, sorting and pagination.",
		},
		{
			name:        CommandGetMessage,
			handler:     getMessage(svc),
			description: "Return one message by id with the requested detail level.",
		},
		{
			name:        CommandListMailboxes,
			handler:     listMailboxes(svc),
			description: "Return mailboxes/folders with pagination.",
		},
		{
			name:        CommandListContacts,
			handler:     listContacts(svc),
			description: "Return recent contacts for the account.",
		},
		{
			name:        CommandListEvents,
			handler:     listEvents(svc),
			description: "Return upcoming calendar events for the account.",
		},
	}
	if enableWrite {
		commands = append(commands, command{
			name:        CommandSendMessage,
			handler:     sendMessage(svc),
			description: "Validate and stage an outgoing message (delivery not implemented).",
		})
	}

	for _, cmd := range commands {
		if err := registry.Register(cmd.name, cmd.handler, cmd.description); err != nil {
			return err
		}
	}
	return nil
}

func listMessages(svc client.Service) server.Handler {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		p, err := decode[listParams](params)
		if err != nil {
			return nil, err
		}
		page, err := client.NewPageRequest(p.Limit, 0)
		if err != nil {
			return nil, err
		}
		messages, err := svc.ListMessages(ctx, page.Limit)
		if err != nil {
			return nil, err
		}
		summaries := make([]model.Raw, 0, len(messages))
		for _, message := range messages {
			summaries = append(summaries, message.Summary())
		}
		return map[string]any{"messages": summaries, "count": len(summaries)}, nil
	}
}

func listContacts(svc client.Service) server.Handler {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		p, err := decode[listParams](params)
		if err != nil {
			return nil, err
		}
		page, err := client.NewPageRequest(p.Limit, 0)
		if err != nil {
			return nil, err
		}
		contacts, err := svc.ListContacts(ctx, page.Limit)
		if err != nil {
			return nil, err
		}
		summaries := make([]model.Raw, 0, len(contacts))
		for _, contact := range contacts {
			summaries = append(summaries, contact.Summary())
		}
		return map[string]any{"contacts": summaries, "count": len(summaries)}, nil
	}
}

func listEvents(svc client.Service) server.Handler {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		p, err := decode[listParams](params)
		if err != nil {
			return nil, err
		}
		page, err := client.NewPageRequest(p.Limit, 0)
		if err != nil {
			return nil, err
		}
		events, err := svc.ListEvents(ctx, page.Limit)
		if err != nil {
			return nil, err
		}
		summaries := make([]model.Raw, 0, len(events))
		for _, event := range events {
			summaries = append(summaries, event.Summary())
		}
		return map[string]any{"events": summaries, "count": len(summaries)}, nil
	}
}

func searchMessages(svc client.Service) server.Handler {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		p, err := decode[searchParams](params)
		if err != nil {
			return nil, err
		}
		sortBy := p.SortBy
		if sortBy == "" {
			sortBy = "receivedAt"
		}
		if !validSortFields[sortBy] {
			return nil, errors.NewValidation("sort_by", fmt.Sprintf("%q is not a sortable field", sortBy))
		}
		page, err := p.Pagination.page()
		if err != nil {
			return nil, err
		}
		filter, err := p.Filter.filter()
		if err != nil {
			return nil, err
		}
		return svc.SearchMessages(ctx, filter, page, sortBy, p.SortAscending)
	}
}

func getMessage(svc client.Service) server.Handler {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		p, err := decode[getParams](params)
		if err != nil {
			return nil, err
		}
		if p.MessageID == "" {
			return nil, errors.NewValidation("message_id", "is required")
		}
		return svc.GetMessage(ctx, p.MessageID, p.detailProperties())
	}
}

func listMailboxes(svc client.Service) server.Handler {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		p, err := decode[mailboxParams](params)
		if err != nil {
			return nil, err
		}
		page, err := p.Pagination.page()
		if err != nil {
			return nil, err
		}
		return svc.ListMailboxes(ctx, page)
	}
}

func sendMessage(svc client.Service) server.Handler {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		p, err := decode[client.OutgoingMessage](params)
		if err != nil {
			return nil, err
		}
		return svc.SendMessage(ctx, p)
	}
}
