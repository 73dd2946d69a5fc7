package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fmbridge/fmbridge/internal/client"
	"github.com/fmbridge/fmbridge/internal/errors"
	"github.com/fmbridge/fmbridge/internal/jmap"
	"github.com/fmbridge/fmbridge/internal/model"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	svc client.Service
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(svc client.Service) *Handlers {
	return &Handlers{svc: svc}
}

// Request types for each tool

// ListRequest represents the arguments for the listing tools.
type ListRequest struct {
	Limit int `json:"limit,omitempty"`
}

// SearchRequest represents the arguments for mail_search_messages.
type SearchRequest struct {
	Sender        string `json:"sender,omitempty"`
	Subject       string `json:"subject,omitempty"`
	Mailbox       string `json:"mailbox,omitempty"`
	Read          *bool  `json:"read,omitempty"`
	HasAttachment *bool  `json:"has_attachment,omitempty"`
	StartDate     string `json:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
	SortBy        string `json:"sort_by,omitempty"`
	SortAscending bool   `json:"sort_ascending,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	Offset        int    `json:"offset,omitempty"`
}

// GetRequest represents the arguments for mail_get_message.
type GetRequest struct {
	MessageID      string `json:"message_id"`
	IncludeBody    bool   `json:"include_body,omitempty"`
	IncludeHeaders bool   `json:"include_headers,omitempty"`
}

// MailboxesRequest represents the arguments for mail_list_mailboxes.
type MailboxesRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// Handler implementations

// HandleListMessages handles the mail_list_messages tool call.
func (h *Handlers) HandleListMessages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	page, err := client.NewPageRequest(input.Limit, 0)
	if err != nil {
		return errorResult(err), nil
	}

	messages, err := h.svc.ListMessages(ctx, page.Limit)
	if err != nil {
		return errorResult(err), nil
	}

	summaries := make([]model.Raw, 0, len(messages))
	for _, message := range messages {
		summaries = append(summaries, message.Summary())
	}
	return successResult(map[string]any{"messages": summaries, "count": len(summaries)})
}

// HandleSearchMessages handles the mail_search_messages tool call.
func (h *Handlers) HandleSearchMessages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	sortBy := input.SortBy
	if sortBy == "" {
		sortBy = "receivedAt"
	}
	page, err := client.NewPageRequest(input.Limit, input.Offset)
	if err != nil {
		return errorResult(err), nil
	}
	filter, err := buildFilter(input)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.svc.SearchMessages(ctx, filter, page, sortBy, input.SortAscending)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"messages": result.Messages,
		"page":     page.Response(result.Total),
		"position": result.Position,
	})
}

func buildFilter(input SearchRequest) (*jmap.MailFilter, error) {
	filter := &jmap.MailFilter{
		Sender:        input.Sender,
		Subject:       input.Subject,
		Mailbox:       input.Mailbox,
		Read:          input.Read,
		HasAttachment: input.HasAttachment,
	}
	if input.StartDate != "" {
		start, err := model.ParseTime(input.StartDate)
		if err != nil {
			return nil, errors.NewValidation("start_date", err.Error())
		}
		filter.After = &start
	}
	if input.EndDate != "" {
		end, err := model.ParseTime(input.EndDate)
		if err != nil {
			return nil, errors.NewValidation("end_date", err.Error())
		}
		filter.Before = &end
	}
	return filter, nil
}

// HandleGetMessage handles the mail_get_message tool call.
func (h *Handlers) HandleGetMessage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.MessageID == "" {
		return errorResult(errors.NewValidation("message_id", "is required")), nil
	}

	properties := []string{"id", "subject", "from", "to", "cc", "bcc", "receivedAt", "sentAt"}
	if input.IncludeBody {
		properties = append(properties, "textBody", "htmlBody", "attachments")
	}
	if input.IncludeHeaders {
		properties = append(properties, "headers")
	}

	detail, err := h.svc.GetMessage(ctx, input.MessageID, properties)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(detail)
}

// HandleListMailboxes handles the mail_list_mailboxes tool call.
func (h *Handlers) HandleListMailboxes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MailboxesRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	page, err := client.NewPageRequest(input.Limit, input.Offset)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.svc.ListMailboxes(ctx, page)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleListContacts handles the contacts_list tool call.
func (h *Handlers) HandleListContacts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	page, err := client.NewPageRequest(input.Limit, 0)
	if err != nil {
		return errorResult(err), nil
	}

	contacts, err := h.svc.ListContacts(ctx, page.Limit)
	if err != nil {
		return errorResult(err), nil
	}

	summaries := make([]model.Raw, 0, len(contacts))
	for _, contact := range contacts {
		summaries = append(summaries, contact.Summary())
	}
	return successResult(map[string]any{"contacts": summaries, "count": len(summaries)})
}

// HandleListEvents handles the calendar_list_events tool call.
func (h *Handlers) HandleListEvents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	page, err := client.NewPageRequest(input.Limit, 0)
	if err != nil {
		return errorResult(err), nil
	}

	events, err := h.svc.ListEvents(ctx, page.Limit)
	if err != nil {
		return errorResult(err), nil
	}

	summaries := make([]model.Raw, 0, len(events))
	for _, event := range events {
		summaries = append(summaries, event.Summary())
	}
	return successResult(map[string]any{"events": summaries, "count": len(summaries)})
}

// HandleSendMessage handles the mail_send_message tool call.
func (h *Handlers) HandleSendMessage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[client.OutgoingMessage](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	receipt, err := h.svc.SendMessage(ctx, input)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(receipt)
}

// errorResult creates an MCP error result from a bridge error. The kind
// string travels in the payload so agents can branch on it.
func errorResult(err error) *mcp.CallToolResult {
	errorObj := map[string]any{
		"type":    string(errors.KindOf(err)),
		"message": err.Error(),
	}
	if bErr, ok := err.(*errors.BridgeError); ok {
		errorObj["message"] = bErr.Message
		if bErr.Hint != "" {
			errorObj["hint"] = bErr.Hint
		}
		if bErr.Details != nil {
			errorObj["details"] = bErr.Details
		}
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
