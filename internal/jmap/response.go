package jmap

import (
	"github.com/fmbridge/fmbridge/internal/errors"
	"github.com/fmbridge/fmbridge/internal/model"
)

// SearchResult is the paginated outcome of a message search. Total and
// Limit are nil when the backend omits them.
type SearchResult struct {
	Messages            []model.MessageSummary `json:"messages"`
	Total               *int                   `json:"total"`
	Position            int                    `json:"position"`
	Limit               *int                   `json:"limit"`
	CanCalculateChanges bool                   `json:"can_calculate_changes"`
}

// MailboxPage is the paginated outcome of a mailbox listing.
type MailboxPage struct {
	Mailboxes           []model.Mailbox `json:"mailboxes"`
	Total               *int            `json:"total"`
	Position            int             `json:"position"`
	Limit               *int            `json:"limit"`
	CanCalculateChanges bool            `json:"can_calculate_changes"`
}

func missingMethod(method string) error {
	return errors.NewProtocol(method + " response missing from JMAP payload")
}

// itemsOf extracts the record list from a get-style method response.
func itemsOf(inv *Invocation) []model.Raw {
	list, _ := inv.Args["list"].([]any)
	items := make([]model.Raw, 0, len(list))
	for _, entry := range list {
		if record, ok := entry.(map[string]any); ok {
			items = append(items, model.Raw(record))
		}
	}
	return items
}

func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func argBool(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}

func argInt(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

func argIntPtr(args map[string]any, key string) *int {
	if n, ok := argInt(args, key); ok {
		return &n
	}
	return nil
}

// firstEmail pulls the address out of the leading entry of a JMAP
// address list ([{name, email}, ...]).
func firstEmail(value any) string {
	addresses, _ := value.([]any)
	if len(addresses) == 0 {
		return ""
	}
	entry, _ := addresses[0].(map[string]any)
	email, _ := entry["email"].(string)
	return email
}

func allEmails(value any) []string {
	addresses, _ := value.([]any)
	if len(addresses) == 0 {
		return nil
	}
	emails := make([]string, 0, len(addresses))
	for _, raw := range addresses {
		entry, _ := raw.(map[string]any)
		email, _ := entry["email"].(string)
		emails = append(emails, email)
	}
	return emails
}

// keywordSeen reports whether the keywords object marks the message
// read. Backends disagree on the spelling, so both are recognized.
func keywordSeen(value any) bool {
	keywords, _ := value.(map[string]any)
	if keywords == nil {
		return false
	}
	_, seen := keywords["$seen"]
	_, legacySeen := keywords["\\Seen"]
	return seen || legacySeen
}

// primaryMailbox returns a mailbox id the message belongs to, or nil
// when membership is unreported.
func primaryMailbox(value any) *string {
	mailboxIDs, _ := value.(map[string]any)
	for id := range mailboxIDs {
		return &id
	}
	return nil
}

// parseMessageList shapes an Email/get response into raw listing
// records keyed the way downstream consumers expect.
func parseMessageList(resp Response) ([]model.Raw, error) {
	emailGet := resp.Find("Email/get")
	if emailGet == nil {
		return nil, missingMethod("Email/get")
	}
	items := itemsOf(emailGet)
	messages := make([]model.Raw, 0, len(items))
	for _, item := range items {
		messages = append(messages, model.Raw{
			"id":          argString(item, "id"),
			"subject":     argString(item, "subject"),
			"snippet":     argString(item, "preview"),
			"received_at": argString(item, "receivedAt"),
		})
	}
	return messages, nil
}

func parseContactList(resp Response) ([]model.Raw, error) {
	contactGet := resp.Find("Contact/get")
	if contactGet == nil {
		return nil, missingMethod("Contact/get")
	}
	items := itemsOf(contactGet)
	contacts := make([]model.Raw, 0, len(items))
	for _, item := range items {
		emails := item["emails"]
		if emails == nil {
			emails = []any{}
		}
		contacts = append(contacts, model.Raw{
			"id":     argString(item, "id"),
			"name":   argString(item, "name"),
			"emails": emails,
		})
	}
	return contacts, nil
}

func parseEventList(resp Response) ([]model.Raw, error) {
	eventGet := resp.Find("CalendarEvent/get")
	if eventGet == nil {
		return nil, missingMethod("CalendarEvent/get")
	}
	items := itemsOf(eventGet)
	events := make([]model.Raw, 0, len(items))
	for _, item := range items {
		events = append(events, model.Raw{
			"id":    argString(item, "id"),
			"title": argString(item, "title"),
			"start": argString(item, "start"),
			"end":   argString(item, "end"),
		})
	}
	return events, nil
}

func parseSearchResult(resp Response) (SearchResult, error) {
	query := resp.Find("Email/query")
	if query == nil {
		return SearchResult{}, missingMethod("Email/query")
	}
	emailGet := resp.Find("Email/get")
	if emailGet == nil {
		return SearchResult{}, missingMethod("Email/get")
	}

	items := itemsOf(emailGet)
	messages := make([]model.MessageSummary, 0, len(items))
	for _, item := range items {
		messages = append(messages, model.MessageSummary{
			ID:            argString(item, "id"),
			Subject:       argString(item, "subject"),
			Sender:        firstEmail(item["from"]),
			Snippet:       argString(item, "preview"),
			ReceivedAt:    argString(item, "receivedAt"),
			Read:          keywordSeen(item["keywords"]),
			HasAttachment: argBool(item, "hasAttachment"),
			Mailbox:       primaryMailbox(item["mailboxIds"]),
		})
	}

	position, _ := argInt(query.Args, "position")
	return SearchResult{
		Messages:            messages,
		Total:               argIntPtr(query.Args, "total"),
		Position:            position,
		Limit:               argIntPtr(query.Args, "limit"),
		CanCalculateChanges: argBool(query.Args, "canCalculateChanges"),
	}, nil
}

func parseMessageDetail(resp Response) (model.MessageDetail, error) {
	emailGet := resp.Find("Email/get")
	if emailGet == nil {
		return model.MessageDetail{}, missingMethod("Email/get")
	}
	items := itemsOf(emailGet)
	if len(items) == 0 {
		return model.MessageDetail{}, errors.NewNotFound("Message not found")
	}
	item := items[0]

	return model.MessageDetail{
		ID:          argString(item, "id"),
		Subject:     argString(item, "subject"),
		Sender:      firstEmail(item["from"]),
		To:          allEmails(item["to"]),
		Cc:          allEmails(item["cc"]),
		Bcc:         allEmails(item["bcc"]),
		ReceivedAt:  argString(item, "receivedAt"),
		SentAt:      argString(item, "sentAt"),
		BodyText:    item["textBody"],
		BodyHTML:    item["htmlBody"],
		Headers:     item["headers"],
		Attachments: item["attachments"],
	}, nil
}

func parseMailboxPage(resp Response) (MailboxPage, error) {
	query := resp.Find("Mailbox/query")
	if query == nil {
		return MailboxPage{}, missingMethod("Mailbox/query")
	}
	mailboxGet := resp.Find("Mailbox/get")
	if mailboxGet == nil {
		return MailboxPage{}, missingMethod("Mailbox/get")
	}

	items := itemsOf(mailboxGet)
	mailboxes := make([]model.Mailbox, 0, len(items))
	for _, item := range items {
		mailboxes = append(mailboxes, model.ParseMailbox(item))
	}

	position, _ := argInt(query.Args, "position")
	return MailboxPage{
		Mailboxes:           mailboxes,
		Total:               argIntPtr(query.Args, "total"),
		Position:            position,
		Limit:               argIntPtr(query.Args, "limit"),
		CanCalculateChanges: argBool(query.Args, "canCalculateChanges"),
	}, nil
}
