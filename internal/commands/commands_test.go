package commands

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/fmbridge/fmbridge/internal/client"
	"github.com/fmbridge/fmbridge/internal/errors"
	"github.com/fmbridge/fmbridge/internal/jmap"
	"github.com/fmbridge/fmbridge/internal/model"
	"github.com/fmbridge/fmbridge/internal/server"
)

// fakeService records the arguments each operation receives.
type fakeService struct {
	lastFilter   *jmap.MailFilter
	lastPage     client.PageRequest
	lastSortBy   string
	lastProps    []string
	lastOutgoing client.OutgoingMessage
	calls        int
}

func (f *fakeService) ListMessages(ctx context.Context, limit int) ([]model.Message, error) {
	f.calls++
	return []model.Message{
		{ID: "m1", Subject: "Hello", ReceivedAt: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)},
	}, nil
}

func (f *fakeService) ListContacts(ctx context.Context, limit int) ([]model.Contact, error) {
	f.calls++
	return []model.Contact{{ID: "c1", DisplayName: "Ada"}}, nil
}

func (f *fakeService) ListEvents(ctx context.Context, limit int) ([]model.CalendarEvent, error) {
	f.calls++
	return []model.CalendarEvent{
		{ID: "e1", Title: "Standup", StartsAt: time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)},
	}, nil
}

func (f *fakeService) SearchMessages(ctx context.Context, filter *jmap.MailFilter, page client.PageRequest, sortBy string, sortAscending bool) (jmap.SearchResult, error) {
	f.calls++
	f.lastFilter = filter
	f.lastPage = page
	f.lastSortBy = sortBy
	return jmap.SearchResult{}, nil
}

func (f *fakeService) GetMessage(ctx context.Context, messageID string, properties []string) (model.MessageDetail, error) {
	f.calls++
	f.lastProps = properties
	return model.MessageDetail{ID: messageID}, nil
}

func (f *fakeService) ListMailboxes(ctx context.Context, page client.PageRequest) (jmap.MailboxPage, error) {
	f.calls++
	f.lastPage = page
	return jmap.MailboxPage{}, nil
}

func (f *fakeService) SendMessage(ctx context.Context, msg client.OutgoingMessage) (client.SendReceipt, error) {
	f.calls++
	f.lastOutgoing = msg
	return client.SendReceipt{Accepted: false, Note: "not implemented"}, nil
}

func newTestRegistry(t *testing.T, enableWrite bool) (*server.Registry, *fakeService) {
	t.Helper()
	registry := server.NewRegistry()
	svc := &fakeService{}
	if err := RegisterAll(registry, svc, enableWrite); err != nil {
		t.Fatalf("RegisterAll failed: %v", err)
	}
	return registry, svc
}

func call(t *testing.T, registry *server.Registry, name, params string) (any, error) {
	t.Helper()
	return registry.HandleCall(context.Background(), name, json.RawMessage(params))
}

func TestRegisterAll_CommandSurface(t *testing.T) {
	registry, _ := newTestRegistry(t, false)
	names := registry.CommandNames()

	want := []string{
		CommandGetMessage, CommandListContacts, CommandListEvents,
		CommandListMailboxes, CommandListMessages, CommandSearchMessages,
	}
	if len(names) != len(want) {
		t.Fatalf("commands = %v, want %v", names, want)
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("commands[%d] = %q, want %q", i, names[i], name)
		}
	}
}

func TestRegisterAll_SendOnlyWhenWriteEnabled(t *testing.T) {
	registry, _ := newTestRegistry(t, true)
	found := false
	for _, name := range registry.CommandNames() {
		if name == CommandSendMessage {
			found = true
		}
	}
	if !found {
		t.Error("send-message should be registered when writes are enabled")
	}

	disabled, _ := newTestRegistry(t, false)
	_, err := call(t, disabled, CommandSendMessage, `{}`)
	if !errors.Is(err, errors.KindNotFound) {
		t.Errorf("send-message should be unknown when writes are disabled, got %v", err)
	}
}

func TestListMessages_SummaryShape(t *testing.T) {
	registry, _ := newTestRegistry(t, false)

	result, err := call(t, registry, CommandListMessages, `{"limit":5}`)
	if err != nil {
		t.Fatalf("list-messages failed: %v", err)
	}
	payload := result.(map[string]any)
	if payload["count"] != 1 {
		t.Errorf("count = %v", payload["count"])
	}
	summary := payload["messages"].([]model.Raw)[0]
	if summary["id"] != "m1" || summary["received_at"] != "2025-06-01T09:00:00Z" {
		t.Errorf("summary = %v", summary)
	}
}

func TestListCommands_RejectBadLimitBeforeService(t *testing.T) {
	registry, svc := newTestRegistry(t, false)

	for _, name := range []string{CommandListMessages, CommandListContacts, CommandListEvents} {
		if _, err := call(t, registry, name, `{"limit":-3}`); !errors.Is(err, errors.KindValidation) {
			t.Errorf("%s: want validation error, got %v", name, err)
		}
		if _, err := call(t, registry, name, `{"limit":101}`); !errors.Is(err, errors.KindValidation) {
			t.Errorf("%s: out-of-range limit should fail, got %v", name, err)
		}
	}
	if svc.calls != 0 {
		t.Errorf("service was called %d times for invalid params", svc.calls)
	}
}

func TestSearchMessages_FilterConversion(t *testing.T) {
	registry, svc := newTestRegistry(t, false)

	_, err := call(t, registry, CommandSearchMessages, `{
		"filter": {"mailbox": "INBOX", "sender": "a@b.com", "read": true},
		"pagination": {"limit": 25, "offset": 50}
	}`)
	if err != nil {
		t.Fatalf("search-messages failed: %v", err)
	}

	obj := svc.lastFilter.ToJMAP()
	if obj["inMailbox"] != "INBOX" || obj["from"] != "a@b.com" {
		t.Errorf("filter = %v", obj)
	}
	if obj["isUnread"] != false {
		t.Errorf("isUnread = %v, want read inverted", obj["isUnread"])
	}
	if _, present := obj["hasAttachment"]; present {
		t.Error("unset attachment predicate should be omitted")
	}
	if svc.lastPage.Limit != 25 || svc.lastPage.Offset != 50 {
		t.Errorf("page = %+v", svc.lastPage)
	}
	if svc.lastSortBy != "receivedAt" {
		t.Errorf("sortBy = %q, want default", svc.lastSortBy)
	}
}

func TestSearchMessages_DateRange(t *testing.T) {
	registry, svc := newTestRegistry(t, false)

	_, err := call(t, registry, CommandSearchMessages, `{
		"filter": {"date_range": {"start": "2025-01-01T00:00:00Z", "end": "2025-06-01T00:00:00Z"}}
	}`)
	if err != nil {
		t.Fatalf("search-messages failed: %v", err)
	}
	if svc.lastFilter.After == nil || svc.lastFilter.Before == nil {
		t.Fatalf("filter = %+v, want both bounds set", svc.lastFilter)
	}

	_, err = call(t, registry, CommandSearchMessages, `{
		"filter": {"date_range": {"start": "yesterday"}}
	}`)
	if !errors.Is(err, errors.KindValidation) {
		t.Errorf("bad date should be a validation error, got %v", err)
	}
}

func TestSearchMessages_SortFieldValidation(t *testing.T) {
	registry, svc := newTestRegistry(t, false)

	_, err := call(t, registry, CommandSearchMessages, `{"sort_by": "snippet"}`)
	if !errors.Is(err, errors.KindValidation) {
		t.Errorf("unknown sort field should fail, got %v", err)
	}
	if svc.calls != 0 {
		t.Error("service must not be called for an invalid sort field")
	}

	if _, err := call(t, registry, CommandSearchMessages, `{"sort_by": "subject"}`); err != nil {
		t.Errorf("subject sort should be accepted: %v", err)
	}
}

func TestGetMessage_PropertySelection(t *testing.T) {
	registry, svc := newTestRegistry(t, false)

	if _, err := call(t, registry, CommandGetMessage, `{}`); !errors.Is(err, errors.KindValidation) {
		t.Errorf("missing message_id should fail, got %v", err)
	}

	if _, err := call(t, registry, CommandGetMessage, `{"message_id":"m1"}`); err != nil {
		t.Fatalf("get-message failed: %v", err)
	}
	base := len(svc.lastProps)
	if contains(svc.lastProps, "textBody") || contains(svc.lastProps, "headers") {
		t.Errorf("default properties should exclude body and headers: %v", svc.lastProps)
	}

	if _, err := call(t, registry, CommandGetMessage, `{"message_id":"m1","include_body":true,"include_headers":true}`); err != nil {
		t.Fatalf("get-message failed: %v", err)
	}
	if len(svc.lastProps) <= base {
		t.Errorf("include flags should extend the property set: %v", svc.lastProps)
	}
	if !contains(svc.lastProps, "htmlBody") || !contains(svc.lastProps, "headers") {
		t.Errorf("properties = %v", svc.lastProps)
	}
}

func TestListMailboxes_DefaultPagination(t *testing.T) {
	registry, svc := newTestRegistry(t, false)

	if _, err := call(t, registry, CommandListMailboxes, ``); err != nil {
		t.Fatalf("list-mailboxes failed: %v", err)
	}
	if svc.lastPage.Limit != client.DefaultLimit || svc.lastPage.Offset != 0 {
		t.Errorf("page = %+v, want defaults", svc.lastPage)
	}
}

func TestSendMessage_DecodesBody(t *testing.T) {
	registry, svc := newTestRegistry(t, true)

	result, err := call(t, registry, CommandSendMessage, `{
		"to": ["bob@example.net"], "subject": "hi", "body_text": "hello"
	}`)
	if err != nil {
		t.Fatalf("send-message failed: %v", err)
	}
	if svc.lastOutgoing.TextBody != "hello" {
		t.Errorf("outgoing = %+v", svc.lastOutgoing)
	}
	if result.(client.SendReceipt).Accepted {
		t.Error("placeholder send must not report acceptance")
	}
}

func contains(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}
