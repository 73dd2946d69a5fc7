package client

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fmbridge/fmbridge/internal/errors"
	"github.com/fmbridge/fmbridge/internal/fixture"
	"github.com/fmbridge/fmbridge/internal/jmap"
	"github.com/fmbridge/fmbridge/internal/model"
)

// stubBackend scripts per-operation outcomes and records calls.
type stubBackend struct {
	messages    []model.Raw
	contacts    []model.Raw
	events      []model.Raw
	searchRes   jmap.SearchResult
	detail      model.MessageDetail
	mailboxPage jmap.MailboxPage
	err         error

	searchCalls  int
	lastSearch   jmap.SearchOptions
	messageCalls int
}

func (s *stubBackend) ListMessages(ctx context.Context, limit int) ([]model.Raw, error) {
	s.messageCalls++
	return s.messages, s.err
}

func (s *stubBackend) SearchMessages(ctx context.Context, opts jmap.SearchOptions) (jmap.SearchResult, error) {
	s.searchCalls++
	s.lastSearch = opts
	return s.searchRes, s.err
}

func (s *stubBackend) GetMessage(ctx context.Context, messageID string, properties []string) (model.MessageDetail, error) {
	return s.detail, s.err
}

func (s *stubBackend) ListMailboxes(ctx context.Context, limit, offset int) (jmap.MailboxPage, error) {
	return s.mailboxPage, s.err
}

func (s *stubBackend) ListContacts(ctx context.Context, limit int) ([]model.Raw, error) {
	return s.contacts, s.err
}

func (s *stubBackend) ListEvents(ctx context.Context, limit int) ([]model.Raw, error) {
	return s.events, s.err
}

func testFixtures(t *testing.T) *fixture.Source {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"messages.json": `[
			{"id":"fx1","subject":"Fixture old","received_at":"2025-01-01T00:00:00Z"},
			{"id":"fx2","subject":"Fixture new","received_at":"2025-03-01T00:00:00Z"}
		]`,
		"contacts.json": `[
			{"id":"fc1","name":"Zed","emails":[]},
			{"id":"fc2","name":"Ada","emails":[{"value":"ada@example.net"}]}
		]`,
		"events.json": `[
			{"id":"fe1","title":"Later","start":"2025-08-01T10:00:00Z"},
			{"id":"fe2","title":"Sooner","start":"2025-07-01T10:00:00Z"}
		]`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}
	return &fixture.Source{
		MessagesPath: filepath.Join(dir, "messages.json"),
		ContactsPath: filepath.Join(dir, "contacts.json"),
		EventsPath:   filepath.Join(dir, "events.json"),
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestClient(t *testing.T, backend Backend, opts Options) *Client {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	return New(backend, testFixtures(t), opts)
}

func TestListMessages_LiveSortedAndTruncated(t *testing.T) {
	backend := &stubBackend{messages: []model.Raw{
		{"id": "m-old", "received_at": "2025-02-01T00:00:00Z"},
		{"id": "m-new", "received_at": "2025-04-01T00:00:00Z"},
		{"id": "m-mid", "received_at": "2025-03-01T00:00:00Z"},
	}}
	c := newTestClient(t, backend, Options{})

	messages, err := c.ListMessages(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want truncation to 2", len(messages))
	}
	if messages[0].ID != "m-new" || messages[1].ID != "m-mid" {
		t.Errorf("order = %s, %s; want newest first", messages[0].ID, messages[1].ID)
	}
}

func TestListMessages_TransportFailureUsesFixtures(t *testing.T) {
	backend := &stubBackend{err: errors.NewNetwork("connection refused")}
	c := newTestClient(t, backend, Options{})

	messages, err := c.ListMessages(context.Background(), 10)
	if err != nil {
		t.Fatalf("fallback should not error: %v", err)
	}
	if len(messages) != 2 || messages[0].ID != "fx2" {
		t.Errorf("messages = %v, want sorted fixtures", messages)
	}
}

func TestListMessages_MalformedLiveRecordUsesFixtures(t *testing.T) {
	backend := &stubBackend{messages: []model.Raw{
		{"id": "m1", "received_at": "not a timestamp"},
	}}
	c := newTestClient(t, backend, Options{})

	messages, err := c.ListMessages(context.Background(), 10)
	if err != nil {
		t.Fatalf("fallback should not error: %v", err)
	}
	if len(messages) == 0 || messages[0].ID != "fx2" {
		t.Errorf("messages = %v, want fixture records", messages)
	}
}

func TestListMessages_ValidationErrorPropagates(t *testing.T) {
	backend := &stubBackend{err: errors.NewValidation("limit", "must be positive")}
	c := newTestClient(t, backend, Options{})

	_, err := c.ListMessages(context.Background(), 0)
	if !errors.Is(err, errors.KindValidation) {
		t.Errorf("validation error should propagate, got %v", err)
	}
}

func TestListMessages_FixtureMissingSurfaces(t *testing.T) {
	backend := &stubBackend{err: errors.NewNetwork("down")}
	c := New(backend, &fixture.Source{MessagesPath: filepath.Join(t.TempDir(), "absent.json")}, Options{Logger: quietLogger()})

	_, err := c.ListMessages(context.Background(), 10)
	if err == nil {
		t.Fatal("missing fixtures with a dead backend should error")
	}
}

func TestListContacts_SortedByName(t *testing.T) {
	backend := &stubBackend{err: errors.NewNetwork("down")}
	c := newTestClient(t, backend, Options{})

	contacts, err := c.ListContacts(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListContacts failed: %v", err)
	}
	if contacts[0].DisplayName != "Ada" || contacts[1].DisplayName != "Zed" {
		t.Errorf("contacts = %v, want name-ascending order", contacts)
	}
}

func TestListEvents_SortedByStart(t *testing.T) {
	backend := &stubBackend{err: errors.NewTransport(503, "unavailable")}
	c := newTestClient(t, backend, Options{})

	events, err := c.ListEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if events[0].Title != "Sooner" {
		t.Errorf("events = %v, want start-ascending order", events)
	}
}

func TestSearchMessages_PassThrough(t *testing.T) {
	total := 42
	backend := &stubBackend{searchRes: jmap.SearchResult{
		Messages: []model.MessageSummary{{ID: "m1"}},
		Total:    &total,
	}}
	c := newTestClient(t, backend, Options{})

	read := true
	filter := &jmap.MailFilter{Sender: "ada@example.net", Read: &read}
	result, err := c.SearchMessages(context.Background(), filter, PageRequest{Limit: 20, Offset: 5}, "receivedAt", false)
	if err != nil {
		t.Fatalf("SearchMessages failed: %v", err)
	}
	if *result.Total != 42 {
		t.Errorf("Total = %d", *result.Total)
	}
	if backend.lastSearch.Offset != 5 || backend.lastSearch.Limit != 20 {
		t.Errorf("search options = %+v", backend.lastSearch)
	}
	if backend.lastSearch.Filter["isUnread"] != false {
		t.Errorf("filter = %v, want read predicate inverted", backend.lastSearch.Filter)
	}
}

func TestSearchMessages_EmptyFilterOmitted(t *testing.T) {
	backend := &stubBackend{}
	c := newTestClient(t, backend, Options{})

	if _, err := c.SearchMessages(context.Background(), &jmap.MailFilter{}, DefaultPageRequest(), "receivedAt", false); err != nil {
		t.Fatalf("SearchMessages failed: %v", err)
	}
	if backend.lastSearch.Filter != nil {
		t.Errorf("zero filter should not reach the backend, got %v", backend.lastSearch.Filter)
	}
}

func TestSearchMessages_InvalidDateRangeRejectsEarly(t *testing.T) {
	backend := &stubBackend{}
	c := newTestClient(t, backend, Options{})

	after := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := c.SearchMessages(context.Background(), &jmap.MailFilter{After: &after, Before: &before}, DefaultPageRequest(), "receivedAt", false)
	if !errors.Is(err, errors.KindValidation) {
		t.Fatalf("inverted range should be a validation error, got %v", err)
	}
	if backend.searchCalls != 0 {
		t.Error("validation failure must not reach the backend")
	}
}

func TestSearchMessages_DegradesToListing(t *testing.T) {
	backend := &stubBackend{err: errors.NewNetwork("down")}
	c := newTestClient(t, backend, Options{})

	result, err := c.SearchMessages(context.Background(), nil, PageRequest{Limit: 10, Offset: 3}, "receivedAt", false)
	if err != nil {
		t.Fatalf("degraded search should not error: %v", err)
	}
	if len(result.Messages) != 2 {
		t.Fatalf("got %d messages, want fixture listing", len(result.Messages))
	}
	if result.Messages[0].ID != "fx2" {
		t.Errorf("first = %q, want newest fixture", result.Messages[0].ID)
	}
	if result.Total == nil || *result.Total != 2 {
		t.Errorf("Total = %v, want listing count", result.Total)
	}
	if result.Position != 3 {
		t.Errorf("Position = %d, want requested offset", result.Position)
	}
}

func TestGetMessage_PassThrough(t *testing.T) {
	backend := &stubBackend{detail: model.MessageDetail{ID: "m1", Subject: "hi"}}
	c := newTestClient(t, backend, Options{})

	detail, err := c.GetMessage(context.Background(), "m1", nil)
	if err != nil {
		t.Fatalf("GetMessage failed: %v", err)
	}
	if detail.Subject != "hi" {
		t.Errorf("detail = %+v", detail)
	}
}

func TestGetMessage_ErrorsPropagate(t *testing.T) {
	backend := &stubBackend{err: errors.NewNotFound("Message not found")}
	c := newTestClient(t, backend, Options{})

	_, err := c.GetMessage(context.Background(), "m-missing", nil)
	if !errors.Is(err, errors.KindNotFound) {
		t.Errorf("NotFound should propagate unchanged, got %v", err)
	}

	if _, err := c.GetMessage(context.Background(), "", nil); !errors.Is(err, errors.KindValidation) {
		t.Errorf("empty id should be a validation error, got %v", err)
	}
}

func TestListMailboxes_SyntheticInboxFallback(t *testing.T) {
	backend := &stubBackend{err: errors.NewAuth("bad credentials")}
	c := newTestClient(t, backend, Options{})

	page, err := c.ListMailboxes(context.Background(), PageRequest{Limit: 50, Offset: 0})
	if err != nil {
		t.Fatalf("fallback should not error: %v", err)
	}
	if len(page.Mailboxes) != 1 || page.Mailboxes[0].ID != "inbox" {
		t.Errorf("mailboxes = %v, want single synthetic inbox", page.Mailboxes)
	}
	if page.Total == nil || *page.Total != 1 {
		t.Errorf("Total = %v", page.Total)
	}
}

func TestSendMessage_WriteDisabled(t *testing.T) {
	c := newTestClient(t, &stubBackend{}, Options{})

	_, err := c.SendMessage(context.Background(), OutgoingMessage{
		To: []string{"bob@example.net"}, Subject: "hi", TextBody: "hello",
	})
	if !errors.Is(err, errors.KindPermissionDenied) {
		t.Errorf("disabled write should be permission denied, got %v", err)
	}
}

func TestSendMessage_EnabledButNotDelivered(t *testing.T) {
	c := newTestClient(t, &stubBackend{}, Options{EnableWrite: true})

	receipt, err := c.SendMessage(context.Background(), OutgoingMessage{
		To: []string{"bob@example.net"}, Subject: "hi", TextBody: "hello",
	})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if receipt.Accepted {
		t.Error("placeholder send must not report acceptance")
	}
	if receipt.Note == "" {
		t.Error("receipt should explain why the message was not submitted")
	}
}

func TestSendMessage_Validation(t *testing.T) {
	c := newTestClient(t, &stubBackend{}, Options{EnableWrite: true})

	cases := map[string]OutgoingMessage{
		"no recipients": {Subject: "hi", TextBody: "x"},
		"bad address":   {To: []string{"not-an-address"}, Subject: "hi", TextBody: "x"},
		"no subject":    {To: []string{"bob@example.net"}, TextBody: "x"},
		"no body":       {To: []string{"bob@example.net"}, Subject: "hi"},
	}
	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := c.SendMessage(context.Background(), msg); !errors.Is(err, errors.KindValidation) {
				t.Errorf("want validation error, got %v", err)
			}
		})
	}
}

func TestNewPageRequest(t *testing.T) {
	page, err := NewPageRequest(0, 0)
	if err != nil {
		t.Fatalf("zero limit should select the default: %v", err)
	}
	if page.Limit != DefaultLimit {
		t.Errorf("Limit = %d, want default", page.Limit)
	}

	for name, args := range map[string][2]int{
		"limit too large": {MaxLimit + 1, 0},
		"limit negative":  {-1, 0},
		"offset negative": {10, -1},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := NewPageRequest(args[0], args[1]); !errors.Is(err, errors.KindValidation) {
				t.Errorf("want validation error, got %v", err)
			}
		})
	}
}

func TestPageResponse_HasMore(t *testing.T) {
	total := 25
	resp := PageRequest{Limit: 10, Offset: 10}.Response(&total)
	if resp.HasMore == nil || !*resp.HasMore {
		t.Errorf("HasMore = %v, want true", resp.HasMore)
	}

	lastPage := PageRequest{Limit: 10, Offset: 20}.Response(&total)
	if lastPage.HasMore == nil || *lastPage.HasMore {
		t.Errorf("HasMore = %v, want false on final page", lastPage.HasMore)
	}

	if unknown := DefaultPageRequest().Response(nil); unknown.HasMore != nil {
		t.Errorf("HasMore = %v, want nil without a total", unknown.HasMore)
	}
}
