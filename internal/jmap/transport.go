package jmap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fmbridge/fmbridge/internal/errors"
	"github.com/fmbridge/fmbridge/internal/model"
)

// DefaultMessageDetailProperties is the property set requested by
// get-by-id when the caller does not narrow it.
var DefaultMessageDetailProperties = []string{
	"id", "subject", "from", "to", "cc", "bcc",
	"receivedAt", "sentAt", "textBody", "htmlBody",
	"headers", "attachments", "keywords", "mailboxIds",
}

// Transport is a thin wrapper over the JMAP HTTP API for read-only
// scenarios. The session is discovered lazily on first use and cached
// for the transport's lifetime.
type Transport struct {
	baseURL     string
	username    string
	appPassword string
	token       string

	httpClient *http.Client
	cache      sessionCache
}

// NewTransport builds a transport against the given base URL. A
// non-empty token selects bearer auth; otherwise the username and app
// password are sent as basic auth.
func NewTransport(baseURL, username, appPassword, token string, timeout time.Duration) *Transport {
	return &Transport{
		baseURL:     strings.TrimRight(baseURL, "/"),
		username:    username,
		appPassword: appPassword,
		token:       token,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

func (t *Transport) authorize(req *http.Request) {
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
		return
	}
	req.SetBasicAuth(t.username, t.appPassword)
}

// Session resolves the cached JMAP session, running discovery at most
// once across concurrent callers.
func (t *Transport) Session(ctx context.Context) (*Session, error) {
	return t.cache.resolve(func() (*Session, error) {
		return t.discover(ctx)
	})
}

func (t *Transport) discover(ctx context.Context) (*Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+WellKnownPath, nil)
	if err != nil {
		return nil, errors.NewNetwork(fmt.Sprintf("failed to obtain JMAP session: %v", err))
	}
	t.authorize(req)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewNetwork(fmt.Sprintf("failed to obtain JMAP session: %v", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, errors.NewAuth(fmt.Sprintf("authentication failed (status %d), check credentials", resp.StatusCode))
	case resp.StatusCode >= 400:
		return nil, errors.NewProtocol(fmt.Sprintf("JMAP session discovery failed with status %d", resp.StatusCode))
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.NewProtocol(fmt.Sprintf("JMAP session document is not valid JSON: %v", err))
	}
	return newSessionFromPayload(payload)
}

// accountFor resolves the primary account id for a capability,
// discovering the session first if needed.
func (t *Transport) accountFor(ctx context.Context, capability string) (string, error) {
	session, err := t.Session(ctx)
	if err != nil {
		return "", err
	}
	return session.AccountFor(capability)
}

// Call POSTs a batched request to the session's API endpoint.
func (t *Transport) Call(ctx context.Context, request Request) (Response, error) {
	session, err := t.Session(ctx)
	if err != nil {
		return Response{}, err
	}

	body, err := json.Marshal(request)
	if err != nil {
		return Response{}, errors.NewInternal(fmt.Errorf("encode JMAP request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, session.APIURL, bytes.NewReader(body))
	if err != nil {
		return Response{}, errors.NewNetwork(fmt.Sprintf("JMAP request failed: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	t.authorize(req)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return Response{}, errors.NewNetwork(fmt.Sprintf("JMAP request failed: %v", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, errors.NewNetwork(fmt.Sprintf("JMAP response read failed: %v", err))
	}
	if resp.StatusCode >= 400 {
		return Response{}, errors.NewTransport(resp.StatusCode, string(raw))
	}

	var response Response
	if err := json.Unmarshal(raw, &response); err != nil {
		return Response{}, errors.NewProtocol(fmt.Sprintf("JMAP response is not valid JSON: %v", err))
	}
	return response, nil
}

func validateLimit(limit int) error {
	if limit <= 0 {
		return errors.NewValidation("limit", "must be positive")
	}
	return nil
}

// ListMessages fetches the most recent messages, newest first.
func (t *Transport) ListMessages(ctx context.Context, limit int) ([]model.Raw, error) {
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	accountID, err := t.accountFor(ctx, CapabilityMail)
	if err != nil {
		return nil, err
	}
	resp, err := t.Call(ctx, buildEmailList(accountID, limit))
	if err != nil {
		return nil, err
	}
	return parseMessageList(resp)
}

// SearchMessages runs a filtered, paginated message search.
func (t *Transport) SearchMessages(ctx context.Context, opts SearchOptions) (SearchResult, error) {
	if err := validateLimit(opts.Limit); err != nil {
		return SearchResult{}, err
	}
	if opts.SortBy == "" {
		opts.SortBy = "receivedAt"
	}
	accountID, err := t.accountFor(ctx, CapabilityMail)
	if err != nil {
		return SearchResult{}, err
	}
	resp, err := t.Call(ctx, buildEmailSearch(accountID, opts))
	if err != nil {
		return SearchResult{}, err
	}
	return parseSearchResult(resp)
}

// GetMessage fetches one message by id. A nil properties slice requests
// the default detail set.
func (t *Transport) GetMessage(ctx context.Context, messageID string, properties []string) (model.MessageDetail, error) {
	if properties == nil {
		properties = DefaultMessageDetailProperties
	}
	accountID, err := t.accountFor(ctx, CapabilityMail)
	if err != nil {
		return model.MessageDetail{}, err
	}
	resp, err := t.Call(ctx, buildEmailGet(accountID, messageID, properties))
	if err != nil {
		return model.MessageDetail{}, err
	}
	return parseMessageDetail(resp)
}

// ListMailboxes fetches a page of mailboxes sorted by name.
func (t *Transport) ListMailboxes(ctx context.Context, limit, offset int) (MailboxPage, error) {
	if err := validateLimit(limit); err != nil {
		return MailboxPage{}, err
	}
	accountID, err := t.accountFor(ctx, CapabilityMail)
	if err != nil {
		return MailboxPage{}, err
	}
	resp, err := t.Call(ctx, buildMailboxList(accountID, limit, offset))
	if err != nil {
		return MailboxPage{}, err
	}
	return parseMailboxPage(resp)
}

// ListContacts fetches contacts sorted by name.
func (t *Transport) ListContacts(ctx context.Context, limit int) ([]model.Raw, error) {
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	accountID, err := t.accountFor(ctx, CapabilityContacts)
	if err != nil {
		return nil, err
	}
	resp, err := t.Call(ctx, buildContactList(accountID, limit))
	if err != nil {
		return nil, err
	}
	return parseContactList(resp)
}

// ListEvents fetches calendar events sorted by start time.
func (t *Transport) ListEvents(ctx context.Context, limit int) ([]model.Raw, error) {
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	accountID, err := t.accountFor(ctx, CapabilityCalendars)
	if err != nil {
		return nil, err
	}
	resp, err := t.Call(ctx, buildEventList(accountID, limit))
	if err != nil {
		return nil, err
	}
	return parseEventList(resp)
}
