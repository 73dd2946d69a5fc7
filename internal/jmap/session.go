package jmap

import (
	"sync"

	"github.com/fmbridge/fmbridge/internal/errors"
)

// Session is the resolved JMAP session: where to POST and which account
// id serves each capability. Once populated it is immutable for the
// lifetime of the transport.
type Session struct {
	APIURL   string
	Accounts map[string]string
}

// AccountFor returns the primary account id for a capability.
func (s *Session) AccountFor(capability string) (string, error) {
	accountID := s.Accounts[capability]
	if accountID == "" {
		return "", errors.NewCapability(capability)
	}
	return accountID, nil
}

// sessionCache guards discovery so concurrent callers share a single
// resolution. The discover function runs under the lock; losers of the
// race see the winner's session.
type sessionCache struct {
	mu      sync.Mutex
	session *Session
}

func (c *sessionCache) resolve(discover func() (*Session, error)) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return c.session, nil
	}
	session, err := discover()
	if err != nil {
		return nil, err
	}
	c.session = session
	return session, nil
}

// newSessionFromPayload validates a discovery document. The apiUrl and
// at least one string-valued primary account are required.
func newSessionFromPayload(payload map[string]any) (*Session, error) {
	apiURL, _ := payload["apiUrl"].(string)
	primaryAccounts, _ := payload["primaryAccounts"].(map[string]any)
	if apiURL == "" || primaryAccounts == nil {
		return nil, errors.NewProtocol("unable to locate JMAP account information in session")
	}

	accounts := make(map[string]string, len(primaryAccounts))
	for capability, raw := range primaryAccounts {
		if accountID, ok := raw.(string); ok && accountID != "" {
			accounts[capability] = accountID
		}
	}
	if len(accounts) == 0 {
		return nil, errors.NewProtocol("no JMAP accounts available for current credentials")
	}

	return &Session{APIURL: apiURL, Accounts: accounts}, nil
}
