// Package matrix implements the action protocol client on top of mautrix.
package matrix

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/id"

	"github.com/3n8/openclaw-plugins/internal/config"
)

var (
	ErrAccountDisabled      = errors.New("matrix account disabled")
	ErrAccountNotConfigured = errors.New("matrix account not configured")
)

// Snapshotter yields the channel configuration in effect right now.
type Snapshotter interface {
	Current() config.Matrix
}

type session struct {
	account config.ResolvedAccount
	client  *mautrix.Client
}

// Pool keeps one mautrix client per account and rebuilds it when the
// account's credentials change in a reloaded configuration.
type Pool struct {
	source  Snapshotter
	timeout time.Duration

	mu       sync.Mutex
	sessions map[string]session
}

func NewPool(source Snapshotter, timeout time.Duration) *Pool {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Pool{
		source:   source,
		timeout:  timeout,
		sessions: map[string]session{},
	}
}

// Client returns the client for accountID, or for the default account when
// accountID is blank.
func (p *Pool) Client(accountID string) (*mautrix.Client, config.ResolvedAccount, error) {
	account := p.source.Current().ResolveAccount(accountID)
	if !account.Enabled {
		return nil, account, fmt.Errorf("%w: %s", ErrAccountDisabled, account.ID)
	}
	if !account.Configured {
		return nil, account, fmt.Errorf("%w: %s", ErrAccountNotConfigured, account.ID)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.sessions[account.ID]; ok && existing.account == account {
		return existing.client, account, nil
	}
	client, err := mautrix.NewClient(account.Homeserver, id.UserID(account.UserID), account.AccessToken)
	if err != nil {
		return nil, account, fmt.Errorf("create matrix client for %s: %w", account.ID, err)
	}
	client.DeviceID = id.DeviceID(account.DeviceID)
	client.Client = &http.Client{Timeout: p.timeout}
	p.sessions[account.ID] = session{account: account, client: client}
	return client, account, nil
}
