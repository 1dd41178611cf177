// Package session tracks the signed-in identity for a client of the
// service. It wraps the auth service with an observable state machine so
// consumers can react to sign-in and sign-out instead of polling.
package session

import (
	"sync"

	"taskdeck/database"
	"taskdeck/models"
	"taskdeck/services"
)

// Status is the session lifecycle state. A fresh provider starts in
// StatusLoading until the stored token is checked exactly once; after
// that it only moves between StatusNone and StatusAuthenticated.
type Status string

const (
	StatusLoading       Status = "loading"
	StatusNone          Status = "none"
	StatusAuthenticated Status = "authenticated"
)

// Snapshot is what watchers receive on every state change. User and Token
// are only set when Status is StatusAuthenticated.
type Snapshot struct {
	Status Status
	User   models.User
	Token  string
}

// Provider owns the current session and fans out changes to watchers.
type Provider struct {
	db    *database.Database
	auth  services.AuthServiceInterface
	users services.UserServiceInterface

	mu       sync.RWMutex
	current  Snapshot
	watchers map[chan Snapshot]struct{}
}

func NewProvider(db *database.Database, auth services.AuthServiceInterface, users services.UserServiceInterface) *Provider {
	return &Provider{
		db:       db,
		auth:     auth,
		users:    users,
		current:  Snapshot{Status: StatusLoading},
		watchers: make(map[chan Snapshot]struct{}),
	}
}

// Restore checks a previously stored token and resolves the initial
// loading state: a valid token restores the session, anything else lands
// on none. An empty token skips validation entirely.
func (p *Provider) Restore(stored string) {
	if stored == "" {
		p.transition(Snapshot{Status: StatusNone})
		return
	}

	claims, err := p.auth.ValidateToken(stored)
	if err != nil {
		p.transition(Snapshot{Status: StatusNone})
		return
	}

	user, err := p.users.GetUserById(p.db, claims.UserID.String())
	if err != nil {
		p.transition(Snapshot{Status: StatusNone})
		return
	}

	p.transition(Snapshot{Status: StatusAuthenticated, User: user, Token: stored})
}

// Login authenticates and, on success, moves the session to
// authenticated. Failures are returned as values and leave the session
// state untouched.
func (p *Provider) Login(email, password string) error {
	tokenString, user, err := p.auth.Login(p.db, email, password)
	if err != nil {
		return err
	}

	p.transition(Snapshot{Status: StatusAuthenticated, User: user, Token: tokenString})
	return nil
}

// SignUp registers a new account and signs it in on success.
func (p *Provider) SignUp(email, password, displayName string) error {
	tokenString, user, err := p.auth.Register(p.db, email, password, displayName)
	if err != nil {
		return err
	}

	p.transition(Snapshot{Status: StatusAuthenticated, User: user, Token: tokenString})
	return nil
}

// Logout clears the session. Idempotent: logging out while already signed
// out is a no-op and notifies nobody.
func (p *Provider) Logout() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current.Status != StatusAuthenticated {
		return
	}
	p.current = Snapshot{Status: StatusNone}
	p.notifyLocked(p.current)
}

// Current returns the session as of now.
func (p *Provider) Current() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Watch registers a watcher. The channel receives the current snapshot
// immediately and then every subsequent change; the returned cancel
// deregisters and closes it.
func (p *Provider) Watch() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	p.mu.Lock()
	p.watchers[ch] = struct{}{}
	ch <- p.current
	p.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.watchers, ch)
			close(ch)
		})
	}
	return ch, cancel
}

func (p *Provider) transition(next Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = next
	p.notifyLocked(next)
}

// notifyLocked delivers to every registered watcher. Sends never block,
// and channels only close under this same mutex, so a cancelled watcher
// can never receive after close.
func (p *Provider) notifyLocked(snapshot Snapshot) {
	for ch := range p.watchers {
		select {
		case ch <- snapshot:
		default:
		}
	}
}
