// Package authstate owns the session → profile → role resolution state.
//
// The provider keeps a per-identity cache of profile records, feeds the RBAC
// middleware with roles, and stays current by subscribing to auth change
// events on Redis. All writes to the cached state originate here; consumers
// only ever see read-only derived views.
package authstate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vivenda-app/vivenda/internal/profiles"
	"github.com/vivenda-app/vivenda/internal/rbac"
	"github.com/vivenda-app/vivenda/internal/shared"
)

// State describes where an identity sits in the auth lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateAuthenticated
	StateUnauthenticated
)

// String implements fmt.Stringer for logging.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "uninitialized"
	}
}

const eventFetchTimeout = 5 * time.Second

// ProfileFetcher loads the profile record for a user account.
type ProfileFetcher interface {
	GetByUserID(ctx context.Context, userID int64) (*profiles.Profile, error)
}

// Provider resolves and caches auth state per identity.
type Provider struct {
	client  *redis.Client
	fetcher ProfileFetcher
	logger  *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool

	pubsub *redis.PubSub
	done   chan struct{}
}

// Each profile fetch is issued a sequence number; a result that resolves with
// a stale sequence is discarded so an out-of-order response can never
// overwrite newer state.
type entry struct {
	state   State
	profile *profiles.Profile
	issued  uint64
}

// NewProvider constructs a Provider. Call Start to begin consuming events.
func NewProvider(client *redis.Client, fetcher ProfileFetcher, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		client:  client,
		fetcher: fetcher,
		logger:  logger,
		entries: make(map[string]*entry),
		done:    make(chan struct{}),
	}
}

// Start subscribes to the auth event channel and dispatches events serially
// until Close is called.
func (p *Provider) Start(ctx context.Context) error {
	p.pubsub = p.client.Subscribe(ctx, EventChannel)
	if _, err := p.pubsub.Receive(ctx); err != nil {
		close(p.done)
		return err
	}
	go func() {
		defer close(p.done)
		for msg := range p.pubsub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				p.logger.Warn("authstate: bad event payload", slog.Any("error", err))
				continue
			}
			p.handleEvent(ev)
		}
	}()
	return nil
}

// Close unsubscribes from the event channel and waits for the dispatch loop
// to drain. No state update occurs after Close returns.
func (p *Provider) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	if p.pubsub == nil {
		return nil
	}
	err := p.pubsub.Close()
	<-p.done
	return err
}

// State reports the lifecycle state for an identity.
func (p *Provider) State(userID string) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[userID]
	if !ok {
		return StateUninitialized
	}
	return e.state
}

// Profile returns the cached profile for an identity, fetching on first use.
// A missing profile is not an error; it resolves to (nil, nil).
func (p *Provider) Profile(ctx context.Context, userID string) (*profiles.Profile, error) {
	p.mu.Lock()
	if e, ok := p.entries[userID]; ok && e.state == StateAuthenticated {
		prof := e.profile
		p.mu.Unlock()
		return prof, nil
	}
	p.mu.Unlock()
	return p.fetch(ctx, userID)
}

// RoleForUser implements rbac.RoleSource. Absence of a profile is a normal
// value, not a fault: it resolves to no role.
func (p *Provider) RoleForUser(ctx context.Context, userID string) (rbac.Role, error) {
	prof, err := p.Profile(ctx, userID)
	if err != nil {
		return rbac.RoleNone, err
	}
	if prof == nil {
		return rbac.RoleNone, nil
	}
	return prof.Role, nil
}

// Checker derives a read-only capability view for an identity.
func (p *Provider) Checker(ctx context.Context, userID string) rbac.Checker {
	if userID == "" {
		return rbac.NewChecker(rbac.RoleNone, false)
	}
	role, err := p.RoleForUser(ctx, userID)
	if err != nil {
		p.logger.Error("authstate: derive checker", slog.String("user_id", userID), slog.Any("error", err))
		return rbac.NewChecker(rbac.RoleNone, false)
	}
	return rbac.NewChecker(role, p.State(userID) == StateLoading)
}

// RefreshProfile re-fetches the profile for an identity the provider already
// tracks. No-op for unknown identities.
func (p *Provider) RefreshProfile(ctx context.Context, userID string) {
	p.mu.Lock()
	_, known := p.entries[userID]
	p.mu.Unlock()
	if !known {
		return
	}
	if _, err := p.fetch(ctx, userID); err != nil {
		p.logger.Warn("authstate: refresh profile", slog.String("user_id", userID), slog.Any("error", err))
	}
}

// Forget drops the cached state for an identity.
func (p *Provider) Forget(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.entries[userID]; ok {
		e.issued++ // invalidate in-flight fetches
		e.state = StateUnauthenticated
		e.profile = nil
	}
}

func (p *Provider) fetch(ctx context.Context, userID string) (*profiles.Profile, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errors.New("authstate: provider closed")
	}
	e, ok := p.entries[userID]
	if !ok {
		e = &entry{state: StateLoading}
		p.entries[userID] = e
	}
	e.issued++
	seq := e.issued
	p.mu.Unlock()

	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		p.apply(e, seq, StateUnauthenticated, nil)
		return nil, nil
	}

	prof, err := p.fetcher.GetByUserID(ctx, id)
	switch {
	case err == nil:
		p.apply(e, seq, StateAuthenticated, prof)
		return p.current(e), nil
	case errors.Is(err, shared.ErrNotFound):
		p.apply(e, seq, StateUnauthenticated, nil)
		return nil, nil
	default:
		// Transient store failure: fail safe, grant nothing.
		p.apply(e, seq, StateUnauthenticated, nil)
		return nil, err
	}
}

// apply installs a fetch result unless a newer fetch has been issued or the
// provider was closed in the meantime.
func (p *Provider) apply(e *entry, seq uint64, state State, prof *profiles.Profile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || seq != e.issued {
		return
	}
	e.state = state
	e.profile = prof
}

func (p *Provider) current(e *entry) *profiles.Profile {
	p.mu.Lock()
	defer p.mu.Unlock()
	return e.profile
}

// handleEvent applies a single auth change event. Events arrive serially from
// the pub/sub dispatch loop.
func (p *Provider) handleEvent(ev Event) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), eventFetchTimeout)
	defer cancel()

	switch ev.Kind {
	case KindSignedIn:
		if _, err := p.fetch(ctx, ev.UserID); err != nil {
			p.logger.Warn("authstate: signed-in fetch", slog.String("user_id", ev.UserID), slog.Any("error", err))
		}
	case KindSignedOut:
		p.Forget(ev.UserID)
	case KindUserUpdated:
		p.RefreshProfile(ctx, ev.UserID)
	case KindTokenRefreshed, KindPasswordRecovery:
		// Session-only concerns; no profile state changes.
	default:
		p.logger.Warn("authstate: unknown event kind", slog.String("kind", string(ev.Kind)))
	}
}
