package authstate_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vivenda-app/vivenda/internal/authstate"
	"github.com/vivenda-app/vivenda/internal/profiles"
	"github.com/vivenda-app/vivenda/internal/rbac"
	"github.com/vivenda-app/vivenda/internal/shared"
)

type fetcherFunc func(ctx context.Context, userID int64) (*profiles.Profile, error)

func (f fetcherFunc) GetByUserID(ctx context.Context, userID int64) (*profiles.Profile, error) {
	return f(ctx, userID)
}

func newTestProvider(t *testing.T, fetcher authstate.ProfileFetcher) (*authstate.Provider, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	provider := authstate.NewProvider(client, fetcher, nil)
	require.NoError(t, provider.Start(context.Background()))
	t.Cleanup(func() { _ = provider.Close() })
	return provider, client
}

func editorProfile(userID int64) *profiles.Profile {
	return &profiles.Profile{ID: userID, UserID: userID, Name: "Edna", Role: rbac.RoleEditor}
}

func TestRoleForUserFetchesAndCaches(t *testing.T) {
	var calls int
	var mu sync.Mutex
	provider, _ := newTestProvider(t, fetcherFunc(func(ctx context.Context, userID int64) (*profiles.Profile, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return editorProfile(userID), nil
	}))

	role, err := provider.RoleForUser(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleEditor, role)
	assert.Equal(t, authstate.StateAuthenticated, provider.State("7"))

	// Second resolution hits the cache.
	_, err = provider.RoleForUser(context.Background(), "7")
	require.NoError(t, err)
	mu.Lock()
	assert.Equal(t, 1, calls)
	mu.Unlock()
}

func TestMissingProfileMeansNoRole(t *testing.T) {
	provider, _ := newTestProvider(t, fetcherFunc(func(ctx context.Context, userID int64) (*profiles.Profile, error) {
		return nil, shared.ErrNotFound
	}))

	role, err := provider.RoleForUser(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleNone, role)
	assert.Equal(t, authstate.StateUnauthenticated, provider.State("3"))
}

func TestSignedOutEventClearsState(t *testing.T) {
	provider, client := newTestProvider(t, fetcherFunc(func(ctx context.Context, userID int64) (*profiles.Profile, error) {
		return editorProfile(userID), nil
	}))

	_, err := provider.RoleForUser(context.Background(), "7")
	require.NoError(t, err)

	require.NoError(t, authstate.PublishEvent(context.Background(), client, authstate.Event{
		Kind: authstate.KindSignedOut, UserID: "7",
	}))

	require.Eventually(t, func() bool {
		return provider.State("7") == authstate.StateUnauthenticated
	}, time.Second, 10*time.Millisecond)
}

func TestUserUpdatedEventRefreshesProfile(t *testing.T) {
	var mu sync.Mutex
	role := rbac.RoleUser
	provider, client := newTestProvider(t, fetcherFunc(func(ctx context.Context, userID int64) (*profiles.Profile, error) {
		mu.Lock()
		defer mu.Unlock()
		return &profiles.Profile{UserID: userID, Role: role}, nil
	}))

	got, err := provider.RoleForUser(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleUser, got)

	mu.Lock()
	role = rbac.RoleDirector
	mu.Unlock()

	require.NoError(t, authstate.PublishEvent(context.Background(), client, authstate.Event{
		Kind: authstate.KindUserUpdated, UserID: "5",
	}))

	require.Eventually(t, func() bool {
		r, err := provider.RoleForUser(context.Background(), "5")
		return err == nil && r == rbac.RoleDirector
	}, time.Second, 10*time.Millisecond)
}

func TestTokenRefreshedEventDoesNotRefetch(t *testing.T) {
	var calls int
	var mu sync.Mutex
	provider, client := newTestProvider(t, fetcherFunc(func(ctx context.Context, userID int64) (*profiles.Profile, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return editorProfile(userID), nil
	}))

	_, err := provider.RoleForUser(context.Background(), "9")
	require.NoError(t, err)

	require.NoError(t, authstate.PublishEvent(context.Background(), client, authstate.Event{
		Kind: authstate.KindTokenRefreshed, UserID: "9",
	}))

	// Give the dispatch loop a moment; the fetch count must stay at one.
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, calls)
	mu.Unlock()
}

func TestStaleFetchResultIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 2)
	var mu sync.Mutex
	call := 0
	provider, _ := newTestProvider(t, fetcherFunc(func(ctx context.Context, userID int64) (*profiles.Profile, error) {
		mu.Lock()
		call++
		n := call
		mu.Unlock()
		started <- struct{}{}
		if n == 1 {
			// First fetch resolves last, carrying a stale role.
			<-release
			return &profiles.Profile{UserID: userID, Role: rbac.RoleUser}, nil
		}
		return &profiles.Profile{UserID: userID, Role: rbac.RoleDirector}, nil
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = provider.Profile(context.Background(), "4")
	}()
	<-started

	// Newer fetch issued while the first is still in flight.
	provider.RefreshProfile(context.Background(), "4")
	<-started
	close(release)
	wg.Wait()

	role, err := provider.RoleForUser(context.Background(), "4")
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleDirector, role, "stale first fetch must not overwrite the newer result")
}

func TestNoStateUpdateAfterClose(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	provider := authstate.NewProvider(client, fetcherFunc(func(ctx context.Context, userID int64) (*profiles.Profile, error) {
		return editorProfile(userID), nil
	}), nil)
	require.NoError(t, provider.Start(context.Background()))
	require.NoError(t, provider.Close())

	require.NoError(t, authstate.PublishEvent(context.Background(), client, authstate.Event{
		Kind: authstate.KindSignedIn, UserID: "11",
	}))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, authstate.StateUninitialized, provider.State("11"))

	_, err := provider.Profile(context.Background(), "11")
	assert.Error(t, err)
}
