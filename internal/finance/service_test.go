package finance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepository struct {
	entries []Entry
	nextID  int64
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{nextID: 1}
}

func (m *memoryRepository) Insert(_ context.Context, e *Entry) (bool, error) {
	for _, existing := range m.entries {
		if existing.ExternalRef == e.ExternalRef {
			return false, nil
		}
	}
	e.ID = m.nextID
	m.nextID++
	m.entries = append(m.entries, *e)
	return true, nil
}

func (m *memoryRepository) LastOccurredAt(_ context.Context) (time.Time, error) {
	var last time.Time
	for _, e := range m.entries {
		if e.OccurredAt.After(last) {
			last = e.OccurredAt
		}
	}
	return last, nil
}

func (m *memoryRepository) Recent(_ context.Context, limit int) ([]Entry, error) {
	if len(m.entries) < limit {
		limit = len(m.entries)
	}
	return append([]Entry(nil), m.entries[:limit]...), nil
}

func (m *memoryRepository) Summary(_ context.Context) (Summary, error) {
	var s Summary
	for _, e := range m.entries {
		switch e.Kind {
		case KindIncome:
			s.IncomeCents += e.AmountCents
		case KindExpense:
			s.ExpenseCents += e.AmountCents
		}
	}
	s.BalanceCents = s.IncomeCents - s.ExpenseCents
	return s, nil
}

func (m *memoryRepository) SummaryByProject(_ context.Context, projectID int64) (Summary, error) {
	var s Summary
	for _, e := range m.entries {
		if e.ProjectID != projectID {
			continue
		}
		switch e.Kind {
		case KindIncome:
			s.IncomeCents += e.AmountCents
		case KindExpense:
			s.ExpenseCents += e.AmountCents
		}
	}
	s.BalanceCents = s.IncomeCents - s.ExpenseCents
	return s, nil
}

func externalServer(t *testing.T, entries []ExternalEntry, gotSince *string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotSince != nil {
			*gotSince = r.URL.Query().Get("since")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"entries": entries})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSyncImportsEntries(t *testing.T) {
	occurred := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	server := externalServer(t, []ExternalEntry{
		{Ref: "EXT-1", ProjectID: 1, Kind: KindIncome, AmountCents: 500_00, OccurredAt: occurred},
		{Ref: "EXT-2", ProjectID: 1, Kind: KindExpense, AmountCents: 120_00, OccurredAt: occurred.Add(time.Hour)},
	}, nil)

	repo := newMemoryRepository()
	svc := NewService(nil, repo, NewClient(server.URL))

	result, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, occurred.Add(time.Hour), result.Cursor)

	summary, err := repo.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(500_00), summary.IncomeCents)
	assert.Equal(t, int64(120_00), summary.ExpenseCents)
	assert.Equal(t, int64(380_00), summary.BalanceCents)
}

func TestSyncSkipsAlreadyImported(t *testing.T) {
	occurred := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	server := externalServer(t, []ExternalEntry{
		{Ref: "EXT-1", ProjectID: 1, Kind: KindIncome, AmountCents: 500_00, OccurredAt: occurred},
	}, nil)

	repo := newMemoryRepository()
	svc := NewService(nil, repo, NewClient(server.URL))

	_, err := svc.Sync(context.Background())
	require.NoError(t, err)

	result, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Fetched)
	assert.Equal(t, 0, result.Imported)
	require.Len(t, repo.entries, 1)
}

func TestSyncSendsCursor(t *testing.T) {
	occurred := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	var gotSince string
	server := externalServer(t, nil, &gotSince)

	repo := newMemoryRepository()
	repo.entries = append(repo.entries, Entry{ID: 1, ExternalRef: "EXT-0", Kind: KindIncome, OccurredAt: occurred})

	svc := NewService(nil, repo, NewClient(server.URL))
	_, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, occurred.Format(time.RFC3339), gotSince)
}

func TestSyncSkipsUnknownKind(t *testing.T) {
	server := externalServer(t, []ExternalEntry{
		{Ref: "EXT-1", ProjectID: 1, Kind: "transfer", AmountCents: 10_00, OccurredAt: time.Now()},
	}, nil)

	repo := newMemoryRepository()
	svc := NewService(nil, repo, NewClient(server.URL))

	result, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Fetched)
	assert.Equal(t, 0, result.Imported)
}

func TestSyncUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	repo := newMemoryRepository()
	svc := NewService(nil, repo, NewClient(server.URL))

	_, err := svc.Sync(context.Background())
	require.Error(t, err)
	assert.Empty(t, repo.entries)
}
