package liststate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/pryanikov/archiveapp/internal/domain"
)

func docList(titles ...string) []*domain.Document {
	docs := make([]*domain.Document, 0, len(titles))
	for _, title := range titles {
		docs = append(docs, &domain.Document{ID: title, Title: title})
	}
	return docs
}

// countingSearcher records every executed query.
type countingSearcher struct {
	mu      sync.Mutex
	queries []string
	docs    []*domain.Document
}

func (s *countingSearcher) search(ctx context.Context, query string) ([]*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)

	matches := make([]*domain.Document, 0)
	for _, doc := range s.docs {
		if strings.Contains(strings.ToLower(doc.Title), strings.ToLower(query)) {
			matches = append(matches, doc)
		}
	}
	return matches, nil
}

func (s *countingSearcher) executed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

// waitFor polls until the predicate holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestHolderLoad(t *testing.T) {
	h := NewHolder(func(ctx context.Context) ([]*domain.Document, error) {
		return docList("A", "B"), nil
	}, zerolog.Nop())

	require.True(t, h.Snapshot().IsLoading)

	h.Load(context.Background())

	got := h.Snapshot()
	require.False(t, got.IsLoading)
	require.Empty(t, got.Err)
	require.Len(t, got.Documents, 2)
}

func TestHolderLoadError(t *testing.T) {
	fail := true
	h := NewHolder(func(ctx context.Context) ([]*domain.Document, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return docList("A"), nil
	}, zerolog.Nop())

	h.Load(context.Background())
	got := h.Snapshot()
	require.False(t, got.IsLoading)
	require.Equal(t, "failed to load documents", got.Err)

	// A later successful reload clears the error.
	fail = false
	h.Load(context.Background())
	got = h.Snapshot()
	require.Empty(t, got.Err)
	require.Len(t, got.Documents, 1)
}

func TestSearchHolderDebounceCoalescesKeystrokes(t *testing.T) {
	searcher := &countingSearcher{docs: docList("abc", "abd")}
	h := NewSearchHolder(
		func(ctx context.Context) ([]*domain.Document, error) { return searcher.docs, nil },
		searcher.search,
		20*time.Millisecond,
		zerolog.Nop(),
	)

	// Rapid typing: only the final query survives the quiet period.
	h.SetQuery("a")
	h.SetQuery("ab")
	h.SetQuery("abc")

	require.Equal(t, "abc", h.Snapshot().SearchQuery)

	waitFor(t, func() bool { return len(searcher.executed()) > 0 })
	time.Sleep(50 * time.Millisecond)

	require.Equal(t, []string{"abc"}, searcher.executed())

	got := h.Snapshot()
	require.False(t, got.IsLoading)
	require.Len(t, got.Documents, 1)
	require.Equal(t, "abc", got.Documents[0].Title)
}

func TestSearchHolderQueryUpdatesImmediately(t *testing.T) {
	searcher := &countingSearcher{}
	h := NewSearchHolder(
		func(ctx context.Context) ([]*domain.Document, error) { return nil, nil },
		searcher.search,
		time.Hour, // never fires during the test
		zerolog.Nop(),
	)

	h.SetQuery("pending")

	require.Equal(t, "pending", h.Snapshot().SearchQuery)
	require.Empty(t, searcher.executed())
}

func TestSearchHolderStaleResultDiscarded(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	started := 0

	slowSearch := func(ctx context.Context, query string) ([]*domain.Document, error) {
		mu.Lock()
		started++
		first := started == 1
		mu.Unlock()

		if first {
			<-release
			return docList("stale"), nil
		}
		return docList("fresh"), nil
	}

	h := NewSearchHolder(
		func(ctx context.Context) ([]*domain.Document, error) { return nil, nil },
		slowSearch,
		10*time.Millisecond,
		zerolog.Nop(),
	)

	h.SetQuery("first")
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return started == 1
	})

	// Supersede while the first search is still running, then let the
	// stale search finish after the fresh one committed.
	h.SetQuery("second")
	waitFor(t, func() bool {
		got := h.Snapshot()
		return len(got.Documents) == 1 && got.Documents[0].Title == "fresh"
	})
	close(release)

	time.Sleep(50 * time.Millisecond)
	got := h.Snapshot()
	require.Len(t, got.Documents, 1)
	require.Equal(t, "fresh", got.Documents[0].Title)
}

func TestSearchHolderErrorMessage(t *testing.T) {
	h := NewSearchHolder(
		func(ctx context.Context) ([]*domain.Document, error) { return nil, nil },
		func(ctx context.Context, query string) ([]*domain.Document, error) {
			return nil, errors.New("store down")
		},
		10*time.Millisecond,
		zerolog.Nop(),
	)

	h.SetQuery("anything")

	waitFor(t, func() bool { return h.Snapshot().Err != "" })
	require.Equal(t, "search failed", h.Snapshot().Err)
}

func TestSearchHolderLoadSupersedesPendingSearch(t *testing.T) {
	searcher := &countingSearcher{}
	h := NewSearchHolder(
		func(ctx context.Context) ([]*domain.Document, error) { return docList("all"), nil },
		searcher.search,
		30*time.Millisecond,
		zerolog.Nop(),
	)

	h.SetQuery("soon")
	h.Load(context.Background())

	got := h.Snapshot()
	require.Len(t, got.Documents, 1)
	require.Equal(t, "all", got.Documents[0].Title)

	// The pending search was cancelled before its quiet period ended.
	time.Sleep(60 * time.Millisecond)
	require.Empty(t, searcher.executed())
	require.Equal(t, "all", h.Snapshot().Documents[0].Title)
}
