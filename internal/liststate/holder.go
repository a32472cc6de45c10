// Package liststate owns the load/error/result state behind the archive's
// document lists. Each list view gets its own holder: the searchable
// "all documents" list additionally debounces query input and cancels
// superseded search tasks, so only the query that survives the quiet
// period hits the store.
package liststate

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pryanikov/archiveapp/internal/domain"
)

// DefaultDebounce is the quiet period a search query must survive before
// the search executes.
const DefaultDebounce = 300 * time.Millisecond

// Loader loads the documents behind a list.
type Loader func(ctx context.Context) ([]*domain.Document, error)

// Searcher runs a search query.
type Searcher func(ctx context.Context, query string) ([]*domain.Document, error)

// State is a snapshot of a list's UI state. Err carries a user-facing
// message; the underlying error is logged, not exposed.
type State struct {
	IsLoading   bool               `json:"is_loading"`
	Documents   []*domain.Document `json:"documents"`
	Err         string             `json:"error,omitempty"`
	SearchQuery string             `json:"search_query,omitempty"`
}

// Holder owns the state of a plain (non-searchable) document list, such
// as "my documents".
type Holder struct {
	load   Loader
	logger zerolog.Logger

	mu    sync.Mutex
	state State
}

// NewHolder creates a holder for the given loader.
func NewHolder(load Loader, logger zerolog.Logger) *Holder {
	return &Holder{
		load:   load,
		logger: logger.With().Str("component", "list_state").Logger(),
		state:  State{IsLoading: true},
	}
}

// Load loads or reloads the list. On success the result replaces the
// documents and clears the error; on failure the error message replaces
// the previous one and loading stops.
func (h *Holder) Load(ctx context.Context) {
	h.mu.Lock()
	h.state.IsLoading = true
	h.mu.Unlock()

	docs, err := h.load(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.IsLoading = false
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load document list")
		h.state.Err = "failed to load documents"
		return
	}
	h.state.Documents = docs
	h.state.Err = ""
}

// Snapshot returns the current list state.
func (h *Holder) Snapshot() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// SearchHolder owns the state of the searchable "all documents" list.
// Every query change immediately updates SearchQuery, cancels any
// pending or in-flight search, and schedules a new one after the quiet
// period. A superseded task never commits its result.
type SearchHolder struct {
	load     Loader
	search   Searcher
	debounce time.Duration
	logger   zerolog.Logger

	mu     sync.Mutex
	state  State
	gen    uint64
	cancel context.CancelFunc
}

// NewSearchHolder creates a searchable holder. A non-positive debounce
// falls back to DefaultDebounce.
func NewSearchHolder(load Loader, search Searcher, debounce time.Duration, logger zerolog.Logger) *SearchHolder {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &SearchHolder{
		load:     load,
		search:   search,
		debounce: debounce,
		logger:   logger.With().Str("component", "search_state").Logger(),
		state:    State{IsLoading: true},
	}
}

// Load loads or reloads the full list, bypassing the search path. Any
// pending search is superseded.
func (h *SearchHolder) Load(ctx context.Context) {
	h.mu.Lock()
	h.supersedeLocked()
	h.state.IsLoading = true
	h.mu.Unlock()

	docs, err := h.load(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.IsLoading = false
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load document list")
		h.state.Err = "failed to load documents"
		return
	}
	h.state.Documents = docs
	h.state.Err = ""
}

// SetQuery records the new query and schedules a debounced search. The
// previous task, pending or already running, is cancelled; its result is
// discarded even if it completes anyway.
func (h *SearchHolder) SetQuery(query string) {
	h.mu.Lock()
	h.state.SearchQuery = query
	gen := h.supersedeLocked()
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.mu.Unlock()

	go h.runSearch(ctx, gen, query)
}

// supersedeLocked bumps the task generation and cancels the previous
// task. Returns the new generation. Caller must hold h.mu.
func (h *SearchHolder) supersedeLocked() uint64 {
	h.gen++
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	return h.gen
}

// runSearch waits out the quiet period, then executes the search and
// commits the result unless the task was superseded in the meantime.
func (h *SearchHolder) runSearch(ctx context.Context, gen uint64, query string) {
	timer := time.NewTimer(h.debounce)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	h.mu.Lock()
	if gen != h.gen {
		h.mu.Unlock()
		return
	}
	h.state.IsLoading = true
	h.mu.Unlock()

	docs, err := h.search(ctx, query)

	h.mu.Lock()
	defer h.mu.Unlock()
	// Stale-result suppression: a cancelled task must not touch state,
	// even if the search itself could not be interrupted.
	if gen != h.gen || ctx.Err() != nil {
		return
	}
	h.state.IsLoading = false
	if err != nil {
		h.logger.Error().Err(err).Str("query", query).Msg("search failed")
		h.state.Err = "search failed"
		return
	}
	h.state.Documents = docs
	h.state.Err = ""
}

// Snapshot returns the current list state.
func (h *SearchHolder) Snapshot() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}
