// Package workflow tracks which modal workflow of the archive UI is
// active: none, the login dialog, the document detail view, or the
// editor. The coordinator is a small state machine driven by two inputs,
// session-stream events and explicit user actions, with all transitions
// centralized so the forced-login invariant cannot be bypassed.
package workflow

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/pryanikov/archiveapp/internal/domain"
	"github.com/pryanikov/archiveapp/internal/session"
)

// Sheet identifies the active modal workflow.
type Sheet string

const (
	// SheetNone means no modal workflow is open.
	SheetNone Sheet = "NONE"

	// SheetLogin is the login workflow. Forced open whenever the
	// session is absent.
	SheetLogin Sheet = "LOGIN"

	// SheetDetails shows a selected document.
	SheetDetails Sheet = "DETAILS"

	// SheetEdit is the create/edit workflow. An empty selected
	// document id means creation.
	SheetEdit Sheet = "EDIT"
)

// State is the observable value of the coordinator.
type State struct {
	Sheet              Sheet  `json:"sheet"`
	SelectedDocumentID string `json:"selected_document_id,omitempty"`
}

// subscriber buffers state updates. State observation is conflated: when
// a slow consumer falls behind, the oldest pending value is dropped, so
// the consumer always converges on the latest state.
const subscriberBuffer = 16

// Coordinator is the workflow state machine. It subscribes to the
// session stream on construction and must be Closed when done.
type Coordinator struct {
	logger zerolog.Logger

	mu         sync.Mutex
	state      State
	hasSession bool
	subs       map[chan State]struct{}

	sessionSub *session.Subscription
	closeOnce  sync.Once
	done       chan struct{}
}

// NewCoordinator creates a Coordinator and starts tracking the session
// stream. The initial state is NONE; the replay-one semantics of the
// session stream deliver the current session immediately, so an
// unauthenticated start transitions to LOGIN on the first event.
func NewCoordinator(sessions *session.Manager, logger zerolog.Logger) *Coordinator {
	c := &Coordinator{
		logger:     logger.With().Str("component", "workflow").Logger(),
		state:      State{Sheet: SheetNone},
		subs:       make(map[chan State]struct{}),
		sessionSub: sessions.Subscribe(),
		done:       make(chan struct{}),
	}
	go c.run()
	return c
}

// run consumes session events until Close.
func (c *Coordinator) run() {
	for {
		select {
		case user, ok := <-c.sessionSub.C():
			if !ok {
				return
			}
			c.onSessionEvent(user)
		case <-c.done:
			return
		}
	}
}

// Close stops session tracking and closes all observer channels.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.sessionSub.Cancel()

		c.mu.Lock()
		defer c.mu.Unlock()
		for ch := range c.subs {
			close(ch)
		}
		c.subs = make(map[chan State]struct{})
	})
}

// Snapshot returns the current state.
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers an observer. The current state is delivered first,
// followed by later states. The returned cancel func must be called when
// the observer is done.
func (c *Coordinator) Subscribe() (<-chan State, func()) {
	ch := make(chan State, subscriberBuffer)

	c.mu.Lock()
	ch <- c.state
	c.subs[ch] = struct{}{}
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.subs[ch]; ok {
			delete(c.subs, ch)
			close(ch)
		}
	}
	return ch, cancel
}

// setState commits a new state and notifies observers. Conflates when an
// observer's buffer is full. Caller must hold c.mu.
func (c *Coordinator) setState(next State) {
	if next == c.state {
		return
	}
	c.state = next

	for ch := range c.subs {
		select {
		case ch <- next:
		default:
			// Buffer full: drop the oldest value, keep the latest.
			select {
			case <-ch:
			default:
			}
			ch <- next
		}
	}
}

// onSessionEvent applies the session-driven transitions: a lost session
// forces the login workflow open, and a gained session dismisses it.
func (c *Coordinator) onSessionEvent(user *domain.User) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hasSession = user != nil

	switch {
	case user == nil && c.state.Sheet != SheetLogin:
		c.logger.Debug().Str("from", string(c.state.Sheet)).Msg("session lost, forcing login workflow")
		c.setState(State{Sheet: SheetLogin, SelectedDocumentID: c.state.SelectedDocumentID})
	case user != nil && c.state.Sheet == SheetLogin:
		c.setState(State{Sheet: SheetNone, SelectedDocumentID: c.state.SelectedDocumentID})
	}
}

// SelectDocument opens the detail workflow for the given document.
// Ignored while the login workflow is active or the id is empty.
func (c *Coordinator) SelectDocument(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasSession || c.state.Sheet == SheetLogin || id == "" {
		return
	}
	c.setState(State{Sheet: SheetDetails, SelectedDocumentID: id})
}

// AddDocument opens the editor in creation mode (no selected document).
// Ignored while the login workflow is active.
func (c *Coordinator) AddDocument() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasSession || c.state.Sheet == SheetLogin {
		return
	}
	c.setState(State{Sheet: SheetEdit})
}

// EditSelected opens the editor for the currently selected document.
// Only legal from the detail workflow; ignored otherwise.
func (c *Coordinator) EditSelected() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasSession || c.state.Sheet != SheetDetails || c.state.SelectedDocumentID == "" {
		return
	}
	c.setState(State{Sheet: SheetEdit, SelectedDocumentID: c.state.SelectedDocumentID})
}

// Dismiss closes the active workflow. A no-op while logged out, since
// the forced-login rule would immediately re-open it.
func (c *Coordinator) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasSession {
		return
	}
	c.setState(State{Sheet: SheetNone, SelectedDocumentID: c.state.SelectedDocumentID})
}
