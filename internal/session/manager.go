// Package session owns the single current-session value of the archive:
// the authenticated user, or nil when nobody is logged in. It broadcasts
// every transition to all subscribers and replays the latest value to
// new subscribers, so a late subscriber immediately learns the current
// state instead of waiting for the next change.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/pryanikov/archiveapp/internal/domain"
	"github.com/pryanikov/archiveapp/internal/repository"
)

// Manager holds the current session and fans out session changes.
// Mutations happen only through Login and Logout; ReAuthenticate verifies
// credentials without touching the session.
type Manager struct {
	users  repository.UserRepository
	logger zerolog.Logger

	mu      sync.Mutex
	current *domain.User
	subs    map[*Subscription]struct{}
}

// NewManager creates a Manager that starts unauthenticated.
func NewManager(users repository.UserRepository, logger zerolog.Logger) *Manager {
	return &Manager{
		users:  users,
		logger: logger.With().Str("component", "session").Logger(),
		subs:   make(map[*Subscription]struct{}),
	}
}

// Subscription is one subscriber's ordered view of the session stream.
// Events are queued per subscriber, so a slow consumer never blocks the
// manager or other subscribers, and each subscriber sees every event in
// the order it was produced.
type Subscription struct {
	out  chan *domain.User
	done chan struct{}

	mu     sync.Mutex
	queue  []*domain.User
	wake   chan struct{}
	closed bool
}

func newSubscription(replay *domain.User) *Subscription {
	s := &Subscription{
		out:   make(chan *domain.User),
		done:  make(chan struct{}),
		wake:  make(chan struct{}, 1),
		queue: []*domain.User{replay},
	}
	go s.drain()
	return s
}

// C returns the channel on which session values are delivered. A nil
// value means no user is logged in. The channel is closed after Cancel.
func (s *Subscription) C() <-chan *domain.User {
	return s.out
}

// Cancel stops delivery and releases the subscription's resources.
// Safe to call more than once.
func (s *Subscription) Cancel() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// publish appends an event to the subscriber's queue.
func (s *Subscription) publish(u *domain.User) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, u)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// drain moves queued events to the output channel in order.
func (s *Subscription) drain() {
	defer close(s.out)
	for {
		s.mu.Lock()
		var next *domain.User
		have := false
		if len(s.queue) > 0 {
			next = s.queue[0]
			s.queue = s.queue[1:]
			have = true
		}
		closed := s.closed
		s.mu.Unlock()

		if !have {
			if closed {
				return
			}
			select {
			case <-s.wake:
			case <-s.done:
			}
			continue
		}

		select {
		case s.out <- next:
		case <-s.done:
			return
		}
	}
}

// Subscribe registers a new subscriber. The latest session value is
// delivered first (replay-one), followed by every later transition in
// order. The caller must Cancel the subscription when done.
func (m *Manager) Subscribe() *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub := newSubscription(m.current)
	m.subs[sub] = struct{}{}
	return sub
}

// Unsubscribe cancels the subscription and removes it from the manager.
func (m *Manager) Unsubscribe(sub *Subscription) {
	m.mu.Lock()
	delete(m.subs, sub)
	m.mu.Unlock()
	sub.Cancel()
}

// Current returns the current session value without subscribing.
func (m *Manager) Current() *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// setCurrent swaps the session value and broadcasts it to every
// subscriber while holding the lock, so all subscribers observe
// transitions in the same order.
func (m *Manager) setCurrent(u *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = u
	for sub := range m.subs {
		sub.publish(u)
	}
}

// Login verifies the credentials against the identity store and, on
// success, installs the user as the current session and broadcasts the
// change. Unknown email and wrong password both return
// domain.ErrInvalidCredentials.
func (m *Manager) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := m.verify(ctx, email, password)
	if err != nil {
		return nil, err
	}

	m.setCurrent(user)

	m.logger.Info().
		Str("user_id", user.ID).
		Str("role", string(user.Role)).
		Msg("user logged in")

	return user, nil
}

// Logout clears the session and broadcasts the cleared value. It is
// idempotent: logging out without a session still broadcasts nil.
func (m *Manager) Logout(ctx context.Context) {
	m.setCurrent(nil)
	m.logger.Info().Msg("session cleared")
}

// ReAuthenticate verifies the credentials without changing the session.
// Used to re-confirm the current user's password before destructive
// operations.
func (m *Manager) ReAuthenticate(ctx context.Context, email, password string) error {
	_, err := m.verify(ctx, email, password)
	return err
}

// verify looks up the user by email and compares the password hash.
func (m *Manager) verify(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := m.users.GetByEmail(ctx, email)
	if err != nil {
		// Log but don't expose whether the email exists.
		m.logger.Debug().Str("email", email).Msg("unknown email during authentication")
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		m.logger.Debug().Str("user_id", user.ID).Msg("wrong password during authentication")
		return nil, domain.ErrInvalidCredentials
	}

	return user, nil
}
