package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pryanikov/archiveapp/internal/domain"
	"github.com/pryanikov/archiveapp/internal/repository/memory"
	"github.com/pryanikov/archiveapp/internal/session"
)

func newSessionManager(t *testing.T) *session.Manager {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	users := memory.NewUserRepository()
	require.NoError(t, users.Create(context.Background(), &domain.User{
		ID:           "u-1",
		Email:        "editor@example.com",
		Role:         domain.RoleEditor,
		PasswordHash: string(hash),
	}))

	return session.NewManager(users, zerolog.Nop())
}

// waitForSheet polls until the coordinator reaches the wanted sheet.
// Session events arrive asynchronously, so tests cannot assert the state
// immediately after Login or Logout.
func waitForSheet(t *testing.T, c *Coordinator, want Sheet) State {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s := c.Snapshot(); s.Sheet == want {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("coordinator never reached sheet %s, last state %+v", want, c.Snapshot())
	return State{}
}

func TestStartsWithLoginWhenUnauthenticated(t *testing.T) {
	sessions := newSessionManager(t)
	c := NewCoordinator(sessions, zerolog.Nop())
	defer c.Close()

	waitForSheet(t, c, SheetLogin)
}

func TestLoginDismissesLoginWorkflow(t *testing.T) {
	sessions := newSessionManager(t)
	c := NewCoordinator(sessions, zerolog.Nop())
	defer c.Close()

	waitForSheet(t, c, SheetLogin)

	_, err := sessions.Login(context.Background(), "editor@example.com", "secret")
	require.NoError(t, err)

	waitForSheet(t, c, SheetNone)
}

func TestLogoutForcesLoginAndKeepsSelection(t *testing.T) {
	sessions := newSessionManager(t)
	c := NewCoordinator(sessions, zerolog.Nop())
	defer c.Close()

	_, err := sessions.Login(context.Background(), "editor@example.com", "secret")
	require.NoError(t, err)
	waitForSheet(t, c, SheetNone)

	c.SelectDocument("doc-1")
	require.Equal(t, State{Sheet: SheetDetails, SelectedDocumentID: "doc-1"}, c.Snapshot())

	sessions.Logout(context.Background())

	got := waitForSheet(t, c, SheetLogin)
	require.Equal(t, "doc-1", got.SelectedDocumentID)
}

func TestActionsIgnoredWhileLoggedOut(t *testing.T) {
	sessions := newSessionManager(t)
	c := NewCoordinator(sessions, zerolog.Nop())
	defer c.Close()

	waitForSheet(t, c, SheetLogin)

	c.SelectDocument("doc-1")
	c.AddDocument()
	c.EditSelected()
	c.Dismiss()

	require.Equal(t, SheetLogin, c.Snapshot().Sheet)
}

func TestSelectAddEditDismiss(t *testing.T) {
	sessions := newSessionManager(t)
	c := NewCoordinator(sessions, zerolog.Nop())
	defer c.Close()

	_, err := sessions.Login(context.Background(), "editor@example.com", "secret")
	require.NoError(t, err)
	waitForSheet(t, c, SheetNone)

	// Empty id is ignored.
	c.SelectDocument("")
	require.Equal(t, SheetNone, c.Snapshot().Sheet)

	c.SelectDocument("doc-1")
	require.Equal(t, State{Sheet: SheetDetails, SelectedDocumentID: "doc-1"}, c.Snapshot())

	c.EditSelected()
	require.Equal(t, State{Sheet: SheetEdit, SelectedDocumentID: "doc-1"}, c.Snapshot())

	c.Dismiss()
	require.Equal(t, SheetNone, c.Snapshot().Sheet)

	// Creation mode clears the selection.
	c.AddDocument()
	require.Equal(t, State{Sheet: SheetEdit}, c.Snapshot())
}

func TestEditSelectedOnlyFromDetails(t *testing.T) {
	sessions := newSessionManager(t)
	c := NewCoordinator(sessions, zerolog.Nop())
	defer c.Close()

	_, err := sessions.Login(context.Background(), "editor@example.com", "secret")
	require.NoError(t, err)
	waitForSheet(t, c, SheetNone)

	// Not in DETAILS: ignored.
	c.EditSelected()
	require.Equal(t, SheetNone, c.Snapshot().Sheet)
}

func TestSubscribeReplaysAndStreams(t *testing.T) {
	sessions := newSessionManager(t)
	c := NewCoordinator(sessions, zerolog.Nop())
	defer c.Close()

	_, err := sessions.Login(context.Background(), "editor@example.com", "secret")
	require.NoError(t, err)
	waitForSheet(t, c, SheetNone)

	ch, cancel := c.Subscribe()
	defer cancel()

	// Replay of the current state comes first.
	select {
	case got := <-ch:
		require.Equal(t, SheetNone, got.Sheet)
	case <-time.After(2 * time.Second):
		t.Fatal("no replay from Subscribe")
	}

	c.SelectDocument("doc-9")

	select {
	case got := <-ch:
		require.Equal(t, State{Sheet: SheetDetails, SelectedDocumentID: "doc-9"}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no state update delivered")
	}
}
