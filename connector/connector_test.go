package connector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ensemble-ai/ensemble/config"
	"github.com/ensemble-ai/ensemble/core"
)

// -------------------- Test fakes --------------------

type fakeSession struct {
	ops    []core.Operation
	closed atomic.Bool
}

func (s *fakeSession) ListOperations(ctx context.Context) ([]core.Operation, error) {
	return s.ops, nil
}

func (s *fakeSession) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	return "ok", nil
}

func (s *fakeSession) Close() error {
	s.closed.Store(true)
	return nil
}

type failingCloseSession struct {
	fakeSession
}

func (s *failingCloseSession) Close() error {
	s.closed.Store(true)
	return errors.New("close failed")
}

// fakeTransport dials from a per-agent script: a ready session, an error, or
// a block until the context expires.
type fakeTransport struct {
	sessions map[string]Session
	errs     map[string]error
	block    map[string]bool
	// late receives sessions produced after a blocked dial finally
	// completes, so tests can assert they were cleaned up.
	late map[string]*fakeSession
}

func (f *fakeTransport) Dial(ctx context.Context, spec config.AgentConfig) (Session, error) {
	if f.block[spec.ID] {
		<-ctx.Done()
		if s, ok := f.late[spec.ID]; ok {
			return s, nil
		}
		return nil, ctx.Err()
	}
	if err, ok := f.errs[spec.ID]; ok {
		return nil, err
	}
	return f.sessions[spec.ID], nil
}

func newTestConnector(transport Transport, timeout time.Duration) *Connector {
	return New(func(o *Options) {
		o.Transport = transport
		o.ConnectTimeout = timeout
	})
}

// -------------------- Tests --------------------

func TestConnectSuccess(t *testing.T) {
	session := &fakeSession{}
	c := newTestConnector(&fakeTransport{sessions: map[string]Session{"tracker": session}}, time.Second)

	err := c.Connect(context.Background(), config.AgentConfig{ID: "tracker"})
	require.NoError(t, err)
	assert.Equal(t, StateReady, c.StateOf("tracker"))

	got, ok := c.Session("tracker")
	require.True(t, ok)
	assert.NotNil(t, got)
}

func TestConnectFailure(t *testing.T) {
	c := newTestConnector(&fakeTransport{errs: map[string]error{"tracker": errors.New("spawn failed")}}, time.Second)

	err := c.Connect(context.Background(), config.AgentConfig{ID: "tracker"})
	require.Error(t, err)
	assert.Equal(t, StateFailed, c.StateOf("tracker"))

	_, ok := c.Session("tracker")
	assert.False(t, ok)
}

func TestConnectTimeoutClosesLateSession(t *testing.T) {
	late := &fakeSession{}
	transport := &fakeTransport{
		block: map[string]bool{"slow": true},
		late:  map[string]*fakeSession{"slow": late},
	}
	c := newTestConnector(transport, 20*time.Millisecond)

	err := c.Connect(context.Background(), config.AgentConfig{ID: "slow"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateFailed, c.StateOf("slow"))

	// The transport hands back a session after the deadline; the connector
	// must close it so nothing leaks.
	assert.Eventually(t, func() bool { return late.closed.Load() }, time.Second, 5*time.Millisecond)
}

func TestConnectAllContinuesPastFailures(t *testing.T) {
	transport := &fakeTransport{
		sessions: map[string]Session{"repo": &fakeSession{}},
		errs:     map[string]error{"tracker": errors.New("spawn failed")},
	}
	c := newTestConnector(transport, time.Second)

	// "ghost" has a nonexistent launch target and is skipped before any
	// dial; "tracker" fails to dial; "repo" succeeds.
	bin := writeExecutable(t)
	c.ConnectAll(context.Background(), []config.AgentConfig{
		{ID: "ghost", Command: filepath.Join(t.TempDir(), "missing-binary")},
		{ID: "tracker", Command: bin},
		{ID: "repo", Command: bin},
	})

	assert.Equal(t, []string{"repo"}, c.Ready())
	assert.Equal(t, StateFailed, c.StateOf("tracker"))
	assert.Equal(t, StateDisconnected, c.StateOf("ghost"))
}

func TestRegisterLocal(t *testing.T) {
	c := New()
	c.RegisterLocal("coordinator", &fakeSession{}, []string{"messaging"})

	assert.Equal(t, StateReady, c.StateOf("coordinator"))
	_, ok := c.Session("coordinator")
	assert.True(t, ok)

	conns := c.Connections()
	require.Len(t, conns, 1)
	assert.Equal(t, []string{"messaging"}, conns[0].Capabilities)
}

func TestDisconnectAll(t *testing.T) {
	good := &fakeSession{}
	bad := &failingCloseSession{}
	transport := &fakeTransport{sessions: map[string]Session{"a": good, "b": bad}}
	c := newTestConnector(transport, time.Second)

	require.NoError(t, c.Connect(context.Background(), config.AgentConfig{ID: "a"}))
	require.NoError(t, c.Connect(context.Background(), config.AgentConfig{ID: "b"}))

	c.DisconnectAll()

	// Every session was closed, even though one close failed, and the
	// registry is empty afterwards.
	assert.True(t, good.closed.Load())
	assert.True(t, bad.closed.Load())
	assert.Empty(t, c.Ready())
	assert.Empty(t, c.Connections())
	assert.Equal(t, StateDisconnected, c.StateOf("a"))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "failed", StateFailed.String())
}

func TestTransitionMonotonic(t *testing.T) {
	conn := &Connection{AgentID: "a", State: StateConnecting}
	require.NoError(t, conn.transition(StateReady))
	require.NoError(t, conn.transition(StateDisconnected))
	// Terminal states accept no further transitions.
	assert.Error(t, conn.transition(StateConnecting))
	assert.Error(t, conn.transition(StateReady))

	failed := &Connection{AgentID: "b", State: StateFailed}
	assert.Error(t, failed.transition(StateReady))
	assert.Error(t, failed.transition(StateConnecting))
}

func TestValidateLaunchTarget(t *testing.T) {
	bin := writeExecutable(t)
	assert.NoError(t, ValidateLaunchTarget(config.AgentConfig{ID: "a", Command: bin}))

	err := ValidateLaunchTarget(config.AgentConfig{ID: "a", Command: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)

	err = ValidateLaunchTarget(config.AgentConfig{ID: "a", Command: ""})
	assert.Error(t, err)

	// A script passed as first argument must exist too.
	err = ValidateLaunchTarget(config.AgentConfig{
		ID:      "a",
		Command: bin,
		Args:    []string{filepath.Join(t.TempDir(), "missing_script.py")},
	})
	assert.Error(t, err)
}

func writeExecutable(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent-bin")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
	return path
}
