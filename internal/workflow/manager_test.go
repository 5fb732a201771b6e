package workflow

import (
	"context"
	"testing"
	"time"
)

func TestSessionAnswersAfterCreateReturns(t *testing.T) {
	deps, _, _ := defaultDeps()
	m := NewManager(context.Background(), deps, quietLogger())
	t.Cleanup(m.Shutdown)

	// The caller that created the session is long gone; the loop must
	// keep serving commands regardless.
	wf := m.Create()
	time.Sleep(200 * time.Millisecond)

	snap := snapshot(t, wf)
	if snap.WorkflowID != wf.ID() {
		t.Fatalf("snapshot id: got %q, want %q", snap.WorkflowID, wf.ID())
	}
	if m.Get(wf.ID()) != wf {
		t.Fatalf("session not registered under its id")
	}
}

func TestCloseRemovesSession(t *testing.T) {
	deps, _, _ := defaultDeps()
	m := NewManager(context.Background(), deps, quietLogger())
	t.Cleanup(m.Shutdown)

	wf := m.Create()
	if !m.Close(wf.ID()) {
		t.Fatalf("Close reported an unknown session")
	}
	if m.Get(wf.ID()) != nil {
		t.Fatalf("closed session still registered")
	}
	if m.Close(wf.ID()) {
		t.Fatalf("second Close should report unknown")
	}
}
