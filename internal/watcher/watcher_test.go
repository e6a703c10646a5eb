package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repoviz/internal/source"
)

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		typ  EventType
		want string
	}{
		{EventCreate, "create"},
		{EventModify, "modify"},
		{EventDelete, "delete"},
		{EventRename, "rename"},
		{EventType(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.typ.String())
	}
}

func TestBatchDebouncer_Coalesces(t *testing.T) {
	var (
		mu       sync.Mutex
		received []Event
	)
	b := NewBatchDebouncer(30*time.Millisecond, func(events []Event) {
		mu.Lock()
		received = events
		mu.Unlock()
	})

	b.Add(Event{Type: EventCreate, Path: "a.js"})
	b.Add(Event{Type: EventModify, Path: "b.js"})
	b.Add(Event{Type: EventModify, Path: "a.js"})
	assert.Equal(t, 2, b.Pending())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 2
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "a.js", received[0].Path)
	assert.Equal(t, EventModify, received[0].Type)
	assert.Equal(t, "b.js", received[1].Path)
	assert.Zero(t, b.Pending())
}

func TestBatchDebouncer_CancelAndFlush(t *testing.T) {
	calls := 0
	var got []Event
	b := NewBatchDebouncer(time.Hour, func(events []Event) {
		calls++
		got = events
	})

	b.Add(Event{Path: "x"})
	b.Cancel()
	b.Flush()
	assert.Zero(t, calls, "nothing pending after cancel")

	b.Add(Event{Path: "y"})
	b.Flush()
	assert.Equal(t, 1, calls)
	require.Len(t, got, 1)
	assert.Equal(t, "y", got[0].Path)
}

func TestWatcher_Run(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))

	filter, err := source.NewFilter([]string{"**/node_modules/**", "node_modules"}, 0, 0)
	require.NoError(t, err)
	w, err := New(root, filter, 20*time.Millisecond, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	batches := make(chan []Event, 4)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func(e []Event) { batches <- e }) }()

	// Give the loop a moment to start before generating events.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "dep.js"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "app.js"), []byte("x"), 0o644))

	select {
	case events := <-batches:
		paths := make([]string, 0, len(events))
		for _, e := range events {
			paths = append(paths, e.Path)
		}
		assert.Contains(t, paths, "src/app.js")
		assert.NotContains(t, paths, "node_modules/dep.js")
	case <-time.After(3 * time.Second):
		t.Fatal("no change batch delivered")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNew_MissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), nil, 0, nil)
	assert.Error(t, err)
}
