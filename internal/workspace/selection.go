// Package workspace tracks which workspace the client currently operates in.
// The selection feeds the transport layer, which scopes workspace-bound
// requests with a tenant header.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const selectionFileName = "workspace"

// Selection is the persisted current-workspace choice with change
// notification. Subscribers receive the new workspace id ("" on clear).
type Selection struct {
	mu      sync.RWMutex
	path    string
	current string
	subs    map[int]func(string)
	nextSub int
}

// NewSelection loads any persisted selection from dir.
func NewSelection(dir string) *Selection {
	s := &Selection{
		path: filepath.Join(dir, selectionFileName),
		subs: make(map[int]func(string)),
	}
	if raw, err := os.ReadFile(s.path); err == nil {
		s.current = strings.TrimSpace(string(raw))
	}
	return s
}

// Current returns the selected workspace id, or "" when none is selected.
func (s *Selection) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Select persists the workspace choice and notifies subscribers.
func (s *Selection) Select(workspaceID string) error {
	if workspaceID == "" {
		return s.Clear()
	}

	s.mu.Lock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(workspaceID), 0o600); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("persist workspace selection: %w", err)
	}
	s.current = workspaceID
	subs := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(workspaceID)
	}
	return nil
}

// Clear drops the selection, e.g. on logout or workspace deletion.
func (s *Selection) Clear() error {
	s.mu.Lock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.mu.Unlock()
		return fmt.Errorf("clear workspace selection: %w", err)
	}
	s.current = ""
	subs := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range subs {
		fn("")
	}
	return nil
}

// Subscribe registers a change callback and returns its cancel function.
func (s *Selection) Subscribe(fn func(workspaceID string)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// snapshotSubs copies the subscriber list so callbacks run outside the lock.
func (s *Selection) snapshotSubs() []func(string) {
	out := make([]func(string), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}
