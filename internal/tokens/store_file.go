package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/omprakashsrv/ampairs-app-sub000/internal/sentinel"
)

const tokenFileName = "tokens.json"

// FileStore persists the token pair as a JSON file in the client state
// directory, the closest analog to browser cookie storage: it survives
// restarts and is scoped to this machine user.
type FileStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewFileStore creates a file-backed store rooted at dir. The directory is
// created on first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, tokenFileName), now: time.Now}
}

func (s *FileStore) Get(_ context.Context, kind Kind) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pair, err := s.read()
	if err != nil {
		return "", err
	}
	return pick(pair, kind, s.now())
}

func (s *FileStore) Set(_ context.Context, pair Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	raw, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("encode token pair: %w", err)
	}

	// Write-then-rename so a crash mid-write never leaves a torn token file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

func (s *FileStore) read() (Pair, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Pair{}, fmt.Errorf("token file: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return Pair{}, fmt.Errorf("read token file: %w", err)
	}
	var pair Pair
	if err := json.Unmarshal(raw, &pair); err != nil {
		// A corrupt file is treated as absent; the next Set overwrites it.
		return Pair{}, fmt.Errorf("corrupt token file: %w", sentinel.ErrNotFound)
	}
	return pair, nil
}

// pick extracts one token from a pair, enforcing the stored expiry.
func pick(pair Pair, kind Kind, now time.Time) (string, error) {
	var tok string
	var expiresAt time.Time
	switch kind {
	case KindAccess:
		tok, expiresAt = pair.AccessToken, pair.AccessExpiresAt
	case KindRefresh:
		tok, expiresAt = pair.RefreshToken, pair.RefreshExpiresAt
	default:
		return "", fmt.Errorf("unknown token kind %q: %w", kind, sentinel.ErrInvalidInput)
	}
	if tok == "" {
		return "", fmt.Errorf("%s token: %w", kind, sentinel.ErrNotFound)
	}
	if !expiresAt.IsZero() && !expiresAt.After(now) {
		return "", fmt.Errorf("%s token: %w", kind, sentinel.ErrExpired)
	}
	return tok, nil
}
