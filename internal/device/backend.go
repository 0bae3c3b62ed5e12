package device

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/omprakashsrv/ampairs-app-sub000/internal/sentinel"
)

// Backend is one replication target for the device identifier. Backends are
// iterated most-persistent-first for reads and all written on resolution.
// Every method is best-effort from the provider's point of view: a failing
// backend is skipped, never fatal.
type Backend interface {
	Name() string
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, value string) error
	Clear(ctx context.Context) error
}

const deviceIDFileName = "device_id"

// FileBackend stores the id as a plain file in the client state directory.
type FileBackend struct {
	path string
}

func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{path: filepath.Join(dir, deviceIDFileName)}
}

func (b *FileBackend) Name() string { return "file" }

func (b *FileBackend) Read(_ context.Context) (string, error) {
	raw, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("device id file: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read device id: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func (b *FileBackend) Write(_ context.Context, value string) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(b.path, []byte(value), 0o600); err != nil {
		return fmt.Errorf("write device id: %w", err)
	}
	return nil
}

func (b *FileBackend) Clear(_ context.Context) error {
	if err := os.Remove(b.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove device id: %w", err)
	}
	return nil
}

// MemoryBackend is the process-lifetime tier, the last resort when every
// persistent backend is unavailable.
type MemoryBackend struct {
	mu    sync.RWMutex
	value string
}

func NewMemoryBackend() *MemoryBackend { return &MemoryBackend{} }

func (b *MemoryBackend) Name() string { return "memory" }

func (b *MemoryBackend) Read(_ context.Context) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.value == "" {
		return "", fmt.Errorf("device id: %w", sentinel.ErrNotFound)
	}
	return b.value, nil
}

func (b *MemoryBackend) Write(_ context.Context, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.value = value
	return nil
}

func (b *MemoryBackend) Clear(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.value = ""
	return nil
}

const redisDeviceIDKey = "ampairs:device:id"

// RedisBackend replicates the id to the shared cache tier when configured.
type RedisBackend struct {
	client redis.Cmdable
}

func NewRedisBackend(client redis.Cmdable) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) Name() string { return "redis" }

func (b *RedisBackend) Read(ctx context.Context) (string, error) {
	val, err := b.client.Get(ctx, redisDeviceIDKey).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("device id: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("redis read device id: %w", sentinel.ErrUnavailable)
	}
	return val, nil
}

func (b *RedisBackend) Write(ctx context.Context, value string) error {
	// No TTL: a device id never expires.
	if err := b.client.Set(ctx, redisDeviceIDKey, value, 0).Err(); err != nil {
		return fmt.Errorf("redis write device id: %w", err)
	}
	return nil
}

func (b *RedisBackend) Clear(ctx context.Context) error {
	if err := b.client.Del(ctx, redisDeviceIDKey).Err(); err != nil {
		return fmt.Errorf("redis clear device id: %w", err)
	}
	return nil
}
