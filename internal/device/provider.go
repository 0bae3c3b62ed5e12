package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/omprakashsrv/ampairs-app-sub000/internal/sentinel"
)

const (
	idPrefix = "amp_"

	// mappingMaxAge bounds how long a stored fingerprint→id mapping may be
	// used to reconstruct an id after every backend lost it.
	mappingMaxAge = 30 * 24 * time.Hour

	mappingFileName = "device_map.json"
)

// mapping is the persisted fingerprint→id record used for reconstruction.
type mapping struct {
	Fingerprint string    `json:"fingerprint"`
	DeviceID    string    `json:"device_id"`
	SavedAt     time.Time `json:"saved_at"`
}

// Provider resolves the device identifier: read from backends in preference
// order, reconstruct from the fingerprint mapping, or synthesize a fresh one,
// then write-through everywhere so future reads converge.
type Provider struct {
	mu          sync.Mutex
	log         *slog.Logger
	env         Environment
	backends    []Backend
	mappingPath string
	cached      string
	now         func() time.Time
}

// NewProvider builds a provider over the given backends, ordered
// most-persistent-first. stateDir holds the fingerprint mapping file.
func NewProvider(log *slog.Logger, env Environment, stateDir string, backends ...Backend) *Provider {
	return &Provider{
		log:         log,
		env:         env,
		backends:    backends,
		mappingPath: filepath.Join(stateDir, mappingFileName),
		now:         time.Now,
	}
}

// DeviceID returns the stable device identifier, generating and replicating
// one on first use. It never fails: with every backend down it still returns
// a synthesized id for this process.
func (p *Provider) DeviceID(ctx context.Context) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != "" {
		return p.cached
	}

	id := p.readFirst(ctx)
	if id == "" {
		id = p.reconstruct()
	}
	if id == "" {
		id = p.synthesize()
		p.log.Info("generated new device id", "device_id", id)
	}

	p.replicate(ctx, id)
	p.storeMapping(id)
	p.cached = id
	return id
}

// Regenerate discards the current identifier everywhere and mints a new one.
func (p *Provider) Regenerate(ctx context.Context) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.clearLocked(ctx)
	id := p.synthesize()
	p.replicate(ctx, id)
	p.storeMapping(id)
	p.cached = id
	p.log.Info("regenerated device id", "device_id", id)
	return id
}

// Clear removes the identifier from every backend and the mapping file.
func (p *Provider) Clear(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearLocked(ctx)
}

// ValidateIntegrity reads the id from every backend and reports whether all
// non-empty readings agree. False when no backend holds a value.
func (p *Provider) ValidateIntegrity(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	seen := ""
	for _, b := range p.backends {
		val, err := b.Read(ctx)
		if err != nil || val == "" {
			continue
		}
		if seen == "" {
			seen = val
			continue
		}
		if val != seen {
			p.log.Warn("device id backends disagree", "backend", b.Name(), "expected", seen, "actual", val)
			return false
		}
	}
	return seen != ""
}

// Fingerprint exposes the current environment fingerprint.
func (p *Provider) Fingerprint() string {
	return p.env.Fingerprint()
}

func (p *Provider) clearLocked(ctx context.Context) {
	for _, b := range p.backends {
		if err := b.Clear(ctx); err != nil {
			p.log.Debug("device id clear failed", "backend", b.Name(), "error", err)
		}
	}
	if err := os.Remove(p.mappingPath); err != nil && !os.IsNotExist(err) {
		p.log.Debug("device mapping clear failed", "error", err)
	}
	p.cached = ""
}

func (p *Provider) readFirst(ctx context.Context) string {
	for _, b := range p.backends {
		val, err := b.Read(ctx)
		if err == nil && val != "" {
			return val
		}
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			p.log.Debug("device id read failed", "backend", b.Name(), "error", err)
		}
	}
	return ""
}

// reconstruct recovers the id from the fingerprint mapping when the current
// fingerprint still matches and the mapping has not gone stale.
func (p *Provider) reconstruct() string {
	raw, err := os.ReadFile(p.mappingPath)
	if err != nil {
		return ""
	}
	var m mapping
	if err := json.Unmarshal(raw, &m); err != nil {
		return ""
	}
	if m.Fingerprint != p.env.Fingerprint() {
		return ""
	}
	if p.now().Sub(m.SavedAt) > mappingMaxAge {
		return ""
	}
	p.log.Debug("reconstructed device id from fingerprint mapping", "device_id", m.DeviceID)
	return m.DeviceID
}

func (p *Provider) synthesize() string {
	fp := p.env.Fingerprint()
	return fmt.Sprintf("%s%s_%s", idPrefix, fp[:16], strconv.FormatInt(p.now().Unix(), 36))
}

func (p *Provider) replicate(ctx context.Context, id string) {
	for _, b := range p.backends {
		if err := b.Write(ctx, id); err != nil {
			p.log.Debug("device id replication failed", "backend", b.Name(), "error", err)
		}
	}
}

func (p *Provider) storeMapping(id string) {
	m := mapping{Fingerprint: p.env.Fingerprint(), DeviceID: id, SavedAt: p.now()}
	raw, err := json.Marshal(m)
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(p.mappingPath), 0o700); err != nil {
		p.log.Debug("device mapping dir create failed", "error", err)
		return
	}
	if err := os.WriteFile(p.mappingPath, raw, 0o600); err != nil {
		p.log.Debug("device mapping write failed", "error", err)
	}
}
