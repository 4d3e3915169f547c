package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/altair-obs/altair-core/internal/alpaca"
	"github.com/altair-obs/altair-core/internal/catalog"
	"github.com/altair-obs/altair-core/internal/events"
	"github.com/altair-obs/altair-core/internal/infrastructure/logging"
)

// Manager owns one session per selected device and is the engine's
// public entry point.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Manager struct {
	tr  Transport
	bus *events.Bus
	log *logging.Logger
	cfg Config

	mu       sync.Mutex
	sessions map[string]*session
}

// NewManager creates a Manager. The transport is shared by all sessions.
func NewManager(tr Transport, bus *events.Bus, log *logging.Logger, cfg Config) *Manager {
	return &Manager{
		tr:       tr,
		bus:      bus,
		log:      log.With("component", "engine"),
		cfg:      cfg.withDefaults(),
		sessions: make(map[string]*session),
	}
}

// Select connects a device and starts polling it. On probe failure the
// session is kept in the faulted state so callers can inspect it and
// issue a reconnect.
func (m *Manager) Select(ctx context.Context, dev alpaca.Descriptor) error {
	schema, ok := catalog.Lookup(catalog.DeviceType(dev.Type))
	if !ok {
		return fmt.Errorf("engine: no catalog for device type %q", dev.Type)
	}

	m.mu.Lock()
	if _, exists := m.sessions[dev.ID()]; exists {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionExists, dev.ID())
	}
	s := newSession(dev, schema, m.tr, m.bus, m.log, m.cfg)
	m.sessions[dev.ID()] = s
	m.mu.Unlock()

	if err := s.connect(ctx); err != nil {
		return err
	}
	return s.start()
}

// Release disconnects a device and removes its session. Faulted sessions
// are released without touching the device.
func (m *Manager) Release(ctx context.Context, id string) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}

	if s.currentState() == Faulted {
		// The link is already presumed dead; just drop the session.
		s.cancel()
		m.drop(id)
		return nil
	}

	err = s.release(ctx)
	m.drop(id)
	return err
}

// Reconnect re-runs the connect sequence for a faulted session.
func (m *Manager) Reconnect(ctx context.Context, id string) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	if s.currentState() != Faulted {
		return fmt.Errorf("%w: %s", ErrNotFaulted, id)
	}
	if err := s.connect(ctx); err != nil {
		return err
	}
	return s.start()
}

// SetProperty writes one property of a selected device.
func (m *Manager) SetProperty(ctx context.Context, id, name string, value any) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	return s.setProperty(ctx, name, value)
}

// InvokeCommand runs a command member of a selected device.
func (m *Manager) InvokeCommand(ctx context.Context, id, name string, params map[string]any) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	return s.invokeCommand(ctx, name, params)
}

// SetBurst switches a device's fast polling group into or out of burst
// cadence.
func (m *Manager) SetBurst(id string, on bool) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	return s.setBurst(on)
}

// Snapshot returns the current view of one session.
func (m *Manager) Snapshot(id string) (Snapshot, error) {
	s, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(), nil
}

// List returns snapshots of all sessions, ordered by device identifier.
func (m *Manager) List() []Snapshot {
	m.mu.Lock()
	sessions := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	out := make([]Snapshot, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Device < out[j].Device })
	return out
}

// Shutdown releases every session. Used at process exit.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		if err := m.Release(ctx, id); err != nil {
			m.log.Warn("release during shutdown failed", "device", id, "error", err)
		}
	}
}

func (m *Manager) lookup(id string) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

func (m *Manager) drop(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}
