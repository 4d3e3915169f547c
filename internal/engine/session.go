package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/altair-obs/altair-core/internal/alpaca"
	"github.com/altair-obs/altair-core/internal/catalog"
	"github.com/altair-obs/altair-core/internal/events"
	"github.com/altair-obs/altair-core/internal/infrastructure/logging"
)

// session owns all per-device synchronization state: lifecycle,
// capability registry, mode records, state cache and poller.
//
// Thread Safety: exported-style entry points (connect, start, release,
// setProperty, invokeCommand, setBurst, snapshot) are safe for
// concurrent use. Refreshes are serialized by a compare-and-swap guard;
// a tick that finds one in flight is skipped, never queued.
type session struct {
	dev    alpaca.Descriptor
	schema *catalog.Schema
	tr     Transport
	bus    *events.Bus
	log    *logging.Logger
	cfg    Config

	// ctx outlives individual calls and is cancelled on release; wire
	// calls made by the poller run under it.
	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	state        State
	reportedName string
	caps         *capabilityRegistry
	cache        *stateCache
	modes        map[string]ModeRecord
	poll         *poller
	fullFailures int

	refreshing atomic.Bool
}

func newSession(dev alpaca.Descriptor, schema *catalog.Schema, tr Transport, bus *events.Bus, log *logging.Logger, cfg Config) *session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		dev:    dev,
		schema: schema,
		tr:     tr,
		bus:    bus,
		log:    log.With("device", dev.ID()),
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		state:  Idle,
		modes:  make(map[string]ModeRecord),
	}
	s.caps = newCapabilityRegistry(cfg.FailureThreshold, s.publishCapability)
	s.cache = newStateCache(dev, schema, cfg.StateTTL)
	return s
}

// transition moves the lifecycle machine and publishes the change. The
// caller must not hold s.mu.
func (s *session) transition(to State) error {
	s.mu.Lock()
	from := s.state
	if !validTransition(from, to) {
		s.mu.Unlock()
		return &LifecycleError{Op: "transition to " + to.String(), State: from}
	}
	s.state = to
	s.mu.Unlock()

	s.log.Info("lifecycle transition", "from", from.String(), "to", to.String())
	s.bus.Publish(events.Event{
		Type:    events.TypeLifecycleChanged,
		Device:  s.dev.ID(),
		Payload: events.LifecycleChange{Old: from.String(), New: to.String()},
	})
	return nil
}

func (s *session) currentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// connect runs the probe sequence: verify the endpoint answers, assert
// the device connection, learn its reported name, then seed capabilities
// and resolve control modes. Probe failures are retried with a fixed
// delay; exhausting the attempts faults the session.
func (s *session) connect(ctx context.Context) error {
	if err := s.transition(Connecting); err != nil {
		return err
	}

	// A reconnect must not trust records learned on a previous link.
	s.mu.Lock()
	s.caps = newCapabilityRegistry(s.cfg.FailureThreshold, s.publishCapability)
	s.cache = newStateCache(s.dev, s.schema, s.cfg.StateTTL)
	s.modes = make(map[string]ModeRecord)
	s.fullFailures = 0
	s.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= s.cfg.ConnectAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(s.cfg.ConnectRetryDelay):
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = s.cfg.ConnectAttempts // no point retrying
				continue
			}
		}
		lastErr = s.probe(ctx)
		if lastErr == nil {
			break
		}
		s.log.Warn("connect attempt failed", "attempt", attempt, "error", lastErr)
	}
	if lastErr != nil {
		s.fault(fmt.Errorf("connect failed after %d attempts: %w", s.cfg.ConnectAttempts, lastErr))
		return lastErr
	}

	s.seedCapabilities(ctx)
	s.resolveModes(ctx)

	if err := s.transition(Connected); err != nil {
		return err
	}
	return nil
}

// probe is one connect attempt against the device endpoint.
func (s *session) probe(ctx context.Context) error {
	if _, err := s.tr.Read(ctx, s.dev, "connected"); err != nil {
		return err
	}
	if err := s.tr.Write(ctx, s.dev, "connected", map[string]string{"Connected": "True"}); err != nil {
		return err
	}
	name, err := s.tr.Read(ctx, s.dev, "name")
	if err != nil {
		return err
	}
	if str, ok := name.(string); ok {
		s.mu.Lock()
		s.reportedName = str
		s.mu.Unlock()
	}
	return nil
}

// seedCapabilities reads the schema's capability flags and fixes support
// for the members each flag governs. A flag that cannot be read leaves
// its targets unknown, to be learned by probing.
func (s *session) seedCapabilities(ctx context.Context) {
	for _, flag := range s.schema.CapabilityFlags() {
		v, err := s.tr.Read(ctx, s.dev, flag)
		if err != nil {
			s.log.Debug("capability flag unreadable", "flag", flag, "error", err)
			continue
		}
		supported, ok := v.(bool)
		if !ok {
			continue
		}
		for _, target := range s.schema.FlagTargets(flag) {
			s.caps.seed(target, supported)
		}
	}
}

// resolveModes fixes each list-or-value control's mode for the session.
func (s *session) resolveModes(ctx context.Context) {
	for _, mp := range s.schema.ModePairs() {
		var options []string
		if raw, err := s.tr.Read(ctx, s.dev, mp.List); err == nil {
			options = toStringList(raw)
		}

		var (
			min, max   float64
			haveBounds bool
		)
		if len(options) == 0 {
			rawMin, errMin := s.tr.Read(ctx, s.dev, mp.Min)
			rawMax, errMax := s.tr.Read(ctx, s.dev, mp.Max)
			if errMin == nil && errMax == nil {
				nMin, okMin := toFloat(rawMin)
				nMax, okMax := toFloat(rawMax)
				if okMin && okMax {
					min, max, haveBounds = nMin, nMax, true
				}
			}
		}

		rec := resolveMode(mp.Name, options, min, max, haveBounds)
		s.mu.Lock()
		s.modes[mp.Name] = rec
		s.mu.Unlock()
		s.log.Info("control mode resolved", "control", mp.Name, "mode", rec.Mode.String())
	}
}

// start launches the polling loops.
func (s *session) start() error {
	p := newPoller(
		s.cfg.FastInterval, s.cfg.SlowInterval, s.cfg.BurstInterval,
		func() { s.refreshTick(catalog.Fast) },
		func() { s.refreshTick(catalog.Slow) },
	)

	s.mu.Lock()
	s.poll = p
	s.mu.Unlock()

	if err := s.transition(Active); err != nil {
		return err
	}
	p.start()
	return nil
}

// refreshTick runs one refresh cycle for a cadence group. If a previous
// cycle is still in flight this tick is dropped.
func (s *session) refreshTick(c catalog.Cadence) {
	if !s.refreshing.CompareAndSwap(false, true) {
		s.log.Debug("refresh skipped, previous still in flight", "cadence", c.String())
		return
	}
	defer s.refreshing.Store(false)

	s.mu.Lock()
	if s.state != Active {
		s.mu.Unlock()
		return
	}
	cache, caps := s.cache, s.caps
	s.mu.Unlock()

	diff, attempted, failed := cache.refresh(s.ctx, s.schema.Readable(c), caps, s.tr)

	// A release or fault during the refresh invalidates its result.
	s.mu.Lock()
	if s.state != Active || s.cache != cache {
		s.mu.Unlock()
		return
	}
	if attempted > 0 {
		if failed == attempted {
			s.fullFailures++
		} else {
			s.fullFailures = 0
		}
	}
	escalate := s.fullFailures >= s.cfg.FaultThreshold
	s.mu.Unlock()

	for name, value := range diff {
		s.bus.Publish(events.Event{
			Type:    events.TypePropertyChanged,
			Device:  s.dev.ID(),
			Payload: events.PropertyChange{Name: name, Value: value},
		})
	}

	if escalate {
		s.fault(fmt.Errorf("%d consecutive refresh cycles failed entirely", s.cfg.FaultThreshold))
	}
}

// setBurst switches the fast polling group into or out of burst cadence.
func (s *session) setBurst(on bool) error {
	s.mu.Lock()
	if s.state != Active {
		st := s.state
		s.mu.Unlock()
		return &LifecycleError{Op: "burst", State: st}
	}
	p := s.poll
	s.mu.Unlock()

	p.setBurst(on)
	s.log.Info("burst mode", "enabled", on)
	return nil
}

// setProperty validates, translates and writes one property. The cache
// is deliberately not updated here; the next poll confirms the value the
// device actually adopted.
func (s *session) setProperty(ctx context.Context, name string, value any) error {
	err := s.doSetProperty(ctx, name, value)
	if err != nil {
		s.publishFailure(name, err)
	}
	return err
}

func (s *session) doSetProperty(ctx context.Context, name string, value any) error {
	s.mu.Lock()
	if s.state != Connected && s.state != Active {
		st := s.state
		s.mu.Unlock()
		return &LifecycleError{Op: "write " + name, State: st}
	}
	rec, isMode := s.modes[name]
	caps := s.caps
	s.mu.Unlock()

	prop, ok := s.schema.Property(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProperty, name)
	}
	if prop.Direction != catalog.Write && prop.Direction != catalog.ReadWrite {
		return fmt.Errorf("%w: %s", ErrNotWritable, name)
	}
	if !caps.shouldAttempt(prop.Name) {
		return &UnsupportedError{Name: prop.Name}
	}

	var wire string
	if isMode {
		n, err := rec.Translate(value)
		if err != nil {
			return err
		}
		wire = formatWireNumber(n)
	} else {
		var err error
		wire, err = formatWireValue(value)
		if err != nil {
			return err
		}
	}

	if err := s.tr.Write(ctx, s.dev, prop.Name, map[string]string{prop.ParamName(): wire}); err != nil {
		caps.recordFailure(prop.Name, isNotImplemented(err))
		return err
	}
	caps.recordSuccess(prop.Name)
	return nil
}

// invokeCommand runs a command member with caller-supplied parameters.
// Parameter names pass through verbatim; values are wire-formatted.
func (s *session) invokeCommand(ctx context.Context, name string, params map[string]any) error {
	err := s.doInvokeCommand(ctx, name, params)
	if err != nil {
		s.publishFailure(name, err)
	}
	return err
}

func (s *session) doInvokeCommand(ctx context.Context, name string, params map[string]any) error {
	s.mu.Lock()
	if s.state != Connected && s.state != Active {
		st := s.state
		s.mu.Unlock()
		return &LifecycleError{Op: "command " + name, State: st}
	}
	caps := s.caps
	s.mu.Unlock()

	prop, ok := s.schema.Property(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProperty, name)
	}
	if prop.Direction != catalog.Action {
		return fmt.Errorf("%w: %s", ErrNotCommand, name)
	}
	if !caps.shouldAttempt(prop.Name) {
		return &UnsupportedError{Name: prop.Name}
	}

	wire := make(map[string]string, len(params))
	for k, v := range params {
		formatted, err := formatWireValue(v)
		if err != nil {
			return fmt.Errorf("parameter %s: %w", k, err)
		}
		wire[k] = formatted
	}

	if err := s.tr.Write(ctx, s.dev, prop.Name, wire); err != nil {
		caps.recordFailure(prop.Name, isNotImplemented(err))
		return err
	}
	caps.recordSuccess(prop.Name)
	return nil
}

// release tears the session down: stop polling, best-effort disconnect
// the device, discard all learned records.
func (s *session) release(ctx context.Context) error {
	if err := s.transition(Disconnecting); err != nil {
		return err
	}

	s.mu.Lock()
	p := s.poll
	s.poll = nil
	s.mu.Unlock()
	if p != nil {
		p.stop()
	}

	if err := s.tr.Write(ctx, s.dev, "connected", map[string]string{"Connected": "False"}); err != nil {
		s.log.Warn("device disconnect failed", "error", err)
	}

	s.mu.Lock()
	s.caps = newCapabilityRegistry(s.cfg.FailureThreshold, s.publishCapability)
	s.cache = newStateCache(s.dev, s.schema, s.cfg.StateTTL)
	s.modes = make(map[string]ModeRecord)
	s.fullFailures = 0
	s.mu.Unlock()

	s.cancel()
	return s.transition(Disconnected)
}

// fault moves the session to Faulted and halts polling without waiting
// for in-flight work, so it is safe to call from a tick handler.
func (s *session) fault(cause error) {
	if err := s.transition(Faulted); err != nil {
		return
	}

	s.mu.Lock()
	p := s.poll
	s.poll = nil
	s.mu.Unlock()
	if p != nil {
		p.signalStop()
	}

	s.log.Error("session faulted", "error", cause)
	s.bus.Publish(events.Event{
		Type:    events.TypeOperationFailed,
		Device:  s.dev.ID(),
		Payload: events.OperationFailure{Kind: errorKind(cause), Message: cause.Error()},
	})
}

func (s *session) publishCapability(name string, supported bool) {
	s.bus.Publish(events.Event{
		Type:    events.TypeCapabilityChanged,
		Device:  s.dev.ID(),
		Payload: events.CapabilityChange{Name: name, Supported: supported},
	})
}

func (s *session) publishFailure(name string, err error) {
	s.bus.Publish(events.Event{
		Type:    events.TypeOperationFailed,
		Device:  s.dev.ID(),
		Payload: events.OperationFailure{Name: name, Kind: errorKind(err), Message: err.Error()},
	})
}

// Snapshot is the externally visible view of one session.
type Snapshot struct {
	Device       string                  `json:"device"`
	Type         string                  `json:"type"`
	Name         string                  `json:"name,omitempty"`
	State        string                  `json:"state"`
	Burst        bool                    `json:"burst"`
	Properties   map[string]any          `json:"properties"`
	Capabilities map[string]string       `json:"capabilities"`
	Modes        map[string]ModeSnapshot `json:"modes"`
}

// ModeSnapshot is the resolved mode of one control as reported to
// callers.
type ModeSnapshot struct {
	Mode    string   `json:"mode"`
	Options []string `json:"options,omitempty"`
	Min     float64  `json:"min,omitempty"`
	Max     float64  `json:"max,omitempty"`
}

// snapshot copies the session's current view.
func (s *session) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Device:       s.dev.ID(),
		Type:         string(s.schema.Type),
		Name:         s.reportedName,
		State:        s.state.String(),
		Properties:   s.cache.values(),
		Capabilities: make(map[string]string),
		Modes:        make(map[string]ModeSnapshot, len(s.modes)),
	}
	if s.poll != nil {
		snap.Burst = s.poll.inBurst()
	}
	for name, state := range s.caps.snapshot() {
		snap.Capabilities[name] = state.String()
	}
	for name, rec := range s.modes {
		snap.Modes[name] = ModeSnapshot{
			Mode:    rec.Mode.String(),
			Options: rec.Options,
			Min:     rec.Min,
			Max:     rec.Max,
		}
	}
	return snap
}
