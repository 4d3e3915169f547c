package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/altair-obs/altair-core/internal/alpaca"
	"github.com/altair-obs/altair-core/internal/engine"
	"github.com/altair-obs/altair-core/internal/events"
	"github.com/altair-obs/altair-core/internal/infrastructure/config"
	"github.com/altair-obs/altair-core/internal/infrastructure/logging"
)

// fakeEngine records calls and serves scripted snapshots.
type fakeEngine struct {
	mu        sync.Mutex
	snapshots map[string]engine.Snapshot
	calls     []string
	failWith  error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{snapshots: make(map[string]engine.Snapshot)}
}

func (f *fakeEngine) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.failWith
}

func (f *fakeEngine) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakeEngine) Select(_ context.Context, dev alpaca.Descriptor) error {
	if err := f.record("select " + dev.ID()); err != nil {
		return err
	}
	f.mu.Lock()
	f.snapshots[dev.ID()] = engine.Snapshot{Device: dev.ID(), Type: dev.Type, State: "active"}
	f.mu.Unlock()
	return nil
}

func (f *fakeEngine) Release(_ context.Context, id string) error {
	return f.record("release " + id)
}

func (f *fakeEngine) Reconnect(_ context.Context, id string) error {
	return f.record("reconnect " + id)
}

func (f *fakeEngine) SetProperty(_ context.Context, id, name string, value any) error {
	return f.record(fmt.Sprintf("set %s %s=%v", id, name, value))
}

func (f *fakeEngine) InvokeCommand(_ context.Context, id, name string, _ map[string]any) error {
	return f.record(fmt.Sprintf("invoke %s %s", id, name))
}

func (f *fakeEngine) SetBurst(id string, on bool) error {
	return f.record(fmt.Sprintf("burst %s %v", id, on))
}

func (f *fakeEngine) Snapshot(id string) (engine.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.snapshots[id]
	if !ok {
		return engine.Snapshot{}, engine.ErrSessionNotFound
	}
	return snap, nil
}

func (f *fakeEngine) List() []engine.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]engine.Snapshot, 0, len(f.snapshots))
	for _, snap := range f.snapshots {
		out = append(out, snap)
	}
	return out
}

func testDeps(eng Engine, bus *events.Bus, auth config.AuthConfig) Deps {
	return Deps{
		Config:   config.APIConfig{Host: "127.0.0.1", Port: 0},
		WS:       config.WebSocketConfig{Path: "/ws", MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10},
		Security: config.SecurityConfig{Auth: auth},
		Logger:   logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}, "test"),
		Engine:   eng,
		Bus:      bus,
		Devices: []alpaca.Descriptor{
			{Type: "camera", Number: 0, Addr: "127.0.0.1:11111", Name: "cam1"},
			{Type: "telescope", Number: 0, Addr: "127.0.0.1:11111", Name: "mount"},
		},
		Version: "test",
	}
}

// newTestServer builds a server with background goroutines running and
// returns it with an httptest listener.
func newTestServer(t *testing.T, eng Engine, bus *events.Bus, auth config.AuthConfig) (*Server, *httptest.Server) {
	t.Helper()
	s, err := New(testDeps(eng, bus, auth))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(ctx)
	go s.relayEvents(ctx)

	ts := httptest.NewServer(s.buildRouter())
	t.Cleanup(ts.Close)
	return s, ts
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close() //nolint:errcheck
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	_, ts := newTestServer(t, newFakeEngine(), bus, config.AuthConfig{})

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]any
	decodeBody(t, resp, &body)
	if body["status"] != "ok" || body["version"] != "test" {
		t.Fatalf("body = %v", body)
	}
}

func TestListDevicesMergesSessionState(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	eng := newFakeEngine()
	_, ts := newTestServer(t, eng, bus, config.AuthConfig{})

	// Select cam1 so it shows as selected.
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/devices/cam1/connect", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("connect status = %d", resp.StatusCode)
	}
	resp.Body.Close() //nolint:errcheck

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/devices/", nil)
	var body struct {
		Devices []deviceSummary `json:"devices"`
	}
	decodeBody(t, resp, &body)

	if len(body.Devices) != 2 {
		t.Fatalf("devices = %d, want 2", len(body.Devices))
	}
	// Sorted by ID: cam1 before mount.
	if body.Devices[0].ID != "cam1" || !body.Devices[0].Selected || body.Devices[0].State != "active" {
		t.Fatalf("cam1 entry = %+v", body.Devices[0])
	}
	if body.Devices[1].ID != "mount" || body.Devices[1].Selected {
		t.Fatalf("mount entry = %+v", body.Devices[1])
	}
}

func TestUnknownDeviceIs404(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	_, ts := newTestServer(t, newFakeEngine(), bus, config.AuthConfig{})

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/devices/nope/connect", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close() //nolint:errcheck
}

func TestSetPropertyPassesValue(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	eng := newFakeEngine()
	_, ts := newTestServer(t, eng, bus, config.AuthConfig{})

	resp := doJSON(t, http.MethodPut, ts.URL+"/api/v1/devices/cam1/properties/gain",
		map[string]any{"value": "High"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	resp.Body.Close() //nolint:errcheck

	if !eng.called("set cam1 gain=High") {
		t.Fatalf("engine calls = %v", eng.calls)
	}
}

func TestInvokeCommandPassesParams(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	eng := newFakeEngine()
	_, ts := newTestServer(t, eng, bus, config.AuthConfig{})

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/devices/cam1/commands/startexposure",
		map[string]any{"params": map[string]any{"Duration": 2.5, "Light": true}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	resp.Body.Close() //nolint:errcheck

	if !eng.called("invoke cam1 startexposure") {
		t.Fatalf("engine calls = %v", eng.calls)
	}
}

func TestEngineErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "session exists", err: engine.ErrSessionExists, want: http.StatusConflict},
		{name: "unknown property", err: engine.ErrUnknownProperty, want: http.StatusBadRequest},
		{name: "mode error", err: &engine.ModeError{Control: "gain", Kind: engine.OutOfRange, Detail: "x"}, want: http.StatusBadRequest},
		{name: "unsupported", err: &engine.UnsupportedError{Name: "gain"}, want: http.StatusConflict},
		{name: "lifecycle", err: &engine.LifecycleError{Op: "write", State: engine.Faulted}, want: http.StatusConflict},
		{name: "transport", err: &alpaca.TransportError{Op: "GET", Member: "gain"}, want: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := events.NewBus()
			defer bus.Close()
			eng := newFakeEngine()
			eng.failWith = tt.err
			_, ts := newTestServer(t, eng, bus, config.AuthConfig{})

			resp := doJSON(t, http.MethodPut, ts.URL+"/api/v1/devices/cam1/properties/gain",
				map[string]any{"value": 1})
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			resp.Body.Close() //nolint:errcheck
		})
	}
}

func TestAuthRequiredWhenEnabled(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	auth := config.AuthConfig{
		Enabled:        true,
		Username:       "operator",
		Password:       "observatory",
		JWTSecret:      strings.Repeat("s", 32),
		AccessTokenTTL: 15,
	}
	_, ts := newTestServer(t, newFakeEngine(), bus, auth)

	// Unauthenticated request is refused.
	resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/devices/", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close() //nolint:errcheck

	// Wrong credentials are refused.
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/login",
		loginRequest{Username: "operator", Password: "wrong"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("login with bad password = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close() //nolint:errcheck

	// Login and retry with the bearer token.
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/login",
		loginRequest{Username: "operator", Password: "observatory"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login = %d, want 200", resp.StatusCode)
	}
	var login loginResponse
	decodeBody(t, resp, &login)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/devices/", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	authResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("authenticated request: %v", err)
	}
	defer authResp.Body.Close() //nolint:errcheck
	if authResp.StatusCode != http.StatusOK {
		t.Fatalf("authenticated status = %d, want 200", authResp.StatusCode)
	}
}

func TestWebSocketReceivesEngineEvents(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	_, ts := newTestServer(t, newFakeEngine(), bus, config.AuthConfig{})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		resp.Body.Close() //nolint:errcheck
	}
	defer conn.Close()

	// Subscribe to property change events.
	sub := WSMessage{Type: WSTypeSubscribe, ID: "1", Payload: WSSubscribePayload{Channels: []string{"property_changed"}}}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	var ack WSMessage
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("subscribe ack: %v", err)
	}
	if ack.Type != WSTypeResponse {
		t.Fatalf("ack type = %s", ack.Type)
	}

	bus.Publish(events.Event{
		Type:    events.TypePropertyChanged,
		Device:  "cam1",
		Payload: events.PropertyChange{Name: "ccdtemperature", Value: -9.5},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
	var ev WSMessage
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Type != WSTypeEvent || ev.EventType != "property_changed" {
		t.Fatalf("event = %+v", ev)
	}
}
