package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/altair-obs/altair-core/internal/alpaca"
	"github.com/altair-obs/altair-core/internal/engine"
)

// deviceSummary is one entry in the device inventory listing.
type deviceSummary struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Address  string `json:"address"`
	Number   int    `json:"number"`
	Selected bool   `json:"selected"`
	State    string `json:"state,omitempty"`
}

// handleListDevices returns the configured device inventory with the
// session state of any selected devices.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	states := make(map[string]string)
	for _, snap := range s.engine.List() {
		states[snap.Device] = snap.State
	}

	out := make([]deviceSummary, 0, len(s.devices))
	for id, dev := range s.devices {
		entry := deviceSummary{
			ID:      id,
			Type:    dev.Type,
			Address: dev.Addr,
			Number:  dev.Number,
		}
		if st, ok := states[id]; ok {
			entry.Selected = true
			entry.State = st
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	writeJSON(w, http.StatusOK, map[string]any{"devices": out})
}

// lookupDevice resolves the {id} path parameter against the inventory.
func (s *Server) lookupDevice(w http.ResponseWriter, r *http.Request) (alpaca.Descriptor, bool) {
	id := chi.URLParam(r, "id")
	dev, ok := s.devices[id]
	if !ok {
		writeNotFound(w, "unknown device: "+id)
		return alpaca.Descriptor{}, false
	}
	return dev, true
}

// handleGetDevice returns the full session snapshot for one device.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}
	snap, err := s.engine.Snapshot(dev.ID())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleConnectDevice selects a device and starts its session.
func (s *Server) handleConnectDevice(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}
	if err := s.engine.Select(r.Context(), dev); err != nil {
		s.writeEngineError(w, err)
		return
	}
	snap, err := s.engine.Snapshot(dev.ID())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleDisconnectDevice releases a device session.
func (s *Server) handleDisconnectDevice(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}
	if err := s.engine.Release(r.Context(), dev.ID()); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"released": dev.ID()})
}

// handleReconnectDevice re-runs the connect sequence for a faulted
// session.
func (s *Server) handleReconnectDevice(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}
	if err := s.engine.Reconnect(r.Context(), dev.ID()); err != nil {
		s.writeEngineError(w, err)
		return
	}
	snap, err := s.engine.Snapshot(dev.ID())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleGetDeviceState returns the cached property values.
func (s *Server) handleGetDeviceState(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}
	snap, err := s.engine.Snapshot(dev.ID())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"device":     snap.Device,
		"state":      snap.State,
		"properties": snap.Properties,
	})
}

// handleGetCapabilities returns the decided per-property support map.
func (s *Server) handleGetCapabilities(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}
	snap, err := s.engine.Snapshot(dev.ID())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"device":       snap.Device,
		"capabilities": snap.Capabilities,
	})
}

// handleGetModes returns the resolved list-or-value control modes.
func (s *Server) handleGetModes(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}
	snap, err := s.engine.Snapshot(dev.ID())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"device": snap.Device,
		"modes":  snap.Modes,
	})
}

// setPropertyRequest is the request body for PUT /properties/{name}.
type setPropertyRequest struct {
	Value any `json:"value"`
}

// handleSetProperty writes one property of a selected device.
func (s *Server) handleSetProperty(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")

	var req setPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.engine.SetProperty(r.Context(), dev.ID(), name, req.Value); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"written": name})
}

// invokeCommandRequest is the request body for POST /commands/{name}.
// Params hold the command's wire parameters, e.g. {"Duration": 2.5}.
type invokeCommandRequest struct {
	Params map[string]any `json:"params"`
}

// handleInvokeCommand runs a command member of a selected device.
func (s *Server) handleInvokeCommand(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")

	var req invokeCommandRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "invalid JSON body")
			return
		}
	}

	if err := s.engine.InvokeCommand(r.Context(), dev.ID(), name, req.Params); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoked": name})
}

// setBurstRequest is the request body for POST /burst.
type setBurstRequest struct {
	Enabled bool `json:"enabled"`
}

// handleSetBurst switches a device's fast polling group into or out of
// burst cadence.
func (s *Server) handleSetBurst(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}

	var req setBurstRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.engine.SetBurst(dev.ID(), req.Enabled); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"burst": req.Enabled})
}

// writeEngineError maps engine errors onto HTTP responses.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	var (
		modeErr        *engine.ModeError
		unsupportedErr *engine.UnsupportedError
		lifecycleErr   *engine.LifecycleError
		protocolErr    *alpaca.ProtocolError
		transportErr   *alpaca.TransportError
	)

	switch {
	case errors.Is(err, engine.ErrSessionNotFound):
		writeNotFound(w, err.Error())
	case errors.Is(err, engine.ErrSessionExists),
		errors.Is(err, engine.ErrNotFaulted),
		errors.As(err, &lifecycleErr):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, engine.ErrUnknownProperty),
		errors.Is(err, engine.ErrNotWritable),
		errors.Is(err, engine.ErrNotCommand),
		errors.As(err, &modeErr):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.As(err, &unsupportedErr):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.As(err, &protocolErr), errors.As(err, &transportErr):
		writeError(w, http.StatusBadGateway, ErrCodeDevice, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}
