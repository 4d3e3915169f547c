package engine

import (
	"context"
	"sync"

	"github.com/altair-obs/altair-core/internal/alpaca"
)

// fakeTransport is a scripted Transport for tests. Reads serve from the
// values map unless an error is scripted; writes are recorded and update
// the backing value so later reads observe them.
type fakeTransport struct {
	mu         sync.Mutex
	values     map[string]any
	readErr    map[string]error
	writeErr   map[string]error
	stateVal   map[string]any
	stateErr   error
	readCount  map[string]int
	stateCount int
	writes     []writeCall
}

type writeCall struct {
	member string
	params map[string]string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		values:    map[string]any{"connected": false, "name": "Fake Device"},
		readErr:   make(map[string]error),
		writeErr:  make(map[string]error),
		readCount: make(map[string]int),
	}
}

func (f *fakeTransport) set(member string, v any) {
	f.mu.Lock()
	f.values[member] = v
	f.mu.Unlock()
}

func (f *fakeTransport) failRead(member string, err error) {
	f.mu.Lock()
	f.readErr[member] = err
	f.mu.Unlock()
}

func (f *fakeTransport) failWrite(member string, err error) {
	f.mu.Lock()
	f.writeErr[member] = err
	f.mu.Unlock()
}

func (f *fakeTransport) setState(snapshot map[string]any, err error) {
	f.mu.Lock()
	f.stateVal = snapshot
	f.stateErr = err
	f.mu.Unlock()
}

func (f *fakeTransport) reads(member string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readCount[member]
}

func (f *fakeTransport) stateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateCount
}

func (f *fakeTransport) lastWrite(member string) (map[string]string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.writes) - 1; i >= 0; i-- {
		if f.writes[i].member == member {
			return f.writes[i].params, true
		}
	}
	return nil, false
}

func (f *fakeTransport) Read(_ context.Context, _ alpaca.Descriptor, member string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readCount[member]++
	if err, ok := f.readErr[member]; ok {
		return nil, err
	}
	v, ok := f.values[member]
	if !ok {
		return nil, &alpaca.ProtocolError{Member: member, Code: alpaca.CodeNotImplemented, Message: "not implemented"}
	}
	return v, nil
}

func (f *fakeTransport) Write(_ context.Context, _ alpaca.Descriptor, member string, params map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.writeErr[member]; ok {
		return err
	}
	copied := make(map[string]string, len(params))
	for k, v := range params {
		copied[k] = v
	}
	f.writes = append(f.writes, writeCall{member: member, params: copied})
	if member == "connected" {
		f.values["connected"] = params["Connected"] == "True"
	}
	return nil
}

func (f *fakeTransport) State(_ context.Context, _ alpaca.Descriptor) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stateCount++
	if f.stateErr != nil {
		return nil, f.stateErr
	}
	if f.stateVal == nil {
		return nil, &alpaca.ProtocolError{Member: "devicestate", Code: alpaca.CodeNotImplemented, Message: "not implemented"}
	}
	out := make(map[string]any, len(f.stateVal))
	for k, v := range f.stateVal {
		out[k] = v
	}
	return out, nil
}
