package core

import (
	"context"
	"sync"
	"testing"
	"time"
)

type gatewayCall struct {
	path   string
	params map[string]string
}

type stubGateway struct {
	mu        sync.Mutex
	calls     []gatewayCall
	responses map[string]Response
	errs      map[string]error
	gates     map[string]chan struct{}
}

func newStubGateway() *stubGateway {
	return &stubGateway{
		responses: map[string]Response{},
		errs:      map[string]error{},
		gates:     map[string]chan struct{}{},
	}
}

// block holds requests to endpoint until the returned channel is closed.
func (g *stubGateway) block(endpoint string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	gate := make(chan struct{})
	g.gates[DefaultConfig().Endpoint(endpoint)] = gate
	return gate
}

func (g *stubGateway) respond(endpoint string, resp Response) *stubGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responses[DefaultConfig().Endpoint(endpoint)] = resp
	return g
}

func (g *stubGateway) fail(endpoint string, err error) *stubGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errs[DefaultConfig().Endpoint(endpoint)] = err
	return g
}

func (g *stubGateway) PerformSignedRequest(_ context.Context, req SignedRequest) (Response, error) {
	g.mu.Lock()
	params := make(map[string]string, len(req.Params))
	for key, value := range req.Params {
		params[key] = value
	}
	g.calls = append(g.calls, gatewayCall{path: req.Path, params: params})
	resp := g.responses[req.Path]
	err := g.errs[req.Path]
	gate := g.gates[req.Path]
	g.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return Response{}, err
	}
	return resp, nil
}

func (g *stubGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *stubGateway) waitForCalls(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for g.callCount() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d gateway calls, got %d", n, g.callCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (g *stubGateway) lastCall() gatewayCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.calls) == 0 {
		return gatewayCall{}
	}
	return g.calls[len(g.calls)-1]
}

type stubDevice struct {
	deviceID string
	ip       string
}

func (d stubDevice) AddDeviceIdentifier(params map[string]string) bool {
	if d.deviceID == "" {
		return false
	}
	params[ParamDeviceID] = d.deviceID
	return true
}

func (d stubDevice) AddIPAddress(params map[string]string) bool {
	if d.ip == "" {
		return false
	}
	params[ParamSourceIPAddress] = d.ip
	return true
}

var testDevice = stubDevice{deviceID: "device-1", ip: "10.0.0.7"}

type staticPushTokens string

func (s staticPushTokens) PushToken() string { return string(s) }

type recordingPresenter struct {
	mu   sync.Mutex
	pins []string
}

func (p *recordingPresenter) PresentPin(pin string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pins = append(p.pins, pin)
}

type memoryActivitySink struct {
	mu      sync.Mutex
	entries []ActivityEntry
}

func (s *memoryActivitySink) Record(_ context.Context, entry ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *memoryActivitySink) events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry.Event)
	}
	return out
}

// outcome collects terminal callbacks; every callback sends one value.
type outcome struct {
	kind   string
	err    VerifyError
	status UserStatus
	cause  error
}

type outcomes chan outcome

func newOutcomes() outcomes {
	return make(outcomes, 8)
}

func (o outcomes) verify() VerifyCallbacks {
	return VerifyCallbacks{
		OnProgress: func() { o <- outcome{kind: "progress"} },
		OnVerified: func() { o <- outcome{kind: "verified"} },
		OnError:    func(kind VerifyError) { o <- outcome{kind: "error", err: kind} },
	}
}

func (o outcomes) check() CheckCallbacks {
	return CheckCallbacks{
		OnVerified: func() { o <- outcome{kind: "verified"} },
		OnError:    func(kind VerifyError) { o <- outcome{kind: "error", err: kind} },
	}
}

func (o outcomes) done() func(error) {
	return func(err error) { o <- outcome{kind: "done", cause: err} }
}

func (o outcomes) status() func(UserStatus, error) {
	return func(status UserStatus, err error) { o <- outcome{kind: "status", status: status, cause: err} }
}

func (o outcomes) next(t *testing.T) outcome {
	t.Helper()
	select {
	case got := <-o:
		return got
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for callback")
		return outcome{}
	}
}

func (o outcomes) expectNone(t *testing.T) {
	t.Helper()
	select {
	case got := <-o:
		t.Fatalf("expected no further callback, got %#v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

// newTestService builds a coordinator that runs transport work and callbacks
// inline.
func newTestService(t *testing.T, gateway Gateway, opts ...Option) *Service {
	t.Helper()
	base := []Option{
		WithGateway(gateway),
		WithDeviceProperties(testDevice),
		WithExecutor(InlineExecutor{}),
		WithDispatcher(InlineDispatcher{}),
		WithLogger(stubLogger{}),
		WithLoggerProvider(stubLoggerProvider{logger: stubLogger{}}),
	}
	svc, err := NewService(DefaultConfig(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}
