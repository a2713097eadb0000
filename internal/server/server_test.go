package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"llmserver/internal/httpapi"
	"llmserver/internal/provision"
	"llmserver/internal/registry"
	"llmserver/pkg/types"
)

type recordingProvisioner struct {
	s         *Server
	addrAtRun string
	called    bool
	err       error
}

func (p *recordingProvisioner) EnsurePresent(ctx context.Context, modelID, credential string) error {
	p.called = true
	p.addrAtRun = p.s.Addr()
	return p.err
}

func getHealth(t *testing.T, addr string) types.HealthResponse {
	t.Helper()
	resp, err := http.Get("http://" + addr + "/api/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status=%d", resp.StatusCode)
	}
	var body types.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body
}

func startServer(t *testing.T, opts Options) *Server {
	t.Helper()
	s := New(opts)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func TestProvisioningRunsBeforeListenerBinds(t *testing.T) {
	p := &recordingProvisioner{}
	s := New(Options{Addr: "127.0.0.1:0", Handler: httpapi.NewMux(httpapi.Deps{}), Provisioner: p, ModelID: "org/m"})
	p.s = s
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	if !p.called {
		t.Fatalf("provisioner not called")
	}
	if p.addrAtRun != "" {
		t.Fatalf("listener bound before provisioning: %s", p.addrAtRun)
	}
	if s.Addr() == "" {
		t.Fatalf("listener not bound after start")
	}
}

func TestProvisioningErrorDoesNotStopStartup(t *testing.T) {
	p := &recordingProvisioner{err: errors.New("dial tcp: connection refused")}
	s := New(Options{Addr: "127.0.0.1:0", Handler: httpapi.NewMux(httpapi.Deps{}), Provisioner: p, ModelID: "org/m"})
	p.s = s
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	if got := getHealth(t, s.Addr()); got.Status != "OK" {
		t.Fatalf("unexpected health: %+v", got)
	}
}

// A registry answering non-2xx must not keep the server from serving.
func TestRegistryNon2xxStillServesHealth(t *testing.T) {
	reg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer reg.Close()
	store, err := registry.New(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	s := startServer(t, Options{
		Addr:        "127.0.0.1:0",
		Handler:     httpapi.NewMux(httpapi.Deps{}),
		Provisioner: provision.New(store, provision.Options{RegistryURL: reg.URL}),
		ModelID:     "rustformers/redpajama-3b-ggml",
		Credential:  "tok",
	})
	if got := getHealth(t, s.Addr()); got.Details != "Server is running smoothly." {
		t.Fatalf("unexpected health: %+v", got)
	}
}

func TestProvisioningDisabledWithoutModelID(t *testing.T) {
	p := &recordingProvisioner{}
	s := startServer(t, Options{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler(), Provisioner: p})
	p.s = s
	if p.called {
		t.Fatalf("provisioner called without a model id")
	}
}

func TestStartListenError(t *testing.T) {
	s := startServer(t, Options{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()})
	if err := New(Options{Addr: s.Addr(), Handler: http.NotFoundHandler()}).Start(context.Background()); err == nil {
		t.Fatalf("expected address-in-use error")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, Options{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * ShutdownTimeout):
		t.Fatal("run did not return after cancel")
	}
}
