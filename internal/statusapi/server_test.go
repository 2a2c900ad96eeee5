package statusapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/signalsfoundry/los-sampler/internal/logging"
	"github.com/signalsfoundry/los-sampler/internal/sampler"
	"github.com/signalsfoundry/los-sampler/model"
)

type staticSource struct {
	snap sampler.Snapshot
}

func (s staticSource) Snapshot() sampler.Snapshot { return s.snap }

func TestStatusReturnsSnapshot(t *testing.T) {
	src := staticSource{snap: sampler.Snapshot{
		RunID:      "run-1",
		Frame:      12,
		State:      model.AnimationState{Segment: 1, Frame: 2},
		Position:   model.Point{X: 3, Y: 4, Z: 5},
		Visibility: model.VisibilityVisible,
		Text:       model.VisibilityVisible.StatusText(),
		Selected:   true,
	}}
	router := NewHandler(src, nil).Router(nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("/status code = %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q", ct)
	}
	var got sampler.Snapshot
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != src.snap {
		t.Fatalf("snapshot = %+v, want %+v", got, src.snap)
	}
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	metricsCalled := false
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metricsCalled = true
		w.WriteHeader(http.StatusOK)
	})
	router := NewHandler(staticSource{}, nil).Router(metrics)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("/healthz code = %d, want 200", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK || !metricsCalled {
		t.Fatalf("/metrics not served (code %d)", rr.Code)
	}
}

func TestStatusRejectsWrongMethod(t *testing.T) {
	router := NewHandler(staticSource{}, nil).Router(nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/status", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /status code = %d, want 405", rr.Code)
	}
}

// brokenWriter fails every body write, like a client that hung up.
type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestWriteFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithWriter(logging.Config{Level: "debug", Format: "json"}, &buf)
	router := NewHandler(staticSource{}, log).Router(nil)

	router.ServeHTTP(brokenWriter{httptest.NewRecorder()}, httptest.NewRequest(http.MethodGet, "/status", nil))

	out := buf.String()
	if !strings.Contains(out, "write response") || !strings.Contains(out, "connection reset") {
		t.Fatalf("expected write failure in log, got %q", out)
	}
	if !strings.Contains(out, `"path":"/status"`) {
		t.Fatalf("expected request path in log, got %q", out)
	}
}
