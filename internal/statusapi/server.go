package statusapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/signalsfoundry/los-sampler/internal/logging"
	"github.com/signalsfoundry/los-sampler/internal/sampler"
)

// SnapshotSource is what the status endpoint reports on.
type SnapshotSource interface {
	Snapshot() sampler.Snapshot
}

// Handler serves the sampler's status for UI consumers.
type Handler struct {
	source SnapshotSource
	log    logging.Logger
}

// NewHandler constructs a Handler.
func NewHandler(source SnapshotSource, log logging.Logger) *Handler {
	if log == nil {
		log = logging.Noop()
	}
	return &Handler{source: source, log: log}
}

// Router mounts /status, /healthz and, when metrics is non-nil, /metrics.
func (h *Handler) Router(metrics http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/status", h.Status).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	if metrics != nil {
		r.Handle("/metrics", metrics).Methods(http.MethodGet)
	}
	return r
}

// Status writes the current snapshot as JSON.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, h.source.Snapshot())
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// Serve runs an HTTP server on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler, log logging.Logger) error {
	if log == nil {
		log = logging.Noop()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "status api listening", logging.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn(ctx, "status api shutdown failed", logging.Err(err))
			return err
		}
		return nil
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn(r.Context(), "write response", logging.String("path", r.URL.Path), logging.Err(err))
	}
}
