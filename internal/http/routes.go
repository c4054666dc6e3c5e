package httpx

import (
	"log/slog"
	"net/http"
	"time"
)

// RouterServices carries the dependencies the router wires into handlers.
type RouterServices struct {
	Jobs   JobService
	Logger *slog.Logger
	// SSEKeepAlive is the comment-frame interval on event streams.
	SSEKeepAlive time.Duration
	// Health checks are probed by /healthz.
	Health []HealthCheck
}

// NewRouter builds the console's HTTP API.
func NewRouter(svcs RouterServices) http.Handler {
	logger := svcs.Logger
	if logger == nil {
		logger = slog.Default()
	}

	jobs := &JobHandlers{Svc: svcs.Jobs, KeepAlive: svcs.SSEKeepAlive}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/jobs/{kind}/start", jobs.Start)
	mux.HandleFunc("GET /api/jobs/runs", jobs.Runs)
	mux.HandleFunc("GET /api/jobs/{id}/status", jobs.Status)
	mux.HandleFunc("GET /api/jobs/{id}/events", jobs.Events)
	mux.HandleFunc("POST /api/jobs/{id}/cancel", jobs.Cancel)

	health := HealthHandler(svcs.Health)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)

	var handler http.Handler = mux
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}
