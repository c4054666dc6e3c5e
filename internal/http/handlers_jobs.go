package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ragforge/console/internal/domain/model"
	"github.com/ragforge/console/internal/service"
)

// JobService is the application surface the job handlers expose over HTTP.
type JobService interface {
	StartJob(ctx context.Context, req model.StartJobRequest) (*service.StartResult, error)
	GetJob(ctx context.Context, jobID string) (model.Job, error)
	CancelJob(ctx context.Context, jobID string) (bool, error)
	RecentRuns(ctx context.Context, kind *model.JobKind, limit int) ([]model.JobRun, error)
	Subscribe(jobID string) (<-chan model.Job, func(), error)
}

// JobHandlers bundles the job endpoints and their dependencies.
type JobHandlers struct {
	Svc JobService
	// KeepAlive is the interval between comment frames on event streams.
	// Zero disables keep-alives.
	KeepAlive time.Duration
}

type startJobBody struct {
	Params map[string]any `json:"params"`
}

// Start handles POST /api/jobs/{kind}/start. The body is an optional JSON
// object carrying job parameters.
func (h *JobHandlers) Start(w http.ResponseWriter, r *http.Request) {
	var kind model.JobKind
	if err := kind.UnmarshalText([]byte(r.PathValue("kind"))); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_kind", Err: err})
		return
	}

	var body startJobBody
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return
	}

	res, err := h.Svc.StartJob(r.Context(), model.StartJobRequest{Kind: kind, Params: body.Params})
	if err != nil {
		WriteAppError(w, err)
		return
	}

	code := http.StatusAccepted
	if res.Attached {
		code = http.StatusOK
	}
	WriteJSON(w, code, res)
}

// Status handles GET /api/jobs/{id}/status.
func (h *JobHandlers) Status(w http.ResponseWriter, r *http.Request) {
	job, err := h.Svc.GetJob(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// Cancel handles POST /api/jobs/{id}/cancel. Cancellation is best-effort;
// the response only acknowledges that the backend accepted the request.
func (h *JobHandlers) Cancel(w http.ResponseWriter, r *http.Request) {
	ok, err := h.Svc.CancelJob(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, model.CancelJobResponse{OK: ok})
}

// Runs handles GET /api/jobs/runs?kind=&limit=.
func (h *JobHandlers) Runs(w http.ResponseWriter, r *http.Request) {
	var kind *model.JobKind
	if raw := r.URL.Query().Get("kind"); raw != "" {
		var k model.JobKind
		if err := k.UnmarshalText([]byte(raw)); err != nil {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_kind", Err: err})
			return
		}
		kind = &k
	}

	limit, ok := parseIntQuery(w, r, "limit")
	if !ok {
		return
	}

	runs, err := h.Svc.RecentRuns(r.Context(), kind, limit)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	if runs == nil {
		runs = []model.JobRun{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// parseIntQuery parses an optional non-negative integer query parameter.
// Returns (0, true) when the parameter is absent.
func parseIntQuery(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_query",
			Err:     errors.New(name + " must be a non-negative integer"),
		})
		return 0, false
	}
	return v, true
}
