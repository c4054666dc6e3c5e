// Package service contains the console's application services.
package service

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ragforge/console/config"
	"github.com/ragforge/console/internal/data"
	"github.com/ragforge/console/internal/domain/model"
	apperrors "github.com/ragforge/console/internal/errors"
	"github.com/ragforge/console/internal/jobwatch"
)

const (
	// subscriberBuffer bounds each SSE subscriber channel. Slow readers drop
	// intermediate snapshots, never the terminal one.
	subscriberBuffer = 16
	// cacheWriteTimeout bounds the snapshot write-through so a slow Redis
	// cannot stall event delivery.
	cacheWriteTimeout = 2 * time.Second
)

// BackendClient is the subset of the backend API the watch service uses.
type BackendClient interface {
	Start(ctx context.Context, req model.StartJobRequest) (model.StartJobResponse, error)
	Status(ctx context.Context, kind model.JobKind, jobID string) (model.StatusSnapshot, error)
	Cancel(ctx context.Context, kind model.JobKind, jobID string) (bool, error)
	StreamURL(kind model.JobKind, jobID string) string
	StatusURL(kind model.JobKind, jobID string) string
}

// SnapshotCache is the subset of the Redis cache the watch service uses.
type SnapshotCache interface {
	Put(ctx context.Context, job model.Job) error
	Get(ctx context.Context, jobID string) (*model.Job, error)
	ClaimWatch(ctx context.Context, kind model.JobKind, jobID string, ttl time.Duration) (bool, error)
	RefreshWatch(ctx context.Context, kind model.JobKind, ttl time.Duration) (bool, error)
	ActiveWatch(ctx context.Context, kind model.JobKind) (string, error)
	ReleaseWatch(ctx context.Context, kind model.JobKind) error
}

// RunRecorder is the subset of the history repository the watch service uses.
type RunRecorder interface {
	Insert(ctx context.Context, run *model.JobRun) (*model.JobRun, error)
	GetByJobID(ctx context.Context, jobID string) (*model.JobRun, error)
	Recent(ctx context.Context, opts data.RecentRunsOptions) ([]model.JobRun, error)
}

// WatchServiceOptions configure a WatchService.
type WatchServiceOptions struct {
	Backend BackendClient
	Cache   SnapshotCache
	History RunRecorder
	Config  config.WatchConfig
	Logger  *slog.Logger
	Metrics jobwatch.Metrics
	// Client is used by the stream and poll transports. Stream connections
	// are long-lived, so it must not carry a global timeout.
	Client *http.Client
}

// WatchService owns one watch session per running job: it starts jobs on the
// backend, tracks their progress through the jobwatch machinery, fans
// snapshots out to SSE subscribers, writes them through to the cache, and
// records terminal states in history.
type WatchService struct {
	backend BackendClient
	cache   SnapshotCache
	history RunRecorder
	cfg     config.WatchConfig
	logger  *slog.Logger
	metrics jobwatch.Metrics
	client  *http.Client

	mu       sync.Mutex
	sessions map[string]*watchSession            // by job id
	byKind   map[model.JobKind]*watchSession     // at most one session per kind
	nextSub  int
	closed   bool
}

type watchSession struct {
	jobID     string
	kind      model.JobKind
	watcher   *jobwatch.Watcher
	startedAt time.Time

	mu          sync.Mutex
	subscribers map[int]chan model.Job
	terminal    bool
}

// NewWatchService creates a WatchService.
func NewWatchService(opts WatchServiceOptions) *WatchService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	return &WatchService{
		backend:  opts.Backend,
		cache:    opts.Cache,
		history:  opts.History,
		cfg:      opts.Config,
		logger:   logger,
		metrics:  opts.Metrics,
		client:   client,
		sessions: make(map[string]*watchSession),
		byKind:   make(map[model.JobKind]*watchSession),
	}
}

// StartResult reports the outcome of StartJob.
type StartResult struct {
	JobID string `json:"job_id"`
	// Attached is true when the backend refused a duplicate start and the
	// console attached to the run already in flight instead.
	Attached bool `json:"attached"`
}

// StartJob asks the backend to start a job and begins watching it. When a run
// of the same kind is already in flight, the existing run's id is returned
// with Attached set rather than an error, so callers converge on the live
// run. A conflict without a job id to attach to surfaces as AlreadyRunning.
func (s *WatchService) StartJob(ctx context.Context, req model.StartJobRequest) (*StartResult, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	// A local session for this kind means the run is already being watched.
	s.mu.Lock()
	if existing, ok := s.byKind[req.Kind]; ok {
		jobID := existing.jobID
		s.mu.Unlock()
		return &StartResult{JobID: jobID, Attached: true}, nil
	}
	s.mu.Unlock()

	// Another console instance may hold the watch claim.
	if activeID, err := s.cache.ActiveWatch(ctx, req.Kind); err != nil {
		s.logger.Warn("watch claim lookup failed", "kind", string(req.Kind), "error", err)
	} else if activeID != "" {
		return nil, apperrors.AlreadyRunning(string(req.Kind)+" job already running", activeID)
	}

	resp, err := s.backend.Start(ctx, req)
	if err != nil {
		if apperrors.IsAlreadyRunning(err) && apperrors.GetJobID(err) != "" {
			jobID := apperrors.GetJobID(err)
			if _, watchErr := s.ensureSession(ctx, req.Kind, jobID); watchErr != nil {
				return nil, watchErr
			}
			return &StartResult{JobID: jobID, Attached: true}, nil
		}
		return nil, err
	}

	if _, err := s.ensureSession(ctx, req.Kind, resp.JobID); err != nil {
		return nil, err
	}
	return &StartResult{JobID: resp.JobID}, nil
}

// ensureSession returns the session for jobID, starting a watch if needed.
func (s *WatchService) ensureSession(ctx context.Context, kind model.JobKind, jobID string) (*watchSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, apperrors.Unavailable("watch service is shutting down", nil)
	}
	if sess, ok := s.sessions[jobID]; ok {
		return sess, nil
	}

	sess := &watchSession{
		jobID:       jobID,
		kind:        kind,
		startedAt:   time.Now(),
		subscribers: make(map[int]chan model.Job),
	}

	// Watch lifetime is governed by the job, not the start request.
	watcher, err := jobwatch.Start(context.Background(), jobwatch.Options{
		JobID: jobID,
		Kind:  kind,
		Stream: &jobwatch.StreamTransport{
			URL:    s.backend.StreamURL(kind, jobID),
			Client: s.client,
			Logger: s.logger,
		},
		Poll: &jobwatch.PollTransport{
			URL:      s.backend.StatusURL(kind, jobID),
			Client:   s.client,
			Interval: s.cfg.PollInterval,
			Logger:   s.logger,
		},
		StaleAfter: s.cfg.StaleAfter,
		OnUpdate:   func(job model.Job) { s.broadcast(sess, job) },
		Logger:     s.logger,
		Metrics:    s.metrics,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "start watch")
	}
	sess.watcher = watcher
	s.sessions[jobID] = sess
	s.byKind[kind] = sess

	claimTTL := s.claimTTL()
	if ok, err := s.cache.ClaimWatch(ctx, kind, jobID, claimTTL); err != nil {
		s.logger.Warn("watch claim failed", "job_id", jobID, "error", err)
	} else if !ok {
		s.logger.Debug("watch claim already held", "job_id", jobID, "kind", string(kind))
	}

	s.logger.Info("watch started",
		"job_id", jobID,
		"kind", string(kind),
		"poll_interval", s.cfg.PollInterval,
		"stale_after", s.cfg.StaleAfter)
	return sess, nil
}

func (s *WatchService) claimTTL() time.Duration {
	ttl := 2 * s.cfg.StaleAfter
	if ttl <= 0 {
		ttl = time.Minute
	}
	return ttl
}

// broadcast runs on the watcher's event goroutine for every accepted
// snapshot: write-through to the cache, fan out to subscribers, and on a
// terminal snapshot record history and retire the session.
func (s *WatchService) broadcast(sess *watchSession, job model.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
	defer cancel()

	if err := s.cache.Put(ctx, job); err != nil {
		s.logger.Warn("snapshot cache write failed", "job_id", job.ID, "error", err)
	}
	if !job.Status.Terminal() {
		if _, err := s.cache.RefreshWatch(ctx, sess.kind, s.claimTTL()); err != nil {
			s.logger.Debug("watch claim refresh failed", "job_id", job.ID, "error", err)
		}
	}

	sess.mu.Lock()
	for _, ch := range sess.subscribers {
		pushLatest(ch, job)
	}
	if job.Status.Terminal() {
		sess.terminal = true
		for id, ch := range sess.subscribers {
			close(ch)
			delete(sess.subscribers, id)
		}
	}
	sess.mu.Unlock()

	if job.Status.Terminal() {
		s.finishSession(ctx, sess, job)
	}
}

func (s *WatchService) finishSession(ctx context.Context, sess *watchSession, job model.Job) {
	if err := s.cache.ReleaseWatch(ctx, sess.kind); err != nil {
		s.logger.Warn("watch claim release failed", "job_id", job.ID, "error", err)
	}

	if s.history != nil {
		run := &model.JobRun{
			JobID:      job.ID,
			Kind:       job.Kind,
			Status:     job.Status,
			Stage:      job.Stage,
			Done:       job.Progress.Done,
			Total:      job.Progress.Total,
			Pct:        job.Progress.Pct,
			Message:    job.Message,
			Error:      job.Error,
			StartedAt:  sess.startedAt,
			FinishedAt: job.UpdatedAt,
		}
		if _, err := s.history.Insert(ctx, run); err != nil {
			s.logger.Error("recording job run failed", "job_id", job.ID, "error", err)
		}
	}

	s.mu.Lock()
	delete(s.sessions, sess.jobID)
	if s.byKind[sess.kind] == sess {
		delete(s.byKind, sess.kind)
	}
	s.mu.Unlock()

	s.logger.Info("watch finished",
		"job_id", job.ID,
		"kind", string(job.Kind),
		"status", string(job.Status),
		"elapsed", time.Since(sess.startedAt))
}

// pushLatest delivers with latest-wins semantics: a full subscriber buffer
// drops its oldest snapshot rather than blocking the event path.
func pushLatest(ch chan model.Job, job model.Job) {
	for {
		select {
		case ch <- job:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// GetJob returns the current snapshot for a job: the live session if one is
// active, then the snapshot cache, then recorded history.
func (s *WatchService) GetJob(ctx context.Context, jobID string) (model.Job, error) {
	if jobID == "" {
		return model.Job{}, apperrors.Validation("job id is required")
	}

	s.mu.Lock()
	sess, live := s.sessions[jobID]
	s.mu.Unlock()
	if live {
		return sess.watcher.Snapshot(), nil
	}

	cached, err := s.cache.Get(ctx, jobID)
	if err != nil {
		s.logger.Warn("snapshot cache read failed", "job_id", jobID, "error", err)
	} else if cached != nil {
		return *cached, nil
	}

	if s.history != nil {
		run, err := s.history.GetByJobID(ctx, jobID)
		if err == nil {
			return jobFromRun(run), nil
		}
		if !apperrors.IsNotFound(err) {
			return model.Job{}, err
		}
	}

	return model.Job{}, apperrors.NotFoundf("job %s not found", jobID)
}

func jobFromRun(run *model.JobRun) model.Job {
	return model.Job{
		ID:     run.JobID,
		Kind:   run.Kind,
		Status: run.Status,
		Stage:  run.Stage,
		Progress: model.Progress{
			Done:  run.Done,
			Total: run.Total,
			Pct:   run.Pct,
		},
		Message:   run.Message,
		Error:     run.Error,
		UpdatedAt: run.FinishedAt,
	}
}

// Subscribe registers for snapshot updates on a live watch. The returned
// channel receives every snapshot the subscriber keeps up with and closes
// after the terminal snapshot. The unsubscribe function is idempotent.
func (s *WatchService) Subscribe(jobID string) (<-chan model.Job, func(), error) {
	s.mu.Lock()
	sess, ok := s.sessions[jobID]
	if ok {
		s.nextSub++
	}
	id := s.nextSub
	s.mu.Unlock()

	if !ok {
		return nil, nil, apperrors.NotFoundf("no active watch for job %s", jobID)
	}

	ch := make(chan model.Job, subscriberBuffer)

	sess.mu.Lock()
	if sess.terminal {
		sess.mu.Unlock()
		return nil, nil, apperrors.NotFoundf("no active watch for job %s", jobID)
	}
	sess.subscribers[id] = ch
	sess.mu.Unlock()

	// Prime with the current snapshot so subscribers render immediately.
	pushLatest(ch, sess.watcher.Snapshot())

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			sess.mu.Lock()
			if _, still := sess.subscribers[id]; still {
				delete(sess.subscribers, id)
				close(ch)
			}
			sess.mu.Unlock()
		})
	}
	return ch, unsub, nil
}

// CancelJob asks the backend to stop a job. Cancellation is best-effort: an
// acknowledged cancel does not end the watch, which runs on until the
// terminal cancelled event arrives from the backend.
func (s *WatchService) CancelJob(ctx context.Context, jobID string) (bool, error) {
	if jobID == "" {
		return false, apperrors.Validation("job id is required")
	}

	kind, err := s.kindForJob(ctx, jobID)
	if err != nil {
		return false, err
	}

	ok, err := s.backend.Cancel(ctx, kind, jobID)
	if err != nil {
		return false, err
	}
	s.logger.Info("cancel requested", "job_id", jobID, "kind", string(kind), "acknowledged", ok)
	return ok, nil
}

func (s *WatchService) kindForJob(ctx context.Context, jobID string) (model.JobKind, error) {
	s.mu.Lock()
	sess, ok := s.sessions[jobID]
	s.mu.Unlock()
	if ok {
		return sess.kind, nil
	}

	cached, err := s.cache.Get(ctx, jobID)
	if err == nil && cached != nil {
		return cached.Kind, nil
	}
	return "", apperrors.NotFoundf("job %s not found", jobID)
}

// RecentRuns lists recorded terminal runs, newest first.
func (s *WatchService) RecentRuns(ctx context.Context, kind *model.JobKind, limit int) ([]model.JobRun, error) {
	if s.history == nil {
		return nil, apperrors.Unavailable("run history is not configured", nil)
	}
	return s.history.Recent(ctx, data.RecentRunsOptions{Kind: kind, Limit: limit})
}

// ActiveWatches returns the ids of jobs currently being watched.
func (s *WatchService) ActiveWatches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Close stops all active watches. Used during shutdown; in-flight jobs keep
// running on the backend and can be re-attached after restart.
func (s *WatchService) Close() {
	s.mu.Lock()
	s.closed = true
	watchers := make([]*jobwatch.Watcher, 0, len(s.sessions))
	for _, sess := range s.sessions {
		watchers = append(watchers, sess.watcher)
	}
	s.mu.Unlock()

	for _, w := range watchers {
		w.Stop()
		<-w.Done()
	}
}
