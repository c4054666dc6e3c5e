package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ragforge/console/internal/domain/model"
)

const (
	snapshotKeyPrefix = "console:job:"
	watchKeyPrefix    = "console:watch:"
)

// SnapshotCacheRepo stores the latest job snapshot per job id so reconnecting
// browsers render current state immediately instead of waiting for the next
// event. Snapshots expire on their own; the cache is never the source of
// truth, just a warm start.
type SnapshotCacheRepo struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewSnapshotCacheRepo creates a SnapshotCacheRepo with the given client and
// snapshot TTL.
func NewSnapshotCacheRepo(client redis.UniversalClient, ttl time.Duration) *SnapshotCacheRepo {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SnapshotCacheRepo{client: client, ttl: ttl}
}

func snapshotKey(jobID string) string {
	return snapshotKeyPrefix + jobID
}

func watchKey(kind model.JobKind) string {
	return watchKeyPrefix + string(kind)
}

// Put stores a job snapshot, refreshing its TTL.
func (r *SnapshotCacheRepo) Put(ctx context.Context, job model.Job) error {
	if job.ID == "" {
		return errors.New("job id cannot be empty")
	}

	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job snapshot: %w", err)
	}

	return r.client.Set(ctx, snapshotKey(job.ID), raw, r.ttl).Err()
}

// Get retrieves the cached snapshot for a job. A cache miss returns (nil, nil).
func (r *SnapshotCacheRepo) Get(ctx context.Context, jobID string) (*model.Job, error) {
	if jobID == "" {
		return nil, errors.New("job id cannot be empty")
	}

	raw, err := r.client.Get(ctx, snapshotKey(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var job model.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("decode job snapshot: %w", err)
	}
	return &job, nil
}

// Delete removes a cached snapshot.
func (r *SnapshotCacheRepo) Delete(ctx context.Context, jobID string) (bool, error) {
	if jobID == "" {
		return false, errors.New("job id cannot be empty")
	}

	n, err := r.client.Del(ctx, snapshotKey(jobID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	return n > 0, nil
}

// ClaimWatch atomically records that this console instance is watching a job
// of the given kind. Returns false when another watch already holds the claim.
// The claim carries the job id so late joiners can attach to the live run.
func (r *SnapshotCacheRepo) ClaimWatch(ctx context.Context, kind model.JobKind, jobID string, ttl time.Duration) (bool, error) {
	if jobID == "" {
		return false, errors.New("job id cannot be empty")
	}
	if ttl <= 0 {
		ttl = time.Second
	}

	// SET NX with TTL is the only atomic form; SETNX plus EXPIRE races.
	status, err := r.client.SetArgs(ctx, watchKey(kind), jobID, redis.SetArgs{Mode: "NX", TTL: ttl}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis SET NX: %w", err)
	}
	return status == "OK", nil
}

// RefreshWatch extends a held claim while the watch is still alive.
func (r *SnapshotCacheRepo) RefreshWatch(ctx context.Context, kind model.JobKind, ttl time.Duration) (bool, error) {
	ok, err := r.client.Expire(ctx, watchKey(kind), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis expire: %w", err)
	}
	return ok, nil
}

// ActiveWatch returns the job id holding the watch claim for a kind, or empty
// when no watch is active.
func (r *SnapshotCacheRepo) ActiveWatch(ctx context.Context, kind model.JobKind) (string, error) {
	jobID, err := r.client.Get(ctx, watchKey(kind)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis get: %w", err)
	}
	return jobID, nil
}

// ReleaseWatch drops the claim once a watch reaches a terminal state.
func (r *SnapshotCacheRepo) ReleaseWatch(ctx context.Context, kind model.JobKind) error {
	return r.client.Del(ctx, watchKey(kind)).Err()
}

// Health checks the Redis connection.
func (r *SnapshotCacheRepo) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
