package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Hillway-UK/union-clock-sub000/internal/models"
)

// ReferenceRepository reads administrator-owned job-site and worker rows.
// The engine never writes reference data.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository builds the repository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// FindJobSite returns the job site or nil when it does not exist.
func (r *ReferenceRepository) FindJobSite(ctx context.Context, id string) (*models.JobSite, error) {
	query := `SELECT id, name, latitude, longitude, radius_m FROM job_sites WHERE id = $1`
	var site models.JobSite
	if err := r.db.GetContext(ctx, &site, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find job site: %w", err)
	}
	return &site, nil
}

// FindWorker returns the worker or nil when it does not exist.
func (r *ReferenceRepository) FindWorker(ctx context.Context, id string) (*models.Worker, error) {
	query := `SELECT id, full_name, shift_end FROM workers WHERE id = $1`
	var worker models.Worker
	if err := r.db.GetContext(ctx, &worker, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find worker: %w", err)
	}
	return &worker, nil
}

type referenceReader interface {
	FindJobSite(ctx context.Context, id string) (*models.JobSite, error)
	FindWorker(ctx context.Context, id string) (*models.Worker, error)
}

// CachedReferenceRepository fronts reference reads with Redis. Reference
// rows are fetched on every reported fix, so a short TTL cache takes the
// hot path off Postgres. Cache failures fall through to the database.
type CachedReferenceRepository struct {
	inner  referenceReader
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedReferenceRepository wraps inner with a Redis cache.
func NewCachedReferenceRepository(inner referenceReader, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedReferenceRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedReferenceRepository{inner: inner, client: client, ttl: ttl, logger: logger}
}

// FindJobSite reads through the cache.
func (r *CachedReferenceRepository) FindJobSite(ctx context.Context, id string) (*models.JobSite, error) {
	key := "ref:job_site:" + id
	var cached models.JobSite
	if r.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}
	site, err := r.inner.FindJobSite(ctx, id)
	if err != nil || site == nil {
		return site, err
	}
	r.cacheSet(ctx, key, site)
	return site, nil
}

// FindWorker reads through the cache.
func (r *CachedReferenceRepository) FindWorker(ctx context.Context, id string) (*models.Worker, error) {
	key := "ref:worker:" + id
	var cached models.Worker
	if r.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}
	worker, err := r.inner.FindWorker(ctx, id)
	if err != nil || worker == nil {
		return worker, err
	}
	r.cacheSet(ctx, key, worker)
	return worker, nil
}

func (r *CachedReferenceRepository) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if r.client == nil {
		return false
	}
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Sugar().Debugw("reference cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		r.logger.Sugar().Warnw("reference cache payload corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (r *CachedReferenceRepository) cacheSet(ctx context.Context, key string, value interface{}) {
	if r.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		r.logger.Sugar().Debugw("reference cache write failed", "key", key, "error", err)
	}
}
