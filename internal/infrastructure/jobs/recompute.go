// Package jobs holds background work that runs on a schedule: the order
// status recompute sweep and the channel sync trigger.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"

	"craftflow/internal/domain/orders"
	"craftflow/pkg/logger"
)

const recomputeLockKey = "jobs:status-recompute"

// RecomputeJob periodically re-derives the status of every active order so
// stock received outside the request path still moves orders forward. A
// distributed lock keeps concurrent workers from sweeping the same orders.
type RecomputeJob struct {
	locker     *redislock.Client
	ordersRepo orders.Repository
	aggregator *orders.StatusAggregator

	// LockTTL bounds how long one sweep may hold the lock
	LockTTL time.Duration
}

// NewRecomputeJob creates the sweep job.
func NewRecomputeJob(
	locker *redislock.Client,
	ordersRepo orders.Repository,
	aggregator *orders.StatusAggregator,
) *RecomputeJob {
	return &RecomputeJob{
		locker:     locker,
		ordersRepo: ordersRepo,
		aggregator: aggregator,
		LockTTL:    2 * time.Minute,
	}
}

// Run executes one sweep. If another worker holds the lock the run is
// skipped, not an error.
func (j *RecomputeJob) Run(ctx context.Context) error {
	lock, err := j.locker.Obtain(ctx, recomputeLockKey, j.LockTTL, nil)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			logger.Debug(ctx, "recompute sweep already running elsewhere")
			return nil
		}
		return err
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil &&
			!errors.Is(err, redislock.ErrLockNotHeld) {
			logger.Warn(ctx, "recompute lock release failed", "error", err)
		}
	}()

	return j.sweep(ctx)
}

func (j *RecomputeJob) sweep(ctx context.Context) error {
	active, err := j.ordersRepo.ListActive(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	var failed int
	for _, order := range active {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := j.aggregator.RecomputeOrder(ctx, order.ID); err != nil {
			logger.Error(ctx, "order recompute failed",
				"order_id", order.ID,
				"error", err,
			)
			failed++
		}
	}

	logger.Info(ctx, "recompute sweep finished",
		"orders", len(active),
		"failed", failed,
		"took", time.Since(start),
	)
	return nil
}
