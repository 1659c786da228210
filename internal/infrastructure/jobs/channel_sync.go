package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"

	"craftflow/internal/infrastructure/channel"
	"craftflow/pkg/logger"
)

const channelSyncLockKey = "jobs:channel-sync"

// ChannelSyncJob runs the channel import under a distributed lock so only
// one worker pulls the feed at a time.
type ChannelSyncJob struct {
	locker *redislock.Client
	sync   *channel.SyncService

	LockTTL time.Duration
}

func NewChannelSyncJob(locker *redislock.Client, sync *channel.SyncService) *ChannelSyncJob {
	return &ChannelSyncJob{
		locker:  locker,
		sync:    sync,
		LockTTL: 5 * time.Minute,
	}
}

// Run executes one import. A held lock means another worker is syncing
// and the run is skipped.
func (j *ChannelSyncJob) Run(ctx context.Context) error {
	lock, err := j.locker.Obtain(ctx, channelSyncLockKey, j.LockTTL, nil)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			logger.Debug(ctx, "channel sync already running elsewhere")
			return nil
		}
		return err
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil &&
			!errors.Is(err, redislock.ErrLockNotHeld) {
			logger.Warn(ctx, "channel sync lock release failed", "error", err)
		}
	}()

	report, err := j.sync.Sync(ctx)
	if err != nil {
		logger.Error(ctx, "channel sync aborted",
			"created", report.Created,
			"updated", report.Updated,
			"failed", report.Failed,
			"error", err,
		)
		return err
	}
	return nil
}
