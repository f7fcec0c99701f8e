package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const OrphanCleanupJobName = "orphan-blob-cleanup"

// OrphanCleanupJob sweeps gallery blobs whose metadata write and
// compensating delete both failed.
type OrphanCleanupJob struct {
	media    MediaService
	interval time.Duration
}

func NewOrphanCleanupJob(media MediaService, interval time.Duration) *OrphanCleanupJob {
	if interval <= 0 {
		interval = 12 * time.Hour
	}
	return &OrphanCleanupJob{media: media, interval: interval}
}

func (j *OrphanCleanupJob) Name() string {
	return OrphanCleanupJobName
}

func (j *OrphanCleanupJob) Schedule() string {
	return "@every " + j.interval.String()
}

func (j *OrphanCleanupJob) Run(ctx context.Context) error {
	n, err := j.media.CleanupOrphanBlobs(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("cleaned", n).Msg("orphan blob cleanup completed")
	return nil
}
