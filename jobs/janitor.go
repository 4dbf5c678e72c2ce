package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Janitor removes finished jobs older than a retention period together with
// their upload directories.
type Janitor struct {
	store     Store
	uploads   string
	retention time.Duration
	log       zerolog.Logger
	now       func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// NewJanitor creates a janitor. uploads is the directory holding one
// subdirectory per job ID; it may be empty when nothing is uploaded.
func NewJanitor(store Store, uploads string, retention time.Duration, log zerolog.Logger) *Janitor {
	return &Janitor{
		store:     store,
		uploads:   uploads,
		retention: retention,
		log:       log.With().Str("component", "janitor").Logger(),
		now:       time.Now,
	}
}

// Sweep deletes expired jobs once and returns how many were removed.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	cutoff := j.now().UTC().Add(-j.retention)
	removed, err := j.store.DeleteFinishedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	for _, job := range removed {
		if j.uploads == "" {
			continue
		}
		dir := filepath.Join(j.uploads, filepath.Base(job.ID))
		if err := os.RemoveAll(dir); err != nil {
			j.log.Warn().Err(err).Str("job_id", job.ID).Msg("failed to remove upload directory")
		}
	}

	if len(removed) > 0 {
		j.log.Info().Int("removed", len(removed)).Time("cutoff", cutoff).Msg("expired jobs removed")
	}
	return len(removed), nil
}

// Start runs Sweep on a cron schedule (e.g. "@hourly" or "0 */15 * * * *").
// Expressions accept an optional leading seconds field.
func (j *Janitor) Start(schedule string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cron != nil {
		return fmt.Errorf("janitor already started")
	}

	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser))
	if _, err := c.AddFunc(schedule, func() {
		if _, err := j.Sweep(context.Background()); err != nil {
			j.log.Error().Err(err).Msg("sweep failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	c.Start()
	j.cron = c
	j.log.Info().Str("schedule", schedule).Dur("retention", j.retention).Msg("janitor started")
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	j.mu.Lock()
	c := j.cron
	j.cron = nil
	j.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}
