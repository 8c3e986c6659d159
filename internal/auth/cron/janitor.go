package cronjob

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/smithos/smithos-backend/internal/clock"
)

// DefaultSchedule runs at the top of every hour.
const DefaultSchedule = "0 0 * * * *"

// Pruner removes session index entries idle since before cutoff.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}

// Janitor periodically prunes sessions older than the session lifetime.
type Janitor struct {
	pruner   Pruner
	maxAge   time.Duration
	schedule string
	clock    clock.Clock
	log      *zap.Logger
	pruned   prometheus.Counter
	cron     *cron.Cron
}

type Option func(*Janitor)

// WithPrunedCounter adds every run's removals to c.
func WithPrunedCounter(c prometheus.Counter) Option { return func(j *Janitor) { j.pruned = c } }

func NewJanitor(pruner Pruner, maxAge time.Duration, schedule string, log *zap.Logger, opts ...Option) *Janitor {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if log == nil {
		log = zap.NewNop()
	}
	j := &Janitor{
		pruner:   pruner,
		maxAge:   maxAge,
		schedule: schedule,
		clock:    clock.Real(),
		log:      log.Named("session-janitor"),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Start initializes cron tasks
func (j *Janitor) Start() error {
	c := cron.New(cron.WithSeconds())

	if _, err := c.AddFunc(j.schedule, func() {
		if _, err := j.RunOnce(context.Background()); err != nil {
			j.log.Error("session cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("failed to create cron job: %w", err)
	}

	j.cron = c
	c.Start()
	j.log.Info("cron scheduler started", zap.String("schedule", j.schedule))
	return nil
}

// Stop halts the scheduler and waits for a running cleanup to finish, or for
// ctx to end.
func (j *Janitor) Stop(ctx context.Context) {
	if j.cron == nil {
		return
	}
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RunOnce prunes immediately and returns the number of entries removed.
func (j *Janitor) RunOnce(ctx context.Context) (int, error) {
	cutoff := j.clock.Now().Add(-j.maxAge)
	removed, err := j.pruner.Prune(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if j.pruned != nil {
		j.pruned.Add(float64(removed))
	}
	j.log.Info("session cleanup completed", zap.Int("removed", removed), zap.Time("cutoff", cutoff))
	return removed, nil
}
