package cronjob

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Pruner removes stored assets no project references.
type Pruner interface {
	PruneAssets(ctx context.Context, dryRun bool) ([]string, error)
}

type Scheduler struct {
	cron    *cron.Cron
	log     *zap.Logger
	timeout time.Duration
}

func NewScheduler(log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:     log,
		timeout: 5 * time.Minute,
	}
}

// SchedulePrune registers the asset prune job. spec uses the six-field
// (with seconds) cron format, e.g. "0 0 3 * * *" for 03:00 every night.
func (s *Scheduler) SchedulePrune(spec string, p Pruner) error {
	if _, err := s.cron.AddFunc(spec, func() { s.runPrune(p) }); err != nil {
		return fmt.Errorf("schedule asset prune %q: %w", spec, err)
	}
	s.log.Info("asset prune scheduled", zap.String("schedule", spec))
	return nil
}

// Start initializes cron tasks
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("cron jobs still running at shutdown")
	}
}

func (s *Scheduler) runPrune(p Pruner) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	removed, err := p.PruneAssets(ctx, false)
	if err != nil {
		s.log.Error("asset prune failed", zap.Error(err))
		return
	}
	s.log.Info("asset prune completed",
		zap.Int("removed", len(removed)),
		zap.Duration("took", time.Since(start)),
	)
}
