package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/wb-go/wbf/zlog"
)

type aggregator interface {
	RecomputeRecent(ctx context.Context)
}

type cleaner interface {
	Run(ctx context.Context)
}

// Scheduler drives the periodic maintenance tasks: metrics recomputation
// every four hours and a daily retention sweep.
type Scheduler struct {
	cron       *cron.Cron
	aggregator aggregator
	cleaner    cleaner
}

func New(a aggregator, c cleaner) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		aggregator: a,
		cleaner:    c,
	}
}

// Start registers the maintenance jobs and starts the cron loop. Jobs stop
// firing once ctx is cancelled via Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc("@every 4h", func() {
		s.aggregator.RecomputeRecent(ctx)
	})
	if err != nil {
		return err
	}

	_, err = s.cron.AddFunc("@daily", func() {
		s.cleaner.Run(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	zlog.Logger.Info().Msg("maintenance scheduler started")
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	zlog.Logger.Info().Msg("maintenance scheduler stopped")
}
