package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const reconcileJobTimeout = 5 * time.Minute

// ReconcileScheduler runs a job on a cron schedule in the configured time zone
type ReconcileScheduler struct {
	cron *cron.Cron
	log  *logrus.Logger
}

func NewReconcileScheduler(spec string, loc *time.Location, log *logrus.Logger, job func(ctx context.Context) error) (*ReconcileScheduler, error) {
	cronLogger := cron.PrintfLogger(log)
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reconcileJobTimeout)
		defer cancel()

		start := time.Now()
		if err := job(ctx); err != nil {
			log.Errorf("Scheduled reconciliation failed: %+v", err)
			return
		}
		log.Infof("Scheduled reconciliation finished in %v", time.Since(start))
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reconcile cron spec %q: %w", spec, err)
	}

	return &ReconcileScheduler{cron: c, log: log}, nil
}

func (s *ReconcileScheduler) Start() {
	s.cron.Start()
	s.log.Info("Reconcile scheduler started")
}

// Stop waits for a running job to finish
func (s *ReconcileScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("Reconcile scheduler stopped")
}
