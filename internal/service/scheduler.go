package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler triggers pipeline runs for a fixed set of stores on a cron spec.
type Scheduler struct {
	svc    SpotterService
	stores []string
	spec   string
	cron   *cron.Cron

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler validates spec (standard five-field cron) and returns a stopped Scheduler.
func NewScheduler(svc SpotterService, spec string, stores []string) (*Scheduler, error) {
	if len(stores) == 0 {
		return nil, fmt.Errorf("scheduler: no stores configured")
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("scheduler: invalid cron spec %q: %w", spec, err)
	}
	return &Scheduler{
		svc:    svc,
		stores: stores,
		spec:   spec,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}, nil
}

// Start registers the job and starts the cron loop. Runs started by the loop
// are cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(s.context()) }); err != nil {
		return fmt.Errorf("scheduler: registering job: %w", err)
	}
	s.cron.Start()
	zap.L().Info("service.Scheduler: started", zap.String("spec", s.spec), zap.Strings("stores", s.stores))
	return nil
}

// Stop halts the cron loop and waits for a running job to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	<-s.cron.Stop().Done()
	zap.L().Info("service.Scheduler: stopped")
}

// RunOnce runs every configured store sequentially. A failing store does not
// stop the others.
func (s *Scheduler) RunOnce(ctx context.Context) {
	for _, store := range s.stores {
		if ctx.Err() != nil {
			return
		}
		res, err := s.svc.Run(ctx, RunRequest{StoreKey: store})
		if err != nil {
			zap.L().Error("service.Scheduler: run failed", zap.String("store", store), zap.Error(err))
			continue
		}
		if res.Skipped {
			zap.L().Info("service.Scheduler: run skipped", zap.String("store", store))
			continue
		}
		zap.L().Info("service.Scheduler: run complete", zap.String("store", store), zap.Int("products", len(res.Records)))
	}
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}
