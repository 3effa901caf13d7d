package alert

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/budget-analytics/internal/budget"
)

// SweepReport counts the outcomes of one pass over all active budgets.
type SweepReport struct {
	Evaluated  int
	Alerts     int
	Exceeded   int
	Suppressed int
	Failed     int
	Duration   time.Duration
}

func (r *SweepReport) add(res Result) {
	r.Evaluated++
	if res.Suppressed {
		r.Suppressed++
		return
	}
	if !res.Created() {
		return
	}
	switch res.Decision {
	case DecisionAlert:
		r.Alerts++
	case DecisionExceeded:
		r.Exceeded++
	}
}

type worker struct {
	id     int
	pool   chan chan *budget.Budget
	jobs   chan *budget.Budget
	logger *slog.Logger
}

func newWorker(id int, pool chan chan *budget.Budget, logger *slog.Logger) *worker {
	return &worker{
		id:     id,
		pool:   pool,
		jobs:   make(chan *budget.Budget),
		logger: logger,
	}
}

func (w *worker) start(ctx context.Context, wg *sync.WaitGroup, process func(*budget.Budget)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			w.pool <- w.jobs

			select {
			case b := <-w.jobs:
				w.logger.Debug("worker evaluating budget", "worker_id", w.id, "budget_id", b.ID)
				process(b)
			case <-ctx.Done():
				w.logger.Debug("worker shutting down", "worker_id", w.id)
				return
			}
		}
	}()
}

// Sweeper is the periodic "check all budgets" caller of the engine.
type Sweeper struct {
	engine  *Engine
	workers int
	logger  *slog.Logger
}

func NewSweeper(engine *Engine, workers int, logger *slog.Logger) *Sweeper {
	if workers <= 0 {
		workers = 4
	}
	return &Sweeper{engine: engine, workers: workers, logger: logger}
}

// Sweep evaluates every active budget once, fanned out over the worker pool.
// Failures are counted, not returned; only listing the budgets can fail.
func (s *Sweeper) Sweep(ctx context.Context) (SweepReport, error) {
	started := time.Now()
	budgets, err := s.engine.budgets.AllActive(ctx)
	if err != nil {
		return SweepReport{}, err
	}

	var (
		mu     sync.Mutex
		report SweepReport
		wg     sync.WaitGroup
	)
	process := func(b *budget.Budget) {
		res, err := s.engine.Evaluate(ctx, b)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			report.Failed++
			s.logger.Error("sweep evaluation failed", "error", err, "budget_id", b.ID)
			return
		}
		report.add(res)
	}

	workerCtx, stop := context.WithCancel(ctx)
	pool := make(chan chan *budget.Budget, s.workers)
	for i := 0; i < s.workers; i++ {
		newWorker(i, pool, s.logger).start(workerCtx, &wg, process)
	}

dispatch:
	for _, b := range budgets {
		select {
		case jobs := <-pool:
			select {
			case jobs <- b:
			case <-ctx.Done():
				break dispatch
			}
		case <-ctx.Done():
			break dispatch
		}
	}
	stop()
	wg.Wait()

	report.Duration = time.Since(started)
	s.logger.Info("budget sweep finished",
		"budgets", len(budgets),
		"evaluated", report.Evaluated,
		"alerts", report.Alerts,
		"exceeded", report.Exceeded,
		"suppressed", report.Suppressed,
		"failed", report.Failed,
		"duration", report.Duration)
	return report, ctx.Err()
}

// Run sweeps immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("budget sweeper started", "interval", interval, "workers", s.workers)
	for {
		if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("budget sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			s.logger.Info("budget sweeper stopped")
			return nil
		case <-ticker.C:
		}
	}
}
