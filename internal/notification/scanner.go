package notification

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"medreminder-backend/internal/engine"
)

// Scanner recomputes the dose status once a minute and dispatches an alert
// the first time a dose enters the due or overdue band. The engine itself
// carries no background task; this is boundary-side polling.
type Scanner struct {
	engine *engine.Engine
	pool   *WorkerPool
	log    *zap.SugaredLogger
	// seen dedupes alerts per (medication, time, date) for the rest of the
	// day, so a dose nags once via push even though it stays listed as due.
	seen *cache.Cache
}

// NewScanner creates a scanner feeding the given worker pool.
func NewScanner(e *engine.Engine, pool *WorkerPool, log *zap.SugaredLogger) *Scanner {
	return &Scanner{
		engine: e,
		pool:   pool,
		log:    log,
		seen:   cache.New(24*time.Hour, time.Hour),
	}
}

// Start registers the per-minute job and starts the scheduler. The returned
// scheduler should be shut down on exit.
func (s *Scanner) Start(ctx context.Context) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(time.Minute),
		gocron.NewTask(func() { s.scan(ctx) }),
	)
	if err != nil {
		return nil, err
	}
	sched.Start()
	return sched, nil
}

func (s *Scanner) scan(ctx context.Context) {
	now := time.Now()
	report, err := s.engine.Status(ctx, now, false)
	if err != nil {
		s.log.Warnw("status scan failed", "error", err)
		return
	}

	date := now.Format("2006-01-02")
	for _, item := range append(report.Due, report.Overdue...) {
		key := item.Medication + "\x00" + item.Time + "\x00" + date
		if _, dispatched := s.seen.Get(key); dispatched {
			continue
		}
		s.seen.Set(key, struct{}{}, 24*time.Hour)
		s.pool.Dispatch(Alert{
			Medication:  item.Medication,
			DisplayText: item.DisplayText,
			Time:        item.Time,
		})
	}
}
