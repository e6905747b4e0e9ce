package records

import (
	"context"
	"fmt"
	"time"

	"github.com/formulary/backend/internal/domain"
	"github.com/formulary/backend/internal/infrastructure/logging"
	"github.com/go-co-op/gocron"
)

// Refresher periodically reloads a snapshot in the background
type Refresher struct {
	target    domain.Refresher
	interval  time.Duration
	timeout   time.Duration
	logger    logging.Logger
	scheduler *gocron.Scheduler
}

// NewRefresher creates a refresher reloading target every interval.
// An interval of zero or less disables scheduling; Start then only does the
// initial load.
func NewRefresher(target domain.Refresher, interval time.Duration, logger logging.Logger) *Refresher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	return &Refresher{
		target:    target,
		interval:  interval,
		timeout:   2 * time.Minute,
		logger:    logger.Named("refresher"),
		scheduler: s,
	}
}

// Start performs the initial load and schedules later refreshes.
func (r *Refresher) Start(ctx context.Context) error {
	if _, err := r.target.Refresh(ctx); err != nil {
		return fmt.Errorf("initial record load failed: %w", err)
	}

	if r.interval <= 0 {
		r.logger.Info("periodic refresh disabled")
		return nil
	}

	// The first run would repeat the load above.
	_, err := r.scheduler.Every(r.interval).WaitForSchedule().Do(r.run)
	if err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}

	r.scheduler.StartAsync()
	r.logger.Info("periodic refresh scheduled", logging.Duration("interval", r.interval))
	return nil
}

// Stop stops the scheduler.
func (r *Refresher) Stop() {
	r.scheduler.Stop()
}

func (r *Refresher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if _, err := r.target.Refresh(ctx); err != nil {
		r.logger.Warn("scheduled refresh failed, keeping previous snapshot", logging.Err(err))
	}
}
