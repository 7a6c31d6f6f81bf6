package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/reservoir-geojson/internal/reservoir"
)

const defaultInterval = 24 * time.Hour

// Builder runs one pipeline pass.
type Builder interface {
	Build(ctx context.Context) (reservoir.Snapshot, error)
}

// Scheduler periodically rebuilds the reservoir document.
type Scheduler struct {
	scheduler *gocron.Scheduler
	builder   Builder
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler. timeout bounds each run.
func New(interval, timeout time.Duration, builder Builder) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		builder:   builder,
		interval:  interval,
		timeout:   timeout,
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The
// first run happens one interval after Start.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = defaultInterval
	}

	_, err := s.scheduler.Every(interval).WaitForSchedule().SingletonMode().Do(s.run)
	if err != nil {
		return err
	}

	log.Printf("scheduler: rebuilding every %s", interval)
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	log.Println("scheduler: running rebuild job")

	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	snap, err := s.builder.Build(ctx)
	if err != nil {
		log.Printf("scheduler: rebuild failed: %v", err)
		return
	}
	log.Printf("scheduler: completed rebuild %s (%d features)", snap.RunID, len(snap.Collection.Features))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
