package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/AnshRaj112/weatherlist-backend/internal/services"
)

const jobTimeout = 2 * time.Minute

// Reconciler is the periodic repair job.
type Reconciler interface {
	Run(ctx context.Context) (services.ReconcileReport, error)
}

// Scheduler periodically repairs the phone lookup index.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	reconciler Reconciler
	interval   time.Duration
}

// New creates a new Scheduler.
func New(reconciler Reconciler, interval time.Duration) *Scheduler {
	return &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		reconciler: reconciler,
		interval:   interval,
	}
}

// Start schedules the job and starts the underlying scheduler. A non-positive
// interval disables the job.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		log.Println("scheduler: reconciliation disabled")
		return nil
	}

	// first run happens one interval after startup
	_, err := s.scheduler.Every(s.interval).WaitForSchedule().SingletonMode().Do(s.runOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	log.Printf("✅ Phone index reconciliation scheduled every %s", s.interval)
	return nil
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	report, err := s.reconciler.Run(ctx)
	if err != nil {
		log.Printf("scheduler: phone index reconciliation failed: %v", err)
		return
	}
	if report.Restored > 0 || report.Removed > 0 {
		log.Printf("scheduler: phone index repaired (users=%d indexes=%d restored=%d removed=%d)",
			report.UsersScanned, report.IndexesScanned, report.Restored, report.Removed)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
