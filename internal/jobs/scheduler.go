package jobs

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler runs periodic maintenance jobs. It is a thin wrapper around
// gocron that standardizes logging and error handling.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a stopped scheduler. Register jobs, then call Start.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}
	return &Scheduler{scheduler: s}, nil
}

// Every registers a job that runs at a fixed interval.
func (s *Scheduler) Every(name string, interval time.Duration, task func(ctx context.Context) error) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			start := time.Now()
			if err := task(context.Background()); err != nil {
				log.Printf("❌ [SCHEDULER] Job '%s' failed: %v", name, err)
				return
			}
			log.Printf("✅ [SCHEDULER] Job '%s' completed in %v", name, time.Since(start))
		}),
		gocron.WithName(name),
	)
	if err != nil {
		return err
	}
	log.Printf("⏰ [SCHEDULER] Registered job '%s' every %v", name, interval)
	return nil
}

// Daily registers a job that runs once a day at the given UTC hour.
func (s *Scheduler) Daily(name string, hour int, task func(ctx context.Context) error) error {
	_, err := s.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(hour), 0, 0))),
		gocron.NewTask(func() {
			start := time.Now()
			if err := task(context.Background()); err != nil {
				log.Printf("❌ [SCHEDULER] Job '%s' failed: %v", name, err)
				return
			}
			log.Printf("✅ [SCHEDULER] Job '%s' completed in %v", name, time.Since(start))
		}),
		gocron.WithName(name),
	)
	if err != nil {
		return err
	}
	log.Printf("⏰ [SCHEDULER] Registered daily job '%s' at %02d:00 UTC", name, hour)
	return nil
}

// Start begins running registered jobs.
func (s *Scheduler) Start() {
	s.scheduler.Start()
	log.Println("🚀 [SCHEDULER] Job scheduler started")
}

// Stop shuts the scheduler down and waits for running jobs.
func (s *Scheduler) Stop() {
	if err := s.scheduler.Shutdown(); err != nil {
		log.Printf("⚠️ [SCHEDULER] Shutdown error: %v", err)
		return
	}
	log.Println("🛑 [SCHEDULER] Job scheduler stopped")
}
