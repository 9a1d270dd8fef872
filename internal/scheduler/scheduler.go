package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Expirer ends sessions idle for longer than maxIdle.
type Expirer interface {
	Expire(maxIdle time.Duration) int
}

// Scheduler periodically sweeps idle sessions and their artifacts.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sessions  Expirer
	interval  time.Duration
	maxIdle   time.Duration
}

// New creates a new Scheduler.
func New(sessions Expirer, interval, maxIdle time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		sessions:  sessions,
		interval:  interval,
		maxIdle:   maxIdle,
	}
}

// Start schedules the sweep job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.maxIdle <= 0 {
		log.Println("scheduler: session expiry disabled; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.sweep)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) sweep() {
	n := s.sessions.Expire(s.maxIdle)
	if n > 0 {
		log.Printf("scheduler: expired %d idle sessions", n)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
