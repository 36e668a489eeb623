package scheduler

import (
	"context"
	"log"
	"time"
)

// Scheduler runs one task at a fixed wall-clock time every day. Stop
// cancels an in-flight run's context and prevents further runs.
type Scheduler struct {
	Hour   int
	Minute int
	Task   func(ctx context.Context)

	stop chan struct{}
}

func New(hour, minute int, task func(ctx context.Context)) *Scheduler {
	return &Scheduler{
		Hour:   hour,
		Minute: minute,
		Task:   task,
		stop:   make(chan struct{}),
	}
}

// Start launches the daily loop in the background.
func (s *Scheduler) Start() {
	log.Printf("⏰ Scheduler started, daily run at %02d:%02d", s.Hour, s.Minute)
	go s.loop()
}

// Stop shuts the loop down and interrupts a run in progress.
func (s *Scheduler) Stop() {
	close(s.stop)
}

func (s *Scheduler) loop() {
	for {
		timer := time.NewTimer(time.Until(s.NextRun(time.Now())))
		select {
		case <-timer.C:
			s.runOnce()
		case <-s.stop:
			timer.Stop()
			return
		}
	}
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Task(ctx)
	}()

	select {
	case <-done:
	case <-s.stop:
		cancel()
		<-done
	}
}

// NextRun returns the next occurrence of the configured wall-clock time
// strictly after now.
func (s *Scheduler) NextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.Hour, s.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
