package concurrency

import (
	"context"
	"time"
)

// PacedWorker runs a job per argument, one every interval, the way a touch
// screen delivers a drag gesture as a steady stream of events.
type PacedWorker struct {
	interval    time.Duration
	jobCallback func(arg string) error
}

func NewPacedWorker(interval time.Duration, jobCallback func(arg string) error) PacedWorker {
	return PacedWorker{interval: interval, jobCallback: jobCallback}
}

// Run stops at the first job error or when ctx is cancelled
func (w *PacedWorker) Run(ctx context.Context, jobArgs []string) error {

	jobArgsChannel := make(chan string, len(jobArgs))

	for _, arg := range jobArgs {
		jobArgsChannel <- arg
	}
	close(jobArgsChannel)
	limiter := time.NewTicker(w.interval)
	defer limiter.Stop()

	first := true
	for arg := range jobArgsChannel {
		if !first {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-limiter.C:
			}
		}
		first = false
		if err := w.jobCallback(arg); err != nil {
			return err
		}
	}

	return nil
}
