package upload

import (
	"context"
	"time"
)

// estimator is the cosmetic progress ticker of one upload. It runs until tick
// reports false or Stop is called.
type estimator struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func startEstimator(interval time.Duration, tick func() bool) *estimator {
	ctx, cancel := context.WithCancel(context.Background())
	e := &estimator{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(e.done)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if !tick() {
					return
				}
			}
		}
	}()
	return e
}

// Stop cancels the ticker and waits for its goroutine to exit. Safe to call
// more than once. Must not be called while holding the lock tick acquires.
func (e *estimator) Stop() {
	e.cancel()
	<-e.done
}
