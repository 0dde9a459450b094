package reconcile

import (
	"context"
	"sync"
	"time"
)

// RepeatTask is a cancellable repeating call, used for press-and-hold
// actions such as rapid-fire likes: fire once on acquisition, then once per
// interval until released.
type RepeatTask struct {
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
}

// StartRepeat invokes fn immediately and then every interval until Stop is
// called or ctx is cancelled. Tying ctx to the component lifetime
// guarantees the ticker is reclaimed on unmount even when Stop is missed.
func StartRepeat(ctx context.Context, interval time.Duration, fn func()) *RepeatTask {
	ctx, cancel := context.WithCancel(ctx)
	task := &RepeatTask{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(task.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		fn()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return task
}

// Stop cancels the task and waits for the in-flight call, if any, to
// return. Safe to call from every exit path: release, leave and unmount.
func (t *RepeatTask) Stop() {
	t.once.Do(t.cancel)
	<-t.done
}
