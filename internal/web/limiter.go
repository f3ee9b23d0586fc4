package web

// limiter.go bounds how many parse and export requests run at once.
//
// Building a workbook or coercing a large CSV holds the whole result in
// memory, so these handlers take a slot from a semaphore first. A request
// that cannot get one within maxWait fails with errTooManyJobs.

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"
)

var errTooManyJobs = errors.New("too many concurrent jobs, please try again later")

const (
	defaultMaxJobs = 4
	defaultJobWait = 10 * time.Second
)

type jobLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.Mutex
	active int
}

func newJobLimiter(maxConcurrent int, maxWait time.Duration) *jobLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxJobs
	}
	if maxWait <= 0 {
		maxWait = defaultJobWait
	}
	return &jobLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// acquire takes a slot. Callers must release it when done.
func (l *jobLimiter) acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errTooManyJobs
	}
}

func (l *jobLimiter) release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.slots
}

// activeCount returns the number of jobs holding a slot.
func (l *jobLimiter) activeCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// middleware runs next inside a slot, answering 503 with Retry-After when
// none frees up in time.
func (l *jobLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := l.acquire(r.Context()); err != nil {
			if errors.Is(err, errTooManyJobs) {
				w.Header().Set("Retry-After", "5")
			}
			fail(w, r, err)
			return
		}
		defer l.release()
		next.ServeHTTP(w, r)
	})
}
