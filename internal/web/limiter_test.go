package web

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobLimiter_AcquireRelease(t *testing.T) {
	l := newJobLimiter(2, time.Second)
	ctx := context.Background()

	require.NoError(t, l.acquire(ctx))
	require.NoError(t, l.acquire(ctx))
	assert.Equal(t, 2, l.activeCount())

	l.release()
	assert.Equal(t, 1, l.activeCount())
	l.release()
	assert.Equal(t, 0, l.activeCount())
}

func TestJobLimiter_TimesOutWhenFull(t *testing.T) {
	l := newJobLimiter(1, 50*time.Millisecond)
	require.NoError(t, l.acquire(context.Background()))
	defer l.release()

	start := time.Now()
	err := l.acquire(context.Background())
	assert.ErrorIs(t, err, errTooManyJobs)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestJobLimiter_CallerCancel(t *testing.T) {
	l := newJobLimiter(1, time.Minute)
	require.NoError(t, l.acquire(context.Background()))
	defer l.release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.acquire(ctx), context.Canceled)
}

func TestJobLimiter_Defaults(t *testing.T) {
	l := newJobLimiter(0, 0)
	assert.Equal(t, defaultMaxJobs, cap(l.slots))
	assert.Equal(t, defaultJobWait, l.maxWait)
}

func TestJobLimiter_NeverExceedsMax(t *testing.T) {
	const maxJobs = 3
	l := newJobLimiter(maxJobs, time.Second)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		peak int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.acquire(context.Background()); err != nil {
				return
			}
			mu.Lock()
			if n := l.activeCount(); n > peak {
				peak = n
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			l.release()
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak, maxJobs)
	assert.Equal(t, 0, l.activeCount())
}

func TestServer_ExportBusy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.MaxConcurrentJobs = 1
	cfg.Server.JobWait = 20 * time.Millisecond
	env := newTestEnv(t, cfg)

	require.NoError(t, env.server.jobs.acquire(context.Background()))
	rec := env.do(t, http.MethodGet, "/api/export/vehicles.csv", nil)
	env.server.jobs.release()

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
	assert.Equal(t, "REQ006", decodeBody[ErrorResponse](t, rec).Code)

	rec = env.do(t, http.MethodGet, "/api/export/vehicles.csv", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
