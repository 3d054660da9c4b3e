package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passing() CheckFunc {
	return func(_ context.Context) error { return nil }
}

func failing(msg string) CheckFunc {
	return func(_ context.Context) error { return errors.New(msg) }
}

// driveToUnhealthy ticks a probe past the failure threshold.
func driveToUnhealthy(p *probe) {
	for range defaultFailureThreshold {
		p.tick(context.Background())
	}
}

func probeEndpoint(endpoint http.HandlerFunc) (*httptest.ResponseRecorder, statusResponse) {
	w := httptest.NewRecorder()
	endpoint(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body statusResponse
	_ = json.NewDecoder(w.Body).Decode(&body)
	return w, body
}

func TestLiveEndpoint_AllPassing(t *testing.T) {
	h := New()
	h.AddLivenessCheck("check1", time.Second, passing())
	h.AddLivenessCheck("check2", time.Second, passing())

	w, body := probeEndpoint(h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "ok", body.Status)
}

func TestLiveEndpoint_FailingCheck(t *testing.T) {
	h := New()
	h.AddLivenessCheck("db", time.Second, failing("connection refused"))
	driveToUnhealthy(h.liveness[0])

	w, body := probeEndpoint(h.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "connection refused", body.Checks["db"])
}

func TestLiveEndpoint_FailureBelowThreshold(t *testing.T) {
	h := New()
	h.AddLivenessCheck("flaky", time.Second, failing("temporary"))

	// One tick short of the threshold keeps the probe healthy.
	for range defaultFailureThreshold - 1 {
		h.liveness[0].tick(context.Background())
	}

	w, _ := probeEndpoint(h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyEndpoint_ReadyAndPassing(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, passing())
	h.SetReady(true)

	w, body := probeEndpoint(h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body.Status)
}

func TestReadyEndpoint_NotReady(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, passing())

	w, body := probeEndpoint(h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Contains(t, body.Checks, "_readiness")
}

func TestReadyEndpoint_DrainOnShutdown(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, passing())
	h.SetReady(true)

	w, _ := probeEndpoint(h.ReadyEndpoint)
	require.Equal(t, http.StatusOK, w.Code)

	h.SetReady(false)
	w, _ = probeEndpoint(h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestReadyEndpoint_OneFailingCheck(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, passing())
	h.AddReadinessCheck("broker", time.Second, failing("broker down"))
	h.SetReady(true)
	driveToUnhealthy(h.readiness[1])

	w, body := probeEndpoint(h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, body.Checks, "broker")
	assert.NotContains(t, body.Checks, "postgres")
}

func TestIsReady(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, passing())

	assert.False(t, h.IsReady())
	h.SetReady(true)
	assert.True(t, h.IsReady())
	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestStopIdempotent(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, passing())
	h.Start(context.Background(), 100*time.Millisecond)

	h.Stop()
	h.Stop()
}

func TestEndpoints_NoChecks(t *testing.T) {
	h := New()
	h.SetReady(true)

	w, _ := probeEndpoint(h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = probeEndpoint(h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProbeRecovery(t *testing.T) {
	down := true
	h := New()
	h.AddLivenessCheck("flaky", time.Second, func(_ context.Context) error {
		if down {
			return errors.New("down")
		}
		return nil
	})
	p := h.liveness[0]

	driveToUnhealthy(p)
	assert.False(t, p.healthy.Load())

	down = false
	for range defaultSuccessThreshold {
		p.tick(context.Background())
	}
	assert.True(t, p.healthy.Load())
}

func TestProbeLastError(t *testing.T) {
	h := New()
	h.AddLivenessCheck("db", time.Second, failing("timeout"))
	p := h.liveness[0]

	driveToUnhealthy(p)
	msg, failed := p.failure()
	require.True(t, failed)
	assert.Equal(t, "timeout", msg)
}

func TestConcurrentAccess(t *testing.T) {
	h := New()
	h.AddLivenessCheck("concurrent", time.Second, failing("err"))
	h.AddReadinessCheck("concurrent", time.Second, passing())
	h.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, 10*time.Millisecond)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				h.IsReady()
				probeEndpoint(h.LiveEndpoint)
				probeEndpoint(h.ReadyEndpoint)
			}
		}()
	}
	wg.Wait()
	h.Stop()
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))

	err := GoroutineCountCheck(0)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds threshold")
}

func TestGCMaxPauseCheck(t *testing.T) {
	assert.NoError(t, GCMaxPauseCheck(time.Hour)(context.Background()))
}
