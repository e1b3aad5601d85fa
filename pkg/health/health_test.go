package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusUpdateFlipsUnhealthyAfterRetries(t *testing.T) {
	cfg := Config{Retries: 3}
	s := NewStatus()

	for i := 0; i < 2; i++ {
		s.Update(Result{Healthy: false, CheckedAt: time.Now()}, cfg)
		assert.True(t, s.Healthy, "should stay healthy below the retry threshold")
	}

	s.Update(Result{Healthy: false, CheckedAt: time.Now()}, cfg)
	assert.False(t, s.Healthy)
	assert.Equal(t, 3, s.ConsecutiveFailures)
}

func TestStatusUpdateRecoversOnFirstSuccess(t *testing.T) {
	cfg := Config{Retries: 2}
	s := NewStatus()

	s.Update(Result{Healthy: false, CheckedAt: time.Now()}, cfg)
	s.Update(Result{Healthy: false, CheckedAt: time.Now()}, cfg)
	assert.False(t, s.Healthy)

	s.Update(Result{Healthy: true, CheckedAt: time.Now()}, cfg)
	assert.True(t, s.Healthy)
	assert.Equal(t, 0, s.ConsecutiveFailures)
	assert.Equal(t, 1, s.ConsecutiveSuccesses)
}

func TestStatusInStartPeriod(t *testing.T) {
	s := NewStatus()

	assert.True(t, s.InStartPeriod(Config{StartPeriod: time.Hour}))
	assert.False(t, s.InStartPeriod(Config{StartPeriod: 0}))

	s.StartedAt = time.Now().Add(-time.Hour)
	assert.False(t, s.InStartPeriod(Config{StartPeriod: time.Minute}))
}

func TestPostgresCheckerType(t *testing.T) {
	c := NewPostgresChecker(nil)
	assert.Equal(t, CheckTypePostgres, c.Type())
}
