package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChecker struct {
	name   string
	result *Result
	delay  time.Duration
}

func (m *mockChecker) Name() string { return m.name }

func (m *mockChecker) Check(ctx context.Context) *Result {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return Unhealthy(ctx.Err().Error())
		}
	}
	return m.result
}

func TestManagerKeepsRegistrationOrder(t *testing.T) {
	m := NewManager()
	m.AddChecker(&mockChecker{name: "slow", result: Healthy("ok"), delay: 20 * time.Millisecond})
	m.AddChecker(&mockChecker{name: "fast", result: Degraded("meh")})

	assert.Equal(t, []string{"slow", "fast"}, m.CheckNames())

	reports := m.Check(context.Background())
	require.Len(t, reports, 2)
	assert.Equal(t, "slow", reports[0].Name)
	assert.Equal(t, "fast", reports[1].Name)
	assert.Greater(t, reports[0].Latency, time.Duration(0))
	assert.Equal(t, StatusDegraded, OverallStatus(reports))
}

func TestManagerTimeout(t *testing.T) {
	m := NewManager().WithTimeout(10 * time.Millisecond)
	m.AddChecker(&mockChecker{name: "hang", result: Healthy("ok"), delay: time.Second})
	m.AddChecker(&mockChecker{name: "nil"})

	reports := m.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, reports[0].Status)
	assert.Equal(t, "check returned no result", reports[1].Message)
	assert.Equal(t, StatusUnhealthy, OverallStatus(reports))
}

func TestOverallStatus(t *testing.T) {
	assert.Equal(t, StatusHealthy, OverallStatus(nil))
	assert.Equal(t, StatusHealthy, OverallStatus([]Report{{Name: "a", Result: Healthy("ok")}}))
	assert.Equal(t, StatusUnhealthy, OverallStatus([]Report{
		{Name: "a", Result: Degraded("x")},
		{Name: "b", Result: Unhealthy("y")},
	}))
}
