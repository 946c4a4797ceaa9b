package health_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/courier/pkg/health"
)

func TestRun(t *testing.T) {
	t.Parallel()

	report := health.Run(context.Background(), health.Checks{
		"transport": func(context.Context) error { return nil },
		"database":  func(context.Context) error { return errors.New("connection refused") },
	})

	require.False(t, report.Healthy())
	require.Equal(t, health.StatusUnhealthy, report.Status)
	require.Len(t, report.Checks, 2)

	require.Equal(t, "database", report.Checks[0].Name)
	require.Equal(t, health.StatusUnhealthy, report.Checks[0].Status)
	require.Equal(t, "connection refused", report.Checks[0].Error)

	require.Equal(t, "transport", report.Checks[1].Name)
	require.Equal(t, health.StatusHealthy, report.Checks[1].Status)
	require.Empty(t, report.Checks[1].Error)
}

func TestRun_Empty(t *testing.T) {
	t.Parallel()

	report := health.Run(context.Background(), nil)
	require.True(t, report.Healthy())
	require.Empty(t, report.Checks)
}

func TestRun_Timeout(t *testing.T) {
	t.Parallel()

	report := health.Run(context.Background(), health.Checks{
		"slow": func(context.Context) error {
			time.Sleep(time.Second)
			return nil
		},
	}, health.WithTimeout(20*time.Millisecond))

	require.False(t, report.Healthy())
	require.Equal(t, health.ErrCheckTimeout.Error(), report.Checks[0].Error)
}

func TestRun_Panic(t *testing.T) {
	t.Parallel()

	report := health.Run(context.Background(), health.Checks{
		"bad": func(context.Context) error { panic("nil map") },
	})

	require.False(t, report.Healthy())
	require.Equal(t, health.ErrCheckPanicked.Error(), report.Checks[0].Error)
}
