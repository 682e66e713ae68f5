package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/salescope/salescope/config"
)

func TestNewLimitsDefaults(t *testing.T) {
	limits := NewLimits(0, 0)
	require.Equal(t, config.DefaultMaxConcurrentRequests, limits.MaxConcurrentRequests)
	require.Equal(t, config.DefaultMaxOpenReports, limits.MaxOpenReports)
	require.Equal(t, config.DefaultMaxPayloadBytes, limits.MaxPayloadBytes)
	require.Equal(t, config.DefaultPreviewRowLimit, limits.PreviewRowLimit)
}

func TestControllerAcquireRelease(t *testing.T) {
	limits := NewLimits(1, 1)
	controller := NewController(limits)

	require.Equal(t, limits, controller.LimitsSnapshot())

	require.NoError(t, controller.AcquireRequest(context.Background()))
	controller.ReleaseRequest()

	require.NoError(t, controller.AcquireReport(context.Background()))
	controller.ReleaseReport()
}

func TestControllerBlocksAtCapacity(t *testing.T) {
	controller := NewController(NewLimits(1, 1))

	require.NoError(t, controller.AcquireRequest(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Error(t, controller.AcquireRequest(ctx))

	controller.ReleaseRequest()
	require.NoError(t, controller.AcquireRequest(context.Background()))
	controller.ReleaseRequest()
}
