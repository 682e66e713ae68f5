package viz

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWinRateTrendShape(t *testing.T) {
	c := WinRateTrend([]string{"Jan 2024", "Feb 2024"}, []float64{50, 75})

	require.Len(t, c.Data.Data, 1)
	require.Equal(t, "scatter", c.Data.Data[0].Type)
	require.Equal(t, []float64{50, 75}, c.Data.Data[0].Y)
	require.Equal(t, []float64{0, 100}, c.Data.Layout.YAxis.Range)
	require.False(t, c.Config.DisplayModeBar)
	require.False(t, c.Config.StaticPlot)
	require.True(t, c.Config.Responsive)
}

func TestVolumeTrendSecondaryAxis(t *testing.T) {
	c := VolumeTrend([]string{"Q1 2024"}, []float64{3}, []float64{120000})

	require.Len(t, c.Data.Data, 2)
	require.Equal(t, "y2", c.Data.Data[1].YAxis)
	require.Equal(t, "y", c.Data.Layout.YAxis2.Overlaying)
	require.Equal(t, "right", c.Data.Layout.YAxis2.Side)
}

func TestWinRateByTypeStatic(t *testing.T) {
	c := WinRateByType([]string{"Renewal"}, []float64{100})

	require.Equal(t, "bar", c.Data.Data[0].Type)
	require.True(t, c.Config.StaticPlot)

	b, err := json.Marshal(c)
	require.NoError(t, err)
	require.Contains(t, string(b), `"displayModeBar":false`)
	require.Contains(t, string(b), `"staticPlot":true`)
	require.Contains(t, string(b), `"responsive":true`)
}
