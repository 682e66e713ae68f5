// Package viz builds chart-ready datasets for the presentation layer. The
// engine emits trace/layout payloads plus display config flags only; no
// rendering happens here.
package viz

// Trace is one plotly-shaped data series.
type Trace struct {
	Type          string    `json:"type"`
	Name          string    `json:"name"`
	X             []string  `json:"x"`
	Y             []float64 `json:"y"`
	YAxis         string    `json:"yaxis,omitempty"`
	Line          *Line     `json:"line,omitempty"`
	HoverTemplate string    `json:"hovertemplate,omitempty"`
}

// Line styles a scatter trace.
type Line struct {
	Color string `json:"color"`
}

// Axis configures one chart axis.
type Axis struct {
	Title      string    `json:"title,omitempty"`
	TickFormat string    `json:"tickformat,omitempty"`
	Range      []float64 `json:"range,omitempty"`
	ShowGrid   bool      `json:"showgrid"`
	Overlaying string    `json:"overlaying,omitempty"`
	Side       string    `json:"side,omitempty"`
}

// Layout carries the fixed presentation hints attached to each figure.
type Layout struct {
	Title      string         `json:"title,omitempty"`
	Height     int            `json:"height,omitempty"`
	ShowLegend bool           `json:"showlegend"`
	Margin     map[string]int `json:"margin,omitempty"`
	XAxis      *Axis          `json:"xaxis,omitempty"`
	YAxis      *Axis          `json:"yaxis,omitempty"`
	YAxis2     *Axis          `json:"yaxis2,omitempty"`
}

// Figure is a serialized trace list plus layout.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Config carries the fixed rendering flags the presentation layer honors or
// ignores; the engine never renders.
type Config struct {
	DisplayModeBar bool `json:"displayModeBar"`
	StaticPlot     bool `json:"staticPlot"`
	Responsive     bool `json:"responsive"`
}

// Chart pairs a figure payload with its display config.
type Chart struct {
	Data   Figure `json:"data"`
	Config Config `json:"config"`
}

func defaultMargin() map[string]int {
	return map[string]int{"t": 30, "l": 40, "r": 40, "b": 40}
}

func trendMargin() map[string]int {
	return map[string]int{"t": 30, "l": 40, "r": 40, "b": 100}
}

// WinRateTrend builds the win-rate line series over trend bucket labels.
func WinRateTrend(labels []string, rates []float64) Chart {
	return Chart{
		Data: Figure{
			Data: []Trace{{
				Type: "scatter",
				Name: "Win Rate",
				X:    labels,
				Y:    rates,
				Line: &Line{Color: "rgb(34, 197, 94)"},
			}},
			Layout: Layout{
				Title:      "Win Rate Trend",
				Height:     300,
				ShowLegend: true,
				Margin:     trendMargin(),
				YAxis:      &Axis{Title: "Win Rate (%)", TickFormat: ",.1f", Range: []float64{0, 100}, ShowGrid: true},
				XAxis:      &Axis{ShowGrid: false},
			},
		},
		Config: Config{DisplayModeBar: false, StaticPlot: false, Responsive: true},
	}
}

// VolumeTrend builds the deal-count and closed-volume series; volume rides
// the secondary axis.
func VolumeTrend(labels []string, deals, volume []float64) Chart {
	return Chart{
		Data: Figure{
			Data: []Trace{
				{
					Type: "scatter",
					Name: "Number of Deals",
					X:    labels,
					Y:    deals,
					Line: &Line{Color: "rgb(99, 102, 241)"},
				},
				{
					Type:  "scatter",
					Name:  "Closed Volume",
					X:     labels,
					Y:     volume,
					YAxis: "y2",
					Line:  &Line{Color: "rgb(59, 130, 246)"},
				},
			},
			Layout: Layout{
				Title:      "Volume Trends",
				Height:     300,
				ShowLegend: true,
				Margin:     trendMargin(),
				YAxis:      &Axis{Title: "Number of Deals", ShowGrid: true},
				YAxis2:     &Axis{Title: "Closed Volume ($)", Overlaying: "y", Side: "right", ShowGrid: false, TickFormat: "$,.0f"},
				XAxis:      &Axis{ShowGrid: false},
			},
		},
		Config: Config{DisplayModeBar: false, StaticPlot: false, Responsive: true},
	}
}

// WinRateByType builds the static bar chart of win rate per Type segment.
func WinRateByType(labels []string, rates []float64) Chart {
	return Chart{
		Data: Figure{
			Data: []Trace{{
				Type:          "bar",
				Name:          "Win Rate",
				X:             labels,
				Y:             rates,
				HoverTemplate: "%{y:.1f}%<extra></extra>",
			}},
			Layout: Layout{
				ShowLegend: true,
				Margin:     defaultMargin(),
				YAxis:      &Axis{Title: "Win Rate", TickFormat: ",.0f", ShowGrid: true},
				XAxis:      &Axis{Title: "Type", ShowGrid: false},
			},
		},
		Config: Config{DisplayModeBar: false, StaticPlot: true, Responsive: true},
	}
}
