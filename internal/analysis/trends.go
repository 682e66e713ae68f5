package analysis

import (
	"fmt"
	"time"
)

// Interval selects the trend bucketing granularity.
type Interval string

const (
	IntervalAuto    Interval = ""
	IntervalMonth   Interval = "month"
	IntervalQuarter Interval = "quarter"
)

// TrendPoint is one time bucket of the trend series: win rate over closed
// records created in the bucket plus closed-won volume and deal count.
type TrendPoint struct {
	Label        string  `json:"label"`
	WinRate      float64 `json:"win_rate"`
	ClosedVolume float64 `json:"closed_volume"`
	Deals        int     `json:"deals"`
}

// BuildTrends buckets the filtered scope by Created Date across the
// observed span. Buckets are contiguous: months (or quarters) without
// records emit zero-valued points so chart axes stay evenly spaced. When
// interval is auto, spans over a year fall back to quarters.
func BuildTrends(records []Opportunity, interval Interval) []TrendPoint {
	if len(records) == 0 {
		return nil
	}

	min, max := createdSpan(records)
	interval = resolveInterval(interval, min, max)

	type acc struct {
		won, lost int
		volume    float64
		deals     int
	}
	byKey := map[string]*acc{}
	for i := range records {
		key := bucketKey(records[i].CreatedDate, interval)
		a, ok := byKey[key]
		if !ok {
			a = &acc{}
			byKey[key] = a
		}
		a.deals++
		switch records[i].Class {
		case StageWon:
			a.won++
			a.volume += records[i].ACV
		case StageLost:
			a.lost++
		}
	}

	var points []TrendPoint
	for cur := bucketStart(min, interval); !cur.After(max); cur = nextBucket(cur, interval) {
		key := bucketKey(cur, interval)
		p := TrendPoint{Label: bucketLabel(cur, interval)}
		if a, ok := byKey[key]; ok {
			if closed := a.won + a.lost; closed > 0 {
				p.WinRate = round2(100 * float64(a.won) / float64(closed))
			}
			p.ClosedVolume = round2(a.volume)
			p.Deals = a.deals
		}
		points = append(points, p)
	}
	return points
}

// createdSpan returns the earliest and latest Created Date in the scope.
// Callers guarantee records is non-empty.
func createdSpan(records []Opportunity) (time.Time, time.Time) {
	min, max := records[0].CreatedDate, records[0].CreatedDate
	for i := range records {
		d := records[i].CreatedDate
		if d.Before(min) {
			min = d
		}
		if d.After(max) {
			max = d
		}
	}
	return min, max
}

// resolveInterval applies the auto rule: month buckets unless the observed
// span exceeds a year, then quarters.
func resolveInterval(interval Interval, min, max time.Time) Interval {
	if interval != IntervalAuto {
		return interval
	}
	if max.Sub(min) > 366*24*time.Hour {
		return IntervalQuarter
	}
	return IntervalMonth
}

func bucketStart(d time.Time, interval Interval) time.Time {
	if interval == IntervalQuarter {
		q := (int(d.Month()) - 1) / 3
		return time.Date(d.Year(), time.Month(3*q+1), 1, 0, 0, 0, 0, d.Location())
	}
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
}

func nextBucket(d time.Time, interval Interval) time.Time {
	if interval == IntervalQuarter {
		return d.AddDate(0, 3, 0)
	}
	return d.AddDate(0, 1, 0)
}

func bucketKey(d time.Time, interval Interval) string {
	s := bucketStart(d, interval)
	if interval == IntervalQuarter {
		return fmt.Sprintf("%dQ%d", s.Year(), (int(s.Month())-1)/3+1)
	}
	return s.Format("2006-01")
}

func bucketLabel(d time.Time, interval Interval) string {
	if interval == IntervalQuarter {
		return fmt.Sprintf("Q%d %d", (int(d.Month())-1)/3+1, d.Year())
	}
	return d.Format("Jan 2006")
}
