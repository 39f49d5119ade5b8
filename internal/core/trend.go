package core

import "math"

const (
	TrendUp      TrendDirection = "up"
	TrendDown    TrendDirection = "down"
	TrendNeutral TrendDirection = "neutral"
)

type (
	TrendDirection string

	// Trend is a period-over-period comparison: a non-negative rounded
	// percentage plus the direction of the change.
	Trend struct {
		Value     int            `json:"value"`
		Direction TrendDirection `json:"direction"`
	}
)

// TrendOf compares a current period total against the previous one.
// Growth from a zero base is reported as a flat 100% up, not infinite;
// zero against zero is neutral.
func TrendOf(current, previous Money) Trend {
	if previous.Cents == 0 {
		if current.Cents > 0 {
			return Trend{Value: 100, Direction: TrendUp}
		}
		return Trend{Value: 0, Direction: TrendNeutral}
	}
	change := float64(current.Cents-previous.Cents) / float64(previous.Cents) * 100
	t := Trend{Value: int(math.Round(math.Abs(change)))}
	switch {
	case change > 0:
		t.Direction = TrendUp
	case change < 0:
		t.Direction = TrendDown
	default:
		t.Direction = TrendNeutral
	}
	return t
}
