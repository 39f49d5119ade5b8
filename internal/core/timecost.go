package core

import (
	"fmt"
	"math"
)

// TimeCost converts a monetary amount into hours of labor at the given
// hourly wage. A zero or negative wage yields zero hours: a user without
// a wage configured is a legitimate state, not an error.
func TimeCost(amount, hourlyWage Money) float64 {
	if hourlyWage.Cents <= 0 {
		return 0
	}
	return float64(amount.Cents) / float64(hourlyWage.Cents)
}

// FormatTimeCost renders an hours value as a human-readable duration.
// Rounding happens once at the tier that applies:
//
//	rounds to 0 minutes -> "less than a minute"
//	< 1 hour            -> whole minutes ("45 minutes")
//	< 24 hours          -> "Xh Ym", minutes omitted when zero ("3 hours")
//	>= 24 hours         -> "Xd Yh", hours omitted when zero ("2 days")
func FormatTimeCost(hours float64) string {
	if hours < 1 {
		minutes := int(math.Round(hours * 60))
		if minutes < 1 {
			return "less than a minute"
		}
		if minutes == 60 {
			return "1 hour"
		}
		return fmt.Sprintf("%d minute%s", minutes, plural(minutes))
	}
	if hours < 24 {
		whole := int(math.Floor(hours))
		minutes := int(math.Round((hours - float64(whole)) * 60))
		if minutes == 0 {
			return fmt.Sprintf("%d hour%s", whole, plural(whole))
		}
		return fmt.Sprintf("%dh %dm", whole, minutes)
	}
	days := int(math.Floor(hours / 24))
	rem := int(math.Round(math.Mod(hours, 24)))
	if rem == 0 {
		return fmt.Sprintf("%d day%s", days, plural(days))
	}
	return fmt.Sprintf("%dd %dh", days, rem)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
