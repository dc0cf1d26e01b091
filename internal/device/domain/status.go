package domain

import (
	"math"
	"time"
)

// Status is a coarse health grade for a consumable.
type Status string

const (
	StatusPerfect  Status = "perfect"
	StatusGood     Status = "good"
	StatusLow      Status = "low"
	StatusCritical Status = "critical"
)

// LevelStatus grades a water or beans percentage.
func LevelStatus(percentage float64) Status {
	switch {
	case percentage >= 80:
		return StatusPerfect
	case percentage >= 50:
		return StatusGood
	case percentage >= 20:
		return StatusLow
	default:
		return StatusCritical
	}
}

// CupsStatus grades the remaining daily quota.
func CupsStatus(remaining int) Status {
	switch remaining {
	case 4, 3:
		return StatusPerfect
	case 2:
		return StatusGood
	case 1:
		return StatusLow
	default:
		return StatusCritical
	}
}

// DaysSince returns whole days elapsed between last and now, rounded down.
// A nil last cleaning counts as never cleaned.
func DaysSince(last *time.Time, now time.Time) int {
	if last == nil {
		return math.MaxInt32
	}
	d := now.Sub(*last)
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

// CleaningStatus grades the time since the last cleaning.
func CleaningStatus(daysSince int) Status {
	switch {
	case daysSince <= 1:
		return StatusPerfect
	case daysSince <= 15:
		return StatusGood
	case daysSince <= 30:
		return StatusLow
	default:
		return StatusCritical
	}
}
