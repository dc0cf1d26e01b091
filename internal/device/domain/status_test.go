package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLevelStatus(t *testing.T) {
	assert.Equal(t, StatusPerfect, LevelStatus(80))
	assert.Equal(t, StatusGood, LevelStatus(79.9))
	assert.Equal(t, StatusGood, LevelStatus(50))
	assert.Equal(t, StatusLow, LevelStatus(20))
	assert.Equal(t, StatusCritical, LevelStatus(19))
	assert.Equal(t, StatusCritical, LevelStatus(-5))
}

func TestCupsStatus(t *testing.T) {
	assert.Equal(t, StatusPerfect, CupsStatus(4))
	assert.Equal(t, StatusPerfect, CupsStatus(3))
	assert.Equal(t, StatusGood, CupsStatus(2))
	assert.Equal(t, StatusLow, CupsStatus(1))
	assert.Equal(t, StatusCritical, CupsStatus(0))
	assert.Equal(t, StatusCritical, CupsStatus(7))
}

func TestCleaningStatus(t *testing.T) {
	now := time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-30 * time.Hour)
	monthAgo := now.AddDate(0, -1, -5)

	assert.Equal(t, 1, DaysSince(&yesterday, now))
	assert.Equal(t, StatusPerfect, CleaningStatus(DaysSince(&yesterday, now)))
	assert.Equal(t, StatusGood, CleaningStatus(15))
	assert.Equal(t, StatusLow, CleaningStatus(30))
	assert.Equal(t, StatusCritical, CleaningStatus(DaysSince(&monthAgo, now)))
	assert.Equal(t, StatusCritical, CleaningStatus(DaysSince(nil, now)))

	future := now.Add(time.Hour)
	assert.Equal(t, 0, DaysSince(&future, now))
}
