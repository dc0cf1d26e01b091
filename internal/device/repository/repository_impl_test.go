package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/brewlink/internal/device/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:devices_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Device{}, &domain.SensorReading{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seedDevice(t *testing.T, db *gorm.DB, quota int, powered bool) *domain.Device {
	t.Helper()
	device := &domain.Device{
		DeviceName:      "kitchen",
		NumbersOfCoffee: quota,
		IsPoweredOn:     powered,
	}
	require.NoError(t, db.Create(device).Error)
	// GORM skips zero values that carry a default tag.
	require.NoError(t, db.Model(device).Updates(map[string]any{
		"numbers_of_coffee": quota,
		"is_powered_on":     powered,
	}).Error)
	return device
}

func floatPtr(v float64) *float64 { return &v }

func TestGetDevice(t *testing.T) {
	db := setupTestDB(t)
	repo := Provide(db)
	ctx := context.Background()

	seeded := seedDevice(t, db, 3, true)

	got, err := repo.GetDevice(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.NumbersOfCoffee)
	assert.True(t, got.IsPoweredOn)

	_, err = repo.GetDevice(ctx, seeded.ID+100)
	assert.ErrorIs(t, err, domain.ErrDeviceNotFound)

	_, err = repo.GetDevice(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrDeviceNotFound)
}

func TestDecrementQuotaClampsAtZero(t *testing.T) {
	db := setupTestDB(t)
	repo := Provide(db)
	ctx := context.Background()

	cases := []struct {
		name   string
		start  int
		amount int
		want   int
	}{
		{name: "single", start: 4, amount: 1, want: 3},
		{name: "double", start: 4, amount: 2, want: 2},
		{name: "exact", start: 2, amount: 2, want: 0},
		{name: "clamped", start: 1, amount: 2, want: 0},
		{name: "already empty", start: 0, amount: 1, want: 0},
		{name: "zero amount", start: 3, amount: 0, want: 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			device := seedDevice(t, db, tc.start, true)
			require.NoError(t, repo.DecrementQuota(ctx, device.ID, tc.amount))

			got, err := repo.GetDevice(ctx, device.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.NumbersOfCoffee)
		})
	}
}

func TestDecrementQuotaRejectsInvalidInput(t *testing.T) {
	db := setupTestDB(t)
	repo := Provide(db)
	ctx := context.Background()

	device := seedDevice(t, db, 4, true)
	assert.ErrorIs(t, repo.DecrementQuota(ctx, device.ID, -1), domain.ErrInvalidAmount)
	assert.ErrorIs(t, repo.DecrementQuota(ctx, device.ID+1, 1), domain.ErrDeviceNotFound)

	got, err := repo.GetDevice(ctx, device.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.NumbersOfCoffee)
}

func TestSetPowerState(t *testing.T) {
	db := setupTestDB(t)
	repo := Provide(db)
	ctx := context.Background()

	device := seedDevice(t, db, 4, false)

	require.NoError(t, repo.SetPowerState(ctx, device.ID, true))
	got, err := repo.GetDevice(ctx, device.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPoweredOn)

	// Writing the same value again is not an error.
	require.NoError(t, repo.SetPowerState(ctx, device.ID, true))

	require.NoError(t, repo.SetPowerState(ctx, device.ID, false))
	got, err = repo.GetDevice(ctx, device.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPoweredOn)

	assert.ErrorIs(t, repo.SetPowerState(ctx, device.ID+1, true), domain.ErrDeviceNotFound)
}

func TestSetLastCleaningOnlyAdvances(t *testing.T) {
	db := setupTestDB(t)
	repo := Provide(db)
	ctx := context.Background()

	device := seedDevice(t, db, 4, true)
	t1 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	t0 := t1.Add(-48 * time.Hour)
	t2 := t1.Add(24 * time.Hour)

	require.NoError(t, repo.SetLastCleaning(ctx, device.ID, t1))
	got, err := repo.GetDevice(ctx, device.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastCleaningTime)
	assert.True(t, got.LastCleaningTime.Equal(t1))

	require.NoError(t, repo.SetLastCleaning(ctx, device.ID, t0))
	got, err = repo.GetDevice(ctx, device.ID)
	require.NoError(t, err)
	assert.True(t, got.LastCleaningTime.Equal(t1), "older timestamp must not move the cleaning time back")

	require.NoError(t, repo.SetLastCleaning(ctx, device.ID, t2))
	got, err = repo.GetDevice(ctx, device.ID)
	require.NoError(t, err)
	assert.True(t, got.LastCleaningTime.Equal(t2))

	assert.ErrorIs(t, repo.SetLastCleaning(ctx, device.ID+1, t2), domain.ErrDeviceNotFound)
}

func TestInsertAndListSensorReadings(t *testing.T) {
	db := setupTestDB(t)
	repo := Provide(db)
	ctx := context.Background()

	device := seedDevice(t, db, 4, true)
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		reading := &domain.SensorReading{
			DeviceID:   device.ID,
			WaterLevel: floatPtr(float64(80 - i*10)),
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
			Payload:    datatypes.JSON(`{"water_level":80}`),
		}
		require.NoError(t, repo.InsertSensorReading(ctx, reading))
		assert.NotZero(t, reading.ID)
	}

	readings, err := repo.ListSensorReadings(ctx, device.ID, 2)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, 60.0, *readings[0].WaterLevel)
	assert.Equal(t, 70.0, *readings[1].WaterLevel)
	assert.Nil(t, readings[0].BeansLevel)

	err = repo.InsertSensorReading(ctx, &domain.SensorReading{DeviceID: device.ID, Timestamp: base})
	assert.ErrorIs(t, err, domain.ErrInvalidReading)
}

func TestResetAllQuotas(t *testing.T) {
	db := setupTestDB(t)
	repo := Provide(db)
	ctx := context.Background()

	first := seedDevice(t, db, 0, true)
	second := seedDevice(t, db, 2, false)

	rows, err := repo.ResetAllQuotas(ctx, domain.DefaultQuota)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows)

	for _, id := range []int64{first.ID, second.ID} {
		got, err := repo.GetDevice(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultQuota, got.NumbersOfCoffee)
	}

	_, err = repo.ResetAllQuotas(ctx, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}
