package seed

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/brewlink/internal/device/domain"
	dbpkg "github.com/smallbiznis/brewlink/pkg/db"
	"gorm.io/gorm"
)

const defaultDeviceName = "Coffee Machine"

// EnsureDefaultDevice seeds the device that unattributed telemetry is applied to.
// An existing row is left untouched.
func EnsureDefaultDevice(db *gorm.DB, id int64) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if id <= 0 {
		return errors.New("seed device id must be positive")
	}

	ctx := context.Background()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := ensureDeviceTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if created && tx.Dialector.Name() == "postgres" {
			return syncDeviceSequenceTx(ctx, tx)
		}
		return nil
	})
	// Another replica seeded the row first.
	if dbpkg.IsDuplicateKeyErr(err) {
		return nil
	}
	return err
}

func ensureDeviceTx(ctx context.Context, tx *gorm.DB, id int64) (bool, error) {
	var existing domain.Device
	err := tx.WithContext(ctx).Where("id = ?", id).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	device := domain.Device{
		ID:              id,
		DeviceName:      defaultDeviceName,
		NumbersOfCoffee: domain.DefaultQuota,
		CreatedAt:       time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(&device).Error; err != nil {
		return false, err
	}
	return true, nil
}

// syncDeviceSequenceTx moves the serial past an explicitly inserted id.
func syncDeviceSequenceTx(ctx context.Context, tx *gorm.DB) error {
	return tx.WithContext(ctx).Exec(
		`SELECT setval(pg_get_serial_sequence('devices', 'id'), (SELECT COALESCE(MAX(id), 1) FROM devices))`,
	).Error
}
