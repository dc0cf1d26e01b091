package migration

import (
	"github.com/smallbiznis/brewlink/internal/config"
	"github.com/smallbiznis/brewlink/internal/device/domain"
	"github.com/smallbiznis/brewlink/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		version, err := Apply(conn, cfg.DBType)
		if err != nil {
			return err
		}
		log.Named("migration").Info("schema ready",
			zap.String("db_type", cfg.DBType),
			zap.Uint("version", version),
		)

		if cfg.SeedDefaultDevice {
			return seed.EnsureDefaultDevice(conn, cfg.DefaultDeviceID)
		}
		return nil
	}),
)

// Apply runs the versioned migrations on postgres and falls back to
// AutoMigrate for the other dialects, which report version 0.
func Apply(conn *gorm.DB, dbType string) (uint, error) {
	if dbType != "postgres" {
		return 0, conn.AutoMigrate(&domain.Device{}, &domain.SensorReading{})
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return 0, err
	}
	return RunMigrations(sqlDB)
}
