package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/brewlink/internal/device/domain"
	"github.com/smallbiznis/brewlink/internal/gateway"
	"github.com/smallbiznis/brewlink/internal/telemetry"
	"go.uber.org/zap"
)

const (
	readyTimeout   = 2 * time.Second
	recentReadings = 5
)

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports 200 only while the gateway is listening and the database answers.
func (s *Server) Ready(c *gin.Context) {
	state := gateway.StateDisconnected
	if s.gateway != nil {
		state = s.gateway.State()
	}

	dbStatus := "ok"
	if err := s.pingDB(c.Request.Context()); err != nil {
		s.log.Warn("readiness database ping failed", zap.Error(err))
		dbStatus = "unavailable"
	}

	status := http.StatusOK
	if state != gateway.StateListening || dbStatus != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"gateway":  state.String(),
		"database": dbStatus,
	})
}

func (s *Server) pingDB(ctx context.Context) error {
	if s.db == nil {
		return ErrServiceUnavailable
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

type levelView struct {
	Value  float64       `json:"value"`
	Status domain.Status `json:"status"`
}

type deviceView struct {
	ID                int64         `json:"id"`
	IsPoweredOn       bool          `json:"is_powered_on"`
	NumbersOfCoffee   int           `json:"numbers_of_coffee"`
	CupsStatus        domain.Status `json:"cups_status"`
	DaysSinceCleaning *int          `json:"days_since_cleaning"`
	CleaningStatus    domain.Status `json:"cleaning_status"`
	LastCleaningTime  *time.Time    `json:"last_cleaning_time,omitempty"`
}

type debugResponse struct {
	gateway.Snapshot
	Levels map[string]levelView `json:"levels"`
	Device *deviceView          `json:"device,omitempty"`

	RecentReadings []*domain.SensorReading `json:"recent_readings,omitempty"`
}

// DebugGateway exposes the gateway snapshot with derived consumable statuses.
func (s *Server) DebugGateway(c *gin.Context) {
	if s.gateway == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	snap := s.gateway.Snapshot()
	resp := debugResponse{
		Snapshot: snap,
		Levels:   map[string]levelView{},
	}
	if snap.Latest != nil {
		resp.Levels = levelsOf(*snap.Latest)
	}

	// The snapshot is served even when the device row cannot be read.
	if s.repo != nil {
		ctx := c.Request.Context()
		log := s.log.With(zap.Int64("device_id", s.deviceID))
		if device, err := s.repo.GetDevice(ctx, s.deviceID); err != nil {
			log.Warn("debug view without device", zap.Error(err))
		} else {
			resp.Device = s.describeDevice(device)
		}

		if readings, err := s.repo.ListSensorReadings(ctx, s.deviceID, recentReadings); err != nil {
			log.Warn("debug view without recent readings", zap.Error(err))
		} else {
			resp.RecentReadings = readings
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) describeDevice(device *domain.Device) *deviceView {
	view := &deviceView{
		ID:               device.ID,
		IsPoweredOn:      device.IsPoweredOn,
		NumbersOfCoffee:  device.NumbersOfCoffee,
		CupsStatus:       domain.CupsStatus(device.NumbersOfCoffee),
		LastCleaningTime: device.LastCleaningTime,
	}
	days := domain.DaysSince(device.LastCleaningTime, s.clock.Now())
	view.CleaningStatus = domain.CleaningStatus(days)
	if device.LastCleaningTime != nil {
		view.DaysSinceCleaning = &days
	}
	return view
}

func levelsOf(env telemetry.Envelope) map[string]levelView {
	payload := gateway.DecodeSensorPayload(env.Data)
	out := map[string]levelView{}
	if payload.WaterLevel != nil {
		out["water_level"] = newLevelView(*payload.WaterLevel)
	}
	if payload.BeansLevel != nil {
		out["beans_level"] = newLevelView(*payload.BeansLevel)
	}
	return out
}

func newLevelView(value float64) levelView {
	return levelView{Value: value, Status: domain.LevelStatus(value)}
}
