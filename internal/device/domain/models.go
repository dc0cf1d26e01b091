package domain

import (
	"time"

	"gorm.io/datatypes"
)

// DefaultQuota is the number of coffees a device may brew per day.
const DefaultQuota = 4

// Device is a networked coffee machine and its daily counters.
type Device struct {
	ID               int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID           *int64     `json:"user_id,omitempty" gorm:"column:user_id;index"`
	DeviceName       string     `json:"device_name" gorm:"type:text;not null"`
	TotalActiveTime  int64      `json:"total_active_time" gorm:"not null;default:0"`
	LastCleaningTime *time.Time `json:"last_cleaning_time,omitempty"`
	NumbersOfCoffee  int        `json:"numbers_of_coffee" gorm:"not null;default:4"`
	IsPoweredOn      bool       `json:"is_powered_on" gorm:"not null;default:false"`
	CreatedAt        time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	LastActive       *time.Time `json:"last_active,omitempty"`
}

// TableName sets the database table name.
func (Device) TableName() string { return "devices" }

// SensorReading is one water/beans sample reported by a device.
type SensorReading struct {
	ID         int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	DeviceID   int64          `json:"device_id" gorm:"not null;index:idx_sensor_data_device_ts,priority:1"`
	WaterLevel *float64       `json:"water_level,omitempty"`
	BeansLevel *float64       `json:"beans_level,omitempty"`
	Timestamp  time.Time      `json:"timestamp" gorm:"not null;index:idx_sensor_data_device_ts,priority:2"`
	Payload    datatypes.JSON `json:"payload,omitempty"`
}

// TableName sets the database table name.
func (SensorReading) TableName() string { return "sensor_data" }

// HasLevels reports whether the reading carries at least one level.
func (r SensorReading) HasLevels() bool {
	return r.WaterLevel != nil || r.BeansLevel != nil
}
