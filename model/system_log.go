package model

import (
	"time"

	"gorm.io/datatypes"
)

// SystemLog represents a persisted security or system event
type SystemLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	Level     string    `json:"level" gorm:"column:level;type:varchar(20);not null"`
	EventType string    `json:"event_type" gorm:"column:event_type;type:varchar(64);index"`
	Source    string    `json:"source" gorm:"column:source;type:varchar(255)"`
	UserID    *uint     `json:"user_id,omitempty" gorm:"column:user_id;index"`
	Username  string    `json:"username" gorm:"column:username;type:varchar(100);index"`
	IP        string    `json:"ip" gorm:"column:ip;type:varchar(45)"`
	UserAgent string    `json:"user_agent" gorm:"column:user_agent;type:varchar(512)"`
	Message   string    `json:"message" gorm:"column:message;type:text"`
	// Details holds arbitrary event fields serialized as JSON.
	Details datatypes.JSON `json:"details" gorm:"column:details;type:json"`
}

// AllModels lists every table this service owns, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&Role{},
		&User{},
		&LoginAttempt{},
		&Activity{},
		&SystemLog{},
	}
}
