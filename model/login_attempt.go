package model

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrImmutableRecord is returned when something tries to change an audit row.
var ErrImmutableRecord = errors.New("login attempt records are immutable")

// LoginAttempt is one authentication try against a known username.
type LoginAttempt struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          *uint     `gorm:"index" json:"user_id"`
	User            *User     `json:"-"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
	IPAddress       string    `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent       *string   `gorm:"type:varchar(512)" json:"user_agent,omitempty"`
	Browser         *string   `gorm:"type:varchar(64)" json:"browser,omitempty"`
	OperatingSystem *string   `gorm:"type:varchar(64)" json:"operating_system,omitempty"`
	DeviceType      *string   `gorm:"type:varchar(32)" json:"device_type,omitempty"`
	IsSuccessful    bool      `gorm:"not null;default:false" json:"is_successful"`
	FailureReason   *string   `gorm:"type:varchar(255)" json:"failure_reason,omitempty"`
	Location        *string   `gorm:"type:varchar(255)" json:"location,omitempty"`
	RequestID       string    `gorm:"type:varchar(64);index" json:"request_id,omitempty"`
}

func (LoginAttempt) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableRecord
}

func (LoginAttempt) BeforeDelete(tx *gorm.DB) error {
	return ErrImmutableRecord
}
