package model

import "time"

// Activity is a free-form note attached to a user and optionally a customer.
type Activity struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Note       *string   `gorm:"type:text" json:"note"`
	CreatedAt  time.Time `json:"created_at"`
	UserID     uint      `gorm:"index" json:"user_id"`
	CustomerID *uint     `gorm:"index" json:"customer_id,omitempty"`
}
