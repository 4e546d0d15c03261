// internal/models/common.go
package models

import (
	"time"
)

// Base model with common fields. IDs are assigned by the store on insert
// and never change afterwards.
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
