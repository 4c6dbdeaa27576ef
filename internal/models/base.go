package models

import (
	"strconv"
	"time"

	"gorm.io/gorm"
)

// BaseModel holds the fields shared by every persisted model:
// auto-incrementing ID plus created/updated/soft-delete timestamps.
type BaseModel struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`
}

// IDString returns the ID as a decimal string.
func (b *BaseModel) IDString() string {
	return strconv.FormatUint(uint64(b.ID), 10)
}
