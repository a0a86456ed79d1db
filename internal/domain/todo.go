package domain

import "time"

// MaxTitleLength bounds the title column.
const MaxTitleLength = 200

// Todo is the single persisted entity. ID and both timestamps are assigned
// by the store; callers never set them.
type Todo struct {
	ID          uint      `gorm:"primaryKey"`
	Title       string    `gorm:"size:200;not null"`
	Description string    `gorm:"type:text;not null;default:''"`
	Completed   bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"not null;index"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName implements the GORM tabler interface.
func (Todo) TableName() string { return "todos" }
