package shop

import (
	"time"

	"github.com/google/uuid"
)

// Shop is maintained by the catalog administration service; this engine only
// reads it to resolve names for payroll responses.
type Shop struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	Location  string
	IsActive  bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
