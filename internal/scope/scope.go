package scope

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Shop narrows a query to one shop. A nil id means "all shops" and leaves
// the query untouched.
func Shop(shopID *uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if shopID == nil {
			return db
		}
		return db.Where("shop_id = ?", *shopID)
	}
}
