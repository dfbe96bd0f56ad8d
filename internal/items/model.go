package items

import "time"

// ItemLocation is the single active location per item class. Newest
// confirmation wins.
type ItemLocation struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	ItemClass string    `gorm:"uniqueIndex;not null" json:"item_class"`
	Location  string    `gorm:"not null" json:"location"`
	UpdatedAt time.Time `json:"updated_at"`
}
