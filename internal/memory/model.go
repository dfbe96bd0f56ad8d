package memory

import (
	"time"

	"github.com/sightline-labs/sightline/internal/shared"
)

// RememberedObject is a user-enrolled object: a custom name bound to
// an aggregated visual signature.
type RememberedObject struct {
	ID          string     `gorm:"primaryKey" json:"id"`
	CustomName  string     `gorm:"uniqueIndex;not null" json:"custom_name"`
	SourceClass string     `gorm:"index;not null" json:"source_class"`
	Features    FeatureSet `gorm:"type:text" json:"-"`
	FrameCount  int        `json:"frame_count"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Sighting is the last known location of a remembered object. One row
// per object; every recognition overwrites it.
type Sighting struct {
	ID         uint               `gorm:"primaryKey" json:"-"`
	ObjectID   string             `gorm:"uniqueIndex;not null" json:"object_id"`
	Location   string             `json:"location,omitempty"`
	Lat        float64            `json:"lat,omitempty"`
	Lon        float64            `json:"lon,omitempty"`
	Context    shared.StringSlice `gorm:"type:text" json:"context,omitempty"`
	Confidence float64            `json:"confidence"`
	SeenAt     time.Time          `json:"seen_at"`
}
