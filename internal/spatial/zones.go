// Package spatial turns per-frame detections into zoned obstacle
// guidance: a 3x3 partition of the camera frame, qualitative distance
// buckets, and fused warnings when a range sensor covers the target.
package spatial

import "github.com/sightline-labs/sightline/internal/shared"

// Zone is one cell of the 3x3 frame partition.
type Zone string

const (
	ZoneTopLeft     Zone = "top-left"
	ZoneTop         Zone = "top"
	ZoneTopRight    Zone = "top-right"
	ZoneLeft        Zone = "left"
	ZoneCenter      Zone = "center"
	ZoneRight       Zone = "right"
	ZoneBottomLeft  Zone = "bottom-left"
	ZoneBottom      Zone = "bottom"
	ZoneBottomRight Zone = "bottom-right"
)

// Priority ranks a zone's row for guidance: the bottom row is the
// walking path, the top row is overhead clutter.
func (z Zone) Priority() int {
	switch z {
	case ZoneBottomLeft, ZoneBottom, ZoneBottomRight:
		return 1
	case ZoneLeft, ZoneCenter, ZoneRight:
		return 2
	default:
		return 3
	}
}

// Spoken returns the phrase used for the zone in guidance messages.
func (z Zone) Spoken() string {
	switch z {
	case ZoneTopLeft:
		return "above left"
	case ZoneTop:
		return "above"
	case ZoneTopRight:
		return "above right"
	case ZoneLeft:
		return "left"
	case ZoneCenter:
		return "ahead"
	case ZoneRight:
		return "right"
	case ZoneBottomLeft:
		return "low left"
	case ZoneBottom:
		return "low ahead"
	case ZoneBottomRight:
		return "low right"
	}
	return string(z)
}

// DistanceBucket is the qualitative range estimated from bbox size.
type DistanceBucket string

const (
	BucketVeryClose DistanceBucket = "very-close"
	BucketClose     DistanceBucket = "close"
	BucketMedium    DistanceBucket = "medium"
	BucketFar       DistanceBucket = "far"
)

// Meters returns the nominal distance assigned to a bucket when no
// sensor measurement is available.
func (b DistanceBucket) Meters() float64 {
	switch b {
	case BucketVeryClose:
		return 0.5
	case BucketClose:
		return 1.0
	case BucketMedium:
		return 2.0
	default:
		return 4.0
	}
}

// Classifier maps bounding boxes onto zones and distance buckets for
// a fixed frame geometry.
type Classifier struct {
	frameWidth  float64
	frameHeight float64
}

func NewClassifier(frameWidth, frameHeight int) *Classifier {
	return &Classifier{
		frameWidth:  float64(frameWidth),
		frameHeight: float64(frameHeight),
	}
}

// ZoneOf classifies a box by its center point.
func (c *Classifier) ZoneOf(box shared.BoundingBox) Zone {
	cx, cy := box.Center()

	col := 0
	switch {
	case cx >= 2*c.frameWidth/3:
		col = 2
	case cx >= c.frameWidth/3:
		col = 1
	}

	row := 0
	switch {
	case cy >= 2*c.frameHeight/3:
		row = 2
	case cy >= c.frameHeight/3:
		row = 1
	}

	grid := [3][3]Zone{
		{ZoneTopLeft, ZoneTop, ZoneTopRight},
		{ZoneLeft, ZoneCenter, ZoneRight},
		{ZoneBottomLeft, ZoneBottom, ZoneBottomRight},
	}
	return grid[row][col]
}

// Bucket estimates distance from the box's share of the frame area.
// Larger boxes are closer.
func (c *Classifier) Bucket(box shared.BoundingBox) DistanceBucket {
	frameArea := c.frameWidth * c.frameHeight
	if frameArea == 0 {
		return BucketFar
	}

	ratio := box.Area() / frameArea
	switch {
	case ratio > 0.35:
		return BucketVeryClose
	case ratio > 0.15:
		return BucketClose
	case ratio > 0.05:
		return BucketMedium
	}
	return BucketFar
}
