package spatial

import (
	"testing"

	"github.com/sightline-labs/sightline/internal/shared"
)

func boxAround(cx, cy, w, h float64) shared.BoundingBox {
	return shared.BoundingBox{X1: cx - w/2, Y1: cy - h/2, X2: cx + w/2, Y2: cy + h/2}
}

func TestClassifier_ZoneOf(t *testing.T) {
	c := NewClassifier(640, 480)
	tests := []struct {
		cx, cy float64
		want   Zone
	}{
		{100, 80, ZoneTopLeft},
		{320, 80, ZoneTop},
		{550, 80, ZoneTopRight},
		{100, 240, ZoneLeft},
		{320, 240, ZoneCenter},
		{550, 240, ZoneRight},
		{100, 435, ZoneBottomLeft},
		{320, 400, ZoneBottom},
		{550, 400, ZoneBottomRight},
	}
	for _, tt := range tests {
		got := c.ZoneOf(boxAround(tt.cx, tt.cy, 40, 40))
		if got != tt.want {
			t.Errorf("ZoneOf(center %v,%v) = %s, want %s", tt.cx, tt.cy, got, tt.want)
		}
	}
}

func TestClassifier_ZoneBoundaries(t *testing.T) {
	c := NewClassifier(600, 300)
	// A center exactly on a grid line belongs to the later cell.
	if got := c.ZoneOf(boxAround(200, 50, 10, 10)); got != ZoneTop {
		t.Errorf("x=200 should fall in the middle column, got %s", got)
	}
	if got := c.ZoneOf(boxAround(50, 200, 10, 10)); got != ZoneBottomLeft {
		t.Errorf("y=200 should fall in the bottom row, got %s", got)
	}
}

func TestZone_Priority(t *testing.T) {
	tests := []struct {
		zone Zone
		want int
	}{
		{ZoneBottomLeft, 1},
		{ZoneBottom, 1},
		{ZoneBottomRight, 1},
		{ZoneLeft, 2},
		{ZoneCenter, 2},
		{ZoneRight, 2},
		{ZoneTopLeft, 3},
		{ZoneTop, 3},
		{ZoneTopRight, 3},
	}
	for _, tt := range tests {
		if got := tt.zone.Priority(); got != tt.want {
			t.Errorf("%s priority = %d, want %d", tt.zone, got, tt.want)
		}
	}
}

func TestClassifier_Bucket(t *testing.T) {
	c := NewClassifier(640, 480)
	frameArea := 640.0 * 480.0

	tests := []struct {
		name  string
		ratio float64
		want  DistanceBucket
	}{
		{"very close", 0.40, BucketVeryClose},
		{"close", 0.20, BucketClose},
		{"medium", 0.10, BucketMedium},
		{"far", 0.01, BucketFar},
		{"boundary 35 percent", 0.35, BucketClose},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			side := tt.ratio * frameArea
			box := shared.BoundingBox{X1: 0, Y1: 0, X2: side / 100, Y2: 100}
			if got := c.Bucket(box); got != tt.want {
				t.Errorf("Bucket(ratio %v) = %s, want %s", tt.ratio, got, tt.want)
			}
		})
	}
}

func TestBucket_Meters(t *testing.T) {
	if BucketVeryClose.Meters() >= BucketClose.Meters() {
		t.Error("very-close should be nearer than close")
	}
	if BucketMedium.Meters() >= BucketFar.Meters() {
		t.Error("medium should be nearer than far")
	}
}
