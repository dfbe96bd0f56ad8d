package gps

import (
	"math"
	"testing"
	"time"

	"github.com/sightline-labs/sightline/internal/geo"
)

func TestParseSentence(t *testing.T) {
	tests := []struct {
		name     string
		sentence string
		wantOK   bool
		wantLat  float64
		wantLon  float64
	}{
		{
			name:     "gga fix",
			sentence: "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47",
			wantOK:   true,
			wantLat:  48.1173,
			wantLon:  11.516666,
		},
		{
			name:     "rmc valid",
			sentence: "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A",
			wantOK:   true,
			wantLat:  48.1173,
			wantLon:  11.516666,
		},
		{
			name:     "rmc void status",
			sentence: "$GPRMC,123519,V,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A",
			wantOK:   false,
		},
		{
			name:     "gga without fix",
			sentence: "$GPGGA,123519,,,,,0,00,,,M,,M,,*66",
			wantOK:   false,
		},
		{
			name:     "southern western hemisphere",
			sentence: "$GPGGA,123519,3352.456,S,15112.093,W,1,08,0.9,21.0,M,,M,,*47",
			wantOK:   true,
			wantLat:  -33.8742666,
			wantLon:  -151.20155,
		},
		{
			name:     "unrelated sentence",
			sentence: "$GPVTG,054.7,T,034.4,M,005.5,N,010.2,K*48",
			wantOK:   false,
		},
		{
			name:     "minutes out of range",
			sentence: "$GPGGA,123519,4870.000,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47",
			wantOK:   false,
		},
		{
			name:     "garbage",
			sentence: "not a sentence",
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fix, ok := ParseSentence(tt.sentence)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if math.Abs(fix.Lat-tt.wantLat) > 1e-4 {
				t.Errorf("lat = %f, want %f", fix.Lat, tt.wantLat)
			}
			if math.Abs(fix.Lon-tt.wantLon) > 1e-4 {
				t.Errorf("lon = %f, want %f", fix.Lon, tt.wantLon)
			}
		})
	}
}

func TestTracker_PositionStaleness(t *testing.T) {
	base := time.Now()
	current := base

	tr := &SerialTracker{
		cfg: Config{Staleness: 10 * time.Second},
		now: func() time.Time { return current },
	}

	if _, ok := tr.Position(); ok {
		t.Fatal("expected no fix before any sentence")
	}

	tr.publish(geo.Coordinate{Lat: 48.1173, Lon: 11.5166})

	pos, ok := tr.Position()
	if !ok {
		t.Fatal("expected fresh fix")
	}
	if pos.Lat != 48.1173 {
		t.Errorf("lat = %f, want 48.1173", pos.Lat)
	}

	current = base.Add(11 * time.Second)
	if _, ok := tr.Position(); ok {
		t.Error("expected fix to expire after staleness window")
	}

	tr.publish(geo.Coordinate{Lat: 48.2, Lon: 11.6})
	pos, ok = tr.Position()
	if !ok {
		t.Fatal("expected fix after republish")
	}
	if pos.Lat != 48.2 {
		t.Errorf("lat = %f, want 48.2 (last value wins)", pos.Lat)
	}
}

func TestMock(t *testing.T) {
	a := geo.Coordinate{Lat: 1, Lon: 1}
	b := geo.Coordinate{Lat: 2, Lon: 2}

	m := NewMock(a, b)

	pos, ok := m.Position()
	if !ok || pos != a {
		t.Fatalf("Position() = %v, %v; want %v, true", pos, ok, a)
	}

	m.Advance()
	pos, _ = m.Position()
	if pos != b {
		t.Errorf("after Advance, got %v, want %v", pos, b)
	}

	m.Advance()
	pos, _ = m.Position()
	if pos != b {
		t.Errorf("final waypoint should be sticky, got %v", pos)
	}

	m.Lose()
	if _, ok := m.Position(); ok {
		t.Error("expected no fix after Lose")
	}

	empty := NewMock()
	if _, ok := empty.Position(); ok {
		t.Error("empty mock should report no fix")
	}
}
