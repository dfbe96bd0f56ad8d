package geo

import (
	"math"
	"testing"
)

func TestDistance_SamePoint(t *testing.T) {
	p := Coordinate{Lat: 12.9716, Lon: 77.5946}
	if got := Distance(p, p); got != 0 {
		t.Errorf("Distance(p,p) = %v, want 0", got)
	}
}

func TestDistance_Symmetric(t *testing.T) {
	a := Coordinate{Lat: 12.9716, Lon: 77.5946}
	b := Coordinate{Lat: 12.9780, Lon: 77.6408}
	if Distance(a, b) != Distance(b, a) {
		t.Errorf("distance not symmetric: %v vs %v", Distance(a, b), Distance(b, a))
	}
}

func TestDistance_KnownValues(t *testing.T) {
	tests := []struct {
		name string
		a, b Coordinate
		want float64 // meters
		tol  float64
	}{
		{
			// one degree of latitude at the equator
			name: "one degree latitude",
			a:    Coordinate{Lat: 0, Lon: 0},
			b:    Coordinate{Lat: 1, Lon: 0},
			want: 111195,
			tol:  50,
		},
		{
			name: "hundred meters north",
			a:    Coordinate{Lat: 12.97160, Lon: 77.59460},
			b:    Coordinate{Lat: 12.97250, Lon: 77.59460},
			want: 100,
			tol:  2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("Distance = %v, want %v +/- %v", got, tt.want, tt.tol)
			}
		})
	}
}

func TestBearing(t *testing.T) {
	origin := Coordinate{Lat: 0, Lon: 0}
	tests := []struct {
		name string
		to   Coordinate
		want float64
	}{
		{"due north", Coordinate{Lat: 1, Lon: 0}, 0},
		{"due east", Coordinate{Lat: 0, Lon: 1}, 90},
		{"due south", Coordinate{Lat: -1, Lon: 0}, 180},
		{"due west", Coordinate{Lat: 0, Lon: -1}, 270},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(origin, tt.to)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Bearing = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBearing_Range(t *testing.T) {
	a := Coordinate{Lat: 51.5, Lon: -0.12}
	b := Coordinate{Lat: 48.85, Lon: 2.35}
	got := Bearing(a, b)
	if got < 0 || got >= 360 {
		t.Errorf("bearing out of range: %v", got)
	}
}
