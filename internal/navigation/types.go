package navigation

import (
	"time"

	"github.com/sightline-labs/sightline/internal/geo"
)

// TravelMode selects the routing profile of the directions backend.
type TravelMode string

const (
	ModeWalking   TravelMode = "walking"
	ModeBicycling TravelMode = "bicycling"
	ModeTransit   TravelMode = "transit"
	ModeDriving   TravelMode = "driving"
)

type RouteStep struct {
	Instruction    string
	Start          geo.Coordinate
	End            geo.Coordinate
	DistanceMeters float64
	Duration       time.Duration
}

type Route struct {
	Destination    string
	Steps          []RouteStep
	DistanceMeters float64
	Duration       time.Duration
}

// FinalWaypoint is the end of the last step, the point arrival is
// measured against.
func (r Route) FinalWaypoint() geo.Coordinate {
	if len(r.Steps) == 0 {
		return geo.Coordinate{}
	}
	return r.Steps[len(r.Steps)-1].End
}
