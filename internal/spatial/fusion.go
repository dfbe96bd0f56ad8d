package spatial

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/sightline-labs/sightline/internal/shared"
)

// Accuracy tags how a warning's distance was obtained.
type Accuracy string

const (
	AccuracyMeasured  Accuracy = "measured"
	AccuracyEstimated Accuracy = "estimated"
)

// RangeSensor is the consumed rangefinder capability. Read returns
// the latest distance in centimeters, or ok=false when no fresh
// reading exists.
type RangeSensor interface {
	Read() (cm float64, ok bool)
}

// Warning is one per-obstacle guidance entry, regenerated each
// evaluation cycle.
type Warning struct {
	Message  string         `json:"message"`
	Priority int            `json:"priority"`
	Distance float64        `json:"distance_m"`
	Class    string         `json:"class"`
	Zone     Zone           `json:"zone"`
	Bucket   DistanceBucket `json:"bucket"`
	Accuracy Accuracy       `json:"accuracy"`
}

// Guidance is the result of one fusion cycle: at most MaxWarnings
// per-obstacle entries sorted by ascending priority, plus one
// aggregate directional suggestion.
type Guidance struct {
	Warnings  []Warning `json:"warnings"`
	Direction string    `json:"direction,omitempty"`
	Blocked   bool      `json:"blocked"`
}

const (
	DirectionClear     = "path clear, continue straight"
	DirectionStepLeft  = "obstacle ahead, step left"
	DirectionStepRight = "obstacle ahead, step right"
	DirectionStop      = "stop, path blocked"
)

type EngineConfig struct {
	FrameWidth  int
	FrameHeight int

	// SensorFOV is the rangefinder's cone in degrees; CameraFOV is
	// the camera's horizontal field of view in degrees.
	SensorFOV float64
	CameraFOV float64

	// ObstacleClasses is the allow-list of classes that produce
	// warnings.
	ObstacleClasses []string

	// MaxWarnings caps per-cycle emissions to avoid audio flooding.
	MaxWarnings int
}

var DefaultObstacleClasses = []string{
	"person", "chair", "couch", "bicycle", "car", "motorcycle",
	"bus", "truck", "bench", "potted plant", "dog", "cat",
}

// Engine fuses zone classification with range-sensor readings into
// ranked, phrased obstacle warnings.
type Engine struct {
	classifier *Classifier
	sensor     RangeSensor
	cfg        EngineConfig
	obstacles  map[string]bool
	log        *slog.Logger
}

func NewEngine(cfg EngineConfig, sensor RangeSensor, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxWarnings == 0 {
		cfg.MaxWarnings = 3
	}
	if cfg.SensorFOV == 0 {
		cfg.SensorFOV = 15
	}
	if cfg.CameraFOV == 0 {
		cfg.CameraFOV = 60
	}
	classes := cfg.ObstacleClasses
	if len(classes) == 0 {
		classes = DefaultObstacleClasses
	}

	obstacles := make(map[string]bool, len(classes))
	for _, c := range classes {
		obstacles[strings.ToLower(c)] = true
	}

	return &Engine{
		classifier: NewClassifier(cfg.FrameWidth, cfg.FrameHeight),
		sensor:     sensor,
		cfg:        cfg,
		obstacles:  obstacles,
		log:        log.With("component", "obstacle-fusion"),
	}
}

// Evaluate runs one fusion cycle over the frame's detections.
func (e *Engine) Evaluate(detections []shared.Detection) Guidance {
	var warnings []Warning
	occupied := make(map[Zone]bool)

	sensorCm, sensorOK := 0.0, false
	if e.sensor != nil {
		sensorCm, sensorOK = e.sensor.Read()
	}

	for _, det := range detections {
		if !e.obstacles[strings.ToLower(det.Class)] {
			continue
		}

		zone := e.classifier.ZoneOf(det.Box)
		bucket := e.classifier.Bucket(det.Box)
		occupied[zone] = true

		distance := bucket.Meters()
		accuracy := AccuracyEstimated
		if sensorOK && e.inSensorCone(det.Box) {
			distance = sensorCm / 100
			accuracy = AccuracyMeasured
		}

		priority := zone.Priority()
		if bucket == BucketVeryClose || (bucket == BucketClose && priority == 2) {
			priority = 1
		}

		warnings = append(warnings, Warning{
			Message:  phrase(det.Class, zone, bucket),
			Priority: priority,
			Distance: distance,
			Class:    det.Class,
			Zone:     zone,
			Bucket:   bucket,
			Accuracy: accuracy,
		})
	}

	sort.SliceStable(warnings, func(i, j int) bool {
		if warnings[i].Priority != warnings[j].Priority {
			return warnings[i].Priority < warnings[j].Priority
		}
		return warnings[i].Distance < warnings[j].Distance
	})
	if len(warnings) > e.cfg.MaxWarnings {
		warnings = warnings[:e.cfg.MaxWarnings]
	}

	direction := suggestDirection(occupied)

	return Guidance{
		Warnings:  warnings,
		Direction: direction,
		Blocked:   direction == DirectionStop,
	}
}

// inSensorCone reports whether the box's horizontal angular offset
// from frame center falls within the rangefinder's cone, using the
// small-angle approximation angle = pixelOffset/frameWidth * cameraFOV.
func (e *Engine) inSensorCone(box shared.BoundingBox) bool {
	cx, _ := box.Center()
	offset := math.Abs(cx - float64(e.cfg.FrameWidth)/2)
	angle := offset / float64(e.cfg.FrameWidth) * e.cfg.CameraFOV
	return angle < e.cfg.SensorFOV/2
}

// suggestDirection derives one aggregate movement suggestion from the
// set of occupied zones. Sidesteps consider both the bottom corner and
// the middle side zone on that side; left wins ties.
func suggestDirection(occupied map[Zone]bool) string {
	if len(occupied) == 0 {
		return ""
	}

	if !occupied[ZoneBottomLeft] && !occupied[ZoneBottom] && !occupied[ZoneBottomRight] {
		return DirectionClear
	}

	leftBlocked := occupied[ZoneBottomLeft] || occupied[ZoneLeft]
	rightBlocked := occupied[ZoneBottomRight] || occupied[ZoneRight]

	switch {
	case leftBlocked && rightBlocked:
		return DirectionStop
	case leftBlocked:
		return DirectionStepRight
	case rightBlocked:
		return DirectionStepLeft
	default:
		// Only the bottom-center cell is occupied.
		return DirectionStepLeft
	}
}

func phrase(class string, zone Zone, bucket DistanceBucket) string {
	name := capitalize(class)
	switch bucket {
	case BucketVeryClose:
		// Urgent messages stay short.
		return fmt.Sprintf("%s %s", name, zone.Spoken())
	case BucketClose:
		return fmt.Sprintf("%s close %s", name, zone.Spoken())
	default:
		return fmt.Sprintf("%s %s", name, zone.Spoken())
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
