// Package pipeline runs the synchronous per-frame evaluation path:
// detection, obstacle fusion, item tracking and object recognition,
// in that order. The stages share one detection list and the item
// tracker carries state between frames, so a frame is never processed
// concurrently with another.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sightline-labs/sightline/internal/audio"
	"github.com/sightline-labs/sightline/internal/gateway"
	"github.com/sightline-labs/sightline/internal/gps"
	"github.com/sightline-labs/sightline/internal/items"
	"github.com/sightline-labs/sightline/internal/memory"
	"github.com/sightline-labs/sightline/internal/shared"
	"github.com/sightline-labs/sightline/internal/spatial"
	"github.com/sightline-labs/sightline/internal/vision"
)

type Config struct {
	// AnnounceCooldown suppresses repeated recognition announcements
	// for the same object.
	AnnounceCooldown time.Duration
}

func DefaultConfig() Config {
	return Config{AnnounceCooldown: 2 * time.Second}
}

// Result summarizes what one frame produced, for callers that expose
// it over the API.
type Result struct {
	Guidance     spatial.Guidance     `json:"guidance"`
	Confirmed    []items.Confirmation `json:"confirmed,omitempty"`
	Recognitions []RecognizedObject   `json:"recognitions,omitempty"`
	Detections   []shared.Detection   `json:"detections"`
}

type RecognizedObject struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Class      string  `json:"class"`
}

type Processor struct {
	cfg      Config
	detector vision.Detector
	fusion   *spatial.Engine
	tracker  *items.Tracker
	memory   *memory.Service
	source   gps.Source
	speaker  audio.Speaker
	hub      *gateway.Hub
	log      *slog.Logger

	lastAnnounced map[string]time.Time
	now           func() time.Time
}

func NewProcessor(
	cfg Config,
	detector vision.Detector,
	fusion *spatial.Engine,
	tracker *items.Tracker,
	memorySvc *memory.Service,
	source gps.Source,
	speaker audio.Speaker,
	hub *gateway.Hub,
	log *slog.Logger,
) *Processor {
	if log == nil {
		log = slog.Default()
	}
	if cfg.AnnounceCooldown == 0 {
		cfg.AnnounceCooldown = 2 * time.Second
	}
	return &Processor{
		cfg:           cfg,
		detector:      detector,
		fusion:        fusion,
		tracker:       tracker,
		memory:        memorySvc,
		source:        source,
		speaker:       speaker,
		hub:           hub,
		log:           log.With("component", "pipeline"),
		lastAnnounced: make(map[string]time.Time),
		now:           time.Now,
	}
}

// ProcessFrame evaluates one camera frame end to end. Stage failures
// past detection degrade rather than abort: a tracker or recognition
// error is logged and the remaining stages still run.
func (p *Processor) ProcessFrame(ctx context.Context, frame []byte) (*Result, error) {
	detections, err := p.detector.Detect(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}

	result := &Result{Detections: detections}

	result.Guidance = p.fusion.Evaluate(detections)
	p.emitGuidance(result.Guidance)

	confirmed, err := p.tracker.Update(ctx, detections)
	if err != nil {
		p.log.Error("item tracking failed", "error", err)
	}
	result.Confirmed = confirmed
	p.emitConfirmations(confirmed)

	result.Recognitions = p.recognize(ctx, frame, detections)

	return result, nil
}

func (p *Processor) emitGuidance(guidance spatial.Guidance) {
	for _, w := range guidance.Warnings {
		priority := audio.Priority(w.Priority)
		p.speaker.Enqueue(w.Message, priority, priority == audio.PriorityEmergency)
	}
	if guidance.Blocked {
		p.speaker.Enqueue(guidance.Direction, audio.PriorityEmergency, true)
	}

	if p.hub != nil && (len(guidance.Warnings) > 0 || guidance.Blocked) {
		p.hub.Publish(gateway.NewEvent(gateway.EventGuidance, guidance))
	}
}

func (p *Processor) emitConfirmations(confirmed []items.Confirmation) {
	for _, c := range confirmed {
		p.speaker.Enqueue(
			fmt.Sprintf("Your %s is %s", c.ItemClass, c.Location),
			audio.PriorityStatus, false)
		if p.hub != nil {
			p.hub.Publish(gateway.NewEvent(gateway.EventItem, c))
		}
	}
}

func (p *Processor) recognize(ctx context.Context, frame []byte, detections []shared.Detection) []RecognizedObject {
	var recognized []RecognizedObject
	for _, d := range detections {
		match, err := p.memory.Recognize(ctx, frame, d.Box, d.Class)
		if err != nil {
			p.log.Error("recognition failed", "error", err, "class", d.Class)
			continue
		}
		if match == nil {
			continue
		}

		recognized = append(recognized, RecognizedObject{
			Name:       match.Name,
			Confidence: match.Confidence,
			Class:      d.Class,
		})
		p.recordSighting(ctx, match, d, detections)

		now := p.now()
		if last, ok := p.lastAnnounced[match.ObjectID]; ok && now.Sub(last) < p.cfg.AnnounceCooldown {
			continue
		}
		p.lastAnnounced[match.ObjectID] = now

		p.speaker.Enqueue("I can see your "+match.Name, audio.PrioritySocial, false)
		if p.hub != nil {
			p.hub.Publish(gateway.NewEvent(gateway.EventRecognition, recognized[len(recognized)-1]))
		}
	}
	return recognized
}

// recordSighting stores where the object was just seen: nearby
// detection classes as context plus the current GPS fix when one
// exists.
func (p *Processor) recordSighting(ctx context.Context, match *memory.Match, d shared.Detection, detections []shared.Detection) {
	var nearby []string
	for _, other := range detections {
		if other.Class != d.Class {
			nearby = append(nearby, other.Class)
		}
	}

	var lat, lon float64
	if p.source != nil {
		if pos, ok := p.source.Position(); ok {
			lat, lon = pos.Lat, pos.Lon
		}
	}

	err := p.memory.RecordSighting(ctx, match.ObjectID, "", lat, lon,
		nearby, match.Confidence)
	if err != nil {
		p.log.Error("failed to record sighting", "error", err, "object", match.ObjectID)
	}
}
