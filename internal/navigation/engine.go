package navigation

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/sightline-labs/sightline/internal/audio"
	"github.com/sightline-labs/sightline/internal/geo"
	"github.com/sightline-labs/sightline/internal/gps"
	"github.com/sightline-labs/sightline/internal/shared"
)

type State string

const (
	StateIdle       State = "idle"
	StateNavigating State = "navigating"
	StateArrived    State = "arrived"
	StateStopped    State = "stopped"
)

type EngineConfig struct {
	AnnounceDistanceMeters float64
	RerouteDistanceMeters  float64
	ArrivalDistanceMeters  float64
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		AnnounceDistanceMeters: 50,
		RerouteDistanceMeters:  30,
		ArrivalDistanceMeters:  20,
	}
}

// advanceDistanceMeters is the step-completion radius.
const advanceDistanceMeters = 10

// Engine walks a route against live GPS fixes and speaks turn
// instructions. Deviation is approximated as the distance to the
// current step's end waypoint, not true cross-track distance; an
// off-route report is advisory and never changes state.
type Engine struct {
	cfg     EngineConfig
	source  gps.Source
	speaker audio.Speaker
	log     *slog.Logger

	mu                sync.Mutex
	state             State
	route             Route
	currentStep       int
	lastAnnouncedStep int // -1 when none
	offRoute          bool
}

func NewEngine(cfg EngineConfig, source gps.Source, speaker audio.Speaker, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		cfg:               cfg,
		source:            source,
		speaker:           speaker,
		log:               log.With("component", "navigation"),
		state:             StateIdle,
		lastAnnouncedStep: -1,
	}
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// CurrentStep returns the active step index and whether a route is in
// progress.
func (e *Engine) CurrentStep() (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentStep, e.state == StateNavigating
}

// EngineStatus is a point-in-time snapshot for status endpoints.
type EngineStatus struct {
	State       State  `json:"state"`
	Destination string `json:"destination,omitempty"`
	StepIndex   int    `json:"step_index"`
	TotalSteps  int    `json:"total_steps"`
	OffRoute    bool   `json:"off_route"`
}

func (e *Engine) Status() EngineStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return EngineStatus{
		State:       e.state,
		Destination: e.route.Destination,
		StepIndex:   e.currentStep,
		TotalSteps:  len(e.route.Steps),
		OffRoute:    e.offRoute,
	}
}

func (e *Engine) OffRoute() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.offRoute
}

// Start begins navigating the given route from its first step.
func (e *Engine) Start(route Route) error {
	if len(route.Steps) == 0 {
		return fmt.Errorf("start navigation: %w", shared.ErrNoRoute)
	}

	e.mu.Lock()
	e.route = route
	e.currentStep = 0
	e.lastAnnouncedStep = -1
	e.offRoute = false
	e.state = StateNavigating
	e.mu.Unlock()

	e.log.Info("navigation started",
		"destination", route.Destination,
		"steps", len(route.Steps))
	e.speaker.Enqueue("Starting navigation. "+route.Steps[0].Instruction, audio.PriorityNavigational, false)
	return nil
}

// Stop abandons the route. It is a pure reset and emits nothing.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateNavigating {
		return
	}
	e.state = StateStopped
	e.route = Route{}
	e.currentStep = 0
	e.lastAnnouncedStep = -1
	e.offRoute = false
}

// Update pulls the latest fix and advances the state machine one tick.
// It returns ErrNoFix, without touching state, when no fresh fix
// exists.
func (e *Engine) Update() error {
	pos, ok := e.source.Position()
	if !ok {
		return shared.ErrNoFix
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateNavigating {
		return nil
	}

	if geo.Distance(pos, e.route.FinalWaypoint()) <= e.cfg.ArrivalDistanceMeters {
		e.state = StateArrived
		e.offRoute = false
		e.log.Info("arrived", "destination", e.route.Destination)
		e.speaker.Enqueue("You have arrived at "+e.route.Destination, audio.PrioritySocial, false)
		return nil
	}

	step := e.route.Steps[e.currentStep]
	dist := geo.Distance(pos, step.End)

	wasOff := e.offRoute
	e.offRoute = dist > e.cfg.RerouteDistanceMeters
	if e.offRoute && !wasOff {
		e.log.Warn("off route", "step", e.currentStep, "deviation_m", dist)
		e.speaker.Enqueue("You may be off route", audio.PriorityNavigational, false)
	}

	if dist <= e.cfg.AnnounceDistanceMeters && e.lastAnnouncedStep != e.currentStep {
		e.lastAnnouncedStep = e.currentStep
		e.speaker.Enqueue(announcement(dist, step.Instruction), audio.PriorityNavigational, false)
	}

	if dist < advanceDistanceMeters && e.currentStep < len(e.route.Steps)-1 {
		e.currentStep++
		e.lastAnnouncedStep = -1
		e.log.Info("advanced to step", "step", e.currentStep)
	}
	return nil
}

func announcement(distanceMeters float64, instruction string) string {
	rounded := int(math.Round(distanceMeters/10) * 10)
	if rounded <= 0 {
		return instruction
	}
	return fmt.Sprintf("In %d meters, %s", rounded, instruction)
}
