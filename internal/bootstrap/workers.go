package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.uber.org/fx"

	"github.com/sightline-labs/sightline/internal/audio"
	"github.com/sightline-labs/sightline/internal/gateway"
	"github.com/sightline-labs/sightline/internal/gps"
	"github.com/sightline-labs/sightline/internal/items"
	"github.com/sightline-labs/sightline/internal/memory"
	"github.com/sightline-labs/sightline/internal/navigation"
	"github.com/sightline-labs/sightline/internal/pipeline"
	"github.com/sightline-labs/sightline/internal/rangefinder"
	"github.com/sightline-labs/sightline/internal/shared"
	"github.com/sightline-labs/sightline/internal/spatial"
	"github.com/sightline-labs/sightline/internal/synthesis"
	"github.com/sightline-labs/sightline/internal/vision"
)

func ProvideSynthesisClient(cfg *Config) *synthesis.Client {
	return synthesis.NewClient(synthesis.Config{
		Address: cfg.TTSAddress,
		Voice:   cfg.TTSVoice,
		Rate:    cfg.TTSRate,
	})
}

func ProvideScheduler(lc fx.Lifecycle, tts *synthesis.Client, logger *slog.Logger) *audio.Scheduler {
	scheduler := audio.NewScheduler(tts, logger)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			scheduler.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			scheduler.Stop()
			return nil
		},
	})
	return scheduler
}

func ProvideSpeaker(scheduler *audio.Scheduler) audio.Speaker {
	return scheduler
}

// ProvideGPSSource opens the serial GPS receiver, or a scripted mock
// on hardware-free hosts.
func ProvideGPSSource(lc fx.Lifecycle, cfg *Config, logger *slog.Logger) (gps.Source, error) {
	if cfg.GPSMock {
		return gps.NewMock(), nil
	}

	tracker, err := gps.Open(gps.Config{
		Port:     cfg.GPSPort,
		BaudRate: cfg.GPSBaudRate,
	}, logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			tracker.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			return tracker.Stop()
		},
	})
	return tracker, nil
}

func ProvideRangeSensor(lc fx.Lifecycle, cfg *Config, logger *slog.Logger) (spatial.RangeSensor, error) {
	if cfg.RangeMock {
		return rangefinder.NewMock(), nil
	}

	sensor, err := rangefinder.Open(rangefinder.Config{
		Port:     cfg.RangePort,
		BaudRate: cfg.RangeBaud,
	}, logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			sensor.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			return sensor.Stop()
		},
	})
	return sensor, nil
}

func ProvideSpatialEngine(cfg *Config, sensor spatial.RangeSensor, logger *slog.Logger) *spatial.Engine {
	return spatial.NewEngine(spatial.EngineConfig{
		FrameWidth:  cfg.FrameWidth,
		FrameHeight: cfg.FrameHeight,
		SensorFOV:   cfg.SensorFOV,
		CameraFOV:   cfg.CameraFOV,
	}, sensor, logger)
}

func ProvideItemTracker(cfg *Config, store *items.Store, logger *slog.Logger) *items.Tracker {
	trackerCfg := items.DefaultTrackerConfig()
	trackerCfg.IoUThreshold = cfg.IoUThreshold
	trackerCfg.ConfirmAfter = cfg.TrackingTimeout
	return items.NewTracker(trackerCfg, store, logger)
}

func ProvideExtractorClient(cfg *Config) *memory.ExtractorClient {
	return memory.NewExtractorClient(memory.ExtractorConfig{Address: cfg.ExtractorAddress})
}

func ProvideMemoryService(cfg *Config, store *memory.Store, extractor *memory.ExtractorClient, logger *slog.Logger) *memory.Service {
	svcCfg := memory.DefaultServiceConfig()
	svcCfg.MatchThreshold = cfg.MatchThreshold
	svcCfg.EnrollmentFrames = cfg.EnrollmentFrames
	return memory.NewService(svcCfg, store, extractor, logger)
}

func ProvideDetectorClient(cfg *Config) *vision.DetectorClient {
	return vision.NewDetectorClient(vision.DetectorConfig{Address: cfg.DetectorAddress})
}

func ProvidePlanner(cfg *Config) navigation.Planner {
	return navigation.NewHTTPPlanner(navigation.PlannerConfig{
		Address: cfg.PlannerAddress,
		APIKey:  cfg.PlannerAPIKey,
	})
}

func ProvideNavigationEngine(cfg *Config, source gps.Source, speaker audio.Speaker, logger *slog.Logger) *navigation.Engine {
	return navigation.NewEngine(navigation.EngineConfig{
		AnnounceDistanceMeters: cfg.AnnounceDistance,
		RerouteDistanceMeters:  cfg.RerouteDistance,
		ArrivalDistanceMeters:  cfg.ArrivalDistance,
	}, source, speaker, logger)
}

func ProvideHub(lc fx.Lifecycle, logger *slog.Logger) *gateway.Hub {
	hub := gateway.NewHub(logger)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			hub.Shutdown()
			return nil
		},
	})
	return hub
}

func ProvideProcessor(
	detector *vision.DetectorClient,
	fusion *spatial.Engine,
	tracker *items.Tracker,
	memorySvc *memory.Service,
	source gps.Source,
	speaker audio.Speaker,
	hub *gateway.Hub,
	logger *slog.Logger,
) *pipeline.Processor {
	return pipeline.NewProcessor(pipeline.DefaultConfig(), detector, fusion, tracker,
		memorySvc, source, speaker, hub, logger)
}

// RunNavigationLoop ticks the navigation state machine at a fixed
// cadence from a single goroutine.
func RunNavigationLoop(lc fx.Lifecycle, cfg *Config, engine *navigation.Engine, hub *gateway.Hub, logger *slog.Logger) {
	stop := make(chan struct{})
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				ticker := time.NewTicker(cfg.UpdateInterval)
				defer ticker.Stop()

				lastState := engine.State()
				for {
					select {
					case <-stop:
						return
					case <-ticker.C:
					}

					if err := engine.Update(); err != nil {
						if !errors.Is(err, shared.ErrNoFix) {
							logger.Error("navigation update failed", "error", err)
						}
						continue
					}

					if state := engine.State(); state != lastState {
						lastState = state
						hub.Publish(gateway.NewEvent(gateway.EventNavigation, engine.Status()))
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(stop)
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

var WorkersModule = fx.Options(
	fx.Provide(
		ProvideSynthesisClient,
		ProvideScheduler,
		ProvideSpeaker,
		ProvideGPSSource,
		ProvideRangeSensor,
		ProvideSpatialEngine,
		ProvideItemTracker,
		ProvideExtractorClient,
		ProvideMemoryService,
		ProvideDetectorClient,
		ProvidePlanner,
		ProvideNavigationEngine,
		ProvideHub,
		ProvideProcessor,
	),
	fx.Invoke(RunNavigationLoop),
)
