package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sightline-labs/sightline/internal/shared"
)

// Extractor turns an image crop into a feature set. Implementations
// talk to the feature sidecar; tests substitute fakes.
type Extractor interface {
	Extract(ctx context.Context, frame []byte, box shared.BoundingBox) (FeatureSet, error)
}

// vectorIndex narrows recognition candidates by embedding similarity.
// Backed by the store's qdrant mirror when one is configured.
type vectorIndex interface {
	SearchByEmbedding(ctx context.Context, embedding []float64, sourceClass string, limit int) ([]*RememberedObject, error)
}

type ServiceConfig struct {
	MatchThreshold   float64
	EnrollmentFrames int
	PrefilterLimit   int
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MatchThreshold:   0.5,
		EnrollmentFrames: 5,
		PrefilterLimit:   10,
	}
}

// Match is a successful recognition.
type Match struct {
	Name       string  `json:"name"`
	ObjectID   string  `json:"object_id"`
	Confidence float64 `json:"confidence"`
}

type enrollmentSession struct {
	name        string
	sourceClass string
	frames      []FeatureSet
}

// Service owns the enrollment session and recognition path. One
// enrollment session at a time; a session lives until finished or
// canceled.
type Service struct {
	cfg       ServiceConfig
	store     *Store
	extractor Extractor
	index     vectorIndex
	log       *slog.Logger

	mu      sync.Mutex
	session *enrollmentSession
}

func NewService(cfg ServiceConfig, store *Store, extractor Extractor, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		cfg:       cfg,
		store:     store,
		extractor: extractor,
		log:       log.With("component", "memory"),
	}
	if store.qdrant != nil {
		s.index = store
	}
	return s
}

// StartEnrollment opens a session for a new object. The name must not
// collide with an enrolled object; comparison is case-sensitive.
func (s *Service) StartEnrollment(ctx context.Context, name, sourceClass string) error {
	if name == "" {
		return errors.New("enrollment name required")
	}

	if _, err := s.store.GetByName(ctx, name); err == nil {
		return shared.ErrDuplicateName
	} else if !errors.Is(err, shared.ErrNotFound) {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = &enrollmentSession{name: name, sourceClass: sourceClass}
	s.log.Info("enrollment started", "name", name, "source_class", sourceClass)
	return nil
}

// AddEnrollmentFrame extracts features from one frame and buffers
// them, returning the running frame count. Frames that yield no
// usable features still count toward the buffer.
func (s *Service) AddEnrollmentFrame(ctx context.Context, frame []byte, box shared.BoundingBox) (int, error) {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()
	if session == nil {
		return 0, shared.ErrEnrollmentInactive
	}

	features, err := s.extractor.Extract(ctx, frame, box)
	if err != nil {
		return 0, fmt.Errorf("extract enrollment features: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != session {
		return 0, shared.ErrEnrollmentInactive
	}
	session.frames = append(session.frames, features)
	return len(session.frames), nil
}

// FrameTarget is the suggested number of enrollment frames; callers
// may finish earlier with at least one frame.
func (s *Service) FrameTarget() int {
	return s.cfg.EnrollmentFrames
}

// FinishEnrollment aggregates the buffered frames and persists the
// object. The datastore is untouched on failure.
func (s *Service) FinishEnrollment(ctx context.Context) (*RememberedObject, error) {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()
	if session == nil {
		return nil, shared.ErrEnrollmentInactive
	}
	if len(session.frames) == 0 {
		return nil, shared.ErrInsufficientFeatures
	}

	features, err := Aggregate(session.frames)
	if err != nil {
		return nil, shared.ErrInsufficientFeatures
	}

	obj := &RememberedObject{
		CustomName:  session.name,
		SourceClass: session.sourceClass,
		Features:    features,
		FrameCount:  len(session.frames),
	}
	if err := s.store.Create(ctx, obj); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.session == session {
		s.session = nil
	}
	s.mu.Unlock()

	s.log.Info("enrollment finished", "name", obj.CustomName, "frames", obj.FrameCount)
	return obj, nil
}

// CancelEnrollment discards the session unconditionally.
func (s *Service) CancelEnrollment() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
}

// EnrollmentActive reports whether a session is open and how many
// frames it holds.
func (s *Service) EnrollmentActive() (string, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return "", 0, false
	}
	return s.session.name, len(s.session.frames), true
}

// Recognize scores the crop against enrolled objects of the same
// source class and returns the best match strictly above the
// threshold, or nil when nothing clears it. Candidates are scored in
// enrollment order, so the first-enrolled object wins an exact tie.
func (s *Service) Recognize(ctx context.Context, frame []byte, box shared.BoundingBox, sourceClass string) (*Match, error) {
	query, err := s.extractor.Extract(ctx, frame, box)
	if err != nil {
		return nil, fmt.Errorf("extract query features: %w", err)
	}
	if !query.Usable() {
		return nil, nil
	}

	candidates, err := s.candidates(ctx, query, sourceClass)
	if err != nil {
		return nil, err
	}

	var best *Match
	for _, obj := range candidates {
		confidence := Confidence(query, obj.Features)
		if confidence <= s.cfg.MatchThreshold {
			continue
		}
		if best == nil || confidence > best.Confidence {
			best = &Match{Name: obj.CustomName, ObjectID: obj.ID, Confidence: confidence}
		}
	}
	return best, nil
}

// candidates narrows the comparison set. With a vector index and an
// embedding query the index prefilters by class; a failed or empty
// prefilter falls back to the full per-class scan, so an unmirrored
// object is still reachable.
func (s *Service) candidates(ctx context.Context, query FeatureSet, sourceClass string) ([]*RememberedObject, error) {
	if s.index != nil && query.Kind == KindEmbedding {
		objs, err := s.index.SearchByEmbedding(ctx, query.Embedding, sourceClass, s.cfg.PrefilterLimit)
		if err != nil {
			s.log.Warn("embedding prefilter failed, scanning all candidates", "error", err)
		} else if len(objs) > 0 {
			return objs, nil
		}
	}
	return s.store.ListBySourceClass(ctx, sourceClass)
}

// RecordSighting overwrites the last known sighting for a recognized
// object.
func (s *Service) RecordSighting(ctx context.Context, objectID, location string, lat, lon float64, nearby []string, confidence float64) error {
	return s.store.UpsertSighting(ctx, &Sighting{
		ObjectID:   objectID,
		Location:   location,
		Lat:        lat,
		Lon:        lon,
		Context:    nearby,
		Confidence: confidence,
		SeenAt:     time.Now(),
	})
}
