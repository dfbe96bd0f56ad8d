package memory

import (
	"context"
	"errors"
	"log/slog"

	"github.com/qdrant/go-client/qdrant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sightline-labs/sightline/internal/shared"
)

const embeddingCollection = "object_embeddings"

// Store persists remembered objects and their sightings. When a
// qdrant client is configured, embedding-style signatures are
// mirrored into a vector collection so recognition can prefilter
// candidates; the relational rows stay authoritative.
type Store struct {
	db     *gorm.DB
	qdrant *qdrant.Client
	log    *slog.Logger
}

func NewStore(db *gorm.DB, qdrantClient *qdrant.Client, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		db:     db,
		qdrant: qdrantClient,
		log:    log.With("component", "memory_store"),
	}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&RememberedObject{}, &Sighting{})
}

func (s *Store) Create(ctx context.Context, obj *RememberedObject) error {
	if obj.ID == "" {
		obj.ID = shared.NewID("obj_")
	}
	if err := s.db.WithContext(ctx).Create(obj).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrDuplicateName
		}
		return err
	}
	s.mirrorEmbedding(ctx, obj)
	return nil
}

func (s *Store) GetByName(ctx context.Context, name string) (*RememberedObject, error) {
	var obj RememberedObject
	err := s.db.WithContext(ctx).Where("custom_name = ?", name).First(&obj).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &obj, err
}

// ListBySourceClass returns enrolled objects of one detector class in
// enrollment order.
func (s *Store) ListBySourceClass(ctx context.Context, sourceClass string) ([]*RememberedObject, error) {
	var objs []*RememberedObject
	err := s.db.WithContext(ctx).
		Where("source_class = ?", sourceClass).
		Order("created_at asc, id asc").
		Find(&objs).Error
	return objs, err
}

func (s *Store) List(ctx context.Context) ([]*RememberedObject, error) {
	var objs []*RememberedObject
	err := s.db.WithContext(ctx).Order("created_at asc, id asc").Find(&objs).Error
	return objs, err
}

func (s *Store) Delete(ctx context.Context, name string) error {
	obj, err := s.GetByName(ctx, name)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&Sighting{}, "object_id = ?", obj.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&RememberedObject{}, "id = ?", obj.ID).Error
	})
	if err != nil {
		return err
	}

	if s.qdrant != nil {
		if _, qerr := s.qdrant.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: embeddingCollection,
			Points:         qdrant.NewPointsSelector(qdrant.NewID(obj.ID)),
		}); qerr != nil {
			s.log.Warn("failed to delete mirrored embedding", "error", qerr, "object", obj.ID)
		}
	}
	return nil
}

// UpsertSighting overwrites the single sighting row for an object.
func (s *Store) UpsertSighting(ctx context.Context, sighting *Sighting) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "object_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"location", "lat", "lon", "context", "confidence", "seen_at",
		}),
	}).Create(sighting).Error
}

func (s *Store) GetSighting(ctx context.Context, objectID string) (*Sighting, error) {
	var sighting Sighting
	err := s.db.WithContext(ctx).Where("object_id = ?", objectID).First(&sighting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &sighting, err
}

// SearchByEmbedding asks qdrant for the closest enrolled objects of
// one source class and resolves them back to relational rows. Returns
// an empty slice when nothing of that class is mirrored.
func (s *Store) SearchByEmbedding(ctx context.Context, embedding []float64, sourceClass string, limit int) ([]*RememberedObject, error) {
	if s.qdrant == nil {
		return nil, errors.New("qdrant client not configured")
	}

	vector := make([]float32, len(embedding))
	for i, v := range embedding {
		vector[i] = float32(v)
	}

	results, err := s.qdrant.Query(ctx, &qdrant.QueryPoints{
		CollectionName: embeddingCollection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("source_class", sourceClass),
			},
		},
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(results))
	for _, r := range results {
		if r.Id != nil {
			if uuid := r.Id.GetUuid(); uuid != "" {
				ids = append(ids, uuid)
			}
		}
	}
	if len(ids) == 0 {
		return []*RememberedObject{}, nil
	}

	// The class condition repeats here so a stale index entry can never
	// surface a cross-class candidate.
	var objs []*RememberedObject
	err = s.db.WithContext(ctx).
		Where("id IN ? AND source_class = ?", ids, sourceClass).
		Order("created_at asc, id asc").
		Find(&objs).Error
	return objs, err
}

func (s *Store) mirrorEmbedding(ctx context.Context, obj *RememberedObject) {
	if s.qdrant == nil || obj.Features.Kind != KindEmbedding {
		return
	}

	vector := make([]float32, len(obj.Features.Embedding))
	for i, v := range obj.Features.Embedding {
		vector[i] = float32(v)
	}

	if _, err := s.qdrant.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: embeddingCollection,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(obj.ID),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					"source_class": obj.SourceClass,
					"name":         obj.CustomName,
				}),
			},
		},
	}); err != nil {
		s.log.Warn("failed to mirror embedding", "error", err, "object", obj.ID)
	}
}
