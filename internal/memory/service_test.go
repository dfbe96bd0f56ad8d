package memory

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sightline-labs/sightline/internal/shared"
)

type fakeExtractor struct {
	// byFrame maps the frame payload to the features it yields.
	byFrame map[string]FeatureSet
	err     error
}

func (f *fakeExtractor) Extract(_ context.Context, frame []byte, _ shared.BoundingBox) (FeatureSet, error) {
	if f.err != nil {
		return FeatureSet{}, f.err
	}
	return f.byFrame[string(frame)], nil
}

func newTestService(t *testing.T, extractor Extractor) (*Service, *Store) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	store := NewStore(db, nil, nil)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(DefaultServiceConfig(), store, extractor, nil), store
}

func embeddingOf(vals ...float64) FeatureSet {
	return FeatureSet{Kind: KindEmbedding, Embedding: Normalize(vals)}
}

func enroll(t *testing.T, svc *Service, name, class string, frames ...string) *RememberedObject {
	t.Helper()
	ctx := context.Background()
	if err := svc.StartEnrollment(ctx, name, class); err != nil {
		t.Fatalf("start enrollment %s: %v", name, err)
	}
	for _, f := range frames {
		if _, err := svc.AddEnrollmentFrame(ctx, []byte(f), shared.BoundingBox{X2: 1, Y2: 1}); err != nil {
			t.Fatalf("add frame: %v", err)
		}
	}
	obj, err := svc.FinishEnrollment(ctx)
	if err != nil {
		t.Fatalf("finish enrollment %s: %v", name, err)
	}
	return obj
}

func TestEnrollment_DuplicateName(t *testing.T) {
	ex := &fakeExtractor{byFrame: map[string]FeatureSet{
		"keys-a": embeddingOf(1, 0),
	}}
	svc, _ := newTestService(t, ex)
	ctx := context.Background()

	enroll(t, svc, "house keys", "keys", "keys-a")

	err := svc.StartEnrollment(ctx, "house keys", "keys")
	if !errors.Is(err, shared.ErrDuplicateName) {
		t.Fatalf("second enrollment = %v, want ErrDuplicateName", err)
	}

	// Different case is a different name.
	if err := svc.StartEnrollment(ctx, "House Keys", "keys"); err != nil {
		t.Fatalf("case-variant name rejected: %v", err)
	}
}

func TestEnrollment_FinishWithoutFrames(t *testing.T) {
	svc, store := newTestService(t, &fakeExtractor{})
	ctx := context.Background()

	if err := svc.StartEnrollment(ctx, "wallet", "handbag"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.FinishEnrollment(ctx); !errors.Is(err, shared.ErrInsufficientFeatures) {
		t.Fatalf("finish with no frames = %v, want ErrInsufficientFeatures", err)
	}

	objs, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(objs) != 0 {
		t.Errorf("datastore changed on failed enrollment: %v", objs)
	}
}

func TestEnrollment_UnusableFramesLeaveStoreUnchanged(t *testing.T) {
	// Extractor yields empty features for every frame.
	ex := &fakeExtractor{byFrame: map[string]FeatureSet{}}
	svc, store := newTestService(t, ex)
	ctx := context.Background()

	if err := svc.StartEnrollment(ctx, "mug", "cup"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddEnrollmentFrame(ctx, []byte("blurry"), shared.BoundingBox{}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.FinishEnrollment(ctx); !errors.Is(err, shared.ErrInsufficientFeatures) {
		t.Fatalf("finish = %v, want ErrInsufficientFeatures", err)
	}

	if objs, _ := store.List(ctx); len(objs) != 0 {
		t.Error("datastore changed despite unusable features")
	}

	// The session survives the failed finish; the caller may add
	// better frames or cancel.
	if _, _, active := svc.EnrollmentActive(); !active {
		t.Error("session discarded on failed finish")
	}
}

func TestEnrollment_FrameCountAndCancel(t *testing.T) {
	ex := &fakeExtractor{byFrame: map[string]FeatureSet{
		"f1": embeddingOf(1, 0),
		"f2": embeddingOf(0, 1),
	}}
	svc, _ := newTestService(t, ex)
	ctx := context.Background()

	if _, err := svc.AddEnrollmentFrame(ctx, []byte("f1"), shared.BoundingBox{}); !errors.Is(err, shared.ErrEnrollmentInactive) {
		t.Fatalf("frame without session = %v, want ErrEnrollmentInactive", err)
	}

	if err := svc.StartEnrollment(ctx, "bag", "backpack"); err != nil {
		t.Fatal(err)
	}
	for i, frame := range []string{"f1", "f2"} {
		count, err := svc.AddEnrollmentFrame(ctx, []byte(frame), shared.BoundingBox{})
		if err != nil {
			t.Fatal(err)
		}
		if count != i+1 {
			t.Errorf("frame count = %d, want %d", count, i+1)
		}
	}

	svc.CancelEnrollment()
	if _, err := svc.FinishEnrollment(ctx); !errors.Is(err, shared.ErrEnrollmentInactive) {
		t.Fatalf("finish after cancel = %v, want ErrEnrollmentInactive", err)
	}
}

func TestRecognize_BestAboveThreshold(t *testing.T) {
	ex := &fakeExtractor{byFrame: map[string]FeatureSet{
		"enroll-keys":   embeddingOf(1, 0, 0),
		"enroll-wallet": embeddingOf(0, 1, 0),
		"query":         embeddingOf(0.9, 0.1, 0),
	}}
	svc, _ := newTestService(t, ex)
	ctx := context.Background()

	keys := enroll(t, svc, "house keys", "keys", "enroll-keys")
	enroll(t, svc, "wallet", "keys", "enroll-wallet")

	match, err := svc.Recognize(ctx, []byte("query"), shared.BoundingBox{}, "keys")
	if err != nil {
		t.Fatal(err)
	}
	if match == nil {
		t.Fatal("expected a match")
	}
	if match.Name != "house keys" || match.ObjectID != keys.ID {
		t.Errorf("match = %+v, want house keys", match)
	}
	if match.Confidence <= 0.5 {
		t.Errorf("confidence = %f, want above threshold", match.Confidence)
	}
}

func TestRecognize_NoCandidates(t *testing.T) {
	ex := &fakeExtractor{byFrame: map[string]FeatureSet{
		"query": embeddingOf(1, 0),
	}}
	svc, _ := newTestService(t, ex)

	match, err := svc.Recognize(context.Background(), []byte("query"), shared.BoundingBox{}, "keys")
	if err != nil {
		t.Fatalf("zero candidates must not error: %v", err)
	}
	if match != nil {
		t.Errorf("match = %+v, want nil", match)
	}
}

func TestRecognize_SourceClassRestricts(t *testing.T) {
	ex := &fakeExtractor{byFrame: map[string]FeatureSet{
		"enroll": embeddingOf(1, 0),
		"query":  embeddingOf(1, 0),
	}}
	svc, _ := newTestService(t, ex)
	ctx := context.Background()

	enroll(t, svc, "house keys", "keys", "enroll")

	match, err := svc.Recognize(ctx, []byte("query"), shared.BoundingBox{}, "bottle")
	if err != nil {
		t.Fatal(err)
	}
	if match != nil {
		t.Errorf("cross-class match = %+v, want nil", match)
	}
}

func TestRecognize_BelowThresholdAndUnusableQuery(t *testing.T) {
	ex := &fakeExtractor{byFrame: map[string]FeatureSet{
		"enroll": embeddingOf(1, 0),
		"far":    embeddingOf(0, 1),
		// "blank" is absent: unusable query features
	}}
	svc, _ := newTestService(t, ex)
	ctx := context.Background()

	enroll(t, svc, "house keys", "keys", "enroll")

	match, err := svc.Recognize(ctx, []byte("far"), shared.BoundingBox{}, "keys")
	if err != nil || match != nil {
		t.Errorf("below-threshold query: match = %+v, err = %v; want nil, nil", match, err)
	}

	match, err = svc.Recognize(ctx, []byte("blank"), shared.BoundingBox{}, "keys")
	if err != nil || match != nil {
		t.Errorf("unusable query: match = %+v, err = %v; want nil, nil", match, err)
	}
}

func TestRecognize_FirstEnrolledWinsTie(t *testing.T) {
	ex := &fakeExtractor{byFrame: map[string]FeatureSet{
		"same":  embeddingOf(1, 0),
		"query": embeddingOf(1, 0),
	}}
	svc, _ := newTestService(t, ex)
	ctx := context.Background()

	first := enroll(t, svc, "first", "keys", "same")
	enroll(t, svc, "second", "keys", "same")

	match, err := svc.Recognize(ctx, []byte("query"), shared.BoundingBox{}, "keys")
	if err != nil {
		t.Fatal(err)
	}
	if match == nil || match.ObjectID != first.ID {
		t.Errorf("tie went to %+v, want first-enrolled %s", match, first.ID)
	}
}

func TestRecordSighting_OverwritesSingleRow(t *testing.T) {
	ex := &fakeExtractor{byFrame: map[string]FeatureSet{
		"enroll": embeddingOf(1, 0),
	}}
	svc, store := newTestService(t, ex)
	ctx := context.Background()

	obj := enroll(t, svc, "house keys", "keys", "enroll")

	if err := svc.RecordSighting(ctx, obj.ID, "on the dining table", 0, 0, nil, 0.8); err != nil {
		t.Fatal(err)
	}
	if err := svc.RecordSighting(ctx, obj.ID, "on the couch", 51.5, -0.1, []string{"laptop", "cup"}, 0.9); err != nil {
		t.Fatal(err)
	}

	sighting, err := store.GetSighting(ctx, obj.ID)
	if err != nil {
		t.Fatal(err)
	}
	if sighting.Location != "on the couch" {
		t.Errorf("location = %q, want newest write", sighting.Location)
	}
	if sighting.Confidence != 0.9 {
		t.Errorf("confidence = %f", sighting.Confidence)
	}
	if len(sighting.Context) != 2 || sighting.Context[0] != "laptop" {
		t.Errorf("context = %v, want nearby labels round-tripped", sighting.Context)
	}

	var count int64
	if err := store.db.Model(&Sighting{}).Where("object_id = ?", obj.ID).Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("sighting rows = %d, want one row per object", count)
	}
}
