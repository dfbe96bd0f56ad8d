package memory

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// FeatureKind discriminates the two feature representations the
// extractor can produce.
type FeatureKind string

const (
	KindEmbedding FeatureKind = "embedding"
	KindKeypoint  FeatureKind = "keypoint"
)

// FeatureSet is one frame's (or one aggregated object's) visual
// signature. Exactly one representation is populated, selected by
// Kind.
type FeatureSet struct {
	Kind        FeatureKind `json:"kind"`
	Embedding   []float64   `json:"embedding,omitempty"`
	Descriptors [][]float64 `json:"descriptors,omitempty"`
	Histogram   []float64   `json:"histogram,omitempty"`
}

// Usable reports whether the set carries enough signal to enroll or
// match against.
func (f FeatureSet) Usable() bool {
	switch f.Kind {
	case KindEmbedding:
		return len(f.Embedding) > 0
	case KindKeypoint:
		return len(f.Descriptors) > 0
	}
	return false
}

func (f FeatureSet) Value() (driver.Value, error) {
	return json.Marshal(f)
}

func (f *FeatureSet) Scan(value any) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	case nil:
		*f = FeatureSet{}
		return nil
	}
	return fmt.Errorf("cannot scan %T into FeatureSet", value)
}

// Aggregate folds per-frame feature sets into one object signature.
// Embeddings are averaged element-wise and re-normalized to unit
// length; keypoint sets concatenate descriptors and average the color
// histograms.
func Aggregate(frames []FeatureSet) (FeatureSet, error) {
	var usable []FeatureSet
	for _, f := range frames {
		if f.Usable() {
			usable = append(usable, f)
		}
	}
	if len(usable) == 0 {
		return FeatureSet{}, errors.New("no usable features")
	}

	kind := usable[0].Kind
	for _, f := range usable[1:] {
		if f.Kind != kind {
			return FeatureSet{}, fmt.Errorf("mixed feature kinds %s and %s", kind, f.Kind)
		}
	}

	if kind == KindEmbedding {
		return aggregateEmbeddings(usable)
	}
	return aggregateKeypoints(usable), nil
}

func aggregateEmbeddings(frames []FeatureSet) (FeatureSet, error) {
	dim := len(frames[0].Embedding)
	mean := make([]float64, dim)
	for _, f := range frames {
		if len(f.Embedding) != dim {
			return FeatureSet{}, fmt.Errorf("embedding dimension mismatch: %d vs %d", len(f.Embedding), dim)
		}
		for i, v := range f.Embedding {
			mean[i] += v
		}
	}
	for i := range mean {
		mean[i] /= float64(len(frames))
	}
	return FeatureSet{Kind: KindEmbedding, Embedding: Normalize(mean)}, nil
}

func aggregateKeypoints(frames []FeatureSet) FeatureSet {
	out := FeatureSet{Kind: KindKeypoint}
	var histCount int
	for _, f := range frames {
		out.Descriptors = append(out.Descriptors, f.Descriptors...)
		if len(f.Histogram) == 0 {
			continue
		}
		if out.Histogram == nil {
			out.Histogram = make([]float64, len(f.Histogram))
		}
		if len(f.Histogram) == len(out.Histogram) {
			for i, v := range f.Histogram {
				out.Histogram[i] += v
			}
			histCount++
		}
	}
	if histCount > 0 {
		for i := range out.Histogram {
			out.Histogram[i] /= float64(histCount)
		}
	}
	return out
}

// Normalize scales v to unit length. The zero vector is returned
// unchanged.
func Normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
