package memory

import "math"

const (
	// Lowe-style nearest/second-nearest distance ratio for accepting
	// a keypoint match.
	ratioTestThreshold = 0.75

	keypointMatchWeight = 0.7
	histogramWeight     = 0.3
)

// Confidence scores a query feature set against a stored one on
// [0, 1]. Mismatched kinds score zero.
func Confidence(query, stored FeatureSet) float64 {
	if query.Kind != stored.Kind {
		return 0
	}
	switch query.Kind {
	case KindEmbedding:
		return embeddingConfidence(query.Embedding, stored.Embedding)
	case KindKeypoint:
		return keypointConfidence(query, stored)
	}
	return 0
}

// embeddingConfidence is cosine similarity clamped to [0, 1]. Both
// sides are stored pre-normalized, so a plain dot product suffices.
func embeddingConfidence(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return clamp01(dot)
}

func keypointConfidence(query, stored FeatureSet) float64 {
	if len(query.Descriptors) == 0 || len(stored.Descriptors) == 0 {
		return 0
	}

	matches := 0
	for _, qd := range query.Descriptors {
		best, second := math.Inf(1), math.Inf(1)
		for _, sd := range stored.Descriptors {
			d := descriptorDistance(qd, sd)
			switch {
			case d < best:
				second = best
				best = d
			case d < second:
				second = d
			}
		}
		if second == 0 {
			matches++
			continue
		}
		if !math.IsInf(second, 1) && best < ratioTestThreshold*second {
			matches++
		}
	}

	matchRatio := float64(matches) / float64(len(query.Descriptors))
	histCorr := clamp01(histogramCorrelation(query.Histogram, stored.Histogram))
	return clamp01(keypointMatchWeight*matchRatio + histogramWeight*histCorr)
}

func descriptorDistance(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// histogramCorrelation is the Pearson correlation of two equal-length
// histograms, zero when either side is missing or degenerate.
func histogramCorrelation(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	n := float64(len(a))
	var meanA, meanB float64
	for i := range a {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= n
	meanB /= n

	var cov, varA, varB float64
	for i := range a {
		da, db := a[i]-meanA, b[i]-meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
