package vectorindex

import "math"

// CosineSimilarity calculates the cosine similarity between two float32
// vectors. Returns 0 if the vectors have different lengths, are empty, or
// either has zero magnitude. The result is in [-1, 1].
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// CosineDistance is 1 - CosineSimilarity, so identical vectors are at
// distance 0 and orthogonal vectors at distance 1.
func CosineDistance(a, b []float32) float64 {
	return 1 - CosineSimilarity(a, b)
}
