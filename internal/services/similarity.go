package services

import (
	"math"
	"strings"
)

// cosineSimilarity returns the normalized dot product of two vectors in
// [-1, 1]. Mismatched lengths or a zero-magnitude vector yield 0, which
// falls below every positive threshold.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// normalizeScore maps raw similarity onto the 0-100 relevance scale shown
// to students: 1 -> 100, 0 -> 50, -1 -> 0.
func normalizeScore(sim float64) int {
	score := int(math.Round(((sim + 1) / 2) * 100))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// textMatches reports a case-insensitive substring hit in either direction.
func textMatches(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
