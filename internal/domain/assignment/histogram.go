package assignment

import (
	"github.com/alem-hub/feedback-helper/internal/domain/shared"
)

// GradeHistogram counts documents per half-point grade from 0.0 to 20.0.
type GradeHistogram [shared.GradeBuckets]int

// Add counts g in its bucket (rounded to the nearest 0.5, clamped to the scale).
func (h *GradeHistogram) Add(g float64) {
	h[shared.GradeBucket(g)]++
}

// Count returns how many grades fell into the bucket of g.
func (h *GradeHistogram) Count(g float64) int {
	return h[shared.GradeBucket(g)]
}

// Total returns the number of counted grades.
func (h *GradeHistogram) Total() int {
	n := 0
	for _, c := range h {
		n += c
	}
	return n
}

// GradeCount is one histogram row.
type GradeCount struct {
	Grade float64
	Count int
}

// Rows lists every bucket in ascending grade order, including empty ones.
func (h *GradeHistogram) Rows() []GradeCount {
	rows := make([]GradeCount, len(h))
	for i, c := range h {
		rows[i] = GradeCount{Grade: shared.BucketGrade(i), Count: c}
	}
	return rows
}
