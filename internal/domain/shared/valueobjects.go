// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"math"
	"slices"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// StudentID identifies one student's feedback document within an assignment.
// It doubles as the exported file name, so only a conservative character set
// is accepted.
type StudentID string

// studentIDPunctuation lists the non-alphanumeric characters allowed in a StudentID.
const studentIDPunctuation = "-_!#$%&*+/=?^{}~"

// isStudentIDRune reports whether r may appear in a StudentID. Letters and
// digits are ASCII only.
func isStudentIDRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune(studentIDPunctuation, r)
}

// IsValid checks if the student ID is non-empty and uses only allowed characters.
func (s StudentID) IsValid() bool {
	if s == "" {
		return false
	}
	for _, r := range string(s) {
		if !isStudentIDRune(r) {
			return false
		}
	}
	return true
}

// String returns the string representation.
func (s StudentID) String() string {
	return string(s)
}

// Compare orders IDs lexicographically on the underlying string.
func (s StudentID) Compare(other StudentID) int {
	return strings.Compare(string(s), string(other))
}

// NewStudentID creates a new StudentID with validation.
func NewStudentID(raw string) (StudentID, error) {
	sid := StudentID(raw)
	if !sid.IsValid() {
		if raw == "" {
			return "", ErrInvalidIdentifier.Detail("empty identifier")
		}
		return "", ErrInvalidIdentifier.Detail("%q", raw)
	}
	return sid, nil
}

// MustStudentID is NewStudentID for literals known to be valid. It panics otherwise.
func MustStudentID(raw string) StudentID {
	id, err := NewStudentID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// SortStudentIDs sorts ids in place in ascending order.
func SortStudentIDs(ids []StudentID) {
	slices.SortFunc(ids, StudentID.Compare)
}

// ═══════════════════════════════════════════════════════════════════════════
// Grade Value Object
// ═══════════════════════════════════════════════════════════════════════════

const (
	// MinGrade is the lowest mark on the grading scale.
	MinGrade = 0.0
	// MaxGrade is the highest mark on the grading scale.
	MaxGrade = 20.0
	// GradeStep is the granularity of the grading scale.
	GradeStep = 0.5
	// GradeBuckets is the number of distinct marks between MinGrade and MaxGrade.
	GradeBuckets = int((MaxGrade-MinGrade)/GradeStep) + 1
)

// IsValidGrade reports whether g is a finite mark within the grading scale.
func IsValidGrade(g float64) bool {
	return !math.IsNaN(g) && !math.IsInf(g, 0) && g >= MinGrade && g <= MaxGrade
}

// GradeBucket returns the histogram bucket for g: the grade rounded to the
// nearest step and clamped into the scale.
func GradeBucket(g float64) int {
	if math.IsNaN(g) {
		return 0
	}
	idx := int(math.Round((g - MinGrade) / GradeStep))
	if idx < 0 {
		return 0
	}
	if idx >= GradeBuckets {
		return GradeBuckets - 1
	}
	return idx
}

// BucketGrade returns the grade a histogram bucket stands for.
func BucketGrade(bucket int) float64 {
	return MinGrade + float64(bucket)*GradeStep
}
