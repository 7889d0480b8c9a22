package export

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/alem-hub/feedback-helper/internal/domain/assignment"
	"github.com/alem-hub/feedback-helper/internal/domain/feedback"
)

// RenderDocument produces the text file for one student. For every heading in
// order it writes the prefixed heading, an optional underline as long as the
// rendered heading, the section text (lines consisting only of the bullet
// marker are dropped) and style.BlankLines empty lines.
func RenderDocument(doc *feedback.Document, headings []string, style assignment.ExportStyle) string {
	var b strings.Builder
	marker := style.TrimmedMarker()
	for _, h := range headings {
		title := style.HeadingPrefix + h
		b.WriteString(title)
		b.WriteByte('\n')
		if style.HasUnderline() {
			b.WriteString(strings.Repeat(style.UnderlineString(), utf8.RuneCountInString(title)))
			b.WriteByte('\n')
		}

		text, _ := doc.Section(h)
		if text != "" {
			for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
				if line == marker {
					continue
				}
				b.WriteString(line)
				b.WriteByte('\n')
			}
		}

		for i := 0; i < style.BlankLines; i++ {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// FormatGrade renders a grade with one decimal, e.g. "0.0" or "12.5".
func FormatGrade(g float64) string {
	return strconv.FormatFloat(g, 'f', 1, 64)
}

// GradesCSV renders "studentId,grade" lines for docs, which must already be
// sorted by student ID. There is no header row.
func GradesCSV(docs []*feedback.Document) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, d := range docs {
		if err := w.Write([]string{d.StudentID().String(), FormatGrade(d.Grade())}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// HistogramCSV renders "grade,count" lines for all 41 half-point buckets.
func HistogramCSV(h assignment.GradeHistogram) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range h.Rows() {
		if err := w.Write([]string{FormatGrade(row.Grade), strconv.Itoa(row.Count)}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
