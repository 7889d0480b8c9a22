package assignment

import (
	"strings"
	"unicode/utf8"

	"github.com/alem-hub/feedback-helper/internal/domain/shared"
)

// MaxBlankLines bounds the blank lines written after each exported section.
const MaxBlankLines = 10

// ExportStyle controls how feedback files are rendered and which prefix marks
// a line as a countable phrase.
type ExportStyle struct {
	// HeadingPrefix is written before every heading, e.g. "## ".
	HeadingPrefix string

	// Underline is repeated under each heading; 0 means no underline.
	Underline rune

	// BlankLines is the number of empty lines after each section.
	BlankLines int

	// LineMarker is the bullet prefix, e.g. "- ".
	LineMarker string
}

// DefaultExportStyle returns the style used when nothing is configured.
func DefaultExportStyle() ExportStyle {
	return ExportStyle{
		HeadingPrefix: "",
		Underline:     '=',
		BlankLines:    1,
		LineMarker:    "- ",
	}
}

// NewExportStyle validates raw style parameters. underline must be empty or a
// single character.
func NewExportStyle(headingPrefix, underline string, blankLines int, lineMarker string) (ExportStyle, error) {
	if strings.ContainsAny(headingPrefix, "\r\n") {
		return ExportStyle{}, shared.ErrInvalidStyle.Detail("heading prefix must be a single line")
	}

	var u rune
	switch utf8.RuneCountInString(underline) {
	case 0:
	case 1:
		u, _ = utf8.DecodeRuneInString(underline)
		if u == '\n' || u == '\r' {
			return ExportStyle{}, shared.ErrInvalidStyle.Detail("underline cannot be a line break")
		}
	default:
		return ExportStyle{}, shared.ErrInvalidStyle.Detail("underline must be a single character, got %q", underline)
	}

	if blankLines < 0 || blankLines > MaxBlankLines {
		return ExportStyle{}, shared.ErrInvalidStyle.Detail("blank lines must be between 0 and %d", MaxBlankLines)
	}

	if strings.TrimSpace(lineMarker) == "" {
		return ExportStyle{}, shared.ErrInvalidStyle.Detail("line marker cannot be blank")
	}
	if strings.ContainsAny(lineMarker, "\r\n") {
		return ExportStyle{}, shared.ErrInvalidStyle.Detail("line marker must be a single line")
	}

	return ExportStyle{
		HeadingPrefix: headingPrefix,
		Underline:     u,
		BlankLines:    blankLines,
		LineMarker:    lineMarker,
	}, nil
}

// Validate re-checks a style built as a struct literal.
func (s ExportStyle) Validate() error {
	underline := ""
	if s.Underline != 0 {
		underline = string(s.Underline)
	}
	_, err := NewExportStyle(s.HeadingPrefix, underline, s.BlankLines, s.LineMarker)
	return err
}

// HasUnderline reports whether headings are underlined.
func (s ExportStyle) HasUnderline() bool {
	return s.Underline != 0
}

// UnderlineString returns the underline character, or "" when disabled.
func (s ExportStyle) UnderlineString() string {
	if s.Underline == 0 {
		return ""
	}
	return string(s.Underline)
}

// TrimmedMarker returns the line marker without surrounding whitespace. Lines
// consisting of just this are dropped from exports.
func (s ExportStyle) TrimmedMarker() string {
	return strings.TrimSpace(s.LineMarker)
}
