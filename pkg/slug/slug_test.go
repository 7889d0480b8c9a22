package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"already safe", "CS2101-P2", "CS2101-P2"},
		{"spaces collapse", "Lab  report  3", "Lab-report-3"},
		{"accents stripped", "Économie générale", "Economie-generale"},
		{"separators trimmed", "  /weird/ title?  ", "weird-title"},
		{"no path escape", "../../etc", "etc"},
		{"empty falls back", "   ", Fallback},
		{"symbols only", "???", Fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Make(tt.title))
		})
	}
}
