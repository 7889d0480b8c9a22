// Package export writes an assignment's feedback files: one text file per
// student plus grade summaries, under "<dir>/<slug(title)>-feedback/".
package export

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alem-hub/feedback-helper/internal/domain/assignment"
	"github.com/alem-hub/feedback-helper/internal/domain/shared"
	"github.com/alem-hub/feedback-helper/pkg/logger"
	"github.com/alem-hub/feedback-helper/pkg/slug"
)

const (
	// GradesFile lists "studentId,grade" per student.
	GradesFile = "grades.csv"

	// HistogramFile lists "grade,count" per half-point bucket.
	HistogramFile = "grade-distribution.csv"

	// DirSuffix is appended to the title slug to name the output directory.
	DirSuffix = "-feedback"
)

// Config contains configuration for Exporter.
type Config struct {
	// Concurrency bounds parallel file writes (default: 4).
	Concurrency int

	// Logger for structured logging
	Logger *slog.Logger
}

// Exporter renders and writes feedback files.
type Exporter struct {
	concurrency int
	logger      *slog.Logger
}

// New creates an Exporter.
func New(cfg Config) *Exporter {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Exporter{
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger.With(logger.Component("export")),
	}
}

// OutputDir returns where ExportAll writes for a.
func OutputDir(a *assignment.Assignment) string {
	return filepath.Join(a.Directory(), slug.Make(a.Title())+DirSuffix)
}

type file struct {
	path string
	data []byte
}

// ExportAll writes every student's feedback file, grades.csv and
// grade-distribution.csv, and returns the output directory. It reads the
// assignment on the calling goroutine and returns once every file is written.
func (e *Exporter) ExportAll(ctx context.Context, a *assignment.Assignment) (string, error) {
	start := time.Now()
	outDir := OutputDir(a)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", shared.ErrExport.With(err)
	}

	docs := a.Documents()
	headings := a.Headings()
	style := a.Style()

	files := make([]file, 0, len(docs)+2)
	for _, d := range docs {
		files = append(files, file{
			path: filepath.Join(outDir, d.StudentID().String()+".txt"),
			data: []byte(RenderDocument(d, headings, style)),
		})
	}
	grades, err := GradesCSV(docs)
	if err != nil {
		return "", shared.ErrExport.With(err)
	}
	files = append(files, file{path: filepath.Join(outDir, GradesFile), data: grades})

	hist, err := HistogramCSV(a.GradeHistogram())
	if err != nil {
		return "", shared.ErrExport.With(err)
	}
	files = append(files, file{path: filepath.Join(outDir, HistogramFile), data: hist})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, f := range files {
		f := f // per-iteration copy (pre-Go 1.22 loop semantics)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Identifiers may contain '/', which nests the file one level deeper.
			if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
				return err
			}
			return os.WriteFile(f.path, f.data, 0o644)
		})
	}
	if err := g.Wait(); err != nil {
		return "", shared.ErrExport.With(err)
	}

	e.logger.Info("feedback exported",
		logger.Path(outDir),
		"students", len(docs),
		logger.Latency(time.Since(start)),
	)
	return outDir, nil
}
