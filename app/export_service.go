package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"autodash/domain/core"
	"autodash/domain/report"
	"autodash/internal"
	"autodash/internal/errors"
	"autodash/ports"
)

// ExportRequest selects what to export and how
type ExportRequest struct {
	Title  string
	Author string
	// Filename is optional; the extension is always forced to the format's
	Filename string
	// Formats lists writer extensions ("pdf", "html", "xlsx")
	Formats []string
}

// ExportResult is what one export produced
type ExportResult struct {
	ID       core.ExportID
	Paths    []string
	Warnings []string
	Document *report.Document
	Captures []*report.CaptureResult
}

// ExportService captures dashboards headlessly and writes documents
type ExportService struct {
	outputDir string
	writers   map[string]ports.DocumentWriter
	assembler *DocumentAssembler
	logger    *internal.Logger
	now       func() time.Time
}

// NewExportService creates an export service writing under outputDir
func NewExportService(outputDir string, assembler *DocumentAssembler, logger *internal.Logger, writers ...ports.DocumentWriter) *ExportService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if assembler == nil {
		assembler = NewDocumentAssembler(logger)
	}
	s := &ExportService{
		outputDir: outputDir,
		writers:   make(map[string]ports.DocumentWriter, len(writers)),
		assembler: assembler,
		logger:    logger.With("export"),
		now:       time.Now,
	}
	for _, w := range writers {
		s.writers[w.Extension()] = w
	}
	return s
}

// Formats returns the registered writer extensions
func (s *ExportService) Formats() []string {
	out := make([]string, 0, len(s.writers))
	for ext := range s.writers {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Export captures every dashboard and writes one file per requested format.
// A dashboard whose view fails still gets its section with a warning;
// only fatal capture errors and writer failures abort.
func (s *ExportService) Export(ctx context.Context, dashboards []*Dashboard, req ExportRequest) (*ExportResult, error) {
	if len(dashboards) == 0 {
		return nil, errors.InvalidInput("nothing to export: no dashboards")
	}
	if len(req.Formats) == 0 {
		return nil, errors.InvalidInput("nothing to export: no formats requested")
	}
	for _, f := range req.Formats {
		if _, ok := s.writers[normalizeExt(f)]; !ok {
			return nil, errors.InvalidInput(fmt.Sprintf("unsupported export format %q", f))
		}
	}

	result := &ExportResult{ID: core.NewExportID()}
	s.logger.Info("export %s: %d dashboards, formats %v", result.ID.Short(), len(dashboards), req.Formats)

	pipeline := NewCapturePipeline(nil, s.logger)
	captures, err := pipeline.CaptureAll(ctx, dashboards)
	if err != nil {
		return nil, errors.ExportError("capture failed", err)
	}
	result.Captures = captures

	doc := s.assembler.Assemble(captures, AssembleOptions{Title: req.Title, Author: req.Author})
	result.Document = doc
	result.Warnings = append(result.Warnings, doc.Warnings...)

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return nil, errors.ExportError("failed to create output directory", err)
	}

	for _, f := range req.Formats {
		ext := normalizeExt(f)
		path := s.OutputPath(req.Filename, ext)
		warnings, err := s.writers[ext].Write(ctx, ports.ExportRequest{
			Path:     path,
			Document: doc,
			Captures: captures,
		})
		for _, w := range warnings {
			s.logger.Warn("%s: %s", ext, w)
		}
		result.Warnings = append(result.Warnings, warnings...)
		if err != nil {
			return nil, errors.ExportError(fmt.Sprintf("failed to write %s", ext), err)
		}
		result.Paths = append(result.Paths, path)
		s.logger.Info("wrote %s", path)
	}
	return result, nil
}

// OutputPath resolves the output file for a format. Without a filename the
// name is report_YYYYMMDD_HHMMSS; any directory or extension in the given
// name is dropped.
func (s *ExportService) OutputPath(filename, ext string) string {
	ext = normalizeExt(ext)
	base := strings.TrimSpace(filepath.Base(filename))
	if filename == "" || base == "." || base == string(filepath.Separator) {
		base = "report_" + s.now().Format("20060102_150405")
	} else {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return filepath.Join(s.outputDir, base+"."+ext)
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
