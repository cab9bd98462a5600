package ports

import (
	"context"

	"autodash/domain/report"
)

// ExportRequest is everything a document writer needs for one output file
type ExportRequest struct {
	Path     string
	Document *report.Document
	Captures []*report.CaptureResult
}

// DocumentWriter writes one output artifact and returns non-fatal warnings
type DocumentWriter interface {
	// Extension is the file extension this writer produces, without the dot
	Extension() string
	Write(ctx context.Context, req ExportRequest) (warnings []string, err error)
}
