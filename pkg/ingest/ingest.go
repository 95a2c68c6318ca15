// Package ingest parses uploaded delimited text into tabular datasets.
package ingest

import (
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/optiflow-ai/optiflow-engine/pkg/models"
)

// FileMeta describes an uploaded file. Size is the caller-declared size in
// bytes; no other metadata is required.
type FileMeta struct {
	Name        string
	Size        int64
	ContentType string
}

// Options configures parsing limits.
type Options struct {
	// MaxSizeBytes is the largest accepted declared file size.
	MaxSizeBytes int64
	// MaxPreviewRows bounds how many data rows are retained.
	MaxPreviewRows int
}

// DefaultOptions returns the standard parsing limits.
func DefaultOptions() Options {
	return Options{
		MaxSizeBytes:   5 << 20,
		MaxPreviewRows: 20,
	}
}

// Ingestor parses raw delimited text into TabularDatasets. It has no side
// effects beyond returning the structured result.
type Ingestor struct {
	opts   Options
	logger *zap.Logger
}

// NewIngestor creates an ingestor with the given limits. Zero-valued
// option fields fall back to the defaults.
func NewIngestor(opts Options, logger *zap.Logger) *Ingestor {
	def := DefaultOptions()
	if opts.MaxSizeBytes <= 0 {
		opts.MaxSizeBytes = def.MaxSizeBytes
	}
	if opts.MaxPreviewRows <= 0 {
		opts.MaxPreviewRows = def.MaxPreviewRows
	}
	return &Ingestor{opts: opts, logger: logger.Named("ingest")}
}

// Parse converts raw file text into a TabularDataset. Failures are typed
// *ParseError values: unsupported extension/content type, declared size
// over the ceiling, or no non-blank lines.
//
// Rows are kept positionally: a short row is not padded and a long row is
// not truncated. Missing trailing cells read as empty through Dataset.Cell.
func (i *Ingestor) Parse(raw string, meta FileMeta) (*models.TabularDataset, error) {
	delim, err := i.delimiterFor(meta)
	if err != nil {
		return nil, err
	}

	if meta.Size > i.opts.MaxSizeBytes || int64(len(raw)) > i.opts.MaxSizeBytes {
		return nil, newParseError(CodeSizeExceeded,
			"file is larger than the %d byte limit", i.opts.MaxSizeBytes)
	}

	lines := make([]string, 0, 64)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil, newParseError(CodeEmptyFile, "file %q contains no data", meta.Name)
	}

	headers := splitFields(lines[0], delim)

	rows := make([][]string, 0, i.opts.MaxPreviewRows)
	for _, line := range lines[1:] {
		if len(rows) >= i.opts.MaxPreviewRows {
			break
		}
		rows = append(rows, splitFields(line, delim))
	}

	i.logger.Debug("parsed dataset",
		zap.String("source", meta.Name),
		zap.Int("columns", len(headers)),
		zap.Int("preview_rows", len(rows)))

	return &models.TabularDataset{
		SourceName: meta.Name,
		SizeBytes:  meta.Size,
		Headers:    headers,
		Rows:       rows,
	}, nil
}

// delimiterFor validates that the file looks like delimited text and picks
// the field separator from the extension or declared type.
func (i *Ingestor) delimiterFor(meta FileMeta) (string, error) {
	ext := strings.ToLower(filepath.Ext(meta.Name))
	ctype := strings.ToLower(strings.TrimSpace(strings.SplitN(meta.ContentType, ";", 2)[0]))

	switch {
	case ext == ".tsv" || ctype == "text/tab-separated-values":
		return "\t", nil
	case ext == ".csv" || ctype == "text/csv":
		return ",", nil
	}
	return "", newParseError(CodeUnsupportedType,
		"%q is not a supported file type; upload a .csv or .tsv file", meta.Name)
}

// splitFields splits one record on the delimiter, trims whitespace, and
// strips one pair of surrounding quote characters per field.
func splitFields(line, delim string) []string {
	parts := strings.Split(line, delim)
	fields := make([]string, len(parts))
	for idx, p := range parts {
		fields[idx] = stripQuotes(strings.TrimSpace(p))
	}
	return fields
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
