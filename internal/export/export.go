// Package export serialises imagery records for download.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/i474232898/landsat-dashboard/internal/imagery"
)

// Format is a download format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Export encodes rec in format and returns the bytes with their MIME type.
func Export(rec imagery.Record, format Format) ([]byte, string, error) {
	switch format {
	case FormatJSON, "":
		b, err := JSON(rec)
		return b, "application/json", err
	case FormatCSV:
		b, err := CSV(rec)
		return b, "text/csv", err
	default:
		return nil, "", fmt.Errorf("unsupported export format %q", format)
	}
}

// FileName is the suggested download name for format.
func FileName(format Format) string {
	if format == "" {
		format = FormatJSON
	}
	return "landsat_data." + string(format)
}

// JSON dumps the upstream metadata as-is.
func JSON(rec imagery.Record) ([]byte, error) {
	meta := rec.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	return json.MarshalIndent(meta, "", "  ")
}

// CSV writes a header of top-level keys (sorted) and a single value row.
// Nested values are JSON-encoded into their cell.
func CSV(rec imagery.Record) ([]byte, error) {
	keys := make([]string, 0, len(rec.Metadata))
	for k := range rec.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	row := make([]string, 0, len(keys))
	for _, k := range keys {
		cell, err := cellValue(rec.Metadata[k])
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", k, err)
		}
		row = append(row, cell)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(keys); err != nil {
		return nil, err
	}
	if err := w.Write(row); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cellValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool, float64, int, int64:
		return fmt.Sprint(t), nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
