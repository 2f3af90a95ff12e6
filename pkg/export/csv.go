package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// CSVExporter renders tables as RFC 4180 CSV with CRLF line endings.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Write encodes t to w.
func (e *CSVExporter) Write(w io.Writer, t Table) error {
	if err := t.validate(); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	writer.UseCRLF = true
	if err := writer.Write(t.Headers); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// Render returns the encoded bytes of t.
func (e *CSVExporter) Render(t Table) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := e.Write(buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
