// Package csvutil contains the CSV helpers shared by the import and export
// pipelines.
//
// Reading uses encoding/csv. Writing is hand-rolled because the export format
// requires every field to be double-quoted, including empty ones, which
// encoding/csv's minimal quoting does not produce.
package csvutil

import (
	"bufio"
	"io"
	"strings"
)

// HeaderIndex maps trimmed column names to their positions in the header row.
func HeaderIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	return index
}

// Field returns the named column of row. It returns "" when the column is not
// present in the header or the row is shorter than the header.
func Field(row []string, index map[string]int, name string) string {
	i, ok := index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// Writer writes CSV records with every field double-quoted and embedded
// quotes escaped by doubling.
type Writer struct {
	w *bufio.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write writes one record followed by a newline.
func (w *Writer) Write(record []string) error {
	for i, field := range record {
		if i > 0 {
			if err := w.w.WriteByte(','); err != nil {
				return err
			}
		}
		if err := w.w.WriteByte('"'); err != nil {
			return err
		}
		if _, err := w.w.WriteString(strings.ReplaceAll(field, `"`, `""`)); err != nil {
			return err
		}
		if err := w.w.WriteByte('"'); err != nil {
			return err
		}
	}
	return w.w.WriteByte('\n')
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
