// Package csvtable streams the DeArrow mirror's CSV tables row by row,
// mapping columns by header name rather than position so the mirror can add
// trailing columns without breaking ingestion.
package csvtable

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Row is a single CSV record exposed as a header-name-keyed view.
type Row struct {
	header map[string]int
	fields []string
}

// Get returns the value of column name, or "" if the column doesn't exist in
// this table (callers needing to distinguish "empty" from "absent" should
// use Has first).
func (r Row) Get(name string) string {
	i, ok := r.header[name]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return r.fields[i]
}

// Has reports whether column name is present in this table's header.
func (r Row) Has(name string) bool {
	_, ok := r.header[name]
	return ok
}

// Reader streams rows from one CSV file.
type Reader struct {
	f      *os.File
	csv    *csv.Reader
	header map[string]int
}

// Open opens path and reads its header row. The underlying file is kept open
// until Close is called.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	cr := csv.NewReader(f)
	cr.ReuseRecord = false
	header, err := cr.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	return &Reader{f: f, csv: cr, header: idx}, nil
}

// Next returns the next row, io.EOF when the file is exhausted.
func (r *Reader) Next() (Row, error) {
	fields, err := r.csv.Read()
	if err != nil {
		return Row{}, err
	}
	return Row{header: r.header, fields: fields}, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.f.Close()
}

// Each calls fn once per data row in path's table, stopping at the first
// fatal (non-EOF) read error. Per-row semantic errors are the caller's
// responsibility via fn's own return value; Each only aborts on malformed
// CSV structure, matching encoding/csv's own recoverable/fatal split.
func Each(path string, fn func(Row) error) error {
	r, err := Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	for {
		row, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read row of %s: %w", path, err)
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}
