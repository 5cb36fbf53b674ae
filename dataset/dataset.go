// Package dataset reads the housing CSV that backs training and the area
// statistics endpoints.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	// TargetColumn is the median home value column.
	TargetColumn = "MEDV"
	// AreaColumn is the radial highway accessibility index used as the area key.
	AreaColumn = "RAD"
)

var ErrNoColumns = errors.New("no columns to parse from file")

// Cells treated as missing, matching the usual CSV null spellings.
var missingValues = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// Row is one observation. Values follow Frame.Columns; missing cells are NaN.
type Row []float64

// Frame is a parsed dataset held in memory for the duration of one request
// or one training run.
type Frame struct {
	Columns []string
	Rows    []Row

	index map[string]int
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Rows)
}

// HasColumn reports whether the named column exists.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Column returns a copy of the named column in file order.
func (f *Frame) Column(name string) ([]float64, error) {
	idx, ok := f.index[name]
	if !ok {
		return nil, fmt.Errorf("column %q not found", name)
	}
	values := make([]float64, len(f.Rows))
	for i, row := range f.Rows {
		values[i] = row[idx]
	}
	return values, nil
}

// Select returns every row projected onto the given columns, in that order.
func (f *Frame) Select(names []string) ([][]float64, error) {
	indices := make([]int, len(names))
	for i, name := range names {
		idx, ok := f.index[name]
		if !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
		indices[i] = idx
	}
	out := make([][]float64, len(f.Rows))
	for r, row := range f.Rows {
		projected := make([]float64, len(indices))
		for i, idx := range indices {
			projected[i] = row[idx]
		}
		out[r] = projected
	}
	return out, nil
}

// Parse reads a headed CSV of numeric columns. A leading byte order mark is
// stripped. Short rows are padded with NaN; long rows are an error.
func Parse(r io.Reader) (*Frame, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoColumns
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	frame := &Frame{
		Columns: make([]string, len(header)),
		index:   make(map[string]int, len(header)),
	}
	for i, name := range header {
		if _, dup := frame.index[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		frame.Columns[i] = name
		frame.index[name] = i
	}

	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line++
		if len(record) > len(frame.Columns) {
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", line, len(frame.Columns), len(record))
		}
		row := make(Row, len(frame.Columns))
		for i := range row {
			if i >= len(record) {
				row[i] = math.NaN()
				continue
			}
			value, err := parseCell(record[i])
			if err != nil {
				return nil, fmt.Errorf("line %d, column %q: %w", line, frame.Columns[i], err)
			}
			row[i] = value
		}
		frame.Rows = append(frame.Rows, row)
	}
	return frame, nil
}

func parseCell(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if _, missing := missingValues[cell]; missing {
		return math.NaN(), nil
	}
	value, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("could not convert %q to float", cell)
	}
	return value, nil
}

// Store is the on-disk dataset. It holds no parsed state: every Load reads
// the file again.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Load opens and parses the dataset file.
func (s *Store) Load(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	frame, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return frame, nil
}
