// Copyright 2024 The Pade Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package exprfmt reads tab-delimited expression tables.
//
// A table's first line is a header: the label of the feature-ID
// column followed by one name per sample column. Every following line
// is a feature ID and one numeric value per sample. Blank lines and
// lines starting with '#' are ignored.
package exprfmt

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/youngorchuang/pade/tensor"
)

// A Table is a fully-read expression table: one row per feature, one
// column per sample.
type Table struct {
	// Label is the header label of the feature-ID column.
	Label string

	// SampleNames are the column names, in column order.
	SampleNames []string

	// FeatureIDs are the row identifiers, in row order.
	FeatureIDs []string

	// Data holds the measurements, shaped features × samples. Row
	// order matches FeatureIDs and column order matches
	// SampleNames.
	Data tensor.Tensor
}

// NumFeatures returns the number of feature rows.
func (t *Table) NumFeatures() int { return len(t.FeatureIDs) }

// NumSamples returns the number of sample columns.
func (t *Table) NumSamples() int { return len(t.SampleNames) }

// SampleIndex returns the column index of the named sample, or -1.
func (t *Table) SampleIndex(name string) int {
	for i, s := range t.SampleNames {
		if s == name {
			return i
		}
	}
	return -1
}

// A SyntaxError reports a malformed line in an expression table.
type SyntaxError struct {
	FileName string
	Line     int
	Msg      string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.FileName, e.Line, e.Msg)
}

// A Reader reads an expression table. Its API is modeled on
// bufio.Scanner: call Scan until it returns false, consuming one
// feature row per call, then check Err.
type Reader struct {
	s        *bufio.Scanner
	fileName string
	line     int
	err      error

	header      bool
	label       string
	sampleNames []string

	featureID string
	values    []float64
}

// NewReader constructs a Reader for the table in r. fileName is used
// in error messages; it is purely diagnostic.
func NewReader(r io.Reader, fileName string) *Reader {
	if fileName == "" {
		fileName = "<unknown>"
	}
	return &Reader{s: bufio.NewScanner(r), fileName: fileName}
}

func (r *Reader) syntaxErrorf(format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{r.fileName, r.line, fmt.Sprintf(format, args...)}
}

// Scan advances the reader to the next feature row, reading the
// header first if it has not been read. It returns false at EOF or on
// error; the caller should then check Err.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	for {
		line, ok := r.nextLine()
		if !ok {
			return false
		}
		if !r.header {
			fields := strings.Split(line, "\t")
			if len(fields) < 2 {
				r.err = r.syntaxErrorf("header needs a feature-ID column and at least one sample column")
				return false
			}
			r.label = fields[0]
			r.sampleNames = fields[1:]
			r.header = true
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != len(r.sampleNames)+1 {
			r.err = r.syntaxErrorf("row has %d columns, want %d", len(fields), len(r.sampleNames)+1)
			return false
		}
		r.featureID = fields[0]
		r.values = r.values[:0]
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				r.err = r.syntaxErrorf("parsing value for sample %s: %v", r.sampleNames[i], err)
				return false
			}
			r.values = append(r.values, v)
		}
		return true
	}
}

// nextLine returns the next non-blank, non-comment line.
func (r *Reader) nextLine() (string, bool) {
	for r.s.Scan() {
		r.line++
		line := strings.TrimRight(r.s.Text(), "\r\n")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return line, true
	}
	if err := r.s.Err(); err != nil {
		r.err = fmt.Errorf("%s:%d: %w", r.fileName, r.line, err)
	}
	return "", false
}

// FeatureID returns the ID of the row read by the last call to Scan.
func (r *Reader) FeatureID() string { return r.featureID }

// Values returns the measurements of the row read by the last call to
// Scan. The slice is reused by the next Scan; callers must copy
// anything they retain.
func (r *Reader) Values() []float64 { return r.values }

// SampleNames returns the sample column names from the header. It is
// empty until the first Scan.
func (r *Reader) SampleNames() []string { return r.sampleNames }

// Err returns the first error encountered by the Reader.
func (r *Reader) Err() error { return r.err }

// ReadTable reads an entire table from r.
func ReadTable(r io.Reader, fileName string) (*Table, error) {
	rd := NewReader(r, fileName)
	var ids []string
	var rows [][]float64
	for rd.Scan() {
		ids = append(ids, rd.FeatureID())
		rows = append(rows, append([]float64(nil), rd.Values()...))
	}
	if err := rd.Err(); err != nil {
		return nil, err
	}
	if !rd.header {
		return nil, &SyntaxError{fileName, rd.line, "empty table"}
	}
	data, err := tensor.FromMatrix(rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		data = tensor.New(0, len(rd.sampleNames))
	}
	return &Table{
		Label:       rd.label,
		SampleNames: append([]string(nil), rd.sampleNames...),
		FeatureIDs:  ids,
		Data:        data,
	}, nil
}
