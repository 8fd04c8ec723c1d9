// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package index reads and writes the index CSV files that travel inside each
// delivery archive.
package index

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gitlab.com/tozd/go/errors"
)

// 🏷️ Column labels recognised in an index header
const (
	ColumnFileName       = "File name"
	ColumnPreferred      = "Preferred"
	ColumnLast           = "Last"
	ColumnIdentityNumber = "IC ID Number"
)

// NotAdmittedYet replaces a blank identity number.
const NotAdmittedYet = "not admitted yet"

const bom = "\ufeff"

var (
	// ErrEmptyIndex is returned when a file has no header line at all.
	ErrEmptyIndex = errors.Base("index has no header")
	// ErrUndecodableHeader is returned when the first line is not valid UTF-8.
	ErrUndecodableHeader = errors.Base("index header is not valid utf-8")
)

// 🔍 IsIndexHeader reports whether a header line marks an index file.
func IsIndexHeader(line string) bool {
	return strings.Contains(line, ColumnFileName)
}

// 📄 HeaderLine reads the first line of r.
func HeaderLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", errors.Errorf("reading header line: %w", err)
	}
	if !utf8.ValidString(line) {
		return "", errors.WithStack(ErrUndecodableHeader)
	}
	return strings.TrimPrefix(strings.TrimRight(line, "\r\n"), bom), nil
}

// 🔍 IsIndexFile reports whether path is a .csv file whose header marks it as
// an index.
func IsIndexFile(path string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return false, errors.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	line, err := HeaderLine(f)
	if err != nil {
		return false, err
	}
	return IsIndexHeader(line), nil
}

// 📊 Table is a header plus its data rows, in file order.
type Table struct {
	Header []string
	Rows   [][]string
}

// Read parses CSV content with a header row. Rows may have a different
// number of fields than the header.
func Read(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.WithStack(ErrEmptyIndex)
	}
	if err != nil {
		return nil, errors.Errorf("reading header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], bom)
	}

	table := &Table{Header: header}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Errorf("reading row %d: %w", len(table.Rows)+1, err)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// ReadFile parses the index file at path.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	table, err := Read(f)
	if err != nil {
		return nil, errors.Errorf("parsing %s: %w", path, err)
	}
	return table, nil
}

// Write emits header then rows as CSV. A nil header writes nothing for it.
func Write(w io.Writer, header []string, rows [][]string) error {
	writer := csv.NewWriter(w)
	if header != nil {
		if err := writer.Write(header); err != nil {
			return errors.Errorf("writing header: %w", err)
		}
	}
	for i, row := range rows {
		if err := writer.Write(row); err != nil {
			return errors.Errorf("writing row %d: %w", i+1, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.Errorf("flushing csv: %w", err)
	}
	return nil
}

// Column returns the position of name in the header, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Records returns the rows keyed by the header.
func (t *Table) Records() []Record {
	records := make([]Record, 0, len(t.Rows))
	for i, row := range t.Rows {
		records = append(records, NewRecord(t.Header, row, i+1))
	}
	return records
}
