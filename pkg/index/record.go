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

package index

import (
	"strings"
)

// 📋 Record is one data row keyed by its column header.
type Record struct {
	Line   int // 1-based data row number
	fields map[string]string
}

// NewRecord pairs header labels with row values. Missing trailing values read
// as empty and extra values are dropped.
func NewRecord(header, row []string, line int) Record {
	fields := make(map[string]string, len(header))
	for i, h := range header {
		if i < len(row) {
			fields[h] = row[i]
		} else {
			fields[h] = ""
		}
	}
	return Record{Line: line, fields: fields}
}

// Get returns the value for a column exactly as read.
func (r Record) Get(column string) string {
	return r.fields[column]
}

// blank is true for empty and whitespace-only values.
func blank(v string) bool {
	return strings.TrimSpace(v) == ""
}

func (r Record) FileName() string  { return r.Get(ColumnFileName) }
func (r Record) Preferred() string { return r.Get(ColumnPreferred) }
func (r Record) Last() string      { return r.Get(ColumnLast) }

// IdentityNumber returns the IC ID Number, or NotAdmittedYet when it is
// missing or blank.
func (r Record) IdentityNumber() string {
	if id := r.Get(ColumnIdentityNumber); !blank(id) {
		return id
	}
	return NotAdmittedYet
}

// Missing lists the required columns that are blank in this row.
func (r Record) Missing() []string {
	var missing []string
	for _, col := range []string{ColumnFileName, ColumnPreferred, ColumnLast} {
		if blank(r.Get(col)) {
			missing = append(missing, col)
		}
	}
	return missing
}

// Fields returns a copy of the raw values, for logging.
func (r Record) Fields() map[string]string {
	out := make(map[string]string, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out
}
