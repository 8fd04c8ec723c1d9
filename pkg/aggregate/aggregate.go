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

// Package aggregate merges the index files of one run into a single sorted
// master index.
package aggregate

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/sftpdrive/pkg/index"
	"gitlab.com/tozd/go/errors"
)

// DefaultPrefix names the master index when no prefix is configured.
const DefaultPrefix = "photos_uploaded"

// ErrMissingSortColumn is returned by SortRows when the header lacks one of
// the sort keys.
var ErrMissingSortColumn = errors.Base("header is missing a sort column")

var sortColumns = []string{index.ColumnLast, index.ColumnPreferred, index.ColumnFileName}

// 📚 MasterIndex is the consolidated index of one run.
type MasterIndex struct {
	// Header is the first header seen; nil when no file could be read.
	Header []string
	Rows   [][]string
	// Sources lists the files that contributed rows, in order.
	Sources []string
	// Sorted is false when sorting was skipped.
	Sorted bool
}

// 🔗 Aggregate reads every index file in order and concatenates their rows
// under the first header. Unreadable files are logged and skipped. A later
// header that differs from the first is logged and its rows are still
// appended by position.
func Aggregate(ctx context.Context, paths []string) (*MasterIndex, error) {
	logger := zerolog.Ctx(ctx)

	master := &MasterIndex{}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, errors.Errorf("aggregation cancelled: %w", err)
		}

		table, err := index.ReadFile(path)
		if err != nil {
			logger.Error().Err(err).Str("file", path).Msg("reading index file; skipping")
			continue
		}

		if master.Header == nil {
			master.Header = table.Header
		} else if !slices.Equal(master.Header, table.Header) {
			logger.Warn().
				Str("file", path).
				Strs("expected", master.Header).
				Strs("found", table.Header).
				Msg("header mismatch; appending rows by position")
		}

		master.Rows = append(master.Rows, table.Rows...)
		master.Sources = append(master.Sources, path)
		logger.Debug().Str("file", path).Int("rows", len(table.Rows)).Msg("aggregated index file")
	}

	if master.Header == nil {
		logger.Warn().Int("files", len(paths)).Msg("no readable index files")
		return master, nil
	}

	if err := SortRows(master.Header, master.Rows); err != nil {
		logger.Error().Err(err).Msg("sorting master index; keeping file order")
		return master, nil
	}
	master.Sorted = true

	logger.Info().Int("files", len(master.Sources)).Int("rows", len(master.Rows)).Msg("aggregated index files")
	return master, nil
}

// 🔤 SortRows stably sorts rows ascending by Last, Preferred and File name,
// each compared case-insensitively. Rows shorter than a key column compare
// that key as empty. Rows are left untouched on error.
func SortRows(header []string, rows [][]string) error {
	keys := make([]int, 0, len(sortColumns))
	for _, col := range sortColumns {
		i := slices.Index(header, col)
		if i < 0 {
			return errors.Errorf("%q: %w", col, ErrMissingSortColumn)
		}
		keys = append(keys, i)
	}

	sort.SliceStable(rows, func(a, b int) bool {
		for _, k := range keys {
			x, y := foldedField(rows[a], k), foldedField(rows[b], k)
			if x != y {
				return x < y
			}
		}
		return false
	})
	return nil
}

func foldedField(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.ToLower(row[i])
}

// 💾 WriteFile writes the master index as CSV. With no header the file is
// created empty.
func (m *MasterIndex) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Errorf("creating master index: %w", err)
	}

	if err := index.Write(f, m.Header, m.Rows); err != nil {
		f.Close()
		return errors.Errorf("writing master index: %w", err)
	}
	if err := f.Close(); err != nil {
		return errors.Errorf("closing master index: %w", err)
	}
	return nil
}

// MasterFileName returns "{prefix}-{YYYYMMDDTHHMM}.csv".
func MasterFileName(prefix string, t time.Time) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return fmt.Sprintf("%s-%s.csv", prefix, t.Format("20060102T1504"))
}
