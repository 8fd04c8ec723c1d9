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

// Package rename renames extracted payload files after the people listed in
// the archive's index.
package rename

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/sftpdrive/pkg/index"
	"gitlab.com/tozd/go/errors"
)

// 🏷️ TargetName returns the stem "{Last}, {Preferred} - {IC ID Number}" and
// the extension of the original file name, dot included.
func TargetName(rec index.Record) (stem, ext string) {
	stem = fmt.Sprintf("%s, %s - %s", rec.Last(), rec.Preferred(), rec.IdentityNumber())
	return stem, filepath.Ext(rec.FileName())
}

// 🎯 Claimed is the set of names already taken in one directory. Names are
// compared case-insensitively, so names differing only in case collide.
type Claimed map[string]struct{}

func claimKey(name string) string {
	return strings.ToLower(name)
}

// Has reports whether name is taken.
func (c Claimed) Has(name string) bool {
	_, ok := c[claimKey(name)]
	return ok
}

// Claim marks name as taken.
func (c Claimed) Claim(name string) {
	c[claimKey(name)] = struct{}{}
}

// Release frees name, used when the file holding it moves away.
func (c Claimed) Release(name string) {
	delete(c, claimKey(name))
}

// 🔢 Resolve returns stem+ext when it is free, otherwise "{stem} (n){ext}"
// for the smallest n >= 1 that is free. It does not claim the result.
func Resolve(claimed Claimed, stem, ext string) string {
	if candidate := stem + ext; !claimed.Has(candidate) {
		return candidate
	}
	for n := 1; ; n++ {
		name := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if !claimed.Has(name) {
			return name
		}
	}
}

// 📊 Summary counts the outcome of one Apply call.
type Summary struct {
	Renamed int
	Skipped int // rows missing required fields
	Missing int // rows whose source file is absent
	Failed  int // rename errors
	Renames []Rename
}

// Rename records one completed rename.
type Rename struct {
	From string
	To   string
}

// 📁 Renamer renames files within a single directory.
type Renamer struct {
	dir     string
	claimed Claimed
}

// 🏭 New lists dir once and seeds the claimed set from its entries.
func New(dir string) (*Renamer, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Errorf("listing %s: %w", dir, err)
	}
	claimed := make(Claimed, len(entries))
	for _, e := range entries {
		claimed.Claim(e.Name())
	}
	return &Renamer{dir: dir, claimed: claimed}, nil
}

// 🔄 Apply reads the index at indexPath and renames one payload file per
// valid row. Only an unreadable index is returned as an error; row problems
// are logged and counted.
func (r *Renamer) Apply(ctx context.Context, indexPath string) (*Summary, error) {
	logger := zerolog.Ctx(ctx)

	table, err := index.ReadFile(indexPath)
	if err != nil {
		return nil, errors.Errorf("reading index: %w", err)
	}

	summary := &Summary{}
	for _, rec := range table.Records() {
		if err := ctx.Err(); err != nil {
			return summary, errors.Errorf("rename cancelled: %w", err)
		}

		if missing := rec.Missing(); len(missing) > 0 {
			logger.Warn().
				Int("row", rec.Line).
				Strs("missing", missing).
				Interface("fields", rec.Fields()).
				Msg("missing required data in row; skipping row")
			summary.Skipped++
			continue
		}

		from, to, err := r.renameOne(rec)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Error().Int("row", rec.Line).Str("file", rec.FileName()).Msg("file not found in extracted contents")
			summary.Missing++
		case err != nil:
			logger.Error().Err(err).Int("row", rec.Line).Str("file", rec.FileName()).Msg("renaming file")
			summary.Failed++
		default:
			summary.Renamed++
			summary.Renames = append(summary.Renames, Rename{From: from, To: to})
		}
	}
	return summary, nil
}

// renameOne moves the row's payload file to its resolved target name.
func (r *Renamer) renameOne(rec index.Record) (string, string, error) {
	from := rec.FileName()
	src := filepath.Join(r.dir, filepath.FromSlash(from))
	if _, err := os.Stat(src); err != nil {
		return from, "", errors.Errorf("checking %s: %w", from, err)
	}

	stem, ext := TargetName(rec)
	// a file already carrying its own target name stays put
	if filepath.ToSlash(from) == stem+ext {
		return from, from, nil
	}

	// the source name frees up once it moves, so a case-only change keeps
	// the bare target
	r.claimed.Release(filepath.ToSlash(from))
	to := Resolve(r.claimed, stem, ext)
	if err := os.Rename(src, filepath.Join(r.dir, to)); err != nil {
		r.claimed.Claim(filepath.ToSlash(from))
		return from, "", errors.Errorf("renaming %s to %s: %w", from, to, err)
	}
	r.claimed.Claim(to)
	return from, to, nil
}
