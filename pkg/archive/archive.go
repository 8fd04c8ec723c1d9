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

// Package archive unpacks delivery zips and locates the index file inside.
package archive

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/sftpdrive/pkg/index"
	"gitlab.com/tozd/go/errors"
)

// ErrUnsafePath is returned for entries that would land outside the
// destination directory.
var ErrUnsafePath = errors.Base("archive entry escapes destination")

// 📦 Result describes one extracted archive.
type Result struct {
	// Dir is the destination directory.
	Dir string
	// Files are the extracted regular files, relative to Dir, in archive order.
	Files []string
	// IndexPath is the extracted path of the index file when Found is set.
	IndexPath string
	Found     bool
	// Skipped lists entries that could not be written.
	Skipped []string
}

// 📂 Extract unpacks every entry of the zip at archivePath into destDir, then
// looks for the first .csv entry whose header carries the index marker.
// Extraction always completes before the search; a missing index is not an
// error.
func Extract(ctx context.Context, archivePath, destDir string) (*Result, error) {
	logger := zerolog.Ctx(ctx).With().Str("archive", filepath.Base(archivePath)).Logger()

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, errors.Errorf("opening archive: %w", err)
	}
	defer reader.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, errors.Errorf("creating destination: %w", err)
	}

	result := &Result{Dir: destDir}
	for _, f := range reader.File {
		if err := ctx.Err(); err != nil {
			return nil, errors.Errorf("extraction cancelled: %w", err)
		}

		target, err := entryPath(destDir, f.Name)
		if err != nil {
			logger.Error().Err(err).Str("entry", f.Name).Msg("skipping archive entry")
			result.Skipped = append(result.Skipped, f.Name)
			continue
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				logger.Error().Err(err).Str("entry", f.Name).Msg("creating directory")
				result.Skipped = append(result.Skipped, f.Name)
			}
			continue
		}

		if err := extractFile(f, target); err != nil {
			logger.Error().Err(err).Str("entry", f.Name).Msg("extracting entry")
			result.Skipped = append(result.Skipped, f.Name)
			continue
		}
		rel, _ := filepath.Rel(destDir, target)
		result.Files = append(result.Files, rel)
	}
	logger.Info().Int("files", len(result.Files)).Str("dir", destDir).Msg("extraction completed")

	name, ok := findIndex(ctx, reader.File, result.Skipped)
	if !ok {
		logger.Error().Msg("index csv with 'File name' header not found in archive")
		return result, nil
	}

	result.IndexPath = filepath.Join(destDir, filepath.FromSlash(name))
	result.Found = true
	logger.Info().Str("index", result.IndexPath).Msg("found index csv")
	return result, nil
}

// entryPath resolves an entry name below destDir, refusing absolute paths and
// parent traversal.
func entryPath(destDir, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("%q: %w", name, ErrUnsafePath)
	}
	return filepath.Join(destDir, clean), nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}

	rc, err := f.Open()
	if err != nil {
		return errors.Errorf("opening entry: %w", err)
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return errors.Errorf("creating file: %w", err)
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		os.Remove(target)
		return errors.Errorf("copying entry: %w", err)
	}
	if err := out.Close(); err != nil {
		return errors.Errorf("closing file: %w", err)
	}
	return nil
}

// findIndex scans entries in archive order and returns the first .csv whose
// header line names the file-name column.
func findIndex(ctx context.Context, files []*zip.File, skipped []string) (string, bool) {
	logger := zerolog.Ctx(ctx)
	for _, f := range files {
		if f.FileInfo().IsDir() || !strings.EqualFold(filepath.Ext(f.Name), ".csv") {
			continue
		}
		if slices.Contains(skipped, f.Name) {
			continue
		}
		line, err := readHeader(f)
		if err != nil {
			logger.Error().Err(err).Str("entry", f.Name).Msg("reading header")
			continue
		}
		if index.IsIndexHeader(line) {
			return f.Name, true
		}
	}
	return "", false
}

func readHeader(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", errors.Errorf("opening entry: %w", err)
	}
	defer rc.Close()
	return index.HeaderLine(rc)
}
