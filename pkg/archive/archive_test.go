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

package archive

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	name    string
	content string
}

// 🧪 writeZip builds a zip archive in dir from the given entries
func writeZip(t *testing.T, dir, name string, entries []entry) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for _, e := range entries {
		fw, err := w.Create(e.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(e.content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return path
}

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name      string
		entries   []entry
		wantFiles []string
		wantIndex string
		wantFound bool
		wantSkip  []string
	}{
		{
			name: "archive_with_index",
			entries: []entry{
				{name: "photo1.jpg", content: "jpeg"},
				{name: "index.csv", content: "File name,Preferred,Last,IC ID Number\nphoto1.jpg,Ann,Smith,12345\n"},
			},
			wantFiles: []string{"photo1.jpg", "index.csv"},
			wantIndex: "index.csv",
			wantFound: true,
		},
		{
			name: "first_matching_csv_wins",
			entries: []entry{
				{name: "notes.csv", content: "a,b\n1,2\n"},
				{name: "first.csv", content: "Last,File name\n"},
				{name: "second.csv", content: "File name,Preferred\n"},
			},
			wantFiles: []string{"notes.csv", "first.csv", "second.csv"},
			wantIndex: "first.csv",
			wantFound: true,
		},
		{
			name: "archive_without_index",
			entries: []entry{
				{name: "photo1.jpg", content: "jpeg"},
				{name: "other.csv", content: "x,y\n"},
			},
			wantFiles: []string{"photo1.jpg", "other.csv"},
			wantFound: false,
		},
		{
			name: "nested_entries",
			entries: []entry{
				{name: "batch/", content: ""},
				{name: "batch/photo1.jpg", content: "jpeg"},
				{name: "batch/index.csv", content: "File name,Preferred,Last\n"},
			},
			wantFiles: []string{filepath.Join("batch", "photo1.jpg"), filepath.Join("batch", "index.csv")},
			wantIndex: filepath.Join("batch", "index.csv"),
			wantFound: true,
		},
		{
			name: "unsafe_entry_is_skipped",
			entries: []entry{
				{name: "../escape.csv", content: "File name,Preferred,Last\n"},
				{name: "photo1.jpg", content: "jpeg"},
			},
			wantFiles: []string{"photo1.jpg"},
			wantFound: false,
			wantSkip:  []string{"../escape.csv"},
		},
		{
			name:      "empty_archive",
			entries:   nil,
			wantFiles: nil,
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			tmp := t.TempDir()
			archivePath := writeZip(t, tmp, "delivery.zip", tt.entries)
			dest := filepath.Join(tmp, "out", "delivery")

			result, err := Extract(ctx, archivePath, dest)
			require.NoError(t, err)

			assert.Equal(t, dest, result.Dir)
			assert.Equal(t, tt.wantFiles, result.Files)
			assert.Equal(t, tt.wantFound, result.Found)
			assert.Equal(t, tt.wantSkip, result.Skipped)
			if tt.wantFound {
				assert.Equal(t, filepath.Join(dest, tt.wantIndex), result.IndexPath)
			} else {
				assert.Empty(t, result.IndexPath)
			}

			for _, f := range tt.wantFiles {
				assert.FileExists(t, filepath.Join(dest, f))
			}
			assert.NoFileExists(t, filepath.Join(tmp, "out", "escape.csv"))
		})
	}
}

func TestExtractPreservesContent(t *testing.T) {
	ctx := testContext(t)
	tmp := t.TempDir()
	archivePath := writeZip(t, tmp, "a.zip", []entry{{name: "photo1.jpg", content: "binary-ish \x00\x01 data"}})

	_, err := Extract(ctx, archivePath, filepath.Join(tmp, "a"))
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(tmp, "a", "photo1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "binary-ish \x00\x01 data", string(got))
}

func TestExtractErrors(t *testing.T) {
	ctx := testContext(t)
	tmp := t.TempDir()

	t.Run("missing_archive", func(t *testing.T) {
		_, err := Extract(ctx, filepath.Join(tmp, "missing.zip"), filepath.Join(tmp, "missing"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "opening archive")
	})

	t.Run("corrupt_archive", func(t *testing.T) {
		path := filepath.Join(tmp, "corrupt.zip")
		require.NoError(t, os.WriteFile(path, []byte("this is not a zip file"), 0644))

		_, err := Extract(ctx, path, filepath.Join(tmp, "corrupt"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "opening archive")
	})

	t.Run("cancelled_context", func(t *testing.T) {
		path := writeZip(t, tmp, "c.zip", []entry{{name: "a.txt", content: "a"}})
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := Extract(cctx, path, filepath.Join(tmp, "c"))
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
