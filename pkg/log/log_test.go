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

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		op       func(t *testing.T, logger *Logger)
		wantLogs []string
	}{
		{
			name: "log_archive_operation",
			op: func(t *testing.T, logger *Logger) {
				logger.StartArchive(context.Background(), ArchiveOperation{
					Name: "datafile_20240101_120000.zip",
					Dir:  "/tmp/extract/datafile_20240101_120000",
				})
			},
			wantLogs: []string{
				"[processing datafile_20240101_120000.zip]",
				"◆ datafile_20240101_120000.zip • /tmp/extract/datafile_20240101_120000",
			},
		},
		{
			name: "log_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("info message")
				logger.Warning("warning message")
				logger.Error("error message")
				logger.Success("success message")
			},
			wantLogs: []string{
				"ℹ️  info message",
				"⚠️  warning message",
				"❌ error message",
				"✅ success message",
			},
		},
		{
			name: "log_formatted_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Infof("retrieved %d archives", 2)
				logger.Warningf("no index in %s", "a.zip")
				logger.Errorf("upload failed: %s", "quota")
				logger.Successf("uploaded %d files", 5)
			},
			wantLogs: []string{
				"ℹ️  retrieved 2 archives",
				"⚠️  no index in a.zip",
				"❌ upload failed: quota",
				"✅ uploaded 5 files",
			},
		},
		{
			name: "log_header",
			op: func(t *testing.T, logger *Logger) {
				logger.Header("moving archives to drive")
			},
			wantLogs: []string{
				"sftpdrive • moving archives to drive",
			},
		},
		{
			name: "log_newline",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("first")
				logger.LogNewline()
				logger.Info("second")
			},
			wantLogs: []string{
				"ℹ️  first",
				"",
				"ℹ️  second",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create buffer for console output
			buf := &bytes.Buffer{}
			logger := New(buf, zerolog.Nop())

			// Perform operation
			tt.op(t, logger)

			// Check output
			output := strings.TrimSpace(buf.String())
			lines := strings.Split(output, "\n")

			require.Equal(t, len(tt.wantLogs), len(lines), "number of log lines should match")
			for i, want := range tt.wantLogs {
				assert.Equal(t, want, strings.TrimSpace(lines[i]), "log line %d should match", i)
			}
		})
	}
}

func TestLoggerContext(t *testing.T) {
	// Create logger
	logger := New(io.Discard, zerolog.Nop())

	// Add to context
	ctx := context.Background()
	ctx = NewContext(ctx, logger)

	// Get from context
	got := FromContext(ctx)
	assert.Same(t, logger, got, "logger from context should be the same instance")

	// Missing logger falls back to the context zerolog logger
	var structured bytes.Buffer
	zlog := zerolog.New(&structured)
	fallback := FromContext(zlog.WithContext(context.Background()))
	require.NotNil(t, fallback)
	fallback.Warning("no console")
	assert.Contains(t, structured.String(), `"message":"no console"`)
	assert.Contains(t, structured.String(), `"level":"warn"`)

	assert.NotNil(t, FromContext(context.Background()), "a bare context still yields a logger")
}

func TestFileOperationFormatting(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name string
		op   FileOperation
		want string
	}{
		{
			name: "uploaded_file",
			op:   FileOperation{Path: "Smith, Ann - 1.jpg", Kind: KindUpload, Status: "UPLOADED", Detail: "id-1"},
			want: "✓ Smith, Ann - 1.jpg                  upload     UPLOADED        id-1",
		},
		{
			name: "renamed_file",
			op:   FileOperation{Path: "photo1.jpg", Kind: KindRename, Status: "RENAMED", Detail: "Smith, Ann - 1.jpg"},
			want: "⟳ photo1.jpg                          rename     RENAMED         Smith, Ann - 1.jpg",
		},
		{
			name: "failed_upload",
			op:   FileOperation{Path: "photo2.jpg", Kind: KindUpload, Status: "FAILED", Failed: true},
			want: "✗ photo2.jpg                          upload     FAILED",
		},
		{
			name: "skipped_index",
			op:   FileOperation{Path: "index.csv", Kind: KindSkip, Status: "index file"},
			want: "- index.csv                           skip       index file",
		},
		{
			name: "preserved_log",
			op:   FileOperation{Path: "log-20240101T120000.log", Kind: KindPreserve, Status: "kept"},
			want: "• log-20240101T120000.log             preserve   kept",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create buffer for console output
			buf := &bytes.Buffer{}
			logger := New(buf, zerolog.Nop())

			// Log operation
			logger.LogFileOperation(context.Background(), tt.op)

			// Check output
			output := strings.TrimSpace(buf.String())
			assert.Equal(t, tt.want, output, "formatted output should match")
		})
	}
}

func TestMirrorsIntoZerolog(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var structured bytes.Buffer
	logger := New(io.Discard, zerolog.New(&structured))
	ctx := context.Background()

	logger.StartArchive(ctx, ArchiveOperation{Name: "a.zip", Dir: "/x/a"})
	logger.LogFileOperation(ctx, FileOperation{Path: "p.jpg", Kind: KindUpload, Status: "UPLOADED"})
	logger.LogFileOperation(ctx, FileOperation{Path: "q.jpg", Kind: KindUpload, Status: "FAILED", Failed: true})
	logger.EndArchive(ctx)
	logger.EndArchive(ctx) // no-op without an open archive

	var events []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(structured.String()), "\n") {
		var ev map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		events = append(events, ev)
	}

	// file operations stay on the console; only archive boundaries are mirrored
	require.Len(t, events, 2)
	assert.Equal(t, "starting archive", events[0]["message"])
	assert.Equal(t, "archive complete", events[1]["message"])
	assert.EqualValues(t, 2, events[1]["files"])
	assert.EqualValues(t, 1, events[1]["failed"])
}
