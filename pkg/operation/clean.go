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

package operation

import (
	"context"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/sftpdrive/pkg/log"
	"github.com/walteh/sftpdrive/pkg/status"
)

// 🧹 NewCleanOperation creates a new clean operation
func NewCleanOperation(opts Options) Operation {
	return &cleanOperation{
		BaseOperation: NewBaseOperation(opts),
	}
}

// 🧹 cleanOperation removes the staging directories and empties the
// consolidation dir, keeping preserved names
type cleanOperation struct {
	BaseOperation
}

func (op *cleanOperation) Name() string {
	return "clean"
}

// 🏃 Execute runs the clean operation. Failures are logged and never
// returned.
func (op *cleanOperation) Execute(ctx context.Context) error {
	if err := op.validate(); err != nil {
		return err
	}
	logger := zerolog.Ctx(ctx)
	cfg := op.Config

	if cfg.Cleanup.Disabled {
		logger.Info().Msg("cleanup disabled")
		return nil
	}

	logger.Info().Msg("starting cleanup of local files and folders")
	op.removeDir(ctx, cfg.Staging.DownloadDir)
	op.removeDir(ctx, cfg.Staging.ExtractDir)
	op.emptyDir(ctx, cfg.Staging.ConsolidatedDir)
	logger.Info().Msg("cleanup completed")
	return nil
}

// 🗑️ removeDir deletes dir and everything below it
func (op *cleanOperation) removeDir(ctx context.Context, dir string) {
	if _, err := os.Lstat(dir); os.IsNotExist(err) {
		return
	}
	op.remove(ctx, dir)
}

// emptyDir removes every entry of dir whose name matches no preserve glob.
func (op *cleanOperation) emptyDir(ctx context.Context, dir string) {
	logger := zerolog.Ctx(ctx)

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		logger.Error().Err(err).Str("dir", dir).Msg("listing directory for cleanup")
		return
	}

	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if op.preserved(e.Name()) {
			op.StatusMgr.TrackFile(ctx, path, status.FileInfo{Outcome: status.OutcomePreserved})
			log.FromContext(ctx).LogFileOperation(ctx, log.FileOperation{Path: e.Name(), Kind: log.KindPreserve, Status: "kept"})
			continue
		}
		op.remove(ctx, path)
	}
}

func (op *cleanOperation) preserved(name string) bool {
	for _, pattern := range op.Config.Cleanup.Preserve {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func (op *cleanOperation) remove(ctx context.Context, path string) {
	console := log.FromContext(ctx)

	if err := os.RemoveAll(path); err != nil {
		op.StatusMgr.TrackFile(ctx, path, status.FileInfo{Outcome: status.OutcomeDeleted, Error: err})
		console.LogFileOperation(ctx, log.FileOperation{Path: path, Kind: log.KindDelete, Status: "FAILED", Detail: err.Error(), Failed: true})
		return
	}

	op.StatusMgr.TrackFile(ctx, path, status.FileInfo{Outcome: status.OutcomeDeleted})
	console.LogFileOperation(ctx, log.FileOperation{Path: path, Kind: log.KindDelete, Status: "deleted"})
}
