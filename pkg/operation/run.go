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
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/sftpdrive/pkg/aggregate"
	"github.com/walteh/sftpdrive/pkg/archive"
	"github.com/walteh/sftpdrive/pkg/index"
	"github.com/walteh/sftpdrive/pkg/log"
	"github.com/walteh/sftpdrive/pkg/rename"
	"github.com/walteh/sftpdrive/pkg/status"
	"github.com/walteh/sftpdrive/pkg/transfer"
	"github.com/walteh/sftpdrive/pkg/upload"
	"gitlab.com/tozd/go/errors"
)

// 🚀 NewRunOperation creates the batch operation: retrieve, extract, rename,
// upload, then consolidate the index files into one master index.
func NewRunOperation(opts Options) Operation {
	return &runOperation{
		BaseOperation: NewBaseOperation(opts),
	}
}

// 🚀 runOperation implements the batch run
type runOperation struct {
	BaseOperation

	// master is the path of the last written master index
	master string
}

func (op *runOperation) Name() string {
	return "run"
}

// 🏃 Execute runs the batch. Only setup failures and an empty retrieval are
// returned; everything else is logged, tracked and skipped.
func (op *runOperation) Execute(ctx context.Context) error {
	if err := op.validate(); err != nil {
		return err
	}
	cfg := op.Config
	console := log.FromContext(ctx)

	console.Header(cfg.String())

	pattern, err := cfg.FilePattern()
	if err != nil {
		return errors.Errorf("compiling file pattern: %w", err)
	}

	// Must precede retrieval, which deletes remote archives.
	uploader, err := op.uploader(ctx)
	if err != nil {
		return err
	}

	archives := op.retrieve(ctx, pattern)
	if len(archives) == 0 {
		console.Error("no files were downloaded from the transfer source")
		return errors.WithStack(ErrNoArchives)
	}

	for _, dir := range []string{cfg.Staging.ExtractDir, cfg.Staging.ConsolidatedDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Errorf("creating working dir %s: %w", dir, err)
		}
	}

	op.StatusMgr.StartOperation(ctx, len(archives))
	var indexes []string
	for i, path := range archives {
		if err := ctx.Err(); err != nil {
			return errors.Errorf("run cancelled: %w", err)
		}
		if idx := op.processArchive(ctx, uploader, path); idx != "" {
			indexes = append(indexes, idx)
		}
		op.StatusMgr.UpdateProgress(ctx, i+1)
	}
	op.StatusMgr.FinishOperation(ctx)

	op.consolidate(ctx, uploader, indexes)

	console.Successf("processed %d archives", len(archives))
	return nil
}

func (op *runOperation) uploader(ctx context.Context) (upload.Uploader, error) {
	if op.Uploader != nil {
		return op.Uploader, nil
	}
	up, err := upload.New(ctx, op.Config.Upload)
	if err != nil {
		return nil, errors.Errorf("creating uploader: %w", err)
	}
	return up, nil
}

// 📥 retrieve downloads the matching archives. Connection and listing
// failures are logged and yield no archives.
func (op *runOperation) retrieve(ctx context.Context, pattern *regexp.Regexp) []string {
	logger := zerolog.Ctx(ctx)
	console := log.FromContext(ctx)
	cfg := op.Config

	client := op.Transfer
	if client == nil {
		c, err := transfer.New(ctx, cfg.Transfer)
		if err != nil {
			console.Errorf("connecting to %s: %v", cfg.Transfer.Kind, err)
			return nil
		}
		defer func() {
			if err := c.Close(); err != nil {
				logger.Warn().Err(err).Msg("closing transfer client")
			}
		}()
		client = c
	}

	archives, err := transfer.Retrieve(ctx, client, cfg.Transfer.RemoteDir, pattern, cfg.Staging.DownloadDir)
	if err != nil {
		console.Errorf("retrieving archives from %s: %v", cfg.Transfer.RemoteDir, err)
	}

	for _, path := range archives {
		name := filepath.Base(path)
		op.StatusMgr.TrackFile(ctx, name, status.FileInfo{Outcome: status.OutcomeDownloaded})
		console.LogFileOperation(ctx, log.FileOperation{Path: name, Kind: log.KindDownload, Status: "DOWNLOADED"})
	}
	return archives
}

// 📦 processArchive extracts one archive into its own directory, renames its
// payload and uploads it. It returns the index path, or "" when none was
// found.
func (op *runOperation) processArchive(ctx context.Context, uploader upload.Uploader, archivePath string) string {
	name := filepath.Base(archivePath)
	dir := filepath.Join(op.Config.Staging.ExtractDir, strings.TrimSuffix(name, filepath.Ext(name)))

	logger := zerolog.Ctx(ctx).With().Str("archive", name).Logger()
	ctx = logger.WithContext(ctx)
	console := log.FromContext(ctx)

	console.StartArchive(ctx, log.ArchiveOperation{Name: name, Dir: dir})
	defer console.EndArchive(ctx)

	indexPath := ""
	result, err := archive.Extract(ctx, archivePath, dir)
	if err != nil {
		op.fail(ctx, name, name, log.KindExtract, err)
	} else {
		for _, f := range result.Files {
			op.StatusMgr.TrackFile(ctx, f, status.FileInfo{Archive: name, Outcome: status.OutcomeExtracted})
		}
		for _, f := range result.Skipped {
			op.fail(ctx, name, f, log.KindExtract, errors.Errorf("entry %s was not extracted", f))
		}
		if result.Found {
			indexPath = result.IndexPath
		}
	}

	if indexPath != "" {
		op.rename(ctx, name, dir, indexPath)
	} else {
		console.Warningf("no index csv found in %s", name)
	}

	op.uploadDir(ctx, uploader, name, dir)
	return indexPath
}

// ⟳ rename applies the index rows to the payload files of dir.
func (op *runOperation) rename(ctx context.Context, archiveName, dir, indexPath string) {
	console := log.FromContext(ctx)

	renamer, err := rename.New(dir)
	if err != nil {
		op.fail(ctx, archiveName, filepath.Base(indexPath), log.KindRename, err)
		return
	}

	summary, err := renamer.Apply(ctx, indexPath)
	if err != nil {
		op.fail(ctx, archiveName, filepath.Base(indexPath), log.KindRename, err)
	}
	if summary == nil {
		return
	}

	for _, r := range summary.Renames {
		op.StatusMgr.TrackFile(ctx, r.From, status.FileInfo{Archive: archiveName, Outcome: status.OutcomeRenamed, Detail: r.To})
		console.LogFileOperation(ctx, log.FileOperation{Path: r.From, Kind: log.KindRename, Status: "RENAMED", Detail: r.To})
	}
	if summary.Skipped+summary.Missing+summary.Failed > 0 {
		console.Warningf("%s: %d rows skipped, %d files missing, %d renames failed",
			archiveName, summary.Skipped, summary.Missing, summary.Failed)
	}
}

// ☁️ uploadDir uploads every regular file directly in dir, except index
// files and names matching the exclude globs.
func (op *runOperation) uploadDir(ctx context.Context, uploader upload.Uploader, archiveName, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("dir", dir).Msg("listing extracted files")
		return
	}
	console := log.FromContext(ctx)

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return
		}
		if !e.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, e.Name())

		if reason := op.skipReason(ctx, path); reason != "" {
			op.StatusMgr.TrackFile(ctx, e.Name(), status.FileInfo{Archive: archiveName, Outcome: status.OutcomeSkipped, Detail: reason})
			console.LogFileOperation(ctx, log.FileOperation{Path: e.Name(), Kind: log.KindSkip, Status: reason})
			continue
		}

		op.upload(ctx, uploader, archiveName, path)
	}
}

// skipReason returns why path must not be uploaded, or "".
func (op *runOperation) skipReason(ctx context.Context, path string) string {
	name := filepath.Base(path)
	for _, pattern := range op.Config.Upload.Exclude {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return "excluded"
		}
	}

	isIndex, err := index.IsIndexFile(path)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("file", name).Msg("reading csv header; uploading anyway")
		return ""
	}
	if isIndex {
		return "index file"
	}
	return ""
}

// upload sends one file to the destination folder.
func (op *runOperation) upload(ctx context.Context, uploader upload.Uploader, archiveName, path string) {
	name := filepath.Base(path)

	id, err := uploader.Upload(ctx, path, op.Config.Upload.FolderID)
	if err != nil {
		op.fail(ctx, archiveName, name, log.KindUpload, err)
		return
	}

	op.StatusMgr.TrackFile(ctx, name, status.FileInfo{Archive: archiveName, Outcome: status.OutcomeUploaded, Detail: id})
	log.FromContext(ctx).LogFileOperation(ctx, log.FileOperation{Path: name, Kind: log.KindUpload, Status: "UPLOADED", Detail: id})
}

// 📚 consolidate aggregates every index file into the master index, writes
// it to the consolidation dir and uploads it.
func (op *runOperation) consolidate(ctx context.Context, uploader upload.Uploader, indexes []string) {
	logger := zerolog.Ctx(ctx)
	cfg := op.Config

	master, err := aggregate.Aggregate(ctx, indexes)
	if err != nil {
		log.FromContext(ctx).Errorf("aggregating index files: %v", err)
		return
	}

	path := filepath.Join(cfg.Staging.ConsolidatedDir, aggregate.MasterFileName(cfg.Master.Prefix, op.Now()))
	if err := master.WriteFile(path); err != nil {
		op.fail(ctx, "", filepath.Base(path), log.KindUpload, err)
		return
	}
	op.master = path
	logger.Info().
		Str("file", path).
		Int("sources", len(master.Sources)).
		Int("rows", len(master.Rows)).
		Bool("sorted", master.Sorted).
		Msg("wrote master index")

	op.upload(ctx, uploader, "", path)
}

// fail records a failed step for file.
func (op *runOperation) fail(ctx context.Context, archiveName, file, kind string, err error) {
	op.StatusMgr.TrackFile(ctx, file, status.FileInfo{Archive: archiveName, Error: err})
	log.FromContext(ctx).LogFileOperation(ctx, log.FileOperation{Path: file, Kind: kind, Status: "FAILED", Detail: err.Error(), Failed: true})
}
