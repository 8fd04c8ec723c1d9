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

package upload

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/walteh/sftpdrive/pkg/config"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register("local", func(ctx context.Context, cfg config.UploadConfig) (Uploader, error) {
		return NewLocalUploader(cfg.LocalDir), nil
	})
}

// 📁 LocalUploader copies files into <dir>/<folderID>/, for dry runs
type LocalUploader struct {
	dir string
}

var _ Uploader = (*LocalUploader)(nil)

func NewLocalUploader(dir string) *LocalUploader {
	return &LocalUploader{dir: dir}
}

// Upload copies localPath into the folder directory, replacing a file of the
// same name, and returns a fresh id.
func (u *LocalUploader) Upload(ctx context.Context, localPath, folderID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.WithStack(err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", errors.Errorf("opening %s: %w", localPath, err)
	}
	defer src.Close()

	folder := filepath.Join(u.dir, folderID)
	if err := os.MkdirAll(folder, 0755); err != nil {
		return "", errors.Errorf("creating folder: %w", err)
	}

	target := filepath.Join(folder, filepath.Base(localPath))
	dst, err := os.Create(target)
	if err != nil {
		return "", errors.Errorf("creating %s: %w", target, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", errors.Errorf("copying %s: %w", localPath, err)
	}
	if err := dst.Close(); err != nil {
		return "", errors.Errorf("closing %s: %w", target, err)
	}

	return uuid.NewString(), nil
}
