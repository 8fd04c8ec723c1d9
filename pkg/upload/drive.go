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
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/sftpdrive/pkg/config"
	"gitlab.com/tozd/go/errors"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

func init() {
	Register("drive", func(ctx context.Context, cfg config.UploadConfig) (Uploader, error) {
		return NewDriveUploader(ctx, driveOptions(cfg)...)
	})
}

// 🚀 DriveUploader uploads into Google Drive folders, shared drives included
type DriveUploader struct {
	service *drive.Service
}

var _ Uploader = (*DriveUploader)(nil)

func driveOptions(cfg config.UploadConfig) []option.ClientOption {
	opts := []option.ClientOption{option.WithScopes(drive.DriveScope)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	return opts
}

// NewDriveUploader builds the Drive client. Without explicit credentials the
// application default credentials are used.
func NewDriveUploader(ctx context.Context, opts ...option.ClientOption) (*DriveUploader, error) {
	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Errorf("creating drive service: %w", err)
	}
	return &DriveUploader{service: service}, nil
}

// 📤 Upload creates a new file in folderID with the content of localPath
func (d *DriveUploader) Upload(ctx context.Context, localPath, folderID string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", errors.Errorf("opening %s: %w", localPath, err)
	}
	defer f.Close()

	name := filepath.Base(localPath)
	meta := &drive.File{
		Name:    name,
		Parents: []string{folderID},
	}

	created, err := d.service.Files.Create(meta).
		Media(f, googleapi.ContentType(MimeType(localPath))).
		SupportsAllDrives(true).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", errors.Errorf("uploading %s: %w", name, err)
	}

	zerolog.Ctx(ctx).Debug().Str("file", name).Str("remote_id", created.Id).Msg("drive file created")
	return created.Id, nil
}
