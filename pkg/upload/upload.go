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

// Package upload sends files to the destination folder.
package upload

import (
	"context"
	"mime"
	"path/filepath"
	"sort"
	"strings"

	"github.com/walteh/sftpdrive/pkg/config"
	"gitlab.com/tozd/go/errors"
)

// DefaultMimeType is used when the extension is unknown.
const DefaultMimeType = "application/octet-stream"

// fallbackTypes covers extensions missing from the mime tables of minimal
// systems.
var fallbackTypes = map[string]string{
	".csv":  "text/csv",
	".heic": "image/heic",
	".mov":  "video/quicktime",
	".mp4":  "video/mp4",
	".txt":  "text/plain",
}

// ☁️ Uploader is the interface for upload destinations
type Uploader interface {
	// 📤 Upload stores localPath in folderID under its base name and returns
	// the id the destination assigned
	Upload(ctx context.Context, localPath, folderID string) (string, error)
}

// 🏭 Factory creates a new uploader
type Factory func(ctx context.Context, cfg config.UploadConfig) (Uploader, error)

var (
	// 🗺️ factories is a map of upload kinds to factories
	factories = make(map[string]Factory)
)

// 📝 Register registers an uploader factory
func Register(kind string, factory Factory) {
	factories[kind] = factory
}

// 🎯 New builds an uploader of the configured kind
func New(ctx context.Context, cfg config.UploadConfig) (Uploader, error) {
	factory, ok := factories[cfg.Kind]
	if !ok {
		return nil, errors.Errorf("upload kind %q not found, options: %s", cfg.Kind, strings.Join(Kinds(), ", "))
	}
	return factory(ctx, cfg)
}

// Kinds returns the registered kinds, sorted.
func Kinds() []string {
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// 🏷️ MimeType guesses the media type from the file extension, without
// parameters.
func MimeType(path string) string {
	ext := filepath.Ext(path)
	typ := mime.TypeByExtension(ext)
	if typ == "" {
		typ = fallbackTypes[strings.ToLower(ext)]
	}
	if typ == "" {
		return DefaultMimeType
	}
	mediaType, _, err := mime.ParseMediaType(typ)
	if err != nil {
		return DefaultMimeType
	}
	return mediaType
}
