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

package transfer

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/sftpdrive/pkg/config"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Client is the interface for remote archive sources
type Client interface {
	// 📂 List returns the names of the regular files in dir
	List(ctx context.Context, dir string) ([]string, error)

	// 📥 Fetch copies remotePath to localPath
	Fetch(ctx context.Context, remotePath, localPath string) error

	// 🗑️ Delete removes remotePath from the source
	Delete(ctx context.Context, remotePath string) error

	// Close releases the connection
	Close() error
}

// 🏭 Factory creates a new client
type Factory func(ctx context.Context, cfg config.TransferConfig) (Client, error)

var (
	// 🗺️ factories is a map of transfer kinds to factories
	factories = make(map[string]Factory)
)

// 📝 Register registers a client factory
func Register(kind string, factory Factory) {
	factories[kind] = factory
}

// 🎯 New connects a client of the configured kind
func New(ctx context.Context, cfg config.TransferConfig) (Client, error) {
	factory, ok := factories[cfg.Kind]
	if !ok {
		return nil, errors.Errorf("transfer kind %q not found, options: %s", cfg.Kind, strings.Join(Kinds(), ", "))
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

// JoinRemote joins remote path elements with forward slashes on every OS.
func JoinRemote(dir, name string) string {
	return path.Join(dir, name)
}

// 🚚 Retrieve downloads every file in remoteDir whose name fully matches
// pattern into localDir, deleting each from the source once it has been
// fetched. Fetch failures are logged and the file is left on the source; a
// failed delete is logged and the fetched copy is kept. A listing failure is
// returned.
func Retrieve(ctx context.Context, client Client, remoteDir string, pattern *regexp.Regexp, localDir string) ([]string, error) {
	logger := zerolog.Ctx(ctx)

	if err := os.MkdirAll(localDir, 0755); err != nil {
		return nil, errors.Errorf("creating download dir: %w", err)
	}

	names, err := client.List(ctx, remoteDir)
	if err != nil {
		return nil, errors.Errorf("listing %s: %w", remoteDir, err)
	}
	sort.Strings(names)

	anchored := anchor(pattern)
	var retrieved []string
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return retrieved, errors.Errorf("retrieval cancelled: %w", err)
		}
		if !anchored.MatchString(name) {
			logger.Debug().Str("file", name).Msg("ignoring remote file")
			continue
		}

		remotePath := JoinRemote(remoteDir, name)
		localPath := filepath.Join(localDir, name)

		if err := client.Fetch(ctx, remotePath, localPath); err != nil {
			logger.Error().Err(err).Str("file", remotePath).Msg("downloading file")
			continue
		}
		logger.Info().Str("file", remotePath).Str("local", localPath).Msg("downloaded file")
		retrieved = append(retrieved, localPath)

		if err := client.Delete(ctx, remotePath); err != nil {
			logger.Error().Err(err).Str("file", remotePath).Msg("deleting remote file")
			continue
		}
		logger.Info().Str("file", remotePath).Msg("deleted remote file")
	}

	logger.Info().Int("listed", len(names)).Int("retrieved", len(retrieved)).Msg("retrieval finished")
	return retrieved, nil
}

// anchor wraps pattern so it only matches whole names.
func anchor(pattern *regexp.Regexp) *regexp.Regexp {
	return regexp.MustCompile(`^(?:` + pattern.String() + `)$`)
}
