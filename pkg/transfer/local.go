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
	"path/filepath"

	"github.com/walteh/sftpdrive/pkg/config"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register("local", func(ctx context.Context, cfg config.TransferConfig) (Client, error) {
		return NewLocalClient(), nil
	})
}

// 📁 LocalClient treats a directory on disk as the archive source
type LocalClient struct{}

var _ Client = (*LocalClient)(nil)

// NewLocalClient returns a client for the local filesystem.
func NewLocalClient() *LocalClient {
	return &LocalClient{}
}

func (c *LocalClient) List(ctx context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.FromSlash(dir))
	if err != nil {
		return nil, errors.Errorf("reading dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (c *LocalClient) Fetch(ctx context.Context, remotePath, localPath string) error {
	src, err := os.Open(filepath.FromSlash(remotePath))
	if err != nil {
		return errors.Errorf("opening source file: %w", err)
	}
	defer src.Close()

	return writeLocal(src, localPath)
}

func (c *LocalClient) Delete(ctx context.Context, remotePath string) error {
	if err := os.Remove(filepath.FromSlash(remotePath)); err != nil {
		return errors.Errorf("removing source file: %w", err)
	}
	return nil
}

func (c *LocalClient) Close() error {
	return nil
}
