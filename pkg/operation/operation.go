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
	"time"

	"github.com/walteh/sftpdrive/pkg/config"
	"github.com/walteh/sftpdrive/pkg/status"
	"github.com/walteh/sftpdrive/pkg/transfer"
	"github.com/walteh/sftpdrive/pkg/upload"
	"gitlab.com/tozd/go/errors"
)

// ErrNoArchives is returned when retrieval produced nothing to process.
var ErrNoArchives = errors.Base("no archives retrieved")

// 🎯 Operation is one step of a run
type Operation interface {
	// Name identifies the operation in logs
	Name() string
	// Execute runs the operation to completion
	Execute(ctx context.Context) error
}

// 🔧 Options contains the collaborators shared by operations
type Options struct {
	// Config is the validated run configuration
	Config *config.Config
	// Transfer is the archive source; built from Config.Transfer when nil
	Transfer transfer.Client
	// Uploader is the destination; built from Config.Upload when nil
	Uploader upload.Uploader
	// StatusMgr records every file outcome
	StatusMgr status.StatusReporter
	// Now stamps the master index name
	Now func() time.Time
}

// 🧱 BaseOperation carries the options with defaults applied
type BaseOperation struct {
	Options
}

// 🏭 NewBaseOperation fills in defaults for unset options
func NewBaseOperation(opts Options) BaseOperation {
	if opts.StatusMgr == nil {
		opts.StatusMgr = status.New(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return BaseOperation{Options: opts}
}

func (op *BaseOperation) validate() error {
	if op.Config == nil {
		return errors.Errorf("config is required")
	}
	return nil
}
