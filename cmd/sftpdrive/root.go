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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/sftpdrive/pkg/config"
	"github.com/walteh/sftpdrive/pkg/log"
	"github.com/walteh/sftpdrive/pkg/operation"
	"github.com/walteh/sftpdrive/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// DefaultConfigFile is read when --config is not given.
const DefaultConfigFile = "sftpdrive.yaml"

// 🔧 Handler holds the flags of one invocation
type Handler struct {
	configFile string
	debug      bool

	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
}

// newRootCmd builds the sftpdrive command
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	h := &Handler{stdout: stdout, stderr: stderr, now: time.Now}

	cmd := &cobra.Command{
		Use:   "sftpdrive",
		Short: "Move archives from an SFTP server into a Google shared drive",
		Long: `sftpdrive downloads matching zip archives from an SFTP directory, renames
the photos inside from each archive's index csv, uploads them to a Drive
folder and uploads one sorted master index of the run.`,
		Args:          cobra.NoArgs,
		Version:       FormatVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return h.Run(cmd.Context())
		},
	}
	cmd.SetVersionTemplate("{{.Version}}")
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.Flags().StringVarP(&h.configFile, "config", "c", DefaultConfigFile, "config file path")
	cmd.Flags().BoolVarP(&h.debug, "debug", "d", false, "enable debug logging")

	return cmd
}

// 🏃 Run loads the config, sets up logging and runs the batch followed by
// cleanup.
func (h *Handler) Run(ctx context.Context) error {
	bootstrap := h.bootstrapLogger()
	console := log.New(h.stdout, bootstrap)

	cfg, err := config.Load(bootstrap.WithContext(ctx), h.configFile)
	if err != nil {
		console.Errorf("loading config: %v", err)
		return errors.Errorf("loading config: %w", err)
	}

	logFile, err := openLogFile(cfg.Staging.LogDir, h.now())
	if err != nil {
		console.Error(err.Error())
		return err
	}
	defer logFile.Close()

	logger := h.runLogger(logFile)
	console = log.New(h.stdout, logger)
	ctx = logger.WithContext(ctx)
	ctx = log.NewContext(ctx, console)

	logger.Info().
		Str("config", cfg.Location()).
		Str("log_file", logFile.Name()).
		Str("version", GetVersionInfo().Version).
		Msg("starting run")

	mgr := status.New(&logger)
	opts := operation.Options{
		Config:    cfg,
		StatusMgr: mgr,
	}

	runErr := operation.NewRunner(&logger).Run(ctx,
		operation.NewRunOperation(opts),
		operation.NewCleanOperation(opts),
	)

	console.LogNewline()
	if err := mgr.PrintSummary(ctx, h.stdout); err != nil {
		logger.Warn().Err(err).Msg("printing summary")
	}

	if runErr != nil {
		console.Error(runErr.Error())
		return runErr
	}
	console.Success("process completed successfully")
	return nil
}

// bootstrapLogger is used until the log file is open.
func (h *Handler) bootstrapLogger() zerolog.Logger {
	if !h.debug {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: h.stderr}).
		Level(zerolog.DebugLevel).
		With().Timestamp().Logger()
}

// runLogger writes to the log file, and to stderr with --debug.
func (h *Handler) runLogger(logFile io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	var w io.Writer = logFile
	if h.debug {
		level = zerolog.DebugLevel
		w = zerolog.MultiLevelWriter(logFile, zerolog.ConsoleWriter{Out: h.stderr})
	}
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("run_id", uuid.NewString()).
		Logger()
}

// openLogFile creates log-YYYYMMDDTHHMMSS.log in dir.
func openLogFile(dir string, now time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Errorf("creating log dir: %w", err)
	}
	path := filepath.Join(dir, LogFileName(now))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// LogFileName returns "log-YYYYMMDDTHHMMSS.log".
func LogFileName(t time.Time) string {
	return fmt.Sprintf("log-%s.log", t.Format("20060102T150405"))
}
