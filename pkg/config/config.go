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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🔑 Environment variables that carry secrets
const (
	EnvSFTPPassword      = "SFTPDRIVE_SFTP_PASSWORD"
	EnvSFTPKeyPassphrase = "SFTPDRIVE_SFTP_KEY_PASSPHRASE"
)

// ⚙️ Defaults applied by Validate
const (
	DefaultPort         = 22
	DefaultPattern      = `datafile_\d{8}_\d{6}\.zip`
	DefaultMasterPrefix = "photos_uploaded"
	DefaultTransferKind = "sftp"
	DefaultUploadKind   = "drive"
)

// DefaultPreserve keeps run logs in the consolidation dir across cleanups.
var DefaultPreserve = []string{"log-*.log"}

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📡 TransferConfig describes where archives are retrieved from.
type TransferConfig struct {
	Kind          string `json:"kind,omitempty" yaml:"kind,omitempty"` // sftp or local
	Host          string `json:"host,omitempty" yaml:"host,omitempty"`
	Port          int    `json:"port,omitempty" yaml:"port,omitempty"`
	User          string `json:"user,omitempty" yaml:"user,omitempty"`
	Password      string `json:"password,omitempty" yaml:"password,omitempty"`
	KeyFile       string `json:"key_file,omitempty" yaml:"key_file,omitempty"`
	KeyPassphrase string `json:"key_passphrase,omitempty" yaml:"key_passphrase,omitempty"`
	KnownHosts    string `json:"known_hosts,omitempty" yaml:"known_hosts,omitempty"` // empty skips host key checks
	RemoteDir     string `json:"remote_dir" yaml:"remote_dir"`
	Pattern       string `json:"pattern,omitempty" yaml:"pattern,omitempty"` // full-match regexp
}

// Addr returns host:port.
func (t TransferConfig) Addr() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// ☁️ UploadConfig describes where files are uploaded to.
type UploadConfig struct {
	Kind            string   `json:"kind,omitempty" yaml:"kind,omitempty"` // drive or local
	FolderID        string   `json:"folder_id" yaml:"folder_id"`
	CredentialsFile string   `json:"credentials_file,omitempty" yaml:"credentials_file,omitempty"`
	Endpoint        string   `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	LocalDir        string   `json:"local_dir,omitempty" yaml:"local_dir,omitempty"`
	Exclude         []string `json:"exclude,omitempty" yaml:"exclude,omitempty"` // doublestar globs, relative to the extraction dir
}

// 📁 StagingConfig holds the local working directories.
type StagingConfig struct {
	DownloadDir     string `json:"download_dir" yaml:"download_dir"`
	ExtractDir      string `json:"extract_dir" yaml:"extract_dir"`
	ConsolidatedDir string `json:"consolidated_dir" yaml:"consolidated_dir"`
	LogDir          string `json:"log_dir,omitempty" yaml:"log_dir,omitempty"` // defaults to ConsolidatedDir
}

// 📚 MasterConfig names the consolidated index.
type MasterConfig struct {
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// 🧹 CleanupConfig controls the end-of-run cleanup.
type CleanupConfig struct {
	Disabled bool     `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Preserve []string `json:"preserve,omitempty" yaml:"preserve,omitempty"` // doublestar globs kept in ConsolidatedDir
}

// 📚 Config represents the complete configuration
type Config struct {
	Transfer TransferConfig `json:"transfer" yaml:"transfer"`
	Upload   UploadConfig   `json:"upload" yaml:"upload"`
	Staging  StagingConfig  `json:"staging" yaml:"staging"`
	Master   MasterConfig   `json:"master,omitempty" yaml:"master,omitempty"`
	Cleanup  CleanupConfig  `json:"cleanup,omitempty" yaml:"cleanup,omitempty"`

	location string
}

// Location returns the file the config was loaded from.
func (cfg *Config) Location() string {
	return cfg.location
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// secrets may live in a .env next to the config
	if err := loadDotEnv(ctx, filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	// Parse config
	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}
	cfg.location = path

	cfg.ApplyEnv()

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is fine.
func loadDotEnv(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return errors.Errorf("checking %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Errorf("loading %s: %w", path, err)
	}
	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("loaded environment file")
	return nil
}

// 🔑 ApplyEnv fills secrets from the environment when they are set.
func (cfg *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvSFTPPassword); ok && v != "" {
		cfg.Transfer.Password = v
	}
	if v, ok := os.LookupEnv(EnvSFTPKeyPassphrase); ok && v != "" {
		cfg.Transfer.KeyPassphrase = v
	}
}

// 🔍 Validate checks if the configuration is valid and applies defaults
func (cfg *Config) Validate() error {
	// Set defaults
	if cfg.Transfer.Kind == "" {
		cfg.Transfer.Kind = DefaultTransferKind
	}
	if cfg.Transfer.Port == 0 {
		cfg.Transfer.Port = DefaultPort
	}
	if cfg.Transfer.Pattern == "" {
		cfg.Transfer.Pattern = DefaultPattern
	}
	if cfg.Upload.Kind == "" {
		cfg.Upload.Kind = DefaultUploadKind
	}
	if cfg.Master.Prefix == "" {
		cfg.Master.Prefix = DefaultMasterPrefix
	}
	if cfg.Cleanup.Preserve == nil {
		cfg.Cleanup.Preserve = append([]string(nil), DefaultPreserve...)
	}
	if cfg.Staging.LogDir == "" {
		cfg.Staging.LogDir = cfg.Staging.ConsolidatedDir
	}

	// Check required fields
	switch cfg.Transfer.Kind {
	case "sftp":
		if cfg.Transfer.Host == "" {
			return errors.Errorf("transfer.host is required")
		}
		if cfg.Transfer.User == "" {
			return errors.Errorf("transfer.user is required")
		}
		if cfg.Transfer.Password == "" && cfg.Transfer.KeyFile == "" {
			return errors.Errorf("transfer.password or transfer.key_file is required")
		}
	case "local":
	default:
		return errors.Errorf("unknown transfer.kind %q", cfg.Transfer.Kind)
	}
	if cfg.Transfer.RemoteDir == "" {
		return errors.Errorf("transfer.remote_dir is required")
	}
	if cfg.Transfer.Port < 1 || cfg.Transfer.Port > 65535 {
		return errors.Errorf("transfer.port %d out of range", cfg.Transfer.Port)
	}
	if _, err := cfg.FilePattern(); err != nil {
		return err
	}

	switch cfg.Upload.Kind {
	case "drive":
	case "local":
		if cfg.Upload.LocalDir == "" {
			return errors.Errorf("upload.local_dir is required for local uploads")
		}
	default:
		return errors.Errorf("unknown upload.kind %q", cfg.Upload.Kind)
	}
	if cfg.Upload.FolderID == "" {
		return errors.Errorf("upload.folder_id is required")
	}
	for _, g := range cfg.Upload.Exclude {
		if !doublestar.ValidatePattern(g) {
			return errors.Errorf("upload.exclude: invalid glob %q", g)
		}
	}

	if cfg.Staging.DownloadDir == "" {
		return errors.Errorf("staging.download_dir is required")
	}
	if cfg.Staging.ExtractDir == "" {
		return errors.Errorf("staging.extract_dir is required")
	}
	if cfg.Staging.ConsolidatedDir == "" {
		return errors.Errorf("staging.consolidated_dir is required")
	}
	for _, g := range cfg.Cleanup.Preserve {
		if !doublestar.ValidatePattern(g) {
			return errors.Errorf("cleanup.preserve: invalid glob %q", g)
		}
	}

	// Clean up paths
	cfg.Staging.DownloadDir = filepath.Clean(cfg.Staging.DownloadDir)
	cfg.Staging.ExtractDir = filepath.Clean(cfg.Staging.ExtractDir)
	cfg.Staging.ConsolidatedDir = filepath.Clean(cfg.Staging.ConsolidatedDir)
	cfg.Staging.LogDir = filepath.Clean(cfg.Staging.LogDir)

	return nil
}

// FilePattern compiles the archive name pattern anchored for a full match.
func (cfg *Config) FilePattern() (*regexp.Regexp, error) {
	re, err := regexp.Compile(`^(?:` + cfg.Transfer.Pattern + `)$`)
	if err != nil {
		return nil, errors.Errorf("transfer.pattern: %w", err)
	}
	return re, nil
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	src := cfg.Transfer.RemoteDir
	if cfg.Transfer.Kind == "sftp" {
		src = fmt.Sprintf("sftp://%s@%s%s", cfg.Transfer.User, cfg.Transfer.Addr(), cfg.Transfer.RemoteDir)
	}
	return fmt.Sprintf("%s -> %s:%s", src, cfg.Upload.Kind, cfg.Upload.FolderID)
}
