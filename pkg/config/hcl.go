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
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".hcl")
}

// 📝 Parse parses the config from HCL. Expressions may read environment
// variables as env.NAME.
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": envObject(),
		},
	}

	// Define HCL schema
	type hclConfig struct {
		Transfer struct {
			Kind          string `hcl:"kind,optional"`
			Host          string `hcl:"host,optional"`
			Port          int    `hcl:"port,optional"`
			User          string `hcl:"user,optional"`
			Password      string `hcl:"password,optional"`
			KeyFile       string `hcl:"key_file,optional"`
			KeyPassphrase string `hcl:"key_passphrase,optional"`
			KnownHosts    string `hcl:"known_hosts,optional"`
			RemoteDir     string `hcl:"remote_dir"`
			Pattern       string `hcl:"pattern,optional"`
		} `hcl:"transfer,block"`
		Upload struct {
			Kind            string   `hcl:"kind,optional"`
			FolderID        string   `hcl:"folder_id"`
			CredentialsFile string   `hcl:"credentials_file,optional"`
			Endpoint        string   `hcl:"endpoint,optional"`
			LocalDir        string   `hcl:"local_dir,optional"`
			Exclude         []string `hcl:"exclude,optional"`
		} `hcl:"upload,block"`
		Staging struct {
			DownloadDir     string `hcl:"download_dir"`
			ExtractDir      string `hcl:"extract_dir"`
			ConsolidatedDir string `hcl:"consolidated_dir"`
			LogDir          string `hcl:"log_dir,optional"`
		} `hcl:"staging,block"`
		Master *struct {
			Prefix string `hcl:"prefix,optional"`
		} `hcl:"master,block"`
		Cleanup *struct {
			Disabled bool     `hcl:"disabled,optional"`
			Preserve []string `hcl:"preserve,optional"`
		} `hcl:"cleanup,block"`
	}

	// Decode HCL
	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	cfg := &Config{
		Transfer: TransferConfig{
			Kind:          hclCfg.Transfer.Kind,
			Host:          hclCfg.Transfer.Host,
			Port:          hclCfg.Transfer.Port,
			User:          hclCfg.Transfer.User,
			Password:      hclCfg.Transfer.Password,
			KeyFile:       hclCfg.Transfer.KeyFile,
			KeyPassphrase: hclCfg.Transfer.KeyPassphrase,
			KnownHosts:    hclCfg.Transfer.KnownHosts,
			RemoteDir:     hclCfg.Transfer.RemoteDir,
			Pattern:       hclCfg.Transfer.Pattern,
		},
		Upload: UploadConfig{
			Kind:            hclCfg.Upload.Kind,
			FolderID:        hclCfg.Upload.FolderID,
			CredentialsFile: hclCfg.Upload.CredentialsFile,
			Endpoint:        hclCfg.Upload.Endpoint,
			LocalDir:        hclCfg.Upload.LocalDir,
			Exclude:         hclCfg.Upload.Exclude,
		},
		Staging: StagingConfig{
			DownloadDir:     hclCfg.Staging.DownloadDir,
			ExtractDir:      hclCfg.Staging.ExtractDir,
			ConsolidatedDir: hclCfg.Staging.ConsolidatedDir,
			LogDir:          hclCfg.Staging.LogDir,
		},
	}

	if hclCfg.Master != nil {
		cfg.Master.Prefix = hclCfg.Master.Prefix
	}
	if hclCfg.Cleanup != nil {
		cfg.Cleanup.Disabled = hclCfg.Cleanup.Disabled
		cfg.Cleanup.Preserve = hclCfg.Cleanup.Preserve
	}

	return cfg, nil
}

// envObject exposes the process environment to HCL expressions.
func envObject() cty.Value {
	vars := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		vars[name] = cty.StringVal(value)
	}
	if len(vars) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(vars)
}
