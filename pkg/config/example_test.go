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

package config_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/walteh/sftpdrive/pkg/config"
)

func ExampleLoad() {
	ctx := context.Background()
	configYAML := `
transfer:
  host: sftp.example.com
  user: photos
  key_file: /keys/id_ed25519
  remote_dir: /outgoing
upload:
  folder_id: 0AbCdEf
staging:
  download_dir: /var/lib/sftpdrive/download
  extract_dir: /var/lib/sftpdrive/extract
  consolidated_dir: /var/lib/sftpdrive/consolidated
`

	tmpDir, err := os.MkdirTemp("", "sftpdrive-example")
	if err != nil {
		fmt.Printf("Error creating temp dir: %v\n", err)
		return
	}
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "sftpdrive.yaml")
	if err := os.WriteFile(configPath, []byte(configYAML), 0644); err != nil {
		fmt.Printf("Error writing config: %v\n", err)
		return
	}

	// Load and validate the config
	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		return
	}

	fmt.Println(cfg)
	fmt.Println(cfg.Transfer.Pattern)
	fmt.Println(cfg.Cleanup.Preserve)
	// Output:
	// sftp://photos@sftp.example.com:22/outgoing -> drive:0AbCdEf
	// datafile_\d{8}_\d{6}\.zip
	// [log-*.log]
}
