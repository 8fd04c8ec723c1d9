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

/*
Package config manages configuration parsing and validation for sftpdrive.

	                +-------------+
	                |   Config    |
	                | (Settings)  |
	                +------+------+
	                       |
	      +----------------+----------------+
	      |                |                |
	+-----+-----+    +-----+-----+    +-----+-----+
	|   YAML    |    |   HCL     |    |   JSON    |
	|  Parser   |    |  Parser   |    |  Parser   |
	+-----------+    +-----------+    +-----------+

🎯 Purpose:
- Loads the run settings from one file, picking the parser by extension
- Fills secrets from the environment (and an optional .env next to the file)
- Applies defaults and rejects incomplete configurations

🔄 Flow:
1. Load reads the file and loads a sibling .env if present
2. The registered parser decodes it, rejecting unknown fields
3. ApplyEnv overrides secrets from SFTPDRIVE_* variables
4. Validate fills defaults and checks required fields

🔍 Example:

	transfer:
	  host: sftp.example.com
	  user: photos
	  remote_dir: /outgoing
	upload:
	  folder_id: 0AbCdEfGhIjK
	  credentials_file: /etc/sftpdrive/service-account.json
	staging:
	  download_dir: /var/lib/sftpdrive/download
	  extract_dir: /var/lib/sftpdrive/extract
	  consolidated_dir: /var/lib/sftpdrive/consolidated

In HCL the same settings are blocks, and env.NAME reads an environment
variable:

	transfer {
	  host       = "sftp.example.com"
	  user       = env.SFTP_USER
	  remote_dir = "/outgoing"
	}
*/
package config
