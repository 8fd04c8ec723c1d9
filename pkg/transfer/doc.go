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
Package transfer retrieves delivery archives from a remote source.

	+-----------+      List       +-----------+
	| Retrieve  | --------------> |  Client   |
	| (filter,  |  Fetch, Delete  | sftp or   |
	|  order)   | --------------> | local dir |
	+-----------+                 +-----------+

🎯 Purpose:
- Lists the remote directory and keeps names that fully match the pattern
- Downloads each match, then deletes it from the source
- Hides the source behind a Client selected by kind

⚡ Failure handling:
- A listing failure is returned to the caller
- A failed fetch is logged; the file stays on the source
- A failed delete is logged; the downloaded copy is still used

Nothing is retried.
*/
package transfer
