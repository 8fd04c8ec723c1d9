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

package status

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"
	"gitlab.com/tozd/go/errors"
)

// 📋 PrintSummary renders the outcome counters, and any failures, as tables
func (m *Manager) PrintSummary(ctx context.Context, w io.Writer) error {
	counts := pterm.TableData{{"Outcome", "Files"}}
	for _, o := range Outcomes {
		counts = append(counts, []string{o.String(), strconv.Itoa(m.Count(o))})
	}

	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(counts).Srender()
	if err != nil {
		return errors.Errorf("rendering summary: %w", err)
	}
	fmt.Fprintln(w, rendered)

	files, err := m.ListFiles(ctx)
	if err != nil {
		return errors.Errorf("listing tracked files: %w", err)
	}

	failed := pterm.TableData{{"File", "Archive", "Error"}}
	for _, f := range files {
		if f.Outcome != OutcomeFailed {
			continue
		}
		msg := ""
		if f.Error != nil {
			msg = f.Error.Error()
		}
		failed = append(failed, []string{f.Path, f.Archive, msg})
	}
	if len(failed) == 1 {
		return nil
	}

	rendered, err = pterm.DefaultTable.WithHasHeader().WithData(failed).Srender()
	if err != nil {
		return errors.Errorf("rendering failures: %w", err)
	}
	fmt.Fprintln(w, rendered)
	return nil
}
