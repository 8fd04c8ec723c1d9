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
	"sync"

	"github.com/rs/zerolog"
)

// 📊 Outcome is what happened to a file during a run
type Outcome int

const (
	OutcomeUnknown    Outcome = iota
	OutcomeDownloaded         // Archive fetched from the remote
	OutcomeExtracted          // Member written out of an archive
	OutcomeRenamed            // Payload renamed from its index row
	OutcomeUploaded           // File created in the destination folder
	OutcomeSkipped            // Deliberately not uploaded
	OutcomeFailed             // Any step failed for this file
	OutcomeDeleted            // Removed during cleanup
	OutcomePreserved          // Kept during cleanup
)

// Outcomes lists every known outcome in display order.
var Outcomes = []Outcome{
	OutcomeDownloaded,
	OutcomeExtracted,
	OutcomeRenamed,
	OutcomeUploaded,
	OutcomeSkipped,
	OutcomeFailed,
	OutcomeDeleted,
	OutcomePreserved,
}

// String returns a string representation of Outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeDownloaded:
		return "downloaded"
	case OutcomeExtracted:
		return "extracted"
	case OutcomeRenamed:
		return "renamed"
	case OutcomeUploaded:
		return "uploaded"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	case OutcomeDeleted:
		return "deleted"
	case OutcomePreserved:
		return "preserved"
	default:
		return "unknown"
	}
}

// 📄 FileInfo records one outcome for one file
type FileInfo struct {
	Path    string  // File name or path
	Archive string  // Archive the file came from, if any
	Outcome Outcome // What happened
	Detail  string  // Rename target, remote id or skip reason
	Error   error   // Set when Outcome is OutcomeFailed
}

// 📈 StatusReporter tracks file outcomes and reports progress
type StatusReporter interface {
	// Status tracking
	TrackFile(ctx context.Context, path string, info FileInfo)

	// Progress reporting
	StartOperation(ctx context.Context, total int)
	UpdateProgress(ctx context.Context, processed int)
	FinishOperation(ctx context.Context)
}

var _ StatusReporter = (*Manager)(nil)

// 🔧 Manager keeps the outcome of every file touched during a run
type Manager struct {
	logger    *zerolog.Logger // Logger for status updates
	formatter FileFormatter   // Formatter for status messages

	// Status tracking
	mu     sync.RWMutex
	files  []FileInfo
	counts map[Outcome]int

	// Progress tracking
	total int
}

// 🏭 New creates a new status manager
func New(logger *zerolog.Logger) *Manager {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Manager{
		logger:    logger,
		formatter: NewDefaultFileFormatter(),
		counts:    make(map[Outcome]int),
	}
}

// 📝 TrackFile records one outcome and emits the structured event for it.
func (m *Manager) TrackFile(ctx context.Context, path string, info FileInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info.Path = path
	if info.Error != nil {
		info.Outcome = OutcomeFailed
	}
	m.files = append(m.files, info)
	m.counts[info.Outcome]++

	if info.Error != nil {
		m.logger.Error().
			Str("file", path).
			Str("archive", info.Archive).
			Err(info.Error).
			Msg(m.formatter.FormatError(info.Error))
		return
	}
	m.logger.Info().
		Str("file", path).
		Str("archive", info.Archive).
		Str("outcome", info.Outcome.String()).
		Str("detail", info.Detail).
		Msg(m.formatter.FormatFileOperation(info))
}

// ListFiles returns every tracked outcome in the order it happened.
func (m *Manager) ListFiles(ctx context.Context) ([]FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make([]FileInfo, len(m.files))
	copy(files, m.files)
	return files, nil
}

// Count returns how many times outcome was tracked.
func (m *Manager) Count(outcome Outcome) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counts[outcome]
}

func (m *Manager) StartOperation(ctx context.Context, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total = total
	msg := m.formatter.FormatProgress(0, total)
	m.logger.Info().Int("total", total).Msg(msg)
}

func (m *Manager) UpdateProgress(ctx context.Context, processed int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg := m.formatter.FormatProgress(processed, m.total)
	m.logger.Info().
		Int("processed", processed).
		Int("total", m.total).
		Msg(msg)
}

func (m *Manager) FinishOperation(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg := m.formatter.FormatProgress(m.total, m.total)
	m.logger.Info().
		Int("processed", m.total).
		Int("total", m.total).
		Msg(msg)
}
