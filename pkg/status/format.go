package status

import (
	"fmt"
)

// FileFormatter defines how file outcomes and progress should be formatted
type FileFormatter interface {
	// FormatFileOperation formats a file outcome message
	FormatFileOperation(info FileInfo) string

	// FormatProgress formats a progress message
	FormatProgress(current, total int) string

	// FormatError formats an error message
	FormatError(err error) string
}

// DefaultFileFormatter provides a default implementation of FileFormatter
type DefaultFileFormatter struct{}

// NewDefaultFileFormatter creates a new DefaultFileFormatter
func NewDefaultFileFormatter() *DefaultFileFormatter {
	return &DefaultFileFormatter{}
}

// FormatFileOperation formats a file outcome message with emojis
func (f *DefaultFileFormatter) FormatFileOperation(info FileInfo) string {
	var msg string
	switch info.Outcome {
	case OutcomeDownloaded:
		msg = fmt.Sprintf("📥 Downloaded %s", info.Path)
	case OutcomeExtracted:
		msg = fmt.Sprintf("📦 Extracted %s", info.Path)
	case OutcomeRenamed:
		msg = fmt.Sprintf("📝 Renamed %s", info.Path)
	case OutcomeUploaded:
		msg = fmt.Sprintf("✨ Uploaded %s", info.Path)
	case OutcomeSkipped:
		msg = fmt.Sprintf("⏭️  Skipped %s", info.Path)
	case OutcomeFailed:
		msg = fmt.Sprintf("❌ Failed %s", info.Path)
	case OutcomeDeleted:
		msg = fmt.Sprintf("🗑️  Removed %s", info.Path)
	case OutcomePreserved:
		msg = fmt.Sprintf("👍 Kept %s", info.Path)
	default:
		msg = fmt.Sprintf("❔ %s", info.Path)
	}
	if info.Detail != "" {
		msg += " (" + info.Detail + ")"
	}
	return msg
}

// FormatProgress formats a progress message with percentage
func (f *DefaultFileFormatter) FormatProgress(current, total int) string {
	var percentage float64
	if total == 0 {
		percentage = 0
		if current > 0 {
			percentage = 100
		}
	} else {
		percentage = float64(current) / float64(total) * 100
	}

	if current >= total {
		return fmt.Sprintf("✅ Progress: %d/%d (%.0f%%)", current, total, percentage)
	}
	return fmt.Sprintf("⏳ Progress: %d/%d (%.0f%%)", current, total, percentage)
}

// FormatError formats an error message with emoji
func (f *DefaultFileFormatter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("❌ Error: %v", err)
}
