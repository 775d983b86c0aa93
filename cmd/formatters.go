package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"kqlmd/pkg/clipboard"

	atottoclipboard "github.com/atotto/clipboard"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatTable is the default human-readable table format
	FormatTable OutputFormat = "table"
	// FormatMarkdown outputs the rendered Markdown document
	FormatMarkdown OutputFormat = "markdown"
	// FormatJSON outputs as JSON
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs as YAML
	FormatYAML OutputFormat = "yaml"
)

// OutputWriter handles structured output formatting
type OutputWriter struct {
	format OutputFormat
	writer io.Writer
}

// NewOutputWriter creates a new output writer with the specified format
func NewOutputWriter(format string) *OutputWriter {
	f := OutputFormat(format)
	if f != FormatJSON && f != FormatYAML && f != FormatMarkdown {
		f = FormatTable // default
	}
	return &OutputWriter{
		format: f,
		writer: os.Stdout,
	}
}

// SetWriter sets a custom writer (used in tests)
func (w *OutputWriter) SetWriter(writer io.Writer) {
	w.writer = writer
}

// GetFormat returns the current format
func (w *OutputWriter) GetFormat() OutputFormat {
	return w.format
}

// IsStructured returns true if the format is JSON or YAML
func (w *OutputWriter) IsStructured() bool {
	return w.format == FormatJSON || w.format == FormatYAML
}

// Write outputs the data in the configured format
func (w *OutputWriter) Write(data interface{}) error {
	switch w.format {
	case FormatJSON:
		encoder := json.NewEncoder(w.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case FormatYAML:
		encoder := yaml.NewEncoder(w.writer)
		defer encoder.Close()
		return encoder.Encode(data)
	default:
		// Table and markdown formats are handled by individual commands
		return nil
	}
}

// WriteBytes writes raw bytes to output
func (w *OutputWriter) WriteBytes(data []byte) error {
	_, err := w.writer.Write(data)
	return err
}

// ValidFormats returns a list of valid output formats
func ValidFormats() []string {
	return []string{"table", "markdown", "json", "yaml"}
}

func FormatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Format("02/01 15:04")
}

// CopyToClipboard writes content to the clipboard as plain text.
func CopyToClipboard(clipboardContent string) error {
	return atottoclipboard.WriteAll(clipboardContent)
}

// CopyRichToClipboard copies content to the clipboard as both HTML (for rich
// text apps such as Teams/OneNote) and plain text (for text editors). On
// Linux/Wayland it daemonises a clipboard server that serves both formats
// simultaneously.
func CopyRichToClipboard(html, plain string) error {
	return clipboard.WriteMultiFormat(html, plain)
}

// CopyWithMessage copies content to clipboard and prints a confirmation message.
func CopyWithMessage(clipboardContent, message string) error {
	if err := CopyToClipboard(clipboardContent); err != nil {
		return err
	}
	if message != "" {
		fmt.Fprintln(os.Stderr, message)
	}
	return nil
}
