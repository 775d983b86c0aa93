// Package clipboard provides clipboard access with dual-format support.
// Reads prefer the text/html target because Kusto tools put their structured
// export there. On Linux/Wayland writes daemonize a clipboard owner that
// serves both text/html and text/plain simultaneously, so pasting into
// rich-text apps (Teams, Slack) renders links while pasting into plain-text
// editors yields clean text without HTML noise.
package clipboard

import atotto "github.com/atotto/clipboard"

// System is the OS clipboard. Its methods satisfy the conversion pipeline's
// Source and Sink interfaces.
type System struct{}

// ReadHTML returns the text/html clipboard format, or "" when the clipboard
// offers none
func (System) ReadHTML() (string, error) {
	return readHTML()
}

// ReadText returns the plain text clipboard format
func (System) ReadText() (string, error) {
	return readText()
}

// Write replaces the clipboard with plain text only
func (System) Write(plain string) error {
	return atotto.WriteAll(plain)
}

// WriteRich replaces the clipboard with paired text/html and plain text
// formats
func (System) WriteRich(html, plain string) error {
	return WriteMultiFormat(html, plain)
}
