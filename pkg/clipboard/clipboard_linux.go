//go:build linux

package clipboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"kqlmd/pkg/clipboard/internal/wayland"

	atotto "github.com/atotto/clipboard"
)

// readTool is one external clipboard reader. htmlArgs is nil when the tool
// cannot request the text/html target.
type readTool struct {
	name     string
	htmlArgs []string
	textArgs []string
}

var readTools = []readTool{
	{name: "wl-paste", htmlArgs: []string{"--no-newline", "--type", "text/html"}, textArgs: []string{"--no-newline"}},
	{name: "xclip", htmlArgs: []string{"-selection", "clipboard", "-t", "text/html", "-o"}, textArgs: []string{"-selection", "clipboard", "-o"}},
	{name: "xsel", textArgs: []string{"--clipboard", "--output"}},
}

// findReadTool picks the first installed reader, preferring wl-paste inside
// Wayland sessions. The X11 tools stay as fallbacks since they still work
// under XWayland.
func findReadTool() (readTool, error) {
	tools := readTools
	if os.Getenv("WAYLAND_DISPLAY") == "" {
		tools = readTools[1:]
	}
	for _, tool := range tools {
		if _, err := exec.LookPath(tool.name); err == nil {
			return tool, nil
		}
	}
	return readTool{}, fmt.Errorf("no clipboard tool found, install wl-clipboard, xclip, or xsel")
}

func readHTML() (string, error) {
	tool, err := findReadTool()
	if err != nil {
		return "", err
	}
	if tool.htmlArgs == nil {
		return "", nil
	}
	out, err := exec.Command(tool.name, tool.htmlArgs...).Output()
	if err != nil {
		// The tools exit nonzero when the requested target is missing,
		// which just means the clipboard holds no HTML
		return "", nil
	}
	return string(out), nil
}

func readText() (string, error) {
	tool, err := findReadTool()
	if err != nil {
		return "", err
	}
	out, err := exec.Command(tool.name, tool.textArgs...).Output()
	if err != nil {
		// Nonzero exit with nothing selected means an empty clipboard
		return "", nil
	}
	return string(out), nil
}

// WriteMultiFormat copies content to the clipboard as both HTML (for
// rich-text apps such as Teams/Slack) and plain text (for text editors). On
// Linux/Wayland it spawns a background clipboard-owner process; on X11 it
// falls back to plain text only.
func WriteMultiFormat(html, plain string) error {
	if os.Getenv("WAYLAND_DISPLAY") == "" {
		// X11 fallback: plain text only.
		return atotto.WriteAll(plain)
	}
	return spawnClipboardServer(html, plain)
}

func spawnClipboardServer(html, plain string) error {
	payload, err := json.Marshal(struct{ HTML, Plain string }{html, plain})
	if err != nil {
		return err
	}

	// Re-exec this binary as a daemonised subprocess.
	cmd := exec.Command(os.Args[0], "__clipboard-serve")
	cmd.Stdin = bytes.NewReader(payload)
	// Detach from the parent's process group so the child survives parent exit.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	return cmd.Start() // no Wait, the parent returns immediately
}

// ServeClipboard is called by the __clipboard-serve hidden command.
// It reads the HTML+plain payload from stdin and runs the Wayland clipboard
// owner, blocking until ownership is cancelled.
func ServeClipboard(html, plain string) error {
	formats := map[string][]byte{
		"text/html":                []byte(html),
		"text/plain;charset=utf-8": []byte(plain),
		"text/plain":               []byte(plain),
		"UTF8_STRING":              []byte(plain),
		"STRING":                   []byte(plain),
	}
	return wayland.Serve(formats)
}
