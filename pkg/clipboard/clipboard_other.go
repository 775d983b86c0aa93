//go:build !linux

package clipboard

import atotto "github.com/atotto/clipboard"

// readHTML is unsupported off Linux; the text/html target is not reachable
// through portable tooling
func readHTML() (string, error) {
	return "", nil
}

func readText() (string, error) {
	return atotto.ReadAll()
}

// WriteMultiFormat copies content to the clipboard. On non-Linux platforms
// only plain text is supported.
func WriteMultiFormat(html, plain string) error {
	return atotto.WriteAll(plain)
}

// ServeClipboard is not used on non-Linux platforms.
func ServeClipboard(html, plain string) error {
	return nil
}
