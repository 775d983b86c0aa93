package kusto

import "strings"

// Kind tags what a clipboard payload was classified as. Classification
// happens once, up front; the extractor trusts the tag instead of sniffing
// content again.
type Kind int

const (
	// KindText is tab-separated plain text, the fallback when no HTML
	// markers are present
	KindText Kind = iota
	// KindKustoHTML is an HTML export from Kusto Explorer or the Azure Data
	// Explorer web UI
	KindKustoHTML
	// KindGenericHTML is HTML that did not come from a Kusto tool
	KindGenericHTML
)

func (k Kind) String() string {
	switch k {
	case KindKustoHTML:
		return "kusto-html"
	case KindGenericHTML:
		return "generic-html"
	default:
		return "text"
	}
}

// Payload is one normalized, classified clipboard capture
type Payload struct {
	Kind    Kind
	Content string
}

// kustoMarker is the attribute prefix Kusto tools put on their export
// blocks. Its presence is what distinguishes a Kusto export from HTML
// copied out of any other application.
const kustoMarker = "<div data-type="

var htmlMarkers = []string{"<html", "<!doctype", "<body", "<table", "<div"}

// Classify normalizes raw clipboard content and tags it by origin
func Classify(raw string) Payload {
	content := Normalize(raw)
	switch {
	case strings.Contains(content, kustoMarker):
		return Payload{Kind: KindKustoHTML, Content: content}
	case looksLikeHTML(content):
		return Payload{Kind: KindGenericHTML, Content: content}
	default:
		return Payload{Kind: KindText, Content: content}
	}
}

func looksLikeHTML(content string) bool {
	lower := strings.ToLower(content)
	for _, marker := range htmlMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Normalize strips the NUL padding some clipboard bridges append and the
// CF_HTML envelope Windows puts around text/html transfers
func Normalize(raw string) string {
	content := strings.TrimRight(raw, "\x00")
	if isCFHTML(content) {
		if i := strings.IndexByte(content, '<'); i >= 0 {
			content = content[i:]
		}
	}
	return content
}

// isCFHTML detects the Windows clipboard HTML envelope, which starts with a
// Version: line followed by StartHTML/EndHTML byte offsets
func isCFHTML(content string) bool {
	if !strings.HasPrefix(content, "Version:") {
		return false
	}
	head := content
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.Contains(head, "StartHTML:")
}
