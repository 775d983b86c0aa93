package kusto

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"kqlmd/pkg/models"
)

// DefaultLanguage tags fenced query blocks
const DefaultLanguage = "kql"

// DefaultMinCellWidth keeps separator rows at least three dashes wide,
// which strict Markdown renderers require
const DefaultMinCellWidth = 3

// Options control Markdown rendering
type Options struct {
	// Language is the fence tag for the query block
	Language string
	// MinCellWidth is the minimum padded width of a table cell
	MinCellWidth int
	// LinkifyCells wraps URL-shaped cell text in Markdown link syntax so
	// pasted tables have clickable links
	LinkifyCells bool
}

// DefaultOptions returns the rendering options used when nothing is
// configured
func DefaultOptions() Options {
	return Options{
		Language:     DefaultLanguage,
		MinCellWidth: DefaultMinCellWidth,
		LinkifyCells: true,
	}
}

func (o Options) withDefaults() Options {
	if o.Language == "" {
		o.Language = DefaultLanguage
	}
	if o.MinCellWidth <= 0 {
		o.MinCellWidth = DefaultMinCellWidth
	}
	return o
}

// urlPattern matches cell text that is exactly one absolute http(s) URL
var urlPattern = regexp.MustCompile(`^https?://\S+$`)

// RenderMarkdown produces the Markdown document for an extraction. It is
// total: any extraction renders without error, and an extraction with no
// content renders as the empty string. Sections always appear in the same
// order so repeated conversions of the same capture are byte-identical.
func RenderMarkdown(e models.Extraction, opts Options) string {
	opts = opts.withDefaults()

	var sections []string

	if e.HasQuery() {
		sections = append(sections, fmt.Sprintf("### Query\n\n```%s\n%s\n```", opts.Language, strings.TrimSpace(e.Query)))
	}
	if e.ClusterURL != "" {
		sections = append(sections, "> **Cluster:** "+e.ClusterURL)
	}
	if len(e.DeepLinks) > 0 {
		links := make([]string, 0, len(e.DeepLinks))
		for _, link := range e.DeepLinks {
			links = append(links, fmt.Sprintf("[%s](%s)", link.Label, link.URL))
		}
		sections = append(sections, "> **Open in:** "+strings.Join(links, " | "))
	}
	if table := renderTable(e.Table, opts); table != "" {
		sections = append(sections, "### Results\n\n"+table)
	}

	return strings.Join(sections, "\n\n")
}

// renderTable renders a pipe table with ljust-padded cells. A table with no
// columns at all renders as nothing. Rows wider than the header row widen
// the whole table rather than losing cells.
func renderTable(t models.Table, opts Options) string {
	cols := t.ColumnCount()
	if cols == 0 {
		return ""
	}

	formatted := make([][]string, 0, len(t.Rows)+1)
	formatted = append(formatted, formatRow(fitRow(t.Headers, cols), opts))
	for _, row := range t.Rows {
		formatted = append(formatted, formatRow(fitRow(row, cols), opts))
	}

	widths := make([]int, cols)
	for i := range widths {
		widths[i] = opts.MinCellWidth
	}
	for _, row := range formatted {
		for i, cell := range row {
			if n := len([]rune(cell)); n > widths[i] {
				widths[i] = n
			}
		}
	}

	separator := make([]string, cols)
	for i, w := range widths {
		separator[i] = strings.Repeat("-", w)
	}

	lines := make([]string, 0, len(formatted)+1)
	lines = append(lines, renderRow(formatted[0], widths))
	lines = append(lines, renderRow(separator, widths))
	for _, row := range formatted[1:] {
		lines = append(lines, renderRow(row, widths))
	}

	return strings.Join(lines, "\n")
}

func renderRow(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		padded[i] = padCell(cell, widths[i])
	}
	return "| " + strings.Join(padded, " | ") + " |"
}

func padCell(cell string, width int) string {
	if pad := width - len([]rune(cell)); pad > 0 {
		return cell + strings.Repeat(" ", pad)
	}
	return cell
}

func formatRow(cells []string, opts Options) []string {
	formatted := make([]string, len(cells))
	for i, cell := range cells {
		formatted[i] = formatCell(cell, opts)
	}
	return formatted
}

// formatCell flattens a cell to one line, optionally wraps URL-shaped text
// in link syntax, and escapes pipes so cell content cannot change the
// table's column structure. Linkification runs before escaping: a pipe
// inside a URL still gets escaped, inside the link syntax.
func formatCell(cell string, opts Options) string {
	text := flattenCell(cell)
	if opts.LinkifyCells {
		if trimmed := strings.TrimSpace(text); urlPattern.MatchString(trimmed) {
			text = fmt.Sprintf("[%s](%s)", trimmed, trimmed)
		}
	}
	return strings.ReplaceAll(text, "|", `\|`)
}

// flattenCell keeps a cell on a single line
func flattenCell(cell string) string {
	cell = strings.ReplaceAll(cell, "\r\n", " ")
	cell = strings.ReplaceAll(cell, "\n", " ")
	cell = strings.ReplaceAll(cell, "\r", " ")
	return cell
}

// RenderHTML produces the extraction as an HTML fragment for the text/html
// clipboard format, so pasting into rich text apps keeps the table and the
// links. Section order matches RenderMarkdown.
func RenderHTML(e models.Extraction) string {
	var b strings.Builder

	if e.HasQuery() {
		b.WriteString("<b>Query</b><br><pre><code>")
		b.WriteString(html.EscapeString(strings.TrimSpace(e.Query)))
		b.WriteString("</code></pre>")
	}
	if e.ClusterURL != "" {
		fmt.Fprintf(&b, `<b>Cluster:</b> <a href="%s">%s</a><br>`, e.ClusterURL, html.EscapeString(e.ClusterURL))
	}
	if len(e.DeepLinks) > 0 {
		links := make([]string, 0, len(e.DeepLinks))
		for _, link := range e.DeepLinks {
			links = append(links, fmt.Sprintf(`<a href="%s">%s</a>`, link.URL, html.EscapeString(link.Label)))
		}
		b.WriteString("<b>Open in:</b> " + strings.Join(links, " | ") + "<br>")
	}

	cols := e.Table.ColumnCount()
	if cols > 0 {
		b.WriteString(`<b>Results</b><br><table border="1"><tr>`)
		for _, header := range fitRow(e.Table.Headers, cols) {
			b.WriteString("<th>" + html.EscapeString(flattenCell(header)) + "</th>")
		}
		b.WriteString("</tr>")
		for _, row := range e.Table.Rows {
			b.WriteString("<tr>")
			for _, cell := range fitRow(row, cols) {
				b.WriteString("<td>" + cellHTML(cell) + "</td>")
			}
			b.WriteString("</tr>")
		}
		b.WriteString("</table>")
	}

	return b.String()
}

func cellHTML(cell string) string {
	if trimmed := strings.TrimSpace(flattenCell(cell)); urlPattern.MatchString(trimmed) {
		return fmt.Sprintf(`<a href="%s">%s</a>`, trimmed, html.EscapeString(trimmed))
	}
	return html.EscapeString(flattenCell(cell))
}

// WrapHTMLDocument wraps a fragment in a minimal document for clipboard
// transfer. Content that is already a full document passes through.
func WrapHTMLDocument(fragment string) string {
	if strings.Contains(strings.ToLower(fragment), "<html") {
		return fragment
	}
	return "<html><body>" + fragment + "</body></html>"
}
