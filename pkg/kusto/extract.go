package kusto

import (
	"strings"

	"kqlmd/pkg/errors"
	"kqlmd/pkg/models"

	"golang.org/x/net/html"
)

// Extract converts a classified payload into its structured form. Only blank
// content fails; malformed markup degrades to whatever fields could be
// recovered, never to an error.
func Extract(p Payload) (models.Extraction, error) {
	if strings.TrimSpace(p.Content) == "" {
		return models.Extraction{}, errors.EmptyInputError()
	}

	switch p.Kind {
	case KindKustoHTML, KindGenericHTML:
		return extractHTML(p.Content), nil
	default:
		return extractText(p.Content), nil
	}
}

// extractHTML pulls the query block, tool links, and first results table out
// of a Kusto HTML export
func extractHTML(content string) models.Extraction {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		// net/html tolerates almost anything; a hard failure means the
		// reader itself broke, so treat it as an empty extraction
		return models.Extraction{}
	}

	w := &docWalker{}
	w.walk(doc)

	return models.Extraction{
		Query:      strings.Join(w.queryLines, "\n"),
		ClusterURL: w.clusterURL,
		DeepLinks:  w.deepLinks,
		Table:      buildTable(w.rows),
	}
}

// docWalker accumulates extraction state over one document traversal.
// Anchors are only collected from the link header, the part of the export
// above both the query block and the results table. Anchors inside the
// table are cell data and anchors below it are footer noise.
type docWalker struct {
	queryLines []string
	querySeen  bool

	clusterURL string
	deepLinks  []models.DeepLink

	rows      [][]string
	tableSeen bool
}

func (w *docWalker) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "div":
			if !w.querySeen && attrValue(n, "data-type") == "query" {
				w.queryLines = collectLines(n)
				w.querySeen = true
				return
			}
		case "table":
			if !w.tableSeen {
				w.rows = collectRows(n)
				w.tableSeen = true
			}
			return
		case "a":
			w.addAnchor(n)
			return
		case "style", "script":
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *docWalker) addAnchor(n *html.Node) {
	if w.querySeen || w.tableSeen {
		return
	}
	href := strings.TrimSpace(attrValue(n, "href"))
	if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
		return
	}
	if strings.Contains(href, "query=") {
		label := cleanText(nodeText(n))
		if label == "" {
			label = href
		}
		w.deepLinks = append(w.deepLinks, models.DeepLink{Label: label, URL: href})
		return
	}
	// The first plain http(s) link in the header is the cluster URL
	if w.clusterURL == "" {
		w.clusterURL = href
	}
}

// collectLines flattens the query block to text lines. <p> and <br> are the
// line separators Kusto tools emit; style blocks carry no query text.
func collectLines(n *html.Node) []string {
	var lines []string
	var current strings.Builder

	flush := func() {
		if line := cleanText(current.String()); line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "style", "script":
				return
			case "p", "br":
				flush()
			}
		}
		if n.Type == html.TextNode {
			current.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visit(c)
	}
	flush()

	return lines
}

// collectRows gathers the cell text of every tr in the table, including
// rows nested under thead/tbody
func collectRows(table *html.Node) [][]string {
	var rows [][]string

	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				collectCells(c, &cells)
			}
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(table)

	return rows
}

func collectCells(n *html.Node, cells *[]string) {
	if n.Type == html.ElementNode && (n.Data == "td" || n.Data == "th") {
		*cells = append(*cells, cleanText(nodeText(n)))
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectCells(c, cells)
	}
}

// buildTable takes raw rows, promotes the first to headers, and pads or
// truncates the rest so every row matches the header count
func buildTable(rows [][]string) models.Table {
	if len(rows) == 0 {
		return models.Table{}
	}

	headers := rows[0]
	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		data = append(data, fitRow(row, len(headers)))
	}

	return models.Table{Headers: headers, Rows: data}
}

// fitRow pads a row with empty cells or truncates it to the wanted width
func fitRow(row []string, want int) []string {
	if len(row) == want {
		return row
	}
	if len(row) > want {
		return row[:want]
	}
	fitted := make([]string, want)
	copy(fitted, row)
	return fitted
}

// extractText parses tab-separated plain text. The first line is the header
// row; only trailing blank lines are dropped, interior blanks stay as empty
// rows so row counts line up with what was copied.
func extractText(content string) models.Extraction {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return models.Extraction{}
	}

	headers := strings.Split(lines[0], "\t")
	rows := make([][]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		rows = append(rows, fitRow(strings.Split(line, "\t"), len(headers)))
	}

	return models.Extraction{Table: models.Table{Headers: headers, Rows: rows}}
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return b.String()
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// cleanText replaces the non-breaking spaces HTML exports use for alignment
// and trims the result
func cleanText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, " ", " "))
}
