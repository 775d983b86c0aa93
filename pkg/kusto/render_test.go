package kusto

import (
	"strings"
	"testing"

	"kqlmd/pkg/models"
)

// countColumns counts the unescaped pipes in a rendered table line
func countColumns(line string) int {
	return strings.Count(line, "|") - strings.Count(line, `\|`)
}

func TestRenderMarkdown_ResultsOnly(t *testing.T) {
	e := models.Extraction{
		Table: models.Table{
			Headers: []string{"State", "count_"},
			Rows:    [][]string{{"TEXAS", "4701"}},
		},
	}

	got := RenderMarkdown(e, DefaultOptions())
	want := "### Results\n\n" +
		"| State | count_ |\n" +
		"| ----- | ------ |\n" +
		"| TEXAS | 4701   |"

	if got != want {
		t.Errorf("RenderMarkdown() = %q, want %q", got, want)
	}
	if strings.Contains(got, "### Query") {
		t.Error("RenderMarkdown() produced a Query section for a query-less extraction")
	}
}

func TestRenderMarkdown_TableShape(t *testing.T) {
	e := models.Extraction{
		Table: models.Table{
			Headers: []string{"A", "B"},
			Rows:    [][]string{{"1", "2"}, {"3", "4"}, {"5", "6"}},
		},
	}

	got := RenderMarkdown(e, DefaultOptions())
	lines := strings.Split(strings.TrimPrefix(got, "### Results\n\n"), "\n")

	if len(lines) != 5 {
		t.Fatalf("table has %d lines, want rows+2 = 5", len(lines))
	}
	for i, line := range lines {
		if countColumns(line) != countColumns(lines[0]) {
			t.Errorf("line %d has %d pipes, want %d", i, countColumns(line), countColumns(lines[0]))
		}
		if !strings.HasPrefix(line, "| ") || !strings.HasSuffix(line, " |") {
			t.Errorf("line %d = %q, want pipe-delimited row", i, line)
		}
	}
	if !strings.Contains(lines[1], "---") {
		t.Errorf("separator line = %q, want dashes", lines[1])
	}
}

func TestRenderMarkdown_QueryFence(t *testing.T) {
	e := models.Extraction{Query: "StormEvents\n| summarize count() by State"}

	got := RenderMarkdown(e, DefaultOptions())
	want := "### Query\n\n```kql\nStormEvents\n| summarize count() by State\n```"

	if got != want {
		t.Errorf("RenderMarkdown() = %q, want %q", got, want)
	}
}

func TestRenderMarkdown_LanguageOption(t *testing.T) {
	e := models.Extraction{Query: "select 1"}

	opts := DefaultOptions()
	opts.Language = "sql"

	got := RenderMarkdown(e, opts)
	if !strings.Contains(got, "```sql\n") {
		t.Errorf("RenderMarkdown() = %q, want sql fence", got)
	}
}

func TestRenderMarkdown_SectionOrder(t *testing.T) {
	e := models.Extraction{
		Query:      "StormEvents | count",
		ClusterURL: "https://help.kusto.windows.net/",
		DeepLinks: []models.DeepLink{
			{Label: "Azure Data Explorer", URL: "https://dataexplorer.azure.com/?query=abc"},
			{Label: "Kusto Explorer", URL: "https://help.kusto.windows.net/?query=abc"},
		},
		Table: models.Table{
			Headers: []string{"Count"},
			Rows:    [][]string{{"59066"}},
		},
	}

	got := RenderMarkdown(e, DefaultOptions())

	query := strings.Index(got, "### Query")
	cluster := strings.Index(got, "> **Cluster:** https://help.kusto.windows.net/")
	links := strings.Index(got, "> **Open in:** [Azure Data Explorer](https://dataexplorer.azure.com/?query=abc) | [Kusto Explorer](https://help.kusto.windows.net/?query=abc)")
	results := strings.Index(got, "### Results")

	if query == -1 || cluster == -1 || links == -1 || results == -1 {
		t.Fatalf("RenderMarkdown() missing sections:\n%s", got)
	}
	if !(query < cluster && cluster < links && links < results) {
		t.Errorf("sections out of order: query=%d cluster=%d links=%d results=%d", query, cluster, links, results)
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("RenderMarkdown() has trailing newline")
	}
}

func TestRenderMarkdown_LinkifiesURLCells(t *testing.T) {
	e := models.Extraction{
		Table: models.Table{
			Headers: []string{"Link"},
			Rows:    [][]string{{"https://example.com/x"}},
		},
	}

	got := RenderMarkdown(e, DefaultOptions())
	if !strings.Contains(got, "[https://example.com/x](https://example.com/x)") {
		t.Errorf("RenderMarkdown() = %q, want URL cell linkified", got)
	}
}

func TestRenderMarkdown_LinkifyDisabled(t *testing.T) {
	e := models.Extraction{
		Table: models.Table{
			Headers: []string{"Link"},
			Rows:    [][]string{{"https://example.com/x"}},
		},
	}

	opts := DefaultOptions()
	opts.LinkifyCells = false

	got := RenderMarkdown(e, opts)
	if strings.Contains(got, "[https://example.com/x]") {
		t.Errorf("RenderMarkdown() = %q, want no link syntax", got)
	}
}

func TestRenderMarkdown_NonURLCellsNotLinkified(t *testing.T) {
	e := models.Extraction{
		Table: models.Table{
			Headers: []string{"Text"},
			Rows:    [][]string{{"see https://example.com for details"}},
		},
	}

	got := RenderMarkdown(e, DefaultOptions())
	if strings.Contains(got, "](") {
		t.Errorf("RenderMarkdown() = %q, want prose cell left alone", got)
	}
}

func TestRenderMarkdown_EscapesPipes(t *testing.T) {
	e := models.Extraction{
		Table: models.Table{
			Headers: []string{"expr", "val"},
			Rows:    [][]string{{"a|b", "c"}},
		},
	}

	got := RenderMarkdown(e, DefaultOptions())
	if !strings.Contains(got, `a\|b`) {
		t.Errorf("RenderMarkdown() = %q, want pipe escaped", got)
	}

	lines := strings.Split(strings.TrimPrefix(got, "### Results\n\n"), "\n")
	for i, line := range lines {
		if countColumns(line) != 3 {
			t.Errorf("line %d = %q, has %d unescaped pipes, want 3", i, line, countColumns(line))
		}
	}
}

func TestRenderMarkdown_PipeInsideURL(t *testing.T) {
	e := models.Extraction{
		Table: models.Table{
			Headers: []string{"Link"},
			Rows:    [][]string{{"https://example.com/a|b"}},
		},
	}

	got := RenderMarkdown(e, DefaultOptions())
	if !strings.Contains(got, `[https://example.com/a\|b](https://example.com/a\|b)`) {
		t.Errorf("RenderMarkdown() = %q, want linkified then escaped", got)
	}
}

func TestRenderMarkdown_FlattensMultilineCells(t *testing.T) {
	e := models.Extraction{
		Table: models.Table{
			Headers: []string{"Message"},
			Rows:    [][]string{{"line one\nline two"}},
		},
	}

	got := RenderMarkdown(e, DefaultOptions())
	if !strings.Contains(got, "line one line two") {
		t.Errorf("RenderMarkdown() = %q, want newline flattened to space", got)
	}
}

func TestRenderMarkdown_MinCellWidth(t *testing.T) {
	e := models.Extraction{
		Table: models.Table{
			Headers: []string{"A"},
			Rows:    [][]string{{"b"}},
		},
	}

	got := RenderMarkdown(e, DefaultOptions())
	want := "### Results\n\n" +
		"| A   |\n" +
		"| --- |\n" +
		"| b   |"

	if got != want {
		t.Errorf("RenderMarkdown() = %q, want %q", got, want)
	}
}

func TestRenderMarkdown_WideRowsWidenTable(t *testing.T) {
	e := models.Extraction{
		Table: models.Table{
			Headers: []string{"A"},
			Rows:    [][]string{{"1", "2"}},
		},
	}

	got := RenderMarkdown(e, DefaultOptions())
	lines := strings.Split(strings.TrimPrefix(got, "### Results\n\n"), "\n")

	for i, line := range lines {
		if countColumns(line) != 3 {
			t.Errorf("line %d = %q, want widened to 2 columns", i, line)
		}
	}
}

func TestRenderMarkdown_NoColumnsRendersNothing(t *testing.T) {
	tests := []struct {
		name string
		e    models.Extraction
	}{
		{"zero value", models.Extraction{}},
		{"empty table", models.Extraction{Table: models.Table{Headers: []string{}, Rows: [][]string{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderMarkdown(tt.e, DefaultOptions()); got != "" {
				t.Errorf("RenderMarkdown() = %q, want empty string", got)
			}
		})
	}
}

func TestRenderMarkdown_HeaderOnlyTable(t *testing.T) {
	e := models.Extraction{
		Table: models.Table{Headers: []string{"A", "B"}},
	}

	got := RenderMarkdown(e, DefaultOptions())
	lines := strings.Split(strings.TrimPrefix(got, "### Results\n\n"), "\n")

	if len(lines) != 2 {
		t.Errorf("header-only table has %d lines, want 2", len(lines))
	}
}

func TestRenderMarkdown_Deterministic(t *testing.T) {
	e := models.Extraction{
		Query:      "T | count",
		ClusterURL: "https://c.example.com/",
		DeepLinks:  []models.DeepLink{{Label: "ADE", URL: "https://a.example.com/?query=x"}},
		Table: models.Table{
			Headers: []string{"A"},
			Rows:    [][]string{{"1"}},
		},
	}

	first := RenderMarkdown(e, DefaultOptions())
	for i := 0; i < 10; i++ {
		if got := RenderMarkdown(e, DefaultOptions()); got != first {
			t.Fatalf("render %d differs from first render", i)
		}
	}
}

func TestRenderHTML(t *testing.T) {
	e := models.Extraction{
		Query:      "T | count",
		ClusterURL: "https://c.example.com/",
		Table: models.Table{
			Headers: []string{"Value"},
			Rows:    [][]string{{"<script>"}, {"https://example.com/x"}},
		},
	}

	got := RenderHTML(e)

	if !strings.Contains(got, "<pre><code>T | count</code></pre>") {
		t.Errorf("RenderHTML() = %q, want query in pre block", got)
	}
	if !strings.Contains(got, `<a href="https://c.example.com/">`) {
		t.Errorf("RenderHTML() = %q, want cluster link", got)
	}
	if !strings.Contains(got, "&lt;script&gt;") {
		t.Errorf("RenderHTML() = %q, want cell content escaped", got)
	}
	if !strings.Contains(got, `<a href="https://example.com/x">`) {
		t.Errorf("RenderHTML() = %q, want URL cell rendered as anchor", got)
	}
}

func TestRenderHTML_Empty(t *testing.T) {
	if got := RenderHTML(models.Extraction{}); got != "" {
		t.Errorf("RenderHTML() = %q, want empty string", got)
	}
}

func TestWrapHTMLDocument(t *testing.T) {
	if got := WrapHTMLDocument("<b>x</b>"); got != "<html><body><b>x</b></body></html>" {
		t.Errorf("WrapHTMLDocument() = %q", got)
	}

	full := "<html><body>y</body></html>"
	if got := WrapHTMLDocument(full); got != full {
		t.Errorf("WrapHTMLDocument() = %q, want full documents untouched", got)
	}
}
