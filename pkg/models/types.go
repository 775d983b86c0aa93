package models

import (
	"strings"
	"time"
)

// DeepLink pairs a display label with a URL that reopens the same query in a
// specific Kusto tool (Azure Data Explorer web UI, Kusto Explorer)
type DeepLink struct {
	Label string `json:"label" yaml:"label"`
	URL   string `json:"url" yaml:"url"`
}

// Table represents an extracted results table. Headers and Rows preserve
// source order; header names are not required to be unique
type Table struct {
	Headers []string   `json:"headers" yaml:"headers"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// IsEmpty returns true if the table has no headers and no rows
func (t Table) IsEmpty() bool {
	return len(t.Headers) == 0 && len(t.Rows) == 0
}

// ColumnCount returns the width of the widest row, counting the header row
func (t Table) ColumnCount() int {
	cols := len(t.Headers)
	for _, row := range t.Rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	return cols
}

// Extraction is the structured form of one clipboard capture. Every field is
// optional; fields the source did not carry stay zero
type Extraction struct {
	Query      string     `json:"query,omitempty" yaml:"query,omitempty"`
	ClusterURL string     `json:"cluster_url,omitempty" yaml:"cluster_url,omitempty"`
	DeepLinks  []DeepLink `json:"deep_links,omitempty" yaml:"deep_links,omitempty"`
	Table      Table      `json:"table" yaml:"table"`
}

// HasQuery returns true if a non-blank query was extracted
func (e Extraction) HasQuery() bool {
	return strings.TrimSpace(e.Query) != ""
}

// IsEmpty returns true if nothing at all was extracted
func (e Extraction) IsEmpty() bool {
	return !e.HasQuery() && e.ClusterURL == "" && len(e.DeepLinks) == 0 && e.Table.IsEmpty()
}

// Conversion is one saved history record
type Conversion struct {
	ID         string    `json:"id" yaml:"id"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	Source     string    `json:"source" yaml:"source"`
	Query      string    `json:"query,omitempty" yaml:"query,omitempty"`
	ClusterURL string    `json:"cluster_url,omitempty" yaml:"cluster_url,omitempty"`
	Rows       int       `json:"rows" yaml:"rows"`
	Columns    int       `json:"columns" yaml:"columns"`
	Markdown   string    `json:"markdown" yaml:"markdown"`
}

// ShortID returns the first eight characters of the record ID, enough to
// address a record with the history commands
func (c Conversion) ShortID() string {
	if len(c.ID) <= 8 {
		return c.ID
	}
	return c.ID[:8]
}

// QueryPreview returns the first line of the stored query truncated to max
// runes, or "(no query)" when the record has none
func (c Conversion) QueryPreview(max int) string {
	query := strings.TrimSpace(c.Query)
	if query == "" {
		return "(no query)"
	}
	if i := strings.IndexByte(query, '\n'); i >= 0 {
		query = strings.TrimSpace(query[:i])
	}
	runes := []rune(query)
	if max > 3 && len(runes) > max {
		return string(runes[:max-3]) + "..."
	}
	return query
}
