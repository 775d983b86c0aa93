package kusto

import (
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Kind
	}{
		{
			name: "kusto export html",
			raw:  `<html><body><div data-type="query"><p>StormEvents</p></div></body></html>`,
			want: KindKustoHTML,
		},
		{
			name: "kusto marker without full document",
			raw:  `<div data-type="table"><table><tr><td>a</td></tr></table></div>`,
			want: KindKustoHTML,
		},
		{
			name: "generic html document",
			raw:  `<html><body><p>hello</p></body></html>`,
			want: KindGenericHTML,
		},
		{
			name: "generic html fragment",
			raw:  `<table><tr><td>a</td></tr></table>`,
			want: KindGenericHTML,
		},
		{
			name: "uppercase doctype",
			raw:  "<!DOCTYPE html><p>x</p>",
			want: KindGenericHTML,
		},
		{
			name: "tab separated text",
			raw:  "State\tcount_\nTEXAS\t4701",
			want: KindText,
		},
		{
			name: "plain prose",
			raw:  "just some words",
			want: KindText,
		},
		{
			name: "angle brackets that are not markup",
			raw:  "a < b and b > c",
			want: KindText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.raw)
			if got.Kind != tt.want {
				t.Errorf("Classify() kind = %v, want %v", got.Kind, tt.want)
			}
		})
	}
}

func TestClassify_NormalizesContent(t *testing.T) {
	raw := "A\tB\n1\t2\x00\x00\x00"
	got := Classify(raw)

	if got.Kind != KindText {
		t.Errorf("Classify() kind = %v, want %v", got.Kind, KindText)
	}
	if strings.Contains(got.Content, "\x00") {
		t.Errorf("Classify() content still contains NUL padding: %q", got.Content)
	}
}

func TestNormalize_CFHTMLEnvelope(t *testing.T) {
	raw := "Version:0.9\r\nStartHTML:0000000105\r\nEndHTML:0000000199\r\nStartFragment:0000000141\r\nEndFragment:0000000163\r\n" +
		`<html><body><div data-type="query"><p>T</p></div></body></html>`

	got := Normalize(raw)
	if !strings.HasPrefix(got, "<html>") {
		t.Errorf("Normalize() = %q, want envelope stripped", got)
	}

	if p := Classify(raw); p.Kind != KindKustoHTML {
		t.Errorf("Classify() kind = %v, want %v after envelope strip", p.Kind, KindKustoHTML)
	}
}

func TestNormalize_PlainTextStartingWithVersion(t *testing.T) {
	raw := "Version: 1.2.3\nreleased today"

	if got := Normalize(raw); got != raw {
		t.Errorf("Normalize() = %q, want input unchanged", got)
	}
	if p := Classify(raw); p.Kind != KindText {
		t.Errorf("Classify() kind = %v, want %v", p.Kind, KindText)
	}
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindText, "text"},
		{KindKustoHTML, "kusto-html"},
		{KindGenericHTML, "generic-html"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
