package kusto

import (
	"strings"

	"kqlmd/pkg/logger"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/strikethrough"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// ConvertGenericHTML converts HTML that did not come from a Kusto tool into
// Markdown wholesale, so copying a wiki page or a rendered table still
// produces something pasteable. Returns the input unchanged when conversion
// fails.
func ConvertGenericHTML(content string) string {
	if content == "" {
		return ""
	}

	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			strikethrough.NewStrikethroughPlugin(),
			table.NewTablePlugin(),
		),
	)

	markdown, err := conv.ConvertString(content)
	if err != nil {
		logger.Warn().Err(err).Msg("html to markdown conversion failed, keeping original content")
		return content
	}

	// The converter escapes characters that are safe in the places we paste
	markdown = strings.ReplaceAll(markdown, `\!\[`, `![`)
	markdown = strings.ReplaceAll(markdown, `\[`, `[`)
	markdown = strings.ReplaceAll(markdown, `\]`, `]`)
	markdown = strings.ReplaceAll(markdown, `\_`, `_`)

	return markdown
}
