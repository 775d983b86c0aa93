package kusto

import (
	"strings"

	"kqlmd/pkg/errors"
	"kqlmd/pkg/logger"
	"kqlmd/pkg/models"
)

// Source reads raw clipboard content. The OS clipboard satisfies it in
// normal use; tests substitute fixed content.
type Source interface {
	// ReadHTML returns the text/html clipboard format, or "" when the
	// clipboard holds none
	ReadHTML() (string, error)
	// ReadText returns the plain text clipboard format
	ReadText() (string, error)
}

// Sink writes a converted document back to the clipboard
type Sink interface {
	Write(plain string) error
	// WriteRich offers both text/html and plain text formats to pasting
	// applications
	WriteRich(html, plain string) error
}

// Result is the outcome of one conversion
type Result struct {
	Markdown   string
	HTML       string
	Extraction models.Extraction
	Kind       Kind
}

// FromSource reads the preferred clipboard format and classifies it.
// text/html is preferred because Kusto tools put their structured export
// there; plain text is the fallback. Blank or unreadable content in both
// formats is empty input.
func FromSource(src Source) (Payload, error) {
	htmlContent, err := src.ReadHTML()
	if err == nil && strings.TrimSpace(Normalize(htmlContent)) != "" {
		return Classify(htmlContent), nil
	}
	if err != nil {
		logger.Debug().Err(err).Msg("clipboard html read failed, falling back to plain text")
	}

	text, err := src.ReadText()
	if err != nil {
		logger.Debug().Err(err).Msg("clipboard text read failed")
		return Payload{}, errors.EmptyInputError()
	}
	if strings.TrimSpace(Normalize(text)) == "" {
		return Payload{}, errors.EmptyInputError()
	}
	return Classify(text), nil
}

// Convert runs the two-stage transform for one payload: extraction into the
// structured form, then rendering. Generic HTML skips extraction and is
// converted wholesale.
func Convert(p Payload, opts Options) (Result, error) {
	if strings.TrimSpace(p.Content) == "" {
		return Result{}, errors.EmptyInputError()
	}

	if p.Kind == KindGenericHTML {
		// Keep the source HTML for rich clipboard writes; the Markdown
		// becomes the plain text side
		return Result{
			Markdown: strings.TrimSpace(ConvertGenericHTML(p.Content)),
			HTML:     p.Content,
			Kind:     p.Kind,
		}, nil
	}

	extraction, err := Extract(p)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Markdown:   RenderMarkdown(extraction, opts),
		HTML:       RenderHTML(extraction),
		Extraction: extraction,
		Kind:       p.Kind,
	}, nil
}
