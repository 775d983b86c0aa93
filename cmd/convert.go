package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"kqlmd/pkg/clipboard"
	"kqlmd/pkg/config"
	"kqlmd/pkg/errors"
	"kqlmd/pkg/history"
	"kqlmd/pkg/kusto"
	"kqlmd/pkg/logger"
	"kqlmd/pkg/models"

	"github.com/spf13/cobra"
)

var (
	convertInput     string
	convertOutput    string
	convertFormat    string
	convertLanguage  string
	convertNoCopy    bool
	convertPlain     bool
	convertNoHistory bool
)

// ConversionOutput represents a conversion for structured output
type ConversionOutput struct {
	Source     string            `json:"source" yaml:"source"`
	Extraction models.Extraction `json:"extraction" yaml:"extraction"`
	Markdown   string            `json:"markdown" yaml:"markdown"`
}

var convertCmd = &cobra.Command{
	Use:     "convert",
	Aliases: []string{"c", "md"},
	Short:   "Convert copied Kusto results to Markdown",
	Long: `Convert the clipboard content produced by copying results out of Kusto
Explorer or the Azure Data Explorer web UI into a Markdown document with the
query in a fenced code block and the results as a pipe table.

The Markdown is printed to stdout and written back to the clipboard so it
can be pasted straight into a wiki page, pull request or work item.`,
	Example: `  # Convert whatever is on the clipboard
  kqlmd convert

  # Convert a saved export file
  kqlmd convert --input results.html

  # Convert stdin, print only
  cat results.html | kqlmd convert --input - --no-copy

  # Dump the structured extraction instead of Markdown
  kqlmd convert --format json

  # Write the Markdown to a file
  kqlmd convert --output results.md`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		payload, err := readPayload(convertInput)
		if err != nil {
			return err
		}

		result, err := kusto.Convert(payload, renderOptions(cfg, convertLanguage))
		if err != nil {
			return err
		}

		logger.Info().
			Str("source", result.Kind.String()).
			Int("rows", len(result.Extraction.Table.Rows)).
			Msg("Converted clipboard content")

		if err := writeResult(result); err != nil {
			return err
		}

		if !convertNoCopy {
			if IsDryRun() {
				PrintDryRun("Would copy %d characters of Markdown back to the clipboard", len(result.Markdown))
			} else if err := copyResult(cfg, result); err != nil {
				return err
			}
		}

		if !IsDryRun() {
			saveHistory(cfg, result)
		}
		return nil
	},
}

// readPayload reads and classifies the conversion input. An empty path means
// the clipboard, "-" means stdin.
func readPayload(input string) (kusto.Payload, error) {
	switch input {
	case "":
		return kusto.FromSource(clipboard.System{})
	case "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return kusto.Payload{}, errors.FileError("Failed to read stdin", err)
		}
		return kusto.Classify(string(data)), nil
	default:
		data, err := os.ReadFile(input)
		if err != nil {
			return kusto.Payload{}, errors.FileError(fmt.Sprintf("Failed to read input file '%s'", input), err)
		}
		return kusto.Classify(string(data)), nil
	}
}

// renderOptions merges config values over the rendering defaults. A
// non-empty language overrides both.
func renderOptions(cfg *config.Config, language string) kusto.Options {
	opts := kusto.DefaultOptions()
	if cfg.Render.Language != "" {
		opts.Language = cfg.Render.Language
	}
	if cfg.Render.MinCellWidth > 0 {
		opts.MinCellWidth = cfg.Render.MinCellWidth
	}
	opts.LinkifyCells = cfg.LinkifyEnabled()
	if language != "" {
		opts.Language = language
	}
	return opts
}

func writeResult(result kusto.Result) error {
	output := NewOutputWriter(convertFormat)

	if output.IsStructured() {
		if convertOutput != "" {
			f, err := os.OpenFile(convertOutput, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
			if err != nil {
				return errors.FileError(fmt.Sprintf("Failed to write output file '%s'", convertOutput), err)
			}
			defer f.Close()
			output.SetWriter(f)
		}
		return output.Write(ConversionOutput{
			Source:     result.Kind.String(),
			Extraction: result.Extraction,
			Markdown:   result.Markdown,
		})
	}

	content := result.Markdown
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}

	if convertOutput != "" {
		if err := os.WriteFile(convertOutput, []byte(content), 0600); err != nil {
			return errors.FileError(fmt.Sprintf("Failed to write output file '%s'", convertOutput), err)
		}
		fmt.Fprintf(os.Stderr, "Markdown written to %s\n", convertOutput)
		return nil
	}

	fmt.Print(content)
	return nil
}

// copyResult writes the conversion back to the clipboard, rich dual-format
// when configured and available, plain text otherwise.
func copyResult(cfg *config.Config, result kusto.Result) error {
	var sink kusto.Sink = clipboard.System{}

	if cfg.RichEnabled() && !convertPlain && result.HTML != "" {
		err := sink.WriteRich(kusto.WrapHTMLDocument(result.HTML), result.Markdown)
		if err == nil {
			fmt.Fprintln(os.Stderr, "✓ Markdown copied to clipboard!")
			return nil
		}
		logger.Debug().Err(err).Msg("Rich clipboard write failed, falling back to plain text")
	}

	if err := sink.Write(result.Markdown); err != nil {
		return errors.ClipboardWriteError(err)
	}
	fmt.Fprintln(os.Stderr, "✓ Markdown copied to clipboard!")
	return nil
}

// saveHistory records a successful conversion. History failures never fail
// the conversion, they only log.
func saveHistory(cfg *config.Config, result kusto.Result) {
	if convertNoHistory || !cfg.HistoryEnabled() {
		return
	}

	store, err := history.Open(historyPath(cfg))
	if err != nil {
		logger.Warn().Err(err).Msg("Skipping history: could not open database")
		return
	}
	defer store.Close()

	if cfg.History.KeepDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -cfg.History.KeepDays)
		if _, err := store.Prune(cutoff); err != nil {
			logger.Warn().Err(err).Msg("Failed to prune old history records")
		}
	}

	saved, err := store.Save(models.Conversion{
		Source:     result.Kind.String(),
		Query:      result.Extraction.Query,
		ClusterURL: result.Extraction.ClusterURL,
		Rows:       len(result.Extraction.Table.Rows),
		Columns:    result.Extraction.Table.ColumnCount(),
		Markdown:   result.Markdown,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to save conversion to history")
		return
	}
	logger.Debug().Str("id", saved.ShortID()).Msg("Saved conversion to history")
}

func init() {
	convertCmd.Flags().StringVarP(&convertInput, "input", "i", "", "Read input from a file instead of the clipboard ('-' for stdin)")
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "Write the result to a file instead of stdout")
	convertCmd.Flags().StringVar(&convertFormat, "format", "markdown", "Output format (markdown, json, yaml)")
	convertCmd.Flags().StringVar(&convertLanguage, "language", "", "Code fence language tag for the query block (default from config, then kql)")
	convertCmd.Flags().BoolVar(&convertNoCopy, "no-copy", false, "Print only, do not write the result back to the clipboard")
	convertCmd.Flags().BoolVar(&convertPlain, "plain", false, "Write plain text only, no rich text/html clipboard format")
	convertCmd.Flags().BoolVar(&convertNoHistory, "no-history", false, "Do not record this conversion in the history database")
}
