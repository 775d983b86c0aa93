package cmd

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"kqlmd/pkg/config"
	"kqlmd/pkg/errors"
	"kqlmd/pkg/filter"
	"kqlmd/pkg/history"
	"kqlmd/pkg/logger"
	"kqlmd/pkg/models"

	"github.com/spf13/cobra"
)

var (
	historyListLimit  int
	historyListFilter string
	historyListFormat string

	historyShowFormat string
	historyShowCopy   bool

	historySearchRegex    string
	historySearchFuzzy    string
	historySearchContains string
	historySearchCluster  string
	historySearchSource   string
	historySearchSince    string
	historySearchLimit    int
	historySearchFormat   string

	historyClearOlderThan int
)

// HistoryEntryOutput represents a saved conversion for structured output
type HistoryEntryOutput struct {
	ID        string `json:"id" yaml:"id"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
	Source    string `json:"source" yaml:"source"`
	Query     string `json:"query,omitempty" yaml:"query,omitempty"`
	Cluster   string `json:"cluster,omitempty" yaml:"cluster,omitempty"`
	Rows      int    `json:"rows" yaml:"rows"`
	Columns   int    `json:"columns" yaml:"columns"`
}

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"hist"},
	Short:   "Conversion history commands",
	Long:    `Commands for browsing and managing saved conversions`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved conversions",
	Long:  `List saved conversions, newest first.`,
	Example: `  # List the most recent conversions
  kqlmd history list

  # List everything
  kqlmd history list --limit 0

  # Fuzzy-filter by query text
  kqlmd history list --filter stormevents

  # Output as JSON
  kqlmd history list --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		limit := historyListLimit
		if historyListFilter != "" {
			limit = 0
		}

		conversions, err := store.List(limit)
		if err != nil {
			return errors.HistoryError(errors.ErrMsgHistoryFailed, err)
		}

		if historyListFilter != "" {
			conversions = filterConversions(conversions, historyListFilter)
			if historyListLimit > 0 && len(conversions) > historyListLimit {
				conversions = conversions[:historyListLimit]
			}
		}

		logger.Info().Int("count", len(conversions)).Msg("Found conversions")

		return printConversions(conversions, historyListFormat)
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved conversion",
	Long: `Show a saved conversion. The ID can be abbreviated to any unique prefix,
such as the eight characters printed by 'history list'.`,
	Example: `  # Print the stored Markdown
  kqlmd history show a1b2c3d4

  # Copy it back to the clipboard
  kqlmd history show a1b2c3d4 --copy

  # Full record as JSON
  kqlmd history show a1b2c3d4 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		conv, err := store.Get(args[0])
		if err != nil {
			return errors.HistoryError(errors.ErrMsgHistoryFailed, err)
		}
		if conv == nil {
			return errors.ConversionNotFoundError(args[0])
		}

		output := NewOutputWriter(historyShowFormat)
		if output.IsStructured() {
			if err := output.Write(conv); err != nil {
				return err
			}
		} else {
			fmt.Println(conv.Markdown)
		}

		if historyShowCopy {
			return CopyWithMessage(conv.Markdown, "✓ Markdown copied to clipboard!")
		}
		return nil
	},
}

var historySearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search saved conversions",
	Long:  `Search saved conversions by query text, cluster, source kind, and age.`,
	Example: `  # Substring match on the query text
  kqlmd history search --contains StormEvents

  # Regex match
  kqlmd history search --regex '^StormEvents\b'

  # Fuzzy match
  kqlmd history search --fuzzy smrz

  # Conversions from one cluster in the last day
  kqlmd history search --cluster help.kusto --since 24h

  # Text-only captures from the last week
  kqlmd history search --source text --since 7d`,
	RunE: func(cmd *cobra.Command, args []string) error {
		since, err := parseSince(historySearchSince)
		if err != nil {
			return err
		}
		if historySearchRegex != "" {
			if _, err := regexp.Compile(historySearchRegex); err != nil {
				return errors.ValidationError(fmt.Sprintf("Invalid --regex pattern: %v", err))
			}
		}

		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		f := &filter.ConversionFilter{
			QueryRegex:    historySearchRegex,
			QueryFuzzy:    historySearchFuzzy,
			QueryContains: historySearchContains,
			Cluster:       historySearchCluster,
			Source:        historySearchSource,
			Since:         since,
		}

		conversions, err := store.Search(f, historySearchLimit)
		if err != nil {
			return errors.HistoryError(errors.ErrMsgHistoryFailed, err)
		}

		logger.Info().Int("count", len(conversions)).Msg("Found conversions")

		return printConversions(conversions, historySearchFormat)
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved conversion",
	Long:  `Delete one saved conversion. The ID can be abbreviated to any unique prefix.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		conv, err := store.Get(args[0])
		if err != nil {
			return errors.HistoryError(errors.ErrMsgHistoryFailed, err)
		}
		if conv == nil {
			return errors.ConversionNotFoundError(args[0])
		}

		details := map[string]string{
			"ID":      conv.ShortID(),
			"Created": FormatTimestamp(conv.CreatedAt),
			"Query":   conv.QueryPreview(60),
		}

		if IsDryRun() {
			PrintDryRunAction("delete conversion", details)
			return nil
		}

		if err := RequireConfirmation("delete this conversion", details); err != nil {
			return err
		}

		if err := store.Delete(conv.ID); err != nil {
			return errors.HistoryError(errors.ErrMsgHistoryFailed, err)
		}

		fmt.Printf("Deleted conversion %s\n", conv.ShortID())
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear conversion history",
	Long:  `Delete saved conversions, either everything or only records older than a cutoff.`,
	Example: `  # Delete everything
  kqlmd history clear

  # Delete records older than 30 days
  kqlmd history clear --older-than 30

  # Skip the prompt
  kqlmd history clear --yes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		count, err := store.Count()
		if err != nil {
			return errors.HistoryError(errors.ErrMsgHistoryFailed, err)
		}
		if count == 0 {
			fmt.Println("History is already empty")
			return nil
		}

		action := "clear all conversion history"
		details := map[string]string{
			"Conversions": strconv.Itoa(count),
		}
		if historyClearOlderThan > 0 {
			action = "prune old conversion history"
			details["Older than"] = fmt.Sprintf("%d days", historyClearOlderThan)
		}

		if IsDryRun() {
			PrintDryRunAction(action, details)
			return nil
		}

		if err := RequireConfirmation(action, details); err != nil {
			return err
		}

		var removed int
		if historyClearOlderThan > 0 {
			cutoff := time.Now().AddDate(0, 0, -historyClearOlderThan)
			removed, err = store.Prune(cutoff)
		} else {
			removed, err = store.Clear()
		}
		if err != nil {
			return errors.HistoryError(errors.ErrMsgHistoryFailed, err)
		}

		fmt.Printf("Removed %d conversion(s)\n", removed)
		return nil
	},
}

// historyPath resolves the database location, config first, then the user
// cache directory.
func historyPath(cfg *config.Config) string {
	if cfg.History.Path != "" {
		return cfg.History.Path
	}
	return history.DefaultPath()
}

func openHistory() (*history.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	store, err := history.Open(historyPath(cfg))
	if err != nil {
		return nil, errors.HistoryError("Failed to open history database", err)
	}
	return store, nil
}

func filterConversions(conversions []models.Conversion, fuzzy string) []models.Conversion {
	filtered := []models.Conversion{}
	for _, conv := range conversions {
		if filter.FuzzyMatch(fuzzy, conv.Query) || filter.FuzzyMatch(fuzzy, conv.ClusterURL) {
			filtered = append(filtered, conv)
		}
	}
	return filtered
}

func printConversions(conversions []models.Conversion, format string) error {
	output := NewOutputWriter(format)

	if output.IsStructured() {
		entries := make([]HistoryEntryOutput, 0, len(conversions))
		for _, conv := range conversions {
			entries = append(entries, mapToHistoryEntryOutput(conv))
		}
		return output.Write(entries)
	}

	if len(conversions) == 0 {
		fmt.Println("No saved conversions")
		return nil
	}

	for _, conv := range conversions {
		fmt.Printf("%s  %s  %-12s  %3dx%-3d  %s\n",
			conv.ShortID(),
			FormatTimestamp(conv.CreatedAt),
			conv.Source,
			conv.Rows,
			conv.Columns,
			conv.QueryPreview(60))
	}
	fmt.Printf("\n%d conversion(s)\n", len(conversions))
	return nil
}

func mapToHistoryEntryOutput(conv models.Conversion) HistoryEntryOutput {
	return HistoryEntryOutput{
		ID:        conv.ID,
		CreatedAt: conv.CreatedAt.Format(time.RFC3339),
		Source:    conv.Source,
		Query:     conv.Query,
		Cluster:   conv.ClusterURL,
		Rows:      conv.Rows,
		Columns:   conv.Columns,
	}
}

// parseSince accepts Go durations ("24h", "90m") plus a day suffix ("7d")
// that time.ParseDuration does not know.
func parseSince(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil || days < 0 {
			return time.Time{}, errors.ValidationError(fmt.Sprintf("Invalid --since value '%s': expected a duration like 24h or 7d", s))
		}
		return time.Now().AddDate(0, 0, -days), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return time.Time{}, errors.ValidationError(fmt.Sprintf("Invalid --since value '%s': expected a duration like 24h or 7d", s))
	}
	return time.Now().Add(-d), nil
}

func init() {
	historyListCmd.Flags().IntVar(&historyListLimit, "limit", 20, "Maximum records to list (0 for all)")
	historyListCmd.Flags().StringVar(&historyListFilter, "filter", "", "Fuzzy-filter records by query text or cluster")
	historyListCmd.Flags().StringVar(&historyListFormat, "format", "table", "Output format (table, json, yaml)")

	historyShowCmd.Flags().StringVar(&historyShowFormat, "format", "markdown", "Output format (markdown, json, yaml)")
	historyShowCmd.Flags().BoolVar(&historyShowCopy, "copy", false, "Copy the stored Markdown back to the clipboard")

	historySearchCmd.Flags().StringVar(&historySearchRegex, "regex", "", "Match query text by regex")
	historySearchCmd.Flags().StringVar(&historySearchFuzzy, "fuzzy", "", "Match query text by fuzzy subsequence")
	historySearchCmd.Flags().StringVar(&historySearchContains, "contains", "", "Match query text by substring")
	historySearchCmd.Flags().StringVar(&historySearchCluster, "cluster", "", "Match cluster URL by substring")
	historySearchCmd.Flags().StringVar(&historySearchSource, "source", "", "Match source kind (kusto-html, generic-html, text)")
	historySearchCmd.Flags().StringVar(&historySearchSince, "since", "", "Only records newer than this (e.g. 24h, 7d)")
	historySearchCmd.Flags().IntVar(&historySearchLimit, "limit", 0, "Maximum records to return (0 for all)")
	historySearchCmd.Flags().StringVar(&historySearchFormat, "format", "table", "Output format (table, json, yaml)")

	historyClearCmd.Flags().IntVar(&historyClearOlderThan, "older-than", 0, "Only delete records older than this many days")
}
