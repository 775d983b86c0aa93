package completions

import (
	"fmt"
	"strings"

	"kqlmd/pkg/config"
	"kqlmd/pkg/history"

	"github.com/spf13/cobra"
)

type Completer struct{}

func NewCompleter() *Completer {
	return &Completer{}
}

// CompleteConversionIDs offers the short IDs of saved conversions with the
// query preview as the description. Any failure completes to nothing rather
// than breaking the shell.
func (c *Completer) CompleteConversionIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := config.Load()
	if err != nil || !cfg.HistoryEnabled() {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}

	dbPath := cfg.History.Path
	if dbPath == "" {
		dbPath = history.DefaultPath()
	}

	store, err := history.Open(dbPath)
	if err != nil {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}
	defer store.Close()

	conversions, err := store.List(50)
	if err != nil {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}

	ids := make([]string, 0, len(conversions))
	for _, conv := range conversions {
		ids = append(ids, fmt.Sprintf("%s\t%s", conv.ShortID(), conv.QueryPreview(40)))
	}

	return c.filterPrefix(ids, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteFormat(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	formats := []string{"table", "markdown", "json", "yaml"}
	results := c.filterPrefix(formats, toComplete)

	for i, format := range results {
		results[i] = fmt.Sprintf("%s\t%s", format, getFormatDescription(format))
	}

	return results, cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteSource(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	sources := []string{
		"kusto-html\tHTML export from Kusto Explorer or the web UI",
		"generic-html\tHTML copied from any other application",
		"text\tTab-separated plain text",
	}

	results := []string{}
	for _, source := range sources {
		parts := strings.Split(source, "\t")
		if strings.HasPrefix(parts[0], toComplete) {
			results = append(results, source)
		}
	}

	return results, cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) CompleteLanguage(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	languages := []string{
		"kql\tKusto Query Language",
		"kusto\tKusto Query Language (alternate tag)",
		"sql\tSQL",
		"text\tNo highlighting",
	}

	results := []string{}
	for _, language := range languages {
		parts := strings.Split(language, "\t")
		if strings.HasPrefix(parts[0], toComplete) {
			results = append(results, language)
		}
	}

	return results, cobra.ShellCompDirectiveNoFileComp
}

func (c *Completer) filterPrefix(items []string, prefix string) []string {
	var result []string
	for _, item := range items {
		itemName := strings.Split(item, "\t")[0]
		if strings.HasPrefix(strings.ToLower(itemName), strings.ToLower(prefix)) {
			result = append(result, item)
		}
	}
	return result
}

func getFormatDescription(format string) string {
	switch format {
	case "table":
		return "Compact listing"
	case "markdown":
		return "Rendered Markdown document"
	case "json":
		return "JSON"
	case "yaml":
		return "YAML"
	default:
		return ""
	}
}

func RegisterCompletions(rootCmd *cobra.Command) {
	completer := NewCompleter()

	convertCmd, _, _ := rootCmd.Find([]string{"convert"})
	if convertCmd != nil {
		convertCmd.RegisterFlagCompletionFunc("format", completer.CompleteFormat)
		convertCmd.RegisterFlagCompletionFunc("language", completer.CompleteLanguage)
	}

	historyListCmd, _, _ := rootCmd.Find([]string{"history", "list"})
	if historyListCmd != nil {
		historyListCmd.RegisterFlagCompletionFunc("format", completer.CompleteFormat)
	}

	historyShowCmd, _, _ := rootCmd.Find([]string{"history", "show"})
	if historyShowCmd != nil {
		historyShowCmd.ValidArgsFunction = completer.CompleteConversionIDs
		historyShowCmd.RegisterFlagCompletionFunc("format", completer.CompleteFormat)
	}

	historySearchCmd, _, _ := rootCmd.Find([]string{"history", "search"})
	if historySearchCmd != nil {
		historySearchCmd.RegisterFlagCompletionFunc("source", completer.CompleteSource)
		historySearchCmd.RegisterFlagCompletionFunc("format", completer.CompleteFormat)
	}

	historyDeleteCmd, _, _ := rootCmd.Find([]string{"history", "delete"})
	if historyDeleteCmd != nil {
		historyDeleteCmd.ValidArgsFunction = completer.CompleteConversionIDs
	}
}
