package cmd

import (
	"fmt"
	"html"
	"strings"

	"kqlmd/pkg/config"
	"kqlmd/pkg/devops"
	"kqlmd/pkg/errors"
	"kqlmd/pkg/kusto"
	"kqlmd/pkg/logger"
	"kqlmd/pkg/progress"

	"github.com/spf13/cobra"
)

var (
	postWorkItem int
	postMessage  string
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Post converted results as a work item comment",
	Long: `Convert the clipboard content and add the result as a comment on an
Azure DevOps work item.

The organization and project come from the config file or environment; when
run inside a repository cloned from Azure DevOps they are inferred from the
origin remote.`,
	Example: `  # Post the clipboard as a comment on work item 1234
  kqlmd post --work-item 1234

  # Add a lead-in message above the results
  kqlmd post --work-item 1234 --message "Impact query for the incident"

  # Preview the comment without posting
  kqlmd post --work-item 1234 --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if postWorkItem <= 0 {
			return errors.ValidationError("--work-item must be a positive work item ID")
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		payload, err := readPayload("")
		if err != nil {
			return err
		}

		result, err := kusto.Convert(payload, renderOptions(cfg, ""))
		if err != nil {
			return err
		}

		if IsDryRun() {
			PrintDryRun("Would post this comment to work item %d:", postWorkItem)
			if postMessage != "" {
				fmt.Println(postMessage)
				fmt.Println()
			}
			fmt.Println(result.Markdown)
			return nil
		}

		ctx, cancel := GetContext()
		defer cancel()

		svc, err := devops.NewService(ctx, cfg)
		if err != nil {
			return err
		}

		logger.Debug().
			Str("organization", svc.Organization()).
			Str("project", svc.Project()).
			Msg("Posting via Azure DevOps")

		spinner := progress.NewSpinner(fmt.Sprintf("Fetching work item %d...", postWorkItem))
		spinner.Start()
		title, err := svc.WorkItemTitle(ctx, postWorkItem)
		spinner.Stop()
		if err != nil {
			return err
		}

		confirmed, err := ConfirmPrompt(fmt.Sprintf("Post conversion to work item %d (%s)?", postWorkItem, title))
		if err != nil {
			return err
		}
		if !confirmed {
			return errors.CancelledError("post comment")
		}

		var url string
		err = progress.WithSpinner("Posting comment...", func() error {
			var postErr error
			url, postErr = svc.AddComment(ctx, postWorkItem, commentBody(result, postMessage))
			return postErr
		})
		if err != nil {
			return err
		}

		logger.Info().Int("work_item", postWorkItem).Msg("Comment posted")
		fmt.Printf("✓ Posted to work item %d\n", postWorkItem)
		fmt.Printf("URL: %s\n", url)
		return nil
	},
}

// commentBody builds the HTML comment. Azure DevOps renders comments as
// HTML, so the rich fragment carries the results and the Markdown only
// appears as a <pre> block when no fragment exists.
func commentBody(result kusto.Result, message string) string {
	var b strings.Builder
	if message != "" {
		b.WriteString("<p>" + html.EscapeString(message) + "</p>")
	}
	if result.HTML != "" {
		b.WriteString(result.HTML)
	} else {
		b.WriteString("<pre>" + html.EscapeString(result.Markdown) + "</pre>")
	}
	return b.String()
}

func init() {
	postCmd.Flags().IntVar(&postWorkItem, "work-item", 0, "Work item ID to comment on (required)")
	postCmd.Flags().StringVar(&postMessage, "message", "", "Lead-in text shown above the results")

	_ = postCmd.MarkFlagRequired("work-item")
}
