package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"kqlmd/pkg/completions"
	"kqlmd/pkg/config"
	"kqlmd/pkg/errors"
	"kqlmd/pkg/logger"

	"github.com/spf13/cobra"
)

const (
	unknownValue = "unknown"
)

var (
	Version   string
	BuildTime string
	GitCommit string
)

var defaultTimeout = 30 * time.Second
var globalTimeout time.Duration
var dryRunFlag bool
var assumeYesFlag bool
var logLevel string

var rootCmd = &cobra.Command{
	Use:   "kqlmd",
	Short: "Kusto query results to Markdown",
	Long: `CLI tool that converts query results copied from Kusto Explorer or the
Azure Data Explorer web UI into Markdown. Reads the clipboard, renders the
query and result table as a Markdown document, and writes it back so it can
be pasted into wikis, pull requests and work items.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if globalTimeout <= 0 {
			globalTimeout = defaultTimeout
		}
		// Set log level: explicit flag, then env var, then config file
		level := logLevel
		if !cmd.Flags().Changed("log-level") {
			if envLevel := os.Getenv("KQLMD_LOG_LEVEL"); envLevel != "" {
				level = envLevel
			} else if cfg, err := config.Load(); err == nil && cfg.LogLevel != "" {
				level = cfg.LogLevel
			}
		}
		logger.SetLevel(level)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		ver := Version
		if ver == "" {
			ver = "dev"
		}
		bt := BuildTime
		if bt == "" {
			bt = unknownValue
		}
		gc := GitCommit
		if gc == "" {
			gc = unknownValue
		}

		fmt.Printf("kqlmd version %s\n", ver)
		fmt.Printf("Built: %s\n", bt)
		fmt.Printf("Git commit: %s\n", gc)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		exitCode := errors.HandleReturn(err)
		os.Exit(int(exitCode))
	}
}

func GetContext() (context.Context, context.CancelFunc) {
	timeout := globalTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(context.Background(), timeout)
}

func init() {
	RegisterCommands(rootCmd)

	rootCmd.PersistentFlags().DurationVar(&globalTimeout, "timeout", defaultTimeout, "Timeout for API requests (e.g., 30s, 1m)")
	rootCmd.PersistentFlags().BoolVar(&dryRunFlag, "dry-run", false, "Show what would be done without making changes")
	rootCmd.PersistentFlags().BoolVarP(&assumeYesFlag, "yes", "y", false, "Skip confirmation prompts")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error, fatal, panic)")

	completions.RegisterCompletions(rootCmd)
}
