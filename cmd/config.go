package cmd

import (
	"fmt"
	"os"

	"kqlmd/pkg/config"
	"kqlmd/pkg/errors"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage kqlmd configuration",
	Long:  `Inspect and initialize the kqlmd configuration file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after the config file and environment overrides.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		source := path
		if _, err := os.Stat(path); err != nil {
			source = "(no config file, using defaults)"
		}

		fmt.Println("Current Configuration:")
		fmt.Println("======================")
		fmt.Printf("Config file: %s\n", source)
		fmt.Println()
		fmt.Println("Render:")
		fmt.Printf("  Language: %s\n", cfg.Render.Language)
		fmt.Printf("  Min cell width: %d\n", cfg.Render.MinCellWidth)
		fmt.Printf("  Linkify cells: %t\n", cfg.LinkifyEnabled())
		fmt.Println()
		fmt.Println("Clipboard:")
		fmt.Printf("  Rich: %t\n", cfg.RichEnabled())
		fmt.Println()
		fmt.Println("History:")
		fmt.Printf("  Enabled: %t\n", cfg.HistoryEnabled())
		fmt.Printf("  Path: %s\n", historyPath(cfg))
		fmt.Printf("  Keep days: %d\n", cfg.History.KeepDays)
		fmt.Println()
		fmt.Println("Azure DevOps:")
		fmt.Printf("  Organization: %s\n", cfg.Azure.Organization)
		fmt.Printf("  Project: %s\n", cfg.Azure.Project)
		fmt.Printf("  Token: %s\n", func() string {
			if cfg.Azure.PersonalAccessToken == "" {
				return "(not set)"
			}
			return "(set)"
		}())
		level := cfg.LogLevel
		if level == "" {
			level = "warn"
		}
		fmt.Println()
		fmt.Printf("Log level: %s\n", level)

		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long:  `Write a config file with the default settings to the user config directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}

		if _, err := os.Stat(path); err == nil {
			confirmed, err := ConfirmPrompt(fmt.Sprintf("Config file %s already exists. Overwrite", path))
			if err != nil {
				return err
			}
			if !confirmed {
				return errors.CancelledError("overwrite config file")
			}
		}

		if err := config.Save(config.Default()); err != nil {
			return err
		}

		fmt.Printf("Config written to %s\n", path)
		return nil
	},
}
