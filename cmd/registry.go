package cmd

import "github.com/spf13/cobra"

func RegisterCommands(root *cobra.Command) {
	root.AddCommand(versionCmd)
	root.AddCommand(clipboardServeCmd)

	root.AddCommand(convertCmd)
	root.AddCommand(historyCmd)
	root.AddCommand(postCmd)
	root.AddCommand(configCmd)

	historyCmd.AddCommand(
		historyListCmd,
		historyShowCmd,
		historySearchCmd,
		historyDeleteCmd,
		historyClearCmd,
	)

	configCmd.AddCommand(
		configShowCmd,
		configPathCmd,
		configInitCmd,
	)
}
