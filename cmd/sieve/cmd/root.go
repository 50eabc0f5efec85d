package cmd

import (
	"github.com/spf13/cobra"
)

var listFlag string

var rootCmd = &cobra.Command{
	Use:   "sieve",
	Short: "sieve — multi-pattern text filter",
	Long:  "Blocklist scanning, redaction, and live stream filtering backed by compiled pattern tables.",
}

// listSource returns the pattern source selected with --list.
func listSource() string {
	return listFlag
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&listFlag, "list", "l", "builtin:secrets",
		"pattern source: a file path or builtin:NAME")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(redactCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(listsCmd)
	rootCmd.AddCommand(tailCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(statsCmd)
}
