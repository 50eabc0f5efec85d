package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corey/sieve/internal/domain/blocklist"
)

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Show the embedded pattern lists",
	RunE:  runLists,
}

func runLists(cmd *cobra.Command, args []string) error {
	builtins := blocklist.Builtins()
	fmt.Printf("%s⚡ %d builtin lists%s\n", colorBold, len(builtins), colorReset)
	for _, b := range builtins {
		fmt.Printf("  %sbuiltin:%s%s  %d patterns", colorCyan, b.Name, colorReset, b.Patterns)
		if b.Description != "" {
			fmt.Printf("  %s%s%s", colorGray, b.Description, colorReset)
		}
		fmt.Println()
	}
	return nil
}
