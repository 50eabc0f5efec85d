package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/corey/sieve/internal/adapters/bbolt"
	"github.com/corey/sieve/internal/domain/automaton"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Validate and describe an exported table file",
	Long: `Decode a table written by compile --output, run full structural
validation, and print its stats. Corrupt or inconsistent tables exit 2
with the decoder's diagnosis.`,
	Args:          cobra.ExactArgs(1),
	RunE:          runInspect,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func runInspect(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "inspect: %v\n", err)
		return scanExit{2}
	}

	table, err := bbolt.DecodeTable(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "inspect: %s: %v\n", args[0], err)
		return scanExit{2}
	}

	ac, err := automaton.FromTable(table)
	if err != nil {
		fmt.Fprintf(os.Stderr, "inspect: %s: %v\n", args[0], err)
		return scanExit{2}
	}

	fmt.Printf("%s⚡ valid table%s │ %s\n", colorBold, colorReset, formatBytes(len(data)))
	fmt.Printf("  Patterns:  %d\n", ac.PatternCount())
	fmt.Printf("  Nodes:     %d\n", ac.NodeCount())

	patterns := ac.Patterns()
	show := len(patterns)
	if show > 5 {
		show = 5
	}
	for _, p := range patterns[:show] {
		fmt.Printf("    %s%s%s\n", colorGray, p, colorReset)
	}
	if len(patterns) > show {
		fmt.Printf("    %s… %d more%s\n", colorGray, len(patterns)-show, colorReset)
	}
	return nil
}
