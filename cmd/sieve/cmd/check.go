package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [path...]",
	Short: "Test inputs for pattern hits, exit status only",
	Long: `Silently test whole inputs for any pattern occurrence (grep -q analogue).
Exit status 0 when any input contains a pattern, 1 when none do, 2 on error.`,
	Args:          cobra.ArbitraryArgs,
	RunE:          runCheck,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func runCheck(cmd *cobra.Command, args []string) error {
	eng, err := loadEngine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "check: %v\n", err)
		return scanExit{2}
	}

	if len(args) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "check: %v\n", err)
			return scanExit{2}
		}
		if eng.Check(string(data)) {
			return scanExit{0}
		}
		return scanExit{1}
	}

	errOccurred := false
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "check: %s: %v\n", path, err)
			errOccurred = true
			continue
		}
		if eng.Check(string(data)) {
			return scanExit{0}
		}
	}

	if errOccurred {
		return scanExit{2}
	}
	return scanExit{1}
}
