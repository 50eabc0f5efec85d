package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/corey/sieve/internal/adapters/tailer"
)

var (
	tailRedact    bool
	tailFromStart bool
)

var tailCmd = &cobra.Command{
	Use:   "tail FILE",
	Short: "Follow a file and report hits live",
	Long: `Follow FILE like tail -f and scan every appended line, printing hits
as they land. Line numbers count from where the follow began. --redact
prints each line with hits masked instead of reporting positions.`,
	Args: cobra.ExactArgs(1),
	RunE: runTail,
}

func init() {
	tailCmd.Flags().BoolVar(&tailRedact, "redact", false, "print redacted lines instead of findings")
	tailCmd.Flags().BoolVar(&tailFromStart, "from-start", false, "replay the file from the beginning")
}

func runTail(cmd *cobra.Command, args []string) error {
	eng, err := loadEngine()
	if err != nil {
		return err
	}

	opts := scanOutputOpts{color: isStdoutTTY()}
	lineNum := 0
	tl := tailer.New(tailer.Config{
		Path:      args[0],
		FromStart: tailFromStart,
		Callback: func(line string) {
			lineNum++
			if tailRedact {
				fmt.Println(eng.Redact(line, '*'))
				return
			}
			for _, m := range eng.Scan(line) {
				printHit(opts, args[0], lineNum, m.Start+1, m.Pattern)
			}
		},
	})
	tl.Start()
	defer tl.Stop()

	fmt.Fprintf(os.Stderr, "⚡ following %s (Ctrl-C to stop)\n", args[0])

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	return nil
}
