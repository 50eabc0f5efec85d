package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/corey/sieve/internal/domain/blocklist"
)

var redactChar string

var redactCmd = &cobra.Command{
	Use:   "redact [path...]",
	Short: "Copy input to stdout with pattern hits masked",
	Long: `Rewrite input with every codepoint covered by a pattern occurrence
replaced by the replacement character. Reads stdin when no paths are given.`,
	Args:          cobra.ArbitraryArgs,
	RunE:          runRedact,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	redactCmd.Flags().StringVar(&redactChar, "char", "*", "replacement character (single codepoint)")
}

func runRedact(cmd *cobra.Command, args []string) error {
	if utf8.RuneCountInString(redactChar) != 1 {
		fmt.Fprintln(os.Stderr, "redact: --char must be a single character")
		return scanExit{2}
	}
	replacement, _ := utf8.DecodeRuneInString(redactChar)

	eng, err := loadEngine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "redact: %v\n", err)
		return scanExit{2}
	}

	if len(args) == 0 {
		return redactStream(eng, replacement, os.Stdin)
	}

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "redact: %s: %v\n", path, err)
			return scanExit{2}
		}
		os.Stdout.WriteString(eng.Redact(string(data), replacement))
	}
	return nil
}

// redactStream masks r line by line, flushing as it goes so a pipeline
// reader sees each line as soon as it is scanned.
func redactStream(eng *blocklist.Engine, replacement rune, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	for scanner.Scan() {
		fmt.Println(eng.Redact(scanner.Text(), replacement))
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "redact: %v\n", err)
		return scanExit{2}
	}
	return nil
}
