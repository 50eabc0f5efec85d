package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	scanCount     bool
	scanQuiet     bool
	scanFilesOnly bool
	scanNoFile    bool
	scanMaxCount  int
	scanRecursive bool
	scanColor     string
	scanNoColor   bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [path...]",
	Short: "Scan files or stdin for pattern hits",
	Long: `Scan input line by line and print every pattern hit as file:line:col: pattern.
With no paths, reads stdin. Exit status follows grep: 0 hits, 1 none, 2 error.`,
	Args:          cobra.ArbitraryArgs,
	RunE:          runScan,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	scanCmd.Flags().BoolVarP(&scanCount, "count", "c", false, "print only hit counts per input")
	scanCmd.Flags().BoolVarP(&scanQuiet, "quiet", "q", false, "no output, exit status only")
	scanCmd.Flags().BoolVar(&scanFilesOnly, "files-with-matches", false, "print only names of files with hits")
	scanCmd.Flags().BoolVar(&scanNoFile, "no-filename", false, "omit file names from output")
	scanCmd.Flags().IntVarP(&scanMaxCount, "max-count", "m", 0, "stop each input after N hits (0 = unlimited)")
	scanCmd.Flags().BoolVarP(&scanRecursive, "recursive", "r", false, "descend into directories")
	scanCmd.Flags().StringVar(&scanColor, "color", "auto", "colorize output: auto, always, never")
	scanCmd.Flags().BoolVar(&scanNoColor, "no-color", false, "disable color output")
}

func runScan(cmd *cobra.Command, args []string) error {
	eng, err := loadEngine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan: %v\n", err)
		return scanExit{2}
	}

	opts := scanOutputOpts{
		countOnly:  scanCount,
		quiet:      scanQuiet,
		filesOnly:  scanFilesOnly,
		noFilename: scanNoFile,
		maxCount:   scanMaxCount,
		recursive:  scanRecursive,
		color:      resolveColor(scanColor, scanNoColor),
	}

	if len(args) == 0 {
		if !isStdinPipe() {
			fmt.Fprintln(os.Stderr, "scan: no input (pipe data in or name files)")
			return scanExit{2}
		}
		return scanStdin(eng, opts)
	}
	return scanPaths(eng, args, opts)
}
