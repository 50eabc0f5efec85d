package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/corey/sieve/internal/adapters/bbolt"
	"github.com/corey/sieve/internal/app"
	"github.com/corey/sieve/internal/domain/blocklist"
)

var (
	compileOutput string
	compileCache  bool
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Build a pattern table and persist it",
	Long: `Compile the pattern source into a match table and write it to a file
(--output) and/or the table cache (--cache). Daemons and one-shot scans
then load the table instead of rebuilding it from the raw list.`,
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "write the encoded table to FILE")
	compileCmd.Flags().BoolVar(&compileCache, "cache", false, "store the table in the cache database")
}

func runCompile(cmd *cobra.Command, args []string) error {
	if compileOutput == "" && !compileCache {
		return fmt.Errorf("nothing to do: pass --output FILE and/or --cache")
	}

	patterns, err := blocklist.Resolve(listSource())
	if err != nil {
		return err
	}

	eng, err := blocklist.New(patterns)
	if err != nil {
		return err
	}

	table := eng.Table()
	data, err := bbolt.EncodeTable(table)
	if err != nil {
		return err
	}

	stats := eng.Stats()
	fmt.Printf("%s⚡ compiled %d patterns%s │ %d nodes │ %s │ %s\n",
		colorBold, stats.Patterns, colorReset, stats.Nodes,
		formatBytes(len(data)), stats.BuildTime.Round(time.Millisecond))

	if compileOutput != "" {
		if err := os.WriteFile(compileOutput, data, 0644); err != nil {
			return fmt.Errorf("write table: %w", err)
		}
		fmt.Printf("  table → %s\n", compileOutput)
	}

	if compileCache {
		paths := app.NewPaths(app.DefaultRoot())
		if err := paths.EnsureDirs(); err != nil {
			return fmt.Errorf("state dir: %w", err)
		}
		store, err := bbolt.NewStore(paths.DB)
		if err != nil {
			if isDBLockError(err) {
				return fmt.Errorf("cannot cache: %s", diagnoseDBLock(listSource()))
			}
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()

		key := bbolt.KeyForPatterns(patterns)
		if err := store.SaveTable(key, table); err != nil {
			return fmt.Errorf("cache table: %w", err)
		}
		fmt.Printf("  cache → %s (%s…)\n", paths.DB, key[:12])
	}
	return nil
}
