package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corey/sieve/internal/adapters/socket"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show counters from the running daemon",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	client := socket.NewClient(socket.SocketPath(listSource()))

	if !client.Ping() {
		return fmt.Errorf("daemon not running. Start with: sieve daemon start")
	}

	result, err := client.Stats()
	if err != nil {
		return err
	}

	fmt.Print(formatStats(result))
	return nil
}
