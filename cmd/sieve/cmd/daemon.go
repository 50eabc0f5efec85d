package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/corey/sieve/internal/adapters/socket"
	"github.com/corey/sieve/internal/app"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the sieve daemon",
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a daemon for the configured list",
	RunE:  runDaemonStart,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon",
	RunE:  runDaemonStop,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check daemon status",
	RunE:  runDaemonStatus,
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	source := listSource()
	sockPath := socket.SocketPath(source)

	// Check if already running
	client := socket.NewClient(sockPath)
	if client.Ping() {
		fmt.Println("⚡ daemon already running")
		return nil
	}

	// Create fully wired app (store, engine, watcher, socket server)
	a, err := app.New(app.Config{Source: source})
	if err != nil {
		if isDBLockError(err) {
			return fmt.Errorf("cannot start: %s", diagnoseDBLock(source))
		}
		return fmt.Errorf("init: %w", err)
	}

	if err := a.Start(); err != nil {
		return err
	}

	fmt.Printf("⚡ sieve daemon started at %s\n", sockPath)

	// Wait for a signal or a stop request over the socket
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-a.Server.ShutdownCh():
	}

	fmt.Println("\n⚡ shutting down...")
	return a.Stop()
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	client := socket.NewClient(socket.SocketPath(listSource()))
	if !client.Ping() {
		fmt.Println("⚡ daemon is not running")
		return nil
	}

	if err := client.Stop(); err != nil {
		return err
	}

	fmt.Println("⚡ daemon stopped")
	return nil
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	client := socket.NewClient(socket.SocketPath(listSource()))
	if !client.Ping() {
		fmt.Println("⚡ sieve daemon is not running")
		return nil
	}

	info, err := client.Info()
	if err != nil {
		return err
	}

	fmt.Print(formatDaemonStatus(info))
	return nil
}
