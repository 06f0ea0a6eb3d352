// Command recut rewrites Git history: splitting uncommitted changes into
// semantic commits, fixing the content of a landed commit in place, or
// sweeping a whole branch — without ever touching a ref until the final,
// single compare-and-swap update.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/recut-dev/recut/cmd/recut/commands"
	"github.com/recut-dev/recut/internal/rewritelog"
)

func main() {
	_, shutdown := rewritelog.InitTracer()
	defer shutdown(context.Background())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd := newRootCommand()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "recut: interrupted")
			os.Exit(130)
		}

		fmt.Fprintln(os.Stderr, "recut:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "recut",
		Short:         "A Git history rewrite engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("log-format", "text", "log output format: text or json")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, or error")

	rootCmd.AddCommand(
		commands.NewCommitCommand(),
		commands.NewFixCommand(),
		commands.NewCleanCommand(),
	)

	return rootCmd
}
