// Package cli implements the Cobra-based command-line interface for c2n.
//
// The CLI provides five commands — init, clone, push, pull, status —
// wired against the Index Store, Remote Client, Push/Pull Engines and
// Merge Engine. clone, push and pull print a report.Report summary table;
// every command exits 0 on success, 1 on operational failure, 2 on usage
// error.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
)

var (
	// Version information set at build time.
	version = "dev"
	commit  = "none"
	date    = "unknown"

	verbose bool
)

// SetVersion sets the version information for the CLI.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = v
	rootCmd.SetVersionTemplate(fmt.Sprintf("c2n %s (commit: %s, built: %s)\n", version, commit, date))
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "c2n",
	Short: "Bidirectional sync between a local directory tree and Notion",
	Long: `c2n synchronizes a local tree of Markdown and code files with a
Notion page subtree. It offers a version-control-style workflow —
init, clone, push, pull, status — with content-hash based change
detection and line-granularity auto-merge.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.SetVersionTemplate(fmt.Sprintf("c2n %s (commit: %s, built: %s)\n", version, commit, date))

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(cloneCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(statusCmd)
}

// exit codes per spec §6.
const (
	exitOK    = 0
	exitFatal = 1
	exitUsage = 2
)

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if isUsageError(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return exitUsage
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitFatal
	}
	return exitOK
}

// usageError marks an error cobra should report as a usage failure
// (exit 2) rather than an operational one (exit 1).
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func newUsageError(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func isUsageError(err error) bool {
	var ue *usageError
	return errors.As(err, &ue)
}

// gracePeriod is how long a command has to wind down after SIGINT
// before the process is killed outright (spec §5).
const gracePeriod = 10 * time.Second

// newRunContext returns a context cancelled on the first SIGINT,
// giving the running command gracePeriod to finish in-flight work
// before the grace timeout force-exits the process.
func newRunContext() (context.Context, func()) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			select {
			case <-time.After(gracePeriod):
				fmt.Fprintln(os.Stderr, "grace period expired, forcing exit")
				os.Exit(130)
			case <-done:
			}
		case <-done:
		}
	}()

	return ctx, func() {
		close(done)
		stop()
	}
}
