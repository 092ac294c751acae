// Package cli provides the command-line interface for printstash.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/printstash/printstash/internal/logging"
	"github.com/printstash/printstash/internal/version"
)

var (
	// Global flags
	cfgFile   string
	apiKey    string
	serverURL string
	verbose   bool

	// Global logger
	logger *logging.Logger
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "printstash",
		Short: "printstash - manage 3D-printing projects and their files",
		Long: `printstash ` + version.Version + ` - Built: ` + version.BuildTime + `
Client for a printstash server: list and scan 3D-printing projects,
and upload, download, rename or delete the files inside them.

Uploads run a mandatory conflict pre-check: files that collide with
stored files must each get an explicit resolution (overwrite, skip or
rename) before anything is sent.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultLogger()
			if verbose {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key (overrides config and environment)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server-url", "", "Server base URL (overrides config and environment)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")

	rootCmd.AddCommand(newProjectsCmd())
	rootCmd.AddCommand(newFilesCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newReadmeCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the CLI with signal-aware context cancellation.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCmd().ExecuteContext(ctx)
}
