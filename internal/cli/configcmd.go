package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/printstash/printstash/internal/config"
	"github.com/printstash/printstash/internal/version"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or write the client configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSetCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			key := "(not set)"
			if cfg.APIKey != "" {
				key = "****" + tail(cfg.APIKey, 4)
			}

			fmt.Printf("server_url:              %s\n", cfg.ServerURL)
			fmt.Printf("api_key:                 %s\n", key)
			fmt.Printf("request_timeout_seconds: %d\n", cfg.RequestTimeoutSeconds)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set",
		Short: "Write the current settings to the config file",
		Long: `Write the effective configuration (file + environment + flags) back
to the config file. Use with --server-url and --api-key to persist
connection settings:

  printstash --server-url https://stash.example.com --api-key <token> config set`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			path := cfgFile
			if path == "" {
				path, err = config.DefaultPath()
				if err != nil {
					return err
				}
			}

			if err := config.Save(cfg, path); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("printstash %s (built %s)\n", version.Version, version.BuildTime)
		},
	}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
