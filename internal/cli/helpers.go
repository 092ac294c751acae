package cli

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"

	"github.com/printstash/printstash/internal/api"
	"github.com/printstash/printstash/internal/config"
)

// loadConfig resolves the effective configuration: file, then
// environment, then CLI flag overrides.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	return cfg, nil
}

// newAPIClient builds the server client from the effective configuration.
func newAPIClient() (*api.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return api.NewClient(cfg, logger)
}

// newTable returns a stdout table with the house style.
func newTable(headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

// formatSize renders a byte count for table output.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
