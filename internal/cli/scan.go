package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Trigger a server-side library rescan",
		Long: `Ask the server to rescan its library directory for projects and
files. The scan runs on the server; this prints the summary.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}

			result, err := client.TriggerScan(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Scan complete: %d project(s), %d file(s) indexed\n",
				result.ProjectsScanned, result.FilesIndexed)
			return nil
		},
	}
}

func newReadmeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "readme <project-id>",
		Short: "Print a project's rendered README",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}

			html, err := client.GetReadme(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Println(html)
			return nil
		},
	}
}
