package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/printstash/printstash/internal/pathutil"
)

func newFilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Manage the files inside a project",
	}

	cmd.AddCommand(newFilesListCmd())
	cmd.AddCommand(newFilesUploadCmd())
	cmd.AddCommand(newFilesDownloadCmd())
	cmd.AddCommand(newFilesRenameCmd())
	cmd.AddCommand(newFilesDeleteCmd())

	return cmd
}

func newFilesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <project-id>",
		Short: "List the files stored in a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}

			resp, err := client.ListFiles(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(resp.Files) == 0 {
				fmt.Println("No files in project.")
				return nil
			}

			table := newTable("Name", "Size", "Type", "Modified")
			for _, f := range resp.Files {
				table.Append([]string{
					f.Name,
					formatSize(f.Size),
					f.ContentType,
					f.ModifiedAt.Format("2006-01-02 15:04"),
				})
			}
			table.Render()
			return nil
		},
	}
}

func newFilesDownloadCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <project-id> <filename>",
		Short: "Download a stored file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}

			dest := output
			if dest == "" {
				dest = filepath.Base(args[1])
			}
			dest, err = pathutil.Resolve(dest)
			if err != nil {
				return err
			}

			if err := client.DownloadFile(cmd.Context(), args[0], args[1], dest, true); err != nil {
				return err
			}

			fmt.Printf("Downloaded %s to %s\n", args[1], dest)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination path (defaults to the filename)")
	return cmd
}

func newFilesRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <project-id> <filename> <new-name>",
		Short: "Rename a stored file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			if err := client.RenameFile(cmd.Context(), args[0], args[1], args[2]); err != nil {
				return err
			}

			fmt.Printf("Renamed %s to %s\n", args[1], args[2])
			return nil
		},
	}
}

func newFilesDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <project-id> <filename>",
		Short: "Delete a stored file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				ok, err := confirm(fmt.Sprintf("Delete %s from project %s?", args[1], args[0]))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("Aborted.")
					return nil
				}
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}
			if err := client.DeleteFile(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}

			fmt.Printf("Deleted %s\n", args[1])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")
	return cmd
}
