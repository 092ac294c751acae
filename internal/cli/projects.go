package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/printstash/printstash/internal/models"
)

func newProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage projects on the server",
	}

	cmd.AddCommand(newProjectsListCmd())
	cmd.AddCommand(newProjectsShowCmd())
	cmd.AddCommand(newProjectsCreateCmd())
	cmd.AddCommand(newProjectsUpdateCmd())
	cmd.AddCommand(newProjectsDeleteCmd())

	return cmd
}

func newProjectsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}

			resp, err := client.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			if len(resp.Projects) == 0 {
				fmt.Println("No projects found.")
				return nil
			}

			table := newTable("ID", "Name", "Files", "Size", "Updated")
			for _, p := range resp.Projects {
				table.Append([]string{
					p.ID,
					p.Name,
					strconv.Itoa(p.FileCount),
					formatSize(p.TotalSize),
					p.UpdatedAt.Format("2006-01-02 15:04"),
				})
			}
			table.Render()
			return nil
		},
	}
}

func newProjectsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show one project's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}

			p, err := client.GetProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("ID:          %s\n", p.ID)
			fmt.Printf("Name:        %s\n", p.Name)
			if p.Description != "" {
				fmt.Printf("Description: %s\n", p.Description)
			}
			if p.Path != "" {
				fmt.Printf("Path:        %s\n", p.Path)
			}
			fmt.Printf("Files:       %d (%s)\n", p.FileCount, formatSize(p.TotalSize))
			fmt.Printf("Created:     %s\n", p.CreatedAt.Format("2006-01-02 15:04"))
			fmt.Printf("Updated:     %s\n", p.UpdatedAt.Format("2006-01-02 15:04"))
			return nil
		},
	}
}

func newProjectsCreateCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}

			p, err := client.CreateProject(cmd.Context(), models.ProjectRequest{
				Name:        args[0],
				Description: description,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Created project %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Project description")
	return cmd
}

func newProjectsUpdateCmd() *cobra.Command {
	var name, description string

	cmd := &cobra.Command{
		Use:   "update <project-id>",
		Short: "Update a project's name or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" && description == "" {
				return fmt.Errorf("nothing to update, pass --name or --description")
			}

			client, err := newAPIClient()
			if err != nil {
				return err
			}

			p, err := client.UpdateProject(cmd.Context(), args[0], models.ProjectRequest{
				Name:        name,
				Description: description,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Updated project %s\n", p.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New project name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New project description")
	return cmd
}

func newProjectsDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project and all its files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				ok, err := confirm(fmt.Sprintf("Delete project %s and all its files?", args[0]))
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
			if err := client.DeleteProject(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Printf("Deleted project %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")
	return cmd
}
