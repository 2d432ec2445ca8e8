package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/christopherklint97/stempel/internal/domain"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE:  runProjectsList,
}

var projectsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a project to a company",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsAdd,
}

var projectsArchiveCmd = &cobra.Command{
	Use:   "archive <project>",
	Short: "Hide a project from pickers (history keeps it)",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsArchive,
}

var projectsRenameCmd = &cobra.Command{
	Use:   "rename <project> <new-name>",
	Short: "Rename a project",
	Args:  cobra.ExactArgs(2),
	RunE:  runProjectsRename,
}

func init() {
	projectsListCmd.Flags().Bool("all", false, "Include archived projects")
	projectsListCmd.Flags().String("company", "", "Only show one company")
	projectsAddCmd.Flags().String("company", "", "Company: merchandising, salescrew or inkognito")
	projectsAddCmd.Flags().String("color", "", "Display color, e.g. #ff8800")
	projectsAddCmd.MarkFlagRequired("company")
	projectsArchiveCmd.Flags().Bool("undo", false, "Unarchive instead")

	projectsCmd.AddCommand(projectsListCmd, projectsAddCmd, projectsArchiveCmd, projectsRenameCmd)
}

func runProjectsList(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	companyFlag, _ := cmd.Flags().GetString("company")

	filter := domain.ProjectFilter{IncludeArchived: all}
	if companyFlag != "" {
		c, err := domain.ParseCompany(companyFlag)
		if err != nil {
			return err
		}
		filter.Company = c
	}

	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	projects, err := a.records.ListProjects(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("fetching projects: %w", err)
	}
	a.offlineNotice()

	if len(projects) == 0 {
		fmt.Println("No projects found.")
		return nil
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("NAME", "COMPANY", "STATUS", "ID")
	for _, p := range projects {
		status := "active"
		if p.Archived {
			status = "archived"
		}
		t.Row(p.Name, p.Company.DisplayName(), status, p.ID)
	}
	fmt.Println(t)
	return nil
}

func runProjectsAdd(cmd *cobra.Command, args []string) error {
	companyFlag, _ := cmd.Flags().GetString("company")
	color, _ := cmd.Flags().GetString("color")

	company, err := domain.ParseCompany(companyFlag)
	if err != nil {
		return err
	}

	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	p := &domain.Project{Name: args[0], Company: company, Color: color}
	if err := a.records.CreateProject(cmd.Context(), p); err != nil {
		return fmt.Errorf("creating project: %w", err)
	}
	a.offlineNotice()

	fmt.Printf("Added %s to %s (%s)\n", p.Name, company.DisplayName(), p.ID)
	return nil
}

func runProjectsArchive(cmd *cobra.Command, args []string) error {
	undo, _ := cmd.Flags().GetBool("undo")

	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	project, err := a.resolveProject(ctx, args[0], true)
	if err != nil {
		return err
	}
	archived := !undo
	updated, err := a.records.UpdateProject(ctx, project.ID, domain.ProjectPatch{Archived: &archived})
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	a.offlineNotice()

	if updated.Archived {
		fmt.Printf("Archived %s\n", updated.Name)
	} else {
		fmt.Printf("Restored %s\n", updated.Name)
	}
	return nil
}

func runProjectsRename(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	project, err := a.resolveProject(ctx, args[0], true)
	if err != nil {
		return err
	}
	name := args[1]
	updated, err := a.records.UpdateProject(ctx, project.ID, domain.ProjectPatch{Name: &name})
	if err != nil {
		return fmt.Errorf("renaming project: %w", err)
	}
	a.offlineNotice()

	fmt.Printf("Renamed %s to %s\n", project.Name, updated.Name)
	return nil
}
