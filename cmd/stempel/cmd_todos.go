package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/christopherklint97/stempel/internal/domain"
	"github.com/christopherklint97/stempel/internal/stats"
)

var todosCmd = &cobra.Command{
	Use:   "todos",
	Short: "Manage todos",
}

var todosListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open todos",
	Args:  cobra.NoArgs,
	RunE:  runTodosList,
}

var todosAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a todo",
	Args:  cobra.ExactArgs(1),
	RunE:  runTodosAdd,
}

var todosDoneCmd = &cobra.Command{
	Use:   "done <todo>",
	Short: "Mark a todo done (by id, id prefix or title)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setTodoStatus(cmd, args[0], domain.TodoDone)
	},
}

var todosReopenCmd = &cobra.Command{
	Use:   "reopen <todo>",
	Short: "Reopen a done todo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setTodoStatus(cmd, args[0], domain.TodoOpen)
	},
}

var todosRmCmd = &cobra.Command{
	Use:     "rm <todo>",
	Aliases: []string{"delete"},
	Short:   "Delete a todo",
	Args:    cobra.ExactArgs(1),
	RunE:    runTodosRm,
}

func init() {
	todosListCmd.Flags().Bool("all", false, "Include done todos")
	todosAddCmd.Flags().String("priority", "medium", "high, medium or low")
	todosAddCmd.Flags().String("project", domain.TodoProjectOther, "Company key or 'other'")
	todosAddCmd.Flags().String("description", "", "Longer description")

	todosCmd.AddCommand(todosListCmd, todosAddCmd, todosDoneCmd, todosReopenCmd, todosRmCmd)
}

var errTodoNotFound = errors.New("todo not found")

// resolveTodo matches query against ids, unique id prefixes and titles.
func resolveTodo(todos []domain.Todo, query string) (*domain.Todo, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, errTodoNotFound
	}
	for i := range todos {
		if todos[i].ID == q || strings.EqualFold(todos[i].Title, q) {
			return &todos[i], nil
		}
	}
	var match *domain.Todo
	for i := range todos {
		if strings.HasPrefix(todos[i].ID, q) {
			if match != nil {
				return nil, fmt.Errorf("id prefix %q is ambiguous", q)
			}
			match = &todos[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%q: %w", query, errTodoNotFound)
	}
	return match, nil
}

func runTodosList(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")

	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	status := domain.TodoOpen
	if all {
		status = ""
	}
	todos, err := a.records.ListTodos(cmd.Context(), status)
	if err != nil {
		return fmt.Errorf("fetching todos: %w", err)
	}
	a.offlineNotice()

	if len(todos) == 0 {
		fmt.Println("No todos.")
		return nil
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("ID", "", "PRIORITY", "PROJECT", "TITLE", "FROM")
	for _, todo := range todos {
		check := "[ ]"
		if todo.Status == domain.TodoDone {
			check = "[x]"
		}
		from := todo.SourceEmailFrom
		if from == "" {
			from = todo.CreatedAt.In(stats.Location()).Format("02.01.")
		}
		t.Row(todo.ID[:min(8, len(todo.ID))], check, string(todo.Priority), todo.Project, todo.Title, from)
	}
	fmt.Println(t)
	return nil
}

func runTodosAdd(cmd *cobra.Command, args []string) error {
	priority, _ := cmd.Flags().GetString("priority")
	project, _ := cmd.Flags().GetString("project")
	description, _ := cmd.Flags().GetString("description")

	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	todo := &domain.Todo{
		Title:       args[0],
		Description: description,
		Priority:    domain.TodoPriority(strings.ToLower(priority)),
		Project:     strings.ToLower(project),
	}
	if err := a.tracker.AddTodo(cmd.Context(), todo); err != nil {
		return err
	}
	a.offlineNotice()

	fmt.Printf("Added todo %s: %s\n", todo.ID[:min(8, len(todo.ID))], todo.Title)
	return nil
}

func setTodoStatus(cmd *cobra.Command, query string, status domain.TodoStatus) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	todos, err := a.records.ListTodos(ctx, "")
	if err != nil {
		return fmt.Errorf("fetching todos: %w", err)
	}
	todo, err := resolveTodo(todos, query)
	if err != nil {
		return err
	}
	if todo.Status == status {
		fmt.Printf("%s is already %s\n", todo.Title, status)
		return nil
	}

	if _, err := a.tracker.ToggleTodo(ctx, *todo); err != nil {
		return err
	}
	a.offlineNotice()

	fmt.Printf("Marked %s as %s\n", todo.Title, status)
	return nil
}

func runTodosRm(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	todos, err := a.records.ListTodos(ctx, "")
	if err != nil {
		return fmt.Errorf("fetching todos: %w", err)
	}
	todo, err := resolveTodo(todos, args[0])
	if err != nil {
		return err
	}
	if err := a.tracker.DeleteTodo(ctx, todo.ID); err != nil {
		return err
	}
	a.offlineNotice()

	fmt.Printf("Deleted %s\n", todo.Title)
	return nil
}
