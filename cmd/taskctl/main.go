package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"taskboard/internal/analytics"
	"taskboard/internal/client"
	"taskboard/internal/config"
	"taskboard/internal/manager"
	"taskboard/internal/models"
)

func main() {
	if len(os.Args) < 2 {
		printHelp(os.Stdout)
		os.Exit(1)
	}

	cfg, err := config.Load(os.Getenv(config.EnvPrefix + "CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{svc: client.New(cfg.APIURL), out: os.Stdout, now: time.Now}
	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

type app struct {
	svc manager.Service
	out io.Writer
	now func() time.Time
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "add":
		return a.add(ctx, args)
	case "list":
		return a.list(ctx, args)
	case "show":
		return a.show(ctx, args)
	case "update":
		return a.update(ctx, args)
	case "complete":
		return a.complete(ctx, args)
	case "delete":
		return a.delete(ctx, args)
	case "stats":
		return a.stats(ctx)
	case "export":
		return a.export(ctx, args)
	case "import":
		return a.importTasks(ctx, args)
	case "help", "-h", "--help":
		printHelp(a.out)
		return nil
	}
	printHelp(a.out)
	return fmt.Errorf("unknown command: %s", command)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func (a *app) add(ctx context.Context, args []string) error {
	addCmd := newFlagSet("add")
	title := addCmd.String("title", "", "Task title")
	desc := addCmd.String("desc", "", "Task description")
	priority := addCmd.String("priority", "", "low|medium|high")
	status := addCmd.String("status", "", "pending|in_progress|completed")
	category := addCmd.String("category", "", "Category")
	due := addCmd.String("due", "", "Due date YYYY-MM-DD")
	if err := addCmd.Parse(args); err != nil {
		return err
	}

	dueDate, err := models.ParseDate(*due)
	if err != nil {
		return err
	}

	task, err := a.svc.CreateTask(ctx, models.CreateTaskRequest{
		Title:       *title,
		Description: *desc,
		Status:      models.Status(*status),
		Priority:    models.Priority(*priority),
		Category:    *category,
		DueDate:     dueDate,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added task with ID %d\n", task.ID)
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	listCmd := newFlagSet("list")
	status := listCmd.String("status", "", "Filter by status")
	priority := listCmd.String("priority", "", "Filter by priority")
	category := listCmd.String("category", "", "Filter by category")
	sortBy := listCmd.String("sort", "", "due_date|priority|status|created")
	if err := listCmd.Parse(args); err != nil {
		return err
	}

	q, err := analytics.ParseQuery(url.Values{
		"status":   {*status},
		"priority": {*priority},
		"category": {*category},
		"sort":     {*sortBy},
	})
	if err != nil {
		return err
	}
	tasks, err := a.svc.ListTasks(ctx, q.Filter)
	if err != nil {
		return err
	}
	// без --sort сохраняем порядок вставки
	if *sortBy != "" {
		tasks = analytics.Apply(tasks, q)
	}

	if len(tasks) == 0 {
		fmt.Fprintln(a.out, "No tasks found")
		return nil
	}

	today := models.DateOf(a.now())
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tPRIORITY\tCATEGORY\tDUE")
	for _, t := range tasks {
		due := "-"
		if !t.DueDate.IsZero() {
			due = t.DueDate.String()
			if t.Overdue(today) {
				due += " (overdue)"
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Title, t.Status.Label(), t.Priority, t.Category, due)
	}
	return tw.Flush()
}

func (a *app) show(ctx context.Context, args []string) error {
	id, err := parseID("show", args)
	if err != nil {
		return err
	}
	task, err := a.svc.GetTask(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "#%d %s\n", task.ID, task.Title)
	fmt.Fprintf(a.out, "  Status:   %s\n", task.Status.Label())
	fmt.Fprintf(a.out, "  Priority: %s\n", task.Priority)
	fmt.Fprintf(a.out, "  Category: %s\n", task.Category)
	fmt.Fprintf(a.out, "  Due:      %s\n", analytics.DueNote(task, a.now()))
	if task.Description != "" {
		fmt.Fprintf(a.out, "\n%s\n", task.Description)
	}
	return nil
}

func (a *app) update(ctx context.Context, args []string) error {
	updateCmd := newFlagSet("update")
	id := updateCmd.Int("id", 0, "Task ID")
	var req models.UpdateTaskRequest
	updateCmd.Func("title", "New title", func(s string) error { req.Title = &s; return nil })
	updateCmd.Func("desc", "New description", func(s string) error { req.Description = &s; return nil })
	updateCmd.Func("category", "New category", func(s string) error { req.Category = &s; return nil })
	updateCmd.Func("status", "New status", func(s string) error {
		st := models.Status(s)
		req.Status = &st
		return nil
	})
	updateCmd.Func("priority", "New priority", func(s string) error {
		p := models.Priority(s)
		req.Priority = &p
		return nil
	})
	updateCmd.Func("due", "New due date YYYY-MM-DD (empty clears)", func(s string) error {
		d, err := models.ParseDate(s)
		if err != nil {
			return err
		}
		req.DueDate = &d
		return nil
	})
	if err := updateCmd.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return errors.New("--id is required")
	}
	if req.Empty() {
		return errors.New("nothing to update")
	}

	task, err := a.svc.UpdateTask(ctx, *id, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Task %d updated (%s, %s)\n", task.ID, task.Status, task.Priority)
	return nil
}

func (a *app) complete(ctx context.Context, args []string) error {
	id, err := parseID("complete", args)
	if err != nil {
		return err
	}
	status := models.StatusCompleted
	if _, err := a.svc.UpdateTask(ctx, id, models.UpdateTaskRequest{Status: &status}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Task %d marked as completed\n", id)
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	id, err := parseID("delete", args)
	if err != nil {
		return err
	}
	if _, err := a.svc.DeleteTask(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Task %d deleted\n", id)
	return nil
}

func (a *app) stats(ctx context.Context) error {
	stats, err := a.svc.GetStatistics(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Total:       %d\n", stats.Total)
	fmt.Fprintf(a.out, "Pending:     %d\n", stats.Pending)
	fmt.Fprintf(a.out, "In progress: %d\n", stats.InProgress)
	fmt.Fprintf(a.out, "Completed:   %d\n", stats.Completed)
	fmt.Fprintf(a.out, "Overdue:     %d\n", stats.Overdue)
	fmt.Fprintf(a.out, "Completion:  %.2f%%\n", stats.CompletionPercent())

	if len(stats.ByCategory) > 0 {
		fmt.Fprintln(a.out, "\nBy category:")
		for _, name := range slices.Sorted(maps.Keys(stats.ByCategory)) {
			fmt.Fprintf(a.out, "  %-15s %d\n", name, stats.ByCategory[name])
		}
	}
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	exportCmd := newFlagSet("export")
	format := exportCmd.String("format", "json", "Export format (json|csv)")
	outFile := exportCmd.String("out", "", "Output file path (stdout when empty)")
	if err := exportCmd.Parse(args); err != nil {
		return err
	}

	tasks, err := a.svc.ListTasks(ctx, models.TaskFilter{})
	if err != nil {
		return err
	}

	switch *format {
	case "json":
		if *outFile == "" {
			return models.WriteJSON(a.out, tasks)
		}
		err = models.SaveJSON(*outFile, tasks)
	case "csv":
		if *outFile == "" {
			return models.WriteCSV(a.out, tasks)
		}
		err = models.SaveCSV(*outFile, tasks)
	default:
		return fmt.Errorf("unsupported format %s", *format)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Tasks exported to %s in %s format\n", *outFile, *format)
	return nil
}

// importTasks добавляет задачи из файла; id и временные метки назначает хранилище
func (a *app) importTasks(ctx context.Context, args []string) error {
	importCmd := newFlagSet("import")
	file := importCmd.String("file", "", "File to load tasks from (.json|.csv)")
	if err := importCmd.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("--file is required")
	}

	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	var reqs []models.CreateTaskRequest
	switch strings.ToLower(filepath.Ext(*file)) {
	case ".json":
		reqs, err = models.ReadJSON(f)
	case ".csv":
		reqs, err = models.ReadCSV(f)
	default:
		return errors.New("unsupported file format, use .json or .csv")
	}
	if err != nil {
		return err
	}

	for i, req := range reqs {
		if _, err := a.svc.CreateTask(ctx, req); err != nil {
			return fmt.Errorf("task %d of %d: %w", i+1, len(reqs), err)
		}
	}
	fmt.Fprintf(a.out, "Loaded %d tasks from %s\n", len(reqs), *file)
	return nil
}

func parseID(name string, args []string) (int, error) {
	fs := newFlagSet(name)
	id := fs.Int("id", 0, "Task ID")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	if *id <= 0 {
		return 0, errors.New("--id is required")
	}
	return *id, nil
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, `Usage: taskctl <command> [flags]

Commands:
  add      --title="..." [--desc= --priority= --status= --category= --due=YYYY-MM-DD]
  list     [--status= --priority= --category= --sort=due_date|priority|status|created]
  show     --id=ID
  update   --id=ID [--title= --desc= --priority= --status= --category= --due=]
  complete --id=ID
  delete   --id=ID
  stats
  export   --format=json|csv [--out=FILE]
  import   --file=FILE.json|FILE.csv

Environment:
  TASKBOARD_API_URL   REST API of a running taskboard (default http://localhost:8000)
  TASKBOARD_CONFIG    optional YAML config`)
}
