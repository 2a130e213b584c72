package tui

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"

	"taskboard/internal/logger"
	"taskboard/internal/manager"
	"taskboard/internal/models"
)

type mode int

const (
	listMode mode = iota
	formMode
	detailMode
	confirmDeleteMode
)

type loadedMsg struct {
	tasks []models.Task
	stats models.Statistics
}

// mutatedMsg - изменение выполнено, список нужно перечитать
type mutatedMsg struct {
	notice string
}

type errMsg struct {
	err error
}

type Option func(*Model)

// WithGlamourStyle задает стиль markdown для карточки задачи ("dark", "light", "notty")
func WithGlamourStyle(style string) Option {
	return func(m *Model) { m.glamourStyle = style }
}

func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

type Model struct {
	ctx context.Context
	svc manager.Service

	mode   mode
	table  table.Model
	form   taskForm
	tasks  []models.Task
	stats  models.Statistics
	filter models.Status

	detail       string
	glamourStyle string
	renderers    map[int]*glamour.TermRenderer

	notice string
	err    error

	width  int
	height int
	now    func() time.Time
}

func New(ctx context.Context, svc manager.Service, opts ...Option) Model {
	columns := []table.Column{
		{Title: "ID", Width: 4},
		{Title: "Title", Width: 44},
		{Title: "Status", Width: 12},
		{Title: "Priority", Width: 8},
		{Title: "Category", Width: 14},
		{Title: "Due", Width: 16},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	m := Model{
		ctx:          ctx,
		svc:          svc,
		table:        t,
		form:         newTaskForm(),
		glamourStyle: "dark",
		renderers:    map[int]*glamour.TermRenderer{},
		width:        100,
		height:       30,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return m.load()
}

// load перечитывает задачи (с учетом фильтра) и общую статистику
func (m Model) load() tea.Cmd {
	ctx, svc, filter := m.ctx, m.svc, m.filter
	return func() tea.Msg {
		tasks, err := svc.ListTasks(ctx, models.TaskFilter{Status: filter})
		if err != nil {
			return errMsg{err}
		}
		stats, err := svc.GetStatistics(ctx)
		if err != nil {
			return errMsg{err}
		}
		return loadedMsg{tasks: tasks, stats: stats}
	}
}

func (m Model) createTask(req models.CreateTaskRequest) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		task, err := svc.CreateTask(ctx, req)
		if err != nil {
			return errMsg{err}
		}
		logger.Info(ctx, "Задача создана из TUI", "id", task.ID)
		return mutatedMsg{notice: fmt.Sprintf("✅ Task #%d created successfully!", task.ID)}
	}
}

func (m Model) advanceStatus(task models.Task) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	next := task.Status.Next()
	return func() tea.Msg {
		if _, err := svc.UpdateTask(ctx, task.ID, models.UpdateTaskRequest{Status: &next}); err != nil {
			return errMsg{err}
		}
		return mutatedMsg{notice: fmt.Sprintf("🔄 Task #%d → %s", task.ID, next.Label())}
	}
}

func (m Model) deleteTask(id int) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		if _, err := svc.DeleteTask(ctx, id); err != nil {
			return errMsg{err}
		}
		return mutatedMsg{notice: fmt.Sprintf("🗑 Task #%d deleted", id)}
	}
}

// selected - задача под курсором таблицы
func (m Model) selected() (models.Task, bool) {
	row := m.table.SelectedRow()
	if row == nil {
		return models.Task{}, false
	}
	id, err := strconv.Atoi(row[0])
	if err != nil {
		return models.Task{}, false
	}
	for _, t := range m.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

func (m *Model) setTasks(tasks []models.Task) {
	m.tasks = tasks
	today := models.DateOf(m.now())

	rows := make([]table.Row, 0, len(tasks))
	for _, t := range tasks {
		due := "-"
		if !t.DueDate.IsZero() {
			due = humanize.RelTime(t.DueDate.Time, today.Time, "ago", "from now")
			if t.DueDate.Equal(today.Time) {
				due = "today"
			}
		}
		rows = append(rows, table.Row{
			strconv.Itoa(t.ID),
			t.Title,
			t.Status.Label(),
			string(t.Priority),
			t.Category,
			due,
		})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m *Model) renderer() (*glamour.TermRenderer, error) {
	width := max(m.width-4, 20)
	if r, ok := m.renderers[width]; ok {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.glamourStyle),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	m.renderers[width] = r
	return r, nil
}

// renderDetail готовит карточку задачи через glamour; при ошибке - исходный markdown
func (m *Model) renderDetail(t models.Task) string {
	md := TaskMarkdown(t, m.now())
	r, err := m.renderer()
	if err != nil {
		logger.Warn(m.ctx, "Не удалось создать markdown-рендерер", "error", err)
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func TaskMarkdown(t models.Task, now time.Time) string {
	due := "not set"
	if !t.DueDate.IsZero() {
		due = t.DueDate.String()
		if t.Overdue(models.DateOf(now)) {
			due += " (**overdue**)"
		}
	}
	desc := t.Description
	if desc == "" {
		desc = "_No description._"
	}
	return fmt.Sprintf("# %s\n\n%s\n\n| Field | Value |\n|---|---|\n| ID | %d |\n| Status | %s |\n| Priority | %s |\n| Category | %s |\n| Due | %s |\n| Created | %s |\n| Updated | %s |\n",
		t.Title,
		desc,
		t.ID,
		t.Status.Label(),
		t.Priority,
		t.Category,
		due,
		humanize.RelTime(t.CreatedAt, now, "ago", "from now"),
		humanize.RelTime(t.UpdatedAt, now, "ago", "from now"),
	)
}
