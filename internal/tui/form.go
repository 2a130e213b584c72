package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskboard/internal/models"
)

type formField int

const (
	fieldTitle formField = iota
	fieldDescription
	fieldPriority
	fieldStatus
	fieldCategory
	fieldDueDate
	fieldCount
)

var fieldLabels = [fieldCount]string{"Title", "Description", "Priority", "Status", "Category", "Due Date"}

// taskForm - форма создания задачи. Приоритет и статус выбираются стрелками,
// остальные поля - текстовые.
type taskForm struct {
	inputs   map[formField]*textinput.Model
	priority models.Priority
	status   models.Status
	focus    formField
	err      string
}

func newTaskForm() taskForm {
	mk := func(placeholder string, limit int) *textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = limit
		ti.Width = 50
		return &ti
	}

	f := taskForm{
		inputs: map[formField]*textinput.Model{
			fieldTitle:       mk("Enter a descriptive title", 200),
			fieldDescription: mk("Provide detailed description of the task", 1000),
			fieldCategory:    mk("e.g., Development, Design", 50),
			fieldDueDate:     mk("YYYY-MM-DD", 10),
		},
		priority: models.PriorityMedium,
		status:   models.StatusPending,
	}
	f.inputs[fieldTitle].Focus()
	return f
}

func (f *taskForm) setFocus(field formField) tea.Cmd {
	f.focus = (field + fieldCount) % fieldCount
	var cmd tea.Cmd
	for name, in := range f.inputs {
		if name == f.focus {
			cmd = in.Focus()
		} else {
			in.Blur()
		}
	}
	return cmd
}

// cycle переключает значение выбранного перечисления на step позиций
func (f *taskForm) cycle(step int) {
	switch f.focus {
	case fieldPriority:
		f.priority = models.Priorities[shift(indexOf(models.Priorities, f.priority), step, len(models.Priorities))]
	case fieldStatus:
		f.status = models.Statuses[shift(indexOf(models.Statuses, f.status), step, len(models.Statuses))]
	}
}

func indexOf[T comparable](items []T, v T) int {
	for i, item := range items {
		if item == v {
			return i
		}
	}
	return 0
}

func shift(i, step, n int) int {
	return ((i+step)%n + n) % n
}

func (f *taskForm) value(field formField) string {
	if in, ok := f.inputs[field]; ok {
		return in.Value()
	}
	return ""
}

// request собирает запрос; ошибка только для неверной даты, остальное проверяет хранилище
func (f *taskForm) request() (models.CreateTaskRequest, error) {
	due, err := models.ParseDate(f.value(fieldDueDate))
	if err != nil {
		return models.CreateTaskRequest{}, err
	}
	return models.CreateTaskRequest{
		Title:       strings.TrimSpace(f.value(fieldTitle)),
		Description: strings.TrimSpace(f.value(fieldDescription)),
		Priority:    f.priority,
		Status:      f.status,
		Category:    strings.TrimSpace(f.value(fieldCategory)),
		DueDate:     due,
	}, nil
}

// update передает ввод в активное текстовое поле
func (f *taskForm) update(msg tea.Msg) tea.Cmd {
	in, ok := f.inputs[f.focus]
	if !ok {
		return nil
	}
	updated, cmd := in.Update(msg)
	*in = updated
	return cmd
}

func (f taskForm) view() string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render("➕ Create Task"))
	b.WriteString("\n\n")

	for field := formField(0); field < fieldCount; field++ {
		label := FormLabelStyle.Render(fieldLabels[field])
		if field == f.focus {
			label = FocusedFormLabelStyle.Render("› " + fieldLabels[field])
		}

		var value string
		switch field {
		case fieldPriority:
			value = "◀ " + string(f.priority) + " ▶"
		case fieldStatus:
			value = "◀ " + f.status.Label() + " ▶"
		default:
			value = f.inputs[field].View()
		}
		b.WriteString(label + value + "\n")
	}

	if f.err != "" {
		b.WriteString("\n" + ErrorStyle.Render("❌ "+f.err) + "\n")
	}
	return FormStyle.Render(b.String())
}
