package tui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"taskboard/internal/manager"
	"taskboard/internal/models"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetHeight(max(m.height-14, 5))
		return m, nil

	case loadedMsg:
		m.err = nil
		m.stats = msg.stats
		m.setTasks(msg.tasks)
		return m, nil

	case mutatedMsg:
		m.notice = msg.notice
		m.err = nil
		if m.mode == formMode {
			m.form = newTaskForm()
		}
		m.mode = listMode
		return m, m.load()

	case errMsg:
		return m.handleError(msg.err), nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case formMode:
			return m.updateForm(msg)
		case detailMode:
			return m.updateDetail(msg)
		case confirmDeleteMode:
			return m.updateConfirmDelete(msg)
		}
		return m.updateList(msg)
	}

	if m.mode == formMode {
		return m, m.form.update(msg)
	}
	return m, nil
}

// handleError: ошибки валидации остаются в форме, пропавшая задача - повод перечитать список
func (m Model) handleError(err error) Model {
	var ve *manager.ValidationError
	if m.mode == formMode && errors.As(err, &ve) {
		m.form.err = ve.Error()
		return m
	}
	m.err = err
	m.notice = ""
	if errors.Is(err, manager.ErrTaskNotFound) {
		m.mode = listMode
	}
	return m
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "r":
		m.notice = "🔄 Refreshed"
		return m, m.load()
	case "n":
		m.mode = formMode
		m.form = newTaskForm()
		m.notice = ""
		return m, m.form.setFocus(fieldTitle)
	case "f":
		m.filter = nextFilter(m.filter)
		return m, m.load()
	case "enter":
		if task, ok := m.selected(); ok {
			m.detail = m.renderDetail(task)
			m.mode = detailMode
		}
		return m, nil
	case " ", "s":
		if task, ok := m.selected(); ok {
			return m, m.advanceStatus(task)
		}
		return m, nil
	case "d", "delete":
		if _, ok := m.selected(); ok {
			m.mode = confirmDeleteMode
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = listMode
		m.form = newTaskForm()
		return m, nil
	case "tab", "down":
		return m, m.form.setFocus(m.form.focus + 1)
	case "shift+tab", "up":
		return m, m.form.setFocus(m.form.focus - 1)
	case "left":
		if m.form.focus == fieldPriority || m.form.focus == fieldStatus {
			m.form.cycle(-1)
			return m, nil
		}
	case "right":
		if m.form.focus == fieldPriority || m.form.focus == fieldStatus {
			m.form.cycle(1)
			return m, nil
		}
	case "enter":
		if m.form.focus != fieldCount-1 {
			return m, m.form.setFocus(m.form.focus + 1)
		}
		return m.submitForm()
	case "ctrl+s":
		return m.submitForm()
	}
	return m, m.form.update(msg)
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	req, err := m.form.request()
	if err != nil {
		m.form.err = err.Error()
		return m, nil
	}
	m.form.err = ""
	return m, m.createTask(req)
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "q", "backspace":
		m.mode = listMode
		m.detail = ""
	case " ", "s":
		if task, ok := m.selected(); ok {
			m.detail = ""
			m.mode = listMode
			return m, m.advanceStatus(task)
		}
	}
	return m, nil
}

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = listMode
	if msg.String() != "y" {
		m.notice = "Deletion cancelled"
		return m, nil
	}
	task, ok := m.selected()
	if !ok {
		return m, nil
	}
	return m, m.deleteTask(task.ID)
}

// nextFilter: All -> pending -> in_progress -> completed -> All
func nextFilter(current models.Status) models.Status {
	if current == "" {
		return models.Statuses[0]
	}
	if current == models.Statuses[len(models.Statuses)-1] {
		return ""
	}
	return current.Next()
}
