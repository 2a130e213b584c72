package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Statuses в порядке жизненного цикла задачи
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Next возвращает следующий статус по кругу (pending -> in_progress -> completed -> pending)
func (s Status) Next() Status {
	for i, st := range Statuses {
		if st == s {
			return Statuses[(i+1)%len(Statuses)]
		}
	}
	return StatusPending
}

// Label - человекочитаемое название ("in_progress" -> "In Progress")
func (s Status) Label() string {
	words := strings.Split(string(s), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Rank нужен для сортировки: high идет первым
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

const DateLayout = "2006-01-02"

// Date - календарная дата без времени (due_date)
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf отбрасывает время суток
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate принимает "2006-01-02" или полный RFC3339 (как в старом API)
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("неверный формат даты %q, ожидается YYYY-MM-DD", s)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Before сравнивает только даты
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("due_date должна быть строкой: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value сохраняет дату в SQLite как TEXT (NULL для пустой)
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	case time.Time:
		*d = DateOf(v)
		return nil
	}
	return fmt.Errorf("неподдерживаемый тип для Date: %T", src)
}

type Task struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	Category    string    `json:"category"`
	DueDate     Date      `json:"due_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Overdue - незавершенная задача с прошедшим сроком
func (t Task) Overdue(today Date) bool {
	return t.Status != StatusCompleted && !t.DueDate.IsZero() && t.DueDate.Before(today)
}

// CreateTaskRequest - поля новой задачи. Пустые Status/Priority/Category заполняются значениями по умолчанию
type CreateTaskRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=1000"`
	Status      Status   `json:"status" validate:"omitempty,taskstatus"`
	Priority    Priority `json:"priority" validate:"omitempty,taskpriority"`
	Category    string   `json:"category" validate:"max=50"`
	DueDate     Date     `json:"due_date"`
}

// UpdateTaskRequest - частичное обновление, nil означает "не менять"
type UpdateTaskRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	Category    *string   `json:"category,omitempty"`
	DueDate     *Date     `json:"due_date,omitempty"`
}

// UnmarshalJSON отличает "due_date": null (сбросить срок) от отсутствующего поля
func (r *UpdateTaskRequest) UnmarshalJSON(data []byte) error {
	type plain UpdateTaskRequest
	var raw struct {
		plain
		DueDate json.RawMessage `json:"due_date"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = UpdateTaskRequest(raw.plain)
	r.DueDate = nil
	if raw.DueDate != nil {
		var d Date
		if err := d.UnmarshalJSON(raw.DueDate); err != nil {
			return err
		}
		r.DueDate = &d
	}
	return nil
}

func (r UpdateTaskRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.Status == nil &&
		r.Priority == nil && r.Category == nil && r.DueDate == nil
}

// TaskFilter - пустое поле не фильтрует
type TaskFilter struct {
	Status   Status   `json:"status,omitempty"`
	Priority Priority `json:"priority,omitempty"`
	Category string   `json:"category,omitempty"`
}

func (f TaskFilter) Match(t Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	return true
}

type Statistics struct {
	Total          int              `json:"total"`
	Pending        int              `json:"pending"`
	InProgress     int              `json:"in_progress"`
	Completed      int              `json:"completed"`
	Overdue        int              `json:"overdue"`
	ByStatus       map[Status]int   `json:"by_status"`
	ByPriority     map[Priority]int `json:"by_priority"`
	ByCategory     map[string]int   `json:"by_category"`
	CompletionRate float64          `json:"completion_rate"`
}

// CompletionPercent - доля выполненных в процентах, округленная до двух знаков
func (s Statistics) CompletionPercent() float64 {
	return float64(int(s.CompletionRate*10000+0.5)) / 100
}
