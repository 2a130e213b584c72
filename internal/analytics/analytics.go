package analytics

import (
	"cmp"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"
	"time"

	"taskboard/internal/manager"
	"taskboard/internal/models"
)

type SortKey string

const (
	SortDueDate  SortKey = "due_date"
	SortPriority SortKey = "priority"
	SortStatus   SortKey = "status"
	SortCreated  SortKey = "created"
)

var SortKeys = []SortKey{SortDueDate, SortPriority, SortStatus, SortCreated}

func (k SortKey) Label() string {
	switch k {
	case SortDueDate:
		return "Due Date"
	case SortPriority:
		return "Priority"
	case SortStatus:
		return "Status"
	case SortCreated:
		return "Created Date"
	}
	return string(k)
}

// Query - выборка аналитики: фильтр по равенству полей и ключ сортировки
type Query struct {
	Filter models.TaskFilter
	Sort   SortKey
}

// ParseQuery читает status/priority/category/sort; "all" и пустое значение не фильтруют
func ParseQuery(v url.Values) (Query, error) {
	q := Query{Sort: SortDueDate}
	fields := map[string]string{}

	if s := v.Get("status"); s != "" && !strings.EqualFold(s, "all") {
		q.Filter.Status = models.Status(s)
		if !q.Filter.Status.Valid() {
			fields["status"] = fmt.Sprintf("недопустимый статус %q", s)
		}
	}
	if p := v.Get("priority"); p != "" && !strings.EqualFold(p, "all") {
		q.Filter.Priority = models.Priority(p)
		if !q.Filter.Priority.Valid() {
			fields["priority"] = fmt.Sprintf("недопустимый приоритет %q", p)
		}
	}
	if c := v.Get("category"); c != "" && !strings.EqualFold(c, "all") {
		q.Filter.Category = c
	}
	if s := v.Get("sort"); s != "" {
		q.Sort = SortKey(s)
		if !slices.Contains(SortKeys, q.Sort) {
			fields["sort"] = fmt.Sprintf("неизвестный ключ сортировки %q", s)
		}
	}

	if len(fields) > 0 {
		return Query{}, &manager.ValidationError{Fields: fields}
	}
	return q, nil
}

// Values - обратное преобразование для ссылок (например, на CSV)
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Filter.Status != "" {
		v.Set("status", string(q.Filter.Status))
	}
	if q.Filter.Priority != "" {
		v.Set("priority", string(q.Filter.Priority))
	}
	if q.Filter.Category != "" {
		v.Set("category", q.Filter.Category)
	}
	if q.Sort != "" {
		v.Set("sort", string(q.Sort))
	}
	return v
}

// Apply фильтрует и сортирует копию списка. Сортировка стабильная,
// задачи без срока идут в конце, по дате создания - сначала новые.
func Apply(tasks []models.Task, q Query) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if q.Filter.Match(t) {
			out = append(out, t)
		}
	}

	switch q.Sort {
	case SortDueDate:
		slices.SortStableFunc(out, func(a, b models.Task) int {
			switch {
			case a.DueDate.IsZero() && b.DueDate.IsZero():
				return 0
			case a.DueDate.IsZero():
				return 1
			case b.DueDate.IsZero():
				return -1
			}
			return a.DueDate.Compare(b.DueDate.Time)
		})
	case SortPriority:
		slices.SortStableFunc(out, func(a, b models.Task) int {
			return cmp.Compare(a.Priority.Rank(), b.Priority.Rank())
		})
	case SortStatus:
		slices.SortStableFunc(out, func(a, b models.Task) int {
			return cmp.Compare(a.Status, b.Status)
		})
	case SortCreated:
		slices.SortStableFunc(out, func(a, b models.Task) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}
	return out
}

type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Report - распределения по всему списку, не только по отфильтрованной части
type Report struct {
	ByCategory []Count `json:"by_category"`
	ByPriority []Count `json:"by_priority"`
	ByStatus   []Count `json:"by_status"`
}

func Breakdown(tasks []models.Task) Report {
	categories := map[string]int{}
	priorities := map[models.Priority]int{}
	statuses := map[models.Status]int{}
	for _, t := range tasks {
		categories[t.Category]++
		priorities[t.Priority]++
		statuses[t.Status]++
	}

	var r Report
	for _, name := range slices.Sorted(maps.Keys(categories)) {
		r.ByCategory = append(r.ByCategory, Count{Name: name, Count: categories[name]})
	}
	for _, p := range []models.Priority{models.PriorityHigh, models.PriorityMedium, models.PriorityLow} {
		r.ByPriority = append(r.ByPriority, Count{Name: string(p), Count: priorities[p]})
	}
	for _, s := range models.Statuses {
		r.ByStatus = append(r.ByStatus, Count{Name: string(s), Count: statuses[s]})
	}
	return r
}

// Categories - различные категории для выпадающего списка
func Categories(tasks []models.Task) []string {
	seen := map[string]int{}
	for _, t := range tasks {
		seen[t.Category]++
	}
	return slices.Sorted(maps.Keys(seen))
}

// DaysLeft - целых дней до срока (отрицательное значение - просрочено)
func DaysLeft(due models.Date, now time.Time) int {
	return int(due.Sub(models.DateOf(now).Time).Hours() / 24)
}

// DueNote - подпись срока в карточке задачи
func DueNote(t models.Task, now time.Time) string {
	if t.DueDate.IsZero() {
		return "📅 no due date"
	}
	if t.Status == models.StatusCompleted {
		return "✅ done"
	}
	days := DaysLeft(t.DueDate, now)
	switch {
	case days < 0:
		return fmt.Sprintf("⚠️ Overdue by %d days", -days)
	case days == 0:
		return "⚠️ Due today!"
	case days <= 3:
		return fmt.Sprintf("⚠️ Due in %d days", days)
	}
	return fmt.Sprintf("📅 %d days remaining", days)
}
