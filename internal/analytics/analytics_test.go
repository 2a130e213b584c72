package analytics

import (
	"context"
	"encoding/csv"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"taskboard/internal/manager"
	"taskboard/internal/models"
)

func sampleTasks() []models.Task {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	return []models.Task{
		{ID: 1, Title: "a", Status: models.StatusCompleted, Priority: models.PriorityLow, Category: "Design", DueDate: models.NewDate(2025, 6, 20), CreatedAt: base},
		{ID: 2, Title: "b", Status: models.StatusPending, Priority: models.PriorityHigh, Category: "Testing", CreatedAt: base.Add(time.Hour)},
		{ID: 3, Title: "c", Status: models.StatusInProgress, Priority: models.PriorityMedium, Category: "Design", DueDate: models.NewDate(2025, 6, 5), CreatedAt: base.Add(2 * time.Hour)},
		{ID: 4, Title: "d", Status: models.StatusPending, Priority: models.PriorityHigh, Category: "Design", DueDate: models.NewDate(2025, 6, 12), CreatedAt: base.Add(3 * time.Hour)},
	}
}

func ids(tasks []models.Task) []int {
	out := make([]int, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestApplySort(t *testing.T) {
	tests := []struct {
		sort SortKey
		want []int
	}{
		{SortDueDate, []int{3, 4, 1, 2}},
		{SortPriority, []int{2, 4, 3, 1}},
		{SortStatus, []int{1, 3, 2, 4}},
		{SortCreated, []int{4, 3, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			got := ids(Apply(sampleTasks(), Query{Sort: tt.sort}))
			if !equalInts(got, tt.want) {
				t.Errorf("Порядок %v, ожидалось %v", got, tt.want)
			}
		})
	}
}

func TestApplyFilter(t *testing.T) {
	tasks := sampleTasks()
	got := Apply(tasks, Query{Filter: models.TaskFilter{Category: "Design", Priority: models.PriorityHigh}, Sort: SortDueDate})
	if !equalInts(ids(got), []int{4}) {
		t.Errorf("Неверная выборка: %v", ids(got))
	}
	if len(tasks) != 4 || tasks[0].ID != 1 {
		t.Errorf("Исходный срез не должен меняться")
	}
	if got := Apply(tasks, Query{Filter: models.TaskFilter{Category: "Nope"}}); len(got) != 0 || got == nil {
		t.Errorf("Ожидался пустой срез (не nil), получено %v", got)
	}
}

func TestParseQuery(t *testing.T) {
	q, err := ParseQuery(url.Values{"status": {"all"}, "priority": {"high"}, "category": {"Design"}, "sort": {"priority"}})
	if err != nil {
		t.Fatal(err)
	}
	if q.Filter.Status != "" || q.Filter.Priority != models.PriorityHigh || q.Filter.Category != "Design" || q.Sort != SortPriority {
		t.Errorf("Неверный запрос: %+v", q)
	}

	q, _ = ParseQuery(url.Values{})
	if q.Sort != SortDueDate {
		t.Errorf("Сортировка по умолчанию - по сроку, получено %q", q.Sort)
	}

	_, err = ParseQuery(url.Values{"status": {"done"}, "sort": {"title"}})
	var ve *manager.ValidationError
	if !errors.As(err, &ve) || ve.Fields["status"] == "" || ve.Fields["sort"] == "" {
		t.Errorf("Ожидалась ValidationError по status и sort, получено %v", err)
	}
}

func TestBreakdown(t *testing.T) {
	r := Breakdown(sampleTasks())

	if len(r.ByCategory) != 2 || r.ByCategory[0] != (Count{"Design", 3}) || r.ByCategory[1] != (Count{"Testing", 1}) {
		t.Errorf("Неверные категории: %+v", r.ByCategory)
	}
	wantPriority := []Count{{"high", 2}, {"medium", 1}, {"low", 1}}
	for i, c := range wantPriority {
		if r.ByPriority[i] != c {
			t.Errorf("ByPriority[%d] = %+v, ожидалось %+v", i, r.ByPriority[i], c)
		}
	}
	if r.ByStatus[0] != (Count{"pending", 2}) {
		t.Errorf("Неверные статусы: %+v", r.ByStatus)
	}
}

func TestDueNote(t *testing.T) {
	now := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		task models.Task
		want string
	}{
		{models.Task{DueDate: models.NewDate(2025, 6, 7)}, "⚠️ Overdue by 3 days"},
		{models.Task{DueDate: models.NewDate(2025, 6, 10)}, "⚠️ Due today!"},
		{models.Task{DueDate: models.NewDate(2025, 6, 12)}, "⚠️ Due in 2 days"},
		{models.Task{DueDate: models.NewDate(2025, 6, 30)}, "📅 20 days remaining"},
		{models.Task{DueDate: models.NewDate(2025, 6, 1), Status: models.StatusCompleted}, "✅ done"},
		{models.Task{}, "📅 no due date"},
	}
	for _, tt := range tests {
		if got := DueNote(tt.task, now); got != tt.want {
			t.Errorf("DueNote(%s) = %q, ожидалось %q", tt.task.DueDate, got, tt.want)
		}
	}
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	tm := manager.NewTaskManager()
	if err := tm.SeedSampleTasks(context.Background(), rand.New(rand.NewPCG(7, 7))); err != nil {
		t.Fatal(err)
	}
	h, err := NewHandler(tm)
	if err != nil {
		t.Fatal(err)
	}
	h.now = func() time.Time { return time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC) }
	return h
}

func TestIndexPage(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?status=completed&sort=priority", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Ожидался 200, получено %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"Tasks (5 found)",
		`<option value="completed" selected>Completed</option>`,
		`<option value="priority" selected>Priority</option>`,
		`href="/export.csv?sort=priority&amp;status=completed"`,
		"<th>Development</th><td>3</td>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("В странице нет %q", want)
		}
	}

	rec = httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?category=Nope", nil))
	if !strings.Contains(rec.Body.String(), "No tasks found matching the selected filters.") {
		t.Errorf("Ожидалось сообщение о пустой выборке")
	}

	rec = httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?priority=urgent", nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Ожидался 422, получено %d", rec.Code)
	}
}

func TestExportCSV(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export.csv?priority=high", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Ожидался 200, получено %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="tasks-20250610-120000.csv"`) {
		t.Errorf("Неверный Content-Disposition: %q", cd)
	}

	rows, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	// приоритет high у задач 7-9 демонстрационного набора
	if len(rows) != 4 {
		t.Fatalf("Ожидался заголовок и 3 строки, получено %d", len(rows))
	}
	for _, row := range rows[1:] {
		if row[4] != "high" {
			t.Errorf("В выгрузке только high, получено %q", row[4])
		}
	}
}
