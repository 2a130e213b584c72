package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskboard/internal/manager"
	"taskboard/internal/models"
)

func newTestDashboard(t *testing.T) (*Dashboard, *manager.TaskManager) {
	t.Helper()
	tm := manager.NewTaskManager()
	d, err := New(tm)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d.now = func() time.Time { return time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC) }
	return d, tm
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestIndexRendersStatsAndTasks(t *testing.T) {
	d, tm := newTestDashboard(t)
	ctx := context.Background()

	tm.CreateTask(ctx, models.CreateTaskRequest{
		Title:    "Сверстать <форму>",
		Priority: models.PriorityHigh,
		DueDate:  models.NewDate(2025, 6, 1),
	})
	tm.CreateTask(ctx, models.CreateTaskRequest{
		Title:   "Готово",
		Status:  models.StatusCompleted,
		DueDate: models.NewDate(2025, 6, 13),
	})

	rec := get(d.Router(), "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("Ожидался 200, получено %d", rec.Code)
	}
	body := rec.Body.String()

	for _, want := range []string{
		`id="stat-total">2<`,
		`id="stat-completed">1<`,
		`id="stat-overdue">1<`,
		`50.00%`,
		`Сверстать &lt;форму&gt;`,
		`task-card overdue" id="task-1"`,
		`1 week ago`,
		`3 days from now`,
		`status-completed">Completed<`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("В странице нет %q", want)
		}
	}
	if strings.Contains(body, "<форму>") {
		t.Errorf("Заголовок должен экранироваться")
	}
}

func TestIndexEmptyStore(t *testing.T) {
	d, _ := newTestDashboard(t)

	rec := get(d.Router(), "/")
	if !strings.Contains(rec.Body.String(), "No tasks yet.") {
		t.Errorf("Ожидалось сообщение о пустом списке")
	}
	if !strings.Contains(rec.Body.String(), "0.00%") {
		t.Errorf("Процент выполнения пустого списка должен быть 0")
	}
}

func TestAPIEndpoints(t *testing.T) {
	d, tm := newTestDashboard(t)
	tm.CreateTask(context.Background(), models.CreateTaskRequest{Title: "X"})

	rec := get(d.Router(), "/api/tasks")
	var tasks []models.Task
	if err := json.NewDecoder(rec.Body).Decode(&tasks); err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || tasks[0].Category != manager.DefaultCategory {
		t.Errorf("Неверный ответ /api/tasks: %+v", tasks)
	}

	rec = get(d.Router(), "/api/stats")
	var stats models.Statistics
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats.Total != 1 || stats.Pending != 1 {
		t.Errorf("Неверный ответ /api/stats: %+v", stats)
	}
}

func TestNotFoundPage(t *testing.T) {
	d, _ := newTestDashboard(t)

	rec := get(d.Router(), "/nope")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Ожидался 404, получено %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/nope") {
		t.Errorf("Страница 404 должна содержать путь")
	}
}

func TestHumanDue(t *testing.T) {
	now := time.Date(2025, 6, 10, 18, 30, 0, 0, time.UTC)
	tests := []struct {
		due  models.Date
		want string
	}{
		{models.Date{}, "no due date"},
		{models.NewDate(2025, 6, 10), "today"},
		{models.NewDate(2025, 6, 11), "1 day from now"},
		{models.NewDate(2025, 6, 7), "3 days ago"},
	}
	for _, tt := range tests {
		if got := HumanDue(tt.due, now); got != tt.want {
			t.Errorf("HumanDue(%s) = %q, ожидалось %q", tt.due, got, tt.want)
		}
	}
}
