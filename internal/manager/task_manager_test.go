package manager

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"taskboard/internal/models"
)

func ptr[T any](v T) *T { return &v }

// newTestManager возвращает менеджер с управляемыми часами
func newTestManager(t *testing.T) (*TaskManager, *time.Time) {
	t.Helper()
	clock := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
	tm := NewTaskManager()
	tm.now = func() time.Time { return clock }
	return tm, &clock
}

func seeded(t *testing.T) *TaskManager {
	t.Helper()
	tm, _ := newTestManager(t)
	if err := tm.SeedSampleTasks(context.Background(), rand.New(rand.NewPCG(1, 2))); err != nil {
		t.Fatalf("Ошибка загрузки демонстрационных задач: %v", err)
	}
	return tm
}

func TestCreateTask(t *testing.T) {
	tm, clock := newTestManager(t)
	ctx := context.Background()

	task, err := tm.CreateTask(ctx, models.CreateTaskRequest{Title: "Купить молоко"})
	if err != nil {
		t.Fatalf("Ошибка при добавлении задачи: %v", err)
	}

	if task.ID != 1 {
		t.Errorf("Ожидался ID=1, получено %d", task.ID)
	}
	if task.Status != models.StatusPending {
		t.Errorf("Ожидался статус pending, получено %q", task.Status)
	}
	if task.Priority != models.PriorityMedium {
		t.Errorf("Ожидался приоритет medium, получено %q", task.Priority)
	}
	if task.Category != DefaultCategory {
		t.Errorf("Ожидалась категория %q, получено %q", DefaultCategory, task.Category)
	}
	if !task.CreatedAt.Equal(*clock) || !task.UpdatedAt.Equal(*clock) {
		t.Errorf("Неверные временные метки: %v / %v", task.CreatedAt, task.UpdatedAt)
	}
}

func TestCreateTaskDefaultsStatusToPending(t *testing.T) {
	tm, _ := newTestManager(t)
	ctx := context.Background()

	created, err := tm.CreateTask(ctx, models.CreateTaskRequest{Title: "X", Priority: models.PriorityHigh})
	if err != nil {
		t.Fatal(err)
	}

	got, err := tm.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusPending || got.Priority != models.PriorityHigh {
		t.Errorf("Ожидались pending/high, получено %s/%s", got.Status, got.Priority)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   models.CreateTaskRequest
		field string
	}{
		{"empty title", models.CreateTaskRequest{Title: ""}, "title"},
		{"whitespace title", models.CreateTaskRequest{Title: "   "}, "title"},
		{"long title", models.CreateTaskRequest{Title: strings.Repeat("a", 201)}, "title"},
		{"bad status", models.CreateTaskRequest{Title: "X", Status: "done"}, "status"},
		{"bad priority", models.CreateTaskRequest{Title: "X", Priority: "urgent"}, "priority"},
		{"long description", models.CreateTaskRequest{Title: "X", Description: strings.Repeat("d", 1001)}, "description"},
		{"long category", models.CreateTaskRequest{Title: "X", Category: strings.Repeat("c", 51)}, "category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm, _ := newTestManager(t)
			ctx := context.Background()

			_, err := tm.CreateTask(ctx, tt.req)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Ожидалась ValidationError, получено %v", err)
			}
			if _, ok := ve.Fields[tt.field]; !ok {
				t.Errorf("Ожидалась ошибка поля %q, получено %v", tt.field, ve.Fields)
			}

			tasks, _ := tm.ListTasks(ctx, models.TaskFilter{})
			if len(tasks) != 0 {
				t.Errorf("Хранилище не должно меняться, задач: %d", len(tasks))
			}
		})
	}
}

func TestCreateTaskWithMaxLength(t *testing.T) {
	tm, _ := newTestManager(t)

	// Ровно 200 символов (кириллица считается по символам, а не байтам)
	validTitle := strings.Repeat("я", 200)
	if _, err := tm.CreateTask(context.Background(), models.CreateTaskRequest{Title: validTitle}); err != nil {
		t.Errorf("Ожидалась успешная валидация для 200 символов: %v", err)
	}
}

func TestIDsStrictlyIncreaseAndAreNotReused(t *testing.T) {
	tm, _ := newTestManager(t)
	ctx := context.Background()

	last := 0
	for i := 0; i < 5; i++ {
		task, err := tm.CreateTask(ctx, models.CreateTaskRequest{Title: "t"})
		if err != nil {
			t.Fatal(err)
		}
		if task.ID <= last {
			t.Fatalf("ID %d не больше предыдущего %d", task.ID, last)
		}
		last = task.ID
	}

	if _, err := tm.DeleteTask(ctx, last); err != nil {
		t.Fatal(err)
	}
	task, err := tm.CreateTask(ctx, models.CreateTaskRequest{Title: "after delete"})
	if err != nil {
		t.Fatal(err)
	}
	if task.ID != last+1 {
		t.Errorf("ID удаленной задачи не должен переиспользоваться: получено %d", task.ID)
	}
}

func TestListTasksPreservesOrder(t *testing.T) {
	tm, _ := newTestManager(t)
	ctx := context.Background()

	titles := []string{"first", "second", "third", "fourth"}
	for _, title := range titles {
		if _, err := tm.CreateTask(ctx, models.CreateTaskRequest{Title: title}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := tm.DeleteTask(ctx, 2); err != nil {
		t.Fatal(err)
	}

	tasks, err := tm.ListTasks(ctx, models.TaskFilter{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"first", "third", "fourth"}
	if len(tasks) != len(want) {
		t.Fatalf("Ожидалось %d задач, получено %d", len(want), len(tasks))
	}
	for i, task := range tasks {
		if task.Title != want[i] {
			t.Errorf("Позиция %d: ожидалось %q, получено %q", i, want[i], task.Title)
		}
	}
}

func TestListTasksFilter(t *testing.T) {
	tm := seeded(t)
	ctx := context.Background()

	pending, err := tm.ListTasks(ctx, models.TaskFilter{Status: models.StatusPending})
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 5 {
		t.Errorf("Ожидалось 5 задач pending, получено %d", len(pending))
	}
	for _, task := range pending {
		if task.Status != models.StatusPending {
			t.Errorf("Задача %d со статусом %s в выборке pending", task.ID, task.Status)
		}
	}

	combined, _ := tm.ListTasks(ctx, models.TaskFilter{Status: models.StatusCompleted, Category: "Design"})
	for _, task := range combined {
		if task.Status != models.StatusCompleted || task.Category != "Design" {
			t.Errorf("Фильтр пропустил лишнюю задачу: %+v", task)
		}
	}

	none, err := tm.ListTasks(ctx, models.TaskFilter{Category: "Nope"})
	if err != nil {
		t.Fatal(err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("Ожидался пустой срез (не nil), получено %v", none)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	tm, _ := newTestManager(t)

	_, err := tm.GetTask(context.Background(), 42)
	if !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Ожидалась ErrTaskNotFound, получено %v", err)
	}
}

func TestUpdateTask(t *testing.T) {
	tm, clock := newTestManager(t)
	ctx := context.Background()

	created, _ := tm.CreateTask(ctx, models.CreateTaskRequest{Title: "Отчет", Category: "Work"})
	*clock = clock.Add(time.Hour)

	updated, err := tm.UpdateTask(ctx, created.ID, models.UpdateTaskRequest{
		Status:  ptr(models.StatusInProgress),
		DueDate: ptr(models.NewDate(2025, time.July, 1)),
	})
	if err != nil {
		t.Fatalf("Ошибка обновления: %v", err)
	}

	if updated.Status != models.StatusInProgress {
		t.Errorf("Статус не обновлен: %s", updated.Status)
	}
	if updated.Title != "Отчет" || updated.Category != "Work" {
		t.Errorf("Непереданные поля не должны меняться: %+v", updated)
	}
	if updated.DueDate.String() != "2025-07-01" {
		t.Errorf("Неверная дата: %s", updated.DueDate)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Errorf("updated_at должен обновиться: %v <= %v", updated.UpdatedAt, updated.CreatedAt)
	}

	stored, _ := tm.GetTask(ctx, created.ID)
	if stored.Status != models.StatusInProgress {
		t.Errorf("Изменение не сохранено в хранилище")
	}
}

func TestUpdateTaskInvalidStatusLeavesRecordUnchanged(t *testing.T) {
	tm, _ := newTestManager(t)
	ctx := context.Background()

	created, _ := tm.CreateTask(ctx, models.CreateTaskRequest{Title: "X"})

	_, err := tm.UpdateTask(ctx, created.ID, models.UpdateTaskRequest{
		Title:  ptr("Новый заголовок"),
		Status: ptr(models.Status("done")),
	})
	if !IsValidation(err) {
		t.Fatalf("Ожидалась ValidationError, получено %v", err)
	}

	stored, _ := tm.GetTask(ctx, created.ID)
	if stored.Status != models.StatusPending || stored.Title != "X" {
		t.Errorf("Частичное обновление не допускается: %+v", stored)
	}
	if !stored.UpdatedAt.Equal(created.UpdatedAt) {
		t.Errorf("updated_at не должен меняться при ошибке")
	}
}

func TestUpdateTaskEmptyTitle(t *testing.T) {
	tm, _ := newTestManager(t)
	ctx := context.Background()
	created, _ := tm.CreateTask(ctx, models.CreateTaskRequest{Title: "X"})

	_, err := tm.UpdateTask(ctx, created.ID, models.UpdateTaskRequest{Title: ptr("  ")})
	if !IsValidation(err) {
		t.Errorf("Ожидалась ValidationError для пустого заголовка, получено %v", err)
	}
}

func TestUpdateTaskNotFound(t *testing.T) {
	tm, _ := newTestManager(t)

	_, err := tm.UpdateTask(context.Background(), 7, models.UpdateTaskRequest{Title: ptr("x")})
	if !IsNotFound(err) {
		t.Errorf("Ожидалась ErrTaskNotFound, получено %v", err)
	}
}

func TestDeleteTaskTwice(t *testing.T) {
	tm, _ := newTestManager(t)
	ctx := context.Background()
	created, _ := tm.CreateTask(ctx, models.CreateTaskRequest{Title: "Удалить"})

	removed, err := tm.DeleteTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("Первое удаление должно пройти: %v", err)
	}
	if removed.ID != created.ID || removed.Title != "Удалить" {
		t.Errorf("Должна вернуться удаленная запись, получено %+v", removed)
	}

	if _, err := tm.DeleteTask(ctx, created.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Второе удаление должно вернуть ErrTaskNotFound, получено %v", err)
	}
	if _, err := tm.GetTask(ctx, created.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Удаленная задача не должна находиться")
	}
}

func TestSeedSampleTasks(t *testing.T) {
	tm := seeded(t)
	ctx := context.Background()

	tasks, _ := tm.ListTasks(ctx, models.TaskFilter{})
	if len(tasks) != SampleSize {
		t.Fatalf("Ожидалось %d задач, получено %d", SampleSize, len(tasks))
	}

	priorities := map[models.Priority]bool{}
	categories := map[string]bool{}
	for i, task := range tasks {
		if task.ID != i+1 {
			t.Errorf("Ожидался ID %d, получено %d", i+1, task.ID)
		}
		if task.UpdatedAt.Before(task.CreatedAt) {
			t.Errorf("updated_at < created_at у задачи %d", task.ID)
		}
		priorities[task.Priority] = true
		categories[task.Category] = true
	}
	if len(priorities) != 3 || len(categories) != 5 {
		t.Errorf("Набор должен покрывать все приоритеты и категории: %v %v", priorities, categories)
	}
}

func TestStatistics(t *testing.T) {
	tm := seeded(t)
	ctx := context.Background()

	stats, err := tm.GetStatistics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 15 || stats.Pending != 5 || stats.InProgress != 5 || stats.Completed != 5 {
		t.Errorf("Неверные счетчики: %+v", stats)
	}
	if diff := stats.CompletionRate - 5.0/15.0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Ожидался completion_rate 0.333, получено %v", stats.CompletionRate)
	}

	sum := 0
	for _, n := range stats.ByCategory {
		sum += n
	}
	if sum != stats.Total {
		t.Errorf("Сумма по категориям %d != total %d", sum, stats.Total)
	}

	tasks, _ := tm.ListTasks(ctx, models.TaskFilter{})
	if stats.Total != len(tasks) {
		t.Errorf("total %d != len(list) %d", stats.Total, len(tasks))
	}
}

func TestStatisticsEmpty(t *testing.T) {
	tm, _ := newTestManager(t)

	stats, err := tm.GetStatistics(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 0 || stats.CompletionRate != 0 {
		t.Errorf("Пустое хранилище: %+v", stats)
	}
	if n, ok := stats.ByStatus[models.StatusCompleted]; !ok || n != 0 {
		t.Errorf("Все статусы должны присутствовать с нулем")
	}
}

func TestStatisticsOverdue(t *testing.T) {
	tm, clock := newTestManager(t)
	ctx := context.Background()

	yesterday := models.DateOf(clock.AddDate(0, 0, -1))
	tm.CreateTask(ctx, models.CreateTaskRequest{Title: "late", DueDate: yesterday})
	tm.CreateTask(ctx, models.CreateTaskRequest{Title: "done late", DueDate: yesterday, Status: models.StatusCompleted})
	tm.CreateTask(ctx, models.CreateTaskRequest{Title: "no date"})

	stats, _ := tm.GetStatistics(ctx)
	if stats.Overdue != 1 {
		t.Errorf("Ожидалась 1 просроченная задача, получено %d", stats.Overdue)
	}
}

func TestConcurrentUpdates(t *testing.T) {
	tm, _ := newTestManager(t)
	ctx := context.Background()
	created, _ := tm.CreateTask(ctx, models.CreateTaskRequest{Title: "race"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := models.Statuses[i%len(models.Statuses)]
			if _, err := tm.UpdateTask(ctx, created.ID, models.UpdateTaskRequest{Status: &status}); err != nil {
				t.Errorf("Ошибка параллельного обновления: %v", err)
			}
		}(i)
	}
	wg.Wait()

	stored, _ := tm.GetTask(ctx, created.ID)
	if !stored.Status.Valid() {
		t.Errorf("Недопустимый статус после гонки: %q", stored.Status)
	}
}

func TestOperationMetrics(t *testing.T) {
	// Сохраняем оригинальные метрики
	originalCount := operationCount
	originalTitleLength := taskTitleLength

	// Создаем новый регистр для тестов
	registry := prometheus.NewRegistry()

	testCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_store_operations_total",
			Help: "Test counter",
		},
		[]string{"operation", "status"},
	)
	testTitleLength := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "taskboard_task_title_length_chars",
			Help:    "Test histogram",
			Buckets: []float64{10, 25, 50, 100, 200},
		},
	)
	registry.MustRegister(testCount, testTitleLength)

	// Подменяем глобальные метрики
	operationCount = testCount
	taskTitleLength = testTitleLength
	defer func() {
		operationCount = originalCount
		taskTitleLength = originalTitleLength
	}()

	tm, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := tm.CreateTask(ctx, models.CreateTaskRequest{Title: "Valid title"}); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if got := testutil.ToFloat64(testCount.WithLabelValues("create", "success")); got != 1 {
		t.Errorf("Expected 1 success, got %v", got)
	}

	tm.CreateTask(ctx, models.CreateTaskRequest{})
	if got := testutil.ToFloat64(testCount.WithLabelValues("create", "invalid")); got != 1 {
		t.Errorf("Expected 1 invalid, got %v", got)
	}

	tm.GetTask(ctx, 999)
	if got := testutil.ToFloat64(testCount.WithLabelValues("get", "not_found")); got != 1 {
		t.Errorf("Expected 1 not_found, got %v", got)
	}

	if n := testutil.CollectAndCount(testTitleLength); n != 1 {
		t.Errorf("Histogram should expose one series, got %d", n)
	}
}

func TestPublishStatistics(t *testing.T) {
	PublishStatistics(models.Statistics{
		ByStatus:       map[models.Status]int{models.StatusPending: 3, models.StatusCompleted: 1},
		CompletionRate: 0.25,
	})

	if got := testutil.ToFloat64(tasksByStatus.WithLabelValues("pending")); got != 3 {
		t.Errorf("Expected pending gauge 3, got %v", got)
	}
	if got := testutil.ToFloat64(tasksByStatus.WithLabelValues("in_progress")); got != 0 {
		t.Errorf("Expected in_progress gauge 0, got %v", got)
	}
	if got := testutil.ToFloat64(completionRate); got != 0.25 {
		t.Errorf("Expected completion rate 0.25, got %v", got)
	}
}
