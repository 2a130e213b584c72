package manager

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"taskboard/internal/logger"
	"taskboard/internal/models"
)

const DefaultCategory = "General"

// Storage - бэкенд для TaskManager. Валидация, значения по умолчанию и
// временные метки остаются в менеджере, хранилище только хранит записи.
type Storage interface {
	// AddTask назначает следующий id и возвращает сохраненную задачу
	AddTask(task models.Task) (models.Task, error)
	// GetAllTasks возвращает задачи в порядке создания
	GetAllTasks() ([]models.Task, error)
	GetTask(id int) (models.Task, error)
	SaveTask(task models.Task) error
	DeleteTask(id int) error
	Close() error
}

// Service - контракт хранилища задач для всех адаптеров.
// Реализуется *TaskManager (в процессе) и client.Client (через REST API).
type Service interface {
	ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	GetTask(ctx context.Context, id int) (models.Task, error)
	CreateTask(ctx context.Context, req models.CreateTaskRequest) (models.Task, error)
	UpdateTask(ctx context.Context, id int, req models.UpdateTaskRequest) (models.Task, error)
	DeleteTask(ctx context.Context, id int) (models.Task, error)
	GetStatistics(ctx context.Context) (models.Statistics, error)
}

var _ Service = (*TaskManager)(nil)

// TaskManager - единственный владелец задач. Каждая операция выполняется под
// мьютексом целиком, поэтому чтение-проверка-запись в UpdateTask атомарны.
type TaskManager struct {
	mu       sync.Mutex
	storage  Storage
	validate *validator.Validate
	now      func() time.Time
}

func NewTaskManager() *TaskManager {
	return NewTaskManagerWithStorage(NewMemoryStorage())
}

func NewTaskManagerWithStorage(storage Storage) *TaskManager {
	return &TaskManager{
		storage:  storage,
		validate: newValidator(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (tm *TaskManager) Close() error {
	return tm.storage.Close()
}

func (tm *TaskManager) ListTasks(ctx context.Context, filter models.TaskFilter) (tasks []models.Task, err error) {
	defer track("list", time.Now(), &err)

	tm.mu.Lock()
	defer tm.mu.Unlock()

	all, err := tm.storage.GetAllTasks()
	if err != nil {
		logger.Error(ctx, err, "Ошибка чтения задач")
		return nil, err
	}

	tasks = make([]models.Task, 0, len(all))
	for _, task := range all {
		if filter.Match(task) {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (tm *TaskManager) GetTask(ctx context.Context, id int) (task models.Task, err error) {
	defer track("get", time.Now(), &err)

	tm.mu.Lock()
	defer tm.mu.Unlock()

	return tm.storage.GetTask(id)
}

func (tm *TaskManager) CreateTask(ctx context.Context, req models.CreateTaskRequest) (task models.Task, err error) {
	defer track("create", time.Now(), &err)

	req = normalizeCreate(req)
	if err := tm.validateCreate(req); err != nil {
		logger.Debug(ctx, "Задача не прошла валидацию", "error", err)
		return models.Task{}, err
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()

	now := tm.now()
	task, err = tm.storage.AddTask(models.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Category:    req.Category,
		DueDate:     req.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		logger.Error(ctx, err, "Ошибка сохранения задачи")
		return models.Task{}, err
	}

	taskTitleLength.Observe(float64(utf8.RuneCountInString(task.Title)))
	logger.Info(ctx, "Задача создана", "id", task.ID, "status", task.Status, "priority", task.Priority)
	return task, nil
}

func (tm *TaskManager) UpdateTask(ctx context.Context, id int, req models.UpdateTaskRequest) (task models.Task, err error) {
	defer track("update", time.Now(), &err)

	req = normalizeUpdate(req)

	tm.mu.Lock()
	defer tm.mu.Unlock()

	task, err = tm.storage.GetTask(id)
	if err != nil {
		return models.Task{}, err
	}

	// Все поля проверяются до применения: либо обновление целиком, либо ничего
	if err := tm.validateUpdate(req); err != nil {
		logger.Debug(ctx, "Обновление не прошло валидацию", "id", id, "error", err)
		return models.Task{}, err
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.Category != nil {
		task.Category = *req.Category
		if task.Category == "" {
			task.Category = DefaultCategory
		}
	}
	if req.DueDate != nil {
		task.DueDate = *req.DueDate
	}

	task.UpdatedAt = tm.now()
	if task.UpdatedAt.Before(task.CreatedAt) {
		task.UpdatedAt = task.CreatedAt
	}

	if err := tm.storage.SaveTask(task); err != nil {
		logger.Error(ctx, err, "Ошибка сохранения задачи", "id", id)
		return models.Task{}, err
	}

	logger.Info(ctx, "Задача обновлена", "id", id, "status", task.Status)
	return task, nil
}

// DeleteTask удаляет задачу и возвращает удаленную запись.
// Повторное удаление того же id вернет ErrTaskNotFound.
func (tm *TaskManager) DeleteTask(ctx context.Context, id int) (task models.Task, err error) {
	defer track("delete", time.Now(), &err)

	tm.mu.Lock()
	defer tm.mu.Unlock()

	task, err = tm.storage.GetTask(id)
	if err != nil {
		return models.Task{}, err
	}
	if err := tm.storage.DeleteTask(id); err != nil {
		return models.Task{}, err
	}

	logger.Info(ctx, "Задача удалена", "id", id)
	return task, nil
}

func (tm *TaskManager) GetStatistics(ctx context.Context) (stats models.Statistics, err error) {
	defer track("stats", time.Now(), &err)

	tm.mu.Lock()
	defer tm.mu.Unlock()

	tasks, err := tm.storage.GetAllTasks()
	if err != nil {
		return models.Statistics{}, err
	}
	return ComputeStatistics(tasks, models.DateOf(tm.now())), nil
}

// ComputeStatistics считает агрегаты по произвольному набору задач
// (используется и для отфильтрованных представлений в аналитике).
func ComputeStatistics(tasks []models.Task, today models.Date) models.Statistics {
	stats := models.Statistics{
		Total:      len(tasks),
		ByStatus:   make(map[models.Status]int, len(models.Statuses)),
		ByPriority: make(map[models.Priority]int, len(models.Priorities)),
		ByCategory: make(map[string]int),
	}
	for _, s := range models.Statuses {
		stats.ByStatus[s] = 0
	}
	for _, p := range models.Priorities {
		stats.ByPriority[p] = 0
	}

	for _, task := range tasks {
		stats.ByStatus[task.Status]++
		stats.ByPriority[task.Priority]++
		stats.ByCategory[task.Category]++
		if task.Overdue(today) {
			stats.Overdue++
		}
	}

	stats.Pending = stats.ByStatus[models.StatusPending]
	stats.InProgress = stats.ByStatus[models.StatusInProgress]
	stats.Completed = stats.ByStatus[models.StatusCompleted]
	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.Total)
	}
	return stats
}

func track(op string, start time.Time, err *error) {
	operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	observeResult(op, *err)
}

func normalizeCreate(req models.CreateTaskRequest) models.CreateTaskRequest {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Category = strings.TrimSpace(req.Category)
	if req.Status == "" {
		req.Status = models.StatusPending
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	if req.Category == "" {
		req.Category = DefaultCategory
	}
	return req
}

func normalizeUpdate(req models.UpdateTaskRequest) models.UpdateTaskRequest {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.TrimSpace(*s)
		return &v
	}
	req.Title = trim(req.Title)
	req.Description = trim(req.Description)
	req.Category = trim(req.Category)
	return req
}
