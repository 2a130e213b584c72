package manager

import (
	"sync"

	"taskboard/internal/models"
)

// MemoryStorage - хранилище по умолчанию: срез в порядке вставки и счетчик id.
// id никогда не переиспользуется, даже после удаления последней задачи.
type MemoryStorage struct {
	mu     sync.Mutex
	tasks  []models.Task
	lastID int
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) AddTask(task models.Task) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastID++
	task.ID = m.lastID
	m.tasks = append(m.tasks, task)
	return task, nil
}

func (m *MemoryStorage) GetAllTasks() ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tasks := make([]models.Task, len(m.tasks))
	copy(tasks, m.tasks)
	return tasks, nil
}

func (m *MemoryStorage) GetTask(id int) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexOf(id); i >= 0 {
		return m.tasks[i], nil
	}
	return models.Task{}, notFound(id)
}

func (m *MemoryStorage) SaveTask(task models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(task.ID)
	if i < 0 {
		return notFound(task.ID)
	}
	m.tasks[i] = task
	return nil
}

func (m *MemoryStorage) DeleteTask(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return notFound(id)
	}
	m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) indexOf(id int) int {
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
