package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"taskboard/internal/manager"
	"taskboard/internal/models"
)

const taskColumns = "id, title, description, status, priority, category, due_date, created_at, updated_at"

type SQLiteStorage struct {
	mu sync.Mutex
	db *sql.DB
}

var _ manager.Storage = (*SQLiteStorage)(nil)

func NewSQLiteStorage(dsn string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия БД: %w", err)
	}

	// У каждого соединения ":memory:" своя база, поэтому держим ровно одно
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStorage{db: db}, nil
}

func createTables(db *sql.DB) error {
	// AUTOINCREMENT гарантирует, что id удаленных задач не выдаются повторно
	createTasksTable := `
	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending'
			CHECK (status IN ('pending', 'in_progress', 'completed')),
		priority TEXT NOT NULL DEFAULT 'medium'
			CHECK (priority IN ('low', 'medium', 'high')),
		category TEXT NOT NULL DEFAULT '',
		due_date TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`

	if _, err := db.Exec(createTasksTable); err != nil {
		return fmt.Errorf("ошибка создания таблицы tasks: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) AddTask(task models.Task) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
	INSERT INTO tasks (title, description, status, priority, category, due_date, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := s.db.Exec(query,
		task.Title, task.Description, string(task.Status), string(task.Priority),
		task.Category, task.DueDate, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return models.Task{}, fmt.Errorf("ошибка добавления задачи: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return models.Task{}, err
	}
	task.ID = int(id)
	return task, nil
}

func (s *SQLiteStorage) GetAllTasks() ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT " + taskColumns + " FROM tasks ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

func (s *SQLiteStorage) GetTask(id int) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow("SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, fmt.Errorf("задача с ID %d: %w", id, manager.ErrTaskNotFound)
		}
		return models.Task{}, err
	}
	return task, nil
}

func (s *SQLiteStorage) SaveTask(task models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
	UPDATE tasks
	SET title = ?, description = ?, status = ?, priority = ?, category = ?, due_date = ?, updated_at = ?
	WHERE id = ?`

	result, err := s.db.Exec(query,
		task.Title, task.Description, string(task.Status), string(task.Priority),
		task.Category, task.DueDate, task.UpdatedAt, task.ID,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления задачи: %w", err)
	}
	return expectOneRow(result, task.ID)
}

func (s *SQLiteStorage) DeleteTask(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec("DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectOneRow(result, id)
}

func expectOneRow(result sql.Result, id int) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("задача с ID %d: %w", id, manager.ErrTaskNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var task models.Task
	var status, priority string

	err := row.Scan(
		&task.ID, &task.Title, &task.Description, &status, &priority,
		&task.Category, &task.DueDate, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return models.Task{}, err
	}

	task.Status = models.Status(status)
	task.Priority = models.Priority(priority)
	return task, nil
}

// Вспомогательная функция для сканирования задач
func scanTasks(rows *sql.Rows) ([]models.Task, error) {
	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
