package models

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

var csvHeader = []string{"id", "title", "description", "status", "priority", "category", "due_date", "created_at", "updated_at"}

func WriteJSON(w io.Writer, tasks []Task) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tasks)
}

func WriteCSV(w io.Writer, tasks []Task) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range tasks {
		record := []string{
			strconv.Itoa(t.ID),
			t.Title,
			t.Description,
			string(t.Status),
			string(t.Priority),
			t.Category,
			t.DueDate.String(),
			t.CreatedAt.Format(time.RFC3339),
			t.UpdatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func SaveJSON(path string, tasks []Task) error {
	return saveFile(path, tasks, WriteJSON)
}

func SaveCSV(path string, tasks []Task) error {
	return saveFile(path, tasks, WriteCSV)
}

func saveFile(path string, tasks []Task, write func(io.Writer, []Task) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ошибка создания файла %s: %w", path, err)
	}
	if err := write(f, tasks); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadJSON читает массив задач; id и временные метки игнорируются вызывающим кодом
func ReadJSON(r io.Reader) ([]CreateTaskRequest, error) {
	var reqs []CreateTaskRequest
	if err := json.NewDecoder(r).Decode(&reqs); err != nil {
		return nil, fmt.Errorf("ошибка разбора JSON: %w", err)
	}
	return reqs, nil
}

// ReadCSV ожидает заголовок; колонки ищутся по имени, лишние пропускаются
func ReadCSV(r io.Reader) ([]CreateTaskRequest, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[name] = i
	}
	if _, ok := index["title"]; !ok {
		return nil, fmt.Errorf("в CSV нет колонки title")
	}

	field := func(row []string, name string) string {
		if i, ok := index[name]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	reqs := make([]CreateTaskRequest, 0, len(rows)-1)
	for n, row := range rows[1:] {
		due, err := ParseDate(field(row, "due_date"))
		if err != nil {
			return nil, fmt.Errorf("строка %d: %w", n+2, err)
		}
		reqs = append(reqs, CreateTaskRequest{
			Title:       field(row, "title"),
			Description: field(row, "description"),
			Status:      Status(field(row, "status")),
			Priority:    Priority(field(row, "priority")),
			Category:    field(row, "category"),
			DueDate:     due,
		})
	}
	return reqs, nil
}
