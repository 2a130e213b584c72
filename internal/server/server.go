package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taskboard/internal/logger"
	"taskboard/internal/manager"
	"taskboard/internal/models"
)

const (
	ServiceName = "Task Management API"
	Version     = "1.0.0"
)

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type DeleteResponse struct {
	Message   string      `json:"message"`
	DeletedID int         `json:"deleted_id"`
	Task      models.Task `json:"task"`
}

// NewRouter - REST API поверх хранилища задач
func NewRouter(svc manager.Service) *chi.Mux {
	r := NewBaseRouter("api")

	r.Get("/", rootHandler())
	r.Get("/health", healthHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", listTasksHandler(svc))
		r.Post("/", createTaskHandler(svc))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", getTaskHandler(svc))
			r.Put("/", updateTaskHandler(svc))
			r.Patch("/", updateTaskHandler(svc))
			r.Delete("/", deleteTaskHandler(svc))
		})
	})
	r.Get("/stats", statsHandler(svc))

	return r
}

func rootHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]any{
			"message": ServiceName,
			"version": Version,
			"endpoints": map[string]string{
				"tasks":      "/tasks",
				"task_by_id": "/tasks/{id}",
				"statistics": "/stats",
				"health":     "/health",
				"metrics":    "/metrics",
			},
		})
	}
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"service":   ServiceName,
		})
	}
}

func listTasksHandler(svc manager.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := ParseFilter(r)
		if err != nil {
			WriteServiceError(w, r, err)
			return
		}

		tasks, err := svc.ListTasks(r.Context(), filter)
		if err != nil {
			WriteServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, tasks)
	}
}

func getTaskHandler(svc manager.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := taskID(w, r)
		if !ok {
			return
		}

		task, err := svc.GetTask(r.Context(), id)
		if err != nil {
			WriteServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, task)
	}
}

func createTaskHandler(svc manager.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var req models.CreateTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: "неверный JSON: " + err.Error()})
			return
		}

		task, err := svc.CreateTask(r.Context(), req)
		if err != nil {
			WriteServiceError(w, r, err)
			return
		}

		w.Header().Set("Location", "/tasks/"+strconv.Itoa(task.ID))
		WriteJSON(w, http.StatusCreated, task)
	}
}

func updateTaskHandler(svc manager.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		id, ok := taskID(w, r)
		if !ok {
			return
		}

		var req models.UpdateTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: "неверный JSON: " + err.Error()})
			return
		}
		if req.Empty() {
			WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: "нет данных для обновления"})
			return
		}

		task, err := svc.UpdateTask(r.Context(), id, req)
		if err != nil {
			WriteServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, task)
	}
}

func deleteTaskHandler(svc manager.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := taskID(w, r)
		if !ok {
			return
		}

		task, err := svc.DeleteTask(r.Context(), id)
		if err != nil {
			WriteServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, DeleteResponse{
			Message:   "Task " + strconv.Itoa(id) + " deleted successfully",
			DeletedID: id,
			Task:      task,
		})
	}
}

func statsHandler(svc manager.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.GetStatistics(r.Context())
		if err != nil {
			WriteServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, stats)
	}
}

// ParseFilter читает ?status=&priority=&category= и проверяет значения перечислений
func ParseFilter(r *http.Request) (models.TaskFilter, error) {
	q := r.URL.Query()
	filter := models.TaskFilter{
		Status:   models.Status(q.Get("status")),
		Priority: models.Priority(q.Get("priority")),
		Category: q.Get("category"),
	}

	fields := map[string]string{}
	if filter.Status != "" && !filter.Status.Valid() {
		fields["status"] = "недопустимый статус " + strconv.Quote(string(filter.Status))
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		fields["priority"] = "недопустимый приоритет " + strconv.Quote(string(filter.Priority))
	}
	if len(fields) > 0 {
		return models.TaskFilter{}, &manager.ValidationError{Fields: fields}
	}
	return filter, nil
}

func taskID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: "ID задачи должен быть положительным числом"})
		return 0, false
	}
	return id, true
}

// WriteServiceError переводит ошибки хранилища в HTTP-статусы
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *manager.ValidationError
	switch {
	case errors.As(err, &ve):
		WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: ve.Error(), Fields: ve.Fields})
	case errors.Is(err, manager.ErrTaskNotFound):
		WriteJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	default:
		logger.Error(r.Context(), err, "Ошибка обработки запроса", "path", r.URL.Path)
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "внутренняя ошибка сервера"})
	}
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error(context.Background(), err, "Ошибка записи ответа")
	}
}
