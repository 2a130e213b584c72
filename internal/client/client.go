package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/manager"
	"taskboard/internal/models"
)

// Client обращается к хранилищу через REST API. Так адаптеры в отдельных
// процессах (TUI, бот, taskctl) видят то же состояние, что и сервер.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ manager.Service = (*Client)(nil)

func New(baseURL string) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: 10 * time.Second})
}

func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
	}
}

func (c *Client) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.Priority != "" {
		q.Set("priority", string(filter.Priority))
	}
	if filter.Category != "" {
		q.Set("category", filter.Category)
	}

	path := "/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var tasks []models.Task
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id int) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, http.MethodGet, taskPath(id), nil, &task)
	return task, err
}

func (c *Client) CreateTask(ctx context.Context, req models.CreateTaskRequest) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, http.MethodPost, "/tasks", req, &task)
	return task, err
}

func (c *Client) UpdateTask(ctx context.Context, id int, req models.UpdateTaskRequest) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, http.MethodPatch, taskPath(id), req, &task)
	return task, err
}

func (c *Client) DeleteTask(ctx context.Context, id int) (models.Task, error) {
	var resp struct {
		Task models.Task `json:"task"`
	}
	err := c.do(ctx, http.MethodDelete, taskPath(id), nil, &resp)
	return resp.Task, err
}

func (c *Client) GetStatistics(ctx context.Context) (models.Statistics, error) {
	var stats models.Statistics
	err := c.do(ctx, http.MethodGet, "/stats", nil, &stats)
	return stats, err
}

func taskPath(id int) string {
	return "/tasks/" + strconv.Itoa(id)
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("ошибка сериализации запроса: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка запроса %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ошибка разбора ответа: %w", err)
	}
	return nil
}

// decodeError восстанавливает ошибки хранилища из HTTP-статуса,
// чтобы вызывающий код мог использовать errors.Is / errors.As как локально
func decodeError(resp *http.Response) error {
	var eb errorBody
	_ = json.NewDecoder(resp.Body).Decode(&eb)
	if eb.Error == "" {
		eb.Error = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", eb.Error, manager.ErrTaskNotFound)
	case http.StatusUnprocessableEntity:
		fields := eb.Fields
		if len(fields) == 0 {
			fields = map[string]string{"request": eb.Error}
		}
		return &manager.ValidationError{Fields: fields}
	}
	return &HTTPError{StatusCode: resp.StatusCode, Message: eb.Error}
}

type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func IsHTTPStatus(err error, code int) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.StatusCode == code
}
