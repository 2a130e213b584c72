package dashboard

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"taskboard/internal/logger"
	"taskboard/internal/manager"
	"taskboard/internal/models"
	"taskboard/internal/server"
)

//go:embed templates/*.html
var templateFS embed.FS

// TaskView - задача с уже отформатированными для шаблона полями
type TaskView struct {
	models.Task
	StatusLabel string
	DueHuman    string
	Overdue     bool
}

type pageData struct {
	Stats       models.Statistics
	CompletionP float64
	Tasks       []TaskView
	GeneratedAt string
}

type Dashboard struct {
	svc  manager.Service
	tmpl *template.Template
	now  func() time.Time
}

func New(svc manager.Service) (*Dashboard, error) {
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Dashboard{svc: svc, tmpl: tmpl, now: time.Now}, nil
}

// Router - HTML-страница и JSON-эндпоинты /api/tasks, /api/stats
func (d *Dashboard) Router() *chi.Mux {
	r := server.NewBaseRouter("dashboard")
	r.Get("/", d.index)
	r.Get("/api/tasks", d.apiTasks)
	r.Get("/api/stats", d.apiStats)
	r.NotFound(d.notFound)
	return r
}

func (d *Dashboard) index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tasks, err := d.svc.ListTasks(ctx, models.TaskFilter{})
	if err != nil {
		d.fail(w, r, err)
		return
	}
	stats, err := d.svc.GetStatistics(ctx)
	if err != nil {
		d.fail(w, r, err)
		return
	}

	now := d.now()
	data := pageData{
		Stats:       stats,
		CompletionP: stats.CompletionPercent(),
		Tasks:       taskViews(tasks, now),
		GeneratedAt: now.Format("2006-01-02 15:04:05"),
	}
	d.render(w, r, http.StatusOK, "dashboard.html", data)
}

func (d *Dashboard) apiTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := d.svc.ListTasks(r.Context(), models.TaskFilter{})
	if err != nil {
		server.WriteServiceError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, tasks)
}

func (d *Dashboard) apiStats(w http.ResponseWriter, r *http.Request) {
	stats, err := d.svc.GetStatistics(r.Context())
	if err != nil {
		server.WriteServiceError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, stats)
}

func (d *Dashboard) notFound(w http.ResponseWriter, r *http.Request) {
	d.render(w, r, http.StatusNotFound, "notfound.html", r.URL.Path)
}

func (d *Dashboard) fail(w http.ResponseWriter, r *http.Request, err error) {
	logger.Error(r.Context(), err, "Ошибка построения дашборда")
	http.Error(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
}

func (d *Dashboard) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := d.tmpl.ExecuteTemplate(w, name, data); err != nil {
		logger.Error(r.Context(), err, "Ошибка рендеринга шаблона", "template", name)
	}
}

func taskViews(tasks []models.Task, now time.Time) []TaskView {
	today := models.DateOf(now)
	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, TaskView{
			Task:        t,
			StatusLabel: t.Status.Label(),
			DueHuman:    HumanDue(t.DueDate, now),
			Overdue:     t.Overdue(today),
		})
	}
	return views
}

// HumanDue - срок относительно now: "3 days from now", "2 weeks ago", "today"
func HumanDue(due models.Date, now time.Time) string {
	if due.IsZero() {
		return "no due date"
	}
	if due.Equal(models.DateOf(now).Time) {
		return "today"
	}
	return humanize.RelTime(due.Time, models.DateOf(now).Time, "ago", "from now")
}
