package analytics

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

type row struct {
	models.Task
	StatusLabel string
	DueNote     string
	CreatedAgo  string
}

type page struct {
	Query       Query
	Stats       models.Statistics
	CompletionP float64
	Statuses    []models.Status
	Priorities  []models.Priority
	Categories  []string
	SortKeys    []SortKey
	Rows        []row
	Report      Report
	ExportHref  template.URL
}

type Handler struct {
	svc  manager.Service
	tmpl *template.Template
	now  func() time.Time
}

func NewHandler(svc manager.Service) (*Handler, error) {
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Handler{svc: svc, tmpl: tmpl, now: time.Now}, nil
}

func (h *Handler) Router() *chi.Mux {
	r := server.NewBaseRouter("analytics")
	r.Get("/", h.index)
	r.Get("/export.csv", h.exportCSV)
	r.Get("/api/report", h.apiReport)
	return r
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	tasks, err := h.svc.ListTasks(r.Context(), models.TaskFilter{})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	stats, err := h.svc.GetStatistics(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	now := h.now()
	filtered := Apply(tasks, q)
	rows := make([]row, 0, len(filtered))
	for _, t := range filtered {
		rows = append(rows, row{
			Task:        t,
			StatusLabel: t.Status.Label(),
			DueNote:     DueNote(t, now),
			CreatedAgo:  humanize.RelTime(t.CreatedAt, now, "ago", "from now"),
		})
	}

	data := page{
		Query:       q,
		Stats:       stats,
		CompletionP: stats.CompletionPercent(),
		Statuses:    models.Statuses,
		Priorities:  models.Priorities,
		Categories:  Categories(tasks),
		SortKeys:    SortKeys,
		Rows:        rows,
		Report:      Breakdown(tasks),
		ExportHref:  template.URL("/export.csv?" + q.Values().Encode()),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, "analytics.html", data); err != nil {
		logger.Error(r.Context(), err, "Ошибка рендеринга аналитики")
	}
}

// exportCSV отдает текущую выборку (с фильтрами и сортировкой) файлом
func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r.URL.Query())
	if err != nil {
		server.WriteServiceError(w, r, err)
		return
	}
	tasks, err := h.svc.ListTasks(r.Context(), models.TaskFilter{})
	if err != nil {
		server.WriteServiceError(w, r, err)
		return
	}

	filename := "tasks-" + h.now().Format("20060102-150405") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := models.WriteCSV(w, Apply(tasks, q)); err != nil {
		logger.Error(r.Context(), err, "Ошибка выгрузки CSV")
	}
}

func (h *Handler) apiReport(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.svc.ListTasks(r.Context(), models.TaskFilter{})
	if err != nil {
		server.WriteServiceError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, Breakdown(tasks))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	logger.Error(r.Context(), err, "Ошибка построения аналитики")
	http.Error(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
}
