package manager

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"taskboard/internal/logger"
	"taskboard/internal/models"
)

var sampleCategories = []string{"Development", "Design", "Testing", "Documentation", "Meeting"}

var sampleTemplates = []string{
	"Implement user authentication module",
	"Design landing page mockups",
	"Write unit tests for API endpoints",
	"Update project documentation",
	"Review pull requests",
	"Fix responsive layout issues",
	"Optimize database queries",
	"Conduct code review session",
	"Prepare sprint planning meeting",
	"Research new technology stack",
	"Deploy application to staging",
	"Configure CI/CD pipeline",
	"Refactor legacy codebase",
	"Create user flow diagrams",
	"Integrate third-party API",
}

var sampleActions = []string{"implementation", "review", "testing", "documentation", "optimization"}

// SampleSize - размер демонстрационного набора
const SampleSize = 15

// SeedSampleTasks заполняет хранилище демонстрационными задачами.
// Статус, приоритет и категория распределены детерминированно (по 5 задач
// каждого статуса, все приоритеты и категории встречаются), случайны только
// даты и формулировка описания.
func (tm *TaskManager) SeedSampleTasks(ctx context.Context, rnd *rand.Rand) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	now := tm.now()
	for i, template := range sampleTemplates {
		created := now.Add(-time.Duration(rnd.IntN(31)) * 24 * time.Hour)
		due := models.DateOf(now.AddDate(0, 0, 1+rnd.IntN(30)))

		task := models.Task{
			Title:       fmt.Sprintf("Task %d: %s", i+1, template),
			Description: fmt.Sprintf("Complete %s for %s", sampleActions[rnd.IntN(len(sampleActions))], strings.ToLower(template)),
			Status:      models.Statuses[i%len(models.Statuses)],
			Priority:    models.Priorities[(i/len(models.Statuses))%len(models.Priorities)],
			Category:    sampleCategories[i%len(sampleCategories)],
			DueDate:     due,
			CreatedAt:   created,
			UpdatedAt:   created,
		}
		if _, err := tm.storage.AddTask(task); err != nil {
			return fmt.Errorf("ошибка добавления демонстрационной задачи: %w", err)
		}
	}

	logger.Info(ctx, "Демонстрационные задачи загружены", "count", len(sampleTemplates))
	return nil
}
