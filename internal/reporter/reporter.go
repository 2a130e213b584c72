package reporter

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"taskboard/internal/logger"
	"taskboard/internal/manager"
	"taskboard/internal/models"
)

// Reporter по расписанию снимает статистику хранилища, обновляет
// gauge-метрики и пишет сводку в лог
type Reporter struct {
	cron     *cron.Cron
	svc      manager.Service
	schedule string
	publish  func(models.Statistics)
}

func New(svc manager.Service, schedule string) *Reporter {
	return &Reporter{
		cron:     cron.New(),
		svc:      svc,
		schedule: schedule,
		publish:  manager.PublishStatistics,
	}
}

// Start регистрирует задание и запускает планировщик; первый снимок делается сразу
func (r *Reporter) Start(ctx context.Context) error {
	if _, err := r.cron.AddFunc(r.schedule, func() { r.Report(ctx) }); err != nil {
		return fmt.Errorf("неверное расписание %q: %w", r.schedule, err)
	}
	r.Report(ctx)
	r.cron.Start()
	logger.Info(ctx, "Планировщик статистики запущен", "schedule", r.schedule)
	return nil
}

// Stop дожидается завершения выполняющегося задания
func (r *Reporter) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Reporter) Report(ctx context.Context) {
	stats, err := r.svc.GetStatistics(ctx)
	if err != nil {
		logger.Error(ctx, err, "Ошибка получения статистики")
		return
	}
	r.publish(stats)
	logger.Info(ctx, "Статистика задач",
		"total", stats.Total,
		"pending", stats.Pending,
		"in_progress", stats.InProgress,
		"completed", stats.Completed,
		"overdue", stats.Overdue,
		"completion", fmt.Sprintf("%.2f%%", stats.CompletionPercent()),
	)
}
