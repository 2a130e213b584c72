package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"taskboard/internal/manager"
)

// Run запускает интерфейс в полноэкранном режиме и блокируется до выхода
// пользователя или отмены ctx
func Run(ctx context.Context, svc manager.Service, opts ...Option) error {
	p := tea.NewProgram(
		New(ctx, svc, opts...),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
