package launcher

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"taskboard/internal/analytics"
	"taskboard/internal/bot"
	"taskboard/internal/config"
	"taskboard/internal/dashboard"
	"taskboard/internal/logger"
	"taskboard/internal/manager"
	"taskboard/internal/reporter"
	"taskboard/internal/server"
	"taskboard/internal/storage"
	"taskboard/internal/tui"
)

type Options struct {
	// TUI - терминальный интерфейс на переднем плане; его закрытие останавливает процесс
	TUI bool
}

// OpenStore создает хранилище по конфигу и при необходимости заполняет его демо-данными
func OpenStore(ctx context.Context, cfg config.StorageConfig) (*manager.TaskManager, error) {
	backend, err := storage.Open(cfg.Driver)
	if err != nil {
		return nil, err
	}
	tm := manager.NewTaskManagerWithStorage(backend)

	if cfg.Seed {
		seed := cfg.RandomSeed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		if err := tm.SeedSampleTasks(ctx, rand.New(rand.NewPCG(seed, seed>>1))); err != nil {
			tm.Close()
			return nil, err
		}
	}
	return tm, nil
}

type httpAdapter struct {
	name     string
	cfg      config.ServerConfig
	srv      *http.Server
	listener net.Listener
}

// Launcher запускает все адаптеры над одним хранилищем
type Launcher struct {
	cfg      *config.Config
	svc      manager.Service
	adapters []*httpAdapter

	mu        sync.Mutex
	started   bool
	ready     chan struct{}
	readyOnce sync.Once
}

func New(cfg *config.Config, svc manager.Service) (*Launcher, error) {
	dash, err := dashboard.New(svc)
	if err != nil {
		return nil, fmt.Errorf("ошибка шаблонов дашборда: %w", err)
	}
	an, err := analytics.NewHandler(svc)
	if err != nil {
		return nil, fmt.Errorf("ошибка шаблонов аналитики: %w", err)
	}

	handlers := []struct {
		name string
		cfg  config.ServerConfig
		h    http.Handler
	}{
		{"dashboard", cfg.Dashboard, dash.Router()},
		{"api", cfg.API, server.NewRouter(svc)},
		{"analytics", cfg.Analytics, an.Router()},
	}

	l := &Launcher{cfg: cfg, svc: svc, ready: make(chan struct{})}
	for _, h := range handlers {
		if !h.cfg.Enabled {
			continue
		}
		l.adapters = append(l.adapters, &httpAdapter{
			name: h.name,
			cfg:  h.cfg,
			srv: &http.Server{
				Addr:              h.cfg.Addr,
				Handler:           h.h,
				ReadHeaderTimeout: 10 * time.Second,
			},
		})
	}
	return l, nil
}

// Ready закрывается, когда Run закончил занимать порты, в том числе при ошибке.
// После ошибки Addr возвращает пустую строку.
func (l *Launcher) Ready() <-chan struct{} {
	return l.ready
}

// Addr - фактический адрес адаптера после Ready (полезно при порте :0)
func (l *Launcher) Addr(name string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, a := range l.adapters {
		if a.name == name && a.listener != nil {
			return a.listener.Addr().String()
		}
	}
	return ""
}

// Run блокируется до отмены ctx, выхода из TUI или ошибки одного из адаптеров
func (l *Launcher) Run(ctx context.Context, opts Options) error {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return errors.New("лаунчер уже запущен")
	}
	l.started = true
	l.mu.Unlock()

	err := l.listen()
	l.readyOnce.Do(func() { close(l.ready) })
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	for _, a := range l.adapters {
		g.Go(func() error {
			logger.Info(gctx, "HTTP-адаптер запущен", "adapter", a.name, "addr", a.listener.Addr().String())
			if err := a.srv.Serve(a.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%s: %w", a.name, err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
			defer done()
			logger.Info(shutdownCtx, "Остановка HTTP-адаптера", "adapter", a.name)
			return a.srv.Shutdown(shutdownCtx)
		})
	}

	rep := reporter.New(l.svc, l.cfg.Reporter.Schedule)
	if err := rep.Start(gctx); err != nil {
		cancel()
		g.Wait()
		return err
	}
	defer rep.Stop()

	if token := l.cfg.Telegram.Token; token != "" {
		b, err := bot.New(token, l.cfg.Telegram.Debug, l.svc)
		if err != nil {
			logger.Error(gctx, err, "Telegram-бот не запущен")
		} else {
			g.Go(func() error { return b.Run(gctx) })
		}
	}

	if opts.TUI {
		g.Go(func() error {
			defer cancel()
			return tui.Run(gctx, l.svc)
		})
	}

	err = g.Wait()
	logger.Info(context.Background(), "Все адаптеры остановлены")
	return err
}

func (l *Launcher) listen() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, a := range l.adapters {
		ln, err := net.Listen("tcp", a.cfg.Addr)
		if err != nil {
			for _, prev := range l.adapters[:i] {
				prev.listener.Close()
				prev.listener = nil
			}
			return fmt.Errorf("%s: не удалось занять %s: %w", a.name, a.cfg.Addr, err)
		}
		a.listener = ln
	}
	return nil
}
