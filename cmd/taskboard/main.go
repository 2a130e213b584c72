package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"taskboard/internal/config"
	"taskboard/internal/launcher"
	"taskboard/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config")
	withTUI := flag.Bool("tui", false, "Run the terminal UI in the foreground")
	logFile := flag.String("log-file", "", "Log file while the terminal UI is active")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка конфигурации: %v", err)
	}
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	logger.SetLevel(level)

	// TUI занимает терминал, логи уводим в файл
	if *withTUI {
		if *logFile == "" {
			log.SetOutput(io.Discard)
		} else {
			f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				log.Fatalf("❌ Ошибка открытия лог-файла: %v", err)
			}
			defer f.Close()
			log.SetOutput(f)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tm, err := launcher.OpenStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("❌ Ошибка инициализации хранилища: %v", err)
	}
	defer tm.Close()

	l, err := launcher.New(cfg, tm)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	logger.Info(ctx, "🚀 TaskBoard запускается",
		"dashboard", cfg.Dashboard.Addr,
		"api", cfg.API.Addr,
		"analytics", cfg.Analytics.Addr,
		"storage", cfg.Storage.Driver,
	)
	if err := l.Run(ctx, launcher.Options{TUI: *withTUI}); err != nil {
		logger.Error(context.Background(), err, "Лаунчер завершился с ошибкой")
		os.Exit(1)
	}
}
