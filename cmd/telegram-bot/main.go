package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"taskboard/internal/bot"
	"taskboard/internal/client"
	"taskboard/internal/config"
	"taskboard/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка конфигурации: %v", err)
	}
	if level, err := logger.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	}

	if cfg.Telegram.Token == "" {
		log.Fatal("❌ Не задан токен бота: telegram.token или TASKBOARD_TELEGRAM_TOKEN")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Задачи живут в процессе taskboard, бот ходит к ним через REST API
	b, err := bot.New(cfg.Telegram.Token, cfg.Telegram.Debug, client.New(cfg.APIURL))
	if err != nil {
		log.Fatal("❌ Ошибка создания бота:", err)
	}

	logger.Info(ctx, "🚀 Запуск бота", "api", cfg.APIURL)
	if err := b.Run(ctx); err != nil {
		log.Fatal("❌ ", err)
	}
}
