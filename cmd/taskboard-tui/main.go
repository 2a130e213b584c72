package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"taskboard/internal/client"
	"taskboard/internal/config"
	"taskboard/internal/tui"
)

// Отдельный процесс TUI работает с общим хранилищем через REST API
func main() {
	configPath := flag.String("config", "", "Path to YAML config")
	apiURL := flag.String("api", "", "REST API base URL (overrides api_url)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка конфигурации: %v", err)
	}
	if *apiURL != "" {
		cfg.APIURL = *apiURL
	}
	log.SetOutput(io.Discard)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tui.Run(ctx, client.New(cfg.APIURL)); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка TUI: %v\n", err)
		os.Exit(1)
	}
}
