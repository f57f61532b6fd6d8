package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/casefile-games/casefile/internal/config"
	"github.com/casefile-games/casefile/internal/logger"
	"github.com/casefile-games/casefile/internal/services"
	"github.com/casefile-games/casefile/internal/turn"
)

func main() {
	cfg := config.Load()

	// The terminal belongs to the UI; logs go to a file when asked for,
	// otherwise they are discarded.
	var logWriter io.Writer = io.Discard
	if path := os.Getenv("LOG_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()
		logWriter = f
	}
	log := logger.Setup(cfg, logWriter)

	var svc services.StoryService
	switch cfg.Provider {
	case config.ProviderMock:
		svc = services.NewMockStoryService()
	default:
		svc = services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, log)
	}

	controller := turn.NewController(svc, log).WithTimeout(cfg.TurnTimeout)

	if cfg.RedisAddr != "" {
		cache := services.NewRedisService(cfg.RedisAddr, log)
		defer func() { _ = cache.Close() }()
		controller.WithCache(cache)
	}

	p := tea.NewProgram(NewConsoleUI(controller),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
