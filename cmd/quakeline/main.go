package main

import (
	"context"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/quakeline/quakeline/internal/arbiter"
	"github.com/quakeline/quakeline/internal/config"
	"github.com/quakeline/quakeline/internal/ingest"
	"github.com/quakeline/quakeline/internal/logging"
	"github.com/quakeline/quakeline/internal/queue"
	"github.com/quakeline/quakeline/internal/ui/ticker"
)

func main() {
	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	// Config first; it carries the log level.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logging.Init(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	// Event queue between ingestion and the arbiter
	q := queue.New(cfg.Display.QueueCapacity)

	// Display sink; completions feed back into the arbiter below
	sink := ticker.New(nil)

	arb := arbiter.New(cfg, q, sink)
	sink.OnComplete(arb.ScrollCompleted)

	program := tea.NewProgram(
		ticker.NewModel(sink, time.Duration(cfg.UI.ScrollSpeedMS)*time.Millisecond),
	)
	sink.SetProgram(program)

	// Start the arbiter loop and the ingestion tasks
	go arb.Run(ctx)

	manager := ingest.New(cfg, arb)
	manager.Start(ctx)

	// Run UI (blocks until quit)
	if _, err := program.Run(); err != nil {
		logging.Error("Error running program", "err", err)
	}

	// Graceful shutdown
	cancel()
	manager.Wait()
}
