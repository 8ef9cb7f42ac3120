// Package ingest runs the per-source network tasks: WebSocket read
// loops and HTTP pollers that feed normalized events into the core.
package ingest

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/quakeline/quakeline/internal/adapter"
	"github.com/quakeline/quakeline/internal/config"
	"github.com/quakeline/quakeline/internal/event"
	"github.com/quakeline/quakeline/internal/logging"
)

// fetchTimeout bounds each individual HTTP fetch.
const fetchTimeout = 30 * time.Second

// maxConcurrentFetches limits parallel polls per cycle.
const maxConcurrentFetches = 4

// Handler receives every normalized event an ingestion task produces.
// Implementations must not block; the hand-off is the single funnel
// into the event queue.
type Handler interface {
	OnEvent(source string, ev *event.Event)
}

// Manager owns all ingestion tasks. Context cancellation is the only
// stop mechanism; Wait blocks until every task has exited.
type Manager struct {
	cfg     *config.Config
	loc     *time.Location
	handler Handler
	client  *http.Client
	limiter *rate.Limiter
	log     *log.Logger
	wg      sync.WaitGroup
}

// New creates an ingestion manager delivering events to handler.
func New(cfg *config.Config, handler Handler) *Manager {
	return &Manager{
		cfg:     cfg,
		loc:     cfg.Location(),
		handler: handler,
		client:  &http.Client{Timeout: fetchTimeout},
		// One request per second across all pollers keeps the
		// upstream APIs comfortable even with many feeds enabled.
		limiter: rate.NewLimiter(rate.Every(time.Second), maxConcurrentFetches),
		log:     logging.WithPrefix("ingest"),
	}
}

// Start launches every enabled source task.
func (m *Manager) Start(ctx context.Context) {
	if m.cfg.Sources.FanStudioEnabled && m.cfg.Sources.FanStudioURL != "" {
		m.startSocket(ctx, adapter.NewFanStudio(m.loc), m.cfg.Sources.FanStudioURL)
	}
	if m.cfg.Sources.NIEDEnabled && m.cfg.Sources.NIEDURL != "" {
		m.startSocket(ctx, adapter.NewNIED(m.loc), m.cfg.Sources.NIEDURL)
	}
	// EEW feeds ride the push socket when a WS base is configured; the
	// bulletin feeds stay on HTTP polling either way.
	if base := m.cfg.Sources.WolfxWSBase; base != "" {
		for _, api := range m.cfg.Sources.WolfxSources {
			if strings.HasSuffix(api, "_eew") {
				m.startSocket(ctx, adapter.NewWolfx(api, m.loc), base+"/"+api)
			}
		}
	}

	if polls := m.pollTargets(); len(polls) > 0 {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.pollLoop(ctx, polls)
		}()
	}

	if m.cfg.Sources.WeatherFeedEnabled && m.cfg.Sources.WeatherFeedURL != "" {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.weatherLoop(ctx, m.cfg.Sources.WeatherFeedURL)
		}()
	}
}

// Wait blocks until all ingestion tasks exit. Call after cancelling
// the context passed to Start.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) startSocket(ctx context.Context, a adapter.Adapter, url string) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.runSocket(ctx, a, url)
	}()
}

// emit parses one raw payload and hands the resulting events off.
func (m *Manager) emit(a adapter.Adapter, raw []byte) {
	events, err := a.Parse(raw)
	if err != nil {
		m.log.Debug("payload skipped", "source", a.Source(), "err", err)
		return
	}
	for _, ev := range events {
		m.handler.OnEvent(ev.Source, ev)
	}
}
