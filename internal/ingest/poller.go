package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quakeline/quakeline/internal/adapter"
)

// maxBodySize caps HTTP response bodies.
const maxBodySize = 1 << 20

// pollTarget pairs an HTTP endpoint with the adapter that parses it.
type pollTarget struct {
	adapter adapter.Adapter
	url     string
}

// pollTargets assembles the enabled HTTP endpoints: the Wolfx JSON
// feeds plus the P2PQuake history and tsunami endpoints. EEW feeds
// that already ride the push socket are not polled again.
func (m *Manager) pollTargets() []pollTarget {
	var targets []pollTarget
	for _, api := range m.cfg.Sources.WolfxSources {
		if m.cfg.Sources.WolfxWSBase != "" && strings.HasSuffix(api, "_eew") {
			continue
		}
		targets = append(targets, pollTarget{
			adapter: adapter.NewWolfx(api, m.loc),
			url:     fmt.Sprintf("%s/%s.json", m.cfg.Sources.WolfxHTTPBase, api),
		})
	}
	if m.cfg.Sources.P2PQuakeEnabled {
		if u := m.cfg.Sources.P2PQuakeHistoryURL; u != "" {
			targets = append(targets, pollTarget{adapter: adapter.NewP2PQuake(m.loc), url: u})
		}
		if u := m.cfg.Sources.P2PQuakeTsunamiURL; u != "" {
			targets = append(targets, pollTarget{adapter: adapter.NewP2PQuakeTsunami(m.loc), url: u})
		}
	}
	return targets
}

// pollLoop fetches every target immediately, then on the configured
// interval. Fetches within a cycle run in parallel, bounded.
func (m *Manager) pollLoop(ctx context.Context, targets []pollTarget) {
	interval := time.Duration(m.cfg.Sources.PollIntervalSeconds) * time.Second

	m.pollAll(ctx, targets)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.pollAll(ctx, targets)
		}
	}
}

func (m *Manager) pollAll(ctx context.Context, targets []pollTarget) {
	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)

	for _, t := range targets {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			m.pollOne(ctx, t)
			return nil // errors reported per target, never fail the group
		})
	}
	_ = g.Wait()
}

// pollOne performs a single rate-limited fetch and parses the body.
func (m *Manager) pollOne(ctx context.Context, t pollTarget) {
	if err := m.limiter.Wait(ctx); err != nil {
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, t.url, nil)
	if err != nil {
		m.log.Error("poll request build failed", "source", t.adapter.Source(), "err", err)
		return
	}

	resp, err := m.client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			m.log.Warn("poll failed", "source", t.adapter.Source(), "url", t.url, "err", err)
		}
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		m.log.Warn("poll returned non-OK status", "source", t.adapter.Source(), "status", resp.StatusCode)
		return
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		m.log.Warn("poll body read failed", "source", t.adapter.Source(), "err", err)
		return
	}

	m.emit(t.adapter, body)
}
