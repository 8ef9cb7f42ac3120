package ingest

import (
	"context"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/quakeline/quakeline/internal/event"
)

// weatherPollInterval is how often the weather-alert feed is re-read.
// Weather alerts move far slower than earthquake feeds.
const weatherPollInterval = 2 * time.Minute

// weatherLoop polls an Atom/RSS weather-alert feed and emits its
// entries as weather events.
func (m *Manager) weatherLoop(ctx context.Context, url string) {
	parser := gofeed.NewParser()

	m.fetchWeather(ctx, parser, url)

	ticker := time.NewTicker(weatherPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.fetchWeather(ctx, parser, url)
		}
	}
}

func (m *Manager) fetchWeather(ctx context.Context, parser *gofeed.Parser, url string) {
	if err := m.limiter.Wait(ctx); err != nil {
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	feed, err := parser.ParseURLWithContext(url, fetchCtx)
	if err != nil {
		if ctx.Err() == nil {
			m.log.Warn("weather feed fetch failed", "url", url, "err", err)
		}
		return
	}

	for _, item := range feed.Items {
		if ev := m.weatherEvent(item); ev != nil {
			m.handler.OnEvent(ev.Source, ev)
		}
	}
}

// weatherEvent converts one feed entry into a weather event. The GUID
// (or title plus publication time) identifies the alert across polls.
func (m *Manager) weatherEvent(item *gofeed.Item) *event.Event {
	if item == nil || item.Title == "" {
		return nil
	}

	published := ""
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.In(m.loc).Format(event.ShockTimeLayout)
	}

	eventID := item.GUID
	if eventID == "" {
		eventID = item.Title + "_" + published
	}

	return &event.Event{
		Type:         event.Weather,
		Source:       "weatheralarm",
		EventID:      eventID,
		Organization: "气象预警",
		PlaceName:    item.Title,
		ShockTime:    published,
		Extra: map[string]any{
			"title":       item.Title,
			"headline":    item.Title,
			"description": item.Description,
		},
	}
}
