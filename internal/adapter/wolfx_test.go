package adapter

import (
	"testing"
	"time"

	"github.com/quakeline/quakeline/internal/event"
)

func TestWolfxSkipsControlFrames(t *testing.T) {
	w := NewWolfx("sc_eew", time.UTC)
	for _, frame := range []string{`{"type":"heartbeat"}`, `{"type":"pong"}`} {
		events, err := w.Parse([]byte(frame))
		if err != nil {
			t.Errorf("Frame %s: unexpected error %v", frame, err)
		}
		if events != nil {
			t.Errorf("Frame %s: expected no events, got %d", frame, len(events))
		}
	}
}

func TestWolfxMalformed(t *testing.T) {
	w := NewWolfx("sc_eew", time.UTC)
	if _, err := w.Parse([]byte(`not json`)); err == nil {
		t.Error("Expected a decode error")
	}
}

func TestWolfxEEWBareHTTPObject(t *testing.T) {
	// HTTP endpoints return the object without a type field; the
	// adapter's own feed name classifies it. The upstream API spells
	// magnitude "Magunitude".
	w := NewWolfx("sc_eew", time.UTC)
	raw := `{
		"EventID": "20220905125218",
		"HypoCenter": "四川泸定",
		"Magunitude": 6.8,
		"Latitude": 29.59,
		"Longitude": 102.08,
		"Depth": 16,
		"OriginTime": "2022-09-05 12:52:18",
		"ReportNum": 4,
		"MaxIntensity": "9"
	}`

	events, err := w.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}

	ev := events[0]
	if ev.Type != event.Warning || ev.Source != "wolfx_sc_eew" {
		t.Errorf("Expected wolfx_sc_eew warning, got %s/%s", ev.Type, ev.Source)
	}
	if ev.Magnitude != 6.8 {
		t.Errorf("Expected the misspelled magnitude field to be read, got %v", ev.Magnitude)
	}
	// CST 12:52 converts to UTC 04:52.
	if ev.ShockTime != "2022-09-05 04:52:18" {
		t.Errorf("Expected converted shock time, got %s", ev.ShockTime)
	}
	if ev.Updates() != 4 {
		t.Errorf("Expected 4 updates, got %d", ev.Updates())
	}
	if ev.Extra["max_intensity"] != "9" {
		t.Errorf("Expected max intensity, got %v", ev.Extra["max_intensity"])
	}
}

func TestWolfxJMAEEWPushFrame(t *testing.T) {
	// Push frames carry a type field and may reach any feed instance.
	w := NewWolfx("sc_eew", time.UTC)
	raw := `{
		"type": "jma_eew",
		"EventID": "jma-1",
		"Hypocenter": "能登半島沖",
		"Magnitude": 7.6,
		"OriginTime": "2024/01/01 16:10:09",
		"isFinal": true
	}`

	events, err := w.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	ev := events[0]
	if ev.Source != "wolfx_jma_eew" {
		t.Errorf("Expected frame type to win over feed name, got %s", ev.Source)
	}
	// JST 16:10 converts to UTC 07:10.
	if ev.ShockTime != "2024-01-01 07:10:09" {
		t.Errorf("Expected JST conversion, got %s", ev.ShockTime)
	}
	if !ev.Final() {
		t.Error("Expected final flag")
	}
}

func TestWolfxEEWCancel(t *testing.T) {
	w := NewWolfx("sc_eew", time.UTC)
	raw := `{"EventID":"e1","HypoCenter":"四川泸定","Magunitude":6.8,"isCancel":true}`

	events, err := w.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !events[0].Cancel() {
		t.Error("Expected a cancel event for an isCancel frame")
	}
}

func TestWolfxEEWMissingPlace(t *testing.T) {
	w := NewWolfx("sc_eew", time.UTC)
	events, err := w.Parse([]byte(`{"EventID":"e1","Magunitude":4.0}`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if events[0].PlaceName != "未知" {
		t.Errorf("Expected 未知 placeholder, got %q", events[0].PlaceName)
	}
}

func TestWolfxEqlistTakesNewest(t *testing.T) {
	w := NewWolfx("cenc_eqlist", time.UTC)
	raw := `{
		"No1": {"location": "新疆阿克苏", "magnitude": 5.1, "depth": "10km", "time": "2026-08-24 09:30:00"},
		"No2": {"location": "云南大理", "magnitude": 4.0, "depth": "8km", "time": "2026-08-23 12:00:00"}
	}`

	events, err := w.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected only the newest bulletin, got %d", len(events))
	}

	ev := events[0]
	if ev.Type != event.Report || ev.PlaceName != "新疆阿克苏" {
		t.Errorf("Expected No1 entry, got %s %q", ev.Type, ev.PlaceName)
	}
	if ev.Depth != 10 {
		t.Errorf("Expected km suffix stripped, got %v", ev.Depth)
	}
	// CST 09:30 converts to UTC 01:30; no upstream ID, so time plus
	// magnitude identifies the entry.
	if ev.EventID != "2026-08-24 01:30:00_5.1" {
		t.Errorf("Expected derived event ID, got %q", ev.EventID)
	}
}

func TestWolfxJMAEqlistTimeFull(t *testing.T) {
	w := NewWolfx("jma_eqlist", time.UTC)
	raw := `{"No1": {"location": "能登半島沖", "magnitude": 4.5, "depth": "10km", "time_full": "2024/01/01 16:10:09"}}`

	events, err := w.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if events[0].ShockTime != "2024-01-01 07:10:09" {
		t.Errorf("Expected JST conversion of time_full, got %s", events[0].ShockTime)
	}
}

func TestWolfxEqlistEmpty(t *testing.T) {
	w := NewWolfx("cenc_eqlist", time.UTC)
	events, err := w.Parse([]byte(`{}`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if events != nil {
		t.Errorf("Expected nothing from an empty bulletin, got %d", len(events))
	}
}
