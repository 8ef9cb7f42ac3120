package adapter

import (
	"strings"
	"testing"
	"time"

	"github.com/quakeline/quakeline/internal/event"
)

func TestP2PQuakeParse(t *testing.T) {
	p := NewP2PQuake(time.UTC)
	raw := `[
		{
			"id": "abc123",
			"issue": {"time": "2024/01/01 16:15:00", "type": "DetailScale"},
			"earthquake": {
				"time": "2024/01/01 16:10:09",
				"maxScale": 70,
				"hypocenter": {
					"name": "能登半島沖",
					"magnitude": 7.6,
					"latitude": 37.5,
					"longitude": 137.2,
					"depth": 10
				}
			}
		},
		{
			"id": "def456",
			"earthquake": {
				"time": "2024/01/01 12:00:00",
				"hypocenter": {"name": "石川県西方沖", "magnitude": 4.2, "depth": 10}
			}
		}
	]`

	events, err := p.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}

	ev := events[0]
	if ev.Type != event.Report || ev.Source != "p2pquake" {
		t.Errorf("Expected p2pquake report, got %s/%s", ev.Type, ev.Source)
	}
	if ev.EventID != "abc123" || ev.PlaceName != "能登半島沖" || ev.Magnitude != 7.6 {
		t.Errorf("Expected abc123/能登半島沖/7.6, got %s/%s/%v", ev.EventID, ev.PlaceName, ev.Magnitude)
	}
	// JST 16:10 converts to UTC 07:10.
	if ev.ShockTime != "2024-01-01 07:10:09" {
		t.Errorf("Expected JST conversion, got %s", ev.ShockTime)
	}
	if ev.Extra["max_scale"] != 70.0 {
		t.Errorf("Expected max scale, got %v", ev.Extra["max_scale"])
	}
	if ev.Extra["issue_time"] != "2024-01-01 07:15:00" {
		t.Errorf("Expected converted issue time, got %v", ev.Extra["issue_time"])
	}
}

func TestP2PQuakeSkipsItemsWithoutEarthquake(t *testing.T) {
	p := NewP2PQuake(time.UTC)
	events, err := p.Parse([]byte(`[{"id":"x1"},{"id":"x2","earthquake":{"time":"2024/01/01 12:00:00"}}]`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].PlaceName != "未知地区" {
		t.Errorf("Expected placeholder place for missing hypocenter, got %q", events[0].PlaceName)
	}
}

func TestP2PQuakeMalformed(t *testing.T) {
	p := NewP2PQuake(time.UTC)
	if _, err := p.Parse([]byte(`{"not":"an array"}`)); err == nil {
		t.Error("Expected a decode error")
	}
}

func TestTsunamiForecast(t *testing.T) {
	p := NewP2PQuakeTsunami(time.UTC)
	raw := `[
		{
			"id": "ts1",
			"issue": {"time": "2024/01/01 16:22:00", "type": "Focus"},
			"areas": [
				{
					"name": "能登",
					"grade": "MajorWarning",
					"immediate": true,
					"maxHeight": {"description": "5m以上"}
				},
				{
					"name": "佐渡",
					"grade": "Warning",
					"firstHeight": {"arrivalTime": "2024/01/01 16:40:00"}
				}
			]
		}
	]`

	events, err := p.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}

	ev := events[0]
	if ev.Source != "p2pquake_tsunami" || ev.EventID != "ts1" {
		t.Errorf("Expected tsunami event ts1, got %s/%s", ev.Source, ev.EventID)
	}
	if tsunami, _ := ev.Extra["is_tsunami"].(bool); !tsunami {
		t.Error("Expected is_tsunami flag")
	}
	// Detail line: grade, height, then regions with arrival times.
	if !strings.Contains(ev.PlaceName, "大津波警报") {
		t.Errorf("Expected translated grade, got %q", ev.PlaceName)
	}
	if !strings.Contains(ev.PlaceName, "预计浪高约5m以上") {
		t.Errorf("Expected height description, got %q", ev.PlaceName)
	}
	if !strings.Contains(ev.PlaceName, "能登(立即)") {
		t.Errorf("Expected immediate arrival marker, got %q", ev.PlaceName)
	}
	// JST 16:40 arrival renders as the local clock time 07:40.
	if !strings.Contains(ev.PlaceName, "佐渡(07:40)") {
		t.Errorf("Expected arrival time for 佐渡, got %q", ev.PlaceName)
	}
	// Issue time JST 16:22 converts to UTC 07:22.
	if ev.ShockTime != "2024-01-01 07:22:00" {
		t.Errorf("Expected converted issue time, got %s", ev.ShockTime)
	}
}

func TestTsunamiCancelledYieldsNothing(t *testing.T) {
	p := NewP2PQuakeTsunami(time.UTC)
	events, err := p.Parse([]byte(`[{"id":"ts2","cancelled":true}]`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if events != nil {
		t.Errorf("Expected nothing for a cancelled forecast, got %d", len(events))
	}
}

func TestTsunamiWithoutAreas(t *testing.T) {
	p := NewP2PQuakeTsunami(time.UTC)
	events, err := p.Parse([]byte(`[{"id":"ts3","issue":{"time":"2024/01/01 16:22:00","type":"津波注意報"}}]`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if events[0].PlaceName != "津波注意報" {
		t.Errorf("Expected the issue type as fallback detail, got %q", events[0].PlaceName)
	}
}

func TestTsunamiEmptyHistory(t *testing.T) {
	p := NewP2PQuakeTsunami(time.UTC)
	events, err := p.Parse([]byte(`[]`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if events != nil {
		t.Errorf("Expected nothing from an empty history, got %d", len(events))
	}
}
