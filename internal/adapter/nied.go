package adapter

import (
	"fmt"
	"time"

	"github.com/quakeline/quakeline/internal/event"
)

// NIED parses the NIED relay WebSocket feed. Only update frames carry
// warning data; welcome, heartbeat, and pong frames are skipped.
type NIED struct {
	loc *time.Location
}

// NewNIED creates the NIED adapter.
func NewNIED(loc *time.Location) *NIED {
	return &NIED{loc: loc}
}

// Source returns the adapter's source name.
func (n *NIED) Source() string { return "nied" }

// Parse decodes one relay frame. A cancel-flagged update yields a
// cancel event so the arbiter retracts the warning.
func (n *NIED) Parse(raw []byte) ([]*event.Event, error) {
	var root map[string]any
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("nied: decode: %w", err)
	}
	p := payload(root)
	if p.str("type") != "update" {
		return nil, nil
	}
	inner := p.object("data")
	if inner == nil {
		return nil, nil
	}

	originTime := inner.str("origin_time")
	shockTime := ""
	if originTime != "" {
		shockTime = jstToDisplay(originTime, n.loc)
	}

	place := inner.str("region_name")
	if place == "" {
		place = "未知"
	}
	eventID := inner.str("report_id")
	if eventID == "" {
		eventID = originTime
	}

	ev := &event.Event{
		Type:         event.Warning,
		Source:       "nied",
		EventID:      eventID,
		Organization: OrganizationName("nied"),
		PlaceName:    place,
		Magnitude:    inner.num("magunitude", "magnitude"),
		Latitude:     inner.num("latitude"),
		Longitude:    inner.num("longitude"),
		Depth:        depthKm(inner["depth"]),
		ShockTime:    shockTime,
		Extra:        map[string]any{},
	}
	if inner.boolean("is_cancel") {
		ev.Extra["cancel"] = true
	}
	if num := inner.num("report_num"); num > 0 {
		ev.Extra["updates"] = int(num)
	}
	return []*event.Event{ev}, nil
}
