package adapter

import (
	"fmt"
	"strconv"
	"time"

	"github.com/quakeline/quakeline/internal/event"
)

// Wolfx API type sets.
var (
	wolfxEEWTypes = map[string]bool{
		"sc_eew": true, "jma_eew": true, "fj_eew": true,
		"cenc_eew": true, "cwa_eew": true,
	}
	wolfxEqlistTypes = map[string]bool{
		"cenc_eqlist": true, "jma_eqlist": true,
	}
)

// Wolfx parses the Wolfx JSON API, both the per-feed HTTP endpoints
// and the WebSocket push frames. apiType names the feed this instance
// polls (sc_eew, jma_eew, cenc_eqlist, ...); push frames carry their
// own type field and may belong to any feed.
type Wolfx struct {
	apiType string
	loc     *time.Location
}

// NewWolfx creates a Wolfx adapter for one feed.
func NewWolfx(apiType string, loc *time.Location) *Wolfx {
	return &Wolfx{apiType: apiType, loc: loc}
}

// Source returns the adapter's source name.
func (w *Wolfx) Source() string { return "wolfx_" + w.apiType }

// Parse decodes one Wolfx payload. Heartbeats and pongs yield nothing;
// a cancel-flagged EEW yields a cancel event so the arbiter can
// retract the warning.
func (w *Wolfx) Parse(raw []byte) ([]*event.Event, error) {
	var root map[string]any
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("wolfx: decode: %w", err)
	}
	p := payload(root)

	msgType := p.str("type")
	switch msgType {
	case "heartbeat", "pong":
		return nil, nil
	case "":
		// HTTP endpoints return the bare object without a type field.
		msgType = w.apiType
	}

	switch {
	case wolfxEEWTypes[msgType]:
		if ev := w.parseEEW(p, msgType); ev != nil {
			return []*event.Event{ev}, nil
		}
		return nil, nil
	case wolfxEqlistTypes[msgType]:
		if ev := w.parseEqlist(p, msgType); ev != nil {
			return []*event.Event{ev}, nil
		}
		return nil, nil
	default:
		return nil, nil
	}
}

// parseEEW handles the warning feeds. The upstream API spells
// magnitude "Magunitude"; both spellings are accepted.
func (w *Wolfx) parseEEW(p payload, apiType string) *event.Event {
	source := "wolfx_" + apiType

	shockTime := p.str("OriginTime")
	if shockTime == "" {
		shockTime = p.str("ReportTime")
	}
	if shockTime != "" {
		if apiType == "jma_eew" {
			shockTime = jstToDisplay(shockTime, w.loc)
		} else {
			shockTime = cstToDisplay(shockTime, w.loc)
		}
	}

	place := p.str("HypoCenter", "Hypocenter")
	if place == "" {
		place = "未知"
	}

	ev := &event.Event{
		Type:         event.Warning,
		Source:       source,
		EventID:      p.str("EventID", "ID"),
		Organization: OrganizationName(source),
		PlaceName:    place,
		Magnitude:    p.num("Magunitude", "Magnitude"),
		Latitude:     p.num("Latitude"),
		Longitude:    p.num("Longitude"),
		Depth:        p.num("Depth"),
		ShockTime:    shockTime,
		Extra:        map[string]any{},
	}
	if p.boolean("isCancel") {
		ev.Extra["cancel"] = true
	}
	if v := p.str("MaxIntensity"); v != "" {
		ev.Extra["max_intensity"] = v
	}
	if n := p.num("ReportNum"); n > 0 {
		ev.Extra["updates"] = int(n)
	}
	if p.boolean("isFinal") {
		ev.Extra["final"] = true
	}
	return ev
}

// parseEqlist handles the bulletin feeds, which return a numbered map
// of recent events. Only the newest entry (No1) is taken.
func (w *Wolfx) parseEqlist(p payload, apiType string) *event.Event {
	source := "wolfx_" + apiType

	item := p.object("No1")
	if item == nil {
		// Some frames carry a single bare event.
		if p.str("time") == "" && p.str("location") == "" {
			return nil
		}
		item = p
	}

	var timeStr string
	if apiType == "jma_eqlist" {
		timeStr = item.str("time_full", "time")
	} else {
		timeStr = item.str("time")
	}
	shockTime := ""
	if timeStr != "" {
		if apiType == "jma_eqlist" {
			shockTime = jstToDisplay(timeStr, w.loc)
		} else {
			shockTime = cstToDisplay(timeStr, w.loc)
		}
	}

	place := item.str("placeName", "location")
	if place == "" {
		place = "未知"
	}

	return &event.Event{
		Type:         event.Report,
		Source:       source,
		EventID:      eqlistEventID(item, shockTime),
		Organization: OrganizationName(source),
		PlaceName:    place,
		Magnitude:    item.num("magnitude"),
		Latitude:     item.num("latitude"),
		Longitude:    item.num("longitude"),
		Depth:        depthKm(item["depth"]),
		ShockTime:    shockTime,
	}
}

// eqlistEventID derives a stable identifier for bulletin entries,
// which carry no ID of their own.
func eqlistEventID(item payload, shockTime string) string {
	if id := item.str("EventID", "id"); id != "" {
		return id
	}
	if shockTime == "" {
		return ""
	}
	return shockTime + "_" + strconv.FormatFloat(item.num("magnitude"), 'f', 1, 64)
}
