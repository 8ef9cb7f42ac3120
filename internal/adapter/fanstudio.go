package adapter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/quakeline/quakeline/internal/event"
)

// Fan Studio feed classification by sub-source name.
var (
	fanstudioWarningSources = map[string]bool{
		"cea": true, "cea-pr": true, "sichuan": true, "cwa-eew": true,
		"jma": true, "sa": true, "kma-eew": true,
	}
	fanstudioReportSources = map[string]bool{
		"cenc": true, "ningxia": true, "guangxi": true, "shanxi": true,
		"beijing": true, "cwa": true, "hko": true, "usgs": true,
		"emsc": true, "bcsf": true, "gfz": true, "usp": true,
		"kma": true, "fssn": true,
	}
	// fanstudioSourceOrder is the sweep order for combined snapshots:
	// warnings first, then reports, then weather.
	fanstudioSourceOrder = []string{
		"cea", "cea-pr", "sichuan", "cwa-eew", "jma", "sa", "kma-eew",
		"cenc", "ningxia", "guangxi", "shanxi", "beijing", "cwa", "hko",
		"usgs", "emsc", "bcsf", "gfz", "usp", "kma", "fssn",
		"weatheralarm",
	}
)

// FanStudio parses the combined Fan Studio push feed: an initial_all
// snapshot carrying the latest record of every sub-source, then
// per-source update messages.
type FanStudio struct {
	loc *time.Location
}

// NewFanStudio creates the Fan Studio adapter.
func NewFanStudio(loc *time.Location) *FanStudio {
	return &FanStudio{loc: loc}
}

// Source returns the adapter's source name.
func (f *FanStudio) Source() string { return "fanstudio" }

// Parse handles initial_all snapshots, update messages, and skips
// heartbeats and server errors.
func (f *FanStudio) Parse(raw []byte) ([]*event.Event, error) {
	var root map[string]any
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("fanstudio: decode: %w", err)
	}
	p := payload(root)

	switch p.str("type") {
	case "heartbeat", "welcome", "pong":
		return nil, nil
	case "error":
		return nil, fmt.Errorf("fanstudio: server error: %s", p.str("message"))
	case "initial_all":
		var events []*event.Event
		for _, name := range fanstudioSourceOrder {
			sub := p.object(name)
			if sub == nil {
				continue
			}
			data := sub.object("Data")
			if data == nil || len(data) == 0 {
				continue
			}
			if ev := f.parseSource(data, name); ev != nil {
				events = append(events, ev)
			}
		}
		return events, nil
	case "update":
		source := p.str("source")
		data := p.object("Data")
		if source == "" || data == nil {
			return nil, nil
		}
		if ev := f.parseSource(data, source); ev != nil {
			return []*event.Event{ev}, nil
		}
		return nil, nil
	}

	// Single-source payloads delivered without an envelope.
	if data := p.object("Data"); data != nil {
		if ev := f.parseSource(data, p.str("source")); ev != nil {
			return []*event.Event{ev}, nil
		}
	}
	return nil, nil
}

func (f *FanStudio) parseSource(data payload, source string) *event.Event {
	switch {
	case source == "weatheralarm":
		return f.parseWeather(data)
	case fanstudioWarningSources[source]:
		return f.parseWarning(data, source)
	case fanstudioReportSources[source]:
		return f.parseReport(data, source)
	case source == "":
		return nil
	default:
		return f.parseReport(data, source)
	}
}

func (f *FanStudio) parseWarning(data payload, source string) *event.Event {
	shockTime := data.str("shockTime", "shock_time", "createTime", "time", "originTime")
	if shockTime != "" {
		if source == "jma" {
			shockTime = jstToDisplay(shockTime, f.loc)
		} else {
			shockTime = cstToDisplay(shockTime, f.loc)
		}
	}

	ev := &event.Event{
		Type:         event.Warning,
		Source:       source,
		EventID:      data.str("eventId", "id"),
		Organization: OrganizationName(source),
		PlaceName:    data.str("placeName", "place_name", "location", "loc", "epicenter", "locationDesc"),
		Magnitude:    data.num("magnitude"),
		Latitude:     data.num("latitude"),
		Longitude:    data.num("longitude"),
		Depth:        data.num("depth"),
		ShockTime:    shockTime,
		Extra:        map[string]any{},
	}

	if u := data.num("updates"); u > 0 {
		ev.Extra["updates"] = int(u)
	}
	if i := data.num("epiIntensity", "maxIntensity"); i > 0 {
		ev.Extra["epi_intensity"] = i
	}
	switch source {
	case "jma":
		if v := data.str("infoTypeName"); v != "" {
			ev.Extra["info_type"] = v
		}
		ev.Extra["final"] = data.boolean("final")
		ev.Extra["cancel"] = data.boolean("cancel")
	case "cea-pr":
		if v := data.str("province"); v != "" {
			ev.Extra["province"] = v
		}
	case "sichuan":
		if v := data.str("infoTypeName"); v != "" {
			ev.Extra["info_type"] = v
		}
	}
	return ev
}

func (f *FanStudio) parseReport(data payload, source string) *event.Event {
	var place string
	switch source {
	case "cwa":
		place = extractCWALocation(data)
	case "fssn":
		place = data.str("placeName_zh", "placeName", "title")
	default:
		place = data.str("placeName", "title")
	}
	shockTime := data.str("shockTime", "createTime")
	if place == "" && shockTime == "" {
		return nil
	}
	if shockTime != "" {
		shockTime = cstToDisplay(shockTime, f.loc)
	}

	ev := &event.Event{
		Type:         event.Report,
		Source:       source,
		EventID:      data.str("eventId", "id"),
		Organization: OrganizationName(source),
		PlaceName:    place,
		Magnitude:    data.num("magnitude"),
		Latitude:     data.num("latitude"),
		Longitude:    data.num("longitude"),
		Depth:        data.num("depth"),
		ShockTime:    shockTime,
		Extra:        map[string]any{},
	}
	if v := data.str("infoTypeName"); v != "" {
		ev.Extra["info_type"] = v
	}
	if source == "kma" {
		if i := data.num("epiIntensity"); i > 0 {
			ev.Extra["epi_intensity"] = i
		}
	}
	return ev
}

func (f *FanStudio) parseWeather(data payload) *event.Event {
	title := data.str("title", "headline")
	eventID := data.str("id", "eventId")
	effective := data.str("effective")
	if eventID == "" && title != "" && effective != "" {
		eventID = title + "_" + effective
	}
	return &event.Event{
		Type:         event.Weather,
		Source:       "weatheralarm",
		EventID:      eventID,
		Organization: OrganizationName("weatheralarm"),
		PlaceName:    data.str("headline", "title"),
		Latitude:     data.num("latitude"),
		Longitude:    data.num("longitude"),
		ShockTime:    effective,
		Extra: map[string]any{
			"title":       title,
			"headline":    data.str("headline", "title"),
			"description": data.str("description"),
		},
	}
}

var cwaBracket = regexp.MustCompile(`\(([^)]+)\)`)

// extractCWALocation pulls the human-readable region out of the CWA
// "loc" field, which wraps it in parentheses after the coordinates.
func extractCWALocation(data payload) string {
	raw := data.str("loc", "placeName")
	if raw == "" {
		return "未知地区"
	}
	if m := cwaBracket.FindStringSubmatch(raw); m != nil {
		loc := strings.ReplaceAll(m[1], "位於", "")
		loc = strings.Join(strings.Fields(loc), " ")
		if loc != "" {
			return loc
		}
	}
	return strings.TrimSpace(raw)
}
