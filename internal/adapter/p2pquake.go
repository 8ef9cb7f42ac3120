package adapter

import (
	"fmt"
	"strings"
	"time"

	"github.com/quakeline/quakeline/internal/event"
)

// P2PQuake parses the JMA earthquake information relay
// (api.p2pquake.net history endpoint, code 551).
type P2PQuake struct {
	loc *time.Location
}

// NewP2PQuake creates the earthquake information adapter.
func NewP2PQuake(loc *time.Location) *P2PQuake {
	return &P2PQuake{loc: loc}
}

// Source returns the adapter's source name.
func (p *P2PQuake) Source() string { return "p2pquake" }

// Parse decodes the history array into report events, newest first as
// the API returns them.
func (p *P2PQuake) Parse(raw []byte) ([]*event.Event, error) {
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("p2pquake: decode: %w", err)
	}

	var events []*event.Event
	for _, item := range items {
		if ev := p.parseItem(payload(item)); ev != nil {
			events = append(events, ev)
		}
	}
	return events, nil
}

func (p *P2PQuake) parseItem(item payload) *event.Event {
	quake := item.object("earthquake")
	if quake == nil {
		return nil
	}
	hypo := quake.object("hypocenter")

	shockTime := quake.str("time")
	if shockTime != "" {
		shockTime = jstToDisplay(shockTime, p.loc)
	}

	place := "未知地区"
	var mag, lat, lon, depth float64
	if hypo != nil {
		if n := hypo.str("name"); n != "" {
			place = n
		}
		mag = hypo.num("magnitude")
		lat = hypo.num("latitude")
		lon = hypo.num("longitude")
		depth = hypo.num("depth")
	}

	ev := &event.Event{
		Type:         event.Report,
		Source:       "p2pquake",
		EventID:      item.str("id"),
		Organization: OrganizationName("p2pquake"),
		PlaceName:    place,
		Magnitude:    mag,
		Latitude:     lat,
		Longitude:    lon,
		Depth:        depth,
		ShockTime:    shockTime,
		Extra:        map[string]any{},
	}
	if scale := quake.num("maxScale"); scale > 0 {
		ev.Extra["max_scale"] = scale
	}
	if issue := item.object("issue"); issue != nil {
		if t := issue.str("time"); t != "" {
			ev.Extra["issue_time"] = jstToDisplay(t, p.loc)
		}
	}
	return ev
}

// P2PQuakeTsunami parses the JMA tsunami forecast relay. The rendered
// text carries the forecast grade, expected height, and affected
// regions instead of magnitude and depth.
type P2PQuakeTsunami struct {
	loc *time.Location
}

// NewP2PQuakeTsunami creates the tsunami forecast adapter.
func NewP2PQuakeTsunami(loc *time.Location) *P2PQuakeTsunami {
	return &P2PQuakeTsunami{loc: loc}
}

// Source returns the adapter's source name.
func (p *P2PQuakeTsunami) Source() string { return "p2pquake_tsunami" }

// Parse takes the newest forecast only; a cancelled forecast yields
// nothing.
func (p *P2PQuakeTsunami) Parse(raw []byte) ([]*event.Event, error) {
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("p2pquake tsunami: decode: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	item := payload(items[0])
	if item.boolean("cancelled") {
		return nil, nil
	}

	issue := item.object("issue")
	issueTime := ""
	issueType := "海啸情报"
	if issue != nil {
		issueTime = issue.str("time")
		if t := issue.str("type"); t != "" {
			issueType = t
		}
	}
	if issueTime == "" {
		issueTime = item.str("time")
	}
	shockTime := ""
	if issueTime != "" {
		shockTime = jstToDisplay(issueTime, p.loc)
	}

	ev := &event.Event{
		Type:         event.Report,
		Source:       "p2pquake_tsunami",
		EventID:      item.str("id"),
		Organization: OrganizationName("p2pquake_tsunami"),
		PlaceName:    p.buildDetail(item, issueType),
		ShockTime:    shockTime,
		Extra:        map[string]any{"is_tsunami": true},
	}
	return []*event.Event{ev}, nil
}

var tsunamiGrades = map[string]string{
	"Watch":        "注意报",
	"Warning":      "警报",
	"MajorWarning": "大津波警报",
}

// buildDetail joins grade, expected height, and the first affected
// regions with their arrival times (or 立即 for immediate arrival).
func (p *P2PQuakeTsunami) buildDetail(item payload, fallback string) string {
	rawAreas, ok := item["areas"].([]any)
	if !ok || len(rawAreas) == 0 {
		return fallback
	}

	var parts []string
	grade := ""
	height := ""
	for _, ra := range rawAreas {
		area, ok := ra.(map[string]any)
		if !ok {
			continue
		}
		a := payload(area)
		if grade == "" {
			if g := a.str("grade"); g != "" {
				if zh, ok := tsunamiGrades[g]; ok {
					grade = zh
				} else {
					grade = g
				}
			}
		}
		if height == "" {
			if mh := a.object("maxHeight"); mh != nil {
				if d := mh.str("description"); d != "" {
					height = d
				} else if v := mh.num("value"); v > 0 {
					height = fmt.Sprintf("%gm", v)
				}
			}
		}
	}
	if grade != "" {
		parts = append(parts, grade+" ")
	}
	if height != "" {
		parts = append(parts, fmt.Sprintf("预计浪高约%s。", height))
	}

	var regions []string
	for i, ra := range rawAreas {
		if i >= 6 {
			break
		}
		area, ok := ra.(map[string]any)
		if !ok {
			continue
		}
		a := payload(area)
		name := a.str("name", "name_en")
		if name == "" {
			continue
		}
		arrival := ""
		if a.boolean("immediate") {
			arrival = "立即"
		} else if fh := a.object("firstHeight"); fh != nil {
			if at := fh.str("arrivalTime"); at != "" {
				converted := jstToDisplay(at, p.loc)
				if idx := strings.Index(converted, " "); idx >= 0 && len(converted) >= idx+6 {
					arrival = converted[idx+1 : idx+6]
				}
			}
		}
		if arrival != "" {
			regions = append(regions, fmt.Sprintf("%s(%s)", name, arrival))
		} else {
			regions = append(regions, name)
		}
	}
	if len(regions) > 0 {
		parts = append(parts, strings.Join(regions, "、"))
	}

	out := strings.TrimSpace(strings.Join(parts, ""))
	if out == "" {
		return fallback
	}
	return out
}
