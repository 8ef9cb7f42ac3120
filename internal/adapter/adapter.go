// Package adapter converts raw source payloads into normalized events.
// One adapter variant exists per source family; dispatch is a static
// source-to-variant lookup, never runtime probing.
package adapter

import (
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/quakeline/quakeline/internal/event"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Adapter parses one source family's payloads. Parse is pure and
// synchronous: it never blocks on I/O and returns (nil, nil) for
// payloads that carry nothing displayable (heartbeats, acks,
// unrelated message types). Malformed input is an error, not a panic.
type Adapter interface {
	Source() string
	Parse(raw []byte) ([]*event.Event, error)
}

// ForSource returns the adapter owning a source name, or nil for
// unknown sources.
func ForSource(name string, loc *time.Location) Adapter {
	switch {
	case name == "fanstudio":
		return NewFanStudio(loc)
	case name == "p2pquake":
		return NewP2PQuake(loc)
	case name == "p2pquake_tsunami":
		return NewP2PQuakeTsunami(loc)
	case name == "nied":
		return NewNIED(loc)
	case strings.HasPrefix(name, "wolfx_"):
		return NewWolfx(strings.TrimPrefix(name, "wolfx_"), loc)
	default:
		return nil
	}
}

// orgNames maps a source to its issuing organization's display name.
var orgNames = map[string]string{
	"fanstudio":         "Fan Studio数据源",
	"weatheralarm":      "气象预警",
	"cenc":              "中国地震台网中心自动测定/正式测定",
	"cea":               "中国地震预警网",
	"cea-pr":            "中国地震预警网-省级预警",
	"sichuan":           "四川地震局地震预警",
	"ningxia":           "宁夏地震局",
	"guangxi":           "广西地震局",
	"shanxi":            "山西地震局",
	"beijing":           "北京地震局",
	"cwa":               "台湾中央气象署",
	"cwa-eew":           "台湾中央气象署地震预警",
	"jma":               "日本气象厅地震预警",
	"p2pquake":          "日本气象厅地震情报",
	"p2pquake_tsunami":  "日本气象厅海啸预报",
	"hko":               "香港天文台",
	"usgs":              "美国地质调查局",
	"sa":                "美国ShakeAlert地震预警",
	"emsc":              "欧洲地中海地震中心",
	"bcsf":              "法国中央地震研究所",
	"gfz":               "德国地学研究中心",
	"usp":               "巴西圣保罗大学",
	"kma":               "韩国气象厅",
	"kma-eew":           "韩国气象厅地震预警",
	"fssn":              "FSSN",
	"wolfx_sc_eew":      "Wolfx 四川地震局预警",
	"wolfx_jma_eew":     "Wolfx JMA 预警",
	"wolfx_fj_eew":      "Wolfx 福建地震局预警",
	"wolfx_cenc_eew":    "Wolfx CENC 预警",
	"wolfx_cwa_eew":     "Wolfx CWA 预警",
	"wolfx_cenc_eqlist": "Wolfx CENC 速报",
	"wolfx_jma_eqlist":  "Wolfx JMA 速报",
	"nied":              "NIED 日本防災科研所预警",
}

// OrganizationName returns the display name of a source's issuer,
// falling back to the source name itself.
func OrganizationName(source string) string {
	if n, ok := orgNames[source]; ok {
		return n
	}
	return source
}

// Fixed offsets of the upstream feed clocks.
var (
	zoneJST = time.FixedZone("JST", 9*3600)
	zoneCST = time.FixedZone("CST", 8*3600)
)

// Upstream time layouts seen in the wild, most common first.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04:05.999",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02 15:04",
	"2006-01-02 15:04",
}

// jstToDisplay converts a JST timestamp string into the display
// timezone. Unparseable input is returned unchanged rather than lost.
func jstToDisplay(s string, loc *time.Location) string {
	return convertTime(s, zoneJST, loc)
}

// cstToDisplay converts a UTC+8 timestamp string into the display
// timezone.
func cstToDisplay(s string, loc *time.Location) string {
	return convertTime(s, zoneCST, loc)
}

func convertTime(s string, from, to *time.Location) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, from); err == nil {
			return t.In(to).Format(event.ShockTimeLayout)
		}
	}
	return s
}

// payload navigates a decoded JSON object defensively; upstream feeds
// disagree on field names and scalar types.
type payload map[string]any

func (p payload) str(keys ...string) string {
	for _, k := range keys {
		if v, ok := p[k]; ok {
			switch s := v.(type) {
			case string:
				if s != "" {
					return s
				}
			case float64:
				return strconv.FormatFloat(s, 'f', -1, 64)
			}
		}
	}
	return ""
}

func (p payload) num(keys ...string) float64 {
	for _, k := range keys {
		switch v := p[k].(type) {
		case float64:
			if v != 0 {
				return v
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f != 0 {
				return f
			}
		case int:
			if v != 0 {
				return float64(v)
			}
		}
	}
	return 0
}

func (p payload) boolean(key string) bool {
	v, ok := p[key].(bool)
	return ok && v
}

func (p payload) object(key string) payload {
	if m, ok := p[key].(map[string]any); ok {
		return payload(m)
	}
	return nil
}

// depthKm strips the "km" suffix some feeds append to depth values.
func depthKm(v any) float64 {
	switch d := v.(type) {
	case float64:
		return d
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(d), "km"))
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return 0
}
