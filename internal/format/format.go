// Package format renders normalized events into the single-line text
// and color the ticker displays.
package format

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/quakeline/quakeline/internal/event"
)

// Default message colors. Warning color is configurable; the rest are
// fixed conventions.
const (
	DefaultWarningColor = "#FF0000"
	ReportColor         = "#00FFFF"
	DefaultWeatherColor = "#FFF500"
	GenericColor        = "#01FF00"
)

// Text renders an event into its display line.
func Text(ev *event.Event) string {
	switch ev.Type {
	case event.Warning:
		return warningText(ev)
	case event.Weather:
		return weatherText(ev)
	default:
		return reportText(ev)
	}
}

// Color picks the display color for an event. warningColor comes from
// configuration; weather alerts derive their color from the alert
// severity embedded in the headline.
func Color(ev *event.Event, warningColor string) string {
	switch ev.Type {
	case event.Warning:
		if warningColor != "" {
			return warningColor
		}
		return DefaultWarningColor
	case event.Report:
		return ReportColor
	case event.Weather:
		return weatherColor(ev)
	default:
		return GenericColor
	}
}

// defaultOrgNames maps warning sources without an organization field
// to a displayable issuer name.
var defaultOrgNames = map[string]string{
	"cea":     "中国地震预警网",
	"cea-pr":  "省级地震局",
	"sichuan": "四川地震局",
	"cwa-eew": "台湾中央气象局",
	"jma":     "日本气象厅",
	"sa":      "美国ShakeAlert",
	"kma-eew": "韩国气象厅",
	"nied":    "日本防災科研所预警",
}

// warningText builds 【机构预警】第N报，时间，地点发生M级地震，震源深度D公里.
func warningText(ev *event.Event) string {
	var b strings.Builder

	b.WriteString(warningPrefix(ev))

	if updates := ev.Updates(); updates > 0 {
		if ev.Source == "jma" && ev.Final() {
			b.WriteString("最终报")
		} else {
			fmt.Fprintf(&b, "第%d报", updates)
		}
	}

	if ev.ShockTime != "" {
		fmt.Fprintf(&b, "，%s，", ev.ShockTime)
	}

	switch {
	case ev.PlaceName != "" && ev.Magnitude > 0:
		fmt.Fprintf(&b, "%s发生%.1f级地震", ev.PlaceName, ev.Magnitude)
	case ev.PlaceName != "":
		fmt.Fprintf(&b, "%s发生地震", ev.PlaceName)
	case ev.Magnitude > 0:
		fmt.Fprintf(&b, "发生%.1f级地震", ev.Magnitude)
	default:
		b.WriteString("发生地震")
	}

	fmt.Fprintf(&b, "，震源深度%d公里", int(depthOrDefault(ev.Depth)+0.5))

	if intensity := extraFloat(ev, "epi_intensity"); intensity > 0 {
		fmt.Fprintf(&b, "，预估最大烈度%.1f度", intensity)
	}

	return b.String()
}

// warningPrefix builds the 【…】 issuer block. JMA and provincial
// bureaus have their own formats; everything else derives from the
// organization name without doubling a trailing 预警.
func warningPrefix(ev *event.Event) string {
	if ev.Source == "jma" {
		if info := extraString(ev, "info_type"); info != "" {
			return fmt.Sprintf("【日本气象厅 紧急地震速报 %s】", info)
		}
		return "【日本气象厅 紧急地震速报】"
	}
	if ev.Source == "cea-pr" {
		if province := extraString(ev, "province"); province != "" {
			return fmt.Sprintf("【%s地震局地震预警】", province)
		}
	}
	org := ev.Organization
	if org == "" {
		org = defaultOrgNames[ev.Source]
		if org == "" {
			if strings.HasPrefix(ev.Source, "wolfx_") {
				org = "Wolfx 预警"
			} else {
				org = "地震预警"
			}
		}
		return fmt.Sprintf("【%s预警】", org)
	}
	switch {
	case strings.Contains(org, "地震预警") || strings.Contains(org, "地震情报"):
		return fmt.Sprintf("【%s】", org)
	case strings.HasSuffix(org, "地震预警网"):
		return fmt.Sprintf("【%s预警】", org)
	case strings.HasSuffix(org, "预警"):
		return fmt.Sprintf("【%s】", org)
	default:
		return fmt.Sprintf("【%s预警】", org)
	}
}

// reportText builds 【机构地震信息】时间，地点发生M级地震，震源深度D公里.
// Tsunami bulletins show only the forecast type and region.
func reportText(ev *event.Event) string {
	var b strings.Builder

	org := ev.Organization
	switch {
	case org == "":
		b.WriteString("【地震信息】")
	case org == "FSSN":
		b.WriteString("【FSSN地震信息】")
	case org == "中国地震台网中心自动测定/正式测定":
		kind := "自动测定/正式测定"
		if info := strings.Trim(extraString(ev, "info_type"), "[]"); info != "" {
			if strings.Contains(info, "正式测定") {
				kind = "正式测定"
			} else if strings.Contains(info, "自动测定") {
				kind = "自动测定"
			}
		}
		fmt.Fprintf(&b, "【中国地震台网中心%s】", kind)
	case strings.Contains(org, "地震信息") || strings.Contains(org, "地震情报") || strings.Contains(org, "海啸"):
		fmt.Fprintf(&b, "【%s】", org)
	default:
		fmt.Fprintf(&b, "【%s地震信息】", org)
	}

	b.WriteString(ev.ShockTime)

	if tsunami, _ := ev.Extra["is_tsunami"].(bool); tsunami {
		if ev.PlaceName != "" {
			fmt.Fprintf(&b, "，%s", ev.PlaceName)
		}
		return b.String()
	}

	switch {
	case ev.PlaceName != "" && ev.Magnitude > 0:
		fmt.Fprintf(&b, "，%s发生%.1f级地震", ev.PlaceName, ev.Magnitude)
	case ev.PlaceName != "":
		fmt.Fprintf(&b, "，%s发生地震", ev.PlaceName)
	case ev.Magnitude > 0:
		fmt.Fprintf(&b, "，发生%.1f级地震", ev.Magnitude)
	}

	fmt.Fprintf(&b, "，震源深度%d公里", int(depthOrDefault(ev.Depth)+0.5))

	if intensity := extraFloat(ev, "epi_intensity"); intensity > 0 {
		fmt.Fprintf(&b, "，预估最大烈度%.1f度", intensity)
	}

	return b.String()
}

// weatherText builds 【气象预警】标题。时间，描述.
func weatherText(ev *event.Event) string {
	var b strings.Builder
	b.WriteString("【气象预警】")
	title := extraString(ev, "title")
	if title == "" {
		title = extraString(ev, "headline")
	}
	b.WriteString(title)
	if ev.ShockTime != "" {
		fmt.Fprintf(&b, "。%s", ev.ShockTime)
	}
	if desc := extraString(ev, "description"); desc != "" {
		fmt.Fprintf(&b, "，%s", desc)
	}
	return b.String()
}

var (
	weatherHeadlineColor = regexp.MustCompile(`发布(.+?)(红色|橙色|黄色|蓝色|白色)预警`)
	weatherDescColor     = regexp.MustCompile(`([^，。：:；;]+?)(红色|橙色|黄色|蓝色|白色)预警`)
)

var severityColors = map[string]string{
	"红色": "#FF0000",
	"橙色": "#FF8C00",
	"黄色": "#FFFF00",
	"蓝色": "#00BFFF",
	"白色": "#FFFFFF",
}

// weatherColor extracts the severity color from the alert headline,
// falling back to the description, then to the default weather color.
func weatherColor(ev *event.Event) string {
	headline := extraString(ev, "headline")
	if headline == "" {
		headline = extraString(ev, "title")
	}
	if m := weatherHeadlineColor.FindStringSubmatch(headline); m != nil {
		if c, ok := severityColors[m[2]]; ok {
			return c
		}
	}
	if desc := extraString(ev, "description"); desc != "" {
		if m := weatherDescColor.FindStringSubmatch(desc); m != nil {
			if c, ok := severityColors[m[2]]; ok {
				return c
			}
		}
	}
	return DefaultWeatherColor
}

// CancellationNotice builds the short-lived retraction line shown when
// a displayed warning is cancelled. The issuer block is reused from
// the retracted message's text when present.
func CancellationNotice(priorText, source string) string {
	prefix := fmt.Sprintf("【%s预警】", source)
	if i := strings.Index(priorText, "】"); i >= 0 {
		prefix = priorText[:i+len("】")]
	}
	return prefix + "收到取消报，撤回当前预警信息"
}

// depthOrDefault substitutes the conventional 10 km for missing or
// zero depths; real hypocenters are almost never at 0 km.
func depthOrDefault(d float64) float64 {
	if d <= 0 {
		return 10.0
	}
	return d
}

func extraString(ev *event.Event, key string) string {
	if ev.Extra == nil {
		return ""
	}
	s, _ := ev.Extra[key].(string)
	return s
}

func extraFloat(ev *event.Event, key string) float64 {
	if ev.Extra == nil {
		return 0
	}
	switch v := ev.Extra[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}
