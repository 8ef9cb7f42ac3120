package format

import (
	"testing"

	"github.com/quakeline/quakeline/internal/event"
)

func TestWarningText(t *testing.T) {
	ev := &event.Event{
		Type:      event.Warning,
		Source:    "cea",
		PlaceName: "四川泸定",
		Magnitude: 6.8,
		Depth:     16,
		ShockTime: "2022-09-05 12:52:18",
		Extra:     map[string]any{"updates": 3, "epi_intensity": 9.0},
	}

	got := Text(ev)
	want := "【中国地震预警网预警】第3报，2022-09-05 12:52:18，四川泸定发生6.8级地震，震源深度16公里，预估最大烈度9.0度"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestWarningTextJMA(t *testing.T) {
	ev := &event.Event{
		Type:      event.Warning,
		Source:    "jma",
		PlaceName: "石川县能登",
		Magnitude: 7.6,
		Depth:     10,
		ShockTime: "2024-01-01 15:10:09",
		Extra:     map[string]any{"updates": 5, "info_type": "予報"},
	}
	got := Text(ev)
	want := "【日本气象厅 紧急地震速报 予報】第5报，2024-01-01 15:10:09，石川县能登发生7.6级地震，震源深度10公里"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestWarningTextJMAFinal(t *testing.T) {
	ev := &event.Event{
		Type:      event.Warning,
		Source:    "jma",
		PlaceName: "石川县能登",
		Magnitude: 7.6,
		Depth:     10,
		Extra:     map[string]any{"updates": 9, "final": true},
	}
	got := Text(ev)
	want := "【日本气象厅 紧急地震速报】最终报石川县能登发生7.6级地震，震源深度10公里"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestWarningTextProvincialBureau(t *testing.T) {
	ev := &event.Event{
		Type:      event.Warning,
		Source:    "cea-pr",
		PlaceName: "云南大理",
		Magnitude: 5.2,
		Depth:     8,
		Extra:     map[string]any{"province": "云南省"},
	}
	got := Text(ev)
	if want := "【云南省地震局地震预警】"; len(got) < len(want) || got[:len(want)] != want {
		t.Errorf("Expected provincial prefix %q, got %q", want, got)
	}
}

func TestWarningPrefixAvoidsDoubledSuffix(t *testing.T) {
	cases := []struct {
		org  string
		want string
	}{
		{"中国地震预警网", "【中国地震预警网预警】"},
		{"四川地震局预警", "【四川地震局预警】"},
		{"成都高新减灾研究所地震预警", "【成都高新减灾研究所地震预警】"},
		{"韩国气象厅", "【韩国气象厅预警】"},
	}
	for _, c := range cases {
		ev := &event.Event{Type: event.Warning, Source: "cea", Organization: c.org}
		got := warningPrefix(ev)
		if got != c.want {
			t.Errorf("Organization %q: expected %q, got %q", c.org, c.want, got)
		}
	}
}

func TestWarningTextDefaultDepth(t *testing.T) {
	ev := &event.Event{Type: event.Warning, Source: "cea", PlaceName: "某地", Magnitude: 4.0}
	got := Text(ev)
	want := "【中国地震预警网预警】第1报某地发生4.0级地震，震源深度10公里"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestReportTextCENCKinds(t *testing.T) {
	cases := []struct {
		info string
		want string
	}{
		{"[正式测定]", "【中国地震台网中心正式测定】"},
		{"[自动测定]", "【中国地震台网中心自动测定】"},
		{"", "【中国地震台网中心自动测定/正式测定】"},
	}
	for _, c := range cases {
		ev := &event.Event{
			Type:         event.Report,
			Source:       "cenc",
			Organization: "中国地震台网中心自动测定/正式测定",
			PlaceName:    "新疆阿克苏",
			Magnitude:    5.1,
			Depth:        10,
			ShockTime:    "2026-08-24 09:30:00",
		}
		if c.info != "" {
			ev.Extra = map[string]any{"info_type": c.info}
		}
		got := Text(ev)
		if len(got) < len(c.want) || got[:len(c.want)] != c.want {
			t.Errorf("Info %q: expected prefix %q, got %q", c.info, c.want, got)
		}
	}
}

func TestReportTextFSSN(t *testing.T) {
	ev := &event.Event{
		Type:         event.Report,
		Source:       "fssn",
		Organization: "FSSN",
		PlaceName:    "东京湾",
		Magnitude:    4.2,
		Depth:        30,
		ShockTime:    "2026-08-24 08:00:00",
	}
	got := Text(ev)
	want := "【FSSN地震信息】2026-08-24 08:00:00，东京湾发生4.2级地震，震源深度30公里"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestReportTextTsunami(t *testing.T) {
	ev := &event.Event{
		Type:         event.Report,
		Source:       "p2pquake_tsunami",
		Organization: "日本气象厅海啸预报",
		PlaceName:    "发布警报，预计最高3m，涉及：伊豆诸岛（立即）、千叶县内房（14:30）",
		ShockTime:    "2026-08-24 14:05:00",
		Extra:        map[string]any{"is_tsunami": true},
	}
	got := Text(ev)
	want := "【日本气象厅海啸预报】2026-08-24 14:05:00，发布警报，预计最高3m，涉及：伊豆诸岛（立即）、千叶县内房（14:30）"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestWeatherText(t *testing.T) {
	ev := &event.Event{
		Type:      event.Weather,
		Source:    "weatheralarm",
		ShockTime: "2026-08-24 10:00:00",
		Extra: map[string]any{
			"title":       "北京市气象台发布暴雨橙色预警",
			"description": "预计未来6小时部分地区有暴雨",
		},
	}
	got := Text(ev)
	want := "【气象预警】北京市气象台发布暴雨橙色预警。2026-08-24 10:00:00，预计未来6小时部分地区有暴雨"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestColor(t *testing.T) {
	warning := &event.Event{Type: event.Warning}
	if got := Color(warning, "#AA0000"); got != "#AA0000" {
		t.Errorf("Expected configured warning color, got %s", got)
	}
	if got := Color(warning, ""); got != DefaultWarningColor {
		t.Errorf("Expected default warning color, got %s", got)
	}

	report := &event.Event{Type: event.Report}
	if got := Color(report, "#AA0000"); got != ReportColor {
		t.Errorf("Expected report color, got %s", got)
	}
}

func TestWeatherColorSeverity(t *testing.T) {
	cases := []struct {
		headline string
		desc     string
		want     string
	}{
		{"北京市气象台发布暴雨红色预警", "", "#FF0000"},
		{"发布台风橙色预警", "", "#FF8C00"},
		{"发布大雾黄色预警", "", "#FFFF00"},
		{"发布寒潮蓝色预警", "", "#00BFFF"},
		{"发布强降温白色预警", "", "#FFFFFF"},
		{"气象预警信息", "已发布高温橙色预警信号", "#FF8C00"},
		{"无严重级别的提示", "", DefaultWeatherColor},
	}
	for _, c := range cases {
		ev := &event.Event{Type: event.Weather, Extra: map[string]any{
			"headline":    c.headline,
			"description": c.desc,
		}}
		if got := weatherColor(ev); got != c.want {
			t.Errorf("Headline %q: expected %s, got %s", c.headline, c.want, got)
		}
	}
}

func TestCancellationNotice(t *testing.T) {
	prior := "【四川地震局预警】第2报，四川泸定发生6.8级地震"
	got := CancellationNotice(prior, "sichuan")
	want := "【四川地震局预警】收到取消报，撤回当前预警信息"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	// No prior text: fall back to the source name.
	got = CancellationNotice("", "cea")
	want = "【cea预警】收到取消报，撤回当前预警信息"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
