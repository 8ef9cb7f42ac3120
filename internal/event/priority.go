package event

// DefaultPriority is assigned to sources missing from the table.
// Lower numbers display first.
const DefaultPriority = 99

// sourcePriority ranks every known feed. Early-warning feeds share the
// top slot so the first admitted warning wins on arrival order alone.
var sourcePriority = map[string]int{
	// EEW feeds
	"cea":            0,
	"cea-pr":         0,
	"sichuan":        0,
	"cwa-eew":        0,
	"jma":            0,
	"sa":             0,
	"kma-eew":        0,
	"wolfx_sc_eew":   0,
	"wolfx_jma_eew":  0,
	"wolfx_fj_eew":   0,
	"wolfx_cenc_eew": 0,
	"wolfx_cwa_eew":  0,
	"nied":           0,

	// Weather alerts lead the report rotation.
	"weatheralarm": 1,

	// Report feeds
	"cenc":              2,
	"ningxia":           3,
	"guangxi":           4,
	"shanxi":            5,
	"beijing":           6,
	"cwa":               7,
	"p2pquake":          8,
	"p2pquake_tsunami":  8,
	"wolfx_cenc_eqlist": 8,
	"wolfx_jma_eqlist":  8,
	"hko":               9,
	"usgs":              10,
	"emsc":              11,
	"bcsf":              13,
	"gfz":               14,
	"usp":               15,
	"kma":               16,
	"fssn":              17,
	"fanstudio":         99,
}

// SourcePriority returns the display priority of a source.
// Unknown sources sort last.
func SourcePriority(source string) int {
	if p, ok := sourcePriority[source]; ok {
		return p
	}
	return DefaultPriority
}
