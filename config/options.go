package config

// BGUnit is a blood glucose measurement unit.
type BGUnit string

const (
	MgdL  BGUnit = "mg/dL"
	MmolL BGUnit = "mmol/L"
)

// roundingTolerance absorbs unit-conversion rounding drift when classifying
// converted mg/dL values against the clinical boundaries.
const roundingTolerance = 0.0001

// BGClasses holds the five clinical glucose boundaries, expressed in BGUnits.
type BGClasses struct {
	VeryLow     float64 `json:"veryLow"`
	TargetLower float64 `json:"targetLower"`
	TargetUpper float64 `json:"targetUpper"`
	VeryHigh    float64 `json:"veryHigh"`
	Clamp       float64 `json:"clamp"`
}

var (
	mgdlClasses  = BGClasses{VeryLow: 54, TargetLower: 70, TargetUpper: 180, VeryHigh: 250, Clamp: 600}
	mmollClasses = BGClasses{VeryLow: 3.0, TargetLower: 3.9, TargetUpper: 10.0, VeryHigh: 13.9, Clamp: 33.3}
)

// DateRange optionally pins the visible range of a session. Zero values mean
// "derive from the data". Epoch milliseconds.
type DateRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// FillOptions drives background fill generation: Classes maps a local hour to
// the shading class rendered from that hour on, Duration is the lead-in
// before the visible range, in milliseconds.
type FillOptions struct {
	Classes  map[int]string `json:"classes"`
	Duration int64          `json:"duration"`
}

// TimePrefs is the display-time preference snapshot consumed by charts. The
// aggregation engine updates it to the timezone of the latest datum.
type TimePrefs struct {
	TimezoneAware  bool   `json:"timezoneAware"`
	TimezoneName   string `json:"timezoneName"`
	TimezoneOffset int    `json:"timezoneOffset"`
}

// Options is the per-session configuration threaded through every normalizer,
// deduplicator and the aggregation engine. It is built once per session;
// nothing mutates it afterwards except the engine-owned TimePrefs copy.
type Options struct {
	DefaultSource           string      `json:"defaultSource"`
	YLP820BasalTime         int64       `json:"YLP820_BASAL_TIME"`
	Timezone                string      `json:"timezoneName"`
	BGUnits                 BGUnit      `json:"bgUnits"`
	BGClasses               BGClasses   `json:"bgClasses"`
	DateRange               DateRange   `json:"dateRange"`
	DefaultPumpManufacturer string      `json:"defaultPumpManufacturer"`
	Fill                    FillOptions `json:"fillOpts"`
	TimePrefs               TimePrefs   `json:"timePrefs"`
}

func DefaultOptions() Options {
	return Options{
		DefaultSource:           "Diabeloop",
		YLP820BasalTime:         5000,
		Timezone:                "UTC",
		BGUnits:                 MgdL,
		BGClasses:               mgdlClasses,
		DefaultPumpManufacturer: "Diabeloop",
		Fill: FillOptions{
			Classes: map[int]string{
				0:  "darkest",
				3:  "dark",
				6:  "lighter",
				9:  "light",
				12: "lightest",
				15: "lighter",
				18: "dark",
				21: "darker",
			},
			Duration: 3 * 60 * 60 * 1000,
		},
		TimePrefs: TimePrefs{
			TimezoneAware: true,
			TimezoneName:  "UTC",
		},
	}
}

// WithDerived recomputes the fields that depend on other fields: the clinical
// boundaries follow BGUnits, with a tolerance adjustment on the mg/dL table
// so values that round-tripped through mmol/L still classify correctly.
func (o Options) WithDerived() Options {
	switch o.BGUnits {
	case MmolL:
		o.BGClasses = mmollClasses
	default:
		o.BGUnits = MgdL
		o.BGClasses = BGClasses{
			VeryLow:     mgdlClasses.VeryLow - roundingTolerance,
			TargetLower: mgdlClasses.TargetLower - roundingTolerance,
			TargetUpper: mgdlClasses.TargetUpper + roundingTolerance,
			VeryHigh:    mgdlClasses.VeryHigh + roundingTolerance,
			Clamp:       mgdlClasses.Clamp + roundingTolerance,
		}
	}
	if o.Fill.Classes == nil {
		o.Fill = DefaultOptions().Fill
	}
	if o.Timezone == "" {
		o.Timezone = "UTC"
	}
	if o.TimePrefs.TimezoneName == "" {
		o.TimePrefs.TimezoneName = o.Timezone
	}
	if o.YLP820BasalTime <= 0 {
		o.YLP820BasalTime = 5000
	}
	if o.DefaultSource == "" {
		o.DefaultSource = DefaultOptions().DefaultSource
	}
	if o.DefaultPumpManufacturer == "" {
		o.DefaultPumpManufacturer = DefaultOptions().DefaultPumpManufacturer
	}
	return o
}
