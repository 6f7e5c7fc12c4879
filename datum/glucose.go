package datum

import (
	"math"

	"github.com/tidepool-org/medical-data/config"
	"github.com/tidepool-org/medical-data/errors"
	"github.com/tidepool-org/medical-data/timeutils"
)

// MmolLConversionFactor converts between mg/dL and mmol/L.
const MmolLConversionFactor = 18.01577

// Glucose is one glucose reading, continuous (cbg) or self-monitored (smbg).
// LocalDate, IsoWeekday and MsPer24 are derived for the trends view.
type Glucose struct {
	Base
	Units      config.BGUnit `json:"units"`
	Value      float64       `json:"value"`
	LocalDate  string        `json:"localDate"`
	IsoWeekday string        `json:"isoWeekday"`
	MsPer24    int64         `json:"msPer24"`
}

// ConvertBG converts a glucose value between units, rounding to the display
// precision of the target unit: one decimal for mmol/L, integer for mg/dL.
func ConvertBG(value float64, from, to config.BGUnit) float64 {
	if from == to {
		return value
	}
	if to == config.MmolL {
		return math.Round(10*value/MmolLConversionFactor) / 10
	}
	return math.Round(value * MmolLConversionFactor)
}

// NormalizeGlucose handles both cbg and smbg records; the two kinds differ
// only by their type discriminator.
func NormalizeGlucose(raw Raw, opts *config.Options) (*Glucose, error) {
	base, err := normalizeBase(raw, opts)
	if err != nil {
		return nil, err
	}

	var fields struct {
		Value float64 `json:"value"`
		Units string  `json:"units"`
	}
	if err := decode(raw, &fields); err != nil {
		return nil, err
	}
	if _, present := raw["value"]; !present || fields.Value < 0 {
		return nil, errors.Detailed(errors.MalformedRecord, "invalid glucose value %v", raw["value"])
	}
	units := config.BGUnit(fields.Units)
	if units != config.MgdL && units != config.MmolL {
		return nil, errors.Detailed(errors.MalformedRecord, "invalid glucose units %q", fields.Units)
	}

	return &Glucose{
		Base:       base,
		Units:      opts.BGUnits,
		Value:      ConvertBG(fields.Value, units, opts.BGUnits),
		LocalDate:  timeutils.LocalDate(base.Epoch, base.Timezone),
		IsoWeekday: timeutils.ISOWeekday(base.Epoch, base.Timezone),
		MsPer24:    timeutils.MsSinceMidnight(base.Epoch, base.Timezone),
	}, nil
}
