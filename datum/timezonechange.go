package datum

import (
	"github.com/tidepool-org/medical-data/config"
	"github.com/tidepool-org/medical-data/timeutils"
)

// TimeZoneChangeMethod marks every synthesized change as inferred from the
// surrounding data rather than reported by a device.
const TimeZoneChangeMethod = "guessed"

// ZonedTime is one side of a timezone change bracket.
type ZonedTime struct {
	Time     string `json:"time"`
	Timezone string `json:"timeZoneName"`
}

// TimeZoneChange is a synthetic event bracketing a transition between two
// timezones (or two UTC offsets of the same zone, at a DST boundary). It is
// produced by the reconciliation pass, never ingested from the API.
type TimeZoneChange struct {
	Base
	From   ZonedTime `json:"from"`
	To     ZonedTime `json:"to"`
	Method string    `json:"method"`
}

func NewTimeZoneChange(fromEpoch int64, fromZone string, toEpoch int64, toZone string) *TimeZoneChange {
	return &TimeZoneChange{
		Base: Base{
			ID:            NewID(),
			Type:          TypeDeviceEvent,
			SubType:       SubTypeTimeChange,
			Timezone:      toZone,
			NormalTime:    timeutils.ToISOString(toEpoch, toZone),
			Epoch:         toEpoch,
			DisplayOffset: timeutils.DisplayOffsetAt(toEpoch, toZone),
		},
		From:   ZonedTime{Time: timeutils.ToISOString(fromEpoch, fromZone), Timezone: fromZone},
		To:     ZonedTime{Time: timeutils.ToISOString(toEpoch, toZone), Timezone: toZone},
		Method: TimeZoneChangeMethod,
	}
}

// NormalizeTimeZoneChange handles timeChange device events present in raw
// uploads. The reconciliation pass replaces them with its own synthesized
// view, but dispatch still accepts the subtype.
func NormalizeTimeZoneChange(raw Raw, opts *config.Options) (*TimeZoneChange, error) {
	base, err := normalizeBase(raw, opts)
	if err != nil {
		return nil, err
	}

	var fields struct {
		From ZonedTime `json:"from"`
		To   ZonedTime `json:"to"`
	}
	if err := decode(raw, &fields); err != nil {
		return nil, err
	}

	base.Type = TypeDeviceEvent
	base.SubType = SubTypeTimeChange
	return &TimeZoneChange{
		Base:   base,
		From:   fields.From,
		To:     fields.To,
		Method: TimeZoneChangeMethod,
	}, nil
}
