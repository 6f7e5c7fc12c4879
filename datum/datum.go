// Package datum holds the typed model for every medical device record, the
// per-type normalizers turning loosely-typed API payloads into it, and the
// per-type deduplicators resolving duplicate uploads.
package datum

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/tidepool-org/medical-data/config"
	"github.com/tidepool-org/medical-data/errors"
	"github.com/tidepool-org/medical-data/timeutils"
)

// Raw is one loosely-typed record as received from the data API.
type Raw map[string]interface{}

// Type discriminates the datum variants.
type Type string

const (
	TypeBasal            Type = "basal"
	TypeBolus            Type = "bolus"
	TypeCBG              Type = "cbg"
	TypeSMBG             Type = "smbg"
	TypeFood             Type = "food"
	TypeMessage          Type = "message"
	TypePhysicalActivity Type = "physicalActivity"
	TypePumpSettings     Type = "pumpSettings"
	TypeUpload           Type = "upload"
	TypeWizard           Type = "wizard"
	TypeDeviceEvent      Type = "deviceEvent"
	TypeFill             Type = "fill"
)

// SubType discriminates deviceEvent records; bolus records reuse the field
// for their delivery subtype.
type SubType string

const (
	SubTypeConfidential    SubType = "confidential"
	SubTypeDeviceParameter SubType = "deviceParameter"
	SubTypeReservoirChange SubType = "reservoirChange"
	SubTypeTimeChange      SubType = "timeChange"
	SubTypeWarmUp          SubType = "warmup"
	SubTypeZen             SubType = "zen"
)

// Datum is the common supertype of every medical record variant. Meta exposes
// the mutable base for the timezone reconciliation pass; EndEpoch is the
// interval-end-aware epoch, equal to Epoch for point-in-time records.
type Datum interface {
	Meta() *Base
	EndEpoch() int64
}

// Base carries the attributes shared by every variant.
type Base struct {
	ID              string  `json:"id"`
	Type            Type    `json:"type"`
	SubType         SubType `json:"subType,omitempty"`
	Source          string  `json:"source"`
	Timezone        string  `json:"timezone"`
	NormalTime      string  `json:"normalTime"`
	Epoch           int64   `json:"epoch"`
	DisplayOffset   int     `json:"displayOffset"`
	GuessedTimezone bool    `json:"guessedTimezone"`
}

func (b *Base) Meta() *Base     { return b }
func (b *Base) EndEpoch() int64 { return b.Epoch }

// Rezone moves the record into a different timezone, keeping the absolute
// instant and recomputing every zone-derived field.
func (b *Base) Rezone(timezone string, guessed bool) {
	b.Timezone = timezone
	b.GuessedTimezone = guessed
	b.NormalTime = timeutils.ToISOString(b.Epoch, timezone)
	b.DisplayOffset = timeutils.DisplayOffsetAt(b.Epoch, timezone)
}

// Duration is a raw interval length.
type Duration struct {
	Units string  `json:"units"`
	Value float64 `json:"value"`
}

// Milliseconds normalizes the duration to milliseconds. Unrecognized units
// fall back to hours, matching the raw API default.
func (d Duration) Milliseconds() int64 {
	switch d.Units {
	case "milliseconds":
		return int64(d.Value)
	case "seconds":
		return int64(d.Value * 1000)
	case "minutes":
		return int64(d.Value) * timeutils.MillisecondsPerMinute
	default:
		return int64(d.Value * float64(timeutils.MillisecondsPerHour))
	}
}

// Interval extends Base for variants spanning a time range.
type Interval struct {
	Duration  Duration `json:"duration"`
	EpochEnd  int64    `json:"epochEnd"`
	NormalEnd string   `json:"normalEnd"`
}

// NewID generates a random 16-byte hex identifier for records the source
// device uploaded without one.
func NewID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// decode maps a raw record onto a typed raw struct, coercing compatible
// primitive types the way the original JSON consumers did.
func decode(raw Raw, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "json",
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(map[string]interface{}(raw)); err != nil {
		return errors.Detailed(errors.MalformedRecord, "%v", err)
	}
	return nil
}

// normalizeBase performs the normalization shared by every type: time and
// timezone parsing, id assignment and source defaulting.
func normalizeBase(raw Raw, opts *config.Options) (Base, error) {
	rawTime, ok := raw["time"].(string)
	if !ok {
		return Base{}, errors.Detailed(errors.MalformedRecord, "time is not a string: %v", raw["time"])
	}
	t, err := time.Parse(time.RFC3339Nano, rawTime)
	if err != nil {
		return Base{}, errors.Detailed(errors.MalformedRecord, "unparseable time %q", rawTime)
	}

	var fields struct {
		ID       string `json:"id"`
		Type     string `json:"type"`
		SubType  string `json:"subType"`
		Source   string `json:"source"`
		Timezone string `json:"timezone"`
	}
	if err := decode(raw, &fields); err != nil {
		return Base{}, err
	}
	if fields.ID == "" {
		fields.ID = NewID()
	}
	if fields.Source == "" {
		fields.Source = opts.DefaultSource
	}
	if fields.Timezone == "" {
		fields.Timezone = "UTC"
	}

	epoch := t.UnixMilli()
	return Base{
		ID:            fields.ID,
		Type:          Type(fields.Type),
		SubType:       SubType(fields.SubType),
		Source:        fields.Source,
		Timezone:      fields.Timezone,
		NormalTime:    timeutils.ToISOString(epoch, fields.Timezone),
		Epoch:         epoch,
		DisplayOffset: timeutils.DisplayOffsetAt(epoch, fields.Timezone),
	}, nil
}

// normalizeInterval derives the interval fields shared by confidential mode,
// physical activity, warm-up and zen mode records.
func normalizeInterval(raw Raw, base *Base) (Interval, error) {
	duration := Duration{Units: "hours", Value: 0}
	if inner, ok := raw["duration"].(map[string]interface{}); ok {
		var fields struct {
			Units string  `json:"units"`
			Unit  string  `json:"unit"`
			Value float64 `json:"value"`
		}
		if err := decode(Raw(inner), &fields); err != nil {
			return Interval{}, err
		}
		duration.Value = fields.Value
		if fields.Units != "" {
			duration.Units = fields.Units
		} else if fields.Unit != "" {
			duration.Units = fields.Unit
		}
	}

	epochEnd := base.Epoch + duration.Milliseconds()
	return Interval{
		Duration:  duration,
		EpochEnd:  epochEnd,
		NormalEnd: timeutils.ToISOString(epochEnd, base.Timezone),
	}, nil
}
