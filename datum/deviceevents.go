package datum

import (
	"github.com/tidepool-org/medical-data/config"
)

// ReservoirChange is one insulin cartridge change.
type ReservoirChange struct {
	Base
}

func NormalizeReservoirChange(raw Raw, opts *config.Options) (*ReservoirChange, error) {
	base, err := normalizeBase(raw, opts)
	if err != nil {
		return nil, err
	}
	base.Type = TypeDeviceEvent
	base.SubType = SubTypeReservoirChange
	return &ReservoirChange{Base: base}, nil
}

// WarmUp is the sensor warm-up period following a CGM session start.
type WarmUp struct {
	Base
	Interval
}

func (w *WarmUp) EndEpoch() int64 { return w.EpochEnd }

func NormalizeWarmUp(raw Raw, opts *config.Options) (*WarmUp, error) {
	base, err := normalizeBase(raw, opts)
	if err != nil {
		return nil, err
	}
	interval, err := normalizeInterval(raw, &base)
	if err != nil {
		return nil, err
	}
	base.Type = TypeDeviceEvent
	base.SubType = SubTypeWarmUp
	return &WarmUp{Base: base, Interval: interval}, nil
}

// ZenMode is an interval during which the loop targets a relaxed glycemia.
type ZenMode struct {
	Base
	Interval
}

func (z *ZenMode) EndEpoch() int64 { return z.EpochEnd }

func NormalizeZenMode(raw Raw, opts *config.Options) (*ZenMode, error) {
	base, err := normalizeBase(raw, opts)
	if err != nil {
		return nil, err
	}
	interval, err := normalizeInterval(raw, &base)
	if err != nil {
		return nil, err
	}
	base.Type = TypeDeviceEvent
	base.SubType = SubTypeZen
	return &ZenMode{Base: base, Interval: interval}, nil
}

// ConfidentialMode is an interval during which the patient hid loop data.
type ConfidentialMode struct {
	Base
	Interval
}

func (c *ConfidentialMode) EndEpoch() int64 { return c.EpochEnd }

func NormalizeConfidentialMode(raw Raw, opts *config.Options) (*ConfidentialMode, error) {
	base, err := normalizeBase(raw, opts)
	if err != nil {
		return nil, err
	}
	interval, err := normalizeInterval(raw, &base)
	if err != nil {
		return nil, err
	}
	base.Type = TypeDeviceEvent
	base.SubType = SubTypeConfidential
	return &ConfidentialMode{Base: base, Interval: interval}, nil
}
