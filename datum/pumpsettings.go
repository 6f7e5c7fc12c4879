package datum

import (
	"github.com/tidepool-org/medical-data/config"
)

type CGMConfig struct {
	APIVersion               string `json:"apiVersion"`
	EndOfLifeTransmitterDate string `json:"endOfLifeTransmitterDate"`
	ExpirationDate           string `json:"expirationDate"`
	Manufacturer             string `json:"manufacturer"`
	Name                     string `json:"name"`
	SWVersionTransmitter     string `json:"swVersionTransmitter"`
	TransmitterID            string `json:"transmitterId"`
}

type DeviceConfig struct {
	DeviceID     string `json:"deviceId"`
	IMEI         string `json:"imei"`
	Manufacturer string `json:"manufacturer"`
	Name         string `json:"name"`
	SWVersion    string `json:"swVersion"`
}

type PumpConfig struct {
	ExpirationDate string `json:"expirationDate"`
	Manufacturer   string `json:"manufacturer"`
	Name           string `json:"name"`
	SerialNumber   string `json:"serialNumber"`
	SWVersion      string `json:"swVersion"`
}

type PumpParameter struct {
	EffectiveDate string `json:"effectiveDate"`
	Level         string `json:"level"`
	Name          string `json:"name"`
	Unit          string `json:"unit"`
	Value         string `json:"value"`
}

type HistorizedParameter struct {
	PumpParameter `json:",squash"`
	ChangeType    string `json:"changeType"`
}

type ParameterChangeGroup struct {
	ChangeDate string                `json:"changeDate"`
	Parameters []HistorizedParameter `json:"parameters"`
}

type PumpSettingsPayload struct {
	CGM        CGMConfig              `json:"cgm"`
	Device     DeviceConfig           `json:"device"`
	Pump       PumpConfig             `json:"pump"`
	History    []ParameterChangeGroup `json:"history"`
	Parameters []PumpParameter        `json:"parameters"`
}

// PumpSettings is one device configuration snapshot.
type PumpSettings struct {
	Base
	Payload PumpSettingsPayload `json:"payload"`
}

// NormalizePumpSettings deep-normalizes the nested payload: missing string
// fields become empty strings and missing arrays become empty slices, so
// consumers never see partial sub-objects.
func NormalizePumpSettings(raw Raw, opts *config.Options) (*PumpSettings, error) {
	base, err := normalizeBase(raw, opts)
	if err != nil {
		return nil, err
	}

	var fields struct {
		Payload PumpSettingsPayload `json:"payload"`
	}
	if err := decode(raw, &fields); err != nil {
		return nil, err
	}
	if fields.Payload.History == nil {
		fields.Payload.History = []ParameterChangeGroup{}
	}
	if fields.Payload.Parameters == nil {
		fields.Payload.Parameters = []PumpParameter{}
	}
	for i := range fields.Payload.History {
		if fields.Payload.History[i].Parameters == nil {
			fields.Payload.History[i].Parameters = []HistorizedParameter{}
		}
	}

	base.Type = TypePumpSettings
	return &PumpSettings{Base: base, Payload: fields.Payload}, nil
}
