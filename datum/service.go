package datum

import (
	"github.com/tidepool-org/medical-data/config"
	"github.com/tidepool-org/medical-data/errors"
)

// Service routes a raw record to the normalizer for its type/subType
// discriminator. It is stateless; the aggregation engine owns one.
type Service struct{}

// Normalize dispatches on the type discriminator. Records without a type but
// with a messagetext field are treated as messages, a quirk of the legacy
// message API.
func (s Service) Normalize(raw Raw, opts *config.Options) (Datum, error) {
	rawType, _ := raw["type"].(string)
	if rawType == "" {
		if _, ok := raw["messagetext"]; ok {
			rawType = string(TypeMessage)
		}
	}

	switch Type(rawType) {
	case TypeBasal:
		return asDatum(NormalizeBasal(raw, opts))
	case TypeBolus:
		return asDatum(NormalizeBolus(raw, opts))
	case TypeCBG, TypeSMBG:
		return asDatum(NormalizeGlucose(raw, opts))
	case TypeFood:
		return asDatum(NormalizeMeal(raw, opts))
	case TypeMessage:
		return asDatum(NormalizeMessage(raw, opts))
	case TypePhysicalActivity:
		return asDatum(NormalizePhysicalActivity(raw, opts))
	case TypePumpSettings:
		return asDatum(NormalizePumpSettings(raw, opts))
	case TypeUpload:
		return asDatum(NormalizeUpload(raw, opts))
	case TypeWizard:
		return asDatum(NormalizeWizard(raw, opts))
	case TypeDeviceEvent:
		return s.normalizeDeviceEvent(raw, opts)
	default:
		return nil, errors.Detailed(errors.UnknownDatumType, "%q", rawType)
	}
}

func (s Service) normalizeDeviceEvent(raw Raw, opts *config.Options) (Datum, error) {
	subType, _ := raw["subType"].(string)
	switch SubType(subType) {
	case SubTypeConfidential:
		return asDatum(NormalizeConfidentialMode(raw, opts))
	case SubTypeDeviceParameter:
		return asDatum(NormalizeDeviceParameterChange(raw, opts))
	case SubTypeReservoirChange:
		return asDatum(NormalizeReservoirChange(raw, opts))
	case SubTypeTimeChange:
		return asDatum(NormalizeTimeZoneChange(raw, opts))
	case SubTypeWarmUp:
		return asDatum(NormalizeWarmUp(raw, opts))
	case SubTypeZen:
		return asDatum(NormalizeZenMode(raw, opts))
	default:
		return nil, errors.Detailed(errors.UnknownDeviceEventSubtype, "%q", subType)
	}
}

func asDatum[T Datum](d T, err error) (Datum, error) {
	if err != nil {
		return nil, err
	}
	return d, nil
}
