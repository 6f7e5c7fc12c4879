package datum

import (
	"github.com/tidepool-org/medical-data/config"
	"github.com/tidepool-org/medical-data/timeutils"
)

const (
	DeliveryTypeAutomated = "automated"
	DeliveryTypeScheduled = "scheduled"
	DeliveryTypeTemp      = "temp"
)

// AutomatedBasalDuration is the duration, in milliseconds, the pump reports
// for an automated basal it interrupted and replaced with a temp basal.
const AutomatedBasalDuration = 60000

// Basal is one basal insulin delivery segment. Duration is in milliseconds.
// Replace/ReplacedBy link an interrupted automated basal to the temp basal
// that superseded it.
type Basal struct {
	Base
	DeliveryType string  `json:"deliveryType"`
	Rate         float64 `json:"rate"`
	Duration     int64   `json:"duration"`
	EpochEnd     int64   `json:"epochEnd"`
	NormalEnd    string  `json:"normalEnd"`
	Replace      string  `json:"replace,omitempty"`
	ReplacedBy   string  `json:"replacedBy,omitempty"`
}

func (b *Basal) EndEpoch() int64 { return b.EpochEnd }

func NormalizeBasal(raw Raw, opts *config.Options) (*Basal, error) {
	base, err := normalizeBase(raw, opts)
	if err != nil {
		return nil, err
	}

	var fields struct {
		DeliveryType string  `json:"deliveryType"`
		Rate         float64 `json:"rate"`
		Duration     float64 `json:"duration"`
	}
	if err := decode(raw, &fields); err != nil {
		return nil, err
	}

	base.Type = TypeBasal
	base.SubType = SubType(fields.DeliveryType)
	duration := int64(fields.Duration)
	epochEnd := base.Epoch + duration
	return &Basal{
		Base:         base,
		DeliveryType: fields.DeliveryType,
		Rate:         fields.Rate,
		Duration:     duration,
		EpochEnd:     epochEnd,
		NormalEnd:    timeutils.ToISOString(epochEnd, base.Timezone),
	}, nil
}

// DeduplicateBasals reconciles automated basal records the controller
// interrupted: an automated basal with the marker duration and no existing
// link is matched against temp basals with the same rate starting within
// YLP820BasalTime of it. The matched temp basal is relabeled automated and
// linked both ways; the interrupted record keeps a zero duration.
func DeduplicateBasals(data []*Basal, opts *config.Options) []*Basal {
	out := DeduplicateByID(data)
	for _, automated := range out {
		if automated.DeliveryType != DeliveryTypeAutomated ||
			automated.Duration != AutomatedBasalDuration ||
			automated.Replace != "" || automated.ReplacedBy != "" {
			continue
		}
		for _, temp := range out {
			if temp.DeliveryType != DeliveryTypeTemp || temp.Rate != automated.Rate {
				continue
			}
			delta := temp.Epoch - automated.Epoch
			if delta < 0 {
				delta = -delta
			}
			if delta >= opts.YLP820BasalTime {
				continue
			}
			temp.DeliveryType = DeliveryTypeAutomated
			temp.SubType = SubType(DeliveryTypeAutomated)
			temp.Replace = automated.ID
			automated.ReplacedBy = temp.ID
			automated.Duration = 0
			automated.EpochEnd = automated.Epoch
			automated.NormalEnd = automated.NormalTime
			break
		}
	}
	return out
}
