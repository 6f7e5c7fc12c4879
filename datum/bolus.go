package datum

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/tidepool-org/medical-data/config"
	"github.com/tidepool-org/medical-data/errors"
)

var bolusSubTypes = mapset.NewThreadUnsafeSet(
	"normal", "biphasic", "pen", "dual/square", "square",
)

// Bolus is one bolus insulin delivery. Wizard is populated by the
// cross-linking step with a copy of the wizard that triggered the bolus; the
// copy's own Bolus field is nil to break the cycle.
type Bolus struct {
	Base
	Normal      float64 `json:"normal"`
	Prescriptor string  `json:"prescriptor,omitempty"`
	Wizard      *Wizard `json:"wizard"`
}

func NormalizeBolus(raw Raw, opts *config.Options) (*Bolus, error) {
	base, err := normalizeBase(raw, opts)
	if err != nil {
		return nil, err
	}
	if !bolusSubTypes.Contains(string(base.SubType)) {
		return nil, errors.Detailed(errors.MalformedRecord, "invalid bolus subType %q", base.SubType)
	}

	var fields struct {
		Normal      float64 `json:"normal"`
		Prescriptor string  `json:"prescriptor"`
	}
	if err := decode(raw, &fields); err != nil {
		return nil, err
	}

	base.Type = TypeBolus
	return &Bolus{
		Base:        base,
		Normal:      fields.Normal,
		Prescriptor: fields.Prescriptor,
	}, nil
}

// DeduplicateBoluses resolves duplicate submissions of the same delivery:
// boluses sharing the exact same normalTime collapse to the one with the
// largest delivered amount. Order is stable on first occurrence.
func DeduplicateBoluses(data []*Bolus, _ *config.Options) []*Bolus {
	best := make(map[string]*Bolus, len(data))
	order := make([]string, 0, len(data))
	for _, bolus := range data {
		current, seen := best[bolus.NormalTime]
		if !seen {
			best[bolus.NormalTime] = bolus
			order = append(order, bolus.NormalTime)
			continue
		}
		if bolus.Normal > current.Normal {
			best[bolus.NormalTime] = bolus
		}
	}
	out := make([]*Bolus, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	return out
}
