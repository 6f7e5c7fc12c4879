package datum

import (
	"github.com/tidepool-org/medical-data/config"
)

type Recommended struct {
	Carb       float64 `json:"carb"`
	Correction float64 `json:"correction"`
	Net        float64 `json:"net"`
}

// Wizard is one bolus calculator run. BolusID references the bolus it
// produced; Bolus is populated by the cross-linking step with a copy whose
// own Wizard field is nil to break the cycle.
type Wizard struct {
	Base
	BolusID     string       `json:"bolusId"`
	Bolus       *Bolus       `json:"bolus"`
	CarbInput   float64      `json:"carbInput,omitempty"`
	Units       string       `json:"units,omitempty"`
	Recommended *Recommended `json:"recommended,omitempty"`
}

func NormalizeWizard(raw Raw, opts *config.Options) (*Wizard, error) {
	base, err := normalizeBase(raw, opts)
	if err != nil {
		return nil, err
	}

	var fields struct {
		Bolus       string       `json:"bolus"`
		CarbInput   float64      `json:"carbInput"`
		Units       string       `json:"units"`
		Recommended *Recommended `json:"recommended"`
	}
	if err := decode(raw, &fields); err != nil {
		return nil, err
	}

	base.Type = TypeWizard
	return &Wizard{
		Base:        base,
		BolusID:     fields.Bolus,
		CarbInput:   fields.CarbInput,
		Units:       fields.Units,
		Recommended: fields.Recommended,
	}, nil
}
