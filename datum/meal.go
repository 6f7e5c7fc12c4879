package datum

import (
	"github.com/tidepool-org/medical-data/config"
	"github.com/tidepool-org/medical-data/errors"
)

type Carbohydrate struct {
	Net   float64 `json:"net"`
	Units string  `json:"units"`
}

type Nutrition struct {
	Carbohydrate Carbohydrate `json:"carbohydrate"`
}

// Meal is one food record (type "food" on the wire).
type Meal struct {
	Base
	Nutrition           Nutrition  `json:"nutrition"`
	PrescribedNutrition *Nutrition `json:"prescribedNutrition,omitempty"`
	Prescriptor         string     `json:"prescriptor,omitempty"`
}

func hasCarbohydrateNet(raw Raw) bool {
	nutrition, ok := raw["nutrition"].(map[string]interface{})
	if !ok {
		return false
	}
	carbohydrate, ok := nutrition["carbohydrate"].(map[string]interface{})
	if !ok {
		return false
	}
	_, ok = carbohydrate["net"]
	return ok
}

func NormalizeMeal(raw Raw, opts *config.Options) (*Meal, error) {
	base, err := normalizeBase(raw, opts)
	if err != nil {
		return nil, err
	}

	var fields struct {
		Nutrition           *Nutrition `json:"nutrition"`
		PrescribedNutrition *Nutrition `json:"prescribedNutrition"`
		Prescriptor         string     `json:"prescriptor"`
	}
	if err := decode(raw, &fields); err != nil {
		return nil, err
	}
	if fields.Nutrition == nil || fields.Nutrition.Carbohydrate.Units == "" || !hasCarbohydrateNet(raw) {
		return nil, errors.Detailed(errors.MalformedRecord, "missing nutrition data")
	}

	base.Type = TypeFood
	return &Meal{
		Base:                base,
		Nutrition:           *fields.Nutrition,
		PrescribedNutrition: fields.PrescribedNutrition,
		Prescriptor:         fields.Prescriptor,
	}, nil
}
