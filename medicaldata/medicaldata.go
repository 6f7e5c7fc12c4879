// Package medicaldata owns the in-memory aggregate of one patient-record
// viewing session and the pipeline that keeps it consistent across
// incremental ingestion batches.
package medicaldata

import (
	"sort"

	"github.com/tidepool-org/medical-data/config"
	"github.com/tidepool-org/medical-data/datum"
)

// MedicalData maps each category to its ordered-by-insertion records.
// Categories are independent arrays; cross-references (wizard to bolus) are
// resolved by id, not structural nesting.
type MedicalData struct {
	Basal                   []*datum.Basal                 `json:"basal"`
	Bolus                   []*datum.Bolus                 `json:"bolus"`
	CBG                     []*datum.Glucose               `json:"cbg"`
	SMBG                    []*datum.Glucose               `json:"smbg"`
	ConfidentialModes       []*datum.ConfidentialMode      `json:"confidentialModes"`
	DeviceParametersChanges []*datum.DeviceParameterChange `json:"deviceParametersChanges"`
	Meals                   []*datum.Meal                  `json:"meals"`
	Messages                []*datum.Message               `json:"messages"`
	PhysicalActivities      []*datum.PhysicalActivity      `json:"physicalActivities"`
	PumpSettings            []*datum.PumpSettings          `json:"pumpSettings"`
	ReservoirChanges        []*datum.ReservoirChange       `json:"reservoirChanges"`
	TimezoneChanges         []*datum.TimeZoneChange        `json:"timezoneChanges"`
	Uploads                 []*datum.Upload                `json:"uploads"`
	WarmUps                 []*datum.WarmUp                `json:"warmUps"`
	Wizards                 []*datum.Wizard                `json:"wizards"`
	ZenModes                []*datum.ZenMode               `json:"zenModes"`
}

func NewMedicalData() *MedicalData {
	return &MedicalData{
		Basal:                   []*datum.Basal{},
		Bolus:                   []*datum.Bolus{},
		CBG:                     []*datum.Glucose{},
		SMBG:                    []*datum.Glucose{},
		ConfidentialModes:       []*datum.ConfidentialMode{},
		DeviceParametersChanges: []*datum.DeviceParameterChange{},
		Meals:                   []*datum.Meal{},
		Messages:                []*datum.Message{},
		PhysicalActivities:      []*datum.PhysicalActivity{},
		PumpSettings:            []*datum.PumpSettings{},
		ReservoirChanges:        []*datum.ReservoirChange{},
		TimezoneChanges:         []*datum.TimeZoneChange{},
		Uploads:                 []*datum.Upload{},
		WarmUps:                 []*datum.WarmUp{},
		Wizards:                 []*datum.Wizard{},
		ZenModes:                []*datum.ZenMode{},
	}
}

func appendAll[T datum.Datum](out []datum.Datum, data []T) []datum.Datum {
	for _, d := range data {
		out = append(out, d)
	}
	return out
}

// flatten returns every record across categories. Timezone changes are
// synthetic and excluded unless requested.
func (m *MedicalData) flatten(includeTimezoneChanges bool) []datum.Datum {
	var out []datum.Datum
	out = appendAll(out, m.Basal)
	out = appendAll(out, m.Bolus)
	out = appendAll(out, m.CBG)
	out = appendAll(out, m.SMBG)
	out = appendAll(out, m.ConfidentialModes)
	out = appendAll(out, m.DeviceParametersChanges)
	out = appendAll(out, m.Meals)
	out = appendAll(out, m.Messages)
	out = appendAll(out, m.PhysicalActivities)
	out = appendAll(out, m.PumpSettings)
	out = appendAll(out, m.ReservoirChanges)
	if includeTimezoneChanges {
		out = appendAll(out, m.TimezoneChanges)
	}
	out = appendAll(out, m.Uploads)
	out = appendAll(out, m.WarmUps)
	out = appendAll(out, m.Wizards)
	out = appendAll(out, m.ZenModes)
	return out
}

// rangeRelevant returns the records that define the visible date range.
// Uploads and pump settings carry upload-session timestamps unrelated to the
// therapy timeline and are excluded; so are the synthetic categories.
func (m *MedicalData) rangeRelevant() []datum.Datum {
	var out []datum.Datum
	out = appendAll(out, m.Basal)
	out = appendAll(out, m.Bolus)
	out = appendAll(out, m.CBG)
	out = appendAll(out, m.SMBG)
	out = appendAll(out, m.ConfidentialModes)
	out = appendAll(out, m.DeviceParametersChanges)
	out = appendAll(out, m.Meals)
	out = appendAll(out, m.Messages)
	out = appendAll(out, m.PhysicalActivities)
	out = appendAll(out, m.ReservoirChanges)
	out = appendAll(out, m.WarmUps)
	out = appendAll(out, m.Wizards)
	out = appendAll(out, m.ZenModes)
	return out
}

func sortByEpoch(data []datum.Datum) {
	sort.SliceStable(data, func(i, j int) bool {
		return data[i].Meta().Epoch < data[j].Meta().Epoch
	})
}

// deduplicate runs the generic by-id pass over every category, then the
// type-specific passes over the whole accumulated arrays. Records from
// earlier batches may newly qualify for merge relationships with records
// from the current one, so the specialized passes always rescan everything.
func (m *MedicalData) deduplicate(opts *config.Options) {
	m.Basal = datum.DeduplicateByID(m.Basal)
	m.Bolus = datum.DeduplicateByID(m.Bolus)
	m.CBG = datum.DeduplicateByID(m.CBG)
	m.SMBG = datum.DeduplicateByID(m.SMBG)
	m.ConfidentialModes = datum.DeduplicateByID(m.ConfidentialModes)
	m.DeviceParametersChanges = datum.DeduplicateByID(m.DeviceParametersChanges)
	m.Meals = datum.DeduplicateByID(m.Meals)
	m.Messages = datum.DeduplicateByID(m.Messages)
	m.PhysicalActivities = datum.DeduplicateByID(m.PhysicalActivities)
	m.PumpSettings = datum.DeduplicateByID(m.PumpSettings)
	m.ReservoirChanges = datum.DeduplicateByID(m.ReservoirChanges)
	m.Uploads = datum.DeduplicateByID(m.Uploads)
	m.WarmUps = datum.DeduplicateByID(m.WarmUps)
	m.Wizards = datum.DeduplicateByID(m.Wizards)
	m.ZenModes = datum.DeduplicateByID(m.ZenModes)

	m.Basal = datum.DeduplicateBasals(m.Basal, opts)
	m.Bolus = datum.DeduplicateBoluses(m.Bolus, opts)
	m.PhysicalActivities = datum.DeduplicatePhysicalActivities(m.PhysicalActivities, opts)
}
