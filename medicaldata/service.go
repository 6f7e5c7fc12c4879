package medicaldata

import (
	"sort"
	"strings"
	"time"

	"github.com/mohae/deepcopy"
	"github.com/tidepool-org/medical-data/config"
	"github.com/tidepool-org/medical-data/datum"
	"github.com/tidepool-org/medical-data/timeutils"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Diagnostic describes one raw record that was skipped during ingestion.
// Ingestion never aborts on malformed records; the caller gets the list of
// skips alongside the (possibly smaller) aggregate.
type Diagnostic struct {
	Index   int    `json:"index"`
	Type    string `json:"type"`
	SubType string `json:"subType,omitempty"`
	Reason  string `json:"reason"`
	Err     error  `json:"-"`
}

// Service is the aggregation engine for one viewing session. It owns the
// canonical MedicalData aggregate and every derived artifact. Not safe for
// concurrent use: the caller runs Add sequentially on one logical thread.
type Service struct {
	log    *zap.SugaredLogger
	datums datum.Service
	opts   config.Options

	data         *MedicalData
	timezoneList []TimezoneBreakpoint
	endpoints    [2]string
	epochRange   [2]int64
	fills        []*datum.Fill
	basics       *BasicsData
}

func NewService(opts config.Options, log *zap.SugaredLogger) *Service {
	return &Service{
		log:  log,
		opts: opts.WithDerived(),
		data: NewMedicalData(),
	}
}

// Add ingests one batch of raw records through the full pipeline: normalize,
// deduplicate, cross-link, reconcile timezones, recompute endpoints,
// regenerate fills and basics. The aggregate accumulates across calls.
func (s *Service) Add(raws []datum.Raw) []Diagnostic {
	diagnostics := s.normalizeAll(raws)
	s.data.deduplicate(&s.opts)
	s.linkBolusWizards()
	s.reconcileTimezones()
	s.computeEndpoints()
	s.generateFills()
	s.refreshBasics()
	return diagnostics
}

func (s *Service) normalizeAll(raws []datum.Raw) []Diagnostic {
	var diagnostics []Diagnostic
	for i, raw := range raws {
		d, err := s.datums.Normalize(raw, &s.opts)
		if err != nil {
			rawType, _ := raw["type"].(string)
			rawSubType, _ := raw["subType"].(string)
			s.log.Warnw("skipping record",
				"index", i, "type", rawType, "subType", rawSubType, "error", err)
			diagnostics = append(diagnostics, Diagnostic{
				Index:   i,
				Type:    rawType,
				SubType: rawSubType,
				Reason:  err.Error(),
				Err:     err,
			})
			continue
		}
		s.append(d)
	}
	return diagnostics
}

// append routes a normalized record into its category array. The switch is
// exhaustive over the variant types; adding a variant without a case here is
// a compile-time error at the call sites constructing it.
func (s *Service) append(d datum.Datum) {
	switch d := d.(type) {
	case *datum.Basal:
		s.data.Basal = append(s.data.Basal, d)
	case *datum.Bolus:
		s.data.Bolus = append(s.data.Bolus, d)
	case *datum.Glucose:
		if d.Type == datum.TypeCBG {
			s.data.CBG = append(s.data.CBG, d)
		} else {
			s.data.SMBG = append(s.data.SMBG, d)
		}
	case *datum.ConfidentialMode:
		s.data.ConfidentialModes = append(s.data.ConfidentialModes, d)
	case *datum.DeviceParameterChange:
		s.data.DeviceParametersChanges = append(s.data.DeviceParametersChanges, d)
	case *datum.Meal:
		s.data.Meals = append(s.data.Meals, d)
	case *datum.Message:
		s.data.Messages = append(s.data.Messages, d)
	case *datum.PhysicalActivity:
		s.data.PhysicalActivities = append(s.data.PhysicalActivities, d)
	case *datum.PumpSettings:
		s.data.PumpSettings = append(s.data.PumpSettings, d)
	case *datum.ReservoirChange:
		s.data.ReservoirChanges = append(s.data.ReservoirChanges, d)
	case *datum.TimeZoneChange:
		// The timezoneChanges category is rebuilt from the data on every
		// reconciliation pass; device-reported time changes do not persist.
		s.log.Debugw("dropping device-reported time change", "id", d.ID)
	case *datum.Upload:
		s.data.Uploads = append(s.data.Uploads, d)
	case *datum.WarmUp:
		s.data.WarmUps = append(s.data.WarmUps, d)
	case *datum.Wizard:
		s.data.Wizards = append(s.data.Wizards, d)
	case *datum.ZenMode:
		s.data.ZenModes = append(s.data.ZenModes, d)
	case *datum.Fill:
		// Fills are generated, never ingested.
		s.log.Debugw("dropping ingested fill", "id", d.ID)
	}
}

// linkBolusWizards attaches each wizard to the bolus it produced and vice
// versa, using shallow copies with the back-reference nulled so neither side
// nests a cycle.
func (s *Service) linkBolusWizards() {
	byID := make(map[string]*datum.Bolus, len(s.data.Bolus))
	for _, bolus := range s.data.Bolus {
		byID[bolus.ID] = bolus
	}
	for _, wizard := range s.data.Wizards {
		if wizard.BolusID == "" {
			continue
		}
		bolus, ok := byID[wizard.BolusID]
		if !ok {
			continue
		}
		bolusCopy := deepcopy.Copy(bolus).(*datum.Bolus)
		bolusCopy.Wizard = nil
		wizardCopy := deepcopy.Copy(wizard).(*datum.Wizard)
		wizardCopy.Bolus = nil
		wizard.Bolus = bolusCopy
		bolus.Wizard = wizardCopy
	}
}

func (s *Service) computeEndpoints() {
	relevant := s.data.rangeRelevant()
	if len(relevant) == 0 {
		now := time.Now().UnixMilli()
		zone := s.opts.Timezone
		start := timeutils.StartOfDay(now-timeutils.MillisecondsPerDay, zone)
		end := timeutils.EndOfDay(now+timeutils.MillisecondsPerDay, zone)
		s.epochRange = [2]int64{start, end}
		s.endpoints = [2]string{
			timeutils.ToISOString(start, zone),
			timeutils.ToISOString(end, zone),
		}
		return
	}

	earliest, latest := relevant[0], relevant[0]
	for _, d := range relevant[1:] {
		if d.Meta().Epoch < earliest.Meta().Epoch {
			earliest = d
		}
		if d.EndEpoch() > latest.EndEpoch() {
			latest = d
		}
	}

	startZone := earliest.Meta().Timezone
	endZone := latest.Meta().Timezone
	start := timeutils.StartOfDay(earliest.Meta().Epoch, startZone)
	end := timeutils.EndOfDay(latest.EndEpoch(), endZone)
	if s.opts.DateRange.Start != 0 && s.opts.DateRange.Start < start {
		start = timeutils.StartOfDay(s.opts.DateRange.Start, startZone)
	}

	s.opts.TimePrefs.TimezoneName = endZone
	s.opts.TimePrefs.TimezoneOffset = timeutils.OffsetAt(latest.EndEpoch(), endZone)

	s.epochRange = [2]int64{start, end}
	s.endpoints = [2]string{
		timeutils.ToISOString(start, startZone),
		timeutils.ToISOString(end, endZone),
	}
}

// FilterByDate returns the records whose interval overlaps the open
// interval (start, end), fills included. Epoch milliseconds.
func (s *Service) FilterByDate(start, end int64) []datum.Datum {
	var out []datum.Datum
	for _, d := range s.Data() {
		if d.Meta().Epoch < end && d.EndEpoch() > start {
			out = append(out, d)
		}
	}
	return out
}

// EditMessage normalizes an edited message, re-derives its timezone from the
// session's timezone list and replaces the stored message with the same id.
// Returns nil when no such message exists.
func (s *Service) EditMessage(raw datum.Raw) (*datum.Message, error) {
	message, err := datum.NormalizeMessage(raw, &s.opts)
	if err != nil {
		return nil, err
	}
	if zone := s.GetTimezoneAt(message.Epoch); zone != message.Timezone {
		message.Rezone(zone, true)
	}

	for i, existing := range s.data.Messages {
		if existing.ID == message.ID {
			s.data.Messages[i] = message
			sort.SliceStable(s.data.Messages, func(a, b int) bool {
				return s.data.Messages[a].Epoch < s.data.Messages[b].Epoch
			})
			return message, nil
		}
	}
	return nil, nil
}

// GetTimezoneAt returns the timezone applicable at the given instant: the
// timezone of the last breakpoint at or before it, or the session default
// when no breakpoints exist.
func (s *Service) GetTimezoneAt(epoch int64) string {
	timezone := s.opts.Timezone
	for _, breakpoint := range s.timezoneList {
		if breakpoint.Time > epoch {
			break
		}
		timezone = breakpoint.Timezone
	}
	return timezone
}

// HasDiabetesData gates chart rendering: true iff any diabetes category has
// records.
func (s *Service) HasDiabetesData() bool {
	return len(s.data.Basal) > 0 || len(s.data.Bolus) > 0 ||
		len(s.data.CBG) > 0 || len(s.data.SMBG) > 0 || len(s.data.Wizards) > 0
}

// LatestPumpManufacturer returns the capitalized manufacturer of the most
// recent pump settings, or the configured default when none were uploaded.
func (s *Service) LatestPumpManufacturer() string {
	manufacturer := s.opts.DefaultPumpManufacturer
	var latest *datum.PumpSettings
	for _, settings := range s.data.PumpSettings {
		if latest == nil || settings.Epoch > latest.Epoch {
			latest = settings
		}
	}
	if latest != nil && latest.Payload.Pump.Manufacturer != "" {
		manufacturer = latest.Payload.Pump.Manufacturer
	}
	return cases.Title(language.English).String(strings.ToLower(manufacturer))
}

// Data returns the full flattened dataset, fills included, sorted by epoch.
func (s *Service) Data() []datum.Datum {
	all := s.data.flatten(true)
	for _, fill := range s.fills {
		all = append(all, fill)
	}
	sortByEpoch(all)
	return all
}

// Grouped buckets the full dataset by type discriminator.
func (s *Service) Grouped() map[datum.Type][]datum.Datum {
	grouped := make(map[datum.Type][]datum.Datum)
	for _, d := range s.Data() {
		grouped[d.Meta().Type] = append(grouped[d.Meta().Type], d)
	}
	return grouped
}

func (s *Service) MedicalData() *MedicalData          { return s.data }
func (s *Service) Endpoints() [2]string               { return s.endpoints }
func (s *Service) EpochEndpoints() [2]int64           { return s.epochRange }
func (s *Service) TimezoneList() []TimezoneBreakpoint { return s.timezoneList }
func (s *Service) Fills() []*datum.Fill               { return s.fills }
func (s *Service) Basics() *BasicsData                { return s.basics }
func (s *Service) Options() config.Options            { return s.opts }
