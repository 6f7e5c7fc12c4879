package medicaldata

import (
	"github.com/tidepool-org/medical-data/datum"
	"github.com/tidepool-org/medical-data/errors"
	"github.com/tidepool-org/medical-data/timeutils"
)

// basicsDefaultDays is the window basics cover when the session supplies no
// explicit date range: two weeks ending at the visible range end.
const basicsDefaultDays = 14

// BasicsDay is one cell of the basics calendar skeleton.
type BasicsDay struct {
	Date string `json:"date"`
	Type string `json:"type"`
}

// BasicsData is the date-bounded snapshot of the aggregate backing the
// dashboard and print summaries. Uploads are kept unfiltered for print
// attribution regardless of the range.
type BasicsData struct {
	DateRange               [2]string                      `json:"dateRange"`
	Days                    []BasicsDay                    `json:"days"`
	NData                   int                            `json:"nData"`
	Basal                   []*datum.Basal                 `json:"basal"`
	Bolus                   []*datum.Bolus                 `json:"bolus"`
	CBG                     []*datum.Glucose               `json:"cbg"`
	SMBG                    []*datum.Glucose               `json:"smbg"`
	DeviceParametersChanges []*datum.DeviceParameterChange `json:"deviceParametersChanges"`
	ReservoirChanges        []*datum.ReservoirChange       `json:"reservoirChanges"`
	Wizards                 []*datum.Wizard                `json:"wizards"`
	Uploads                 []*datum.Upload                `json:"uploads"`
}

func filterRange[T datum.Datum](data []T, startEpoch, endEpoch int64) []T {
	out := make([]T, 0, len(data))
	for _, d := range data {
		if epoch := d.Meta().Epoch; epoch > startEpoch && epoch < endEpoch {
			out = append(out, d)
		}
	}
	return out
}

// GenerateBasicsData builds the bounded snapshot: records strictly within
// (startEpoch, endEpoch), the full uploads list, a day-by-day calendar for
// the range and the running record count.
func GenerateBasicsData(data *MedicalData, startEpoch int64, startTimezone string, endEpoch int64, endTimezone string) (*BasicsData, error) {
	if startEpoch > endEpoch {
		return nil, errors.Detailed(errors.InvalidDateRange, "basics start %d after end %d", startEpoch, endEpoch)
	}

	basics := &BasicsData{
		DateRange: [2]string{
			timeutils.ToISOString(startEpoch, startTimezone),
			timeutils.ToISOString(endEpoch, endTimezone),
		},
		Basal:                   filterRange(data.Basal, startEpoch, endEpoch),
		Bolus:                   filterRange(data.Bolus, startEpoch, endEpoch),
		CBG:                     filterRange(data.CBG, startEpoch, endEpoch),
		SMBG:                    filterRange(data.SMBG, startEpoch, endEpoch),
		DeviceParametersChanges: filterRange(data.DeviceParametersChanges, startEpoch, endEpoch),
		ReservoirChanges:        filterRange(data.ReservoirChanges, startEpoch, endEpoch),
		Wizards:                 filterRange(data.Wizards, startEpoch, endEpoch),
		Uploads:                 data.Uploads,
	}
	basics.NData = len(basics.Basal) + len(basics.Bolus) + len(basics.CBG) +
		len(basics.SMBG) + len(basics.DeviceParametersChanges) +
		len(basics.ReservoirChanges) + len(basics.Wizards)

	for epoch := timeutils.StartOfDay(startEpoch, startTimezone); epoch < endEpoch; epoch = timeutils.EndOfDay(epoch, endTimezone) {
		basics.Days = append(basics.Days, BasicsDay{
			Date: timeutils.LocalDate(epoch, endTimezone),
			Type: "past",
		})
	}
	if n := len(basics.Days); n > 0 {
		basics.Days[n-1].Type = "mostRecent"
	}

	return basics, nil
}

// refreshBasics recomputes the cached basics view after an ingestion batch.
// An invalid range logs a warning and clears the cache instead of failing:
// basics are an auxiliary view and never break the pipeline.
func (s *Service) refreshBasics() {
	endEpoch := s.epochRange[1]
	endZone := s.GetTimezoneAt(endEpoch)
	startEpoch := endEpoch - basicsDefaultDays*timeutils.MillisecondsPerDay
	if s.opts.DateRange.Start != 0 && s.opts.DateRange.End != 0 {
		startEpoch, endEpoch = s.opts.DateRange.Start, s.opts.DateRange.End
	}
	startZone := s.GetTimezoneAt(startEpoch)

	basics, err := GenerateBasicsData(s.data, startEpoch, startZone, endEpoch, endZone)
	if err != nil {
		s.log.Warnw("skipping basics generation", "error", err)
		s.basics = nil
		return
	}
	s.basics = basics
}
