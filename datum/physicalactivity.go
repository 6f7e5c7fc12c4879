package datum

import (
	"github.com/tidepool-org/medical-data/config"
)

// PhysicalActivity is one exercise session. EventID groups successive edits
// of the same session; InputTime orders them.
type PhysicalActivity struct {
	Base
	Interval
	EventID           string `json:"eventId"`
	InputTime         string `json:"inputTime"`
	ReportedIntensity string `json:"reportedIntensity,omitempty"`
}

func (p *PhysicalActivity) EndEpoch() int64 { return p.EpochEnd }

func NormalizePhysicalActivity(raw Raw, opts *config.Options) (*PhysicalActivity, error) {
	base, err := normalizeBase(raw, opts)
	if err != nil {
		return nil, err
	}
	interval, err := normalizeInterval(raw, &base)
	if err != nil {
		return nil, err
	}

	var fields struct {
		EventID           string `json:"eventId"`
		InputTime         string `json:"inputTime"`
		ReportedIntensity string `json:"reportedIntensity"`
	}
	if err := decode(raw, &fields); err != nil {
		return nil, err
	}
	if fields.InputTime == "" {
		fields.InputTime = base.NormalTime
	}

	base.Type = TypePhysicalActivity
	return &PhysicalActivity{
		Base:              base,
		Interval:          interval,
		EventID:           fields.EventID,
		InputTime:         fields.InputTime,
		ReportedIntensity: fields.ReportedIntensity,
	}, nil
}

// DeduplicatePhysicalActivities keeps, per eventId, only the most recently
// entered version of the session, then drops sessions that ended up with a
// non-positive duration (deleted on the handset).
func DeduplicatePhysicalActivities(data []*PhysicalActivity, _ *config.Options) []*PhysicalActivity {
	latest := make(map[string]*PhysicalActivity, len(data))
	order := make([]string, 0, len(data))
	for _, activity := range data {
		current, seen := latest[activity.EventID]
		if !seen {
			latest[activity.EventID] = activity
			order = append(order, activity.EventID)
			continue
		}
		if activity.InputTime > current.InputTime {
			latest[activity.EventID] = activity
		}
	}

	out := make([]*PhysicalActivity, 0, len(order))
	for _, key := range order {
		if survivor := latest[key]; survivor.Duration.Value > 0 {
			out = append(out, survivor)
		}
	}
	return out
}
