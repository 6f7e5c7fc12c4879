package datum

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/mohae/deepcopy"
	"github.com/tidepool-org/medical-data/config"
	"github.com/tidepool-org/medical-data/timeutils"
)

// deviceParameterGroupGap is the maximum gap between consecutive parameter
// changes merged into one group.
const deviceParameterGroupGap = 30 * timeutils.MillisecondsPerMinute

// Parameter is a single therapy parameter observation.
type Parameter struct {
	ID             string `json:"id"`
	Epoch          int64  `json:"epoch"`
	Timezone       string `json:"timezone"`
	Name           string `json:"name"`
	Level          string `json:"level"`
	Unit           string `json:"unit"`
	Value          string `json:"value"`
	PreviousValue  string `json:"previousValue"`
	LastUpdateDate string `json:"lastUpdateDate"`
}

// DeviceParameterChange wraps one or more parameter observations. Normalized
// records carry exactly one; GroupData merges close-together changes.
type DeviceParameterChange struct {
	Base
	Params []Parameter `json:"params"`
}

func NormalizeDeviceParameterChange(raw Raw, opts *config.Options) (*DeviceParameterChange, error) {
	base, err := normalizeBase(raw, opts)
	if err != nil {
		return nil, err
	}

	var fields struct {
		Name           string `json:"name"`
		Level          string `json:"level"`
		Units          string `json:"units"`
		Value          string `json:"value"`
		PreviousValue  string `json:"previousValue"`
		LastUpdateDate string `json:"lastUpdateDate"`
	}
	if err := decode(raw, &fields); err != nil {
		return nil, err
	}

	base.Type = TypeDeviceEvent
	base.SubType = SubTypeDeviceParameter
	if fields.LastUpdateDate == "" {
		fields.LastUpdateDate = base.NormalTime
	}
	return &DeviceParameterChange{
		Base: base,
		Params: []Parameter{{
			ID:             base.ID,
			Epoch:          base.Epoch,
			Timezone:       base.Timezone,
			Name:           fields.Name,
			Level:          fields.Level,
			Unit:           fields.Units,
			Value:          fields.Value,
			PreviousValue:  fields.PreviousValue,
			LastUpdateDate: fields.LastUpdateDate,
		}},
	}, nil
}

// GroupDeviceParameterChanges sorts parameter changes by epoch and merges
// consecutive changes less than thirty minutes apart into a single group,
// unioning their params by inner id. The input records are not mutated; the
// presentation layer calls this on demand.
func GroupDeviceParameterChanges(data []*DeviceParameterChange) []*DeviceParameterChange {
	if len(data) == 0 {
		return nil
	}

	sorted := make([]*DeviceParameterChange, len(data))
	copy(sorted, data)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Epoch < sorted[j].Epoch
	})

	var groups []*DeviceParameterChange
	var current *DeviceParameterChange
	lastEpoch := int64(0)
	seen := mapset.NewThreadUnsafeSet[string]()
	for _, change := range sorted {
		if current == nil || change.Epoch-lastEpoch >= deviceParameterGroupGap {
			current = deepcopy.Copy(change).(*DeviceParameterChange)
			groups = append(groups, current)
			seen.Clear()
			for _, param := range current.Params {
				seen.Add(param.ID)
			}
			lastEpoch = change.Epoch
			continue
		}
		for _, param := range change.Params {
			if seen.Add(param.ID) {
				current.Params = append(current.Params, param)
			}
		}
		lastEpoch = change.Epoch
	}
	return groups
}
