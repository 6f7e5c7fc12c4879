package datum

import (
	"github.com/tidepool-org/medical-data/timeutils"
)

// Fill is a synthetic background segment for charting, one per qualifying
// hour boundary of the visible range. EpochEnd is back-filled once the next
// fill (or the range end) is known, so fills tile the range with no gaps.
type Fill struct {
	Base
	EpochEnd  int64  `json:"epochEnd"`
	NormalEnd string `json:"normalEnd"`
	FillClass string `json:"fillColor"`
}

func (f *Fill) EndEpoch() int64 { return f.EpochEnd }

func NewFill(epoch int64, timezone, class string) *Fill {
	return &Fill{
		Base: Base{
			ID:            NewID(),
			Type:          TypeFill,
			Timezone:      timezone,
			NormalTime:    timeutils.ToISOString(epoch, timezone),
			Epoch:         epoch,
			DisplayOffset: timeutils.DisplayOffsetAt(epoch, timezone),
		},
		FillClass: class,
	}
}

// Close sets the exclusive end of the fill segment.
func (f *Fill) Close(epochEnd int64) {
	f.EpochEnd = epochEnd
	f.NormalEnd = timeutils.ToISOString(epochEnd, f.Timezone)
}
