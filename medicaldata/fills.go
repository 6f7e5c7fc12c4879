package medicaldata

import (
	"github.com/tidepool-org/medical-data/datum"
	"github.com/tidepool-org/medical-data/timeutils"
)

// generateFills rebuilds the synthetic background segments tiling the
// visible range: one fill per hour boundary whose local hour (in the
// timezone active at that instant) is a key of the configured classes.
// Each fill is closed at the next fill's start, the last at the range end.
// Crossing a timezone breakpoint re-anchors hour iteration to the new zone.
func (s *Service) generateFills() {
	classes := s.opts.Fill.Classes
	start := s.epochRange[0] - s.opts.Fill.Duration
	end := s.epochRange[1]

	var fills []*datum.Fill
	epoch := timeutils.StartOfHour(start, s.GetTimezoneAt(start))
	for epoch < end {
		zone := s.GetTimezoneAt(epoch)
		if class, ok := classes[timeutils.HourOf(epoch, zone)]; ok {
			if n := len(fills); n > 0 {
				fills[n-1].Close(epoch)
			}
			fills = append(fills, datum.NewFill(epoch, zone, class))
		}
		epoch = timeutils.NextHour(epoch, zone)
	}
	if n := len(fills); n > 0 {
		fills[n-1].Close(end)
	}
	s.fills = fills
}
