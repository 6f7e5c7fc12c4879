package medicaldata

import (
	"github.com/tidepool-org/medical-data/datum"
	"github.com/tidepool-org/medical-data/timeutils"
)

// TimezoneBreakpoint marks the start of a timezone's applicability. The
// first breakpoint always has Time 0, meaning "from the beginning"; entries
// are strictly increasing in Time afterwards.
type TimezoneBreakpoint struct {
	Time     int64  `json:"time"`
	Timezone string `json:"timezone"`
}

// reconcileTimezones repairs per-record timezone metadata across the whole
// dataset and derives the timezone breakpoints and synthetic change events.
//
// Devices routinely report placeholder zones ("UTC", "GMT") for some records.
// The pass walks every record in epoch order carrying the last known-good
// zone forward: records with an unrecognized zone are moved into it and
// flagged as guessed. Offset transitions in the repaired sequence then become
// the session's timezone events.
func (s *Service) reconcileTimezones() {
	all := s.data.flatten(false)
	for _, fill := range s.fills {
		all = append(all, fill)
	}
	sortByEpoch(all)

	if len(all) == 0 {
		s.timezoneList = []TimezoneBreakpoint{}
		s.data.TimezoneChanges = []*datum.TimeZoneChange{}
		return
	}

	current := s.opts.Timezone
	for _, d := range all {
		if timeutils.IsValidZoneName(d.Meta().Timezone) {
			current = d.Meta().Timezone
			break
		}
	}
	for _, d := range all {
		meta := d.Meta()
		if timeutils.IsValidZoneName(meta.Timezone) {
			current = meta.Timezone
			continue
		}
		meta.Rezone(current, true)
	}

	type event struct {
		epoch    int64
		timezone string
		offset   int
	}
	var events []event
	for _, d := range all {
		meta := d.Meta()
		if len(events) == 0 || meta.DisplayOffset != events[len(events)-1].offset {
			events = append(events, event{meta.Epoch, meta.Timezone, meta.DisplayOffset})
		}
	}

	breakpoints := []TimezoneBreakpoint{{Time: 0, Timezone: events[0].timezone}}
	changes := []*datum.TimeZoneChange{}
	for i := 1; i < len(events); i++ {
		previous, next := events[i-1], events[i]
		if next.timezone != previous.timezone {
			if next.epoch > breakpoints[len(breakpoints)-1].Time {
				breakpoints = append(breakpoints, TimezoneBreakpoint{
					Time:     next.epoch,
					Timezone: next.timezone,
				})
			}
			changes = append(changes,
				datum.NewTimeZoneChange(previous.epoch, previous.timezone, next.epoch, next.timezone))
			continue
		}
		// Same zone, different offset: a DST boundary. Locate the exact
		// transition instant and bracket it.
		transition := timeutils.FindOffsetTransition(previous.epoch, next.epoch, next.timezone)
		changes = append(changes,
			datum.NewTimeZoneChange(transition-1, previous.timezone, transition, next.timezone))
	}

	s.timezoneList = breakpoints
	s.data.TimezoneChanges = changes
}
