package timeutils

import (
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// ISOFormat is the layout used for every user-facing timestamp. Times are
// rendered in the record's own timezone, milliseconds always present.
const ISOFormat = "2006-01-02T15:04:05.000Z07:00"

const (
	MillisecondsPerMinute = int64(60 * 1000)
	MillisecondsPerHour   = int64(60 * 60 * 1000)
	MillisecondsPerDay    = int64(24 * 60 * 60 * 1000)
)

var locations, _ = lru.New(128)

// genericZoneNames are reported by some devices in place of the real zone of
// the patient. They load fine from the tz database but carry no location
// information, so the reconciliation pass treats them as unknown.
var genericZoneNames = map[string]struct{}{
	"UTC":       {},
	"GMT":       {},
	"Etc/GMT":   {},
	"Etc/UTC":   {},
	"Zulu":      {},
	"Universal": {},
}

// LoadLocation resolves an IANA zone name, caching loaded locations.
func LoadLocation(name string) (*time.Location, error) {
	if cached, ok := locations.Get(name); ok {
		return cached.(*time.Location), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	locations.Add(name, loc)
	return loc, nil
}

// IsValidZoneName reports whether name identifies a concrete IANA timezone.
// Generic placeholder zones devices fall back to are rejected.
func IsValidZoneName(name string) bool {
	if name == "" {
		return false
	}
	if _, generic := genericZoneNames[name]; generic {
		return false
	}
	if !strings.Contains(name, "/") && name != "Local" {
		// Abbreviations such as "CET" resolve but are ambiguous.
		return false
	}
	_, err := LoadLocation(name)
	return err == nil
}

// locationOrUTC never fails, falling back to UTC for unknown names.
func locationOrUTC(name string) *time.Location {
	loc, err := LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ToISOString renders an epoch (milliseconds) in the given timezone.
func ToISOString(epoch int64, timezone string) string {
	return time.UnixMilli(epoch).In(locationOrUTC(timezone)).Format(ISOFormat)
}

// OffsetAt returns the UTC offset in minutes of the timezone at the instant.
func OffsetAt(epoch int64, timezone string) int {
	_, seconds := time.UnixMilli(epoch).In(locationOrUTC(timezone)).Zone()
	return seconds / 60
}

// DisplayOffsetAt returns the sign-flipped UTC offset in minutes, the
// convention display code expects.
func DisplayOffsetAt(epoch int64, timezone string) int {
	return -OffsetAt(epoch, timezone)
}

// StartOfDay returns the epoch of local midnight of the day containing epoch.
func StartOfDay(epoch int64, timezone string) int64 {
	loc := locationOrUTC(timezone)
	t := time.UnixMilli(epoch).In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc).UnixMilli()
}

// EndOfDay returns the epoch of the next local midnight, i.e. the exclusive
// upper bound of the day containing epoch.
func EndOfDay(epoch int64, timezone string) int64 {
	loc := locationOrUTC(timezone)
	t := time.UnixMilli(epoch).In(loc)
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, loc).UnixMilli()
}

// StartOfHour returns the epoch of the local hour boundary at or before
// epoch in the given timezone.
func StartOfHour(epoch int64, timezone string) int64 {
	loc := locationOrUTC(timezone)
	t := time.UnixMilli(epoch).In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, loc).UnixMilli()
}

// NextHour returns the epoch of the next local hour boundary strictly after
// epoch in the given timezone. DST gaps and overlaps follow the zone rules.
func NextHour(epoch int64, timezone string) int64 {
	loc := locationOrUTC(timezone)
	t := time.UnixMilli(epoch).In(loc)
	next := time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, loc).UnixMilli()
	if next <= epoch {
		// A repeated wall-clock hour can map before the input instant.
		next = epoch + MillisecondsPerHour
	}
	return next
}

// HourOf returns the local hour (0-23) at the instant in the given timezone.
func HourOf(epoch int64, timezone string) int {
	return time.UnixMilli(epoch).In(locationOrUTC(timezone)).Hour()
}

// LocalDate renders the local calendar date (YYYY-MM-DD) at the instant.
func LocalDate(epoch int64, timezone string) string {
	return time.UnixMilli(epoch).In(locationOrUTC(timezone)).Format("2006-01-02")
}

// ISOWeekday returns the lowercase english weekday name at the instant.
func ISOWeekday(epoch int64, timezone string) string {
	return strings.ToLower(time.UnixMilli(epoch).In(locationOrUTC(timezone)).Weekday().String())
}

// MsSinceMidnight returns the milliseconds elapsed since local midnight.
func MsSinceMidnight(epoch int64, timezone string) int64 {
	return epoch - StartOfDay(epoch, timezone)
}

// FindOffsetTransition locates the exact instant within (from, to] at which
// the UTC offset of the timezone changes, using bisection over the zone
// database. The two bounds must have different offsets; the returned epoch is
// the first instant carrying the new offset.
func FindOffsetTransition(from, to int64, timezone string) int64 {
	loc := locationOrUTC(timezone)
	offsetAt := func(epoch int64) int {
		_, seconds := time.UnixMilli(epoch).In(loc).Zone()
		return seconds
	}
	lo, hi := from, to
	startOffset := offsetAt(lo)
	for lo+1 < hi {
		mid := lo + (hi-lo)/2
		if offsetAt(mid) == startOffset {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi
}
