package timeutils_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tidepool-org/medical-data/timeutils"
)

var _ = Describe("Timeutils", func() {
	// 2023-04-12T10:30:00Z; Paris is UTC+2 at this date.
	at := time.Date(2023, time.April, 12, 10, 30, 0, 0, time.UTC).UnixMilli()

	Describe("IsValidZoneName", func() {
		It("accepts concrete IANA zones", func() {
			Expect(timeutils.IsValidZoneName("Europe/Paris")).To(BeTrue())
			Expect(timeutils.IsValidZoneName("America/New_York")).To(BeTrue())
		})

		It("rejects placeholder and ambiguous zones", func() {
			for _, name := range []string{"", "UTC", "GMT", "Etc/GMT", "Etc/UTC", "Zulu", "Universal", "CET"} {
				Expect(timeutils.IsValidZoneName(name)).To(BeFalse(), name)
			}
		})

		It("rejects unknown zone names", func() {
			Expect(timeutils.IsValidZoneName("Europe/Atlantis")).To(BeFalse())
		})
	})

	Describe("ToISOString", func() {
		It("renders the instant in the record's zone with milliseconds", func() {
			Expect(timeutils.ToISOString(at, "Europe/Paris")).To(Equal("2023-04-12T12:30:00.000+02:00"))
			Expect(timeutils.ToISOString(at, "UTC")).To(Equal("2023-04-12T10:30:00.000Z"))
		})

		It("falls back to UTC for unknown zones", func() {
			Expect(timeutils.ToISOString(at, "nowhere")).To(Equal("2023-04-12T10:30:00.000Z"))
		})
	})

	Describe("offsets", func() {
		It("returns the offset in minutes, DST aware", func() {
			Expect(timeutils.OffsetAt(at, "Europe/Paris")).To(Equal(120))
			january := time.Date(2023, time.January, 12, 10, 0, 0, 0, time.UTC).UnixMilli()
			Expect(timeutils.OffsetAt(january, "Europe/Paris")).To(Equal(60))
		})

		It("flips the sign for display", func() {
			Expect(timeutils.DisplayOffsetAt(at, "Europe/Paris")).To(Equal(-120))
			Expect(timeutils.DisplayOffsetAt(at, "America/New_York")).To(Equal(240))
		})
	})

	Describe("day boundaries", func() {
		It("returns local midnight and the next local midnight", func() {
			start := timeutils.StartOfDay(at, "Europe/Paris")
			end := timeutils.EndOfDay(at, "Europe/Paris")
			Expect(timeutils.ToISOString(start, "Europe/Paris")).To(Equal("2023-04-12T00:00:00.000+02:00"))
			Expect(timeutils.ToISOString(end, "Europe/Paris")).To(Equal("2023-04-13T00:00:00.000+02:00"))
			Expect(end - start).To(Equal(timeutils.MillisecondsPerDay))
		})

		It("produces a 23-hour day across the spring DST boundary", func() {
			// Paris lost an hour on 2023-03-26.
			inside := time.Date(2023, time.March, 26, 12, 0, 0, 0, time.UTC).UnixMilli()
			start := timeutils.StartOfDay(inside, "Europe/Paris")
			end := timeutils.EndOfDay(inside, "Europe/Paris")
			Expect(end - start).To(Equal(23 * timeutils.MillisecondsPerHour))
		})
	})

	Describe("hour iteration", func() {
		It("aligns to the hour boundary at or before the instant", func() {
			aligned := timeutils.StartOfHour(at, "Europe/Paris")
			Expect(timeutils.ToISOString(aligned, "Europe/Paris")).To(Equal("2023-04-12T12:00:00.000+02:00"))
			Expect(timeutils.StartOfHour(aligned, "Europe/Paris")).To(Equal(aligned))
		})

		It("steps to the next boundary, skipping the missing DST hour", func() {
			// Local 01:00 on the spring-forward night; 02:00 does not exist.
			before := time.Date(2023, time.March, 26, 0, 0, 0, 0, time.UTC).UnixMilli()
			next := timeutils.NextHour(before, "Europe/Paris")
			Expect(timeutils.ToISOString(next, "Europe/Paris")).To(Equal("2023-03-26T03:00:00.000+02:00"))
		})
	})

	Describe("local calendar fields", func() {
		It("derives date, weekday and time-of-day in the record's zone", func() {
			Expect(timeutils.LocalDate(at, "Europe/Paris")).To(Equal("2023-04-12"))
			Expect(timeutils.ISOWeekday(at, "Europe/Paris")).To(Equal("wednesday"))
			Expect(timeutils.HourOf(at, "Europe/Paris")).To(Equal(12))
			Expect(timeutils.MsSinceMidnight(at, "Europe/Paris")).To(Equal(int64((12*60 + 30) * 60 * 1000)))
		})

		It("can land on a different local date than UTC", func() {
			lateUTC := time.Date(2023, time.April, 12, 23, 30, 0, 0, time.UTC).UnixMilli()
			Expect(timeutils.LocalDate(lateUTC, "Europe/Paris")).To(Equal("2023-04-13"))
			Expect(timeutils.LocalDate(lateUTC, "UTC")).To(Equal("2023-04-12"))
		})
	})

	Describe("FindOffsetTransition", func() {
		It("locates the exact DST instant by bisection", func() {
			from := time.Date(2023, time.March, 25, 12, 0, 0, 0, time.UTC).UnixMilli()
			to := time.Date(2023, time.March, 26, 12, 0, 0, 0, time.UTC).UnixMilli()
			transition := timeutils.FindOffsetTransition(from, to, "Europe/Paris")
			Expect(transition).To(Equal(time.Date(2023, time.March, 26, 1, 0, 0, 0, time.UTC).UnixMilli()))
			Expect(timeutils.OffsetAt(transition-1, "Europe/Paris")).To(Equal(60))
			Expect(timeutils.OffsetAt(transition, "Europe/Paris")).To(Equal(120))
		})
	})
})
