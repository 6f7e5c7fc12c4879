package medicaldata_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/tidepool-org/medical-data/config"
	"github.com/tidepool-org/medical-data/datum"
	datumTest "github.com/tidepool-org/medical-data/datum/test"
	"github.com/tidepool-org/medical-data/medicaldata"
	"github.com/tidepool-org/medical-data/timeutils"
)

var _ = Describe("Service", func() {
	var service *medicaldata.Service
	var opts config.Options

	at := time.Date(2023, time.April, 12, 10, 0, 0, 0, time.UTC)

	newService := func() *medicaldata.Service {
		return medicaldata.NewService(opts, zap.NewNop().Sugar())
	}

	BeforeEach(func() {
		opts = config.DefaultOptions()
		opts.Timezone = "Europe/Paris"
		opts = opts.WithDerived()
		service = newService()
	})

	Describe("Add with an empty batch", func() {
		It("leaves the aggregate empty with default endpoints", func() {
			diagnostics := service.Add(nil)
			Expect(diagnostics).To(BeEmpty())

			data := service.MedicalData()
			Expect(data.Basal).To(BeEmpty())
			Expect(data.CBG).To(BeEmpty())
			Expect(data.TimezoneChanges).To(BeEmpty())
			Expect(service.TimezoneList()).To(BeEmpty())
			Expect(service.HasDiabetesData()).To(BeFalse())

			now := time.Now().UnixMilli()
			epochs := service.EpochEndpoints()
			Expect(epochs[0]).To(Equal(timeutils.StartOfDay(now-timeutils.MillisecondsPerDay, "Europe/Paris")))
			Expect(epochs[1]).To(Equal(timeutils.EndOfDay(now+timeutils.MillisecondsPerDay, "Europe/Paris")))
		})
	})

	Describe("Add with malformed records", func() {
		It("skips the offending records and keeps the rest", func() {
			raws := []datum.Raw{
				datumTest.RandomGlucoseRaw("cbg", at, "Europe/Paris", 120, "mg/dL"),
				{"type": "unknown", "time": at.Format(time.RFC3339)},
				{"type": "bolus", "subType": "normal"},
				datumTest.RandomGlucoseRaw("cbg", at.Add(5*time.Minute), "Europe/Paris", 121, "mg/dL"),
			}

			diagnostics := service.Add(raws)
			Expect(diagnostics).To(HaveLen(2))
			Expect(diagnostics[0].Index).To(Equal(1))
			Expect(diagnostics[1].Index).To(Equal(2))
			Expect(service.MedicalData().CBG).To(HaveLen(2))
		})

		It("drops unrecognized device event subtypes without aborting", func() {
			raws := []datum.Raw{
				{"type": "deviceEvent", "subType": "mystery", "time": at.Format(time.RFC3339), "timezone": "Europe/Paris"},
				datumTest.RandomReservoirChangeRaw(at, "Europe/Paris"),
			}
			diagnostics := service.Add(raws)
			Expect(diagnostics).To(HaveLen(1))
			Expect(service.MedicalData().ReservoirChanges).To(HaveLen(1))
		})
	})

	Describe("duplicate reservoir changes", func() {
		It("keeps the first record per id", func() {
			first := datumTest.RandomReservoirChangeRaw(at, "Europe/Paris")
			first["id"] = "1"
			duplicate := datumTest.RandomReservoirChangeRaw(at.Add(time.Hour), "Europe/Paris")
			duplicate["id"] = "1"
			other := datumTest.RandomReservoirChangeRaw(at.Add(2*time.Hour), "Europe/Paris")
			other["id"] = "2"

			service.Add([]datum.Raw{first, duplicate, other})

			changes := service.MedicalData().ReservoirChanges
			Expect(changes).To(HaveLen(2))
			Expect(changes[0].ID).To(Equal("1"))
			Expect(changes[0].Epoch).To(Equal(at.UnixMilli()))
			Expect(changes[1].ID).To(Equal("2"))
		})
	})

	Describe("bolus and wizard cross-linking", func() {
		It("links both sides with the cycle broken at depth one", func() {
			bolusRaw := datumTest.RandomBolusRaw(at, "Europe/Paris", 2.5)
			bolusRaw["id"] = "bolus-1"
			wizardRaw := datumTest.RandomWizardRaw(at, "Europe/Paris", "bolus-1", 40)
			wizardRaw["id"] = "wizard-1"

			service.Add([]datum.Raw{bolusRaw, wizardRaw})

			data := service.MedicalData()
			Expect(data.Bolus).To(HaveLen(1))
			Expect(data.Wizards).To(HaveLen(1))

			wizard := data.Wizards[0]
			bolus := data.Bolus[0]
			Expect(wizard.Bolus).ToNot(BeNil())
			Expect(wizard.Bolus.ID).To(Equal(bolus.ID))
			Expect(wizard.Bolus.Wizard).To(BeNil())
			Expect(bolus.Wizard).ToNot(BeNil())
			Expect(bolus.Wizard.ID).To(Equal(wizard.ID))
			Expect(bolus.Wizard.Bolus).To(BeNil())
		})

		It("links wizards ingested in a later batch than their bolus", func() {
			bolusRaw := datumTest.RandomBolusRaw(at, "Europe/Paris", 2.5)
			bolusRaw["id"] = "bolus-1"
			service.Add([]datum.Raw{bolusRaw})

			wizardRaw := datumTest.RandomWizardRaw(at, "Europe/Paris", "bolus-1", 40)
			service.Add([]datum.Raw{wizardRaw})

			Expect(service.MedicalData().Wizards[0].Bolus).ToNot(BeNil())
			Expect(service.MedicalData().Bolus[0].Wizard).ToNot(BeNil())
		})
	})

	Describe("timezone reconciliation", func() {
		It("repairs placeholder zones with the last known-good one", func() {
			service.Add([]datum.Raw{
				datumTest.RandomGlucoseRaw("cbg", at, "Europe/Paris", 120, "mg/dL"),
				datumTest.RandomGlucoseRaw("cbg", at.Add(time.Hour), "UTC", 130, "mg/dL"),
			})

			cbg := service.MedicalData().CBG
			Expect(cbg[0].GuessedTimezone).To(BeFalse())
			Expect(cbg[1].Timezone).To(Equal("Europe/Paris"))
			Expect(cbg[1].GuessedTimezone).To(BeTrue())
			Expect(cbg[1].DisplayOffset).To(Equal(-120))
		})

		It("builds monotonic breakpoints anchored at time zero", func() {
			nyAt := at.Add(48 * time.Hour)
			service.Add([]datum.Raw{
				datumTest.RandomGlucoseRaw("cbg", at, "Europe/Paris", 120, "mg/dL"),
				datumTest.RandomGlucoseRaw("cbg", nyAt, "America/New_York", 130, "mg/dL"),
			})

			breakpoints := service.TimezoneList()
			Expect(breakpoints).To(HaveLen(2))
			Expect(breakpoints[0].Time).To(BeZero())
			Expect(breakpoints[0].Timezone).To(Equal("Europe/Paris"))
			Expect(breakpoints[1].Time).To(Equal(nyAt.UnixMilli()))
			Expect(breakpoints[1].Timezone).To(Equal("America/New_York"))

			changes := service.MedicalData().TimezoneChanges
			Expect(changes).To(HaveLen(1))
			Expect(changes[0].From.Timezone).To(Equal("Europe/Paris"))
			Expect(changes[0].To.Timezone).To(Equal("America/New_York"))
			Expect(changes[0].Method).To(Equal("guessed"))

			Expect(service.GetTimezoneAt(at.UnixMilli())).To(Equal("Europe/Paris"))
			Expect(service.GetTimezoneAt(nyAt.UnixMilli())).To(Equal("America/New_York"))
		})

		It("brackets DST boundaries at the exact transition instant", func() {
			// Paris switched to summer time on 2023-03-26 at 01:00 UTC.
			before := time.Date(2023, time.March, 25, 12, 0, 0, 0, time.UTC)
			after := time.Date(2023, time.March, 26, 12, 0, 0, 0, time.UTC)
			service.Add([]datum.Raw{
				datumTest.RandomGlucoseRaw("cbg", before, "Europe/Paris", 120, "mg/dL"),
				datumTest.RandomGlucoseRaw("cbg", after, "Europe/Paris", 130, "mg/dL"),
			})

			changes := service.MedicalData().TimezoneChanges
			Expect(changes).To(HaveLen(1))
			transition := time.Date(2023, time.March, 26, 1, 0, 0, 0, time.UTC).UnixMilli()
			Expect(changes[0].Epoch).To(Equal(transition))
			Expect(changes[0].From.Time).To(Equal(timeutils.ToISOString(transition-1, "Europe/Paris")))
			Expect(changes[0].To.Time).To(Equal(timeutils.ToISOString(transition, "Europe/Paris")))

			// Same zone on both sides: no extra breakpoint.
			Expect(service.TimezoneList()).To(HaveLen(1))
		})
	})

	Describe("endpoints", func() {
		It("spans start-of-earliest-day through end-of-latest-day, interval aware", func() {
			basalStart := time.Date(2023, time.April, 14, 23, 30, 0, 0, time.UTC)
			service.Add([]datum.Raw{
				datumTest.RandomGlucoseRaw("cbg", at, "Europe/Paris", 120, "mg/dL"),
				datumTest.RandomBasalRaw(basalStart, "Europe/Paris", "scheduled", 0.8, 2*60*60*1000),
			})

			epochs := service.EpochEndpoints()
			Expect(epochs[0]).To(Equal(timeutils.StartOfDay(at.UnixMilli(), "Europe/Paris")))
			basalEnd := basalStart.UnixMilli() + 2*60*60*1000
			Expect(epochs[1]).To(Equal(timeutils.EndOfDay(basalEnd, "Europe/Paris")))

			for _, d := range service.MedicalData().CBG {
				Expect(d.Epoch).To(BeNumerically(">=", epochs[0]))
				Expect(d.Epoch).To(BeNumerically("<", epochs[1]))
			}
			for _, d := range service.MedicalData().Basal {
				Expect(d.EndEpoch()).To(BeNumerically("<=", epochs[1]))
			}
		})
	})

	Describe("fills", func() {
		It("tiles the range with no gaps on qualifying hour boundaries", func() {
			service.Add([]datum.Raw{
				datumTest.RandomGlucoseRaw("cbg", at, "Europe/Paris", 120, "mg/dL"),
			})

			fills := service.Fills()
			Expect(fills).ToNot(BeEmpty())

			epochs := service.EpochEndpoints()
			Expect(fills[0].Epoch).To(Equal(epochs[0] - opts.Fill.Duration))
			for i := 0; i < len(fills)-1; i++ {
				Expect(fills[i].EpochEnd).To(Equal(fills[i+1].Epoch))
			}
			Expect(fills[len(fills)-1].EpochEnd).To(Equal(epochs[1]))

			for _, fill := range fills {
				hour := timeutils.HourOf(fill.Epoch, fill.Timezone)
				Expect(opts.Fill.Classes).To(HaveKey(hour))
				Expect(fill.FillClass).To(Equal(opts.Fill.Classes[hour]))
			}
		})
	})

	Describe("FilterByDate", func() {
		It("returns records overlapping the open interval", func() {
			service.Add([]datum.Raw{
				datumTest.RandomGlucoseRaw("cbg", at, "Europe/Paris", 120, "mg/dL"),
				datumTest.RandomGlucoseRaw("cbg", at.Add(2*time.Hour), "Europe/Paris", 130, "mg/dL"),
			})

			start := at.Add(-time.Minute).UnixMilli()
			end := at.Add(time.Minute).UnixMilli()
			filtered := service.FilterByDate(start, end)
			Expect(filtered).To(HaveLen(1))
			Expect(filtered[0].Meta().Epoch).To(Equal(at.UnixMilli()))
		})
	})

	Describe("EditMessage", func() {
		It("replaces the stored message and re-sorts by epoch", func() {
			raw := datumTest.RandomMessageRaw(at, "Europe/Paris", "before")
			raw["id"] = "message-1"
			service.Add([]datum.Raw{raw})

			edited := datumTest.RandomMessageRaw(at.Add(time.Hour), "Europe/Paris", "after")
			edited["id"] = "message-1"
			message, err := service.EditMessage(edited)
			Expect(err).ToNot(HaveOccurred())
			Expect(message).ToNot(BeNil())
			Expect(message.MessageText).To(Equal("after"))

			messages := service.MedicalData().Messages
			Expect(messages).To(HaveLen(1))
			Expect(messages[0].MessageText).To(Equal("after"))
		})

		It("returns nil for an unknown message id", func() {
			edited := datumTest.RandomMessageRaw(at, "Europe/Paris", "orphan")
			message, err := service.EditMessage(edited)
			Expect(err).ToNot(HaveOccurred())
			Expect(message).To(BeNil())
		})
	})

	Describe("HasDiabetesData", func() {
		It("turns true once any diabetes category has records", func() {
			Expect(service.HasDiabetesData()).To(BeFalse())
			service.Add([]datum.Raw{
				datumTest.RandomGlucoseRaw("cbg", at, "Europe/Paris", 120, "mg/dL"),
			})
			Expect(service.HasDiabetesData()).To(BeTrue())
		})
	})

	Describe("LatestPumpManufacturer", func() {
		It("returns the capitalized default without pump settings", func() {
			Expect(service.LatestPumpManufacturer()).To(Equal("Diabeloop"))
		})

		It("returns the manufacturer of the latest pump settings", func() {
			older := datumTest.RawRecord("pumpSettings", at, "Europe/Paris")
			older["payload"] = map[string]interface{}{
				"pump": map[string]interface{}{"manufacturer": "ROCHE"},
			}
			newer := datumTest.RawRecord("pumpSettings", at.Add(time.Hour), "Europe/Paris")
			newer["payload"] = map[string]interface{}{
				"pump": map[string]interface{}{"manufacturer": "VICENTRA"},
			}
			service.Add([]datum.Raw{older, newer})
			Expect(service.LatestPumpManufacturer()).To(Equal("Vicentra"))
		})
	})

	Describe("Data and Grouped", func() {
		It("returns the flattened epoch-sorted dataset including fills", func() {
			service.Add([]datum.Raw{
				datumTest.RandomGlucoseRaw("cbg", at, "Europe/Paris", 120, "mg/dL"),
				datumTest.RandomBolusRaw(at.Add(-time.Hour), "Europe/Paris", 1.0),
			})

			data := service.Data()
			Expect(len(data)).To(BeNumerically(">", 2))
			for i := 1; i < len(data); i++ {
				Expect(data[i].Meta().Epoch).To(BeNumerically(">=", data[i-1].Meta().Epoch))
			}

			grouped := service.Grouped()
			Expect(grouped[datum.TypeCBG]).To(HaveLen(1))
			Expect(grouped[datum.TypeBolus]).To(HaveLen(1))
			Expect(grouped[datum.TypeFill]).To(HaveLen(len(service.Fills())))
		})
	})
})
