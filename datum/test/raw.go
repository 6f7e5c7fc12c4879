package test

import (
	"time"

	"github.com/tidepool-org/medical-data/datum"
	"github.com/tidepool-org/medical-data/test"
)

// RawRecord builds a minimal raw record of the given type.
func RawRecord(datumType string, at time.Time, timezone string) datum.Raw {
	return datum.Raw{
		"id":       test.Faker.UUID().V4(),
		"type":     datumType,
		"time":     at.UTC().Format(time.RFC3339),
		"timezone": timezone,
		"source":   "DBLG1",
	}
}

func RandomBasalRaw(at time.Time, timezone, deliveryType string, rate float64, durationMs int64) datum.Raw {
	raw := RawRecord("basal", at, timezone)
	raw["deliveryType"] = deliveryType
	raw["rate"] = rate
	raw["duration"] = durationMs
	return raw
}

func RandomBolusRaw(at time.Time, timezone string, normal float64) datum.Raw {
	raw := RawRecord("bolus", at, timezone)
	raw["subType"] = "normal"
	raw["normal"] = normal
	return raw
}

func RandomGlucoseRaw(datumType string, at time.Time, timezone string, value float64, units string) datum.Raw {
	raw := RawRecord(datumType, at, timezone)
	raw["value"] = value
	raw["units"] = units
	return raw
}

func RandomMealRaw(at time.Time, timezone string, carbs float64) datum.Raw {
	raw := RawRecord("food", at, timezone)
	raw["nutrition"] = map[string]interface{}{
		"carbohydrate": map[string]interface{}{
			"net":   carbs,
			"units": "grams",
		},
	}
	return raw
}

func RandomPhysicalActivityRaw(at time.Time, timezone, eventID, inputTime string, durationMinutes float64) datum.Raw {
	raw := RawRecord("physicalActivity", at, timezone)
	raw["eventId"] = eventID
	raw["inputTime"] = inputTime
	raw["duration"] = map[string]interface{}{
		"units": "minutes",
		"value": durationMinutes,
	}
	return raw
}

func RandomReservoirChangeRaw(at time.Time, timezone string) datum.Raw {
	raw := RawRecord("deviceEvent", at, timezone)
	raw["subType"] = "reservoirChange"
	return raw
}

func RandomDeviceParameterRaw(at time.Time, timezone, name, value string) datum.Raw {
	raw := RawRecord("deviceEvent", at, timezone)
	raw["subType"] = "deviceParameter"
	raw["name"] = name
	raw["value"] = value
	raw["previousValue"] = "0"
	raw["units"] = "%"
	raw["level"] = "1"
	return raw
}

func RandomWizardRaw(at time.Time, timezone, bolusID string, carbInput float64) datum.Raw {
	raw := RawRecord("wizard", at, timezone)
	raw["bolus"] = bolusID
	raw["carbInput"] = carbInput
	raw["units"] = "mg/dL"
	return raw
}

func RandomMessageRaw(at time.Time, timezone, text string) datum.Raw {
	return datum.Raw{
		"id":          test.Faker.UUID().V4(),
		"timestamp":   at.UTC().Format(time.RFC3339),
		"timezone":    timezone,
		"messagetext": text,
		"userid":      test.Faker.UUID().V4(),
		"groupid":     test.Faker.UUID().V4(),
	}
}
