package weather

import "time"

// AggregateReadings combines multiple provider readings into a single Snapshot.
// Numeric fields are averaged; the condition is the most frequent one, ties
// going to the provider listed first.
func AggregateReadings(loc Location, readings []ProviderReading) Snapshot {
	if len(readings) == 0 {
		return Snapshot{
			Location:  loc,
			Timestamp: time.Now().UTC(),
			Condition: ConditionUnknown,
		}
	}

	var (
		sumTemp     float64
		sumHumidity float64
		sumWind     float64
		sumPressure float64
		sumPrecip   float64
		humidityN   float64
		pressureN   float64
	)

	conditionCounts := make(map[Condition]int)
	providers := make([]ProviderContribution, 0, len(readings))
	var newestTS time.Time

	for _, r := range readings {
		sumTemp += r.TemperatureC
		sumWind += r.WindSpeedMS
		sumPrecip += r.PrecipMm
		// Open-Meteo current weather has no humidity/pressure; skip zeros
		if r.HumidityPct > 0 {
			sumHumidity += r.HumidityPct
			humidityN++
		}
		if r.PressureHpa > 0 {
			sumPressure += r.PressureHpa
			pressureN++
		}

		conditionCounts[r.Condition]++

		if r.Timestamp.After(newestTS) {
			newestTS = r.Timestamp
		}

		providers = append(providers, ProviderContribution{
			ProviderName: r.ProviderName,
			Timestamp:    r.Timestamp,
		})
	}

	n := float64(len(readings))

	bestCond := ConditionUnknown
	bestCount := 0
	for _, r := range readings {
		if c := conditionCounts[r.Condition]; c > bestCount {
			bestCount = c
			bestCond = r.Condition
		}
	}

	if newestTS.IsZero() {
		newestTS = time.Now().UTC()
	}

	snap := Snapshot{
		Location:    loc,
		Timestamp:   newestTS,
		Temperature: sumTemp / n,
		WindSpeed:   sumWind / n,
		PrecipMM:    sumPrecip / n,
		Condition:   bestCond,
		Providers:   providers,
	}
	if humidityN > 0 {
		snap.Humidity = sumHumidity / humidityN
	}
	if pressureN > 0 {
		snap.Pressure = sumPressure / pressureN
	}
	return snap
}
