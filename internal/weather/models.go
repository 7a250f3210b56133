package weather

import (
	"fmt"
	"strings"
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Location is a place to look weather up for: a city name, coordinates, or both.
type Location struct {
	City string   `json:"city,omitempty"`
	Lat  *float64 `json:"latitude,omitempty"`
	Lon  *float64 `json:"longitude,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (l Location) HasCoordinates() bool {
	return l.Lat != nil && l.Lon != nil
}

// Key returns the cache key for this location. Coordinates are rounded to
// two decimals (about 1km) so nearby lookups share an entry.
func (l Location) Key() string {
	if l.HasCoordinates() {
		return fmt.Sprintf("geo:%.2f,%.2f", *l.Lat, *l.Lon)
	}
	return "city:" + strings.ToLower(strings.TrimSpace(l.City))
}

// Snapshot is the aggregated current weather at a point in time.
type Snapshot struct {
	Location    Location  `json:"location"`
	Timestamp   time.Time `json:"timestamp"` // always UTC
	Temperature float64   `json:"temperatureC"`
	Humidity    float64   `json:"humidityPercent"`
	WindSpeed   float64   `json:"windSpeed"`
	Pressure    float64   `json:"pressureHpa"`
	PrecipMM    float64   `json:"precipMm"`
	Condition   Condition `json:"condition"`

	Providers []ProviderContribution `json:"providers,omitempty"`
}

// ProviderContribution describes data coming from a single provider used in aggregation.
type ProviderContribution struct {
	ProviderName string    `json:"provider"`
	Timestamp    time.Time `json:"timestamp"`
}
