package weather

import (
	"context"
	"errors"
	"time"
)

// ErrUnsupportedLocation is returned by a provider that cannot serve a
// location, e.g. a coordinates-only provider asked for a city name.
var ErrUnsupportedLocation = errors.New("location not supported by provider")

// ProviderReading is a single provider's normalized reading.
type ProviderReading struct {
	ProviderName string
	Timestamp    time.Time

	TemperatureC float64
	HumidityPct  float64
	WindSpeedMS  float64
	PressureHpa  float64
	PrecipMm     float64
	Condition    Condition
}

// Provider abstracts a weather data source (OpenWeatherMap, Open-Meteo).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (ProviderReading, error)
}

// Cache stores snapshots between lookups. Get reports found=false on a miss;
// an error means the cache could not be asked and the caller should go on
// without it.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}
