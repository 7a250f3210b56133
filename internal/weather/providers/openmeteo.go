package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/AnshRaj112/weatherlist-backend/internal/weather"
)

const openMeteoURL = "https://api.open-meteo.com/v1/forecast"

// OpenMeteoProvider implements weather.Provider for Open-Meteo. It needs
// coordinates and reports ErrUnsupportedLocation for city-only lookups.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: openMeteoURL,
		httpCfg: HTTPClientConfig{Client: client, Backoff: DefaultBackoff},
		circuit: newBreaker("openmeteo"),
	}
}

// WithBaseURL points the provider at another endpoint.
func (p *OpenMeteoProvider) WithBaseURL(u string) *OpenMeteoProvider {
	p.baseURL = u
	return p
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderReading, error) {
	if !loc.HasCoordinates() {
		return weather.ProviderReading{}, fmt.Errorf("%w: openmeteo requires latitude and longitude", weather.ErrUnsupportedLocation)
	}

	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(*loc.Lat, 'f', 6, 64))
	values.Set("longitude", strconv.FormatFloat(*loc.Lon, 'f', 6, 64))
	values.Set("current_weather", "true")
	values.Set("windspeed_unit", "ms")
	values.Set("timezone", "UTC")
	target := p.baseURL + "?" + values.Encode()

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	})
	if err != nil {
		return weather.ProviderReading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		CurrentWeather struct {
			Temperature float64 `json:"temperature"`
			WindSpeed   float64 `json:"windspeed"`
			Time        string  `json:"time"`
			WeatherCode int     `json:"weathercode"`
		} `json:"current_weather"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.ProviderReading{}, fmt.Errorf("decode openmeteo response: %w", err)
	}

	// Open-Meteo reports local minutes without a zone, e.g. 2024-05-01T12:00
	ts, err := time.Parse("2006-01-02T15:04", payload.CurrentWeather.Time)
	if err != nil {
		ts = time.Now()
	}

	return weather.ProviderReading{
		ProviderName: p.name,
		Timestamp:    ts.UTC(),
		TemperatureC: payload.CurrentWeather.Temperature,
		WindSpeedMS:  payload.CurrentWeather.WindSpeed,
		Condition:    mapOpenMeteoCondition(payload.CurrentWeather.WeatherCode),
	}, nil
}

func mapOpenMeteoCondition(code int) weather.Condition {
	switch {
	case code == 0:
		return weather.ConditionClear
	case code >= 1 && code <= 3:
		return weather.ConditionCloudy
	case code == 45 || code == 48:
		return weather.ConditionMist
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return weather.ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return weather.ConditionSnow
	case code >= 95:
		return weather.ConditionStorm
	default:
		return weather.ConditionUnknown
	}
}
