package weather

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name    string
	reading ProviderReading
	err     error

	mu    sync.Mutex
	calls int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Fetch(ctx context.Context, loc Location) (ProviderReading, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.err != nil {
		return ProviderReading{}, p.err
	}
	r := p.reading
	r.ProviderName = p.name
	return r, nil
}

type mapCache struct {
	data map[string][]byte
	ttls map[string]time.Duration
	err  error
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *mapCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *mapCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.err != nil {
		return c.err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	c.ttls[key] = ttl
	return nil
}

func coords(lat, lon float64) Location {
	return Location{Lat: &lat, Lon: &lon}
}

func TestAggregateReadings(t *testing.T) {
	loc := coords(37.5665, 126.978)
	newest := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	snap := AggregateReadings(loc, []ProviderReading{
		{ProviderName: "a", Timestamp: newest.Add(-time.Minute), TemperatureC: 20, HumidityPct: 60, PressureHpa: 1010, WindSpeedMS: 2, Condition: ConditionRain},
		{ProviderName: "b", Timestamp: newest, TemperatureC: 22, WindSpeedMS: 4, Condition: ConditionCloudy},
		{ProviderName: "c", Timestamp: newest.Add(-2 * time.Minute), TemperatureC: 24, HumidityPct: 70, PressureHpa: 1020, WindSpeedMS: 6, Condition: ConditionCloudy},
	})

	assert.InDelta(t, 22.0, snap.Temperature, 0.001)
	assert.InDelta(t, 4.0, snap.WindSpeed, 0.001)
	assert.InDelta(t, 65.0, snap.Humidity, 0.001, "missing humidity is not averaged in")
	assert.InDelta(t, 1015.0, snap.Pressure, 0.001)
	assert.Equal(t, ConditionCloudy, snap.Condition)
	assert.Equal(t, newest, snap.Timestamp)
	assert.Len(t, snap.Providers, 3)
}

func TestAggregateReadings_Empty(t *testing.T) {
	snap := AggregateReadings(Location{City: "Seoul"}, nil)
	assert.Equal(t, ConditionUnknown, snap.Condition)
	assert.False(t, snap.Timestamp.IsZero())
}

func TestLocationKey(t *testing.T) {
	assert.Equal(t, "geo:37.57,126.98", coords(37.5665, 126.978).Key())
	assert.Equal(t, coords(37.5701, 126.9801).Key(), coords(37.5665, 126.978).Key())
	assert.Equal(t, "city:seoul", Location{City: " Seoul "}.Key())
}

func TestClampTTL(t *testing.T) {
	assert.Equal(t, DefaultCacheTTL, ClampTTL(0))
	assert.Equal(t, MinCacheTTL, ClampTTL(time.Second))
	assert.Equal(t, MaxCacheTTL, ClampTTL(time.Hour))
	assert.Equal(t, 12*time.Minute, ClampTTL(12*time.Minute))
}

func TestService_CachesSnapshot(t *testing.T) {
	ctx := context.Background()
	p := &stubProvider{name: "stub", reading: ProviderReading{TemperatureC: 18, Condition: ConditionClear}}
	cache := newMapCache()
	svc := NewService([]Provider{p}, cache, time.Hour)

	loc := coords(35.1796, 129.0756)
	first, err := svc.Current(ctx, loc)
	require.NoError(t, err)
	assert.InDelta(t, 18.0, first.Temperature, 0.001)
	assert.Equal(t, MaxCacheTTL, cache.ttls[loc.Key()])

	second, err := svc.Current(ctx, loc)
	require.NoError(t, err)
	assert.Equal(t, first.Temperature, second.Temperature)
	assert.Equal(t, 1, p.calls)
}

func TestService_CachedSnapshotKeepsCallerLocation(t *testing.T) {
	ctx := context.Background()
	p := &stubProvider{name: "stub", reading: ProviderReading{TemperatureC: 18}}
	svc := NewService([]Provider{p}, newMapCache(), 0)

	first := coords(37.5665, 126.9780)
	nearby := coords(37.5712, 126.9801)
	require.Equal(t, first.Key(), nearby.Key())

	_, err := svc.Current(ctx, first)
	require.NoError(t, err)

	snap, err := svc.Current(ctx, nearby)
	require.NoError(t, err)
	assert.Equal(t, 1, p.calls)
	require.True(t, snap.Location.HasCoordinates())
	assert.InDelta(t, 37.5712, *snap.Location.Lat, 1e-9)
	assert.InDelta(t, 126.9801, *snap.Location.Lon, 1e-9)
}

func TestService_PartialProviderFailure(t *testing.T) {
	ok := &stubProvider{name: "ok", reading: ProviderReading{TemperatureC: 10}}
	broken := &stubProvider{name: "broken", err: errors.New("boom")}
	svc := NewService([]Provider{broken, ok}, nil, 0)

	snap, err := svc.Current(context.Background(), Location{City: "Seoul"})
	require.NoError(t, err)
	require.Len(t, snap.Providers, 1)
	assert.Equal(t, "ok", snap.Providers[0].ProviderName)
}

func TestService_AllProvidersFail(t *testing.T) {
	broken := &stubProvider{name: "broken", err: errors.New("boom")}
	unsupported := &stubProvider{name: "geo", err: ErrUnsupportedLocation}
	cache := newMapCache()
	svc := NewService([]Provider{broken, unsupported}, cache, 0)

	_, err := svc.Current(context.Background(), Location{City: "Seoul"})
	assert.ErrorIs(t, err, ErrNoReadings)
	assert.Empty(t, cache.data, "failures are not cached")
}

func TestService_CacheDownFailsOpen(t *testing.T) {
	p := &stubProvider{name: "stub", reading: ProviderReading{TemperatureC: 5}}
	cache := newMapCache()
	cache.err = errors.New("redis down")
	svc := NewService([]Provider{p}, cache, 0)

	snap, err := svc.Current(context.Background(), Location{City: "Busan"})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, snap.Temperature, 0.001)
}

func TestService_InvalidInput(t *testing.T) {
	svc := NewService([]Provider{&stubProvider{name: "stub"}}, nil, 0)
	_, err := svc.Current(context.Background(), Location{})
	assert.ErrorIs(t, err, ErrInvalidLocation)

	_, err = NewService(nil, nil, 0).Current(context.Background(), Location{City: "Seoul"})
	assert.ErrorIs(t, err, ErrNoProviders)
}
