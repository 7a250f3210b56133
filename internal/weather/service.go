package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

const (
	// MinCacheTTL and MaxCacheTTL bound how long a snapshot stays cached.
	MinCacheTTL = 5 * time.Minute
	MaxCacheTTL = 30 * time.Minute
	// DefaultCacheTTL is used when the service is built with a zero ttl.
	DefaultCacheTTL = 10 * time.Minute

	fetchTimeout = 10 * time.Second
)

var (
	// ErrNoProviders means the service was built without any provider.
	ErrNoProviders = errors.New("no weather providers configured")
	// ErrNoReadings means every provider failed for the location.
	ErrNoReadings = errors.New("no weather provider returned data")
	// ErrInvalidLocation means the location has neither a city nor coordinates.
	ErrInvalidLocation = errors.New("a city or latitude and longitude are required")
)

// Service fetches current weather from every provider concurrently, averages
// the successful readings and caches the result.
type Service struct {
	providers []Provider
	cache     Cache
	ttl       time.Duration
}

// NewService creates a new Service. cache may be nil.
func NewService(providers []Provider, cache Cache, ttl time.Duration) *Service {
	return &Service{
		providers: providers,
		cache:     cache,
		ttl:       ClampTTL(ttl),
	}
}

// ClampTTL keeps ttl within [MinCacheTTL, MaxCacheTTL]; zero selects DefaultCacheTTL.
func ClampTTL(ttl time.Duration) time.Duration {
	if ttl == 0 {
		return DefaultCacheTTL
	}
	if ttl < MinCacheTTL {
		return MinCacheTTL
	}
	if ttl > MaxCacheTTL {
		return MaxCacheTTL
	}
	return ttl
}

// Current returns the aggregated snapshot for loc, from cache when possible.
// A cache that cannot be reached is skipped.
func (s *Service) Current(ctx context.Context, loc Location) (Snapshot, error) {
	if loc.City == "" && !loc.HasCoordinates() {
		return Snapshot{}, ErrInvalidLocation
	}
	if len(s.providers) == 0 {
		return Snapshot{}, ErrNoProviders
	}

	key := loc.Key()
	if s.cache != nil {
		var cached Snapshot
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Printf("⚠️  weather cache read failed for %s: %v", key, err)
		} else if found {
			// nearby coordinates share an entry; report the caller's own location
			cached.Location = loc
			return cached, nil
		}
	}

	readings := s.fetchAll(ctx, loc)
	if len(readings) == 0 {
		return Snapshot{}, fmt.Errorf("%w for %s", ErrNoReadings, key)
	}

	snapshot := AggregateReadings(loc, readings)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, snapshot, s.ttl); err != nil {
			log.Printf("⚠️  weather cache write failed for %s: %v", key, err)
		}
	}
	return snapshot, nil
}

func (s *Service) fetchAll(ctx context.Context, loc Location) []ProviderReading {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		readings = make([]ProviderReading, 0, len(s.providers))
		ordered  = make([]*ProviderReading, len(s.providers))
	)

	for i, p := range s.providers {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()

			r, err := p.Fetch(ctx, loc)
			if err != nil {
				if !errors.Is(err, ErrUnsupportedLocation) {
					log.Printf("provider %s fetch failed for %s: %v", p.Name(), loc.Key(), err)
				}
				return
			}

			mu.Lock()
			ordered[i] = &r
			mu.Unlock()
		}(i, p)
	}
	wg.Wait()

	// keep provider order so condition ties resolve the same way every time
	for _, r := range ordered {
		if r != nil {
			readings = append(readings, *r)
		}
	}
	return readings
}
