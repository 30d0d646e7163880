package mapstate

import (
	"context"

	"github.com/raphaelgruber/tripchat/internal/models"
	"github.com/raphaelgruber/tripchat/internal/route"
)

// DefaultAirport is used when the user's home airport cannot be detected.
const DefaultAirport = "TAS"

// DefaultLocation is the position of DefaultAirport.
var DefaultLocation = models.Coordinates{Latitude: 41.2579, Longitude: 69.2812}

// AirportFinder asks the backend for the user's nearest airport.
type AirportFinder interface {
	NearestAirport(ctx context.Context) (*models.NearestAirport, error)
}

type located struct {
	coords  models.Coordinates
	airport string
}

// UserLocation returns the user's home location, detecting it on first use.
// Concurrent callers share one lookup. A failed lookup falls back to
// DefaultLocation; only cancellation of ctx is returned as an error.
// Without an AirportFinder the result is nil until SetUserLocation is called.
func (s *Store) UserLocation(ctx context.Context) (*models.Coordinates, error) {
	if loc := s.cachedLocation(); loc != nil {
		return loc, nil
	}
	if s.finder == nil {
		return nil, nil
	}

	v, err, _ := s.group.Do("nearest-airport", func() (any, error) {
		// A previous flight may have finished between the cache check and now.
		if loc := s.cachedLocation(); loc != nil {
			return *loc, nil
		}

		s.update(func(st *State) { st.LocationLoading = true })
		defer s.update(func(st *State) { st.LocationLoading = false })

		loc, err := s.detect(ctx)
		if err != nil {
			return nil, err
		}
		s.SetUserLocation(loc.coords, loc.airport)
		return loc.coords, nil
	})
	if err != nil {
		return nil, err
	}
	coords := v.(models.Coordinates)
	return &coords, nil
}

func (s *Store) cachedLocation() *models.Coordinates {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.UserLocation == nil {
		return nil
	}
	c := *s.state.UserLocation
	return &c
}

func (s *Store) detect(ctx context.Context) (located, error) {
	fallback := located{coords: DefaultLocation, airport: DefaultAirport}

	res, err := s.finder.NearestAirport(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return located{}, ctxErr
		}
		s.logger.Warn("nearest airport lookup failed, using default", "error", err)
		return fallback, nil
	}
	if res == nil || res.Airport == nil {
		return fallback, nil
	}

	if a, ok := route.Lookup(res.Airport.IATA); ok {
		return located{coords: a.Coordinates(), airport: res.Airport.IATA}, nil
	}
	if d := res.DetectedLocation; d != nil && d.Lat != 0 && d.Lon != 0 {
		return located{
			coords:  models.Coordinates{Latitude: d.Lat, Longitude: d.Lon},
			airport: res.Airport.IATA,
		}, nil
	}

	s.logger.Debug("nearest airport has no known position, using default", "airport", res.Airport.IATA)
	return fallback, nil
}
