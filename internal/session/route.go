package session

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/tripchat/internal/models"
	"github.com/raphaelgruber/tripchat/internal/route"
)

// locateTimeout bounds the user-location lookup of one projection.
const locateTimeout = 10 * time.Second

// RouteSink receives the flight route projected from search results. It is
// owned by the caller; the session only writes to it.
type RouteSink interface {
	SetFlightRoute(route models.FlightRoute)
	ClearRoute()
	SetError(msg string)
}

// loadingSink is implemented by sinks that show projection progress.
type loadingSink interface {
	SetLoading(loading bool)
}

// Locator supplies the user's location, used as the route origin when the
// flight data has none.
type Locator interface {
	UserLocation(ctx context.Context) (*models.Coordinates, error)
}

// projectRoute projects cards in the background. Only the most recent
// projection may write to the sink; ClearChat and RestoreSession invalidate
// all pending ones.
func (s *Session) projectRoute(cards []models.FlightCard) {
	if s.sink == nil {
		return
	}

	s.routeMu.Lock()
	s.routeGen++
	gen := s.routeGen
	s.routeMu.Unlock()

	cards = models.CloneFlightCards(cards)
	s.routes.Add(1)
	go func() {
		defer s.routes.Done()
		s.runProjection(gen, cards)
	}()
}

func (s *Session) runProjection(gen uint64, cards []models.FlightCard) {
	loading, _ := s.sink.(loadingSink)
	if loading != nil {
		s.sinkDo(gen, func() { loading.SetLoading(true) })
		defer s.sinkDo(gen, func() { loading.SetLoading(false) })
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("route projection failed", "error", fmt.Sprint(r))
			s.sinkDo(gen, func() { s.sink.SetError(routeErrorMessage) })
		}
	}()

	fallback := s.userLocation()
	r, ok := route.Project(cards, fallback)
	if !ok {
		s.logger.Debug("could not project flight route", "cards", len(cards))
		return
	}
	s.sinkDo(gen, func() { s.sink.SetFlightRoute(r) })
}

func (s *Session) userLocation() *models.Coordinates {
	if s.locator == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), locateTimeout)
	defer cancel()

	loc, err := s.locator.UserLocation(ctx)
	if err != nil {
		s.logger.Warn("user location unavailable", "error", err)
		return nil
	}
	return loc
}

// sinkDo runs fn if gen is still the current projection generation.
func (s *Session) sinkDo(gen uint64, fn func()) {
	s.routeMu.Lock()
	defer s.routeMu.Unlock()
	if gen != s.routeGen {
		return
	}
	fn()
}

// resetRoutes invalidates pending projections and optionally clears the sink.
func (s *Session) resetRoutes(clear bool) {
	s.routeMu.Lock()
	defer s.routeMu.Unlock()
	s.routeGen++
	if s.sink == nil {
		return
	}
	if loading, ok := s.sink.(loadingSink); ok {
		loading.SetLoading(false)
	}
	if clear {
		s.sink.ClearRoute()
	}
}
