// Package mapstate holds the map-side view state: the camera, the projected
// flight route and the user's home location.
package mapstate

import (
	"log/slog"
	"sync"

	"github.com/raphaelgruber/tripchat/internal/models"
	"golang.org/x/sync/singleflight"
)

// Zoom levels.
const (
	DefaultCityZoom = 12
	UserZoom        = 8
)

// DefaultView is shown until the user's location is known.
var DefaultView = models.ViewState{Latitude: 41.2995, Longitude: 69.2401, Zoom: 4}

// State is a snapshot of the map store.
type State struct {
	View            models.ViewState
	Route           *models.FlightRoute
	UserLocation    *models.Coordinates
	UserAirport     string
	Loading         bool
	LocationLoading bool
	Error           string
}

func (s State) clone() State {
	out := s
	if s.Route != nil {
		r := *s.Route
		out.Route = &r
	}
	if s.UserLocation != nil {
		c := *s.UserLocation
		out.UserLocation = &c
	}
	return out
}

// Store is the map state. It receives route updates from a chat session and
// supplies the user location used as the route's fallback origin.
// All methods are safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	state     State
	listeners map[int]func(State)
	nextID    int

	// notifyMu keeps listener calls in mutation order.
	notifyMu sync.Mutex

	finder AirportFinder
	group  singleflight.Group
	logger *slog.Logger
}

// New creates a store. finder may be nil, in which case the user location is
// only known once SetUserLocation is called.
func New(finder AirportFinder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		state:     State{View: DefaultView},
		listeners: make(map[int]func(State)),
		finder:    finder,
		logger:    logger,
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Subscribe registers fn to receive a snapshot after every change.
// Listeners must not call back into the store synchronously.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.state.clone()
	listeners := make([]func(State), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.notifyMu.Lock()
	s.mu.Unlock()

	defer s.notifyMu.Unlock()
	for _, l := range listeners {
		l(snap)
	}
}

// SetFlightRoute stores route and fits the view to its endpoints.
func (s *Store) SetFlightRoute(route models.FlightRoute) {
	s.update(func(st *State) {
		st.Route = &route
		st.View = boundsView([]models.Coordinates{route.Origin, route.Destination})
	})
	s.logger.Debug("flight route set",
		"origin", route.OriginCode,
		"destination", route.DestinationCode)
}

// ClearRoute removes the route.
func (s *Store) ClearRoute() {
	s.update(func(st *State) { st.Route = nil })
}

// SetError sets the map error; an empty msg clears it.
func (s *Store) SetError(msg string) {
	if msg != "" {
		s.logger.Warn("map error", "error", msg)
	}
	s.update(func(st *State) { st.Error = msg })
}

// SetLoading flags a route projection in progress.
func (s *Store) SetLoading(loading bool) {
	s.update(func(st *State) { st.Loading = loading })
}

// FlyToCity centres the view on coords. A zoom of 0 means DefaultCityZoom.
// It clears any map error.
func (s *Store) FlyToCity(coords models.Coordinates, zoom float64) {
	if zoom <= 0 {
		zoom = DefaultCityZoom
	}
	s.update(func(st *State) {
		st.View = models.ViewState{Latitude: coords.Latitude, Longitude: coords.Longitude, Zoom: zoom}
		st.Error = ""
	})
}

// FlyToBounds fits the view to points. It does nothing for no points.
func (s *Store) FlyToBounds(points []models.Coordinates) {
	if len(points) == 0 {
		return
	}
	s.update(func(st *State) { st.View = boundsView(points) })
}

// ResetView returns to the user's location, or DefaultView when unknown.
func (s *Store) ResetView() {
	s.update(func(st *State) {
		if loc := st.UserLocation; loc != nil {
			st.View = models.ViewState{Latitude: loc.Latitude, Longitude: loc.Longitude, Zoom: UserZoom}
			return
		}
		st.View = DefaultView
	})
}

// SetUserLocation records the user's home location and moves the view there.
func (s *Store) SetUserLocation(coords models.Coordinates, airportCode string) {
	s.update(func(st *State) {
		st.UserLocation = &coords
		st.UserAirport = airportCode
		st.View = models.ViewState{Latitude: coords.Latitude, Longitude: coords.Longitude, Zoom: UserZoom}
	})
}

func boundsView(points []models.Coordinates) models.ViewState {
	if len(points) == 1 {
		return models.ViewState{Latitude: points[0].Latitude, Longitude: points[0].Longitude, Zoom: DefaultCityZoom}
	}

	minLat, maxLat := points[0].Latitude, points[0].Latitude
	minLon, maxLon := points[0].Longitude, points[0].Longitude
	for _, p := range points[1:] {
		minLat, maxLat = min(minLat, p.Latitude), max(maxLat, p.Latitude)
		minLon, maxLon = min(minLon, p.Longitude), max(maxLon, p.Longitude)
	}

	return models.ViewState{
		Latitude:  (minLat + maxLat) / 2,
		Longitude: (minLon + maxLon) / 2,
		Zoom:      zoomForSpan(max(maxLat-minLat, maxLon-minLon)),
	}
}

func zoomForSpan(span float64) float64 {
	switch {
	case span < 1:
		return 10
	case span < 5:
		return 7
	case span < 20:
		return 5
	case span < 60:
		return 3
	default:
		return 2
	}
}
