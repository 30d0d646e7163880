package mapstate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/raphaelgruber/tripchat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFinder struct {
	resp    *models.NearestAirport
	err     error
	release chan struct{}
	calls   atomic.Int32
}

func (f *fakeFinder) NearestAirport(ctx context.Context) (*models.NearestAirport, error) {
	f.calls.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.resp, f.err
}

func TestFlyToBoundsZoom(t *testing.T) {
	tests := []struct {
		name   string
		points []models.Coordinates
		want   models.ViewState
	}{
		{
			name:   "single point",
			points: []models.Coordinates{{Latitude: 48.85, Longitude: 2.35}},
			want:   models.ViewState{Latitude: 48.85, Longitude: 2.35, Zoom: 12},
		},
		{
			name:   "city scale",
			points: []models.Coordinates{{Latitude: 10, Longitude: 10}, {Latitude: 10.5, Longitude: 10.5}},
			want:   models.ViewState{Latitude: 10.25, Longitude: 10.25, Zoom: 10},
		},
		{
			name:   "regional",
			points: []models.Coordinates{{Latitude: 10, Longitude: 10}, {Latitude: 12, Longitude: 14}},
			want:   models.ViewState{Latitude: 11, Longitude: 12, Zoom: 7},
		},
		{
			name:   "country",
			points: []models.Coordinates{{Latitude: 0, Longitude: 0}, {Latitude: 10, Longitude: 10}},
			want:   models.ViewState{Latitude: 5, Longitude: 5, Zoom: 5},
		},
		{
			name:   "continental",
			points: []models.Coordinates{{Latitude: 0, Longitude: 0}, {Latitude: 20, Longitude: 40}},
			want:   models.ViewState{Latitude: 10, Longitude: 20, Zoom: 3},
		},
		{
			name:   "intercontinental",
			points: []models.Coordinates{{Latitude: 40, Longitude: -70}, {Latitude: 50, Longitude: 0}},
			want:   models.ViewState{Latitude: 45, Longitude: -35, Zoom: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(nil, nil)
			s.FlyToBounds(tt.points)
			assert.Equal(t, tt.want, s.Snapshot().View)
		})
	}
}

func TestFlyToBoundsEmptyIsNoop(t *testing.T) {
	s := New(nil, nil)
	s.FlyToBounds(nil)
	assert.Equal(t, DefaultView, s.Snapshot().View)
}

func TestSetFlightRoute(t *testing.T) {
	s := New(nil, nil)

	var views []models.ViewState
	unsubscribe := s.Subscribe(func(st State) { views = append(views, st.View) })

	route := models.FlightRoute{
		Origin:          models.Coordinates{Latitude: 51.47, Longitude: -0.4543},
		Destination:     models.Coordinates{Latitude: 40.6413, Longitude: -73.7781},
		DestinationCode: "JFK",
	}
	s.SetFlightRoute(route)

	snap := s.Snapshot()
	require.NotNil(t, snap.Route)
	assert.Equal(t, route, *snap.Route)
	assert.Equal(t, float64(2), snap.View.Zoom)
	assert.InDelta(t, 46.05565, snap.View.Latitude, 1e-9)
	require.Len(t, views, 1)

	unsubscribe()
	s.ClearRoute()
	assert.Nil(t, s.Snapshot().Route)
	assert.Len(t, views, 1)
}

func TestSnapshotIsCopy(t *testing.T) {
	s := New(nil, nil)
	s.SetFlightRoute(models.FlightRoute{DestinationCode: "JFK"})

	snap := s.Snapshot()
	snap.Route.DestinationCode = "LHR"
	assert.Equal(t, "JFK", s.Snapshot().Route.DestinationCode)
}

func TestErrorAndLoading(t *testing.T) {
	s := New(nil, nil)

	s.SetLoading(true)
	s.SetError("Failed to load flight route")
	snap := s.Snapshot()
	assert.True(t, snap.Loading)
	assert.Equal(t, "Failed to load flight route", snap.Error)

	s.FlyToCity(models.Coordinates{Latitude: 1, Longitude: 2}, 0)
	snap = s.Snapshot()
	assert.Empty(t, snap.Error)
	assert.Equal(t, models.ViewState{Latitude: 1, Longitude: 2, Zoom: DefaultCityZoom}, snap.View)

	s.FlyToCity(models.Coordinates{Latitude: 1, Longitude: 2}, 6)
	assert.Equal(t, float64(6), s.Snapshot().View.Zoom)
}

func TestResetView(t *testing.T) {
	s := New(nil, nil)
	s.FlyToCity(models.Coordinates{Latitude: 1, Longitude: 2}, 0)

	s.ResetView()
	assert.Equal(t, DefaultView, s.Snapshot().View)

	s.SetUserLocation(models.Coordinates{Latitude: 52.31, Longitude: 4.77}, "AMS")
	s.FlyToCity(models.Coordinates{Latitude: 1, Longitude: 2}, 0)
	s.ResetView()

	snap := s.Snapshot()
	assert.Equal(t, models.ViewState{Latitude: 52.31, Longitude: 4.77, Zoom: UserZoom}, snap.View)
	assert.Equal(t, "AMS", snap.UserAirport)
}

func TestUserLocation(t *testing.T) {
	ctx := context.Background()

	t.Run("airport from table", func(t *testing.T) {
		f := &fakeFinder{resp: &models.NearestAirport{
			Airport: &models.HomeAirport{IATA: "AMS", City: "Amsterdam"},
		}}
		s := New(f, nil)

		loc, err := s.UserLocation(ctx)
		require.NoError(t, err)
		assert.Equal(t, &models.Coordinates{Latitude: 52.3105, Longitude: 4.7683}, loc)

		snap := s.Snapshot()
		assert.Equal(t, "AMS", snap.UserAirport)
		assert.Equal(t, float64(UserZoom), snap.View.Zoom)
		assert.False(t, snap.LocationLoading)

		_, err = s.UserLocation(ctx)
		require.NoError(t, err)
		assert.Equal(t, int32(1), f.calls.Load(), "location should be cached")
	})

	t.Run("detected location for unknown airport", func(t *testing.T) {
		f := &fakeFinder{resp: &models.NearestAirport{
			Airport:          &models.HomeAirport{IATA: "GVA"},
			DetectedLocation: &models.GeoPosition{Lat: 46.2, Lon: 6.1},
		}}
		s := New(f, nil)

		loc, err := s.UserLocation(ctx)
		require.NoError(t, err)
		assert.Equal(t, &models.Coordinates{Latitude: 46.2, Longitude: 6.1}, loc)
		assert.Equal(t, "GVA", s.Snapshot().UserAirport)
	})

	t.Run("default on lookup failure", func(t *testing.T) {
		s := New(&fakeFinder{err: errors.New("status 502")}, nil)

		loc, err := s.UserLocation(ctx)
		require.NoError(t, err)
		assert.Equal(t, &DefaultLocation, loc)
		assert.Equal(t, DefaultAirport, s.Snapshot().UserAirport)
	})

	t.Run("default on empty response", func(t *testing.T) {
		s := New(&fakeFinder{resp: &models.NearestAirport{}}, nil)

		loc, err := s.UserLocation(ctx)
		require.NoError(t, err)
		assert.Equal(t, &DefaultLocation, loc)
	})

	t.Run("no finder", func(t *testing.T) {
		s := New(nil, nil)

		loc, err := s.UserLocation(ctx)
		require.NoError(t, err)
		assert.Nil(t, loc)
	})

	t.Run("cancellation is not cached", func(t *testing.T) {
		f := &fakeFinder{release: make(chan struct{})}
		s := New(f, nil)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.UserLocation(cctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, s.Snapshot().UserLocation)
	})
}

func TestUserLocationSharesLookup(t *testing.T) {
	f := &fakeFinder{
		resp:    &models.NearestAirport{Airport: &models.HomeAirport{IATA: "IST"}},
		release: make(chan struct{}),
	}
	s := New(f, nil)

	var wg sync.WaitGroup
	results := make([]*models.Coordinates, 8)
	for i := range results {
		wg.Go(func() {
			loc, err := s.UserLocation(context.Background())
			assert.NoError(t, err)
			results[i] = loc
		})
	}
	close(f.release)
	wg.Wait()

	assert.Equal(t, int32(1), f.calls.Load())
	for _, loc := range results {
		assert.Equal(t, &models.Coordinates{Latitude: 41.2753, Longitude: 28.7519}, loc)
	}
}
