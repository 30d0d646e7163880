package route

import (
	"testing"

	"github.com/raphaelgruber/tripchat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func card(slices ...models.FlightSlice) models.FlightCard {
	return models.FlightCard{OfferID: "off_1", Rank: 1, Slices: slices}
}

func TestProject(t *testing.T) {
	heathrow := &models.Coordinates{Latitude: 51.47, Longitude: -0.4543}

	tests := []struct {
		name     string
		cards    []models.FlightCard
		fallback *models.Coordinates
		want     models.FlightRoute
	}{
		{
			name: "destination from table, origin from fallback",
			cards: []models.FlightCard{card(models.FlightSlice{
				Destination: &models.Endpoint{Code: "JFK", City: "New York"},
			})},
			fallback: heathrow,
			want: models.FlightRoute{
				Origin:          models.Coordinates{Latitude: 51.47, Longitude: -0.4543},
				Destination:     models.Coordinates{Latitude: 40.6413, Longitude: -73.7781},
				DestinationCode: "JFK",
				DestinationCity: "New York",
			},
		},
		{
			name: "explicit coordinates win over table",
			cards: []models.FlightCard{card(models.FlightSlice{
				Origin: &models.Endpoint{
					Code:        "LHR",
					City:        "London",
					Coordinates: &models.GeoPosition{Lat: 51.5, Lon: -0.45},
				},
				Destination: &models.Endpoint{
					Code:        "JFK",
					Coordinates: &models.GeoPosition{Lat: 40.6, Lon: -73.8},
				},
			})},
			want: models.FlightRoute{
				Origin:          models.Coordinates{Latitude: 51.5, Longitude: -0.45},
				Destination:     models.Coordinates{Latitude: 40.6, Longitude: -73.8},
				OriginCode:      "LHR",
				OriginCity:      "London",
				DestinationCode: "JFK",
			},
		},
		{
			name: "zero coordinate falls back to table",
			cards: []models.FlightCard{card(models.FlightSlice{
				Origin: &models.Endpoint{Code: "tas", Coordinates: &models.GeoPosition{Lat: 0, Lon: 69.2}},
				Destination: &models.Endpoint{
					Code:        "IST",
					Coordinates: &models.GeoPosition{Lat: 41.2, Lon: 0},
				},
			})},
			want: models.FlightRoute{
				Origin:          models.Coordinates{Latitude: 41.2579, Longitude: 69.2812},
				Destination:     models.Coordinates{Latitude: 41.2753, Longitude: 28.7519},
				OriginCode:      "tas",
				DestinationCode: "IST",
			},
		},
		{
			name: "table origin wins over fallback",
			cards: []models.FlightCard{card(models.FlightSlice{
				Origin:      &models.Endpoint{Code: "DXB"},
				Destination: &models.Endpoint{Code: "SIN"},
			})},
			fallback: heathrow,
			want: models.FlightRoute{
				Origin:          models.Coordinates{Latitude: 25.2532, Longitude: 55.3657},
				Destination:     models.Coordinates{Latitude: 1.3644, Longitude: 103.9915},
				OriginCode:      "DXB",
				DestinationCode: "SIN",
			},
		},
		{
			name: "unknown origin code uses fallback but keeps code",
			cards: []models.FlightCard{card(models.FlightSlice{
				Origin:      &models.Endpoint{Code: "XXX", City: "Nowhere"},
				Destination: &models.Endpoint{Code: "CDG"},
			})},
			fallback: heathrow,
			want: models.FlightRoute{
				Origin:          *heathrow,
				Destination:     models.Coordinates{Latitude: 49.0097, Longitude: 2.5479},
				OriginCode:      "XXX",
				OriginCity:      "Nowhere",
				DestinationCode: "CDG",
			},
		},
		{
			name: "only the first card and slice are used",
			cards: []models.FlightCard{
				card(
					models.FlightSlice{Origin: &models.Endpoint{Code: "FRA"}, Destination: &models.Endpoint{Code: "AMS"}},
					models.FlightSlice{Origin: &models.Endpoint{Code: "AMS"}, Destination: &models.Endpoint{Code: "FRA"}},
				),
				card(models.FlightSlice{Origin: &models.Endpoint{Code: "LAX"}, Destination: &models.Endpoint{Code: "ORD"}}),
			},
			want: models.FlightRoute{
				Origin:          models.Coordinates{Latitude: 50.0379, Longitude: 8.5622},
				Destination:     models.Coordinates{Latitude: 52.3105, Longitude: 4.7683},
				OriginCode:      "FRA",
				DestinationCode: "AMS",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Project(tt.cards, tt.fallback)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProjectInsufficientData(t *testing.T) {
	tests := []struct {
		name     string
		cards    []models.FlightCard
		fallback *models.Coordinates
	}{
		{name: "nil cards"},
		{name: "empty cards", cards: []models.FlightCard{}},
		{name: "card without slices", cards: []models.FlightCard{card()}},
		{
			name:     "slice without destination",
			cards:    []models.FlightCard{card(models.FlightSlice{Origin: &models.Endpoint{Code: "LHR"}})},
			fallback: &models.Coordinates{Latitude: 1, Longitude: 1},
		},
		{
			name:     "unresolvable destination code",
			cards:    []models.FlightCard{card(models.FlightSlice{Destination: &models.Endpoint{Code: "ZZZ"}})},
			fallback: &models.Coordinates{Latitude: 1, Longitude: 1},
		},
		{
			name: "no origin and no fallback",
			cards: []models.FlightCard{card(models.FlightSlice{
				Destination: &models.Endpoint{Code: "JFK"},
			})},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Project(tt.cards, tt.fallback)
			assert.False(t, ok)
			assert.Zero(t, got)
		})
	}
}

func TestProjectDoesNotMutateInput(t *testing.T) {
	cards := []models.FlightCard{card(models.FlightSlice{
		Origin:      &models.Endpoint{Code: "lhr"},
		Destination: &models.Endpoint{Code: "jfk"},
	})}
	before := models.CloneFlightCards(cards)

	_, ok := Project(cards, nil)
	require.True(t, ok)
	assert.Equal(t, before, cards)
}

func TestLookup(t *testing.T) {
	a, ok := Lookup("jfk")
	require.True(t, ok)
	assert.Equal(t, "JFK", a.Code)
	assert.Equal(t, "New York", a.City)
	assert.Equal(t, models.Coordinates{Latitude: 40.6413, Longitude: -73.7781}, a.Coordinates())

	_, ok = Lookup("")
	assert.False(t, ok)
	_, ok = Lookup("NOPE")
	assert.False(t, ok)
}

func TestParseAirports(t *testing.T) {
	t.Run("normalizes codes", func(t *testing.T) {
		table, err := parseAirports([]byte("airports:\n  - {code: ' abc ', lat: 1, lon: 2}\n"))
		require.NoError(t, err)
		assert.Equal(t, Airport{Code: "ABC", Lat: 1, Lon: 2}, table["ABC"])
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		_, err := parseAirports([]byte("airports:\n  - {code: ABC}\n  - {code: abc}\n"))
		assert.ErrorContains(t, err, "duplicate")
	})

	t.Run("rejects missing code", func(t *testing.T) {
		_, err := parseAirports([]byte("airports:\n  - {name: Somewhere}\n"))
		assert.Error(t, err)
	})

	t.Run("embedded table is valid", func(t *testing.T) {
		table, err := parseAirports(airportsYAML)
		require.NoError(t, err)
		assert.Len(t, table, 32)
	})
}
