// Package route derives a displayable flight route from flight-card data.
package route

import "github.com/raphaelgruber/tripchat/internal/models"

// Project returns the origin/destination pair for the first slice of the
// first card. fallback, when non-nil, is used as the origin if the slice's
// origin cannot be resolved. It reports false when there is not enough data.
//
// Explicit coordinates win over the airport table. A pair with either
// component exactly zero is treated as missing.
func Project(cards []models.FlightCard, fallback *models.Coordinates) (models.FlightRoute, bool) {
	if len(cards) == 0 || len(cards[0].Slices) == 0 {
		return models.FlightRoute{}, false
	}
	slice := cards[0].Slices[0]
	origin, destination := slice.Origin, slice.Destination

	if destination == nil {
		return models.FlightRoute{}, false
	}
	dest, ok := resolve(destination)
	if !ok {
		return models.FlightRoute{}, false
	}

	orig, ok := resolve(origin)
	if !ok {
		if fallback == nil {
			return models.FlightRoute{}, false
		}
		orig = *fallback
	}

	r := models.FlightRoute{
		Origin:          orig,
		Destination:     dest,
		DestinationCode: destination.Code,
		DestinationCity: destination.City,
	}
	if origin != nil {
		r.OriginCode = origin.Code
		r.OriginCity = origin.City
	}
	return r, true
}

func resolve(e *models.Endpoint) (models.Coordinates, bool) {
	if e == nil {
		return models.Coordinates{}, false
	}
	if c := e.Coordinates; c != nil && c.Lat != 0 && c.Lon != 0 {
		return models.Coordinates{Latitude: c.Lat, Longitude: c.Lon}, true
	}
	if a, ok := Lookup(e.Code); ok {
		return a.Coordinates(), true
	}
	return models.Coordinates{}, false
}
