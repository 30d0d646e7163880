package models

import "encoding/json"

// FlightCard is a ranked flight offer as rendered in the chat.
type FlightCard struct {
	OfferID          string          `json:"offer_id" yaml:"offer_id"`
	Rank             int             `json:"rank" yaml:"rank"`
	Label            string          `json:"label,omitempty" yaml:"label,omitempty"` // cheapest, fastest, best_value
	Price            Price           `json:"price" yaml:"price"`
	Airline          Airline         `json:"airline" yaml:"airline"`
	OperatingCarrier string          `json:"operating_carrier,omitempty" yaml:"operating_carrier,omitempty"`
	Duration         Duration        `json:"duration" yaml:"duration"`
	Stops            Stops           `json:"stops" yaml:"stops"`
	Slices           []FlightSlice   `json:"slices" yaml:"slices"`
	Baggage          json.RawMessage `json:"baggage,omitempty" yaml:"-"`
	Booking          *Booking        `json:"booking,omitempty" yaml:"booking,omitempty"`
}

// Price is the fare for an offer. The backend fills either Total or Amount.
type Price struct {
	Total     float64 `json:"total,omitempty" yaml:"total,omitempty"`
	Amount    float64 `json:"amount,omitempty" yaml:"amount,omitempty"`
	Currency  string  `json:"currency" yaml:"currency"`
	Formatted string  `json:"formatted,omitempty" yaml:"formatted,omitempty"`
	Display   string  `json:"display,omitempty" yaml:"display,omitempty"`
}

// Airline identifies a carrier.
type Airline struct {
	Code    string `json:"code" yaml:"code"`
	Name    string `json:"name" yaml:"name"`
	LogoURL string `json:"logo_url,omitempty" yaml:"logo_url,omitempty"`
}

// Duration is a flight time split into parts.
type Duration struct {
	Hours        int    `json:"hours" yaml:"hours"`
	Minutes      int    `json:"minutes" yaml:"minutes"`
	TotalMinutes int    `json:"total_minutes" yaml:"total_minutes"`
	Formatted    string `json:"formatted,omitempty" yaml:"formatted,omitempty"`
}

// Stops counts the connections of an offer.
type Stops struct {
	Count int `json:"count" yaml:"count"`
	Max   int `json:"max" yaml:"max"`
}

// Booking carries deep links for completing a purchase.
type Booking struct {
	URL      string `json:"url,omitempty" yaml:"url,omitempty"`
	DeepLink string `json:"deep_link,omitempty" yaml:"deep_link,omitempty"`
}

// FlightSlice is one directional leg of an offer (outbound or return).
type FlightSlice struct {
	Origin      *Endpoint       `json:"origin,omitempty" yaml:"origin,omitempty"`
	Destination *Endpoint       `json:"destination,omitempty" yaml:"destination,omitempty"`
	Departure   Moment          `json:"departure" yaml:"departure"`
	Arrival     Moment          `json:"arrival" yaml:"arrival"`
	Duration    Duration        `json:"duration" yaml:"duration"`
	Stops       int             `json:"stops" yaml:"stops"`
	Layovers    []FlightLayover `json:"layovers,omitempty" yaml:"layovers,omitempty"`
	Segments    []FlightSegment `json:"segments,omitempty" yaml:"segments,omitempty"`
}

// Endpoint is the origin or destination airport of a slice.
type Endpoint struct {
	Code        string       `json:"code,omitempty" yaml:"code,omitempty"`
	Name        string       `json:"name,omitempty" yaml:"name,omitempty"`
	City        string       `json:"city,omitempty" yaml:"city,omitempty"`
	Coordinates *GeoPosition `json:"coordinates,omitempty" yaml:"coordinates,omitempty"`
}

// GeoPosition is the lat/lon pair used by the flight wire format.
type GeoPosition struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Moment is a local date and time pair.
type Moment struct {
	Date     string `json:"date" yaml:"date"`
	Time     string `json:"time" yaml:"time"`
	Datetime string `json:"datetime,omitempty" yaml:"datetime,omitempty"`
}

// FlightLayover is a connection between two segments.
type FlightLayover struct {
	AirportCode     string `json:"airport_code" yaml:"airport_code"`
	City            string `json:"city" yaml:"city"`
	DurationMinutes int    `json:"duration_minutes,omitempty" yaml:"duration_minutes,omitempty"`
}

// FlightSegment is a single flight within a slice.
type FlightSegment struct {
	FlightNumber    string          `json:"flight_number" yaml:"flight_number"`
	Airline         Airline         `json:"airline" yaml:"airline"`
	Departure       SegmentEndpoint `json:"departure" yaml:"departure"`
	Arrival         SegmentEndpoint `json:"arrival" yaml:"arrival"`
	DurationMinutes int             `json:"duration_minutes" yaml:"duration_minutes"`
	Aircraft        string          `json:"aircraft,omitempty" yaml:"aircraft,omitempty"`
}

// SegmentEndpoint is where and when a segment departs or arrives.
type SegmentEndpoint struct {
	AirportCode string `json:"airport_code" yaml:"airport_code"`
	Time        string `json:"time" yaml:"time"`
}

// DisplayPrice returns the best human-readable price for the card.
func (p Price) DisplayPrice() float64 {
	if p.Total != 0 {
		return p.Total
	}
	return p.Amount
}

// Clone returns a deep copy of the card.
func (c FlightCard) Clone() FlightCard {
	out := c
	if c.Slices != nil {
		out.Slices = make([]FlightSlice, len(c.Slices))
		for i, s := range c.Slices {
			out.Slices[i] = s.clone()
		}
	}
	if c.Baggage != nil {
		out.Baggage = append(json.RawMessage(nil), c.Baggage...)
	}
	if c.Booking != nil {
		b := *c.Booking
		out.Booking = &b
	}
	return out
}

func (s FlightSlice) clone() FlightSlice {
	out := s
	if s.Origin != nil {
		o := s.Origin.clone()
		out.Origin = &o
	}
	if s.Destination != nil {
		d := s.Destination.clone()
		out.Destination = &d
	}
	if s.Layovers != nil {
		out.Layovers = append([]FlightLayover(nil), s.Layovers...)
	}
	if s.Segments != nil {
		out.Segments = append([]FlightSegment(nil), s.Segments...)
	}
	return out
}

func (e Endpoint) clone() Endpoint {
	out := e
	if e.Coordinates != nil {
		c := *e.Coordinates
		out.Coordinates = &c
	}
	return out
}

// CloneFlightCards deep-copies a card list, preserving nil.
func CloneFlightCards(in []FlightCard) []FlightCard {
	if in == nil {
		return nil
	}
	out := make([]FlightCard, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}
