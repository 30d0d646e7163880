package models

// Coordinates is a point on the map.
type Coordinates struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// FlightRoute is an origin/destination pair ready for map display.
type FlightRoute struct {
	Origin          Coordinates `json:"origin" yaml:"origin"`
	Destination     Coordinates `json:"destination" yaml:"destination"`
	OriginCode      string      `json:"origin_code,omitempty" yaml:"origin_code,omitempty"`
	DestinationCode string      `json:"destination_code,omitempty" yaml:"destination_code,omitempty"`
	OriginCity      string      `json:"origin_city,omitempty" yaml:"origin_city,omitempty"`
	DestinationCity string      `json:"destination_city,omitempty" yaml:"destination_city,omitempty"`
}

// ViewState is the map camera position.
type ViewState struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Zoom      float64 `json:"zoom" yaml:"zoom"`
}
