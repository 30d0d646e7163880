package models

// Airport is an airport search result.
type Airport struct {
	IATACode    string `json:"iata_code"`
	Name        string `json:"name"`
	City        string `json:"city"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
}

// NearestAirport is the backend's guess at the user's home airport.
type NearestAirport struct {
	Airport          *HomeAirport `json:"airport,omitempty"`
	DetectedLocation *GeoPosition `json:"detected_location,omitempty"`
}

// HomeAirport identifies the airport nearest to the user.
type HomeAirport struct {
	IATA    string `json:"iata"`
	City    string `json:"city"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

// OfferResponse wraps detailed offer information.
type OfferResponse struct {
	Offer       OfferDetails `json:"offer"`
	PriceChange *PriceChange `json:"price_change,omitempty"`
	Cached      bool         `json:"cached"`
}

// OfferDetails is the priced, bookable view of an offer.
type OfferDetails struct {
	OfferID string `json:"offer_id"`
	Airline struct {
		Name string `json:"name"`
		Code string `json:"code"`
		Logo string `json:"logo"`
	} `json:"airline"`
	Price struct {
		Total    float64 `json:"total"`
		Currency string  `json:"currency"`
		Base     float64 `json:"base"`
		Tax      float64 `json:"tax"`
	} `json:"price"`
	Policies struct {
		Refundable bool `json:"refundable"`
		Changeable bool `json:"changeable"`
	} `json:"policies"`
	BookingInfo struct {
		ExpiresAt        string `json:"expires_at"`
		ExpiresInMinutes int    `json:"expires_in_minutes"`
		IsExpired        bool   `json:"is_expired"`
		ExpiresSoon      bool   `json:"expires_soon"`
	} `json:"booking_info"`
	Metadata struct {
		CabinClass     string  `json:"cabin_class"`
		FareBrand      string  `json:"fare_brand,omitempty"`
		EmissionsKg    float64 `json:"emissions_kg,omitempty"`
		EmissionsLabel string  `json:"emissions_label,omitempty"`
	} `json:"metadata"`
}

// PriceChange reports a re-priced offer.
type PriceChange struct {
	Changed       bool    `json:"changed"`
	OldPrice      float64 `json:"old_price"`
	NewPrice      float64 `json:"new_price"`
	Difference    float64 `json:"difference"`
	PercentChange float64 `json:"percent_change"`
	Increased     bool    `json:"increased"`
}
