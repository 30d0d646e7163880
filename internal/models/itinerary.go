package models

// ItineraryData is a generated day-by-day trip plan.
type ItineraryData struct {
	TripTitle          string         `json:"trip_title" yaml:"trip_title"`
	City               string         `json:"city" yaml:"city"`
	CountryCode        string         `json:"country_code,omitempty" yaml:"country_code,omitempty"`
	Summary            string         `json:"summary" yaml:"summary"`
	Days               []ItineraryDay `json:"days" yaml:"days"`
	TotalEstimatedCost float64        `json:"total_estimated_cost,omitempty" yaml:"total_estimated_cost,omitempty"`
	Currency           string         `json:"currency,omitempty" yaml:"currency,omitempty"`
	CulturalTips       []string       `json:"cultural_tips,omitempty" yaml:"cultural_tips,omitempty"`
	BestTimeToVisit    []string       `json:"best_time_to_visit,omitempty" yaml:"best_time_to_visit,omitempty"`
	PlacesUsed         int            `json:"places_used" yaml:"places_used"`
	VerifiedPlaces     int            `json:"verified_places" yaml:"verified_places"`
}

// ItineraryDay is one day of an itinerary.
type ItineraryDay struct {
	DayNumber     int                 `json:"day_number" yaml:"day_number"`
	Date          string              `json:"date,omitempty" yaml:"date,omitempty"`
	Title         string              `json:"title" yaml:"title"`
	Theme         string              `json:"theme" yaml:"theme"`
	Activities    []ItineraryActivity `json:"activities" yaml:"activities"`
	EstimatedCost float64             `json:"estimated_cost,omitempty" yaml:"estimated_cost,omitempty"`
	Currency      string              `json:"currency,omitempty" yaml:"currency,omitempty"`
}

// ItineraryActivity is a single scheduled stop within a day.
type ItineraryActivity struct {
	Time            string   `json:"time" yaml:"time"`
	Name            string   `json:"name" yaml:"name"`
	Description     string   `json:"description" yaml:"description"`
	DurationMinutes int      `json:"duration_minutes,omitempty" yaml:"duration_minutes,omitempty"`
	Category        string   `json:"category" yaml:"category"`
	PlaceID         *int64   `json:"place_id,omitempty" yaml:"place_id,omitempty"`
	InsiderTip      string   `json:"insider_tip,omitempty" yaml:"insider_tip,omitempty"`
	Address         string   `json:"address,omitempty" yaml:"address,omitempty"`
	Latitude        *float64 `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`
	PriceLevel      *int     `json:"price_level,omitempty" yaml:"price_level,omitempty"`
	Rating          *float64 `json:"rating,omitempty" yaml:"rating,omitempty"`
	CoverImageURL   string   `json:"cover_image_url,omitempty" yaml:"cover_image_url,omitempty"`
	TransitToNext   string   `json:"transit_to_next,omitempty" yaml:"transit_to_next,omitempty"`
}

// ItineraryGrounding describes how well an itinerary is backed by verified places.
type ItineraryGrounding struct {
	City           string `json:"city" yaml:"city"`
	Days           int    `json:"days" yaml:"days"`
	PlacesUsed     int    `json:"places_used" yaml:"places_used"`
	VerifiedPlaces int    `json:"verified_places" yaml:"verified_places"`
	IsRAGGrounded  bool   `json:"is_rag_grounded" yaml:"is_rag_grounded"`
}

// Clone returns a deep copy of the itinerary. A nil receiver yields nil.
func (it *ItineraryData) Clone() *ItineraryData {
	if it == nil {
		return nil
	}
	out := *it
	out.CulturalTips = CloneStrings(it.CulturalTips)
	out.BestTimeToVisit = CloneStrings(it.BestTimeToVisit)
	if it.Days != nil {
		out.Days = make([]ItineraryDay, len(it.Days))
		for i, d := range it.Days {
			out.Days[i] = d
			if d.Activities != nil {
				out.Days[i].Activities = append([]ItineraryActivity(nil), d.Activities...)
			}
		}
	}
	return &out
}

// Clone returns a copy of the grounding. A nil receiver yields nil.
func (g *ItineraryGrounding) Clone() *ItineraryGrounding {
	if g == nil {
		return nil
	}
	out := *g
	return &out
}
