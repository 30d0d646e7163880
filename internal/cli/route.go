package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/raphaelgruber/tripchat/internal/mapstate"
	"github.com/raphaelgruber/tripchat/internal/models"
	"github.com/raphaelgruber/tripchat/internal/route"
	"github.com/spf13/cobra"
)

var (
	routeLat     float64
	routeLon     float64
	routeNearest bool
)

var routeCmd = &cobra.Command{
	Use:   "route <cards.json|->",
	Short: "Project the flight route of saved flight cards",
	Long: `Compute the origin/destination route the chat would show for a list of
flight cards.

The file holds a JSON list of flight cards, or an object with a
"flight_cards" or "data" list (a chat response or a flight_cards frame).
Use "-" to read stdin. When the origin cannot be placed, --lat/--lon or
--nearest supply the fallback.

Examples:
  tripchat route cards.json
  tripchat route - < response.json
  tripchat route cards.json --lat 51.47 --lon -0.45
  tripchat route cards.json --nearest`,
	Args: cobra.ExactArgs(1),
	RunE: runRoute,
}

func init() {
	routeCmd.Flags().Float64Var(&routeLat, "lat", 0, "fallback origin latitude")
	routeCmd.Flags().Float64Var(&routeLon, "lon", 0, "fallback origin longitude")
	routeCmd.Flags().BoolVar(&routeNearest, "nearest", false, "use the backend's nearest airport as fallback")
}

func runRoute(cmd *cobra.Command, args []string) error {
	cards, err := readCards(args[0])
	if err != nil {
		return err
	}

	var fallback *models.Coordinates
	switch {
	case routeLat != 0 && routeLon != 0:
		fallback = &models.Coordinates{Latitude: routeLat, Longitude: routeLon}
	case routeNearest:
		fallback, err = mapstate.New(apiClient, logger).UserLocation(cmd.Context())
		if err != nil {
			return fmt.Errorf("locate: %w", err)
		}
	}

	r, ok := route.Project(cards, fallback)
	if !ok {
		return errors.New("not enough location data to project a route")
	}

	out := newOutput(os.Stdout)
	out.println(formatRoute(r))
	return nil
}

func readCards(path string) ([]models.FlightCard, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read cards: %w", err)
	}
	return parseCards(data)
}

// parseCards accepts a bare list or an object wrapping one.
func parseCards(data []byte) ([]models.FlightCard, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var cards []models.FlightCard
		if err := json.Unmarshal(data, &cards); err != nil {
			return nil, fmt.Errorf("parse cards: %w", err)
		}
		return cards, nil
	}

	var wrapper struct {
		FlightCards []models.FlightCard `json:"flight_cards"`
		Data        []models.FlightCard `json:"data"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("parse cards: %w", err)
	}
	if wrapper.FlightCards != nil {
		return wrapper.FlightCards, nil
	}
	return wrapper.Data, nil
}
