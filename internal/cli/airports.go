package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/raphaelgruber/tripchat/internal/models"
	"github.com/raphaelgruber/tripchat/internal/route"
	"github.com/spf13/cobra"
)

var airportsLimit int

var airportsCmd = &cobra.Command{
	Use:   "airports <query>",
	Short: "Search airports by city, name or code",
	Long: `Search airports known to the backend.

Airports that the route projection can place on the map are shown with
their coordinates.

Examples:
  tripchat airports london
  tripchat airports "new york" -n 3`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAirports,
}

func init() {
	airportsCmd.Flags().IntVarP(&airportsLimit, "limit", "n", 10, "max results")
}

func runAirports(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	airports, err := apiClient.SearchAirports(cmd.Context(), query, airportsLimit)
	if err != nil {
		return fmt.Errorf("search airports: %w", err)
	}

	if len(airports) == 0 {
		fmt.Println("No airports found.")
		return nil
	}

	out := newOutput(os.Stdout)
	out.printf("Airports (%d):\n\n", len(airports))
	for _, a := range airports {
		out.println(formatAirport(a))
	}
	return nil
}

func formatAirport(a models.Airport) string {
	line := fmt.Sprintf("- %s  %s", a.IATACode, a.Name)
	if place := strings.Join(nonEmpty(a.City, a.Country), ", "); place != "" {
		line += " (" + place + ")"
	}
	if known, ok := route.Lookup(a.IATACode); ok {
		c := known.Coordinates()
		line += fmt.Sprintf("  %.4f,%.4f", c.Latitude, c.Longitude)
	}
	return line
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
