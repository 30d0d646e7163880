package route

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/raphaelgruber/tripchat/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed airports.yaml
var airportsYAML []byte

// Airport is an entry of the static airport table.
type Airport struct {
	Code string  `yaml:"code"`
	City string  `yaml:"city"`
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
}

// Coordinates returns the airport position.
func (a Airport) Coordinates() models.Coordinates {
	return models.Coordinates{Latitude: a.Lat, Longitude: a.Lon}
}

var airports = sync.OnceValue(func() map[string]Airport {
	table, err := parseAirports(airportsYAML)
	if err != nil {
		panic(fmt.Sprintf("route: embedded airport table: %v", err))
	}
	return table
})

func parseAirports(data []byte) (map[string]Airport, error) {
	var doc struct {
		Airports []Airport `yaml:"airports"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	table := make(map[string]Airport, len(doc.Airports))
	for _, a := range doc.Airports {
		code := strings.ToUpper(strings.TrimSpace(a.Code))
		if code == "" {
			return nil, fmt.Errorf("airport %q has no code", a.Name)
		}
		if _, dup := table[code]; dup {
			return nil, fmt.Errorf("duplicate airport code %s", code)
		}
		a.Code = code
		table[code] = a
	}
	return table, nil
}

// Lookup finds an airport by IATA code, ignoring case.
func Lookup(code string) (Airport, bool) {
	if code == "" {
		return Airport{}, false
	}
	a, ok := airports()[strings.ToUpper(code)]
	return a, ok
}
