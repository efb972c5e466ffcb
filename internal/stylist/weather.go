// Package stylist holds the pure outfit logic: the deterministic weather
// placeholder, the recommendation assembler and the canned shop list.
// Nothing here performs I/O.
package stylist

import (
	"fmt"
	"math"
)

// Weather is a point-in-time snapshot used to flavour recommendations.
type Weather struct {
	Summary      string
	TemperatureC int
	// Warning is empty when conditions are unremarkable.
	Warning string
}

const (
	fallbackTemperatureC = 14
	windWarningBelowC    = 10
)

// Snapshot produces a deterministic pseudo-weather reading. Without
// coordinates it returns a canned cool-day answer naming the city; with
// coordinates the temperature is (|lat|+|lon|) mod 30 truncated to an
// integer. The formula is a placeholder kept stable for reproducibility,
// not a real forecast.
func Snapshot(city string, lat, lon *float64) Weather {
	if lat == nil || lon == nil {
		location := city
		if location == "" {
			location = "your city"
		}
		return Weather{
			Summary:      fmt.Sprintf("It is chilly in %s right now: around %d°C.", location, fallbackTemperatureC),
			TemperatureC: fallbackTemperatureC,
			Warning:      "possible rain",
		}
	}

	temp := int(math.Mod(math.Abs(*lat)+math.Abs(*lon), 30))
	w := Weather{
		Summary:      fmt.Sprintf("It is about %d°C right now.", temp),
		TemperatureC: temp,
	}
	if temp < windWarningBelowC {
		w.Warning = "strong wind"
	}
	return w
}
