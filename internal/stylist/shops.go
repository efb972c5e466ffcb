package stylist

import "fmt"

// NearbyShops returns the canned list of shops localized to the city name.
// Real maps lookup is an external collaborator; this is its stand-in.
func NearbyShops(city string) []string {
	place := city
	if place == "" {
		place = "your area"
	}
	return []string{
		fmt.Sprintf("Style Point — %s", place),
		fmt.Sprintf("Urban Mood — %s", place),
		fmt.Sprintf("Classic Hub — %s", place),
	}
}
