package stylist

import (
	"strings"
	"testing"
)

func TestBuildReturnsThreeLines(t *testing.T) {
	events := []string{EventCasualDay, EventOccasion, "unknown", ""}
	styles := []string{StyleCasual, StyleClassic, StyleSport, "  Sport ", "bohemian", ""}
	weather := Weather{TemperatureC: 12}

	for _, ev := range events {
		for _, st := range styles {
			lines := Build(ev, st, weather)
			if len(lines) != 3 {
				t.Fatalf("Build(%q, %q) returned %d lines, want 3", ev, st, len(lines))
			}
			for i, line := range lines {
				if line == "" {
					t.Fatalf("Build(%q, %q) line %d is empty", ev, st, i)
				}
			}
		}
	}
}

func TestBuildUnknownEventFallsBackToCasualDay(t *testing.T) {
	weather := Weather{TemperatureC: 5}
	got := Build("gala", StyleCasual, weather)
	want := Build(EventCasualDay, StyleCasual, weather)
	if got[0] != want[0] {
		t.Fatalf("unknown event garments = %q, want casual-day %q", got[0], want[0])
	}
}

func TestBuildUnknownStyleQuotesOriginal(t *testing.T) {
	lines := Build(EventOccasion, "Avant-Garde", Weather{TemperatureC: 18})
	if !strings.Contains(lines[0], "in the style of Avant-Garde") {
		t.Fatalf("expected generic style phrase with original text, got %q", lines[0])
	}
}

func TestBuildNormalizesKnownStyle(t *testing.T) {
	lines := Build(EventCasualDay, "  Classic ", Weather{TemperatureC: 18})
	if !strings.Contains(lines[0], "in neat classic") {
		t.Fatalf("expected normalized classic hint, got %q", lines[0])
	}
}

func TestBuildInterpolatesTemperature(t *testing.T) {
	lines := Build(EventCasualDay, StyleSport, Weather{TemperatureC: 7})
	if !strings.Contains(lines[1], "7°C") {
		t.Fatalf("expected temperature in second line, got %q", lines[1])
	}
}

func TestNearbyShops(t *testing.T) {
	shops := NearbyShops("Moscow")
	if len(shops) != 3 {
		t.Fatalf("expected 3 shops, got %d", len(shops))
	}
	for _, s := range shops {
		if !strings.Contains(s, "Moscow") {
			t.Fatalf("shop entry should name the city, got %q", s)
		}
	}
	generic := NearbyShops("")
	if !strings.Contains(generic[0], "your area") {
		t.Fatalf("expected generic area phrase, got %q", generic[0])
	}
}
