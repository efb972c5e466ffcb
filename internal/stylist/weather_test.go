package stylist

import (
	"strings"
	"testing"
)

func f(v float64) *float64 { return &v }

func TestSnapshotWithoutCoordinates(t *testing.T) {
	w := Snapshot("", nil, nil)
	if w.TemperatureC != 14 {
		t.Fatalf("temperature = %d, want 14", w.TemperatureC)
	}
	if w.Warning == "" {
		t.Fatal("expected a warning in the no-coordinates branch")
	}
	if !strings.Contains(w.Summary, "your city") {
		t.Fatalf("summary should name a generic location, got %q", w.Summary)
	}

	w = Snapshot("Moscow", nil, nil)
	if !strings.Contains(w.Summary, "Moscow") {
		t.Fatalf("summary should name the city, got %q", w.Summary)
	}
	if w.TemperatureC != 14 || w.Warning != "possible rain" {
		t.Fatalf("unexpected snapshot: %+v", w)
	}
}

func TestSnapshotPseudoTemperature(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		wantTemp int
		warning  string
	}{
		{"warm no warning", 10.0, 10.0, 20, ""},
		{"cold strong wind", 1.0, 1.0, 2, "strong wind"},
		{"wraps modulo 30", 20.0, 25.0, 15, ""},
		{"absolute values", -5.0, -3.0, 8, "strong wind"},
		{"boundary ten", 4.0, 6.0, 10, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Snapshot("ignored", f(tt.lat), f(tt.lon))
			if w.TemperatureC != tt.wantTemp {
				t.Fatalf("temperature = %d, want %d", w.TemperatureC, tt.wantTemp)
			}
			if w.Warning != tt.warning {
				t.Fatalf("warning = %q, want %q", w.Warning, tt.warning)
			}
		})
	}
}

func TestSnapshotTruncatesFraction(t *testing.T) {
	w := Snapshot("", f(10.7), f(10.7))
	if w.TemperatureC != 21 {
		t.Fatalf("temperature = %d, want 21 (21.4 truncated)", w.TemperatureC)
	}
}
