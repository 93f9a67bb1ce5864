package plot

import (
	"testing"

	"github.com/flysightviewer/flysightviewer/pkg/units"
)

func validPlot() Plot {
	return Plot{
		Category:        "GNSS",
		Name:            "Ground Speed",
		Units:           "m/s",
		Color:           "#1E88E5",
		Sensor:          "GNSS",
		Measurement:     "speed2d",
		MeasurementType: units.Speed,
	}
}

func validMarker() Marker {
	return Marker{
		Category:     "Flight",
		DisplayName:  "Exit",
		ShortLabel:   "EXIT",
		Color:        "#E53935",
		AttributeKey: "_EXIT_TIME",
		Editable:     true,
	}
}

func TestRegisterAndLookupPlot(t *testing.T) {
	store := NewStore(nil)
	if err := store.RegisterPlot(validPlot()); err != nil {
		t.Fatalf("RegisterPlot: %v", err)
	}

	p, ok := store.LookupPlot("GNSS", "speed2d")
	if !ok || p.Name != "Ground Speed" {
		t.Errorf("LookupPlot = %+v (ok=%v)", p, ok)
	}
	if _, ok := store.LookupPlot("GNSS", "velD"); ok {
		t.Error("unregistered plot should not be found")
	}
	if got := len(store.Plots()); got != 1 {
		t.Errorf("Plots() returned %d entries, want 1", got)
	}
}

func TestRegisterPlotValidation(t *testing.T) {
	store := NewStore(nil)

	missing := validPlot()
	missing.Color = ""
	if err := store.RegisterPlot(missing); err == nil {
		t.Error("expected validation error for missing color")
	}

	badType := validPlot()
	badType.MeasurementType = "warp_factor"
	if err := store.RegisterPlot(badType); err == nil {
		t.Error("expected error for unknown measurement type")
	}

	// Measurement type is optional.
	unitless := validPlot()
	unitless.Measurement = "numSV"
	unitless.MeasurementType = ""
	if err := store.RegisterPlot(unitless); err != nil {
		t.Errorf("unitless plot should register: %v", err)
	}
}

func TestRegisterPlotFirstWins(t *testing.T) {
	store := NewStore(nil)
	first := validPlot()
	if err := store.RegisterPlot(first); err != nil {
		t.Fatalf("first registration: %v", err)
	}

	second := validPlot()
	second.Name = "Usurper"
	if err := store.RegisterPlot(second); err == nil {
		t.Error("duplicate registration should return an error")
	}

	p, _ := store.LookupPlot("GNSS", "speed2d")
	if p.Name != "Ground Speed" {
		t.Errorf("first registration should win, got %q", p.Name)
	}
}

func TestRegisterAndLookupMarker(t *testing.T) {
	store := NewStore(nil)
	if err := store.RegisterMarker(validMarker()); err != nil {
		t.Fatalf("RegisterMarker: %v", err)
	}

	m, ok := store.LookupMarker("_EXIT_TIME")
	if !ok || m.DisplayName != "Exit" || !m.Editable {
		t.Errorf("LookupMarker = %+v (ok=%v)", m, ok)
	}

	dup := validMarker()
	dup.DisplayName = "Other"
	if err := store.RegisterMarker(dup); err == nil {
		t.Error("duplicate marker should return an error")
	}
	m, _ = store.LookupMarker("_EXIT_TIME")
	if m.DisplayName != "Exit" {
		t.Errorf("first marker should win, got %q", m.DisplayName)
	}

	invalid := validMarker()
	invalid.ShortLabel = ""
	if err := store.RegisterMarker(invalid); err == nil {
		t.Error("expected validation error for missing short label")
	}
}
