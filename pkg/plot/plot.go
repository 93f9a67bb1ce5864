// Package plot holds the passive display-metadata registries: plot and
// marker descriptors registered by plugins at load time and consumed by
// rendering. Descriptors carry no computation semantics; the resolver
// never reads them.
package plot

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/flysightviewer/flysightviewer/pkg/telemetry"
	"github.com/flysightviewer/flysightviewer/pkg/units"
)

// Plot describes one measurement curve in the plot selection UI.
type Plot struct {
	// Category groups plots in the selection UI (e.g. "GNSS", "IMU").
	Category string `validate:"required"`

	// Name is the display name of the plot (e.g. "Ground Speed").
	Name string `validate:"required"`

	// Units is the display units string for the y-axis. Empty if
	// unitless; display only, conversion uses MeasurementType.
	Units string

	// Color is a CSS color string for the plot line (e.g. "#1E88E5").
	Color string `validate:"required"`

	// Sensor is the sensor ID the y-values come from.
	Sensor string `validate:"required"`

	// Measurement is the measurement ID within the sensor.
	Measurement string `validate:"required"`

	// MeasurementType is the optional unit conversion category. When
	// set, values convert between metric and imperial automatically.
	MeasurementType string
}

// Marker describes a reference or analysis point on the plot.
type Marker struct {
	// Category groups markers in the marker dock UI.
	Category string `validate:"required"`

	// DisplayName is shown in the marker dock and axis labels.
	DisplayName string `validate:"required"`

	// ShortLabel is the compact label shown in marker bubbles.
	ShortLabel string `validate:"required"`

	// Color is a CSS color string for the marker.
	Color string `validate:"required"`

	// AttributeKey is the session attribute storing the marker's time.
	AttributeKey string `validate:"required"`

	// Measurements lists (sensor, measurement) pairs the marker relates to.
	Measurements [][2]string

	// Editable allows the user to reposition the marker by dragging.
	Editable bool
}

// Store is the process-wide descriptor registry. Registered once at
// plugin-load time, read-only thereafter.
type Store struct {
	mu sync.RWMutex

	plots     []Plot
	plotIndex map[[2]string]int

	markers     []Marker
	markerIndex map[string]int

	validate *validator.Validate
	logger   *telemetry.Logger
}

// NewStore creates an empty descriptor store.
func NewStore(logger *telemetry.Logger) *Store {
	if logger == nil {
		logger = telemetry.NopLogger()
	}
	return &Store{
		plotIndex:   make(map[[2]string]int),
		markerIndex: make(map[string]int),
		validate:    validator.New(),
		logger:      logger.NewComponentLogger("plot-store"),
	}
}

// RegisterPlot adds a plot descriptor, keyed by (sensor, measurement).
// Duplicate keys keep the first registration; invalid descriptors are
// rejected. Both are configuration errors surfaced at startup.
func (s *Store) RegisterPlot(p Plot) error {
	if err := s.validate.Struct(p); err != nil {
		return fmt.Errorf("invalid plot descriptor %q: %w", p.Name, err)
	}
	if p.MeasurementType != "" && !units.Known(p.MeasurementType) {
		return fmt.Errorf("invalid plot descriptor %q: unknown measurement type %q", p.Name, p.MeasurementType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]string{p.Sensor, p.Measurement}
	if _, exists := s.plotIndex[key]; exists {
		s.logger.WithField("sensor", p.Sensor).WithField("measurement", p.Measurement).
			Warn("Duplicate plot registration dropped; first wins")
		return fmt.Errorf("plot for %s/%s already registered", p.Sensor, p.Measurement)
	}
	s.plotIndex[key] = len(s.plots)
	s.plots = append(s.plots, p)
	return nil
}

// RegisterMarker adds a marker descriptor, keyed by attribute key.
func (s *Store) RegisterMarker(m Marker) error {
	if err := s.validate.Struct(m); err != nil {
		return fmt.Errorf("invalid marker descriptor %q: %w", m.DisplayName, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.markerIndex[m.AttributeKey]; exists {
		s.logger.WithField("attribute_key", m.AttributeKey).
			Warn("Duplicate marker registration dropped; first wins")
		return fmt.Errorf("marker for %s already registered", m.AttributeKey)
	}
	s.markerIndex[m.AttributeKey] = len(s.markers)
	s.markers = append(s.markers, m)
	return nil
}

// LookupPlot returns the plot descriptor for (sensor, measurement).
func (s *Store) LookupPlot(sensor, measurement string) (Plot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.plotIndex[[2]string{sensor, measurement}]
	if !ok {
		return Plot{}, false
	}
	return s.plots[i], true
}

// LookupMarker returns the marker descriptor for an attribute key.
func (s *Store) LookupMarker(attributeKey string) (Marker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.markerIndex[attributeKey]
	if !ok {
		return Marker{}, false
	}
	return s.markers[i], true
}

// Plots returns all registered plot descriptors in registration order.
func (s *Store) Plots() []Plot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Plot, len(s.plots))
	copy(out, s.plots)
	return out
}

// Markers returns all registered marker descriptors in registration order.
func (s *Store) Markers() []Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Marker, len(s.markers))
	copy(out, s.markers)
	return out
}
