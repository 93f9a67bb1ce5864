package engine

import (
	"errors"
	"testing"
)

func constProducer(key Key, value float64) MeasurementProducer {
	return MeasurementFunc{
		Key: key,
		Fn: func(e *Eval) ([]float64, bool) {
			return []float64{value}, true
		},
	}
}

func TestRegisterFirstWins(t *testing.T) {
	reg := NewRegistry(nil)
	key := MeasurementKey("GNSS", "velD")

	if err := reg.Register(constProducer(key, 1)); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}

	err := reg.Register(constProducer(key, 2))
	if err == nil {
		t.Fatal("duplicate registration should return an error")
	}
	var ee *EngineError
	if !errors.As(err, &ee) || ee.Code != ErrCodeDuplicateProducer {
		t.Fatalf("expected DUPLICATE_PRODUCER, got %v", err)
	}

	// First registration must remain in place.
	p, ok := reg.Lookup(key)
	if !ok {
		t.Fatal("key should still be registered")
	}
	series, _ := p.(MeasurementProducer).Compute(nil)
	if series[0] != 1 {
		t.Errorf("expected first producer to win, got value %g", series[0])
	}
	if reg.Len() != 1 {
		t.Errorf("expected 1 producer, got %d", reg.Len())
	}
}

func TestSealIsOneWay(t *testing.T) {
	reg := NewRegistry(nil)
	if reg.Sealed() {
		t.Fatal("new registry should not be sealed")
	}

	if err := reg.Register(constProducer(MeasurementKey("A", "x"), 1)); err != nil {
		t.Fatalf("registration before seal failed: %v", err)
	}

	reg.Seal()
	reg.Seal() // idempotent
	if !reg.Sealed() {
		t.Fatal("registry should be sealed")
	}

	err := reg.Register(constProducer(MeasurementKey("A", "y"), 2))
	var ee *EngineError
	if !errors.As(err, &ee) || ee.Code != ErrCodeRegistrySealed {
		t.Fatalf("expected REGISTRY_SEALED, got %v", err)
	}
	if _, ok := reg.Lookup(MeasurementKey("A", "y")); ok {
		t.Error("registration after seal must not take effect")
	}
}

func TestKeysSorted(t *testing.T) {
	reg := NewRegistry(nil)
	keys := []Key{
		MeasurementKey("IMU", "ax"),
		MeasurementKey("GNSS", "velD"),
		AttributeKey("_DURATION"),
		MeasurementKey("GNSS", "hMSL"),
	}
	for _, k := range keys {
		if err := reg.Register(constProducer(k, 0)); err != nil {
			t.Fatalf("register %s: %v", k, err)
		}
	}

	got := reg.Keys()
	want := []Key{
		AttributeKey("_DURATION"),
		MeasurementKey("GNSS", "hMSL"),
		MeasurementKey("GNSS", "velD"),
		MeasurementKey("IMU", "ax"),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keys()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
