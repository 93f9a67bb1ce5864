package engine

import "testing"

func TestKeyString(t *testing.T) {
	tests := []struct {
		key  Key
		want string
	}{
		{MeasurementKey("GNSS", "velD"), "GNSS/velD"},
		{MeasurementKey("ALLAN_ADEV", "common_taus"), "ALLAN_ADEV/common_taus"},
		{AttributeKey("_DURATION"), "@_DURATION"},
		{AttributeKey("SESSION_ID"), "@SESSION_ID"},
	}
	for _, tt := range tests {
		if got := tt.key.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestKeyEquality(t *testing.T) {
	if MeasurementKey("GNSS", "velD") != MeasurementKey("GNSS", "velD") {
		t.Error("identical measurement keys should compare equal")
	}
	if MeasurementKey("GNSS", "velD") == MeasurementKey("IMU", "velD") {
		t.Error("keys with different sensors should differ")
	}

	// Attribute and measurement namespaces never collide, even with the
	// same name.
	if AttributeKey("time") == MeasurementKey("", "time") {
		t.Error("attribute and measurement keys with the same name should differ")
	}

	cache := map[Key]int{
		MeasurementKey("GNSS", "velD"): 1,
		AttributeKey("velD"):           2,
	}
	if len(cache) != 2 {
		t.Fatalf("expected 2 distinct map entries, got %d", len(cache))
	}
	if cache[MeasurementKey("GNSS", "velD")] != 1 {
		t.Error("measurement key lookup failed")
	}
}

func TestKeyKindString(t *testing.T) {
	if KindAttribute.String() != "attribute" || KindMeasurement.String() != "measurement" {
		t.Errorf("unexpected kind names: %s, %s", KindAttribute, KindMeasurement)
	}
}
