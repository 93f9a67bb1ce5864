package plugins

import (
	"math"
	"testing"

	"github.com/flysightviewer/flysightviewer/pkg/engine"
)

// imuSession builds a session with an IMU time channel at 100 Hz and
// constant-ish accelerometer data, n samples long.
func imuSession(t *testing.T, ev *engine.Evaluator, n int) *engine.Session {
	t.Helper()
	s := engine.NewSession()
	ev.Adopt(s)

	times := make([]float64, n)
	ax := make([]float64, n)
	for i := 0; i < n; i++ {
		times[i] = float64(i) * 0.01
		// Small deterministic wobble around 1 g.
		ax[i] = 1.0 + 0.001*math.Sin(float64(i))
	}
	s.SetMeasurement("IMU", "time", times)
	s.SetMeasurement("IMU", "ax", ax)
	return s
}

func TestCommonTausRequiresMinSamples(t *testing.T) {
	ev := newBuiltinEvaluator(t)
	s := imuSession(t, ev, MinADEVSamples-1)

	if _, ok := s.GetMeasurement(ADEVSensor, CommonTaus); ok {
		t.Errorf("common_taus should be unavailable below %d samples", MinADEVSamples)
	}
}

func TestCommonTausOctaveSpacing(t *testing.T) {
	ev := newBuiltinEvaluator(t)
	s := imuSession(t, ev, MinADEVSamples)

	taus, ok := s.GetMeasurement(ADEVSensor, CommonTaus)
	if !ok || len(taus) == 0 {
		t.Fatalf("common_taus = %v (ok=%v)", taus, ok)
	}
	// 100 Hz: first tau is one sample period, then doubling.
	if math.Abs(taus[0]-0.01) > 1e-9 {
		t.Errorf("taus[0] = %g, want 0.01", taus[0])
	}
	for i := 1; i < len(taus); i++ {
		if math.Abs(taus[i]-2*taus[i-1]) > 1e-9 {
			t.Errorf("taus[%d] = %g, want double of %g", i, taus[i], taus[i-1])
		}
	}
}

func TestADEVUnavailableBelowMinSamples(t *testing.T) {
	ev := newBuiltinEvaluator(t)
	s := imuSession(t, ev, 500)

	if _, ok := s.GetMeasurement(ADEVSensor, "adev_ax"); ok {
		t.Error("adev_ax should be unavailable on a short recording")
	}
}

func TestADEVComputes(t *testing.T) {
	ev := newBuiltinEvaluator(t)
	s := imuSession(t, ev, 4000)

	taus, ok := s.GetMeasurement(ADEVSensor, CommonTaus)
	if !ok {
		t.Fatal("common_taus unavailable")
	}
	adevs, ok := s.GetMeasurement(ADEVSensor, "adev_ax")
	if !ok {
		t.Fatal("adev_ax unavailable")
	}
	if len(adevs) != len(taus) {
		t.Errorf("adev length %d != tau length %d", len(adevs), len(taus))
	}
	for i, a := range adevs {
		if a < 0 || math.IsNaN(a) {
			t.Errorf("adevs[%d] = %g, want finite non-negative", i, a)
		}
	}
}

func TestADEVUnavailableWithoutAxisData(t *testing.T) {
	ev := newBuiltinEvaluator(t)
	s := imuSession(t, ev, 4000)

	// Time exists, gyro channels were never recorded.
	if _, ok := s.GetMeasurement(ADEVSensor, "adev_wx"); ok {
		t.Error("adev_wx should be unavailable without the wx channel")
	}
}

func TestADEVFuncInjection(t *testing.T) {
	orig := ADEVFunc
	defer func() { ADEVFunc = orig }()

	var gotRate float64
	var gotData []float64
	ADEVFunc = func(data []float64, rate float64, taus []float64) ([]float64, []float64, error) {
		gotRate = rate
		gotData = data
		out := make([]float64, len(taus))
		for i := range out {
			out[i] = 1
		}
		return taus, out, nil
	}

	ev := newBuiltinEvaluator(t)
	s := imuSession(t, ev, MinADEVSamples)

	adevs, ok := s.GetMeasurement(ADEVSensor, "adev_ax")
	if !ok {
		t.Fatal("adev_ax unavailable with injected estimator")
	}
	if math.Abs(gotRate-100) > 1e-6 {
		t.Errorf("injected estimator saw rate %g, want 100", gotRate)
	}
	// Raw g values are converted to SI before estimation.
	if len(gotData) == 0 || math.Abs(gotData[0]-accelToSI) > 0.1 {
		t.Errorf("expected SI-converted data, first sample %g", gotData[0])
	}
	for _, a := range adevs {
		if a != 1 {
			t.Errorf("expected injected deviations, got %g", a)
		}
	}
}

func TestOverlappingADEVWhiteNoiseSlope(t *testing.T) {
	// White noise: ADEV falls roughly as 1/sqrt(tau), so doubling tau
	// should reduce the deviation.
	n := 8192
	data := make([]float64, n)
	seed := uint64(12345)
	for i := range data {
		// xorshift, deterministic across runs
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		data[i] = float64(seed%2000)/1000.0 - 1.0
	}

	taus := []float64{0.01, 0.08, 0.64}
	outTaus, adevs, err := overlappingADEV(data, 100, taus)
	if err != nil {
		t.Fatalf("overlappingADEV: %v", err)
	}
	if len(outTaus) != len(adevs) {
		t.Fatalf("axis mismatch: %d taus, %d deviations", len(outTaus), len(adevs))
	}
	for i := 1; i < len(adevs); i++ {
		if adevs[i] >= adevs[i-1] {
			t.Errorf("white-noise ADEV should decrease with tau: adev[%d]=%g >= adev[%d]=%g",
				i, adevs[i], i-1, adevs[i-1])
		}
	}
}

func TestOverlappingADEVRejectsShortInput(t *testing.T) {
	if _, _, err := overlappingADEV([]float64{1, 2}, 100, []float64{0.01}); err == nil {
		t.Error("expected error for short input")
	}
	if _, _, err := overlappingADEV([]float64{1, 2, 3}, 0, []float64{0.01}); err == nil {
		t.Error("expected error for non-positive rate")
	}
}
