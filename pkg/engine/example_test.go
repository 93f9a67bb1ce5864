package engine_test

import (
	"fmt"

	"github.com/flysightviewer/flysightviewer/pkg/engine"
)

// Example_workflow demonstrates how the core types compose: a registry
// of producers, an evaluator, and a session holding imported data.
func Example_workflow() {
	// 1. Register producers during startup. A producer declares its
	// output key and the inputs its compute will request.
	registry := engine.NewRegistry(nil)
	_ = registry.Register(engine.MeasurementFunc{
		Key:     engine.MeasurementKey("GNSS", "speed2d"),
		Depends: []engine.Key{engine.MeasurementKey("GNSS", "velN"), engine.MeasurementKey("GNSS", "velE")},
		Fn: func(e *engine.Eval) ([]float64, bool) {
			velN, ok1 := e.GetMeasurement("GNSS", "velN")
			velE, ok2 := e.GetMeasurement("GNSS", "velE")
			if !ok1 || !ok2 {
				return nil, false
			}
			out := make([]float64, len(velN))
			for i := range velN {
				out[i] = velN[i]*velN[i] + velE[i]*velE[i]
			}
			return out, true
		},
	})

	// 2. Creating the evaluator seals the registry.
	evaluator := engine.NewEvaluator(registry, nil, nil, false)

	// 3. Import fills a session with raw measurement tables.
	session := engine.NewSession()
	evaluator.Adopt(session)
	session.SetMeasurement("GNSS", "velN", []float64{3, 0})
	session.SetMeasurement("GNSS", "velE", []float64{4, 5})

	// 4. Requests resolve lazily and cache terminally.
	speed, ok := session.GetMeasurement("GNSS", "speed2d")
	fmt.Println(ok, speed)

	// Unregistered keys resolve to unavailable, not an error.
	_, ok = session.GetMeasurement("GNSS", "missing")
	fmt.Println(ok)

	// Output:
	// true [25 25]
	// false
}
