package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flysightviewer/flysightviewer/pkg/engine"
	"github.com/flysightviewer/flysightviewer/pkg/units"
)

func newEvalCommand() *cobra.Command {
	var (
		limit      int
		unitSystem string
		unitType   string
	)

	cmd := &cobra.Command{
		Use:   "eval <file> <key>",
		Short: "Resolve a measurement or attribute from a log file",
		Long: `Import a log file and resolve one key through the evaluator.

Keys use SENSOR/name for measurements and @name for attributes:
raw data is returned as imported; registered producers compute
everything else on demand.`,
		Example: `  # Raw GNSS vertical speed
  fsv eval 12-34-56.CSV GNSS/velD

  # Computed flight duration
  fsv eval 12-34-56.CSV @_DURATION

  # Allan deviation of the X gyro, first 10 points
  fsv eval 12-34-56.CSV ALLAN_ADEV/adev_wx --limit 10

  # Pitot airspeed converted for display
  fsv eval 12-34-56.CSV PITOT/airspeed --unit-type speed --units Imperial`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, err := parseKey(args[1])
			if err != nil {
				return err
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close(ctx)

			session, err := a.importSession(ctx, args[0])
			if err != nil {
				return err
			}
			defer session.Close()

			result, err := a.evaluator.Resolve(session, key)
			if err != nil {
				var ee *engine.EngineError
				if errors.As(err, &ee) {
					return fmt.Errorf("resolve %s: %s", key, ee.Message)
				}
				return err
			}

			return printResult(key, result, limit, unitType, unitSystem)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "print at most N samples (0 = all)")
	cmd.Flags().StringVar(&unitSystem, "units", "", "convert for display (Metric, Imperial)")
	cmd.Flags().StringVar(&unitType, "unit-type", "", "measurement type for display conversion")

	return cmd
}

func printResult(key engine.Key, result engine.Result, limit int, unitType, unitSystem string) error {
	series := result.Series
	if result.Available && key.Kind == engine.KindMeasurement && unitType != "" && unitSystem != "" {
		series = units.ConvertSeries(unitType, units.System(unitSystem), series)
	}

	if jsonOutput {
		out := map[string]any{
			"key":       key.String(),
			"available": result.Available,
		}
		if result.Fault {
			out["fault"] = true
		}
		if result.Available {
			if key.Kind == engine.KindMeasurement {
				out["samples"] = len(series)
				if limit > 0 && limit < len(series) {
					out["series"] = series[:limit]
				} else {
					out["series"] = series
				}
			} else {
				out["value"] = result.Value
			}
		}
		return json.NewEncoder(os.Stdout).Encode(out)
	}

	if !result.Available {
		if result.Fault {
			fmt.Printf("%s: unavailable (producer fault)\n", key)
		} else {
			fmt.Printf("%s: unavailable\n", key)
		}
		return nil
	}
	if key.Kind == engine.KindAttribute {
		fmt.Printf("%s = %v\n", key, result.Value)
		return nil
	}

	n := len(series)
	shown := n
	if limit > 0 && limit < n {
		shown = limit
	}
	fmt.Printf("%s: %d samples\n", key, n)
	for i := 0; i < shown; i++ {
		fmt.Printf("  [%d] %g\n", i, series[i])
	}
	if shown < n {
		fmt.Printf("  ... %d more\n", n-shown)
	}
	return nil
}
