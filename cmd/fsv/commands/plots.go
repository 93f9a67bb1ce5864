package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flysightviewer/flysightviewer/pkg/units"
)

func newPlotsCommand() *cobra.Command {
	var unitSystem string

	cmd := &cobra.Command{
		Use:   "plots",
		Short: "List registered plot and marker descriptors",
		Long: `List the display metadata registered by plugins: plot curves with
their source measurement and display units, and markers with the
attribute that positions them.`,
		Example: `  # List plots with metric display units
  fsv plots

  # Show the imperial unit labels instead
  fsv plots --units Imperial`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())

			system := units.System(unitSystem)

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"plots":   a.plots.Plots(),
					"markers": a.plots.Markers(),
				})
			}

			fmt.Println("Plots:")
			for _, p := range a.plots.Plots() {
				label := p.Units
				if p.MeasurementType != "" {
					if spec, ok := units.Lookup(p.MeasurementType, system); ok {
						label = spec.Label
					}
				}
				fmt.Printf("  %-16s %-24s %s/%s [%s]\n", p.Category, p.Name, p.Sensor, p.Measurement, label)
			}

			fmt.Println("Markers:")
			for _, m := range a.plots.Markers() {
				editable := ""
				if m.Editable {
					editable = " (editable)"
				}
				fmt.Printf("  %-16s %-24s @%s%s\n", m.Category, m.DisplayName, m.AttributeKey, editable)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&unitSystem, "units", "Metric", "unit system for display labels (Metric, Imperial)")

	return cmd
}
