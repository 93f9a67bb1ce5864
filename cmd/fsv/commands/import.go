package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flysightviewer/flysightviewer/pkg/engine"
	"github.com/flysightviewer/flysightviewer/pkg/stores"
)

func newImportCommand() *cobra.Command {
	var noCatalog bool

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import log files into the session catalog",
		Long: `Import FlySight log files.

Each file is parsed (FS1 or FS2 format), assigned a stable session ID
derived from its content, and recorded in the session catalog.`,
		Example: `  # Import one flight
  fsv import 12-34-56.CSV

  # Import a whole device dump without touching the catalog
  fsv import --no-catalog /mnt/flysight/*.CSV`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close(ctx)

			var store *stores.SQLiteStore
			if !noCatalog {
				store, err = a.openCatalog(ctx)
				if err != nil {
					return err
				}
				defer store.Close()
			}

			type summary struct {
				SessionID string `json:"session_id"`
				DeviceID  string `json:"device_id"`
				Path      string `json:"path"`
				Sensors   int    `json:"sensors"`
			}
			var summaries []summary

			for _, path := range args {
				session, err := a.importSession(ctx, path)
				if err != nil {
					return fmt.Errorf("import %s: %w", path, err)
				}
				if !noCatalog {
					if err := a.recordSession(ctx, store, session, path); err != nil {
						return fmt.Errorf("catalog %s: %w", path, err)
					}
				}
				deviceID, _ := session.Var(engine.DeviceIDKey)
				summaries = append(summaries, summary{
					SessionID: session.ID(),
					DeviceID:  deviceID,
					Path:      path,
					Sensors:   len(session.SensorKeys()),
				})
				session.Close()
			}

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(summaries)
			}
			for _, s := range summaries {
				fmt.Printf("%s  device=%s  sensors=%d  %s\n", s.SessionID, s.DeviceID, s.Sensors, s.Path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCatalog, "no-catalog", false, "skip recording in the session catalog")

	return cmd
}
