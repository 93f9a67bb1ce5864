package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newSessionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Session catalog management",
		Long: `Inspect and manage the session catalog.

The catalog records every imported session: its stable ID, device,
source file and sample counts, plus any saved attribute snapshots.`,
	}

	cmd.AddCommand(newSessionsListCommand())
	cmd.AddCommand(newSessionsShowCommand())
	cmd.AddCommand(newSessionsDeleteCommand())

	return cmd
}

func newSessionsListCommand() *cobra.Command {
	var (
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalogued sessions",
		Example: `  # Most recent imports first
  fsv sessions list

  # Page through older imports
  fsv sessions list --limit 20 --offset 40`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close(ctx)

			store, err := a.openCatalog(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.ListSessions(ctx, limit, offset)
			if err != nil {
				return err
			}

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(records)
			}
			for _, rec := range records {
				fmt.Printf("%s  %s  device=%s  sensors=%d  samples=%d  %s\n",
					rec.ID, rec.ImportedAt.Format("2006-01-02 15:04"),
					rec.DeviceID, rec.SensorCount, rec.SampleCount, rec.SourcePath)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum sessions to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "sessions to skip")

	return cmd
}

func newSessionsShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show one session with its attribute snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close(ctx)

			store, err := a.openCatalog(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			rec, err := store.GetSession(ctx, args[0])
			if err != nil {
				return err
			}
			attrs, err := store.ListAttributes(ctx, rec.ID)
			if err != nil {
				return err
			}

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"session":    rec,
					"attributes": attrs,
				})
			}

			fmt.Printf("Session:   %s\n", rec.ID)
			fmt.Printf("Device:    %s\n", rec.DeviceID)
			fmt.Printf("Source:    %s (%s)\n", rec.SourcePath, rec.Format)
			fmt.Printf("Imported:  %s\n", rec.ImportedAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("Data:      %d sensors, %d samples\n", rec.SensorCount, rec.SampleCount)
			if len(attrs) > 0 {
				fmt.Println("Attributes:")
				for _, attr := range attrs {
					if attr.Available {
						fmt.Printf("  %-14s %s\n", attr.Name, attr.Value)
					} else {
						fmt.Printf("  %-14s (unavailable)\n", attr.Name)
					}
				}
			}
			return nil
		},
	}

	return cmd
}

func newSessionsDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session and its attribute snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close(ctx)

			store, err := a.openCatalog(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteSession(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted session %s\n", args[0])
			return nil
		},
	}

	return cmd
}
