package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/flysightviewer/flysightviewer/pkg/engine"
	"github.com/flysightviewer/flysightviewer/pkg/stores"
)

func newAttrsCommand() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "attrs <file>",
		Short: "Resolve the standard session attributes",
		Long: `Import a log file and resolve the standard attribute set: session
and device identity plus the flight time attributes computed from the
GNSS track.`,
		Example: `  # Show attributes
  fsv attrs 12-34-56.CSV

  # Snapshot them into the session catalog
  fsv attrs 12-34-56.CSV --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
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

			resolved := resolveAttrs(session)

			if save {
				store, err := a.openCatalog(ctx)
				if err != nil {
					return err
				}
				defer store.Close()
				if err := a.recordSession(ctx, store, session, args[0]); err != nil {
					return err
				}
				if err := saveAttrs(ctx, store, session.ID(), resolved); err != nil {
					return err
				}
			}

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(resolved)
			}
			for _, name := range standardAttrs {
				r := resolved[name]
				if r.Available {
					fmt.Printf("%-14s %v\n", name, r.Value)
				} else {
					fmt.Printf("%-14s (unavailable)\n", name)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "snapshot resolved attributes into the catalog")

	return cmd
}

type attrValue struct {
	Value     any  `json:"value,omitempty"`
	Available bool `json:"available"`
}

func resolveAttrs(session *engine.Session) map[string]attrValue {
	out := make(map[string]attrValue, len(standardAttrs))
	for _, name := range standardAttrs {
		if v, ok := session.GetAttribute(name); ok {
			out[name] = attrValue{Value: v, Available: true}
		} else {
			out[name] = attrValue{}
		}
	}
	return out
}

func saveAttrs(ctx context.Context, store stores.Store, sessionID string, resolved map[string]attrValue) error {
	now := time.Now().UTC()
	for name, r := range resolved {
		rec := &stores.AttributeRecord{
			SessionID:  sessionID,
			Name:       name,
			Available:  r.Available,
			ResolvedAt: now,
		}
		if r.Available {
			rec.Value = fmt.Sprintf("%v", r.Value)
		}
		if err := store.UpsertAttribute(ctx, rec); err != nil {
			return fmt.Errorf("save attribute %s: %w", name, err)
		}
	}
	return nil
}
