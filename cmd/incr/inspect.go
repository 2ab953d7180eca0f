package main

import (
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"incr/internal/depgraph"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [session-id]",
	Short: "Summarize persisted dep-graph state",
	Long: `Without arguments, lists recorded sessions with their node counts.
With a session id, prints per-kind node counts and saved work products
for that session.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	store, err := depgraph.Open(filepath.Join(rootFlag, cfg.StateDir), logger)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	if len(args) == 0 {
		return listSessions(cmd, store)
	}
	return inspectSession(cmd, store, args[0])
}

func listSessions(cmd *cobra.Command, store *depgraph.Store) error {
	sessions, err := store.Sessions()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		cmd.Println("No sessions recorded.")
		return nil
	}

	for _, s := range sessions {
		state := "in progress"
		if s.FinishedAt != nil {
			state = "finished " + s.FinishedAt.Format("2006-01-02 15:04:05")
		}
		cmd.Printf("%s  started %s  %s  %d nodes\n",
			s.ID, s.StartedAt.Format("2006-01-02 15:04:05"), state, s.NodeCount)
	}
	return nil
}

func inspectSession(cmd *cobra.Command, store *depgraph.Store, sessionID string) error {
	counts, err := store.KindCounts(sessionID)
	if err != nil {
		return err
	}

	kinds := make([]uint16, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	total := 0
	cmd.Printf("Session %s\n", sessionID)
	for _, k := range kinds {
		cmd.Printf("  kind %-5d %d nodes\n", k, counts[k])
		total += counts[k]
	}
	cmd.Printf("  total      %d nodes\n", total)

	products, err := store.WorkProducts(sessionID)
	if err != nil {
		return err
	}
	if len(products) > 0 {
		cmd.Println("Work products:")
		for _, wp := range products {
			cmd.Printf("  %s  %s -> %s\n", wp.ID, wp.UnitName, wp.Path)
		}
	}
	return nil
}
