package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"incr/internal/depgraph"
)

var snapshotOut string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Export and verify dep-graph snapshot files",
}

var snapshotExportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a session's node table to a snapshot file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotExport,
}

var snapshotVerifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Read a snapshot file and report its node count",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotVerify,
}

func init() {
	snapshotExportCmd.Flags().StringVar(&snapshotOut, "out", "dep-graph.bin",
		"Output snapshot file")
	snapshotCmd.AddCommand(snapshotExportCmd)
	snapshotCmd.AddCommand(snapshotVerifyCmd)
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshotExport(cmd *cobra.Command, args []string) error {
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

	nodes, err := store.Nodes(args[0])
	if err != nil {
		return err
	}

	if err := depgraph.ExportSnapshot(snapshotOut, nodes, cfg.Snapshot.Compress); err != nil {
		return err
	}
	cmd.Printf("Exported %d nodes to %s\n", len(nodes), snapshotOut)
	return nil
}

func runSnapshotVerify(cmd *cobra.Command, args []string) error {
	nodes, err := depgraph.ImportSnapshot(args[0])
	if err != nil {
		return err
	}
	cmd.Printf("%s: %d nodes\n", args[0], len(nodes))
	return nil
}
