package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/board/internal/model"
)

var refreshCmd = &cobra.Command{
	Use:     "refresh",
	Short:   "Ask the server to refetch tickets and users",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := boardClient.Refresh(cmd.Context())
		if err != nil {
			return fmt.Errorf("refresh: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), resp)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "loaded %d tickets, %d users\n", resp.Tickets, resp.Users)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check server health",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := boardClient.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("health: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]string{"status": status})
		}
		fmt.Fprintln(cmd.OutOrStdout(), status)
		return nil
	},
}

var snapshotCmd = &cobra.Command{
	Use:     "snapshot",
	Short:   "List the tickets and users the server's view is derived from",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := boardClient.GetSnapshot(cmd.Context())
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), snap)
		}
		return printSnapshot(cmd.OutOrStdout(), snap)
	},
}

// printSnapshot writes one row per ticket in source order. Owners that do
// not resolve print as "-".
func printSnapshot(w io.Writer, snap *model.Snapshot) error {
	if !snap.Loaded() {
		fmt.Fprintln(w, "(no snapshot loaded)")
		return nil
	}
	names := make(map[string]string, len(snap.Users))
	for _, u := range snap.Users {
		if _, dup := names[u.ID]; !dup {
			names[u.ID] = u.Name
		}
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tOWNER\tTITLE")
	for _, t := range snap.Tickets {
		owner, ok := names[t.OwnerID()]
		if !ok || owner == "" {
			owner = "-"
		}
		priority, err := t.Priority.Name()
		if err != nil {
			priority = fmt.Sprint(int(t.Priority))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Status, priority, owner, t.Title)
	}
	return tw.Flush()
}
