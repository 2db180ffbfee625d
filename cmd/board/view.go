package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/board/internal/client"
	"github.com/alfredjeanlab/board/internal/rpc"
	"github.com/alfredjeanlab/board/internal/ui"
)

var viewCmd = &cobra.Command{
	Use:     "view",
	Short:   "Show tickets grouped and ordered by the current selectors",
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		grouping, _ := cmd.Flags().GetString("grouping")
		ordering, _ := cmd.Flags().GetString("ordering")
		return runView(cmd.Context(), boardClient, cmd.OutOrStdout(), grouping, ordering)
	},
}

var boardCmd = &cobra.Command{
	Use:     "board",
	Short:   "Render the board as columns of cards",
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		grouping, _ := cmd.Flags().GetString("grouping")
		ordering, _ := cmd.Flags().GetString("ordering")
		return runBoard(cmd.Context(), boardClient, cmd.OutOrStdout(), grouping, ordering)
	},
}

func runView(ctx context.Context, c client.BoardClient, w io.Writer, grouping, ordering string) error {
	v, err := c.GetView(ctx, grouping, ordering)
	if err != nil {
		return fmt.Errorf("get view: %w", err)
	}
	if jsonOutput {
		return printJSON(w, rpc.ViewBody{Selectors: v.Selectors, View: v.View})
	}
	fmt.Fprint(w, ui.RenderMuted(fmt.Sprintf("grouped by %s, ordered by %s", v.Selectors.Grouping, v.Selectors.Ordering))+"\n\n")
	fmt.Fprint(w, ui.RenderGroups(v.View))
	return nil
}

func runBoard(ctx context.Context, c client.BoardClient, w io.Writer, grouping, ordering string) error {
	b, err := c.GetBoard(ctx, grouping, ordering)
	if err != nil {
		return fmt.Errorf("get board: %w", err)
	}
	if jsonOutput {
		return printJSON(w, b)
	}
	fmt.Fprint(w, ui.NewBoardRenderer().Render(b.Columns))
	return nil
}

func init() {
	for _, cmd := range []*cobra.Command{viewCmd, boardCmd} {
		cmd.Flags().String("grouping", "", "group by status, user or priority for this call only")
		cmd.Flags().String("ordering", "", "order by priority or title for this call only")
	}
}
