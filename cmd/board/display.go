package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var displayCmd = &cobra.Command{
	Use:     "display",
	Short:   "Show the stored grouping and ordering",
	GroupID: "display",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sel, err := boardClient.GetSelectors(cmd.Context())
		if err != nil {
			return fmt.Errorf("get selectors: %w", err)
		}
		return printSelectors(cmd.OutOrStdout(), sel)
	},
}

var groupCmd = &cobra.Command{
	Use:       "group <status|user|priority>",
	Short:     "Set how tickets are grouped",
	GroupID:   "display",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"status", "user", "priority"},
	RunE: func(cmd *cobra.Command, args []string) error {
		sel, err := boardClient.SetSelectors(cmd.Context(), &args[0], nil)
		if err != nil {
			return fmt.Errorf("set grouping: %w", err)
		}
		return printSelectors(cmd.OutOrStdout(), sel)
	},
}

var orderCmd = &cobra.Command{
	Use:       "order <priority|title>",
	Short:     "Set how tickets are ordered within a group",
	GroupID:   "display",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"priority", "title"},
	RunE: func(cmd *cobra.Command, args []string) error {
		sel, err := boardClient.SetSelectors(cmd.Context(), nil, &args[0])
		if err != nil {
			return fmt.Errorf("set ordering: %w", err)
		}
		return printSelectors(cmd.OutOrStdout(), sel)
	},
}
