package main

import (
	"github.com/spf13/cobra"
)

func adventureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adventure",
		Short: "Inspect stored adventures",
	}
	cmd.AddCommand(adventureShowCmd())
	return cmd
}

func adventureShowCmd() *cobra.Command {
	var events int
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print an adventure's context and recent events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				return a.call(cmd, "get_adventure_state", map[string]any{
					"adventure_id": args[0],
					"event_limit":  events,
				})
			})
		},
	}
	cmd.Flags().IntVar(&events, "events", 20, "Number of recent events to show")
	return cmd
}
