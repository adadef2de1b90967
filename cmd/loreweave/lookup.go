package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func storyCmd() *cobra.Command {
	var analyze bool
	cmd := &cobra.Command{
		Use:   "story <source>",
		Short: "Show merged story information",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := strings.Join(args, " ")
			tool := "get_story_info"
			if analyze {
				tool = "analyze_story_elements"
			}
			return withApp(cmd, func(a *app) error {
				return a.call(cmd, tool, map[string]any{"source_name": source})
			})
		},
	}
	cmd.Flags().BoolVar(&analyze, "analyze", false, "Show tone, complexity and scale instead")
	return cmd
}

func characterCmd() *cobra.Command {
	var source, arc string
	cmd := &cobra.Command{
		Use:   "character <name>",
		Short: "Show merged character data",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(source) == "" {
				return fmt.Errorf("--source is required")
			}
			return withApp(cmd, func(a *app) error {
				return a.call(cmd, "get_character_data", map[string]any{
					"character_name": strings.Join(args, " "),
					"source_name":    source,
					"arc_context":    arc,
				})
			})
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Story the character belongs to")
	cmd.Flags().StringVar(&arc, "arc", "", "Arc context")
	return cmd
}

func locationCmd() *cobra.Command {
	var source, period string
	cmd := &cobra.Command{
		Use:   "location <name>",
		Short: "Show merged location data",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(source) == "" {
				return fmt.Errorf("--source is required")
			}
			return withApp(cmd, func(a *app) error {
				return a.call(cmd, "get_location_data", map[string]any{
					"location_name": strings.Join(args, " "),
					"source_name":   source,
					"time_period":   period,
				})
			})
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Story the location belongs to")
	cmd.Flags().StringVar(&period, "period", "", "Time period")
	return cmd
}

func searchCmd() *cobra.Command {
	var (
		source, contentType string
		limit               int
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search characters, locations and stories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(source) == "" {
				return fmt.Errorf("--source is required")
			}
			return withApp(cmd, func(a *app) error {
				return a.call(cmd, "search_story_content", map[string]any{
					"source_name":  source,
					"query":        strings.Join(args, " "),
					"content_type": contentType,
					"limit":        limit,
				})
			})
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Story to search in")
	cmd.Flags().StringVar(&contentType, "type", "", "Restrict to character, location or story")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum results")
	return cmd
}

func validateCmd() *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "validate <type> <name>",
		Short: "Check that a story element exists",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(source) == "" {
				return fmt.Errorf("--source is required")
			}
			return withApp(cmd, func(a *app) error {
				return a.call(cmd, "validate_story_element", map[string]any{
					"source_name":  source,
					"element_type": args[0],
					"element_name": strings.Join(args[1:], " "),
				})
			})
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Story the element belongs to")
	return cmd
}
