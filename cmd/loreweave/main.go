package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:          "loreweave",
		Short:        "Anime and manga lore aggregation served over MCP",
		SilenceUsage: true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "loreweave.yaml", "Path to the YAML config file")

	root.AddCommand(serveCmd())
	root.AddCommand(storyCmd())
	root.AddCommand(characterCmd())
	root.AddCommand(locationCmd())
	root.AddCommand(searchCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(adventureCmd())
	root.AddCommand(cacheCmd())
	root.AddCommand(versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
