package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/michaelquigley/df/dl"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"loreweave/internal/httpapi"
	"loreweave/internal/mcp"
)

func serveCmd() *cobra.Command {
	var (
		withHTTP bool
		addr     string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				if addr == "" {
					addr = a.cfg.Server.HTTPAddr
				}
				return runServe(cmd.Context(), a, withHTTP, addr)
			})
		},
	}
	cmd.Flags().BoolVar(&withHTTP, "http", false, "Also serve the REST tool API")
	cmd.Flags().StringVar(&addr, "addr", "", "REST listen address (defaults to server.http_addr)")
	return cmd
}

func runServe(ctx context.Context, a *app, withHTTP bool, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpErr := make(chan error, 1)
	if withHTTP {
		srv := &http.Server{
			Addr:              addr,
			Handler:           httpapi.NewHandler(a.dispatcher).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			dl.Log().With("addr", addr).Info("rest api listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				httpErr <- err
				cancel()
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			srv.Shutdown(shutdownCtx)
		}()
	}

	server := mcp.NewServer(a.dispatcher, version, a.logOpts)
	dl.Log().With("name", a.cfg.Server.Name).With("transport", "stdio").Info("mcp server starting")
	err := server.Run(ctx, &sdk.StdioTransport{})
	dl.Log().With("cache", a.cache.Stats()).Info("mcp server stopped")

	select {
	case herr := <-httpErr:
		return herr
	default:
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
