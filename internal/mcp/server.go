package mcp

import (
	"context"
	"os"

	"github.com/michaelquigley/df/dl"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"loreweave/internal/tools"
)

// Dispatcher runs catalog tools; *tools.Dispatcher implements it.
type Dispatcher interface {
	Catalog() []tools.Tool
	Call(ctx context.Context, name string, args map[string]any) (*tools.Result, error)
}

type Server struct {
	dispatcher Dispatcher
	mcp        *sdk.Server
}

// NewServer builds the MCP server. logOpts configures the SDK's own logger;
// nil means the default options writing to stderr.
func NewServer(dispatcher Dispatcher, version string, logOpts *dl.Options) *Server {
	if logOpts == nil {
		logOpts = dl.DefaultOptions().SetOutput(os.Stderr)
	}
	s := &Server{
		dispatcher: dispatcher,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "loreweave",
			Version: version,
		}, &sdk.ServerOptions{Logger: dl.NewChannelManager(logOpts).GetDefaultLogger()}),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
