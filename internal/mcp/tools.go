package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/michaelquigley/df/dl"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"loreweave/internal/tools"
)

func (s *Server) registerTools() {
	for _, tool := range s.dispatcher.Catalog() {
		s.mcp.AddTool(&sdk.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: inputSchema(tool),
		}, s.handle(tool.Name))
	}
}

// inputSchema describes a catalog tool's arguments as a JSON object schema.
func inputSchema(tool tools.Tool) *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, len(tool.Args)),
		Required:   tool.Required(),
	}
	for _, arg := range tool.Args {
		prop := &jsonschema.Schema{Type: string(arg.Kind), Description: arg.Description}
		if arg.Kind == tools.KindStringList {
			prop.Items = &jsonschema.Schema{Type: "string"}
		}
		schema.Properties[arg.Name] = prop
	}
	return schema
}

func (s *Server) handle(name string) sdk.ToolHandler {
	return func(ctx context.Context, req *sdk.CallToolRequest) (*sdk.CallToolResult, error) {
		args, err := decodeArguments(req.Params.Arguments)
		if err != nil {
			return errorResult(&tools.Error{Code: tools.CodeInvalidParams, Message: "arguments must be a JSON object", Tool: name}), nil
		}

		result, err := s.dispatcher.Call(ctx, name, args)
		if err != nil {
			var toolErr *tools.Error
			if !errors.As(err, &toolErr) {
				toolErr = &tools.Error{Code: tools.CodeInternal, Message: err.Error(), Tool: name}
			}
			dl.ChannelLog("mcp").
				With("tool", name).
				With("code", toolErr.Code).
				With("message", toolErr.Message).
				Debug("tool call rejected")
			return errorResult(toolErr), nil
		}

		out := &sdk.CallToolResult{}
		for _, c := range result.Content {
			out.Content = append(out.Content, &sdk.TextContent{Text: c.Text})
		}
		return out, nil
	}
}

func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	args := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return args, nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	return args, nil
}

func errorResult(toolErr *tools.Error) *sdk.CallToolResult {
	text, _ := json.Marshal(toolErr)
	return &sdk.CallToolResult{
		IsError: true,
		Content: []sdk.Content{&sdk.TextContent{Text: string(text)}},
	}
}
