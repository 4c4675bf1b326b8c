// Package mcp exposes the action router as Model Context Protocol tools.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/3n8/openclaw-plugins/internal/actionerr"
	"github.com/3n8/openclaw-plugins/internal/actions"
	"github.com/3n8/openclaw-plugins/internal/adapter"
	"github.com/3n8/openclaw-plugins/internal/gateway"
	"github.com/3n8/openclaw-plugins/internal/params"
)

const (
	ToolAction      = "matrix_action"
	ToolListActions = "matrix_list_actions"
)

type Gateway interface {
	Dispatch(ctx context.Context, transport, verb string, raw params.Params) (actions.Result, error)
	ListActions() []string
	Verbs() []actions.VerbInfo
}

type Server struct {
	gateway Gateway
	logger  *slog.Logger
	server  *sdkmcp.Server
}

func NewServer(gw Gateway, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(version) == "" {
		version = "dev"
	}
	s := &Server{
		gateway: gw,
		logger:  logger.With("component", "mcp"),
		server:  sdkmcp.NewServer(&sdkmcp.Implementation{Name: "matrix-actions", Version: version}, nil),
	}
	s.server.AddTool(actionTool(), s.handleAction)
	s.server.AddTool(&sdkmcp.Tool{
		Name:        ToolListActions,
		Description: "List the Matrix actions enabled by the current configuration and the router verbs with their parameters.",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
	}, s.handleListActions)
	return s
}

// Run serves one session over transport until ctx ends or the peer leaves.
func (s *Server) Run(ctx context.Context, transport sdkmcp.Transport) error {
	s.logger.Info("mcp server started")
	err := s.server.Run(ctx, transport)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	s.logger.Info("mcp server stopped")
	return nil
}

// RunStdio serves over the process's stdin and stdout.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.Run(ctx, &sdkmcp.StdioTransport{})
}

// Handler serves streamable HTTP sessions.
func (s *Server) Handler() http.Handler {
	return sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server { return s.server }, nil)
}

func actionTool() *sdkmcp.Tool {
	verbs := []any{}
	for _, info := range actions.Verbs() {
		verbs = append(verbs, info.Verb)
	}
	return &sdkmcp.Tool{
		Name: ToolAction,
		Description: "Run a Matrix action. Set action to a router verb and pass its parameters alongside, " +
			"for example {\"action\":\"react\",\"roomId\":\"!room:server\",\"emoji\":\"👍\"}.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"action":    map[string]any{"type": "string", "enum": verbs},
				"roomId":    map[string]any{"type": "string"},
				"messageId": map[string]any{"type": "string"},
				"accountId": map[string]any{"type": "string"},
			},
			"required":             []any{"action"},
			"additionalProperties": true,
		},
	}
}

func (s *Server) handleAction(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
	args := params.Params{}
	if req != nil && req.Params != nil && len(req.Params.Arguments) > 0 {
		decoder := json.NewDecoder(bytes.NewReader(req.Params.Arguments))
		decoder.UseNumber()
		if err := decoder.Decode(&args); err != nil {
			return errorResult(&actionerr.InvalidParameterError{Field: "arguments", Reason: err.Error()}), nil
		}
	}
	verb, _ := args["action"].(string)
	verb = strings.TrimSpace(verb)
	if verb == "" {
		return errorResult(&actionerr.MissingParameterError{Field: "action"}), nil
	}
	if send, ok := adapter.ExtractToolSend(args); ok {
		s.logger.Info("tool send", "to", send.To, "account_id", send.AccountID)
	}
	delete(args, "action")
	result, err := s.gateway.Dispatch(ctx, gateway.TransportMCP, verb, args)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(result)
}

func (s *Server) handleListActions(context.Context, *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
	return jsonResult(map[string]any{
		"actions": s.gateway.ListActions(),
		"verbs":   s.gateway.Verbs(),
	})
}

func jsonResult(payload any) (*sdkmcp.CallToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return &sdkmcp.CallToolResult{Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(raw)}}}, nil
}

// errorResult reports action failures in-band so the calling model sees the
// error kind instead of a transport fault.
func errorResult(err error) *sdkmcp.CallToolResult {
	body := map[string]any{
		"error": err.Error(),
		"kind":  actionerr.Kind(err),
	}
	if added, ok := actionerr.Added(err); ok {
		if added == nil {
			added = []string{}
		}
		body["added"] = added
	}
	raw, _ := json.Marshal(body)
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(raw)}},
	}
}
