package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	mylisp "github.com/NKalu/myLISP/core"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose a running core as MCP tools over stdio",
	Long: `Connect to a core started with "mylisp serve" and serve its operations
as Model Context Protocol tools on stdin/stdout.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

// coreClient forwards requests over a single connection. Requests are
// serialized because responses carry no ordering beyond the stream itself.
type coreClient struct {
	mu   sync.Mutex
	conn io.ReadWriter
}

func (c *coreClient) send(req map[string]any) (map[string]any, error) {
	req["id"] = mylisp.NextID()
	c.mu.Lock()
	defer c.mu.Unlock()
	return roundTrip(c.conn, req)
}

// formatResult turns a core response into an MCP tool result.
func formatResult(resp map[string]any) (*mcp.CallToolResult, error) {
	ok, _ := resp["ok"].(bool)
	if !ok {
		errMsg, _ := resp["error"].(string)
		if errMsg == "" {
			errMsg = "unknown error"
		}
		return mcp.NewToolResultError(errMsg), nil
	}
	if s, isString := resp["value"].(string); isString {
		if kind, _ := resp["error_kind"].(string); kind != "" {
			return mcp.NewToolResultError(s), nil
		}
		return mcp.NewToolResultText(s), nil
	}
	out, err := json.MarshalIndent(resp["value"], "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (c *coreClient) forward(req map[string]any) (*mcp.CallToolResult, error) {
	resp, err := c.send(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return formatResult(resp)
}

func (c *coreClient) handleEval(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expr, err := request.RequireString("expr")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return c.forward(map[string]any{"op": "eval", "expr": expr})
}

func (c *coreClient) handleGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return c.forward(map[string]any{"op": "get", "name": name})
}

func (c *coreClient) handleSymbols(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.forward(map[string]any{"op": "symbols"})
}

func (c *coreClient) handleTraces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := map[string]any{"op": "traces"}
	if limit := request.GetInt("limit", -1); limit >= 0 {
		req["limit"] = limit
	}
	return c.forward(req)
}

func (c *coreClient) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.forward(map[string]any{"op": "reset"})
}

func newMCPServer(c *coreClient) *server.MCPServer {
	s := server.NewMCPServer(
		"mylisp",
		Version,
		server.WithToolCapabilities(false),
	)

	s.AddTool(
		mcp.NewTool("mylisp_eval",
			mcp.WithDescription("Evaluate an expression in the shared environment. Returns the rendered result."),
			mcp.WithString("expr",
				mcp.Required(),
				mcp.Description("Expression to evaluate, e.g. (join {1 2} {3})"),
			),
		),
		c.handleEval,
	)

	s.AddTool(
		mcp.NewTool("mylisp_get",
			mcp.WithDescription("Render the value bound to a symbol."),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Symbol name"),
			),
		),
		c.handleGet,
	)

	s.AddTool(
		mcp.NewTool("mylisp_symbols",
			mcp.WithDescription("List every bound symbol in definition order, builtins first."),
		),
		c.handleSymbols,
	)

	s.AddTool(
		mcp.NewTool("mylisp_traces",
			mcp.WithDescription("Return recent evaluation traces, oldest first."),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of traces to return"),
			),
		),
		c.handleTraces,
	)

	s.AddTool(
		mcp.NewTool("mylisp_reset",
			mcp.WithDescription("Drop every definition, clear traces and truncate the session log."),
		),
		c.handleReset,
	)

	return s
}

func runMCP(cmd *cobra.Command, args []string) error {
	network := viper.GetString("server.network")
	address := viper.GetString("server.address")
	conn, err := net.Dial(network, address)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", address, err)
	}
	defer conn.Close()
	log.WithField("address", address).Info("Connected to mylisp core")

	return server.ServeStdio(newMCPServer(&coreClient{conn: conn}))
}
