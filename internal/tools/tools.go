// Package tools implements the MCP tools exposed by the server. Every tool
// validates its inputs, borrows the shared browser session, delegates to the
// driver, and shapes a structured JSON result.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"browser-mcp/internal/browser"
	"browser-mcp/internal/urlcheck"
)

// Tool is one callable operation served over the MCP transport.
type Tool interface {
	Name() string
	Descriptor() mcp.Tool
	Execute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Deps are shared by all tools.
type Deps struct {
	Session     *browser.Session
	Checker     *urlcheck.Validator
	Log         *zap.Logger
	DownloadDir string
	HTTPClient  *http.Client
}

// All returns every tool served by this process.
func All(deps Deps) []Tool {
	if deps.HTTPClient == nil {
		deps.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	return []Tool{
		NewFetchURLTool(deps),
		NewFindElementsTool(deps),
		NewClickElementTool(deps),
		NewRunJSTool(deps),
		NewWebSearchTool(deps),
		NewDownloadPDFsTool(deps),
		NewConvertToMarkdownTool(deps),
		NewCaptureScreenshotTool(deps),
	}
}

// decodeArgs unpacks tool arguments arriving either as a JSON string or as
// an already-decoded object.
func decodeArgs(req mcp.CallToolRequest, out any) error {
	switch arg := req.Params.Arguments.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(arg) == "" {
			return nil
		}
		return json.Unmarshal([]byte(arg), out)
	default:
		data, err := json.Marshal(arg)
		if err != nil {
			return fmt.Errorf("invalid arguments: %w", err)
		}
		return json.Unmarshal(data, out)
	}
}

// textResult marshals a tool output into an MCP text result.
func textResult(v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

// meta returns the base metadata every tool result carries.
func meta(start time.Time) map[string]any {
	return map[string]any{
		"duration_seconds": float64(time.Since(start).Milliseconds()) / 1000,
		"timestamp":        time.Now().Unix(),
	}
}

// isXPath reports whether a selector should be treated as XPath.
func isXPath(selector string) bool {
	return strings.HasPrefix(selector, "/") || strings.HasPrefix(selector, "xpath=")
}

// stripXPathPrefix drops an optional "xpath=" marker.
func stripXPathPrefix(selector string) string {
	return strings.TrimPrefix(selector, "xpath=")
}
