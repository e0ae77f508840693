package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"browser-mcp/internal/urlcheck"
)

var _ Tool = (*FetchURLTool)(nil)

// FetchURLTool navigates the shared browser to a URL and returns the fully
// loaded page.
type FetchURLTool struct {
	deps Deps
}

func NewFetchURLTool(deps Deps) *FetchURLTool {
	return &FetchURLTool{deps: deps}
}

func (t *FetchURLTool) Name() string { return "fetch_url" }

type fetchInput struct {
	URL string `json:"url"`
}

type fetchOutput struct {
	FinalURL string         `json:"final_url"`
	Title    string         `json:"title"`
	HTML     string         `json:"html"`
	Status   string         `json:"status"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata"`
}

func (t *FetchURLTool) Descriptor() mcp.Tool {
	return mcp.NewTool(t.Name(),
		mcp.WithDescription("Navigate the browser to a URL, wait for the page to fully load, and return the final URL, title, and complete HTML content."),
		mcp.WithString("url", mcp.Required(),
			mcp.Description("The complete URL to fetch (must include http:// or https://).")),
	)
}

func (t *FetchURLTool) Execute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()

	var in fetchInput
	if err := decodeArgs(req, &in); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	out := fetchOutput{FinalURL: in.URL, Status: "ok"}
	fail := func(err error) (*mcp.CallToolResult, error) {
		t.deps.Log.Warn("fetch_url failed", zap.String("url", in.URL), zap.Error(err))
		out.Status = "error"
		out.Error = err.Error()
		out.Metadata = meta(start)
		return textResult(out), nil
	}

	if err := t.deps.Checker.Validate(in.URL); err != nil {
		return fail(err)
	}
	target := urlcheck.Normalize(in.URL)

	err := t.deps.Session.WithPage(ctx, func(page *rod.Page) error {
		if err := page.Timeout(30 * time.Second).Navigate(target); err != nil {
			return fmt.Errorf("%w: %v", ErrNavigationFailed, err)
		}
		if err := page.Timeout(30 * time.Second).WaitLoad(); err != nil {
			return fmt.Errorf("%w: page load timeout: %v", ErrNavigationFailed, err)
		}
		_ = page.WaitIdle(5 * time.Second)

		info, err := page.Info()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNavigationFailed, err)
		}
		out.FinalURL = info.URL
		out.Title = cleanText(info.Title)

		html, err := page.HTML()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNavigationFailed, err)
		}
		out.HTML = html
		return nil
	})
	if err != nil {
		return fail(err)
	}

	out.Metadata = meta(start)
	out.Metadata["redirected"] = out.FinalURL != target
	out.Metadata["title_length"] = len(out.Title)
	out.Metadata["html_length"] = len(out.HTML)

	t.deps.Log.Info("fetch_url completed",
		zap.String("url", target),
		zap.String("final_url", out.FinalURL),
		zap.Int("html_length", len(out.HTML)))
	return textResult(out), nil
}
