package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

var _ Tool = (*ClickElementTool)(nil)

// ClickElementTool clicks the first element matching a selector and waits
// for any resulting navigation to settle.
type ClickElementTool struct {
	deps Deps
}

func NewClickElementTool(deps Deps) *ClickElementTool {
	return &ClickElementTool{deps: deps}
}

func (t *ClickElementTool) Name() string { return "click_element" }

type clickInput struct {
	Selector string `json:"selector"`
}

type clickOutput struct {
	Clicked  bool           `json:"clicked"`
	FinalURL string         `json:"final_url"`
	Selector string         `json:"selector"`
	Status   string         `json:"status"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata"`
}

func (t *ClickElementTool) Descriptor() mcp.Tool {
	return mcp.NewTool(t.Name(),
		mcp.WithDescription("Click the first element matched by a CSS or XPath selector on the current page, then wait for the page to go idle."),
		mcp.WithString("selector", mcp.Required(),
			mcp.Description(`CSS selector (e.g. "button#submit") or XPath (prefix with / or xpath=).`)),
	)
}

func (t *ClickElementTool) Execute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()

	var in clickInput
	if err := decodeArgs(req, &in); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	out := clickOutput{Selector: in.Selector, Status: "ok"}
	fail := func(err error) (*mcp.CallToolResult, error) {
		t.deps.Log.Warn("click_element failed", zap.String("selector", in.Selector), zap.Error(err))
		out.Status = "error"
		out.Error = err.Error()
		out.Metadata = meta(start)
		return textResult(out), nil
	}

	selector := strings.TrimSpace(in.Selector)
	if selector == "" {
		return fail(fmt.Errorf("selector is required"))
	}

	err := t.deps.Session.WithPage(ctx, func(page *rod.Page) error {
		scoped := page.Timeout(t.deps.Session.Timeout())

		var el *rod.Element
		var err error
		if isXPath(selector) {
			el, err = scoped.ElementX(stripXPathPrefix(selector))
		} else {
			el, err = scoped.Element(selector)
		}
		if err != nil {
			return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
		}

		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return fmt.Errorf("click failed: %w", err)
		}
		out.Clicked = true

		_ = page.WaitIdle(2 * time.Second)
		if info, err := page.Info(); err == nil {
			out.FinalURL = info.URL
		}
		return nil
	})
	if err != nil {
		return fail(err)
	}

	out.Metadata = meta(start)
	t.deps.Log.Info("click_element completed",
		zap.String("selector", selector),
		zap.String("final_url", out.FinalURL))
	return textResult(out), nil
}
