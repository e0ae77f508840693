package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

const (
	defaultMaxElements = 10
	maxElementsCap     = 50
	elementTextLimit   = 500
)

var _ Tool = (*FindElementsTool)(nil)

// FindElementsTool locates elements on the current page by CSS or XPath
// selector and reports their tag, text, attributes, and visibility.
type FindElementsTool struct {
	deps Deps
}

func NewFindElementsTool(deps Deps) *FindElementsTool {
	return &FindElementsTool{deps: deps}
}

func (t *FindElementsTool) Name() string { return "find_elements" }

type findElementsInput struct {
	Selector   string `json:"selector"`
	MaxResults int    `json:"max_results,omitempty"`
}

// ElementInfo describes a single matched element.
type ElementInfo struct {
	TagName    string            `json:"tag_name"`
	Text       string            `json:"text"`
	Attributes map[string]string `json:"attributes"`
	Visible    bool              `json:"visible"`
}

type findElementsOutput struct {
	Elements []ElementInfo  `json:"elements"`
	Count    int            `json:"count"`
	Selector string         `json:"selector"`
	Status   string         `json:"status"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata"`
}

func (t *FindElementsTool) Descriptor() mcp.Tool {
	return mcp.NewTool(t.Name(),
		mcp.WithDescription("Find elements on the current page by CSS selector (or XPath when the selector starts with / or xpath=). Returns tag names, text content, attributes, and visibility."),
		mcp.WithString("selector", mcp.Required(),
			mcp.Description(`CSS selector (e.g. "h1", "a.nav-link") or XPath (e.g. "//button[text()='Go']").`)),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of elements to return (default 10, capped at 50).")),
	)
}

func (t *FindElementsTool) Execute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()

	var in findElementsInput
	if err := decodeArgs(req, &in); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	out := findElementsOutput{Selector: in.Selector, Status: "ok", Elements: []ElementInfo{}}
	fail := func(err error) (*mcp.CallToolResult, error) {
		t.deps.Log.Warn("find_elements failed", zap.String("selector", in.Selector), zap.Error(err))
		out.Status = "error"
		out.Error = err.Error()
		out.Metadata = meta(start)
		return textResult(out), nil
	}

	selector := strings.TrimSpace(in.Selector)
	if selector == "" {
		return fail(fmt.Errorf("selector is required"))
	}
	limit := in.MaxResults
	if limit <= 0 {
		limit = defaultMaxElements
	}
	if limit > maxElementsCap {
		limit = maxElementsCap
	}

	err := t.deps.Session.WithPage(ctx, func(page *rod.Page) error {
		scoped := page.Timeout(t.deps.Session.Timeout())

		var els rod.Elements
		var err error
		if isXPath(selector) {
			els, err = scoped.ElementsX(stripXPathPrefix(selector))
		} else {
			els, err = scoped.Elements(selector)
		}
		if err != nil {
			return fmt.Errorf("%w: invalid selector %q: %v", ErrElementNotFound, selector, err)
		}

		for _, el := range els {
			if len(out.Elements) >= limit {
				break
			}
			out.Elements = append(out.Elements, describeElement(el))
		}
		return nil
	})
	if err != nil {
		return fail(err)
	}

	out.Count = len(out.Elements)
	out.Metadata = meta(start)
	out.Metadata["limit"] = limit

	t.deps.Log.Info("find_elements completed",
		zap.String("selector", selector),
		zap.Int("count", out.Count))
	return textResult(out), nil
}

func describeElement(el *rod.Element) ElementInfo {
	info := ElementInfo{Attributes: map[string]string{}}

	if obj, err := el.Eval(`() => this.tagName.toLowerCase()`); err == nil {
		info.TagName = obj.Value.Str()
	}
	if obj, err := el.Eval(`() => {
		const out = {};
		for (const a of this.attributes) out[a.name] = a.value;
		return out;
	}`); err == nil {
		for name, val := range obj.Value.Map() {
			info.Attributes[name] = val.Str()
		}
	}
	if text, err := el.Text(); err == nil {
		info.Text = truncateText(cleanText(text), elementTextLimit)
	}
	if visible, err := el.Visible(); err == nil {
		info.Visible = visible
	}
	return info
}
