package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"browser-mcp/internal/urlcheck"
)

var _ Tool = (*RunJSTool)(nil)

// RunJSTool evaluates JavaScript on the current page (optionally navigating
// first) and returns the JSON-serializable result.
type RunJSTool struct {
	deps Deps
}

func NewRunJSTool(deps Deps) *RunJSTool {
	return &RunJSTool{deps: deps}
}

func (t *RunJSTool) Name() string { return "run_js_interaction" }

type runJSInput struct {
	URL    string `json:"url,omitempty"`
	Script string `json:"script"`
	Args   []any  `json:"args,omitempty"`
}

type runJSOutput struct {
	Result   any            `json:"result"`
	Status   string         `json:"status"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata"`
}

func (t *RunJSTool) Descriptor() mcp.Tool {
	return mcp.NewTool(t.Name(),
		mcp.WithDescription(`Run JavaScript on the current page and return its result. The script body may use "return" and access positional values via "arguments" (e.g. "return arguments[0] + arguments[1]").`),
		mcp.WithString("script", mcp.Required(),
			mcp.Description("JavaScript code to execute. Either a plain body or a full function expression.")),
		mcp.WithString("url",
			mcp.Description("Optional URL to navigate to before running the script.")),
		mcp.WithArray("args",
			mcp.Description("Positional arguments made available to the script.")),
	)
}

// wrapScript turns a bare script body into a function expression the driver
// can evaluate. Full function expressions pass through untouched.
func wrapScript(script string) string {
	s := strings.TrimSpace(script)
	if strings.HasPrefix(s, "function") || strings.HasPrefix(s, "(") || strings.HasPrefix(s, "async") {
		return s
	}
	return "function() { " + s + " }"
}

func (t *RunJSTool) Execute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()

	var in runJSInput
	if err := decodeArgs(req, &in); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	out := runJSOutput{Status: "ok"}
	fail := func(err error) (*mcp.CallToolResult, error) {
		t.deps.Log.Warn("run_js_interaction failed", zap.Error(err))
		out.Status = "error"
		out.Error = err.Error()
		out.Metadata = meta(start)
		return textResult(out), nil
	}

	if strings.TrimSpace(in.Script) == "" {
		return fail(fmt.Errorf("script is required"))
	}
	if in.URL != "" {
		if err := t.deps.Checker.Validate(in.URL); err != nil {
			return fail(err)
		}
	}

	err := t.deps.Session.WithPage(ctx, func(page *rod.Page) error {
		if in.URL != "" {
			target := urlcheck.Normalize(in.URL)
			if err := page.Timeout(30 * time.Second).Navigate(target); err != nil {
				return fmt.Errorf("%w: %v", ErrNavigationFailed, err)
			}
			if err := page.Timeout(30 * time.Second).WaitLoad(); err != nil {
				return fmt.Errorf("%w: page load timeout: %v", ErrNavigationFailed, err)
			}
		}

		obj, err := page.Timeout(t.deps.Session.Timeout()).Eval(wrapScript(in.Script), in.Args...)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrScriptError, err)
		}
		out.Result = obj.Value.Val()
		return nil
	})
	if err != nil {
		return fail(err)
	}

	out.Metadata = meta(start)
	t.deps.Log.Info("run_js_interaction completed", zap.Duration("elapsed", time.Since(start)))
	return textResult(out), nil
}
