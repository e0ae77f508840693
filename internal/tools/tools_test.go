package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"browser-mcp/internal/urlcheck"
)

func callReq(args any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

// resultJSON unpacks the JSON payload of a text tool result.
func resultJSON(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out
}

func testDeps(t *testing.T) Deps {
	t.Helper()
	return Deps{
		Checker:     urlcheck.New(nil, false),
		Log:         zap.NewNop(),
		DownloadDir: t.TempDir(),
	}
}

func TestDecodeArgs_Map(t *testing.T) {
	var in fetchInput
	req := callReq(map[string]any{"url": "https://example.com"})
	require.NoError(t, decodeArgs(req, &in))
	assert.Equal(t, "https://example.com", in.URL)
}

func TestDecodeArgs_JSONString(t *testing.T) {
	var in fetchInput
	req := callReq(`{"url": "https://example.com"}`)
	require.NoError(t, decodeArgs(req, &in))
	assert.Equal(t, "https://example.com", in.URL)
}

func TestDecodeArgs_NilAndEmpty(t *testing.T) {
	var in fetchInput
	require.NoError(t, decodeArgs(callReq(nil), &in))
	require.NoError(t, decodeArgs(callReq("  "), &in))
	assert.Empty(t, in.URL)
}

func TestDecodeArgs_Malformed(t *testing.T) {
	var in fetchInput
	require.Error(t, decodeArgs(callReq(`{"url": `), &in))
}

func TestIsXPath(t *testing.T) {
	assert.True(t, isXPath("//button"))
	assert.True(t, isXPath("/html/body"))
	assert.True(t, isXPath("xpath=//a"))
	assert.False(t, isXPath("div.content"))
	assert.Equal(t, "//a", stripXPathPrefix("xpath=//a"))
	assert.Equal(t, "//a", stripXPathPrefix("//a"))
}

func TestFetchURL_RejectsInvalidURL(t *testing.T) {
	tool := NewFetchURLTool(testDeps(t))

	res, err := tool.Execute(context.Background(), callReq(map[string]any{"url": "ftp://example.com"}))
	require.NoError(t, err)

	out := resultJSON(t, res)
	assert.Equal(t, "error", out["status"])
	assert.Contains(t, out["error"], "invalid url")
}

func TestClickElement_RequiresSelector(t *testing.T) {
	tool := NewClickElementTool(testDeps(t))

	res, err := tool.Execute(context.Background(), callReq(map[string]any{"selector": "  "}))
	require.NoError(t, err)

	out := resultJSON(t, res)
	assert.Equal(t, "error", out["status"])
	assert.Contains(t, out["error"], "selector is required")
}

func TestFindElements_RequiresSelector(t *testing.T) {
	tool := NewFindElementsTool(testDeps(t))

	res, err := tool.Execute(context.Background(), callReq(nil))
	require.NoError(t, err)

	out := resultJSON(t, res)
	assert.Equal(t, "error", out["status"])
}

func TestRunJS_RequiresScript(t *testing.T) {
	tool := NewRunJSTool(testDeps(t))

	res, err := tool.Execute(context.Background(), callReq(map[string]any{"script": ""}))
	require.NoError(t, err)

	out := resultJSON(t, res)
	assert.Equal(t, "error", out["status"])
	assert.Contains(t, out["error"], "script is required")
}

func TestWrapScript(t *testing.T) {
	assert.Equal(t, "function() { return 1+1; }", wrapScript("return 1+1;"))
	assert.Equal(t, "function(){ return 2 }", wrapScript("function(){ return 2 }"))
	assert.Equal(t, "() => 3", wrapScript("() => 3"))
	assert.Equal(t, "async () => 4", wrapScript(" async () => 4 "))
}

func TestAll_ReturnsEveryTool(t *testing.T) {
	toolset := All(testDeps(t))

	names := make(map[string]bool, len(toolset))
	for _, tool := range toolset {
		names[tool.Name()] = true
		desc := tool.Descriptor()
		assert.Equal(t, tool.Name(), desc.Name)
		assert.NotEmpty(t, desc.Description)
	}

	for _, want := range []string{
		"fetch_url",
		"find_elements",
		"click_element",
		"run_js_interaction",
		"web_search",
		"download_pdfs",
		"convert_to_markdown",
		"capture_screenshot",
	} {
		assert.True(t, names[want], "missing tool %s", want)
	}
}
