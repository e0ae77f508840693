package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchEngines_URLBuilding(t *testing.T) {
	cases := []struct {
		engine string
		want   []string
	}{
		{"google_scholar", []string{"scholar.google.com/scholar?q=go+testing", "hl=en"}},
		{"pubmed", []string{"pubmed.ncbi.nlm.nih.gov/?term=go+testing", "size=10"}},
		{"ieee", []string{"ieeexplore.ieee.org/search/searchresult.jsp?queryText=go+testing"}},
		{"arxiv", []string{"arxiv.org/search/?query=go+testing", "size=10"}},
		{"medrxiv", []string{"medrxiv.org/search/go%20testing"}},
		{"biorxiv", []string{"biorxiv.org/search/go%20testing"}},
	}

	for _, tc := range cases {
		spec, ok := searchEngines[tc.engine]
		require.True(t, ok, "engine %s missing", tc.engine)

		got := spec.buildURL("go testing", 10)
		for _, want := range tc.want {
			assert.Contains(t, got, want, "engine %s", tc.engine)
		}
	}
}

func TestSearchEngines_SpecsComplete(t *testing.T) {
	for name, spec := range searchEngines {
		assert.NotEmpty(t, spec.base, "%s: base", name)
		assert.NotEmpty(t, spec.resultSelectors, "%s: result selectors", name)
		assert.NotEmpty(t, spec.titleSelectors, "%s: title selectors", name)
		assert.NotEmpty(t, spec.snippetSelectors, "%s: snippet selectors", name)
		assert.True(t, strings.HasPrefix(spec.base, "https://"), "%s: base must be https", name)
	}
}

func TestResolveHref(t *testing.T) {
	cases := []struct {
		base, href, want string
	}{
		{"https://scholar.google.com", "/citations?user=x", "https://scholar.google.com/citations?user=x"},
		{"https://arxiv.org", "https://other.org/paper", "https://other.org/paper"},
		{"https://pubmed.ncbi.nlm.nih.gov", "12345/", "https://pubmed.ncbi.nlm.nih.gov/12345/"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, resolveHref(tc.base, tc.href))
	}
}

func TestWebSearch_EmptyQuery(t *testing.T) {
	tool := NewWebSearchTool(testDeps(t))

	res, err := tool.Execute(context.Background(), callReq(map[string]any{"query": "   "}))
	require.NoError(t, err)

	out := resultJSON(t, res)
	assert.Equal(t, "error", out["status"])
	assert.Contains(t, out["error"], "empty")
}

func TestWebSearch_UnsupportedEngine(t *testing.T) {
	tool := NewWebSearchTool(testDeps(t))

	res, err := tool.Execute(context.Background(), callReq(map[string]any{
		"query":  "anything",
		"engine": "altavista",
	}))
	require.NoError(t, err)

	out := resultJSON(t, res)
	assert.Equal(t, "error", out["status"])
	assert.Contains(t, out["error"], "unsupported search engine")
}
