package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

const (
	defaultSearchResults = 10
	maxSearchResults     = 20
	snippetTextLimit     = 300
)

// engineSpec describes how to query one search engine and pick results out
// of its markup. Selector lists are tried in order until one matches, the
// sites change their markup now and then.
type engineSpec struct {
	base            string
	buildURL        func(query string, n int) string
	resultSelectors []string
	titleSelectors  []string
	// linkSelectors defaults to titleSelectors when nil
	linkSelectors    []string
	snippetSelectors []string
}

var searchEngines = map[string]engineSpec{
	"google_scholar": {
		base: "https://scholar.google.com",
		buildURL: func(q string, n int) string {
			return "https://scholar.google.com/scholar?q=" + url.QueryEscape(q) + "&hl=en&as_sdt=0,5"
		},
		resultSelectors:  []string{".gs_r.gs_or.gs_scl", ".gs_ri", "[data-lid]"},
		titleSelectors:   []string{"h3.gs_rt a", ".gs_rt a", "h3 a", ".gs_rt"},
		linkSelectors:    []string{"h3.gs_rt a", ".gs_rt a"},
		snippetSelectors: []string{".gs_rs"},
	},
	"pubmed": {
		base: "https://pubmed.ncbi.nlm.nih.gov",
		buildURL: func(q string, n int) string {
			return fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/?term=%s&size=%d", url.QueryEscape(q), n)
		},
		resultSelectors:  []string{"article.full-docsum", ".docsum-wrap", ".docsum-content"},
		titleSelectors:   []string{".docsum-title", "h1 a", ".title a"},
		snippetSelectors: []string{".full-view-snippet", ".docsum-snippet", ".abstract"},
	},
	"ieee": {
		base: "https://ieeexplore.ieee.org",
		buildURL: func(q string, n int) string {
			return "https://ieeexplore.ieee.org/search/searchresult.jsp?queryText=" + url.QueryEscape(q)
		},
		resultSelectors:  []string{".List-results-items", ".result-item", ".document"},
		titleSelectors:   []string{".result-item-title a", "h2 a", ".title a"},
		snippetSelectors: []string{".description", ".abstract", ".snippet"},
	},
	"arxiv": {
		base: "https://arxiv.org",
		buildURL: func(q string, n int) string {
			return fmt.Sprintf("https://arxiv.org/search/?query=%s&searchtype=all&abstracts=show&order=-announced_date_first&size=%d",
				url.QueryEscape(q), n)
		},
		resultSelectors:  []string{"li.arxiv-result", ".list-item"},
		titleSelectors:   []string{".list-title a", "p.title a", ".title a"},
		snippetSelectors: []string{".list-abstract", "p.abstract", ".abstract"},
	},
	"medrxiv": {
		base: "https://www.medrxiv.org",
		buildURL: func(q string, n int) string {
			return "https://www.medrxiv.org/search/" + url.PathEscape(q)
		},
		resultSelectors:  []string{".highwire-cite", ".search-result", ".result-item"},
		titleSelectors:   []string{".highwire-cite-title a", ".citation-title a", ".title a"},
		snippetSelectors: []string{".highwire-cite-snippet", ".citation-snippet", ".abstract"},
	},
	"biorxiv": {
		base: "https://www.biorxiv.org",
		buildURL: func(q string, n int) string {
			return "https://www.biorxiv.org/search/" + url.PathEscape(q)
		},
		resultSelectors:  []string{".highwire-cite", ".search-result", ".result-item"},
		titleSelectors:   []string{".highwire-cite-title a", ".citation-title a", ".title a"},
		snippetSelectors: []string{".highwire-cite-snippet", ".citation-snippet", ".abstract"},
	},
}

var _ Tool = (*WebSearchTool)(nil)

// WebSearchTool drives the browser through an academic search engine and
// scrapes the result list.
type WebSearchTool struct {
	deps Deps
}

func NewWebSearchTool(deps Deps) *WebSearchTool {
	return &WebSearchTool{deps: deps}
}

func (t *WebSearchTool) Name() string { return "web_search" }

type searchInput struct {
	Query      string `json:"query"`
	Engine     string `json:"engine,omitempty"`
	NumResults int    `json:"num_results,omitempty"`
}

// SearchResult is one entry of a result page.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type searchOutput struct {
	Results  []SearchResult `json:"results"`
	Query    string         `json:"query"`
	Engine   string         `json:"engine"`
	Status   string         `json:"status"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata"`
}

func (t *WebSearchTool) Descriptor() mcp.Tool {
	return mcp.NewTool(t.Name(),
		mcp.WithDescription("Search an academic engine (google_scholar, pubmed, ieee, arxiv, medrxiv, biorxiv) and return structured results with titles, URLs, and snippets."),
		mcp.WithString("query", mcp.Required(),
			mcp.Description("Search query string.")),
		mcp.WithString("engine",
			mcp.Description("Search engine to use (default google_scholar).")),
		mcp.WithNumber("num_results",
			mcp.Description("Maximum number of results (default 10, capped at 20).")),
	)
}

func (t *WebSearchTool) Execute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()

	var in searchInput
	if err := decodeArgs(req, &in); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	query := strings.TrimSpace(in.Query)
	engine := strings.ToLower(strings.TrimSpace(in.Engine))
	if engine == "" {
		engine = "google_scholar"
	}
	limit := in.NumResults
	if limit <= 0 {
		limit = defaultSearchResults
	}
	if limit > maxSearchResults {
		limit = maxSearchResults
	}

	out := searchOutput{Query: query, Engine: engine, Status: "ok", Results: []SearchResult{}}
	fail := func(err error) (*mcp.CallToolResult, error) {
		t.deps.Log.Warn("web_search failed", zap.String("engine", engine), zap.Error(err))
		out.Status = "error"
		out.Error = err.Error()
		out.Metadata = meta(start)
		return textResult(out), nil
	}

	if query == "" {
		return fail(fmt.Errorf("search query cannot be empty"))
	}
	spec, ok := searchEngines[engine]
	if !ok {
		return fail(fmt.Errorf("unsupported search engine: %s", engine))
	}

	searchURL := spec.buildURL(query, limit)
	err := t.deps.Session.WithPage(ctx, func(page *rod.Page) error {
		if err := page.Timeout(30 * time.Second).Navigate(searchURL); err != nil {
			return fmt.Errorf("%w: %v", ErrNavigationFailed, err)
		}
		if err := page.Timeout(30 * time.Second).WaitLoad(); err != nil {
			return fmt.Errorf("%w: page load timeout: %v", ErrNavigationFailed, err)
		}
		_ = page.WaitIdle(5 * time.Second)

		out.Results = scrapeResults(page, spec, limit)
		return nil
	})
	if err != nil {
		return fail(err)
	}

	out.Metadata = meta(start)
	out.Metadata["results_requested"] = limit
	out.Metadata["results_found"] = len(out.Results)

	t.deps.Log.Info("web_search completed",
		zap.String("engine", engine),
		zap.String("query", query),
		zap.Int("results", len(out.Results)))
	return textResult(out), nil
}

func scrapeResults(page *rod.Page, spec engineSpec, limit int) []SearchResult {
	var containers rod.Elements
	for _, sel := range spec.resultSelectors {
		els, err := page.Elements(sel)
		if err == nil && len(els) > 0 {
			containers = els
			break
		}
	}

	results := make([]SearchResult, 0, limit)
	for _, el := range containers {
		if len(results) >= limit {
			break
		}
		if r, ok := extractResult(el, spec); ok {
			results = append(results, r)
		}
	}
	return results
}

// extractResult pulls title, link, and snippet out of one result container.
// Child lookups use a short timeout: rod's Element waits for a match by
// default, and most containers legitimately miss some selectors.
func extractResult(el *rod.Element, spec engineSpec) (SearchResult, bool) {
	var r SearchResult

	for _, sel := range spec.titleSelectors {
		child, err := el.Timeout(500 * time.Millisecond).Element(sel)
		if err != nil {
			continue
		}
		if text, err := child.Text(); err == nil {
			r.Title = cleanText(text)
		}
		if r.Title != "" {
			break
		}
	}
	if r.Title == "" {
		return r, false
	}

	linkSelectors := spec.linkSelectors
	if linkSelectors == nil {
		linkSelectors = spec.titleSelectors
	}
	for _, sel := range linkSelectors {
		child, err := el.Timeout(500 * time.Millisecond).Element(sel)
		if err != nil {
			continue
		}
		href, err := child.Attribute("href")
		if err != nil || href == nil || *href == "" {
			continue
		}
		r.URL = resolveHref(spec.base, *href)
		break
	}
	if r.URL == "" {
		return r, false
	}

	for _, sel := range spec.snippetSelectors {
		child, err := el.Timeout(500 * time.Millisecond).Element(sel)
		if err != nil {
			continue
		}
		if text, err := child.Text(); err == nil && text != "" {
			r.Snippet = truncateText(cleanText(text), snippetTextLimit)
			break
		}
	}

	return r, true
}

// resolveHref joins relative result links against the engine's base URL.
func resolveHref(base, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if ref.IsAbs() {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}
