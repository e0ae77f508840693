package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"browser-mcp/internal/urlcheck"
)

// maxDownloadBytes caps a single downloaded file at 100 MiB.
const maxDownloadBytes = 100 << 20

var _ Tool = (*DownloadPDFsTool)(nil)

// DownloadPDFsTool fetches one or more URLs over HTTP and stores them under
// the configured download directory.
type DownloadPDFsTool struct {
	deps Deps
}

func NewDownloadPDFsTool(deps Deps) *DownloadPDFsTool {
	return &DownloadPDFsTool{deps: deps}
}

func (t *DownloadPDFsTool) Name() string { return "download_pdfs" }

type downloadInput struct {
	URLs []string `json:"urls"`
}

// DownloadedFile reports the outcome for a single URL.
type DownloadedFile struct {
	URL         string `json:"url"`
	Path        string `json:"path,omitempty"`
	SizeBytes   int64  `json:"size_bytes,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
}

type downloadOutput struct {
	Files    []DownloadedFile `json:"files"`
	Status   string           `json:"status"`
	Error    string           `json:"error,omitempty"`
	Metadata map[string]any   `json:"metadata"`
}

func (t *DownloadPDFsTool) Descriptor() mcp.Tool {
	return mcp.NewTool(t.Name(),
		mcp.WithDescription("Download one or more files (typically PDFs) into the server's download directory and report the saved paths."),
		mcp.WithArray("urls", mcp.Required(),
			mcp.Description("URLs to download (http or https).")),
	)
}

func (t *DownloadPDFsTool) Execute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()

	var in downloadInput
	if err := decodeArgs(req, &in); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	out := downloadOutput{Status: "ok", Files: []DownloadedFile{}}
	if len(in.URLs) == 0 {
		out.Status = "error"
		out.Error = "urls is required"
		out.Metadata = meta(start)
		return textResult(out), nil
	}

	if err := os.MkdirAll(t.deps.DownloadDir, 0o755); err != nil {
		out.Status = "error"
		out.Error = fmt.Errorf("%w: create download dir: %v", ErrDownloadFailed, err).Error()
		out.Metadata = meta(start)
		return textResult(out), nil
	}

	succeeded := 0
	for _, raw := range in.URLs {
		file := t.downloadOne(ctx, raw)
		if file.Status == "ok" {
			succeeded++
		}
		out.Files = append(out.Files, file)
	}
	if succeeded == 0 {
		out.Status = "error"
		out.Error = "all downloads failed"
	}

	out.Metadata = meta(start)
	out.Metadata["requested"] = len(in.URLs)
	out.Metadata["succeeded"] = succeeded

	t.deps.Log.Info("download_pdfs completed",
		zap.Int("requested", len(in.URLs)),
		zap.Int("succeeded", succeeded))
	return textResult(out), nil
}

func (t *DownloadPDFsTool) downloadOne(ctx context.Context, raw string) DownloadedFile {
	file := DownloadedFile{URL: raw, Status: "ok"}
	fail := func(err error) DownloadedFile {
		t.deps.Log.Warn("download failed", zap.String("url", raw), zap.Error(err))
		file.Status = "error"
		file.Error = err.Error()
		return file
	}

	if err := t.deps.Checker.Validate(raw); err != nil {
		return fail(err)
	}
	target := urlcheck.Normalize(raw)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrDownloadFailed, err))
	}
	resp, err := t.deps.HTTPClient.Do(req)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrDownloadFailed, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fail(fmt.Errorf("%w: unexpected status %s", ErrDownloadFailed, resp.Status))
	}
	file.ContentType = resp.Header.Get("Content-Type")

	name := filenameFromURL(target)
	dest := filepath.Join(t.deps.DownloadDir, name)

	f, err := os.Create(dest)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrDownloadFailed, err))
	}
	n, err := io.Copy(f, io.LimitReader(resp.Body, maxDownloadBytes))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dest)
		return fail(fmt.Errorf("%w: %v", ErrDownloadFailed, err))
	}

	file.Path = dest
	file.SizeBytes = n
	return file
}

// filenameFromURL derives a safe local filename from the URL path, falling
// back to a random name when the path has none.
func filenameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return uuid.NewString() + ".pdf"
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return uuid.NewString() + ".pdf"
	}

	name = sanitizeFilename(name)
	if name == "" {
		return uuid.NewString() + ".pdf"
	}
	if !strings.Contains(name, ".") {
		name += ".pdf"
	}
	return name
}

func sanitizeFilename(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	out := strings.Trim(sb.String(), "._")
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
