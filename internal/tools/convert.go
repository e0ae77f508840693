package tools

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/go-rod/rod"
	"github.com/ledongthuc/pdf"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tmc/langchaingo/textsplitter"
	"go.uber.org/zap"

	"browser-mcp/internal/urlcheck"
)

var _ Tool = (*ConvertToMarkdownTool)(nil)

// ConvertToMarkdownTool converts web pages, HTML strings, or PDF files to
// markdown.
type ConvertToMarkdownTool struct {
	deps      Deps
	converter *md.Converter
	pdfs      *DownloadPDFsTool
}

func NewConvertToMarkdownTool(deps Deps) *ConvertToMarkdownTool {
	return &ConvertToMarkdownTool{
		deps:      deps,
		converter: md.NewConverter("", true, nil),
		pdfs:      NewDownloadPDFsTool(deps),
	}
}

func (t *ConvertToMarkdownTool) Name() string { return "convert_to_markdown" }

type convertInput struct {
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
	MaxChars    int    `json:"max_chars,omitempty"`
}

type convertOutput struct {
	Markdown          string         `json:"markdown"`
	OriginalFormat    string         `json:"original_format"`
	ConversionSuccess bool           `json:"conversion_success"`
	Status            string         `json:"status"`
	Error             string         `json:"error,omitempty"`
	Metadata          map[string]any `json:"metadata"`
}

func (t *ConvertToMarkdownTool) Descriptor() mcp.Tool {
	return mcp.NewTool(t.Name(),
		mcp.WithDescription("Convert content to markdown. content_type 'url' fetches a web page, 'html' converts an HTML string directly, 'pdf_url' downloads a PDF and extracts its text."),
		mcp.WithString("content_type", mcp.Required(),
			mcp.Description("One of: url, html, pdf_url.")),
		mcp.WithString("content", mcp.Required(),
			mcp.Description("URL for 'url'/'pdf_url', or the HTML string for 'html'.")),
		mcp.WithNumber("max_chars",
			mcp.Description("Optional size limit; longer markdown is cut on markdown structure boundaries.")),
	)
}

func (t *ConvertToMarkdownTool) Execute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()

	var in convertInput
	if err := decodeArgs(req, &in); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	contentType := strings.ToLower(strings.TrimSpace(in.ContentType))
	out := convertOutput{OriginalFormat: contentType, Status: "ok"}
	fail := func(err error) (*mcp.CallToolResult, error) {
		t.deps.Log.Warn("convert_to_markdown failed", zap.String("content_type", contentType), zap.Error(err))
		out.Status = "error"
		out.Error = err.Error()
		out.Metadata = meta(start)
		return textResult(out), nil
	}

	if in.Content == "" {
		return fail(fmt.Errorf("content is required"))
	}

	var err error
	switch contentType {
	case "html":
		out.Markdown, err = t.convertHTML(in.Content)
	case "url":
		out.OriginalFormat = "html"
		out.Markdown, err = t.convertPage(ctx, in.Content)
	case "pdf_url":
		out.OriginalFormat = "pdf"
		out.Markdown, err = t.convertPDF(ctx, in.Content)
	default:
		err = fmt.Errorf("invalid content_type %q, must be one of: url, html, pdf_url", in.ContentType)
	}
	if err != nil {
		return fail(err)
	}

	truncated := false
	if in.MaxChars > 0 && len(out.Markdown) > in.MaxChars {
		out.Markdown, err = splitMarkdown(out.Markdown, in.MaxChars)
		if err != nil {
			return fail(fmt.Errorf("%w: %v", ErrConversionFailed, err))
		}
		truncated = true
	}

	out.ConversionSuccess = true
	out.Metadata = meta(start)
	out.Metadata["content_type"] = contentType
	out.Metadata["markdown_length"] = len(out.Markdown)
	out.Metadata["truncated"] = truncated

	t.deps.Log.Info("convert_to_markdown completed",
		zap.String("content_type", contentType),
		zap.Int("markdown_length", len(out.Markdown)))
	return textResult(out), nil
}

func (t *ConvertToMarkdownTool) convertHTML(raw string) (string, error) {
	markdown, err := t.converter.ConvertString(cleanHTML(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}
	return strings.TrimSpace(markdown), nil
}

func (t *ConvertToMarkdownTool) convertPage(ctx context.Context, rawURL string) (string, error) {
	if err := t.deps.Checker.Validate(rawURL); err != nil {
		return "", err
	}
	target := urlcheck.Normalize(rawURL)

	var html string
	err := t.deps.Session.WithPage(ctx, func(page *rod.Page) error {
		if err := page.Timeout(30 * time.Second).Navigate(target); err != nil {
			return fmt.Errorf("%w: %v", ErrNavigationFailed, err)
		}
		if err := page.Timeout(30 * time.Second).WaitLoad(); err != nil {
			return fmt.Errorf("%w: page load timeout: %v", ErrNavigationFailed, err)
		}
		_ = page.WaitIdle(5 * time.Second)

		var err error
		html, err = page.HTML()
		return err
	})
	if err != nil {
		return "", err
	}
	return t.convertHTML(html)
}

func (t *ConvertToMarkdownTool) convertPDF(ctx context.Context, rawURL string) (string, error) {
	file := t.pdfs.downloadOne(ctx, rawURL)
	if file.Status != "ok" {
		return "", fmt.Errorf("%w: %s", ErrConversionFailed, file.Error)
	}

	f, reader, err := pdf.Open(file.Path)
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %v", ErrConversionFailed, err)
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: extract pdf text: %v", ErrConversionFailed, err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("%w: read pdf text: %v", ErrConversionFailed, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// splitMarkdown cuts markdown at structural boundaries, keeping whole
// chunks up to the limit. At least one chunk is always returned.
func splitMarkdown(markdown string, maxChars int) (string, error) {
	splitter := textsplitter.NewMarkdownTextSplitter(
		textsplitter.WithChunkSize(maxChars),
		textsplitter.WithChunkOverlap(0),
	)
	chunks, err := splitter.SplitText(markdown)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return markdown[:maxChars], nil
	}

	var sb strings.Builder
	for _, chunk := range chunks {
		if sb.Len() > 0 && sb.Len()+len(chunk)+2 > maxChars {
			break
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(chunk)
	}

	result := sb.String()
	if len(result) > maxChars {
		result = result[:maxChars]
	}
	return result, nil
}
