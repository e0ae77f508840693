package tools

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/ysmood/gson"
	"go.uber.org/zap"
)

// screenshotMaxWidth keeps payloads small for transport back to a client.
const screenshotMaxWidth = 1024

var _ Tool = (*CaptureScreenshotTool)(nil)

// CaptureScreenshotTool captures the current page as a JPEG.
type CaptureScreenshotTool struct {
	deps Deps
}

func NewCaptureScreenshotTool(deps Deps) *CaptureScreenshotTool {
	return &CaptureScreenshotTool{deps: deps}
}

func (t *CaptureScreenshotTool) Name() string { return "capture_screenshot" }

type screenshotInput struct {
	FullPage bool `json:"full_page,omitempty"`
}

type screenshotOutput struct {
	Data     string         `json:"data"`
	Format   string         `json:"format"`
	Width    int            `json:"width"`
	Height   int            `json:"height"`
	Status   string         `json:"status"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata"`
}

func (t *CaptureScreenshotTool) Descriptor() mcp.Tool {
	return mcp.NewTool(t.Name(),
		mcp.WithDescription("Capture a JPEG screenshot of the current page, resized to at most 1024px wide, returned base64-encoded."),
		mcp.WithBoolean("full_page",
			mcp.Description("Capture the full scrollable page instead of the viewport.")),
	)
}

func (t *CaptureScreenshotTool) Execute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()

	var in screenshotInput
	if err := decodeArgs(req, &in); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	out := screenshotOutput{Format: "jpeg", Status: "ok"}
	fail := func(err error) (*mcp.CallToolResult, error) {
		t.deps.Log.Warn("capture_screenshot failed", zap.Error(err))
		out.Status = "error"
		out.Error = err.Error()
		out.Metadata = meta(start)
		return textResult(out), nil
	}

	err := t.deps.Session.WithPage(ctx, func(page *rod.Page) error {
		imgBytes, err := page.Screenshot(in.FullPage, &proto.PageCaptureScreenshot{
			Format:  proto.PageCaptureScreenshotFormatJpeg,
			Quality: gson.Int(80),
		})
		if err != nil {
			return fmt.Errorf("screenshot failed: %w", err)
		}

		img, _, err := image.Decode(bytes.NewReader(imgBytes))
		if err != nil {
			return fmt.Errorf("image decode failed: %w", err)
		}
		if img.Bounds().Dx() > screenshotMaxWidth {
			img = imaging.Resize(img, screenshotMaxWidth, 0, imaging.Lanczos)
		}

		buf := new(bytes.Buffer)
		if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
			return fmt.Errorf("jpeg encode failed: %w", err)
		}

		out.Data = base64.StdEncoding.EncodeToString(buf.Bytes())
		out.Width = img.Bounds().Dx()
		out.Height = img.Bounds().Dy()
		return nil
	})
	if err != nil {
		return fail(err)
	}

	out.Metadata = meta(start)
	out.Metadata["bytes"] = len(out.Data)
	t.deps.Log.Info("capture_screenshot completed",
		zap.Int("width", out.Width),
		zap.Int("height", out.Height))
	return textResult(out), nil
}
