package tools

import "errors"

// Error kinds surfaced to callers as structured failure results.
// ErrInvalidURL lives in urlcheck, ErrDriverUnavailable in browser.
var (
	ErrNavigationFailed = errors.New("navigation failed")
	ErrElementNotFound  = errors.New("element not found")
	ErrScriptError      = errors.New("script error")
	ErrDownloadFailed   = errors.New("download failed")
	ErrConversionFailed = errors.New("conversion failed")
)
