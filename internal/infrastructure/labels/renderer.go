// Package labels renders entity label payloads in the supported output
// formats. ZPL output is generated directly; PDF output goes through an
// HTML template and a headless Chrome engine.
package labels

import (
	"context"
	"fmt"

	"github.com/warecore/printd/internal/domain/printing"
)

const (
	// MaxCopies bounds the per-label copy count
	MaxCopies = 100
	// DefaultCopies is used when the job options carry no copy count
	DefaultCopies = 1
)

// Options control label rendering
type Options struct {
	// Copies per label, clamped to [1, MaxCopies]
	Copies int
	// Title overrides the per-label title line when set
	Title string
	// WidthMM and HeightMM override the page size for PDF output.
	// Zero means the renderer's default label size.
	WidthMM  float64
	HeightMM float64
}

// ParseOptions extracts rendering options from a job's raw option map.
// Unknown keys are ignored; out of range copy counts are clamped.
func ParseOptions(raw map[string]any) Options {
	opts := Options{Copies: DefaultCopies}
	if raw == nil {
		return opts
	}
	if v, ok := raw["copies"]; ok {
		switch n := v.(type) {
		case int:
			opts.Copies = n
		case int64:
			opts.Copies = int(n)
		case float64:
			opts.Copies = int(n)
		}
	}
	if v, ok := raw["title"].(string); ok {
		opts.Title = v
	}
	if v, ok := raw["width_mm"].(float64); ok && v > 0 {
		opts.WidthMM = v
	}
	if v, ok := raw["height_mm"].(float64); ok && v > 0 {
		opts.HeightMM = v
	}
	if opts.Copies < 1 {
		opts.Copies = DefaultCopies
	}
	if opts.Copies > MaxCopies {
		opts.Copies = MaxCopies
	}
	return opts
}

// LabelRenderer produces an opaque byte payload for one output format
type LabelRenderer interface {
	// Format returns the output format this renderer handles
	Format() printing.LabelFormat
	// Render produces the payload for the given label data
	Render(ctx context.Context, labels []LabelData, opts Options) ([]byte, error)
}

// RenderError represents an error during label rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout = "RENDER_TIMEOUT"
	ErrCodeRenderFailed  = "RENDER_FAILED"
	ErrCodeInvalidHTML   = "INVALID_HTML"
	ErrCodeNoData        = "NO_DATA"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
