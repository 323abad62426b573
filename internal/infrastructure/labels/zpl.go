package labels

import (
	"context"
	"fmt"
	"strings"

	"github.com/warecore/printd/internal/domain/printing"
)

// ZPLRenderer generates ZPL II label streams. One ^XA..^XZ block is emitted
// per entity; copy counts are expressed with ^PQ so the printer duplicates
// labels itself.
type ZPLRenderer struct{}

// NewZPLRenderer creates a ZPL label renderer
func NewZPLRenderer() *ZPLRenderer {
	return &ZPLRenderer{}
}

func (r *ZPLRenderer) Format() printing.LabelFormat {
	return printing.FormatZPL
}

// Render produces one ZPL block per label
func (r *ZPLRenderer) Render(ctx context.Context, labels []LabelData, opts Options) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if len(labels) == 0 {
		return nil, NewRenderError(ErrCodeNoData, "no label data to render", nil)
	}

	copies := opts.Copies
	if copies < 1 {
		copies = DefaultCopies
	}

	var buf strings.Builder
	for _, label := range labels {
		r.writeLabel(&buf, label, opts, copies)
	}
	return []byte(buf.String()), nil
}

func (r *ZPLRenderer) writeLabel(buf *strings.Builder, label LabelData, opts Options, copies int) {
	buf.WriteString("^XA\n")
	// UTF-8 text encoding
	buf.WriteString("^CI28\n")

	title := label.Title
	if opts.Title != "" {
		title = opts.Title
	}
	y := 40
	if title != "" {
		fmt.Fprintf(buf, "^FO50,%d^A0N,40,40^FD%s^FS\n", y, sanitizeZPL(title))
		y += 60
	}

	if label.Barcode != "" {
		// Code 128 with human readable line
		fmt.Fprintf(buf, "^FO50,%d^BY2^BCN,100,Y,N,N^FD%s^FS\n", y, sanitizeZPL(label.Barcode))
		y += 140
	}

	for _, field := range label.Fields {
		fmt.Fprintf(buf, "^FO50,%d^A0N,28,28^FD%s: %s^FS\n",
			y, sanitizeZPL(field.Name), sanitizeZPL(field.Value))
		y += 36
	}

	if copies > 1 {
		fmt.Fprintf(buf, "^PQ%d\n", copies)
	}
	buf.WriteString("^XZ\n")
}

// sanitizeZPL strips characters that terminate or alter ZPL fields
func sanitizeZPL(s string) string {
	replacer := strings.NewReplacer("^", " ", "~", " ", "\n", " ", "\r", " ")
	return replacer.Replace(s)
}

var _ LabelRenderer = (*ZPLRenderer)(nil)
