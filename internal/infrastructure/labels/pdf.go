package labels

import (
	"bytes"
	"context"
	"html/template"

	"github.com/warecore/printd/internal/domain/printing"
)

// PageOptions describe the physical page for PDF output
type PageOptions struct {
	// WidthMM and HeightMM are the page dimensions in millimeters
	WidthMM  float64
	HeightMM float64
	// Landscape rotates the page
	Landscape bool
	// Title for document metadata
	Title string
}

// HTMLEngine converts an HTML document to PDF bytes
type HTMLEngine interface {
	Render(ctx context.Context, html string, opts PageOptions) ([]byte, error)
	Close() error
}

// Default label page is a 100x150mm shipping label
const (
	defaultLabelWidthMM  = 100
	defaultLabelHeightMM = 150
)

const labelTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
  body { font-family: sans-serif; margin: 0; }
  .label { page-break-after: always; padding: 8mm; }
  .label:last-child { page-break-after: auto; }
  .title { font-size: 18pt; font-weight: bold; margin-bottom: 4mm; }
  .barcode { font-family: monospace; font-size: 14pt; letter-spacing: 2px;
             border: 1px solid #000; padding: 3mm; margin-bottom: 4mm; }
  .field { font-size: 11pt; margin-bottom: 1mm; }
  .field span { font-weight: bold; }
</style>
</head>
<body>
{{range $label := .Labels}}{{range $i := $.Copies}}
<div class="label">
  <div class="title">{{$label.Title}}</div>
  {{if $label.Barcode}}<div class="barcode">{{$label.Barcode}}</div>{{end}}
  {{range $label.Fields}}<div class="field"><span>{{.Name}}:</span> {{.Value}}</div>
  {{end}}
</div>
{{end}}{{end}}
</body>
</html>`

// PDFRenderer renders labels to PDF by building an HTML document and handing
// it to a headless browser engine
type PDFRenderer struct {
	engine   HTMLEngine
	template *template.Template
}

// NewPDFRenderer creates a PDF label renderer backed by the given engine
func NewPDFRenderer(engine HTMLEngine) (*PDFRenderer, error) {
	tmpl, err := template.New("label").Parse(labelTemplate)
	if err != nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "failed to parse label template", err)
	}
	return &PDFRenderer{engine: engine, template: tmpl}, nil
}

func (r *PDFRenderer) Format() printing.LabelFormat {
	return printing.FormatPDF
}

// Render builds the HTML document and converts it to PDF
func (r *PDFRenderer) Render(ctx context.Context, labels []LabelData, opts Options) ([]byte, error) {
	if len(labels) == 0 {
		return nil, NewRenderError(ErrCodeNoData, "no label data to render", nil)
	}

	copies := opts.Copies
	if copies < 1 {
		copies = DefaultCopies
	}

	rendered := labels
	if opts.Title != "" {
		rendered = make([]LabelData, len(labels))
		for i, label := range labels {
			label.Title = opts.Title
			rendered[i] = label
		}
	}

	var buf bytes.Buffer
	data := struct {
		Labels []LabelData
		Copies []int
	}{
		Labels: rendered,
		Copies: make([]int, copies),
	}
	if err := r.template.Execute(&buf, data); err != nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "failed to execute label template", err)
	}

	page := PageOptions{
		WidthMM:  defaultLabelWidthMM,
		HeightMM: defaultLabelHeightMM,
		Title:    opts.Title,
	}
	if opts.WidthMM > 0 {
		page.WidthMM = opts.WidthMM
	}
	if opts.HeightMM > 0 {
		page.HeightMM = opts.HeightMM
	}

	pdf, err := r.engine.Render(ctx, buf.String(), page)
	if err != nil {
		return nil, err
	}
	return pdf, nil
}

var _ LabelRenderer = (*PDFRenderer)(nil)
