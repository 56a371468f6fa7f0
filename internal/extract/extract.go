// Package extract turns uploaded document bytes into plain text. A strategy
// table keyed on file extension routes each upload to the right extractor,
// and scanned PDFs fall back to the external OCR service when the embedded
// text layer is too thin to be useful.
//
// OCR backend failures degrade to empty text plus a warning instead of
// failing the extraction; only unsupported formats and unreadable native
// files are hard errors.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lumenlabs/lumen-api/internal/platform/logger"
)

// ErrUnsupportedFormat is returned for file extensions with no registered
// extraction strategy.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// minPDFTextLen is the threshold below which a PDF's embedded text layer is
// considered a scan artifact and OCR is attempted instead.
const minPDFTextLen = 100

// Method identifies which strategy produced the extracted text.
type Method string

const (
	MethodTextLayer Method = "text_layer"
	MethodOCR       Method = "ocr"
	MethodNative    Method = "native"
)

// Result is the outcome of an extraction. Text may be empty when a backend
// degraded; Warnings then explains why.
type Result struct {
	Text     string
	Method   Method
	Warnings []string
}

// HasText reports whether the extraction produced non-blank text.
func (r Result) HasText() bool {
	return strings.TrimSpace(r.Text) != ""
}

// Options tune how a single extraction runs.
type Options struct {
	// ForceOCR skips the PDF text layer and sends the document straight
	// to the OCR service.
	ForceOCR bool

	// SkipOCRFallback disables the OCR fallback for thin PDF text layers.
	SkipOCRFallback bool

	// Language is a hint passed through to the OCR service.
	Language string
}

// OCRClient is the slice of the OCR service this package needs.
type OCRClient interface {
	RecognizeText(ctx context.Context, filename string, data []byte, language string) (string, error)
}

// Pipeline routes documents to extraction strategies by file extension.
type Pipeline struct {
	ocr OCRClient
}

// NewPipeline creates an extraction pipeline using the given OCR client for
// scanned documents and images.
func NewPipeline(ocr OCRClient) *Pipeline {
	return &Pipeline{ocr: ocr}
}

// imageExtensions are routed directly to OCR; they have no text layer.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
}

// Supported reports whether the pipeline has a strategy for the filename's
// extension.
func Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf", ".docx", ".xlsx", ".txt", ".md", ".markdown", ".rtf", ".csv", ".tsv":
		return true
	}
	return imageExtensions[ext]
}

// Extract converts the document to plain text using the strategy registered
// for its extension. Unknown extensions return ErrUnsupportedFormat.
func (p *Pipeline) Extract(ctx context.Context, filename string, data []byte, opts Options) (Result, error) {
	log := logger.FromContext(ctx)
	ext := strings.ToLower(filepath.Ext(filename))

	log.Debug("extracting document text", "filename", filename, "extension", ext, "bytes", len(data))

	switch {
	case ext == ".pdf":
		return p.extractPDF(ctx, filename, data, opts), nil
	case imageExtensions[ext]:
		return p.runOCR(ctx, filename, data, opts.Language), nil
	case ext == ".docx":
		text, err := extractDocx(data)
		if err != nil {
			return Result{}, err
		}
		return native(text), nil
	case ext == ".xlsx":
		text, err := extractXlsx(data)
		if err != nil {
			return Result{}, err
		}
		return native(text), nil
	case ext == ".txt" || ext == ".md" || ext == ".markdown" || ext == ".rtf":
		text, err := decodeText(data)
		if err != nil {
			return Result{}, err
		}
		return native(text), nil
	case ext == ".csv":
		text, err := extractDelimited(data, ',')
		if err != nil {
			return Result{}, err
		}
		return native(text), nil
	case ext == ".tsv":
		text, err := extractDelimited(data, '\t')
		if err != nil {
			return Result{}, err
		}
		return native(text), nil
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// extractPDF tries the embedded text layer first and falls back to a single
// OCR call when the layer is missing or too thin. ForceOCR skips the text
// layer entirely, so either path makes at most one OCR call.
func (p *Pipeline) extractPDF(ctx context.Context, filename string, data []byte, opts Options) Result {
	log := logger.FromContext(ctx)

	var layerWarnings []string
	if !opts.ForceOCR {
		text, err := extractPDFTextLayer(data)
		trimmed := strings.TrimSpace(text)
		if err == nil && len(trimmed) >= minPDFTextLen {
			return Result{Text: trimmed, Method: MethodTextLayer}
		}
		if err != nil {
			log.Debug("pdf text layer unreadable", "filename", filename, "error", err)
			layerWarnings = append(layerWarnings, "pdf text layer unreadable")
		} else {
			log.Debug("pdf text layer too thin", "filename", filename, "chars", len(trimmed))
		}
		if opts.SkipOCRFallback {
			layerWarnings = append(layerWarnings, "pdf text layer below threshold and OCR fallback disabled")
			return Result{Text: trimmed, Method: MethodTextLayer, Warnings: layerWarnings}
		}
	}

	result := p.runOCR(ctx, filename, data, opts.Language)
	result.Warnings = append(layerWarnings, result.Warnings...)
	return result
}

// runOCR calls the OCR backend, degrading any failure to empty text plus a
// warning.
func (p *Pipeline) runOCR(ctx context.Context, filename string, data []byte, language string) Result {
	text, err := p.ocr.RecognizeText(ctx, filename, data, language)
	if err != nil {
		logger.FromContext(ctx).Warn("ocr backend failed", "filename", filename, "error", err)
		return Result{Method: MethodOCR, Warnings: []string{fmt.Sprintf("ocr failed: %v", err)}}
	}
	return Result{Text: strings.TrimSpace(text), Method: MethodOCR}
}

func native(text string) Result {
	return Result{Text: strings.TrimSpace(text), Method: MethodNative}
}
