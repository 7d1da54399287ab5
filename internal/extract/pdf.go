package extract

import (
	"context"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"archon/internal/logging"
)

// minEmbeddedTextLen is the stripped-length threshold below which a PDF
// page is considered to have no usable embedded text and falls back to OCR.
const minEmbeddedTextLen = 50

// extractPDF enumerates pages, preferring embedded text and falling back to
// OCR per page when the embedded text is too short and OCR is available,
// keeping whichever of the two is longer.
func extractPDF(ctx context.Context, path string, opts Options) (Result, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	var sb strings.Builder
	usedOCR := false
	intrinsicDate := pdfIntrinsicDate(r)

	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		embedded, err := page.GetPlainText(nil)
		if err != nil {
			embedded = ""
		}
		stripped := strings.TrimSpace(embedded)

		pageText := stripped
		if len(stripped) < minEmbeddedTextLen && opts.OCREnabled && opts.OCR != nil {
			ocrText, err := ocrPDFPage(ctx, path, i, opts)
			if err != nil {
				logging.Log.WithError(err).Debugf("extract: OCR failed for %s page %d", path, i)
			} else if len(ocrText) > len(stripped) {
				pageText = ocrText
				usedOCR = true
			}
		}

		if pageText != "" {
			sb.WriteString(pageText)
			sb.WriteString("\n\n")
		}
	}

	return Result{
		Text:           strings.TrimSpace(sb.String()),
		UsedOCR:        usedOCR,
		FileModifiedAt: intrinsicDate,
	}, nil
}

// pdfIntrinsicDate reads the document CreationDate, falling back to
// ModDate, from the trailer's Info dictionary.
func pdfIntrinsicDate(r *pdf.Reader) time.Time {
	trailer := r.Trailer()
	if trailer.IsNull() {
		return time.Time{}
	}
	info := trailer.Key("Info")
	if info.IsNull() {
		return time.Time{}
	}
	if t, ok := parsePDFDate(info.Key("CreationDate").Text()); ok {
		return t
	}
	if t, ok := parsePDFDate(info.Key("ModDate").Text()); ok {
		return t
	}
	return time.Time{}
}

// parsePDFDate parses the PDF date string format D:YYYYMMDDHHmmSS(+-Z) into
// UTC, per the PDF spec's date encoding.
func parsePDFDate(s string) (time.Time, bool) {
	s = strings.TrimPrefix(s, "D:")
	if len(s) < 14 {
		return time.Time{}, false
	}
	t, err := time.Parse("20060102150405", s[:14])
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// ocrPDFPage renders page pageNum at 2x scale and OCRs it in the configured
// languages. Rendering goes through the OCR engine's optional PageRenderer
// capability; when the configured OCR does not implement it, the page
// yields empty text and no error.
func ocrPDFPage(ctx context.Context, path string, pageNum int, opts Options) (string, error) {
	renderer, ok := opts.OCR.(PageRenderer)
	if !ok {
		return "", nil
	}
	data, err := renderer.RenderPage(ctx, path, pageNum, 2.0)
	if err != nil {
		return "", err
	}
	return opts.OCR.Image(ctx, data, opts.Languages)
}

// PageRenderer is an optional capability an OCR implementation can provide
// to rasterize a single PDF page (e.g. by shelling out to pdftoppm) before
// handing the bitmap to Image.
type PageRenderer interface {
	RenderPage(ctx context.Context, path string, pageNum int, scale float64) ([]byte, error)
}
