package extract

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
)

// imageOCRSentinel is the well-known placeholder the pipeline records when
// OCR is unavailable or disabled, so the document still exists but the
// embedding step short-circuits (§4.6).
const imageOCRSentinel = "[IMAGE] OCR déféré"

// extractImage always OCRs: an image has no embedded text to fall back to.
func extractImage(ctx context.Context, path string, opts Options) (Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	intrinsicDate := exifIntrinsicDate(raw)

	if !opts.OCREnabled || opts.OCR == nil {
		return Result{Text: imageOCRSentinel, FileModifiedAt: intrinsicDate}, nil
	}

	rgb, err := toRGB(raw)
	if err != nil {
		// Unreadable image data still produces a document, not a fatal error.
		return Result{Text: imageOCRSentinel, FileModifiedAt: intrinsicDate}, nil
	}

	text, err := opts.OCR.Image(ctx, rgb, opts.Languages)
	if err != nil {
		return Result{Text: imageOCRSentinel, FileModifiedAt: intrinsicDate}, nil
	}

	return Result{Text: text, UsedOCR: true, FileModifiedAt: intrinsicDate}, nil
}

// toRGB decodes raw image bytes and re-encodes as JPEG/RGB so the OCR
// engine always receives a predictable pixel format regardless of the
// source container (PNG, GIF, BMP, ...).
func toRGB(raw []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
