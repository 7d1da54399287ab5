// Package extract dispatches a file to a type-specific text extraction
// strategy (C2): text-like decoding, PDF, image/video OCR, email parsing,
// and forensic disk image mounting.
package extract

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"archon/internal/catalog"
)

// Result is what an extractor produces for one leaf document.
type Result struct {
	Text           string
	UsedOCR        bool
	FileModifiedAt time.Time // zero if no intrinsic date was found
}

// OCR abstracts optical character recognition so the pipeline can run
// without it configured (the "OCR disabled" path) or swap in a real engine
// in production.
type OCR interface {
	// Image OCRs a still image (already decoded to RGB) in the given
	// languages, returning the recognized text.
	Image(ctx context.Context, data []byte, langs []string) (string, error)
}

// Options configures a single extraction call.
type Options struct {
	OCR          OCR  // nil disables OCR entirely
	OCREnabled   bool // images/video/low-text-PDF pages only OCR when true
	Languages    []string
	MaxTextChars int // forensic safety cap; 0 means no cap
}

// DetectFileType maps an extension to the catalog.FileType used for
// extractor dispatch and Document classification.
func DetectFileType(path string) catalog.FileType {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt", ".md", ".csv", ".json", ".xml", ".html", ".htm", ".log":
		return catalog.FileTypeText
	case ".pdf":
		return catalog.FileTypePDF
	case ".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".tif", ".gif", ".webp":
		return catalog.FileTypeImage
	case ".mp4", ".mov", ".avi", ".mkv", ".webm":
		return catalog.FileTypeVideo
	case ".eml", ".mbox", ".pst":
		return catalog.FileTypeEmail
	default:
		return catalog.FileTypeUnknown
	}
}

// IsForensicImage reports whether path names a forensic disk image
// container (E01/DD/RAW/IMG/AFF), which is expanded rather than extracted.
func IsForensicImage(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".e01", ".dd", ".raw", ".img", ".aff":
		return true
	default:
		return false
	}
}

// Extract dispatches path (already known to be fileType) to the matching
// strategy and returns its Result.
func Extract(ctx context.Context, path string, fileType catalog.FileType, opts Options) (Result, error) {
	switch fileType {
	case catalog.FileTypeText:
		return extractText(path)
	case catalog.FileTypePDF:
		return extractPDF(ctx, path, opts)
	case catalog.FileTypeImage:
		return extractImage(ctx, path, opts)
	case catalog.FileTypeVideo:
		return extractVideo(ctx, path, opts)
	case catalog.FileTypeEmail:
		return extractEmail(path)
	default:
		return extractText(path)
	}
}
