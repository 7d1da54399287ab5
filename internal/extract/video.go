package extract

import (
	"context"
	"fmt"
	"strings"
)

const (
	videoOCRSentinel  = "[VIDEO] OCR déféré"
	maxVideoKeyframes = 20
	keyframeIntervalS = 30
	minFrameTextChars = 20
)

// FrameSampler extracts up to maxVideoKeyframes still frames from a video,
// one every keyframeIntervalS seconds of stream. Concrete implementations
// shell out to ffmpeg.
type FrameSampler interface {
	SampleFrames(ctx context.Context, path string, maxFrames, intervalSeconds int) ([]Frame, error)
}

// Frame is one sampled video frame.
type Frame struct {
	TimestampSeconds float64
	Data             []byte // RGB-encoded still image
}

// extractVideo samples keyframes and OCRs each, keeping a frame's text only
// if it is long enough and its prefix was not already seen, this filters
// the overwhelming majority of near-duplicate frames in static footage.
func extractVideo(ctx context.Context, path string, opts Options) (Result, error) {
	sampler, ok := opts.OCR.(FrameSampler)
	if !opts.OCREnabled || opts.OCR == nil || !ok {
		return Result{Text: videoOCRSentinel}, nil
	}

	frames, err := sampler.SampleFrames(ctx, path, maxVideoKeyframes, keyframeIntervalS)
	if err != nil || len(frames) == 0 {
		return Result{Text: videoOCRSentinel}, nil
	}

	seen := make(map[string]bool)
	var sb strings.Builder
	usedOCR := false

	for _, frame := range frames {
		text, err := opts.OCR.Image(ctx, frame.Data, opts.Languages)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if len(text) < minFrameTextChars {
			continue
		}
		prefix := strings.ToLower(firstN(text, 100))
		if seen[prefix] {
			continue
		}
		seen[prefix] = true
		usedOCR = true

		sb.WriteString(fmt.Sprintf("[t=%.0fs] %s\n\n", frame.TimestampSeconds, text))
	}

	if sb.Len() == 0 {
		return Result{Text: videoOCRSentinel}, nil
	}
	return Result{Text: strings.TrimSpace(sb.String()), UsedOCR: usedOCR}, nil
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
