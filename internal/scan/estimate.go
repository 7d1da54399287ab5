package scan

import (
	"context"
	"os"

	"archon/internal/archivex"
	"archon/internal/catalog"
	"archon/internal/extract"
)

// charsPerToken is the same chars/4 heuristic its rag package
// uses as a fallback when no accurate tokenizer is configured.
const charsPerToken = 4

// costPerMillionTokens is a placeholder embedding price used only to give
// the analyst a ballpark before committing to a scan; it is not tied to any
// specific provider's billing.
const costPerMillionTokens = 0.02

// Estimate is the §6 POST /scan/estimate response: a dry run over the
// discovery walk (no extraction, hashing, or indexing) so an analyst can
// see roughly what a scan will cost before starting it.
type Estimate struct {
	FileCount        int
	SizeMB           float64
	TypeCounts       map[catalog.FileType]int
	EmbeddingTokens  int64
	EmbeddingCostUSD float64
	FreeTierOK       bool
	Note             string
}

// Estimate walks rootPath (after the same allowed-root check Run performs)
// and tallies file count, size, and type breakdown without creating a scan
// or touching any index. Token/cost figures are a rough chars/4 estimate
// over on-disk size, not the actual extracted text length.
func (o *Orchestrator) Estimate(ctx context.Context, rootPath string) (Estimate, error) {
	if err := o.validateRoot(rootPath); err != nil {
		return Estimate{}, err
	}

	est := Estimate{TypeCounts: make(map[catalog.FileType]int)}
	var totalBytes int64

	var discoverErrs []archivex.Error
	o.discoverDir(ctx, rootPath, rootPath, "", &discoverErrs, func(f discoveredFile) {
		info, err := os.Stat(f.AbsPath)
		if err != nil {
			return
		}
		est.FileCount++
		totalBytes += info.Size()
		est.TypeCounts[extract.DetectFileType(f.AbsPath)]++
	})

	est.SizeMB = float64(totalBytes) / (1024 * 1024)
	est.EmbeddingTokens = totalBytes / charsPerToken
	est.EmbeddingCostUSD = float64(est.EmbeddingTokens) / 1_000_000 * costPerMillionTokens
	est.FreeTierOK = o.embed == nil
	if est.FreeTierOK {
		est.Note = "no embedding backend configured; indexing will run lexical-only at no cost"
	} else {
		est.Note = "figures are a rough chars/4 estimate over on-disk size, not extracted text length"
	}
	return est, nil
}
