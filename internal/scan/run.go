package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"archon/internal/archonerr"
	"archon/internal/audit"
	"archon/internal/catalog"
	"archon/internal/embedding"
	"archon/internal/entities"
	"archon/internal/extract"
	"archon/internal/lexicalindex"
	"archon/internal/vectorindex"
)

const lastErrorsShown = 10

// deferredOCRPrefixes are the sentinels extract emits when OCR could not
// run; embedding must short-circuit on them per §4.2/§4.6.
var deferredOCRPrefixes = []string{"[IMAGE]", "[VIDEO]"}

// Run executes the full per-scan algorithm (§4.8) for an already-created
// scan row: validates the root, transitions pending→running, discovers and
// processes every file, and transitions to completed or failed.
func (o *Orchestrator) Run(ctx context.Context, scanID int64, resume bool) (err error) {
	ctx, end := o.tracer.Start(ctx, "scan.Run", map[string]any{"scan_id": scanID, "resume": resume})
	defer func() { end(err) }()

	s, err := o.store.GetScan(ctx, scanID)
	if err != nil {
		return fmt.Errorf("scan: load scan %d: %w", scanID, err)
	}

	// A panic anywhere below is an unhandled error (§4.8 step 7): transition
	// the scan to failed instead of crashing the caller's goroutine.
	defer func() {
		if r := recover(); r != nil {
			err = o.fail(ctx, s, fmt.Errorf("scan: panic: %v", r))
		}
	}()

	if verr := o.validateRoot(s.RootPath); verr != nil {
		return verr
	}

	now := o.clock()
	s.Status = catalog.ScanRunning
	s.StartedAt = &now
	if uerr := o.store.UpdateScan(ctx, s); uerr != nil {
		return o.fail(ctx, s, fmt.Errorf("scan: transition to running: %w", uerr))
	}
	o.publish.Publish(ctx, ProgressEvent{ScanID: scanID, Phase: PhaseDetection, Status: string(catalog.ScanRunning)})

	var existing map[string]bool
	if resume {
		existing, err = o.existingPaths(ctx, scanID)
		if err != nil {
			return o.fail(ctx, s, fmt.Errorf("scan: resolve resume state: %w", err))
		}
	}

	var files []discoveredFile
	discoverErrs := o.discover(ctx, s.RootPath, func(f discoveredFile) {
		if existing != nil && existing[f.LogicalPath] {
			return
		}
		files = append(files, f)
		s.TotalFiles = len(files)
		if len(files)%25 == 0 {
			o.publish.Publish(ctx, ProgressEvent{ScanID: scanID, Phase: PhaseDetection, Total: s.TotalFiles})
		}
	})
	for _, de := range discoverErrs {
		o.recordError(ctx, scanID, de.Path, "DiscoveryError", de.Err.Error())
		s.FailedFiles++
	}

	if ctx.Err() != nil {
		return o.cancel(ctx, s)
	}

	s.TotalFiles = len(files)
	if uerr := o.store.UpdateScan(ctx, s); uerr != nil {
		return o.fail(ctx, s, fmt.Errorf("scan: record total files: %w", uerr))
	}

	var recentErrors []string
	for _, f := range files {
		if ctx.Err() != nil {
			return o.cancel(ctx, s)
		}

		o.publish.Publish(ctx, ProgressEvent{
			ScanID: scanID, Phase: PhaseProcessing,
			CurrentFile: f.LogicalPath, Processed: s.ProcessedFiles, Total: s.TotalFiles,
		})

		if errMsg := o.processFile(ctx, s, f); errMsg != "" {
			s.FailedFiles++
			recentErrors = append(recentErrors, errMsg)
			if len(recentErrors) > lastErrorsShown {
				recentErrors = recentErrors[len(recentErrors)-lastErrorsShown:]
			}
		} else {
			s.ProcessedFiles++
		}

		if uerr := o.store.UpdateScan(ctx, s); uerr != nil {
			return o.fail(ctx, s, fmt.Errorf("scan: update progress: %w", uerr))
		}
	}

	completedAt := o.clock()
	s.Status = catalog.ScanCompleted
	s.CompletedAt = &completedAt
	if uerr := o.store.UpdateScan(ctx, s); uerr != nil {
		return o.fail(ctx, s, fmt.Errorf("scan: transition to completed: %w", uerr))
	}
	o.publish.Publish(ctx, ProgressEvent{
		ScanID: scanID, Terminal: true, Status: string(catalog.ScanCompleted),
		Processed: s.ProcessedFiles, Total: s.TotalFiles, Failed: s.FailedFiles,
		Errors: recentErrors,
	})
	o.appendAudit(ctx, catalog.AuditScanCompleted, scanID)
	return nil
}

// appendAudit records a scan lifecycle transition if an Auditor is
// configured; a logging-only best-effort side effect that never affects
// the scan's own outcome.
func (o *Orchestrator) appendAudit(ctx context.Context, action catalog.AuditAction, scanID int64) {
	if o.audit == nil {
		return
	}
	id := scanID
	_, _ = o.audit.Append(ctx, audit.Entry{Action: action, ScanID: &id})
}

// ValidateRoot reports whether rootPath canonicalizes inside the
// orchestrator's allowed root, for callers (httpapi) that need the same
// check Run performs before ever creating a scan row.
func (o *Orchestrator) ValidateRoot(rootPath string) error {
	return o.validateRoot(rootPath)
}

func (o *Orchestrator) validateRoot(rootPath string) error {
	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return archonerr.Validation("invalid scan root path")
	}
	allowed, err := filepath.Abs(o.allowedRoot)
	if err != nil {
		return archonerr.Internal(err, "invalid configured allowed root")
	}
	rel, err := filepath.Rel(allowed, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return archonerr.Forbidden("scan root %s is outside the allowed root", rootPath)
	}
	return nil
}

func (o *Orchestrator) existingPaths(ctx context.Context, scanID int64) (map[string]bool, error) {
	docs, err := o.store.ListDocumentsByScan(ctx, scanID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(docs))
	for _, d := range docs {
		out[d.FilePath] = true
	}
	return out, nil
}

// processFile runs steps 5a-5i for one file. Returns a non-empty error
// message (already recorded as a ScanError) on any non-fatal failure, or ""
// on success.
func (o *Orchestrator) processFile(ctx context.Context, s *catalog.Scan, f discoveredFile) (errMsg string) {
	ctx, end := o.tracer.Start(ctx, "scan.processFile", map[string]any{"scan_id": s.ID, "path": f.LogicalPath})
	defer func() {
		if errMsg != "" {
			end(fmt.Errorf("%s", errMsg))
		} else {
			end(nil)
		}
	}()

	fileType := extract.DetectFileType(f.AbsPath)
	if extract.IsForensicImage(f.AbsPath) {
		fileType = catalog.FileTypeUnknown
	}

	res, err := extract.Extract(ctx, f.AbsPath, fileType, extract.Options{
		OCR: o.ocr, OCREnabled: o.ocrEnabled, Languages: o.ocrLanguages,
	})
	if err != nil {
		return o.recordError(ctx, s.ID, f.LogicalPath, "ExtractionError", err.Error())
	}
	if strings.TrimSpace(res.Text) == "" {
		return o.recordError(ctx, s.ID, f.LogicalPath, "EmptyContent", "extracted text was empty or whitespace only")
	}

	md5sum, sha256sum, err := o.hash(f.AbsPath)
	if err != nil {
		md5sum, sha256sum = "", ""
	}

	fileSize, statErr := statSize(f.AbsPath)
	if statErr != nil {
		fileSize = 0
	}

	doc := &catalog.Document{
		ScanID:         s.ID,
		FilePath:       f.LogicalPath,
		FileName:       filepath.Base(f.LogicalPath),
		FileType:       fileType,
		FileSize:       fileSize,
		TextContent:    res.Text,
		TextLength:     len(res.Text),
		HasOCR:         res.UsedOCR,
		ArchivePath:    f.ArchivePath,
		HashMD5:        md5sum,
		HashSHA256:     sha256sum,
		FileModifiedAt: extract.PreferIntrinsicDate(res.FileModifiedAt, f.AbsPath),
		IndexedAt:      o.clock(),
	}
	created, err := o.store.CreateDocument(ctx, doc)
	if err != nil {
		return o.recordError(ctx, s.ID, f.LogicalPath, "CatalogError", err.Error())
	}
	doc = created

	if o.archive != nil {
		if archiveErr := o.archiveOriginal(ctx, s.ID, doc.ID, f); archiveErr != nil {
			o.recordError(ctx, s.ID, f.LogicalPath, "ArchiveError", archiveErr.Error())
		}
	}

	if o.lexical != nil {
		lexErr := o.lexical.Index(ctx, lexicalindex.Doc{
			ID:             fmt.Sprintf("%d", doc.ID),
			ScanID:         s.ID,
			FilePath:       doc.FilePath,
			FileName:       doc.FileName,
			FileType:       string(doc.FileType),
			TextContent:    doc.TextContent,
			FileModifiedAt: doc.FileModifiedAt,
			IndexedAt:      doc.IndexedAt,
			FileSize:       doc.FileSize,
		})
		if lexErr != nil {
			o.recordError(ctx, s.ID, f.LogicalPath, "LexicalIndexError", lexErr.Error())
		} else {
			doc.LexicalRef = fmt.Sprintf("%d", doc.ID)
		}
	}

	if s.EmbeddingsEnabled && o.embed != nil && o.vector != nil && !isDeferredOCR(res.Text) {
		refs, embedErr := o.embedAndIndex(ctx, s.ID, doc)
		if embedErr != nil {
			o.recordError(ctx, s.ID, f.LogicalPath, "EmbeddingError", embedErr.Error())
		} else {
			doc.VectorRefs = refs
		}
	}

	if o.nerEnabled {
		for _, occ := range entities.Extract(doc.TextContent) {
			start := occ.StartChar
			if err := o.store.UpsertEntity(ctx, &catalog.Entity{
				DocumentID: doc.ID, Text: occ.Text, Type: occ.Type, Count: occ.Count, StartChar: &start,
			}); err != nil {
				o.recordError(ctx, s.ID, f.LogicalPath, "EntityError", err.Error())
				break
			}
		}
	}

	if err := o.store.UpdateDocument(ctx, doc); err != nil {
		return o.recordError(ctx, s.ID, f.LogicalPath, "CatalogError", err.Error())
	}
	return ""
}

// archiveOriginal durably archives the file's original bytes. Failure here
// is recorded as a non-fatal ScanError, not a reason to drop the document:
// evidence archival is a durability extra on top of the catalog row, not a
// requirement for indexing to proceed.
func (o *Orchestrator) archiveOriginal(ctx context.Context, scanID, documentID int64, f discoveredFile) error {
	file, err := os.Open(f.AbsPath)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = o.archive.Archive(ctx, scanID, documentID, f.LogicalPath, file)
	return err
}

func (o *Orchestrator) embedAndIndex(ctx context.Context, scanID int64, doc *catalog.Document) ([]string, error) {
	chunks := embedding.SlidingWindow(doc.TextContent, embedding.ChunkOptions{
		ChunkSizeTokens: o.chunkSizeTokens, OverlapTokens: o.chunkOverlap,
	})
	if len(chunks) == 0 {
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	batchSize := o.embedBatchSize
	if batchSize <= 0 {
		batchSize = len(texts)
	}
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := o.embed.EmbedBatch(ctx, texts[start:end], embedding.TaskDocument)
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", start, end, err)
		}
		vectors = append(vectors, batch...)
	}

	vchunks := make([]vectorindex.Chunk, len(chunks))
	for i, c := range chunks {
		vchunks[i] = vectorindex.Chunk{Index: c.Index, Text: c.Text, Vector: vectors[i]}
	}
	return o.vector.Upsert(ctx, doc.ID, scanID, vectorindex.DocMeta{
		FilePath: doc.FilePath, FileName: doc.FileName, FileType: doc.FileType,
	}, vchunks)
}

func statSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func isDeferredOCR(text string) bool {
	for _, prefix := range deferredOCRPrefixes {
		if strings.HasPrefix(text, prefix) {
			return true
		}
	}
	return false
}

func (o *Orchestrator) recordError(ctx context.Context, scanID int64, filePath, errType, message string) string {
	const maxMessageLen = 2000
	if len(message) > maxMessageLen {
		message = message[:maxMessageLen]
	}
	_ = o.store.RecordScanError(ctx, &catalog.ScanError{
		ScanID: scanID, FilePath: filePath, ErrorType: errType, Message: message,
	})
	return fmt.Sprintf("%s: %s: %s", filePath, errType, message)
}

func (o *Orchestrator) fail(ctx context.Context, s *catalog.Scan, cause error) error {
	completedAt := o.clock()
	s.Status = catalog.ScanFailed
	s.CompletedAt = &completedAt
	s.FatalErrorMessage = cause.Error()
	_ = o.store.UpdateScan(ctx, s)
	o.publish.Publish(ctx, ProgressEvent{ScanID: s.ID, Terminal: true, Status: string(catalog.ScanFailed), Errors: []string{cause.Error()}})
	return cause
}

func (o *Orchestrator) cancel(ctx context.Context, s *catalog.Scan) error {
	completedAt := o.clock()
	s.Status = catalog.ScanCancelled
	s.CompletedAt = &completedAt
	_ = o.store.UpdateScan(ctx, s)
	o.publish.Publish(ctx, ProgressEvent{ScanID: s.ID, Terminal: true, Status: string(catalog.ScanCancelled)})
	o.appendAudit(context.WithoutCancel(ctx), catalog.AuditScanCancelled, s.ID)
	return ctx.Err()
}
