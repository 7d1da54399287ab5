package scan

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"archon/internal/archivex"
	"archon/internal/extract"
)

// discoveredFile is one leaf file ready for C2 extraction.
type discoveredFile struct {
	AbsPath     string // real path on disk (inside a temp dir if expanded/mounted)
	LogicalPath string // file_path as recorded on the Document: root-relative, with archive/mount trail
	ArchivePath string // nullable virtual trail, e.g. "outer.zip/inner/", or forensic image name
}

// discover walks root, expanding containers (archivex) and mounting
// forensic disk images (extract.Mounter) as it finds them, and streams
// every leaf file to yield. Expansion/mount errors are non-fatal: they are
// appended to the returned error list and discovery continues.
func (o *Orchestrator) discover(ctx context.Context, root string, yield func(discoveredFile)) []archivex.Error {
	var errs []archivex.Error
	o.discoverDir(ctx, root, root, "", &errs, yield)
	return errs
}

func (o *Orchestrator) discoverDir(ctx context.Context, scanRoot, dir, trailPrefix string, errs *[]archivex.Error, yield func(discoveredFile)) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			*errs = append(*errs, archivex.Error{Path: path, Err: err})
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(scanRoot, path)
		if relErr != nil {
			rel = path
		}
		logical := joinTrail(trailPrefix, rel)

		switch {
		case extract.IsForensicImage(path):
			o.discoverForensicImage(ctx, path, logical, errs, yield)
		case archivex.IsContainer(path):
			o.discoverArchive(path, logical, errs, yield)
		default:
			yield(discoveredFile{AbsPath: path, LogicalPath: logical})
		}
		return nil
	})
}

func (o *Orchestrator) discoverArchive(path, logical string, errs *[]archivex.Error, yield func(discoveredFile)) {
	entries, expandErrs := archivex.Expand(path, o.archiveMaxDepth)
	*errs = append(*errs, expandErrs...)
	for _, e := range entries {
		lp := logical
		if e.Trail != "" {
			lp = joinTrail(logical, e.Trail)
		}
		yield(discoveredFile{AbsPath: e.Path, LogicalPath: lp, ArchivePath: e.Trail})
	}
}

func (o *Orchestrator) discoverForensicImage(ctx context.Context, path, logical string, errs *[]archivex.Error, yield func(discoveredFile)) {
	if o.mounter == nil {
		*errs = append(*errs, archivex.Error{Path: path, Err: errForensicMountUnavailable})
		return
	}
	mountDir, cleanup, err := o.mounter.Mount(ctx, path)
	if err != nil {
		*errs = append(*errs, archivex.Error{Path: path, Err: err})
		return
	}
	defer cleanup()
	o.discoverDir(ctx, mountDir, mountDir, logical, errs, yield)
}

func joinTrail(prefix, suffix string) string {
	suffix = filepath.ToSlash(suffix)
	if prefix == "" {
		return suffix
	}
	return strings.TrimSuffix(prefix, "/") + "/" + suffix
}
