package extract

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Mounter mounts a forensic disk image to a directory and unmounts it when
// the returned cleanup func runs. Concrete implementations shell out to
// ewfmount (.e01/.aff) or a plain loop mount (.dd/.raw/.img).
type Mounter interface {
	Mount(ctx context.Context, imagePath string) (mountDir string, cleanup func(), err error)
}

// execMounter shells out to the standard forensic mount tools, mirroring
// its subprocess-supervision style in initialize.go/services.go
// (exec.CommandContext, captured stderr, explicit error wrapping).
type execMounter struct{}

// NewExecMounter returns the default Mounter backed by ewfmount/affuse for
// E01/AFF images and the kernel loop driver for raw/dd images.
func NewExecMounter() Mounter { return execMounter{} }

func (execMounter) Mount(ctx context.Context, imagePath string) (string, func(), error) {
	mountDir, err := os.MkdirTemp("", "archon-forensic-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() {
		_ = exec.Command("umount", mountDir).Run()
		_ = os.RemoveAll(mountDir)
	}

	ext := strings.ToLower(filepath.Ext(imagePath))
	var cmd *exec.Cmd
	switch ext {
	case ".e01":
		// TODO: ewfmount exposes a raw device node under mountDir; chaining a
		// second loop mount of that node onto a separate directory is left to
		// the caller until a filesystem-type sniff is wired in.
		cmd = exec.CommandContext(ctx, "ewfmount", imagePath, mountDir)
	case ".aff":
		cmd = exec.CommandContext(ctx, "affuse", imagePath, mountDir)
	case ".dd", ".raw", ".img":
		cmd = exec.CommandContext(ctx, "mount", "-o", "loop,ro", imagePath, mountDir)
	default:
		cleanup()
		return "", nil, fmt.Errorf("unsupported forensic image extension %q", ext)
	}

	out, err := cmd.CombinedOutput()
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("mount %s: %w: %s", imagePath, err, strings.TrimSpace(string(out)))
	}

	return mountDir, cleanup, nil
}
