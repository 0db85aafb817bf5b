package fsutil

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// copySkipDirs are directory names never staged into a job workspace.
var copySkipDirs = map[string]bool{
	".git":  true,
	"dist":  true,
	".tmp":  true,
	".venv": true,
}

// CopyTree recursively copies the contents of srcDir into dstDir, preserving
// file modes. Version-control and build-output directories are skipped so a
// staged workspace never contains a previous run's artifacts.
func CopyTree(srcDir, dstDir string) error {
	srcAbs, err := filepath.Abs(srcDir)
	if err != nil {
		return fmt.Errorf("failed to resolve source path %s: %w", srcDir, err)
	}
	dstAbs, err := filepath.Abs(dstDir)
	if err != nil {
		return fmt.Errorf("failed to resolve destination path %s: %w", dstDir, err)
	}

	return filepath.WalkDir(srcAbs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && (copySkipDirs[d.Name()] || path == dstAbs) {
			return filepath.SkipDir
		}

		rel, err := filepath.Rel(srcAbs, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dstAbs, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			// Symlinks and devices are not part of a source checkout.
			return nil
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
