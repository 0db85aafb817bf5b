// Package build produces the distribution artifacts for the publish phase:
// a source distribution (tar.gz) and a binary distribution (zip) of the job
// workspace, written to the conventional dist/ directory.
package build

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/conveyor-ci/conveyor/internal/ctxlog"
	"github.com/conveyor-ci/conveyor/internal/stepreg"
)

// Module implements the stepreg.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'with' block.
type Input struct {
	// Name is the distribution name.
	Name string `hcl:"name"`

	// Version labels the artifacts; usually event.tag. Defaults to "0.0.0"
	// for untagged builds.
	Version string `hcl:"version,optional"`

	// OutDir is where the artifacts land, relative to the workspace.
	// Defaults to "dist".
	OutDir string `hcl:"out_dir,optional"`
}

// Register registers the build handler with the registry.
func (m *Module) Register(r *stepreg.Registry) {
	r.Register("build", &stepreg.Handler{
		NewInput: func() any { return new(Input) },
		Fn:       run,
	})
}

func run(ctx context.Context, sc *stepreg.StepContext, input any) error {
	in, ok := input.(*Input)
	if !ok || in.Name == "" {
		return fmt.Errorf("build step requires a name")
	}

	version := in.Version
	if version == "" {
		version = "0.0.0"
	}
	outDir := in.OutDir
	if outDir == "" {
		outDir = "dist"
	}

	distDir := filepath.Join(sc.Workspace, outDir)
	if err := os.MkdirAll(distDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	base := fmt.Sprintf("%s-%s", in.Name, version)
	names := ArtifactNames(in.Name, version)
	sdist := filepath.Join(distDir, names[0])
	bdist := filepath.Join(distDir, names[1])

	if err := writeTarball(sc.Workspace, outDir, base, sdist); err != nil {
		return fmt.Errorf("failed to build source distribution: %w", err)
	}
	if err := writeZip(sc.Workspace, outDir, base, bdist); err != nil {
		return fmt.Errorf("failed to build binary distribution: %w", err)
	}

	logger := ctxlog.FromContext(ctx).With("step", "build")
	logger.Info("Distributions built.", "sdist", filepath.Base(sdist), "bdist", filepath.Base(bdist))
	fmt.Fprintf(sc.Stdout, "built %s and %s\n", filepath.Base(sdist), filepath.Base(bdist))
	return nil
}

// walkSources visits every regular file of the workspace except the output
// directory itself.
func walkSources(workspace, outDir string, visit func(relPath, absPath string, info fs.FileInfo) error) error {
	outAbs := filepath.Join(workspace, outDir)
	return filepath.WalkDir(workspace, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == outAbs {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(workspace, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return visit(filepath.ToSlash(rel), path, info)
	})
}

func writeTarball(workspace, outDir, base, target string) error {
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()

	gzw := gzip.NewWriter(out)
	tw := tar.NewWriter(gzw)

	err = walkSources(workspace, outDir, func(relPath, absPath string, info fs.FileInfo) error {
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = base + "/" + relPath
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		return copyIntoWriter(tw, absPath)
	})
	if err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return err
	}
	if err := gzw.Close(); err != nil {
		return err
	}
	return out.Close()
}

func writeZip(workspace, outDir, base, target string) error {
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	err = walkSources(workspace, outDir, func(relPath, absPath string, info fs.FileInfo) error {
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = base + "/" + relPath
		hdr.Method = zip.Deflate
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		return copyIntoWriter(w, absPath)
	})
	if err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return err
	}
	return out.Close()
}

func copyIntoWriter(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to archive %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ArtifactNames returns the artifact file names the build step would produce
// for a given name and version, in sdist-then-bdist order.
func ArtifactNames(name, version string) []string {
	if version == "" {
		version = "0.0.0"
	}
	base := strings.Join([]string{name, version}, "-")
	return []string{base + ".tar.gz", base + ".zip"}
}
