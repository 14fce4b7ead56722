package runner

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/flamesh/flame"
)

// Installer resolves an Application's url (§4.6): extracts a supported
// archive format into a worker directory, or uses a directory in place.
// Only the file:// scheme is supported in this core, per spec; any other
// scheme is a fatal configuration error.
type Installer struct {
	// WorkDir is the base directory extracted/installed code lands under.
	WorkDir string
}

// NewInstaller constructs an Installer rooted at workDir.
func NewInstaller(workDir string) *Installer {
	return &Installer{WorkDir: workDir}
}

// Install resolves rawURL into a local directory path ready to be made
// importable (for Go, that means: present on disk for a Registry-provided
// factory to read configuration from, if it needs to).
func (in *Installer) Install(rawURL string) (string, error) {
	if rawURL == "" {
		return in.WorkDir, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", flame.Wrap(flame.CodeInvalidConfig, err, "parse application url %q", rawURL)
	}
	if u.Scheme != "file" {
		return "", flame.Errorf(flame.CodeInvalidConfig, "unsupported application url scheme %q: only file:// is supported", u.Scheme)
	}
	path := u.Path
	if path == "" {
		path = strings.TrimPrefix(rawURL, "file://")
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", flame.Wrap(flame.CodeInvalidConfig, err, "stat application path %s", path)
	}
	if info.IsDir() {
		return path, nil
	}

	dest := filepath.Join(in.WorkDir, strings.TrimSuffix(filepath.Base(path), archiveExt(path)))
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", flame.Wrap(flame.CodeInternal, err, "create install directory %s", dest)
	}
	if err := extractArchive(path, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func archiveExt(path string) string {
	switch {
	case strings.HasSuffix(path, ".tar.gz"), strings.HasSuffix(path, ".tgz"):
		return ".tar.gz"
	case strings.HasSuffix(path, ".tar.bz2"):
		return ".tar.bz2"
	case strings.HasSuffix(path, ".tar.xz"):
		return ".tar.xz"
	case strings.HasSuffix(path, ".zip"):
		return ".zip"
	default:
		return filepath.Ext(path)
	}
}

// extractArchive supports .tar.gz/.tgz, .tar.bz2, and .zip (§4.6: ".tar.gz",
// ".zip", ".tar.bz2", ".tar.xz" are named; .tar.xz is omitted here because
// the standard library has no xz decompressor and no pack dependency
// supplies one — see DESIGN.md).
func extractArchive(path, dest string) error {
	switch {
	case strings.HasSuffix(path, ".zip"):
		return extractZip(path, dest)
	case strings.HasSuffix(path, ".tar.bz2"):
		return extractTar(path, dest, bzip2.NewReader)
	case strings.HasSuffix(path, ".tar.gz"), strings.HasSuffix(path, ".tgz"):
		return extractTar(path, dest, func(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) })
	default:
		return flame.Errorf(flame.CodeInvalidConfig, "unsupported archive format: %s", path)
	}
}

func extractTar(path, dest string, decompress func(io.Reader) (io.Reader, error)) error {
	f, err := os.Open(path)
	if err != nil {
		return flame.Wrap(flame.CodeInternal, err, "open archive %s", path)
	}
	defer f.Close()

	dr, err := decompress(f)
	if err != nil {
		return flame.Wrap(flame.CodeInternal, err, "decompress archive %s", path)
	}

	tr := tar.NewReader(dr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return flame.Wrap(flame.CodeInternal, err, "read archive %s", path)
		}
		target := filepath.Join(dest, hdr.Name)
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
			return flame.Errorf(flame.CodeInvalidConfig, "archive entry %q escapes destination", hdr.Name)
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return flame.Wrap(flame.CodeInternal, err, "create directory %s", target)
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, os.FileMode(hdr.Mode)); err != nil {
				return err
			}
		}
	}
}

func extractZip(path, dest string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return flame.Wrap(flame.CodeInternal, err, "open archive %s", path)
	}
	defer zr.Close()

	for _, f := range zr.File {
		target := filepath.Join(dest, f.Name)
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
			return flame.Errorf(flame.CodeInvalidConfig, "archive entry %q escapes destination", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return flame.Wrap(flame.CodeInternal, err, "create directory %s", target)
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return flame.Wrap(flame.CodeInternal, err, "read archive entry %s", f.Name)
		}
		err = writeFile(target, rc, f.Mode())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return flame.Wrap(flame.CodeInternal, err, "create directory %s", filepath.Dir(target))
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return flame.Wrap(flame.CodeInternal, err, "create file %s", target)
	}
	defer out.Close()
	if _, err := io.Copy(out, r); err != nil {
		return flame.Wrap(flame.CodeInternal, err, "write file %s", target)
	}
	return nil
}
