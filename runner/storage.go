package runner

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-resty/resty/v2"

	"github.com/flamesh/flame"
)

// Storage uploads and deletes the gzipped tar archives Runner packages
// (§6 "Runner storage": file://absolute/path or http(s)://host/prefix/).
type Storage struct {
	http *resty.Client
}

// NewStorage constructs a Storage client.
func NewStorage() *Storage {
	return &Storage{http: resty.New()}
}

// Package tars dir into a gzip archive, excluding any path matching a
// doublestar glob in excludes (§4.7 step 1).
func Package(dir string, excludes []string) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if matchesAny(excludes, rel) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return nil, flame.Wrap(flame.CodeInternal, err, "package directory %s", dir)
	}
	if err := tw.Close(); err != nil {
		return nil, flame.Wrap(flame.CodeInternal, err, "finalize archive")
	}
	if err := gz.Close(); err != nil {
		return nil, flame.Wrap(flame.CodeInternal, err, "finalize archive")
	}
	return buf.Bytes(), nil
}

func matchesAny(excludes []string, rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// Upload writes data to base (a file:// directory or an http(s):// prefix)
// under name, returning the full URL the archive lives at.
func (s *Storage) Upload(ctx context.Context, base, name string, data []byte) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", flame.Wrap(flame.CodeInvalidConfig, err, "parse storage base %q", base)
	}
	switch u.Scheme {
	case "file":
		dir := u.Path
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", flame.Wrap(flame.CodeInternal, err, "create storage directory %s", dir)
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return "", flame.Wrap(flame.CodeInternal, err, "write archive %s", path)
		}
		return "file://" + path, nil
	case "http", "https":
		target := strings.TrimSuffix(base, "/") + "/" + name
		resp, err := s.http.R().SetContext(ctx).SetBody(data).Put(target)
		if err != nil {
			return "", flame.Wrap(flame.CodeInternal, err, "upload archive to %s", target)
		}
		if resp.IsError() {
			return "", flame.Errorf(flame.CodeInternal, "upload archive to %s: %s", target, resp.Status())
		}
		return target, nil
	default:
		return "", flame.Errorf(flame.CodeInvalidConfig, "unsupported storage scheme %q", u.Scheme)
	}
}

// Delete removes the archive at rawURL (best-effort; used during teardown).
func (s *Storage) Delete(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return flame.Wrap(flame.CodeInvalidConfig, err, "parse archive url %q", rawURL)
	}
	switch u.Scheme {
	case "file":
		if err := os.Remove(u.Path); err != nil && !os.IsNotExist(err) {
			return flame.Wrap(flame.CodeInternal, err, "delete archive %s", u.Path)
		}
		return nil
	case "http", "https":
		resp, err := s.http.R().SetContext(ctx).Delete(rawURL)
		if err != nil {
			return flame.Wrap(flame.CodeInternal, err, "delete archive %s", rawURL)
		}
		if resp.IsError() {
			return flame.Errorf(flame.CodeInternal, "delete archive %s: %s", rawURL, resp.Status())
		}
		return nil
	default:
		return flame.Errorf(flame.CodeInvalidConfig, "unsupported storage scheme %q", u.Scheme)
	}
}
