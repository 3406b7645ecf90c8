// Package fetcher downloads vendor archives from http(s) and ftp URLs.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// IsRemote reports whether arg looks like a URL the Router can serve rather
// than a local path.
func IsRemote(arg string) bool {
	lower := strings.ToLower(arg)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "ftp://")
}

// Router dispatches downloads to a Fetcher by URL scheme.
type Router struct {
	schemes map[string]Fetcher
}

// NewRouter builds a Router serving http, https and ftp.
func NewRouter(httpF, ftpF Fetcher) *Router {
	return &Router{schemes: map[string]Fetcher{
		"http":  httpF,
		"https": httpF,
		"ftp":   ftpF,
	}}
}

// Download implements Fetcher.
func (r *Router) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: parse url")
	}
	f, ok := r.schemes[strings.ToLower(u.Scheme)]
	if !ok || f == nil {
		return nil, eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
	}
	return f.Download(ctx, rawURL)
}

// DownloadToFile fetches rawURL and writes it to path. Returns bytes written.
func DownloadToFile(ctx context.Context, f Fetcher, rawURL string, path string) (int64, error) {
	body, err := f.Download(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer body.Close() //nolint:errcheck

	file, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "fetcher: create file")
	}
	defer file.Close() //nolint:errcheck

	n, err := io.Copy(file, body)
	if err != nil {
		return n, eris.Wrap(err, "fetcher: write file")
	}
	return n, nil
}

// FetchArchive downloads rawURL into dir, keeping the URL's base name so the
// vendor id derived from the file stays meaningful. Returns the local path.
func FetchArchive(ctx context.Context, f Fetcher, rawURL, dir string) (string, error) {
	name := ArchiveName(rawURL)
	dest := filepath.Join(dir, name)

	n, err := DownloadToFile(ctx, f, rawURL, dest)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: fetch %s", rawURL)
	}
	zap.L().Info("fetched archive",
		zap.String("url", rawURL),
		zap.String("path", dest),
		zap.Int64("bytes", n),
	)
	return dest, nil
}

// ArchiveName returns the file name for a downloaded archive.
func ArchiveName(rawURL string) string {
	name := "archive.zip"
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "/" && base != "." {
			name = base
		}
	}
	if !strings.EqualFold(filepath.Ext(name), ".zip") {
		name += ".zip"
	}
	return name
}
