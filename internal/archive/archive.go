// Package archive reads vendor submission archives into source documents.
package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/tender-cli/internal/model"
)

// maxEntryBytes bounds a single decompressed PDF.
const maxEntryBytes = 256 << 20

// ReadError reports an archive that could not be opened or read. The
// vendor it belongs to is skipped.
type ReadError struct {
	Archive string
	Err     error
}

func (e *ReadError) Error() string {
	return "archive: read " + e.Archive + ": " + e.Err.Error()
}

func (e *ReadError) Unwrap() error { return e.Err }

// VendorID derives a vendor identifier from an archive path: the base name
// without its extension.
func VendorID(archivePath string) string {
	base := filepath.Base(archivePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ReadFile opens the zip archive at path and returns its PDF documents in
// archive order.
func ReadFile(archivePath, vendorID string) ([]model.SourceDocument, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, &ReadError{Archive: archivePath, Err: eris.Wrap(err, "zip: open archive")}
	}
	defer r.Close() //nolint:errcheck

	return readEntries(archivePath, vendorID, r.File)
}

// ReadBytes reads an archive held in memory, e.g. an HTTP upload.
func ReadBytes(name string, data []byte, vendorID string) ([]model.SourceDocument, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ReadError{Archive: name, Err: eris.Wrap(err, "zip: open archive")}
	}
	return readEntries(name, vendorID, r.File)
}

func readEntries(name, vendorID string, files []*zip.File) ([]model.SourceDocument, error) {
	var docs []model.SourceDocument
	for _, f := range files {
		if !IsDocument(f.Name) || f.FileInfo().IsDir() {
			continue
		}

		data, err := readEntry(f)
		if err != nil {
			return nil, &ReadError{Archive: name, Err: err}
		}
		docs = append(docs, model.SourceDocument{
			Filename: path.Clean(f.Name),
			VendorID: vendorID,
			Data:     data,
		})
	}
	return docs, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > maxEntryBytes {
		return nil, eris.Errorf("zip: entry %q exceeds %d bytes", f.Name, maxEntryBytes)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, eris.Wrapf(err, "zip: open entry %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(rc, maxEntryBytes+1))
	if err != nil {
		return nil, eris.Wrapf(err, "zip: read entry %s", f.Name)
	}
	if len(data) > maxEntryBytes {
		return nil, eris.Errorf("zip: entry %q exceeds %d bytes", f.Name, maxEntryBytes)
	}
	return data, nil
}

// IsDocument reports whether a zip entry name is a PDF worth evaluating.
// Resource-fork folders and hidden files are excluded.
func IsDocument(name string) bool {
	name = strings.ReplaceAll(name, "\\", "/")
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if strings.HasPrefix(part, "__MACOSX") || strings.HasPrefix(part, ".") {
			return false
		}
	}
	return true
}

// Size returns the size of a local archive, used for logging.
func Size(archivePath string) int64 {
	fi, err := os.Stat(archivePath)
	if err != nil {
		return 0
	}
	return fi.Size()
}
