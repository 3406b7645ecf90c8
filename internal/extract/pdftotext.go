package extract

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strconv"

	"github.com/rotisserie/eris"
)

// TextSource recovers the embedded text layer of a PDF page range.
type TextSource interface {
	PageText(ctx context.Context, pdf []byte, firstPage, lastPage int) (string, error)
}

// PdfToText reads text layers with the poppler pdftotext CLI.
type PdfToText struct {
	binPath string
	tempDir string
}

// NewPdfToText creates a PdfToText source. If binPath is empty,
// "pdftotext" is resolved from PATH. PDFs are staged in tempDir, or the
// system temp directory when it is empty.
func NewPdfToText(binPath, tempDir string) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath, tempDir: tempDir}
}

// PageText writes pdf to a temp file and runs
// pdftotext -f first -l last -layout <file> -.
func (p *PdfToText) PageText(ctx context.Context, pdf []byte, firstPage, lastPage int) (string, error) {
	tmp, err := os.CreateTemp(p.tempDir, "tender-*.pdf")
	if err != nil {
		return "", eris.Wrap(err, "extract: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(pdf); err != nil {
		_ = tmp.Close()
		return "", eris.Wrap(err, "extract: write temp file")
	}
	if err := tmp.Close(); err != nil {
		return "", eris.Wrap(err, "extract: close temp file")
	}

	cmd := exec.CommandContext(ctx, p.binPath,
		"-f", strconv.Itoa(firstPage),
		"-l", strconv.Itoa(lastPage),
		"-layout", tmp.Name(), "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "extract: pdftotext failed: %s", stderr.String())
	}
	return stdout.String(), nil
}
