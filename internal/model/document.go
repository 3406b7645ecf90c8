package model

import "fmt"

// SourceDocument is one PDF taken from a vendor archive.
type SourceDocument struct {
	Filename string `json:"filename"`
	VendorID string `json:"vendor_id"`
	Data     []byte `json:"-"`
}

// ExtractionMethod records how a document's text was obtained.
type ExtractionMethod string

const (
	ExtractionTextLayer ExtractionMethod = "text_layer"
	ExtractionFailed    ExtractionMethod = "failed"
)

// ExtractedDocument is the text recovered from a SourceDocument.
// For failed extractions Text holds a placeholder naming the file.
type ExtractedDocument struct {
	Filename string           `json:"filename"`
	VendorID string           `json:"vendor_id"`
	Text     string           `json:"text"`
	Method   ExtractionMethod `json:"method"`
}

// FailedExtractionText is the placeholder sent to the oracle for a
// document whose text could not be recovered.
func FailedExtractionText(filename string) string {
	return fmt.Sprintf("FILE_NAME: %s\n(Extraction Failed: Could not extract text)", filename)
}

// Block renders the document as it appears in an oracle request.
func (d ExtractedDocument) Block() string {
	if d.Method != ExtractionTextLayer {
		return FailedExtractionText(d.Filename)
	}
	return fmt.Sprintf("FILE_NAME: %s\n(Extracted via Text Layer)\n%s", d.Filename, d.Text)
}

// AnalysisBatch is a contiguous chunk of one vendor's documents sent to
// the oracle in a single request. Index is the chunk's position in the
// vendor's document order and drives aggregation order.
type AnalysisBatch struct {
	Index     int                 `json:"index"`
	VendorID  string              `json:"vendor_id"`
	Documents []ExtractedDocument `json:"documents"`
}
