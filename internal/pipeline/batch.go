package pipeline

import "github.com/sells-group/tender-cli/internal/model"

// DefaultBatchSize is the number of documents sent per oracle request.
const DefaultBatchSize = 8

// Partition splits a vendor's documents into consecutive batches of at most
// size documents. Order is preserved and each batch carries its position.
func Partition(vendorID string, docs []model.ExtractedDocument, size int) []model.AnalysisBatch {
	if size <= 0 {
		size = DefaultBatchSize
	}
	batches := make([]model.AnalysisBatch, 0, (len(docs)+size-1)/size)
	for start := 0; start < len(docs); start += size {
		end := min(start+size, len(docs))
		batches = append(batches, model.AnalysisBatch{
			Index:     len(batches),
			VendorID:  vendorID,
			Documents: docs[start:end],
		})
	}
	return batches
}
