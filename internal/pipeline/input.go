package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/sells-group/tender-cli/internal/archive"
	"github.com/sells-group/tender-cli/internal/model"
)

// ArchiveInput is one vendor submission: either a zip on disk (Path) or an
// in-memory upload (Name and Data).
type ArchiveInput struct {
	Path string
	Name string
	Data []byte
}

// DisplayName is the archive's file name.
func (in ArchiveInput) DisplayName() string {
	if in.Path != "" {
		return filepath.Base(in.Path)
	}
	return in.Name
}

func (in ArchiveInput) read(vendorID string) ([]model.SourceDocument, error) {
	if in.Path != "" {
		return archive.ReadFile(in.Path, vendorID)
	}
	return archive.ReadBytes(in.Name, in.Data, vendorID)
}

// assignVendorIDs derives a vendor id per input from its archive name. Later
// duplicates get a numeric suffix so ids stay unique within a run.
func assignVendorIDs(inputs []ArchiveInput) []string {
	ids := make([]string, len(inputs))
	taken := make(map[string]bool, len(inputs))
	for i, in := range inputs {
		base := archive.VendorID(in.DisplayName())
		if base == "" {
			base = fmt.Sprintf("vendor-%d", i+1)
		}
		id := base
		for n := 2; taken[id]; n++ {
			id = fmt.Sprintf("%s-%d", base, n)
		}
		taken[id] = true
		ids[i] = id
	}
	return ids
}
