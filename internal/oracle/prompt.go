package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/tender-cli/internal/model"
)

// DocumentSeparator joins document blocks inside one request.
const DocumentSeparator = "\n\n=== NEXT DOCUMENT ===\n"

const responseSchema = `{
  "iso_analysis": [
    {"standard": "ISO 9001", "expiry_date": "YYYY-MM-DD", "days_remaining": 0, "compliance_status": "Pass/Fail"}
  ],
  "found_documents": [
    {"filename": "name.pdf", "category": "Category from list", "status": "Valid"}
  ],
  "wras_analysis": {"found": true, "wras_id": "123456"},
  "reference_list": [
    {"filename": "name.pdf", "category": "Category from list", "status": "Valid", "project_count": 0}
  ],
  "extracted_data": {
    "company_name": "Name of the company/vendor",
    "icv_score": "ICV score or percentage found (e.g. 10%)",
    "payment_terms": "Payment terms details (e.g. '30 days credit' or '10% Advance')",
    "advance_payment_percentage": 0,
    "commercial_info": "Commercial comparison details",
    "grand_total": 0.0,
    "project_history": "Total count of previous projects found as a number (e.g. '5')",
    "technical_compliance_score": "Technical compliance score if explicitly mentioned (e.g. '98%')",
    "quotation_file": "filename.pdf"
  }
}`

// SystemPrompt builds the static part of every request: the checklist,
// the ISO validity rule and the response schema. It does not depend on the
// batch, so it is sent as a cached system block.
func SystemPrompt(checklist model.Checklist, isoMinDays int) string {
	cats, _ := json.Marshal(checklist.Categories())

	var b strings.Builder
	b.WriteString("You are a tender document analyzer for a procurement evaluation committee.\n")
	b.WriteString("Extract data from the vendor's PDF documents and translate it to English if it is not in English.\n\n")
	fmt.Fprintf(&b, "Classify each document into one category from this list, copying the category text exactly:\n%s\n\n", cats)
	fmt.Fprintf(&b, "Compliance rule: ISO certificates must be valid for more than %d days from the reference date given with the documents.\n\n", isoMinDays)
	b.WriteString("Return ONLY a JSON object with this EXACT structure:\n")
	b.WriteString(responseSchema)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- For a reference list of past projects, count the distinct projects listed and put the count in \"project_count\".\n")
	b.WriteString("- Extract the company name, ICV score, payment terms and commercial info if available.\n")
	b.WriteString("- Extract the 'Grand Total' or 'Total Bid Price' as a pure number (no currency symbols) in \"grand_total\". If not found, return 0.0.\n")
	b.WriteString("- Return the advance payment percentage as a pure number in \"advance_payment_percentage\"; 0 if there is none.\n")
	b.WriteString("- Identify the file that acts as the primary 'Quotation' or 'Financial Proposal' (containing the total price) and return its filename in \"quotation_file\".\n")
	b.WriteString("- Use \"N/A\" for any text field you cannot find.\n")
	return b.String()
}

// UserPrompt renders the reference date and the batch's documents.
func UserPrompt(batch model.AnalysisBatch, referenceDate time.Time) string {
	blocks := make([]string, len(batch.Documents))
	for i, d := range batch.Documents {
		blocks[i] = d.Block()
	}
	return fmt.Sprintf("Reference date: %s\n\n%s",
		referenceDate.Format(time.DateOnly),
		strings.Join(blocks, DocumentSeparator))
}
