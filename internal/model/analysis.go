package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ISOEntry is one ISO certificate reported by the oracle.
type ISOEntry struct {
	Standard         string `json:"standard"`
	ExpiryDate       string `json:"expiry_date"`
	DaysRemaining    Count  `json:"days_remaining"`
	ComplianceStatus string `json:"compliance_status"`
}

// FoundDocument is a document the oracle mapped onto a checklist category.
type FoundDocument struct {
	Filename string           `json:"filename"`
	Category RequiredCategory `json:"category"`
	Status   string           `json:"status"`
}

// Reference is a project reference entry reported by the oracle.
type Reference struct {
	Filename     string `json:"filename"`
	Category     string `json:"category"`
	Status       string `json:"status"`
	ProjectCount Count  `json:"project_count"`
}

// WRASAnalysis records whether a WRAS approval certificate was found.
type WRASAnalysis struct {
	Found bool   `json:"found"`
	ID    string `json:"wras_id"`
}

// UnmarshalJSON tolerates string booleans and numeric ids.
func (w *WRASAnalysis) UnmarshalJSON(data []byte) error {
	var raw struct {
		Found json.RawMessage `json:"found"`
		ID    FieldValue      `json:"wras_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	found := strings.Trim(strings.ToLower(strings.TrimSpace(string(raw.Found))), `"`)
	w.Found = found == "true" || found == "yes"
	w.ID = ""
	if !raw.ID.IsPlaceholder() {
		w.ID = raw.ID.String()
	}
	return nil
}

// Count is an integer the oracle may send as a number or numeric string.
// Unparseable values decode as zero.
type Count int

// UnmarshalJSON implements lenient integer decoding.
func (c *Count) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*c = 0
		return nil
	}
	*c = Count(int(f))
	return nil
}

// ExtractedData is the bag of scalar fields the oracle reports per batch.
type ExtractedData struct {
	CompanyName              FieldValue `json:"company_name"`
	ICVScore                 FieldValue `json:"icv_score"`
	PaymentTerms             FieldValue `json:"payment_terms"`
	CommercialInfo           FieldValue `json:"commercial_info"`
	GrandTotal               FieldValue `json:"grand_total"`
	ProjectHistory           FieldValue `json:"project_history"`
	TechnicalComplianceScore FieldValue `json:"technical_compliance_score"`
	AdvancePaymentPercentage FieldValue `json:"advance_payment_percentage"`
	QuotationFile            FieldValue `json:"quotation_file"`
}

// PartialAnalysis is the oracle's classification of one batch.
type PartialAnalysis struct {
	BatchIndex     int             `json:"batch_index"`
	VendorID       string          `json:"vendor_id"`
	ISOAnalysis    []ISOEntry      `json:"iso_analysis"`
	FoundDocuments []FoundDocument `json:"found_documents"`
	ReferenceList  []Reference     `json:"reference_list"`
	WRAS           WRASAnalysis    `json:"wras_analysis"`
	Data           ExtractedData   `json:"extracted_data"`
}

// EmptyAnalysis is the result recorded for a batch whose oracle call or
// response parse failed.
func EmptyAnalysis(batchIndex int, vendorID string) PartialAnalysis {
	return PartialAnalysis{BatchIndex: batchIndex, VendorID: vendorID}
}

// IsEmpty reports whether the analysis carries no findings.
func (p PartialAnalysis) IsEmpty() bool {
	return len(p.ISOAnalysis) == 0 &&
		len(p.FoundDocuments) == 0 &&
		len(p.ReferenceList) == 0 &&
		!p.WRAS.Found &&
		p.Data == (ExtractedData{})
}
