package model

import "time"

// RankLabel is the price tier assigned to a priced vendor.
type RankLabel string

const (
	RankNone RankLabel = ""
	RankL1   RankLabel = "L1"
	RankL2   RankLabel = "L2"
	RankL3   RankLabel = "L3"
)

// ReportStats counts what went into a CompanyReport.
type ReportStats struct {
	Documents         int `json:"documents"`
	FailedExtractions int `json:"failed_extractions"`
	Batches           int `json:"batches"`
	EmptyBatches      int `json:"empty_batches"`
}

// CompanyReport is the aggregated evaluation of one vendor.
type CompanyReport struct {
	VendorID                 string             `json:"vendor_id"`
	Archive                  string             `json:"archive,omitempty"`
	CompanyName              string             `json:"company_name"`
	ISOAnalysis              []ISOEntry         `json:"iso_analysis"`
	FoundDocuments           []FoundDocument    `json:"found_documents"`
	ReferenceList            []Reference        `json:"reference_list"`
	WRAS                     WRASAnalysis       `json:"wras_analysis"`
	ICVScore                 FieldValue         `json:"icv_score"`
	PaymentTerms             FieldValue         `json:"payment_terms"`
	CommercialInfo           FieldValue         `json:"commercial_info"`
	GrandTotal               float64            `json:"grand_total"`
	ProjectHistory           FieldValue         `json:"project_history"`
	TechnicalComplianceScore FieldValue         `json:"technical_compliance_score"`
	AdvancePaymentPercentage float64            `json:"advance_payment_percentage"`
	QuotationFile            FieldValue         `json:"quotation_file"`
	MissingDocuments         []RequiredCategory `json:"missing_documents"`
	RankLabel                RankLabel          `json:"rank_label,omitempty"`
	Stats                    ReportStats        `json:"stats"`
}

// Priced reports whether the vendor has a usable grand total.
func (r CompanyReport) Priced() bool { return r.GrandTotal > 0 }

// CriterionScore is one criterion's contribution to a vendor's score.
type CriterionScore struct {
	Key      string  `json:"key"`
	Label    string  `json:"label"`
	Weight   float64 `json:"weight"`
	Value    float64 `json:"value"`
	Display  string  `json:"display"`
	IsWinner bool    `json:"is_winner"`
}

// ScoreCard is the auditable score breakdown for one vendor.
type ScoreCard struct {
	VendorID    string           `json:"vendor_id"`
	CompanyName string           `json:"company_name"`
	Criteria    []CriterionScore `json:"criteria"`
	TotalScore  float64          `json:"total_score"`
}

// VendorRef identifies a vendor in evaluation output.
type VendorRef struct {
	VendorID    string `json:"vendor_id"`
	CompanyName string `json:"company_name"`
}

// VendorWarning records a vendor that was skipped or degraded.
type VendorWarning struct {
	VendorID string `json:"vendor_id"`
	Archive  string `json:"archive"`
	Message  string `json:"message"`
}

// Evaluation is the complete output of a run.
type Evaluation struct {
	RunID         string          `json:"run_id,omitempty"`
	ReferenceDate time.Time       `json:"reference_date"`
	Reports       []CompanyReport `json:"reports"`
	ScoreCards    []ScoreCard     `json:"score_cards"`
	Recommended   *VendorRef      `json:"recommended,omitempty"`
	LowestBidder  *VendorRef      `json:"lowest_bidder,omitempty"`
	Warnings      []VendorWarning `json:"warnings,omitempty"`
	Usage         TokenUsage      `json:"usage"`
}
