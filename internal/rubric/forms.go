package rubric

// Form is one entry of the tender form register. The register is a fixed
// record of the tender's standard forms, not something read from vendor
// documents.
type Form struct {
	Title     string `yaml:"title" json:"title"`
	Submitted bool   `yaml:"submitted" json:"submitted"`
}

// DefaultForms is the standard tender form register.
func DefaultForms() []Form {
	return []Form{
		{Title: "Bidder’s Information Sheet", Submitted: true},
		{Title: "Company Registrations", Submitted: true},
		{Title: "Undertaking of registration (for International Bidders)"},
		{Title: "Bidder’s Authorized Signatory", Submitted: true},
		{Title: "Details of Bidder’s Local Agent"},
		{Title: "Parent Company Undertaking (Where applicable)", Submitted: true},
		{Title: "Historical Contract Non-Performance"},
		{Title: "Litigation History", Submitted: true},
		{Title: "Confidentiality Non-Disclosure Agreement (Mandatory Requirements)", Submitted: true},
		{Title: "Statement of Integrity (Mandatory Requirements)", Submitted: true},
		{Title: "No Conflict-of-Interest Declaration (Mandatory Requirements)", Submitted: true},
		{Title: "Bidder’s General Experience (GCC & Middle East)", Submitted: true},
		{Title: "Bidder’s General Experience (International)", Submitted: true},
		{Title: "Bidder’s General Experience (Civil Engineering Projects)", Submitted: true},
		{Title: "Bidder’s Specific Experience", Submitted: true},
		{Title: "Bidder’s Specific Experience (Ongoing Projects - Jobs in Hand)", Submitted: true},
		{Title: "Bid Qualifications (Deviations, Reservations and Omissions by Bidder) (Mandatory Requirements)", Submitted: true},
		{Title: "Statement of Unresolved Doubts (Mandatory Requirements)", Submitted: true},
		{Title: "Declaration of Site Visit", Submitted: true},
		{Title: "Management Approach", Submitted: true},
		{Title: "Outline Programme (Schedule)", Submitted: true},
		{Title: "Production Schedule", Submitted: true},
		{Title: "Forecast of Anticipated Interim Valuations", Submitted: true},
		{Title: "Execution Plan and Methodology", Submitted: true},
		{Title: "Concreting Proposals", Submitted: true},
		{Title: "Approach to Coordination", Submitted: true},
		{Title: "NoC Management Plan", Submitted: true},
		{Title: "Quality Management System", Submitted: true},
		{Title: "HSE Management System (Mandatory Requirements)", Submitted: true},
		{Title: "Company Organization Chart", Submitted: true},
		{Title: "Project Specific Organization Chart", Submitted: true},
		{Title: "Key Positions Proposed", Submitted: true},
		{Title: "Key Positions Proposed – Candidate’s Summary (CV’s)", Submitted: true},
		{Title: "Details of Supervisory and Technical Staff and Laborers (Omanis & Expats)", Submitted: true},
		{Title: "Confirmation of Omanization of Manpower", Submitted: true},
		{Title: "List of Proposed Personnel to be Employed on the Works/Services (Omani & Expats)", Submitted: true},
		{Title: "List of All Omani Staff Employed in the Organization", Submitted: true},
		{Title: "List of All Expatriates Employed in the Organization", Submitted: true},
		{Title: "Statement of Compliance from Ministry of Labour 286//2008 (Mandatory Requirements)", Submitted: true},
		{Title: "Proposal for Base Camp and Accommodation", Submitted: true},
		{Title: "List of bidder’s Equipment and Machinery", Submitted: true},
		{Title: "Country of Origin Declaration", Submitted: true},
		{Title: "List of all Products and Materials (Other than Mechanical, Electrical, ICA & IT)", Submitted: true},
		{Title: "List of all Products and Materials (Mechanical, Electrical, ICA & IT)", Submitted: true},
		{Title: "List of Proposed Sub-Contractors & Suppliers", Submitted: true},
		{Title: "SME Allocation confirmation", Submitted: true},
		{Title: "List of Proposed Sub-Contractors & Suppliers (SMEs)", Submitted: true},
		{Title: "Local Content / ICV (Mandatory Requirements)", Submitted: true},
		{Title: "List of Documents requiring NWS’s Approval", Submitted: true},
		{Title: "Comfort letter from Bank", Submitted: true},
		{Title: "Details of bank facilities available", Submitted: true},
		{Title: "Financial Situation", Submitted: true},
		{Title: "Average Annual Turnover", Submitted: true},
		{Title: "Copy of each Circular Letter and Addendum issued by NWS (Mandatory Requirements)", Submitted: true},
		{Title: "Bid Evaluation Criteria in section 1.2 - 2 (Mandatory Requirements)", Submitted: true},
		{Title: "Appendix to the Letter of Tender", Submitted: true},
	}
}
