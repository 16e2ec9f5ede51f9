package types

import (
	"fmt"
	"time"
)

// CircularDescriptor identifies one circular in the source listing for a
// given date. DocumentURL is empty when the listing row carried no
// document link; such rows are surfaced to the caller, not dropped.
type CircularDescriptor struct {
	Name            string `json:"name" bson:"name"`
	NotificationURL string `json:"notification_url" bson:"notification_url"`
	DocumentURL     string `json:"document_url,omitempty" bson:"document_url,omitempty"`
	CircularDate    string `json:"circular_date" bson:"circular_date"`
}

// CircularDocument is a descriptor plus its extracted text.
// SourceDocumentRef is the local storage identity produced by the fetch;
// it is the storage key and must be populated before a record is stored.
type CircularDocument struct {
	CircularDescriptor `bson:",inline"`

	RawText           string `json:"raw_text" bson:"raw_text"`
	SourceDocumentRef string `json:"source_document_ref" bson:"source_document_ref"`
}

// Controlled vocabulary of compliance category tags. Closed set: the
// extractor rejects anything outside it.
const (
	TagKYC                 = "KYC"
	TagAML                 = "AML"
	TagGrievanceRedressal  = "Grievance-Redressal"
	TagLoanRestructuring   = "Loan-Restructuring"
	TagExportImportControl = "Export-Import-Control"
	TagFEMA                = "FEMA"
)

// ComplianceVocabulary lists every recognized tag.
var ComplianceVocabulary = []string{
	TagKYC,
	TagAML,
	TagGrievanceRedressal,
	TagLoanRestructuring,
	TagExportImportControl,
	TagFEMA,
}

// KnownTag reports whether tag is a member of the controlled vocabulary.
func KnownTag(tag string) bool {
	for _, t := range ComplianceVocabulary {
		if t == tag {
			return true
		}
	}
	return false
}

// ComplianceTypeDetail describes one identified compliance type with the
// circular sections that refer to it.
type ComplianceTypeDetail struct {
	Type        string   `json:"type" bson:"type"`
	Sections    []string `json:"sections" bson:"sections"`
	Description string   `json:"description" bson:"description"`
}

// ComplianceRecord is the structured extraction result for one circular.
type ComplianceRecord struct {
	Summary               string                 `json:"summary" bson:"summary"`
	ComplianceTypes       []string               `json:"compliance_types" bson:"compliance_types"`
	ComplianceTypeDetails []ComplianceTypeDetail `json:"compliance_type_details" bson:"compliance_type_details"`
}

// Validate enforces the schema invariants: every tag must belong to the
// controlled vocabulary, and the tag list must match the detail types as
// a set.
func (r *ComplianceRecord) Validate() error {
	tags := make(map[string]bool, len(r.ComplianceTypes))
	for _, tag := range r.ComplianceTypes {
		if !KnownTag(tag) {
			return fmt.Errorf("tag %q is outside the controlled vocabulary", tag)
		}
		tags[tag] = true
	}

	detailTypes := make(map[string]bool, len(r.ComplianceTypeDetails))
	for _, d := range r.ComplianceTypeDetails {
		if !KnownTag(d.Type) {
			return fmt.Errorf("detail type %q is outside the controlled vocabulary", d.Type)
		}
		detailTypes[d.Type] = true
	}

	for tag := range tags {
		if !detailTypes[tag] {
			return fmt.Errorf("tag %q has no matching detail entry", tag)
		}
	}
	for t := range detailTypes {
		if !tags[t] {
			return fmt.Errorf("detail type %q is missing from compliance_types", t)
		}
	}
	return nil
}

// StoredCircular is the persisted union of a circular document and its
// compliance record, keyed by SourceDocumentRef. Re-running a pipeline
// for the same circular overwrites the prior record (last-write-wins).
type StoredCircular struct {
	CircularDocument `bson:",inline"`
	ComplianceRecord `bson:",inline"`

	StoredAt time.Time `json:"stored_at" bson:"stored_at"`
}

// Compliant flag values for a comparison report.
const (
	FlagNeedsAction = "needs-action"
	FlagCompliant   = "compliant"
)

// ComparisonUpdate captures one difference between the circular and the
// company's stored policy.
type ComparisonUpdate struct {
	Category         string `json:"category"`
	SourceReference  string `json:"source_reference"`
	CompanyReference string `json:"company_reference"`
	KeyDifferences   string `json:"key_differences"`
}

// ActionItem is a prioritised recommendation from the comparison stage.
type ActionItem struct {
	Priority       string `json:"priority"`
	Recommendation string `json:"recommendation"`
}

// ComparisonRecord is the gap-analysis report for a stored circular
// against the company policy corpus. Display-only; not persisted.
type ComparisonRecord struct {
	CompliantFlag     string             `json:"compliant_flag"`
	ComparisonUpdates []ComparisonUpdate `json:"comparison_updates"`
	ActionItems       []ActionItem       `json:"action_items"`
	RiskMitigations   string             `json:"risk_mitigations"`
}

// Validate enforces the comparison schema enums.
func (r *ComparisonRecord) Validate() error {
	if r.CompliantFlag != FlagNeedsAction && r.CompliantFlag != FlagCompliant {
		return fmt.Errorf("invalid compliant_flag %q", r.CompliantFlag)
	}
	for _, item := range r.ActionItems {
		switch item.Priority {
		case "High", "Medium", "Low":
		default:
			return fmt.Errorf("invalid action item priority %q", item.Priority)
		}
	}
	return nil
}

// PolicyDocument is one entry in the company policy corpus consumed by
// the comparison stage.
type PolicyDocument struct {
	Name      string `json:"name" bson:"name"`
	Reference string `json:"reference" bson:"reference"`
	Text      string `json:"text" bson:"text"`
}
