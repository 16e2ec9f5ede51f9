package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestComplianceRecordValidate(t *testing.T) {
	valid := ComplianceRecord{
		Summary:         "s",
		ComplianceTypes: []string{TagKYC, TagFEMA},
		ComplianceTypeDetails: []ComplianceTypeDetail{
			{Type: TagFEMA, Sections: []string{"Annex I"}, Description: "d"},
			{Type: TagKYC, Sections: []string{"Section 2"}, Description: "d"},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid record rejected: %v", err)
	}

	unknownTag := ComplianceRecord{
		ComplianceTypes: []string{"Insurance Compliance"},
		ComplianceTypeDetails: []ComplianceTypeDetail{
			{Type: "Insurance Compliance"},
		},
	}
	if err := unknownTag.Validate(); err == nil {
		t.Error("out-of-vocabulary tag accepted")
	}

	missingDetail := ComplianceRecord{
		ComplianceTypes: []string{TagKYC, TagAML},
		ComplianceTypeDetails: []ComplianceTypeDetail{
			{Type: TagKYC},
		},
	}
	if err := missingDetail.Validate(); err == nil {
		t.Error("tag without matching detail accepted")
	}

	extraDetail := ComplianceRecord{
		ComplianceTypes: []string{TagKYC},
		ComplianceTypeDetails: []ComplianceTypeDetail{
			{Type: TagKYC},
			{Type: TagAML},
		},
	}
	if err := extraDetail.Validate(); err == nil {
		t.Error("detail without matching tag accepted")
	}
}

func TestComparisonRecordValidate(t *testing.T) {
	valid := ComparisonRecord{
		CompliantFlag: FlagNeedsAction,
		ActionItems:   []ActionItem{{Priority: "High", Recommendation: "r"}},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid report rejected: %v", err)
	}

	badFlag := ComparisonRecord{CompliantFlag: "mostly-fine"}
	if err := badFlag.Validate(); err == nil {
		t.Error("invalid compliant_flag accepted")
	}

	badPriority := ComparisonRecord{
		CompliantFlag: FlagCompliant,
		ActionItems:   []ActionItem{{Priority: "Urgent"}},
	}
	if err := badPriority.Validate(); err == nil {
		t.Error("invalid action item priority accepted")
	}
}

func TestErrorKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: HTTP 503", ErrSourceUnavailable), "source_unavailable"},
		{fmt.Errorf("%w: no header row", ErrNoResultsForDate), "no_results_for_date"},
		{fmt.Errorf("%w: HTTP 404", ErrDownloadFailed), "download_failed"},
		{fmt.Errorf("%w: no pages", ErrUnreadableDocument), "unreadable_document"},
		{fmt.Errorf("%w: timeout", ErrGenerationFailure), "generation_failure"},
		{fmt.Errorf("%w: bad tag", ErrSchemaViolation), "schema_violation"},
		{fmt.Errorf("%w: write failed", ErrStorageUnavailable), "storage_unavailable"},
		{fmt.Errorf("%w: read failed", ErrCorpusUnavailable), "corpus_unavailable"},
		{errors.New("something else"), "internal"},
	}
	for _, tc := range cases {
		if got := ErrorKind(tc.err); got != tc.want {
			t.Errorf("ErrorKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
