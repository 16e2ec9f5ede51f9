package analysis

import (
	"fmt"
	"strings"

	"rbitracker/types"
)

// extractionPrompt instructs the engine to identify compliance types in
// a circular's text and answer strictly as the ComplianceRecord schema.
func extractionPrompt(rawText string) string {
	vocabulary := strings.Join(types.ComplianceVocabulary, ", ")
	return fmt.Sprintf(`Given the text of an RBI circular, identify the different compliance types mentioned within the circular. There may be multiple compliance types in a single circular.
The compliance types must be classified using exactly these tags and no others: %s.
If none of these are present, leave the lists empty. For each identified compliance type, list the relevant section(s) of the circular and give a detailed description. Additionally, summarise the key updates and changes introduced in the circular, highlighting regulatory requirements, new processes, and any deadlines relevant for compliance.

Respond with JSON only, no extra reasoning, in exactly this format:
{
  "summary": "brief summary of the circular's updates and changes",
  "compliance_types": ["%s"],
  "compliance_type_details": [
    {
      "type": "%s",
      "sections": ["2.1", "3.4"],
      "description": "updated requirements for banks ..."
    }
  ]
}
Every tag listed in compliance_types must have a matching entry in compliance_type_details, and vice versa.

Circular text:
%s`, vocabulary, types.TagKYC, types.TagKYC, rawText)
}

// comparisonPrompt instructs the engine to compare an analysed circular
// against the company policy corpus and answer strictly as the
// ComparisonRecord schema.
func comparisonPrompt(circularJSON string, policies []types.PolicyDocument) string {
	var corpus strings.Builder
	for _, p := range policies {
		fmt.Fprintf(&corpus, "--- %s (%s)\n%s\n", p.Name, p.Reference, p.Text)
	}

	return fmt.Sprintf(`Compare the RBI circular below with the company's stored policy documents for the compliance tags identified, and highlight all regulatory key differences. Identify what is missing from the company's policy, with prioritised actionable insights, recommended next steps for policy adjustments, and possible risk mitigations.

Respond with JSON only, no extra reasoning, in exactly this format:
{
  "compliant_flag": "needs-action" or "compliant",
  "comparison_updates": [
    {
      "category": "Policy Alignment",
      "source_reference": "RBI Circular XYZ-2024",
      "company_reference": "Company Policy ABC-2023",
      "key_differences": "the company policy lacks ..."
    }
  ],
  "action_items": [
    {
      "priority": "High",
      "recommendation": "update the policy to reflect ..."
    }
  ],
  "risk_mitigations": "..."
}
Priorities must be one of High, Medium, Low.

RBI circular:
%s

Company policy documents:
%s`, circularJSON, corpus.String())
}
