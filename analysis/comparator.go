package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"rbitracker/types"
)

// PolicyCorpus provides read access to the company's stored policy
// documents for the comparison stage.
type PolicyCorpus interface {
	Policies(ctx context.Context) ([]types.PolicyDocument, error)
}

// Comparator produces a gap-analysis report for a stored circular
// against the policy corpus.
type Comparator struct {
	generator Generator
	corpus    PolicyCorpus
}

// NewComparator builds a Comparator over the given engine and corpus.
func NewComparator(generator Generator, corpus PolicyCorpus) *Comparator {
	return &Comparator{generator: generator, corpus: corpus}
}

// Compare embeds the circular's structured content and the policy
// corpus into the comparison prompt and parses the response strictly as
// the ComparisonRecord schema. Fails with types.ErrCorpusUnavailable
// when the corpus cannot be read.
func (c *Comparator) Compare(ctx context.Context, record *types.StoredCircular) (*types.ComparisonRecord, error) {
	policies, err := c.corpus.Policies(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrCorpusUnavailable, err)
	}

	circularJSON, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal circular: %v", types.ErrGenerationFailure, err)
	}

	response, err := c.generator.Complete(ctx, comparisonPrompt(string(circularJSON), policies))
	if err != nil {
		return nil, err
	}

	var report types.ComparisonRecord
	if err := json.Unmarshal([]byte(stripCodeFences(response)), &report); err != nil {
		return nil, fmt.Errorf("%w: comparison output is not valid JSON: %v", types.ErrSchemaViolation, err)
	}
	if err := report.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrSchemaViolation, err)
	}
	return &report, nil
}
