package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"rbitracker/types"
)

// Extractor turns a circular's raw text into a validated
// ComplianceRecord via the generation engine.
type Extractor struct {
	generator Generator
}

// NewExtractor builds an Extractor over the given engine.
func NewExtractor(generator Generator) *Extractor {
	return &Extractor{generator: generator}
}

// Extract invokes the engine with the fixed extraction prompt and
// parses the response strictly as the ComplianceRecord schema. Engine
// errors surface as types.ErrGenerationFailure; unparseable output,
// out-of-vocabulary tags, and tag-set mismatches surface as
// types.ErrSchemaViolation. Not idempotent in content, idempotent in
// schema: the result is always structurally valid or rejected.
func (e *Extractor) Extract(ctx context.Context, rawText string) (*types.ComplianceRecord, error) {
	response, err := e.generator.Complete(ctx, extractionPrompt(rawText))
	if err != nil {
		return nil, err
	}

	var record types.ComplianceRecord
	if err := json.Unmarshal([]byte(stripCodeFences(response)), &record); err != nil {
		return nil, fmt.Errorf("%w: extraction output is not valid JSON: %v", types.ErrSchemaViolation, err)
	}
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrSchemaViolation, err)
	}
	return &record, nil
}

// stripCodeFences tolerates engines that wrap their JSON in markdown
// code fences.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
