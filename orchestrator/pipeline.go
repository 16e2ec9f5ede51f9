// Package orchestrator composes discovery, document fetch, structured
// extraction, and storage into one ingestion run per date, and exposes
// the on-demand comparison entry point.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"rbitracker/archive"
	"rbitracker/events"
	"rbitracker/state"
	"rbitracker/storage"
	"rbitracker/types"
)

// Discoverer yields the circular descriptors listed for a date.
type Discoverer interface {
	Discover(ctx context.Context, date time.Time) ([]types.CircularDescriptor, error)
}

// Fetcher turns a descriptor into a circular document with text.
type Fetcher interface {
	Fetch(ctx context.Context, desc types.CircularDescriptor) (*types.CircularDocument, error)
}

// Extractor produces a validated compliance record from raw text.
type Extractor interface {
	Extract(ctx context.Context, rawText string) (*types.ComplianceRecord, error)
}

// Comparator produces a gap-analysis report for a stored circular.
type Comparator interface {
	Compare(ctx context.Context, record *types.StoredCircular) (*types.ComparisonRecord, error)
}

// Pipeline runs the ingestion state machine. Archiver, Publisher, and
// Reports are optional; a nil value skips that step.
type Pipeline struct {
	Discoverer Discoverer
	Fetcher    Fetcher
	Extractor  Extractor
	Comparator Comparator
	Store      storage.RecordStore
	Archiver   archive.Archiver
	Publisher  events.Publisher
	Reports    *ReportCache
	State      *state.Manager
}

// RunIngestion executes one run for date:
// discover, then per descriptor fetch -> extract -> store, sequentially.
// Per-descriptor failures are recorded in the report and never abort
// sibling descriptors; discovery failures abort the run. A date with no
// listing section terminates in a reported-empty state, not an error.
func (p *Pipeline) RunIngestion(ctx context.Context, date time.Time) (*types.RunReport, error) {
	report := &types.RunReport{
		Date:      date.Format("2006-01-02"),
		StartedAt: time.Now(),
	}

	p.State.SetState(types.StateDiscovering)
	p.State.AddLog("Discovering circulars for %s", report.Date)

	descriptors, err := p.Discoverer.Discover(ctx, date)
	if err != nil {
		if errors.Is(err, types.ErrNoResultsForDate) {
			p.State.AddLog("No circulars listed for %s", report.Date)
			return p.finish(ctx, report), nil
		}
		p.State.SetError(err)
		return nil, err
	}

	report.Discovered = len(descriptors)
	p.State.AddLog("Discovered %d circular(s)", len(descriptors))

	for i, desc := range descriptors {
		// Runs are abortable between descriptors; records already
		// stored stay stored.
		if err := ctx.Err(); err != nil {
			p.State.SetError(err)
			return report, err
		}

		log.Printf("[%d/%d] Processing: %s", i+1, len(descriptors), desc.Name)
		if err := p.processDescriptor(ctx, desc); err != nil {
			kind := types.ErrorKind(err)
			log.Printf("[%d/%d] %s failed (%s): %v", i+1, len(descriptors), desc.Name, kind, err)
			report.Failures = append(report.Failures, types.ItemFailure{
				Name:            desc.Name,
				NotificationURL: desc.NotificationURL,
				Kind:            kind,
				Message:         err.Error(),
			})
			continue
		}
		report.Stored++
	}

	return p.finish(ctx, report), nil
}

// processDescriptor drives one descriptor through fetch, extract, and
// store. Any error is returned to the caller for per-item recording.
func (p *Pipeline) processDescriptor(ctx context.Context, desc types.CircularDescriptor) error {
	p.State.SetState(types.StateFetching)
	doc, err := p.Fetcher.Fetch(ctx, desc)
	if err != nil {
		return err
	}

	p.State.SetState(types.StateExtracting)
	record, err := p.Extractor.Extract(ctx, doc.RawText)
	if err != nil {
		return err
	}

	if doc.SourceDocumentRef == "" {
		return fmt.Errorf("fetched document for %s has no storage key", desc.Name)
	}

	p.State.SetState(types.StateStoring)
	stored := &types.StoredCircular{
		CircularDocument: *doc,
		ComplianceRecord: *record,
		StoredAt:         time.Now(),
	}
	if err := p.Store.Upsert(ctx, stored); err != nil {
		return err
	}
	p.State.AddLog("Stored %s", desc.Name)

	p.archiveDocument(ctx, doc)
	p.publishStored(stored)
	return nil
}

// archiveDocument uploads the local copy left by the fetch stage.
// Best-effort: archival never fails the run.
func (p *Pipeline) archiveDocument(ctx context.Context, doc *types.CircularDocument) {
	if p.Archiver == nil {
		return
	}
	file, err := os.Open(doc.SourceDocumentRef)
	if err != nil {
		log.Printf("Warning: archive skipped for %s: %v", doc.Name, err)
		return
	}
	defer file.Close()

	name := filepath.Base(doc.SourceDocumentRef)
	if err := p.Archiver.Archive(ctx, name, file, "application/pdf"); err != nil {
		log.Printf("Warning: archive failed for %s: %v", doc.Name, err)
	}
}

// publishStored emits the stored-circular event. Best-effort.
func (p *Pipeline) publishStored(stored *types.StoredCircular) {
	if p.Publisher == nil {
		return
	}
	event := types.StoredEvent{
		SourceDocumentRef: stored.SourceDocumentRef,
		Name:              stored.Name,
		CircularDate:      stored.CircularDate,
		StoredAt:          stored.StoredAt,
	}
	if err := p.Publisher.PublishStored(event); err != nil {
		log.Printf("Warning: event publish failed for %s: %v", stored.Name, err)
	}
}

// finish stamps, caches, and records the terminal report.
func (p *Pipeline) finish(ctx context.Context, report *types.RunReport) *types.RunReport {
	report.FinishedAt = time.Now()
	if p.Reports != nil {
		if err := p.Reports.Save(ctx, report); err != nil {
			log.Printf("Warning: report cache save failed: %v", err)
		}
	}
	p.State.SetReport(report)
	p.State.AddLog("Run complete: %d discovered, %d stored, %d failed",
		report.Discovered, report.Stored, len(report.Failures))
	return report
}

// ErrNotStored distinguishes a comparison request for an unknown
// storage key from internal comparison failures.
var ErrNotStored = errors.New("circular not stored")

// RunComparison compares the stored circular under ref against the
// company policy corpus. Only valid after the record has been stored.
func (p *Pipeline) RunComparison(ctx context.Context, ref string) (*types.ComparisonRecord, error) {
	p.State.SetState(types.StateComparing)
	defer p.State.SetState(types.StateIdle)

	stored, err := p.Store.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotStored, ref)
	}

	p.State.AddLog("Comparing %s against company policy", stored.Name)
	return p.Comparator.Compare(ctx, stored)
}
