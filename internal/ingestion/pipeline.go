package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"bidsflow-backend/internal/analyzer"
	"bidsflow-backend/internal/bids"
	"bidsflow-backend/internal/extract"
	"bidsflow-backend/internal/shared/storage/object"
	"bidsflow-backend/internal/shared/telemetry"
)

const (
	// DefaultContractDuration is sent to pricing analysis when the bid has none.
	DefaultContractDuration = "12 Months"

	pricingDocumentType = "Pricing BOQ"
	maxStoredDocBytes   = 50 << 20
)

// BidStore is the bid access the pipeline needs. Mutate applies a reducer to
// the latest stored snapshot and persists the result.
type BidStore interface {
	Get(ctx context.Context, bidID string) (bids.Bid, error)
	Mutate(ctx context.Context, bidID string, fn func(bids.Bid) (bids.Bid, error)) (bids.Bid, error)
}

// Upload is a file handed to the pipeline. StorageKey is where the object
// store already holds Data, if anywhere.
type Upload struct {
	Name       string
	MimeType   string
	Category   string
	Data       []byte
	StorageKey string
	SizeBytes  int64
}

// Pipeline reconciles collaborator results into bids. Collaborator calls run
// outside Mutate; each step's result is committed on the latest snapshot.
type Pipeline struct {
	Analyzer analyzer.Analyzer
	Bids     BidStore
	Store    object.ObjectStore
	NewID    func() string
	Now      func() time.Time
}

func (p *Pipeline) newID() string {
	if p.NewID != nil {
		return p.NewID()
	}
	return uuid.NewString()
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

// IngestDocument attaches a single uploaded document. Pricing uploads go
// through IngestPricing; everything else is matched against the checklists.
func (p *Pipeline) IngestDocument(ctx context.Context, bidID string, up Upload) (bids.Bid, Outcome, error) {
	if up.Category == CategoryPricing {
		return p.IngestPricing(ctx, bidID, up)
	}
	var outcome Outcome
	bid, err := p.Bids.Get(ctx, bidID)
	if err != nil {
		return bids.Bid{}, outcome, err
	}

	doc := analyzer.Document{Name: up.Name, MimeType: up.MimeType, Data: up.Data}
	var analysis analyzer.Result[analyzer.ChecklistAnalysis]
	refs := ChecklistRefs(bid)
	if len(refs) > 0 {
		analysis = p.Analyzer.AnalyzeDocumentForChecklist(ctx, criteriaFor(bid), refs, []analyzer.Document{doc})
	}

	entry := p.newDocument(up)
	entry.Tags = []string{up.Category, "Asset"}
	entry.AIMatchDetails = ManualCheckNote
	if analysis.OK() && len(refs) > 0 {
		if len(analysis.Value.DetectedTags) > 0 {
			entry.Tags = analysis.Value.DetectedTags
		}
		if strings.TrimSpace(analysis.Value.Assessment) != "" {
			entry.AIMatchDetails = analysis.Value.Assessment
		}
		entry.AIScore = analysis.Value.ConfidenceScore
	}

	bid, err = p.Bids.Mutate(ctx, bidID, func(b bids.Bid) (bids.Bid, error) {
		out := AppendDocuments(b, entry)
		if analysis.OK() && len(refs) > 0 {
			out = ApplyChecklistPatches(out, analysis.Value.UpdatedChecklist)
		}
		return out, nil
	})
	if err != nil {
		outcome.failed(StepAppendDocuments, err)
		return bids.Bid{}, outcome, err
	}
	outcome.DocumentIDs = []string{entry.ID}
	outcome.ok(StepAppendDocuments, entry.Name)
	switch {
	case len(refs) == 0:
		outcome.skipped(StepChecklistMatch, "no checklist")
	case !analysis.OK():
		p.logStepFailure(bidID, StepChecklistMatch, analysis.Err)
		outcome.failed(StepChecklistMatch, analysis.Err)
	default:
		outcome.ok(StepChecklistMatch, fmt.Sprintf("%d patches", len(analysis.Value.UpdatedChecklist)))
	}

	cache := map[string][]byte{entry.ID: up.Data}
	bid, err = p.solutionFitStep(ctx, bid, up.Category, cache, &outcome)
	return bid, outcome, err
}

// IngestPricing merges the rows extracted from a pricing document into the
// bid's financial rows and recomputes the contract value.
func (p *Pipeline) IngestPricing(ctx context.Context, bidID string, up Upload) (bids.Bid, Outcome, error) {
	var outcome Outcome
	bid, err := p.Bids.Get(ctx, bidID)
	if err != nil {
		return bids.Bid{}, outcome, err
	}
	duration := bid.ContractDuration
	if strings.TrimSpace(duration) == "" {
		duration = DefaultContractDuration
	}
	doc := analyzer.Document{Name: up.Name, MimeType: up.MimeType, Data: up.Data}
	pricing := p.Analyzer.AnalyzePricingDocument(ctx, doc, duration, bid.FinancialFormats)

	entry := p.newDocument(up)
	entry.Type = pricingDocumentType
	entry.Category = CategoryPricing
	entry.Tags = []string{"Pricing", "BOQ"}

	bid, err = p.Bids.Mutate(ctx, bidID, func(b bids.Bid) (bids.Bid, error) {
		out := AppendDocuments(b, entry)
		if pricing.OK() {
			out = MergeFinancialRows(out, pricing.Value.Rows)
			out = ApplyPricingTerms(out, pricing.Value)
		}
		return out, nil
	})
	if err != nil {
		outcome.failed(StepAppendDocuments, err)
		return bids.Bid{}, outcome, err
	}
	outcome.DocumentIDs = []string{entry.ID}
	outcome.ok(StepAppendDocuments, entry.Name)
	if pricing.OK() {
		outcome.ok(StepPricingMerge, fmt.Sprintf("%d rows", len(pricing.Value.Rows)))
	} else {
		p.logStepFailure(bidID, StepPricingMerge, pricing.Err)
		outcome.failed(StepPricingMerge, pricing.Err)
	}
	return bid, outcome, nil
}

// IngestArchive runs the bulk flow for a zip archive: expand, store and tag
// the documents, bootstrap the checklists when the bid has none, match the
// checklists against every document and finally run the solution-fit
// analysis for technical uploads. Only an archive without eligible files is
// reported before anything is written.
func (p *Pipeline) IngestArchive(ctx context.Context, bidID string, up Upload) (bids.Bid, Outcome, error) {
	var outcome Outcome
	if _, err := p.Bids.Get(ctx, bidID); err != nil {
		return bids.Bid{}, outcome, err
	}
	files, err := ExpandArchive(up.Data)
	if err != nil {
		return bids.Bid{}, outcome, err
	}

	cache := make(map[string][]byte, len(files))
	entries := make([]bids.TechnicalDocument, 0, len(files))
	docs := make([]analyzer.Document, 0, len(files))
	for i, f := range files {
		entry := p.newDocument(Upload{Name: f.Name, Category: up.Category, Data: f.Data, SizeBytes: int64(len(f.Data))})
		if p.Store != nil {
			key, size, err := p.storeArchiveFile(ctx, bidID, up.StorageKey, i, f)
			if err != nil {
				outcome.failed(StepStoreDocuments, err)
				return bids.Bid{}, outcome, fmt.Errorf("storage: save %s: %w", f.Name, err)
			}
			entry.StorageKey = key
			entry.SizeBytes = size
		}
		cache[entry.ID] = f.Data
		entries = append(entries, entry)
		docs = append(docs, analyzer.Document{Name: f.Name, MimeType: extract.MimeTypeFor("", f.Name, f.Data), Data: f.Data})
	}
	outcome.ok(StepStoreDocuments, fmt.Sprintf("%d files", len(entries)))

	tags := p.Analyzer.TagDocuments(ctx, docs)
	if tags.OK() {
		byName := tags.Value.ByName()
		for i := range entries {
			if tf, ok := byName[entries[i].Name]; ok {
				entries[i].Tags = tf.Tags
				entries[i].Summary = tf.Summary
			}
		}
		outcome.ok(StepTagDocuments, fmt.Sprintf("%d tagged", len(tags.Value.Files)))
	} else {
		p.logStepFailure(bidID, StepTagDocuments, tags.Err)
		outcome.failed(StepTagDocuments, tags.Err)
	}
	for i := range entries {
		if len(entries[i].Tags) == 0 {
			entries[i].Tags = []string{up.Category}
		}
	}

	bid, err := p.Bids.Mutate(ctx, bidID, func(b bids.Bid) (bids.Bid, error) {
		return AppendDocuments(b, entries...), nil
	})
	if err != nil {
		outcome.failed(StepAppendDocuments, err)
		return bids.Bid{}, outcome, err
	}
	for _, e := range entries {
		outcome.DocumentIDs = append(outcome.DocumentIDs, e.ID)
	}
	outcome.ok(StepAppendDocuments, fmt.Sprintf("%d documents", len(entries)))

	refs := ChecklistRefs(bid)
	if len(refs) == 0 {
		bid, refs, err = p.bootstrapChecklist(ctx, bid, files, &outcome)
		if err != nil {
			return bids.Bid{}, outcome, err
		}
	} else {
		outcome.skipped(StepChecklistBootstrap, "checklist present")
	}

	if len(refs) > 0 {
		all := p.loadDocuments(ctx, bid.TechnicalDocuments, cache)
		analysis := p.Analyzer.AnalyzeDocumentForChecklist(ctx, criteriaFor(bid), refs, all)
		if analysis.OK() {
			bid, err = p.Bids.Mutate(ctx, bidID, func(b bids.Bid) (bids.Bid, error) {
				return ApplyChecklistPatches(b, analysis.Value.UpdatedChecklist), nil
			})
			if err != nil {
				outcome.failed(StepChecklistMatch, err)
				return bids.Bid{}, outcome, err
			}
			outcome.ok(StepChecklistMatch, fmt.Sprintf("%d patches", len(analysis.Value.UpdatedChecklist)))
		} else {
			p.logStepFailure(bidID, StepChecklistMatch, analysis.Err)
			outcome.failed(StepChecklistMatch, analysis.Err)
		}
	} else {
		outcome.skipped(StepChecklistMatch, "no checklist")
	}

	bid, err = p.solutionFitStep(ctx, bid, up.Category, cache, &outcome)
	return bid, outcome, err
}

func (p *Pipeline) bootstrapChecklist(ctx context.Context, bid bids.Bid, files []ArchiveFile, outcome *Outcome) (bids.Bid, []analyzer.ChecklistRef, error) {
	primary, hinted := PickPrimaryDocument(files)
	doc := analyzer.Document{Name: primary.Name, MimeType: extract.MimeTypeFor("", primary.Name, primary.Data), Data: primary.Data}
	extracted := p.Analyzer.ExtractChecklistFromDocument(ctx, doc)
	if !extracted.OK() {
		p.logStepFailure(bid.ID, StepChecklistBootstrap, extracted.Err)
		outcome.failed(StepChecklistBootstrap, extracted.Err)
		return bid, nil, nil
	}

	replaced := false
	updated, err := p.Bids.Mutate(ctx, bid.ID, func(b bids.Bid) (bids.Bid, error) {
		if len(b.TechnicalQualificationChecklist)+len(b.ComplianceChecklist) > 0 {
			return b, nil
		}
		replaced = true
		return ReplaceChecklists(b, extracted.Value, p.newID), nil
	})
	if err != nil {
		outcome.failed(StepChecklistBootstrap, err)
		return bids.Bid{}, nil, err
	}
	detail := primary.Name
	if !hinted {
		detail += " (fallback)"
	}
	if replaced {
		outcome.ok(StepChecklistBootstrap, detail)
	} else {
		outcome.skipped(StepChecklistBootstrap, "checklist added concurrently")
	}
	return updated, ChecklistRefs(updated), nil
}

func (p *Pipeline) solutionFitStep(ctx context.Context, bid bids.Bid, category string, cache map[string][]byte, outcome *Outcome) (bids.Bid, error) {
	if category != CategoryTechnical {
		return bid, nil
	}
	if bid.SolutionFit != nil {
		outcome.skipped(StepSolutionFit, "analysis exists")
		return bid, nil
	}
	var technical []bids.TechnicalDocument
	for _, d := range bid.TechnicalDocuments {
		if d.Category == CategoryTechnical {
			technical = append(technical, d)
		}
	}
	docs := p.loadDocuments(ctx, technical, cache)
	fit := p.Analyzer.AnalyzeSolutionFit(ctx, bid, docs)
	if !fit.OK() {
		p.logStepFailure(bid.ID, StepSolutionFit, fit.Err)
		outcome.failed(StepSolutionFit, fit.Err)
		return bid, nil
	}
	at := p.now()
	updated, err := p.Bids.Mutate(ctx, bid.ID, func(b bids.Bid) (bids.Bid, error) {
		if b.SolutionFit != nil {
			return b, nil
		}
		return SetSolutionFit(b, fit.Value, at), nil
	})
	if err != nil {
		outcome.failed(StepSolutionFit, err)
		return bids.Bid{}, err
	}
	outcome.ok(StepSolutionFit, fit.Value.SolutionFit)
	return updated, nil
}

// loadDocuments returns the payloads of docs, reading from cache first and
// then the object store. Documents that cannot be read are left out.
func (p *Pipeline) loadDocuments(ctx context.Context, docs []bids.TechnicalDocument, cache map[string][]byte) []analyzer.Document {
	out := make([]analyzer.Document, 0, len(docs))
	for _, d := range docs {
		data, ok := cache[d.ID]
		if !ok {
			var err error
			data, err = p.readObject(ctx, d.StorageKey)
			if err != nil {
				telemetry.Warn("ingestion.document_unreadable", map[string]any{
					"document_id": d.ID,
					"storage_key": d.StorageKey,
					"error":       err.Error(),
				})
				continue
			}
		}
		out = append(out, analyzer.Document{
			Name:     d.Name,
			MimeType: extract.MimeTypeFor("", d.Name, data),
			Data:     data,
		})
	}
	return out
}

func (p *Pipeline) readObject(ctx context.Context, key string) ([]byte, error) {
	if p.Store == nil || strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("no stored object")
	}
	rc, err := p.Store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, maxStoredDocBytes))
}

// storeArchiveFile saves one expanded file. Files of a stored archive get a
// key derived from the archive key, so a redelivered job overwrites them.
func (p *Pipeline) storeArchiveFile(ctx context.Context, bidID, archiveKey string, idx int, f ArchiveFile) (string, int64, error) {
	if archiveKey == "" {
		key, size, _, err := p.Store.Save(ctx, "bids/"+bidID, f.Name, bytes.NewReader(f.Data))
		return key, size, err
	}
	key := fmt.Sprintf("%s.files/%02d_%s", archiveKey, idx, f.Name)
	size, err := p.Store.SaveWithKey(ctx, key, extract.MimeTypeFor("", f.Name, f.Data), bytes.NewReader(f.Data))
	if err != nil {
		return "", 0, err
	}
	return key, size, nil
}

func (p *Pipeline) newDocument(up Upload) bids.TechnicalDocument {
	size := up.SizeBytes
	if size == 0 {
		size = int64(len(up.Data))
	}
	return bids.TechnicalDocument{
		ID:         p.newID(),
		Name:       up.Name,
		Type:       documentType(up.Name),
		Category:   up.Category,
		UploadDate: p.now(),
		StorageKey: up.StorageKey,
		SizeBytes:  size,
	}
}

func documentType(name string) string {
	ext := strings.TrimPrefix(strings.ToUpper(path.Ext(name)), ".")
	if ext == "" {
		return "File"
	}
	return ext
}

func criteriaFor(b bids.Bid) string {
	if strings.TrimSpace(b.SummaryRequirements) != "" {
		return b.SummaryRequirements
	}
	return b.QualificationCriteria
}

func (p *Pipeline) logStepFailure(bidID, step string, err error) {
	fields := map[string]any{
		"bid_id": bidID,
		"step":   step,
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	telemetry.Warn("ingestion.step_failed", fields)
}
