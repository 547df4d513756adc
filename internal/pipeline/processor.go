package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/roofscope/roofscope/constants"
	"github.com/roofscope/roofscope/internal/common"
	"github.com/roofscope/roofscope/internal/entity"
	"github.com/roofscope/roofscope/internal/extract"
	"github.com/roofscope/roofscope/internal/ocr"
	"github.com/roofscope/roofscope/internal/repository"
	"github.com/roofscope/roofscope/internal/storage"
)

// Extractors bundles the per-domain extraction stages the processor drives.
type Extractors struct {
	Classifier *extract.Classifier
	Header     *extract.HeaderExtractor
	PipeJacks  *extract.PipeJackExtractor
	Vents      *extract.VentExtractor
	Materials  *extract.MaterialsExtractor
	Aerial     *extract.AerialExtractor
}

// Processor orchestrates one document through download, OCR, classification,
// extraction, validation, and persistence. One Processor instance serves many
// concurrent runs; each run owns its document exclusively via the status
// transition to processing.
type Processor struct {
	documents repository.DocumentRepository
	jobs      repository.JobRepository
	analyses  repository.AnalysisRepository
	store     storage.ObjectStore
	ocr       *ocr.Extractor
	ext       Extractors

	wasteFactor float64
	logger      *slog.Logger
}

func NewProcessor(
	documents repository.DocumentRepository,
	jobs repository.JobRepository,
	analyses repository.AnalysisRepository,
	store storage.ObjectStore,
	ocrExtractor *ocr.Extractor,
	ext Extractors,
	wasteFactor float64,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		documents:   documents,
		jobs:        jobs,
		analyses:    analyses,
		store:       store,
		ocr:         ocrExtractor,
		ext:         ext,
		wasteFactor: wasteFactor,
		logger:      logger,
	}
}

// ProcessDocument runs the full pipeline for one document. Failures come back
// inside the result envelope; the document ends in completed or failed status
// except when the run never won ownership.
func (p *Processor) ProcessDocument(ctx context.Context, orgID, documentID uuid.UUID) ProcessResult {
	log := p.logger.With("document_id", documentID, "organization_id", orgID)

	doc, err := p.documents.GetByID(ctx, orgID, documentID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return ProcessResult{DocumentID: documentID, Error: "document not found"}
		}
		return ProcessResult{DocumentID: documentID, Error: err.Error()}
	}

	won, err := p.documents.MarkProcessing(ctx, documentID)
	if err != nil {
		return ProcessResult{DocumentID: documentID, Error: err.Error()}
	}
	if !won {
		// Another run owns the document. Do not touch its status.
		log.Warn("pipeline.lost_race")
		return ProcessResult{DocumentID: documentID, Error: "document is already processing"}
	}
	log.Info("pipeline.started", "file_name", doc.FileName)

	content, err := p.store.Download(ctx, doc.StorageKey)
	if err != nil {
		return p.fail(ctx, log, documentID, "download failed: "+err.Error())
	}

	ocrRes, err := p.ocr.Extract(ctx, content, doc.MimeType)
	if err != nil {
		return p.fail(ctx, log, documentID, "text extraction failed: "+err.Error())
	}
	if err := p.documents.SaveOCR(ctx, documentID, ocrRes.Text, ocrRes.Provider, ocrRes.Confidence, ocrRes.NeedsReview); err != nil {
		return p.fail(ctx, log, documentID, err.Error())
	}

	classification, err := p.ext.Classifier.Classify(ctx, ocrRes.Text)
	if err != nil {
		return p.fail(ctx, log, documentID, "classification failed: "+err.Error())
	}
	if err := p.documents.SaveClassification(ctx, documentID, classification.Type, classification.Subtype); err != nil {
		return p.fail(ctx, log, documentID, err.Error())
	}
	log.Info("pipeline.classified", "type", classification.Type, "subtype", classification.Subtype)

	var (
		payload    json.RawMessage
		validation ValidationResult
	)
	switch {
	case classification.Type.IsInsurance():
		payload, validation, err = p.runInsurance(ctx, log, doc, ocrRes.Text)
	case classification.Type == constants.DocTypeAerialReport:
		payload, validation, err = p.runAerial(ctx, log, doc, ocrRes.Text, classification.Subtype)
	default:
		// Photos and unrecognized documents carry no structured extraction.
		validation = ValidationResult{IsValid: true}
	}
	if err != nil {
		return p.fail(ctx, log, documentID, err.Error())
	}

	if err := p.documents.Complete(ctx, documentID, payload, validation.Errors); err != nil {
		return p.fail(ctx, log, documentID, err.Error())
	}

	docType := classification.Type
	return ProcessResult{
		Success:      true,
		DocumentID:   documentID,
		DocumentType: &docType,
		Extraction:   payload,
		Validation:   &validation,
	}
}

// Reprocess resets a finished document and runs the pipeline again. The reset
// is refused while another run owns the document.
func (p *Processor) Reprocess(ctx context.Context, orgID, documentID uuid.UUID) ProcessResult {
	if err := p.documents.ResetForReprocess(ctx, orgID, documentID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return ProcessResult{DocumentID: documentID, Error: "document not found"}
		}
		return ProcessResult{DocumentID: documentID, Error: err.Error()}
	}
	return p.ProcessDocument(ctx, orgID, documentID)
}

func (p *Processor) fail(ctx context.Context, log *slog.Logger, documentID uuid.UUID, message string) ProcessResult {
	if err := p.documents.Fail(ctx, documentID, message); err != nil {
		log.Error("pipeline.fail_persist_failed", "error", err)
	}
	return ProcessResult{DocumentID: documentID, Error: message}
}

// runInsurance fans out the four sub-extractors over the immutable OCR text.
// The join is all-or-nothing: a single sub-extractor transport failure aborts
// the step. Malformed structured output never reaches here; the extractors
// absorb it as fallback values.
func (p *Processor) runInsurance(ctx context.Context, log *slog.Logger, doc *entity.Document, text string) (json.RawMessage, ValidationResult, error) {
	roofAreaHint, ridgeHint, structureCount := p.aerialHints(ctx, log, doc.JobID)

	var (
		header    extract.HeaderExtraction
		pipeJacks entity.PipeJackResult
		vents     entity.VentResult
		materials extract.MaterialsExtraction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		header, err = p.ext.Header.Extract(gctx, text)
		return err
	})
	g.Go(func() error {
		var err error
		pipeJacks, err = p.ext.PipeJacks.Extract(gctx, text, roofAreaHint, structureCount)
		return err
	})
	g.Go(func() error {
		var err error
		vents, err = p.ext.Vents.Extract(gctx, text, ridgeHint, roofAreaHint)
		return err
	})
	g.Go(func() error {
		var err error
		materials, err = p.ext.Materials.Extract(gctx, text)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, ValidationResult{}, err
	}

	ext := entity.InsuranceExtraction{
		Header:       header.Header,
		Measurements: header.Measurements,
		PipeJacks:    pipeJacks,
		Ventilation:  vents,
		Materials:    materials.Materials,
		Financial:    materials.Financial,
		LineItems:    materials.LineItems,
		Confidence: entity.ConfidenceMap{
			Header:      header.Confidence,
			PipeJacks:   pipeJacks.Confidence,
			Ventilation: vents.Confidence,
			Financial:   materials.Confidence,
		},
	}
	ext.Confidence.RecomputeOverall()

	validation := ValidateInsurance(&ext, p.wasteFactor)
	payload, err := json.Marshal(ext)
	if err != nil {
		return nil, ValidationResult{}, err
	}

	if err := p.analyses.Save(ctx, &repository.Analysis{
		DocumentID: doc.ID,
		Kind:       repository.AnalysisInsurance,
		Payload:    payload,
		IsValid:    validation.IsValid,
		Warnings:   validation.Warnings,
	}); err != nil {
		return nil, ValidationResult{}, err
	}
	if err := p.updateJobRollups(ctx, doc.JobID, &ext); err != nil {
		return nil, ValidationResult{}, err
	}

	log.Info("pipeline.insurance.extracted",
		"total_rcv", ext.Financial.TotalRCV,
		"line_items", len(ext.LineItems),
		"overall_confidence", ext.Confidence.Overall,
		"is_valid", validation.IsValid,
	)
	return payload, validation, nil
}

func (p *Processor) runAerial(ctx context.Context, log *slog.Logger, doc *entity.Document, text, providerHint string) (json.RawMessage, ValidationResult, error) {
	aerial, err := p.ext.Aerial.Extract(ctx, text, providerHint)
	if err != nil {
		return nil, ValidationResult{}, err
	}

	validation := ValidateAerial(&aerial)
	payload, err := json.Marshal(aerial)
	if err != nil {
		return nil, ValidationResult{}, err
	}

	if err := p.analyses.Save(ctx, &repository.Analysis{
		DocumentID: doc.ID,
		Kind:       repository.AnalysisAerial,
		Payload:    payload,
		IsValid:    validation.IsValid,
		Warnings:   validation.Warnings,
	}); err != nil {
		return nil, ValidationResult{}, err
	}

	log.Info("pipeline.aerial.extracted",
		"provider", aerial.Provider,
		"total_area", aerial.TotalArea,
		"is_valid", validation.IsValid,
	)
	return payload, validation, nil
}

// aerialHints feeds measurements from the job's newest aerial analysis into
// the insurance cross-checks. Best effort; a job without an aerial report
// simply runs without hints.
func (p *Processor) aerialHints(ctx context.Context, log *slog.Logger, jobID uuid.UUID) (roofArea, ridgeLength *float64, structureCount *int) {
	latest, err := p.analyses.LatestForJob(ctx, jobID, repository.AnalysisAerial)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			log.Warn("pipeline.aerial_hints.lookup_failed", "error", err)
		}
		return nil, nil, nil
	}

	var aerial entity.AerialExtraction
	if err := json.Unmarshal(latest.Payload, &aerial); err != nil {
		log.Warn("pipeline.aerial_hints.decode_failed", "error", err)
		return nil, nil, nil
	}
	if aerial.TotalArea > 0 {
		roofArea = &aerial.TotalArea
	}
	if aerial.RidgeLength > 0 {
		ridgeLength = &aerial.RidgeLength
	}
	if n := len(aerial.Structures); n > 0 {
		structureCount = &n
	}
	return roofArea, ridgeLength, structureCount
}

// updateJobRollups overwrites the job's claim totals with the newest
// extraction. Last writer wins.
func (p *Processor) updateJobRollups(ctx context.Context, jobID uuid.UUID, ext *entity.InsuranceExtraction) error {
	var totalRCV, totalACV *float64
	if ext.Financial.TotalRCV > 0 {
		totalRCV = &ext.Financial.TotalRCV
	}
	if ext.Financial.TotalACV > 0 {
		totalACV = &ext.Financial.TotalACV
	}

	var lineItems json.RawMessage
	if len(ext.LineItems) > 0 {
		b, err := json.Marshal(ext.LineItems)
		if err != nil {
			return err
		}
		lineItems = b
	}
	return p.jobs.UpdateFinancials(ctx, jobID, totalRCV, totalACV, ext.Financial.Deductible, lineItems)
}
