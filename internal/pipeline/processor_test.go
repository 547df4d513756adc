package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roofscope/roofscope/constants"
	"github.com/roofscope/roofscope/internal/entity"
	"github.com/roofscope/roofscope/internal/extract"
	"github.com/roofscope/roofscope/internal/llm"
	"github.com/roofscope/roofscope/internal/ocr"
	"github.com/roofscope/roofscope/internal/repository"
	"github.com/roofscope/roofscope/internal/storage"
)

// cannedLLM answers each extraction stage with a fixed response, keyed by the
// stage's system prompt. The classifier answer depends on the document text so
// one invoker serves all document types.
func cannedLLM() llm.InvokerFunc {
	return func(_ context.Context, systemPrompt, userContent string) (string, error) {
		switch systemPrompt {
		case llm.ClassifierSystemPrompt:
			switch {
			case strings.Contains(userContent, "EagleView"):
				return `{"type":"aerial_report","subtype":"eagleview","confidence":0.95}`, nil
			case strings.Contains(userContent, "random notes"):
				return `{"type":"other","confidence":0.8}`, nil
			default:
				return `{"type":"insurance_scope","subtype":"State Farm","confidence":0.95}`, nil
			}
		case llm.HeaderSystemPrompt:
			return `{
				"header": {"customer_name": "Jordan Smith", "carrier": "State Farm", "claim_number": "55-1234-X"},
				"measurements": {"total_area": 2000, "ridge_length": 60, "eave_length": 120},
				"confidence": 0.9
			}`, nil
		case llm.PipeJackSystemPrompt:
			return `{"pj_4": 3, "pj_split_boot": 1, "confidence": 0.9}`, nil
		case llm.VentSystemPrompt:
			return `{"vent_ridge": 40, "vent_intake": 10, "confidence": 0.9}`, nil
		case llm.MaterialsSystemPrompt:
			return `{
				"line_items": [
					{"category": "shingles", "description": "Remove & replace laminated shingles", "quantity": 30, "unit": "SQ", "rcv": 9000}
				],
				"financial": {"total_rcv": 15234.50, "total_acv": 12000, "deductible": 1000},
				"confidence": 0.9
			}`, nil
		case llm.AerialSystemPrompt:
			return `{
				"provider": "eagleview",
				"total_area": 2400,
				"ridge_length": 60,
				"slopes": [{"pitch": "6/12", "area": 2400}],
				"structures": [{"name": "main house"}],
				"confidence": 0.9
			}`, nil
		default:
			return "", nil
		}
	}
}

type pipelineEnv struct {
	processor *Processor
	documents repository.DocumentRepository
	jobs      repository.JobRepository
	analyses  repository.AnalysisRepository
	store     storage.ObjectStore
	orgID     uuid.UUID
	jobID     uuid.UUID
}

func newPipelineEnv(t *testing.T) *pipelineEnv {
	t.Helper()
	ctx := context.Background()

	db, err := repository.Open(ctx, repository.Config{DSN: "sqlite::memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(nil) })
	require.NoError(t, repository.Migrate(ctx, db))

	store, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)

	documents := repository.NewDocumentRepository(db, nil)
	jobs := repository.NewJobRepository(db, nil)
	analyses := repository.NewAnalysisRepository(db, nil)

	orgID := uuid.New()
	job := &entity.Job{OrganizationID: orgID, Name: "123 Main St"}
	require.NoError(t, jobs.Create(ctx, job))

	invoker := cannedLLM()
	processor := NewProcessor(
		documents, jobs, analyses, store,
		ocr.NewExtractor(ocr.Config{}, nil, nil),
		Extractors{
			Classifier: extract.NewClassifier(invoker, nil),
			Header:     extract.NewHeaderExtractor(invoker, nil),
			PipeJacks:  extract.NewPipeJackExtractor(invoker, nil),
			Vents:      extract.NewVentExtractor(invoker, nil),
			Materials:  extract.NewMaterialsExtractor(invoker, nil),
			Aerial:     extract.NewAerialExtractor(invoker, nil),
		},
		0.10, nil,
	)

	return &pipelineEnv{
		processor: processor,
		documents: documents,
		jobs:      jobs,
		analyses:  analyses,
		store:     store,
		orgID:     orgID,
		jobID:     job.ID,
	}
}

func (e *pipelineEnv) uploadDocument(t *testing.T, name, text string) *entity.Document {
	t.Helper()
	ctx := context.Background()
	key := e.orgID.String() + "/" + e.jobID.String() + "/" + name
	require.NoError(t, e.store.Upload(ctx, key, []byte(text), "text/plain"))

	doc := &entity.Document{
		OrganizationID: e.orgID,
		JobID:          e.jobID,
		StorageKey:     key,
		FileName:       name,
		MimeType:       "text/plain",
		SizeBytes:      int64(len(text)),
	}
	require.NoError(t, e.documents.Create(ctx, doc))
	return doc
}

const insuranceText = `State Farm Insurance - Claim Estimate
Remove & replace laminated shingles  30 SQ  9,000.00
Pipe jack flashing 4"  3 EA
Split boot  1 EA
Ridge vent  40 LF
Total RCV: $15,234.50`

func TestProcessDocument_Insurance(t *testing.T) {
	ctx := context.Background()
	env := newPipelineEnv(t)
	doc := env.uploadDocument(t, "scope.txt", insuranceText)

	result := env.processor.ProcessDocument(ctx, env.orgID, doc.ID)
	require.Empty(t, result.Error)
	assert.True(t, result.Success)
	require.NotNil(t, result.DocumentType)
	assert.Equal(t, constants.DocTypeInsuranceScope, *result.DocumentType)
	require.NotNil(t, result.Validation)
	assert.True(t, result.Validation.IsValid)
	assert.Empty(t, result.Validation.Errors)

	var ext entity.InsuranceExtraction
	require.NoError(t, json.Unmarshal(result.Extraction, &ext))
	require.NotNil(t, ext.Header.Carrier)
	assert.Equal(t, "State Farm", *ext.Header.Carrier)
	assert.Equal(t, 4, ext.PipeJacks.TotalCount)
	assert.Equal(t, 15234.50, ext.Financial.TotalRCV)
	assert.InDelta(t, 0.9, ext.Confidence.Overall, 0.0001)

	got, err := env.documents.GetByID(ctx, env.orgID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.DocStatusCompleted, got.Status)
	require.NotNil(t, got.DocSubtype)
	assert.Equal(t, "State Farm", *got.DocSubtype)
	assert.NotNil(t, got.ProcessedAt)

	analysis, err := env.analyses.LatestForDocument(ctx, doc.ID, repository.AnalysisInsurance)
	require.NoError(t, err)
	assert.True(t, analysis.IsValid)

	job, err := env.jobs.GetByID(ctx, env.orgID, env.jobID)
	require.NoError(t, err)
	require.NotNil(t, job.TotalRCV)
	assert.Equal(t, 15234.50, *job.TotalRCV)
	require.NotNil(t, job.Deductible)
	assert.Equal(t, 1000.0, *job.Deductible)
	assert.NotEmpty(t, job.LineItems)
}

func TestProcessDocument_AerialThenInsuranceHints(t *testing.T) {
	ctx := context.Background()
	env := newPipelineEnv(t)

	aerialDoc := env.uploadDocument(t, "report.txt", "EagleView Premium Report\nTotal Area: 2,400 sq ft")
	result := env.processor.ProcessDocument(ctx, env.orgID, aerialDoc.ID)
	require.Empty(t, result.Error)
	require.NotNil(t, result.DocumentType)
	assert.Equal(t, constants.DocTypeAerialReport, *result.DocumentType)

	var aerial entity.AerialExtraction
	require.NoError(t, json.Unmarshal(result.Extraction, &aerial))
	assert.Equal(t, 2400.0, aerial.TotalArea)

	// The insurance run now sees the aerial measurements. With a 2400 sq ft
	// roof the canned 40 LF of ridge vent is short of the 1:300 requirement,
	// so the cross-check surfaces as a warning.
	scopeDoc := env.uploadDocument(t, "scope.txt", insuranceText)
	result = env.processor.ProcessDocument(ctx, env.orgID, scopeDoc.ID)
	require.Empty(t, result.Error)
	assert.True(t, result.Success)
	require.NotNil(t, result.Validation)
	assert.True(t, result.Validation.IsValid)
	assert.Contains(t, strings.Join(result.Validation.Warnings, "\n"), "1:300")
}

func TestProcessDocument_Unstructured(t *testing.T) {
	ctx := context.Background()
	env := newPipelineEnv(t)
	doc := env.uploadDocument(t, "notes.txt", "random notes from the site visit")

	result := env.processor.ProcessDocument(ctx, env.orgID, doc.ID)
	require.Empty(t, result.Error)
	assert.True(t, result.Success)
	require.NotNil(t, result.DocumentType)
	assert.Equal(t, constants.DocTypeOther, *result.DocumentType)
	assert.Nil(t, result.Extraction)

	got, err := env.documents.GetByID(ctx, env.orgID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.DocStatusCompleted, got.Status)
}

func TestProcessDocument_AlreadyProcessing(t *testing.T) {
	ctx := context.Background()
	env := newPipelineEnv(t)
	doc := env.uploadDocument(t, "scope.txt", insuranceText)

	won, err := env.documents.MarkProcessing(ctx, doc.ID)
	require.NoError(t, err)
	require.True(t, won)

	result := env.processor.ProcessDocument(ctx, env.orgID, doc.ID)
	assert.False(t, result.Success)
	assert.Equal(t, "document is already processing", result.Error)

	// The losing run must not disturb the owner's status.
	got, err := env.documents.GetByID(ctx, env.orgID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.DocStatusProcessing, got.Status)
}

func TestProcessDocument_NotFound(t *testing.T) {
	env := newPipelineEnv(t)
	result := env.processor.ProcessDocument(context.Background(), env.orgID, uuid.New())
	assert.False(t, result.Success)
	assert.Equal(t, "document not found", result.Error)
}

func TestProcessDocument_DownloadFailure(t *testing.T) {
	ctx := context.Background()
	env := newPipelineEnv(t)

	doc := &entity.Document{
		OrganizationID: env.orgID,
		JobID:          env.jobID,
		StorageKey:     "missing/key.txt",
		FileName:       "key.txt",
		MimeType:       "text/plain",
	}
	require.NoError(t, env.documents.Create(ctx, doc))

	result := env.processor.ProcessDocument(ctx, env.orgID, doc.ID)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "download failed")

	got, err := env.documents.GetByID(ctx, env.orgID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.DocStatusFailed, got.Status)
	require.NotNil(t, got.ProcessingError)
}

func TestReprocess(t *testing.T) {
	ctx := context.Background()
	env := newPipelineEnv(t)
	doc := env.uploadDocument(t, "scope.txt", insuranceText)

	first := env.processor.ProcessDocument(ctx, env.orgID, doc.ID)
	require.True(t, first.Success)

	second := env.processor.Reprocess(ctx, env.orgID, doc.ID)
	require.Empty(t, second.Error)
	assert.True(t, second.Success)
	assert.JSONEq(t, string(first.Extraction), string(second.Extraction))

	t.Run("unknown document", func(t *testing.T) {
		result := env.processor.Reprocess(ctx, env.orgID, uuid.New())
		assert.Equal(t, "document not found", result.Error)
	})
}
