package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roofscope/roofscope/constants"
	"github.com/roofscope/roofscope/internal/common"
	"github.com/roofscope/roofscope/internal/entity"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{DSN: "sqlite::memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(nil) })
	require.NoError(t, Migrate(context.Background(), db))
	return db
}

func seedJob(t *testing.T, db *DB, orgID uuid.UUID) *entity.Job {
	t.Helper()
	job := &entity.Job{OrganizationID: orgID, Name: "123 Main St"}
	require.NoError(t, NewJobRepository(db, nil).Create(context.Background(), job))
	return job
}

func seedDocument(t *testing.T, db *DB, orgID, jobID uuid.UUID) *entity.Document {
	t.Helper()
	doc := &entity.Document{
		OrganizationID: orgID,
		JobID:          jobID,
		StorageKey:     orgID.String() + "/" + jobID.String() + "/abc.pdf",
		FileName:       "scope.pdf",
		MimeType:       "application/pdf",
		SizeBytes:      1024,
	}
	require.NoError(t, NewDocumentRepository(db, nil).Create(context.Background(), doc))
	return doc
}

func TestDocumentLifecycle(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	orgID := uuid.New()
	job := seedJob(t, db, orgID)
	repo := NewDocumentRepository(db, nil)

	doc := seedDocument(t, db, orgID, job.ID)
	assert.NotEqual(t, uuid.Nil, doc.ID, "Create assigns an id")
	assert.Equal(t, constants.DocStatusPending, doc.Status)

	won, err := repo.MarkProcessing(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, won)

	// A second caller loses while the document is mid-run.
	won, err = repo.MarkProcessing(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, won)

	require.NoError(t, repo.SaveOCR(ctx, doc.ID, "claim text", "direct", 1.0, false))
	require.NoError(t, repo.SaveClassification(ctx, doc.ID, constants.DocTypeInsuranceScope, "state_farm"))

	payload := json.RawMessage(`{"financial":{"total_rcv":15000}}`)
	require.NoError(t, repo.Complete(ctx, doc.ID, payload, []string{"warning one"}))

	got, err := repo.GetByID(ctx, orgID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.DocStatusCompleted, got.Status)
	require.NotNil(t, got.RawText)
	assert.Equal(t, "claim text", *got.RawText)
	require.NotNil(t, got.DocType)
	assert.Equal(t, constants.DocTypeInsuranceScope, *got.DocType)
	require.NotNil(t, got.DocSubtype)
	assert.Equal(t, "state_farm", *got.DocSubtype)
	assert.JSONEq(t, string(payload), string(got.ExtractedData))
	assert.Equal(t, []string{"warning one"}, got.ValidationErrors)
	assert.NotNil(t, got.ProcessedAt)
	assert.Nil(t, got.ProcessingError)
}

func TestDocumentFail(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	orgID := uuid.New()
	job := seedJob(t, db, orgID)
	repo := NewDocumentRepository(db, nil)
	doc := seedDocument(t, db, orgID, job.ID)

	require.NoError(t, repo.Fail(ctx, doc.ID, "ocr produced no text"))

	got, err := repo.GetByID(ctx, orgID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.DocStatusFailed, got.Status)
	require.NotNil(t, got.ProcessingError)
	assert.Equal(t, "ocr produced no text", *got.ProcessingError)
}

func TestDocumentGetByID_OrgScoping(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	orgID := uuid.New()
	job := seedJob(t, db, orgID)
	repo := NewDocumentRepository(db, nil)
	doc := seedDocument(t, db, orgID, job.ID)

	_, err := repo.GetByID(ctx, uuid.New(), doc.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = repo.GetByID(ctx, orgID, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestResetForReprocess(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	orgID := uuid.New()
	job := seedJob(t, db, orgID)
	repo := NewDocumentRepository(db, nil)
	doc := seedDocument(t, db, orgID, job.ID)

	require.NoError(t, repo.SaveOCR(ctx, doc.ID, "text", "direct", 1.0, true))
	require.NoError(t, repo.Complete(ctx, doc.ID, json.RawMessage(`{}`), nil))

	require.NoError(t, repo.ResetForReprocess(ctx, orgID, doc.ID))

	got, err := repo.GetByID(ctx, orgID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.DocStatusPending, got.Status)
	assert.Nil(t, got.RawText)
	assert.Nil(t, got.DocType)
	assert.Nil(t, got.ExtractedData)
	assert.Nil(t, got.ProcessedAt)
	assert.False(t, got.NeedsReview)

	t.Run("refused while processing", func(t *testing.T) {
		won, err := repo.MarkProcessing(ctx, doc.ID)
		require.NoError(t, err)
		require.True(t, won)

		err = repo.ResetForReprocess(ctx, orgID, doc.ID)
		assert.ErrorIs(t, err, common.ErrConflict)
	})

	t.Run("unknown document is not found", func(t *testing.T) {
		err := repo.ResetForReprocess(ctx, orgID, uuid.New())
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestJobFinancials(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	orgID := uuid.New()
	repo := NewJobRepository(db, nil)
	job := seedJob(t, db, orgID)

	rcv, acv, ded := 15000.0, 12000.0, 1000.0
	items := json.RawMessage(`[{"description":"shingles","rcv":9000}]`)
	require.NoError(t, repo.UpdateFinancials(ctx, job.ID, &rcv, &acv, &ded, items))

	got, err := repo.GetByID(ctx, orgID, job.ID)
	require.NoError(t, err)
	require.NotNil(t, got.TotalRCV)
	assert.Equal(t, 15000.0, *got.TotalRCV)
	require.NotNil(t, got.Deductible)
	assert.Equal(t, 1000.0, *got.Deductible)
	assert.JSONEq(t, string(items), string(got.LineItems))

	_, err = repo.GetByID(ctx, uuid.New(), job.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestAnalysisLatest(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	orgID := uuid.New()
	job := seedJob(t, db, orgID)
	doc := seedDocument(t, db, orgID, job.ID)
	repo := NewAnalysisRepository(db, nil)

	older := &Analysis{
		DocumentID: doc.ID,
		Kind:       AnalysisAerial,
		Payload:    json.RawMessage(`{"total_area":2000}`),
		IsValid:    true,
		CreatedAt:  time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, repo.Save(ctx, older))

	newer := &Analysis{
		DocumentID: doc.ID,
		Kind:       AnalysisAerial,
		Payload:    json.RawMessage(`{"total_area":2400}`),
		IsValid:    true,
		Warnings:   []string{"no slope breakdown found"},
	}
	require.NoError(t, repo.Save(ctx, newer))

	got, err := repo.LatestForDocument(ctx, doc.ID, AnalysisAerial)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)
	assert.Equal(t, []string{"no slope breakdown found"}, got.Warnings)

	byJob, err := repo.LatestForJob(ctx, job.ID, AnalysisAerial)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, byJob.ID)

	_, err = repo.LatestForDocument(ctx, doc.ID, AnalysisInsurance)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = repo.LatestForJob(ctx, uuid.New(), AnalysisAerial)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestEstimateTransitions(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	orgID := uuid.New()
	repo := NewEstimateRepository(db, nil)

	est := &entity.Estimate{
		OrganizationID: orgID,
		Result: entity.EstimateResult{
			TotalRCV:        15000,
			LaborCost:       6500,
			MaterialCost:    2000,
			Profit:          6500,
			Margin:          6500.0 / 15000,
			PrimarySupplier: "abc",
		},
	}
	require.NoError(t, repo.Create(ctx, est))
	assert.Equal(t, constants.EstimateDraft, est.Status)

	require.NoError(t, repo.UpdateStatus(ctx, orgID, est.ID, constants.EstimateSent))
	require.NoError(t, repo.UpdateStatus(ctx, orgID, est.ID, constants.EstimateAccepted))

	got, err := repo.GetByID(ctx, orgID, est.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.EstimateAccepted, got.Status)
	assert.Equal(t, 15000.0, got.Result.TotalRCV)
	assert.Equal(t, "abc", got.Result.PrimarySupplier)

	t.Run("terminal status refuses transitions", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, orgID, est.ID, constants.EstimateSent)
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})

	t.Run("draft cannot jump straight to accepted", func(t *testing.T) {
		draft := &entity.Estimate{OrganizationID: orgID}
		require.NoError(t, repo.Create(ctx, draft))
		err := repo.UpdateStatus(ctx, orgID, draft.ID, constants.EstimateAccepted)
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})

	t.Run("wrong org reads as not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New(), est.ID)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestCatalogUpsertAndList(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	orgID := uuid.New()
	repo := NewCatalogRepository(db, nil)

	price := 8.5
	sub := "pf14_4"
	product := &entity.Product{
		Name:        "4-inch Pipe Flashing",
		Category:    "pipe_jack",
		Subcategory: &sub,
		Unit:        "EA",
		Active:      true,
		Prices:      []entity.SupplierPrice{{Supplier: "abc", Price: &price, SKU: "ABC-PF4"}},
	}
	require.NoError(t, repo.UpsertProduct(ctx, product))

	inactive := &entity.Product{Name: "Old Vent", Category: "ventilation", Unit: "EA", Active: false}
	require.NoError(t, repo.UpsertProduct(ctx, inactive))

	products, err := repo.ListActiveProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "4-inch Pipe Flashing", products[0].Name)
	require.Len(t, products[0].Prices, 1)
	require.NotNil(t, products[0].Prices[0].Price)
	assert.Equal(t, 8.5, *products[0].Prices[0].Price)

	// Upserting the same id replaces in place.
	product.Name = "4-inch Pipe Flashing Galvanized"
	require.NoError(t, repo.UpsertProduct(ctx, product))
	products, err = repo.ListActiveProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "4-inch Pipe Flashing Galvanized", products[0].Name)

	require.NoError(t, repo.UpsertSupplierConfig(ctx, &entity.SupplierConfig{
		OrganizationID: orgID, Supplier: "abc", Enabled: true,
	}))
	require.NoError(t, repo.UpsertSupplierConfig(ctx, &entity.SupplierConfig{
		OrganizationID: orgID, Supplier: "beacon", Enabled: false,
	}))

	suppliers, err := repo.ListEnabledSuppliers(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, []string{"abc"}, suppliers)

	// Toggling through the upsert path flips enablement.
	require.NoError(t, repo.UpsertSupplierConfig(ctx, &entity.SupplierConfig{
		OrganizationID: orgID, Supplier: "beacon", Enabled: true,
	}))
	suppliers, err = repo.ListEnabledSuppliers(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, []string{"abc", "beacon"}, suppliers)

	// Supplier enablement is per organization.
	other, err := repo.ListEnabledSuppliers(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}
