// Package ingest turns local files into stored, processable documents. It is
// the intake path used by the CLI and by batch imports; the HTTP surface
// receives uploads that land here the same way.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/roofscope/roofscope/internal/common"
	"github.com/roofscope/roofscope/internal/entity"
	"github.com/roofscope/roofscope/internal/repository"
	"github.com/roofscope/roofscope/internal/storage"
)

// mimeByExt maps the accepted file extensions onto MIME types. Anything else
// is rejected at intake rather than failing later in the pipeline.
var mimeByExt = map[string]string{
	"pdf":  "application/pdf",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"webp": "image/webp",
	"txt":  "text/plain",
}

// NormalizeExt lowercases an extension and strips the leading dot.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// AllowedExt reports whether the extension is in the accepted set.
func AllowedExt(ext string) bool {
	_, ok := mimeByExt[NormalizeExt(ext)]
	return ok
}

// IsHidden reports whether a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// Result describes one ingested file.
type Result struct {
	DocumentID uuid.UUID
	StorageKey string
	SizeBytes  int64
	MimeType   string
}

// Ingestor uploads local files into object storage and registers them as
// pending documents.
type Ingestor struct {
	documents repository.DocumentRepository
	jobs      repository.JobRepository
	store     storage.ObjectStore
	logger    *slog.Logger
}

func NewIngestor(documents repository.DocumentRepository, jobs repository.JobRepository, store storage.ObjectStore, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{documents: documents, jobs: jobs, store: store, logger: logger}
}

// IngestFile uploads one local file under a content-addressed key and creates
// a pending document for the given job. The job must exist and belong to the
// organization.
func (i *Ingestor) IngestFile(ctx context.Context, orgID, jobID uuid.UUID, path string) (Result, error) {
	var out Result

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, common.WrapError(err, "resolve path")
	}
	ext := NormalizeExt(filepath.Ext(abs))
	mimeType, ok := mimeByExt[ext]
	if !ok {
		return out, common.NewAppError("UNSUPPORTED_FILE",
			fmt.Sprintf("unsupported file extension %q", ext), common.ErrInvalidInput)
	}

	if _, err := i.jobs.GetByID(ctx, orgID, jobID); err != nil {
		return out, err
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return out, common.WrapError(err, "read file")
	}

	sum := sha256.Sum256(content)
	key := fmt.Sprintf("%s/%s/%s.%s", orgID, jobID, hex.EncodeToString(sum[:]), ext)

	if err := i.store.Upload(ctx, key, content, mimeType); err != nil {
		return out, common.WrapError(err, "upload file")
	}

	doc := &entity.Document{
		OrganizationID: orgID,
		JobID:          jobID,
		StorageKey:     key,
		FileName:       filepath.Base(abs),
		MimeType:       mimeType,
		SizeBytes:      int64(len(content)),
	}
	if err := i.documents.Create(ctx, doc); err != nil {
		return out, err
	}

	i.logger.Info("ingest.file.ok",
		"document_id", doc.ID,
		"job_id", jobID,
		"file_name", doc.FileName,
		"size_bytes", doc.SizeBytes,
	)
	return Result{
		DocumentID: doc.ID,
		StorageKey: key,
		SizeBytes:  doc.SizeBytes,
		MimeType:   mimeType,
	}, nil
}

// IngestDirectory walks a directory and ingests every accepted file, skipping
// hidden entries. Errors on individual files are collected, not fatal.
func (i *Ingestor) IngestDirectory(ctx context.Context, orgID, jobID uuid.UUID, dir string) ([]Result, []error) {
	var (
		results []Result
		errs    []error
	)
	walkErr := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if IsHidden(path) {
			if d.IsDir() && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		res, err := i.IngestFile(ctx, orgID, jobID, path)
		if err != nil {
			i.logger.Warn("ingest.file.failed", "path", path, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			return nil
		}
		results = append(results, res)
		return nil
	})
	if walkErr != nil {
		errs = append(errs, walkErr)
	}
	return results, errs
}
