package ingest

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/ai"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/config"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/extract"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/filestore"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/index"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/model"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/errors"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/ids"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/timeutil"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

var mimeByExt = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	GetByID(ctx context.Context, userID, docID string) (*model.Document, error)
	Get(ctx context.Context, docID string) (*model.Document, error)
	List(ctx context.Context, userID string, limit, offset uint) ([]model.Document, error)
	SetFilePath(ctx context.Context, docID, filePath string, fileSize int64, mtime int64) error
	SetEnrichment(ctx context.Context, docID, summary, keywords string, now int64) error
	MarkProcessing(ctx context.Context, docID string, now int64) error
	MarkCompleted(ctx context.Context, docID string, wordCount, pageCount, chunkCount int, now int64) error
	MarkFailed(ctx context.Context, docID, reason string, now int64) error
	MarkDeleted(ctx context.Context, userID, docID string, now int64) error
}

type ChunkStore interface {
	ReplaceAll(ctx context.Context, docID string, chunks []model.DocumentChunk) error
	ListByDocument(ctx context.Context, docID string) ([]model.DocumentChunk, error)
	ListVectorIDs(ctx context.Context, docID string) ([]string, error)
	DeleteByDocument(ctx context.Context, docID string) error
}

// Enricher produces the optional document summary and keyword list after
// chunking succeeds. *ai.Manager satisfies it.
type Enricher interface {
	Summarize(ctx context.Context, text string) (string, error)
	ExtractKeywords(ctx context.Context, text string, max int) (string, error)
}

type Service struct {
	cfg      config.IngestConfig
	docs     DocumentStore
	chunks   ChunkStore
	idx      index.Index
	blobs    filestore.Store
	embedder ai.IEmbedder
	enricher Enricher
	chunker  *Chunker

	mu    sync.Mutex
	tasks map[string]context.CancelFunc
	wg    sync.WaitGroup
}

func NewService(cfg config.IngestConfig, docs DocumentStore, chunks ChunkStore, idx index.Index, blobs filestore.Store, embedder ai.IEmbedder, enricher Enricher) *Service {
	return &Service{
		cfg:      cfg,
		docs:     docs,
		chunks:   chunks,
		idx:      idx,
		blobs:    blobs,
		embedder: embedder,
		enricher: enricher,
		chunker:  NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		tasks:    map[string]context.CancelFunc{},
	}
}

// Ingest validates the upload, stores the raw blob, and records the
// document as processing. The extract/chunk/embed work runs in a
// background task; callers observe completion through the document status.
func (s *Service) Ingest(ctx context.Context, userID, fileName, mimeType string, r io.Reader, size int64) (*model.Document, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !s.extensionAllowed(ext) {
		return nil, fmt.Errorf("%w: extension %q", errors.ErrUnsupportedType, ext)
	}
	if mimeType == "" {
		mimeType = mimeByExt[ext]
	}
	if _, err := extract.ForMimeType(mimeType); err != nil {
		return nil, fmt.Errorf("%w: %s", errors.ErrUnsupportedType, mimeType)
	}
	if size <= 0 || (s.cfg.MaxFileSize > 0 && size > s.cfg.MaxFileSize) {
		return nil, fmt.Errorf("%w: %d bytes", errors.ErrSizeExceeded, size)
	}

	now := timeutil.NowMilli()
	doc := &model.Document{
		ID:                  ids.New(),
		UserID:              userID,
		Title:               strings.TrimSuffix(fileName, ext),
		FileName:            fileName,
		FileSize:            size,
		FileType:            strings.TrimPrefix(ext, "."),
		MimeType:            mimeType,
		Status:              model.DocumentStatusProcessing,
		ProcessingStartedAt: now,
		Ctime:               now,
		Mtime:               now,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	key := blobKey(doc.ID, ext)
	if err := s.blobs.Save(ctx, key, io.LimitReader(r, size), size); err != nil {
		_ = s.docs.MarkFailed(ctx, doc.ID, "store upload: "+err.Error(), timeutil.NowMilli())
		return nil, fmt.Errorf("store upload: %w", err)
	}
	doc.FilePath = key
	if err := s.docs.SetFilePath(ctx, doc.ID, key, size, timeutil.NowMilli()); err != nil {
		return nil, fmt.Errorf("record file path: %w", err)
	}

	s.spawn(doc)
	return doc, nil
}

// Reingest re-runs the pipeline over the stored blob. Chunks whose
// content hash is unchanged keep their existing vectors.
func (s *Service) Reingest(ctx context.Context, userID, docID string) (*model.Document, error) {
	doc, err := s.docs.GetByID(ctx, userID, docID)
	if err != nil {
		return nil, err
	}
	if s.running(docID) {
		return nil, fmt.Errorf("%w: ingestion already in progress", errors.ErrConflict)
	}
	if err := s.docs.MarkProcessing(ctx, docID, timeutil.NowMilli()); err != nil {
		return nil, err
	}
	doc.Status = model.DocumentStatusProcessing
	s.spawn(doc)
	return doc, nil
}

func (s *Service) Get(ctx context.Context, userID, docID string) (*model.Document, error) {
	return s.docs.GetByID(ctx, userID, docID)
}

func (s *Service) List(ctx context.Context, userID string, limit, offset uint) ([]model.Document, error) {
	return s.docs.List(ctx, userID, limit, offset)
}

func (s *Service) ListChunks(ctx context.Context, userID, docID string) ([]model.DocumentChunk, error) {
	if _, err := s.docs.GetByID(ctx, userID, docID); err != nil {
		return nil, err
	}
	return s.chunks.ListByDocument(ctx, docID)
}

// Delete stops any running ingestion for the document, tombstones the row,
// and then removes vectors, chunk rows, and the blob in that order. The
// index entries go first so a failure cannot leave vectors that no chunk
// row references.
func (s *Service) Delete(ctx context.Context, userID, docID string) error {
	doc, err := s.docs.GetByID(ctx, userID, docID)
	if err != nil {
		return err
	}
	if err := s.docs.MarkDeleted(ctx, userID, docID, timeutil.NowMilli()); err != nil {
		return err
	}
	s.cancelTask(docID)

	logger := logutil.GetLogger(ctx).With(zap.String("document_id", docID))
	if err := s.idx.DeleteByDocument(ctx, docID); err != nil {
		logger.Error("delete vectors failed, leaving chunks for reconcile sweep", zap.Error(err))
		return fmt.Errorf("delete vectors: %w", err)
	}
	if err := s.chunks.DeleteByDocument(ctx, docID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if doc.FilePath != "" {
		if err := s.blobs.Delete(ctx, doc.FilePath); err != nil {
			logger.Warn("delete blob failed", zap.Error(err))
		}
	}
	return nil
}

// Wait blocks until all in-flight ingestion tasks finish. Used on
// shutdown and by tests.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) extensionAllowed(ext string) bool {
	for _, allowed := range s.cfg.AllowedExtensions {
		if strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}

func (s *Service) running(docID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[docID]
	return ok
}

func (s *Service) spawn(doc *model.Document) {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.tasks[doc.ID] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.tasks, doc.ID)
			s.mu.Unlock()
			cancel()
		}()
		s.process(ctx, doc)
	}()
}

func (s *Service) cancelTask(docID string) {
	s.mu.Lock()
	cancel := s.tasks[docID]
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Service) process(ctx context.Context, doc *model.Document) {
	logger := logutil.GetLogger(ctx).With(
		zap.String("document_id", doc.ID),
		zap.String("file_name", doc.FileName),
	)
	logger.Info("ingestion started", zap.Int64("size", doc.FileSize))

	if err := s.runPipeline(ctx, doc); err != nil {
		if ctx.Err() != nil {
			logger.Info("ingestion cancelled")
			return
		}
		logger.Error("ingestion failed", zap.Error(err))
		if ferr := s.docs.MarkFailed(ctx, doc.ID, err.Error(), timeutil.NowMilli()); ferr != nil {
			logger.Error("mark failed", zap.Error(ferr))
		}
		return
	}
	logger.Info("ingestion completed")
}

func (s *Service) runPipeline(ctx context.Context, doc *model.Document) error {
	rc, err := s.blobs.Open(ctx, doc.FilePath)
	if err != nil {
		return fmt.Errorf("open blob: %w", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return fmt.Errorf("read blob: %w", err)
	}

	extractor, err := extract.ForMimeType(doc.MimeType)
	if err != nil {
		return fmt.Errorf("%w: %s", errors.ErrUnsupportedType, doc.MimeType)
	}
	res, err := extractor.Extract(ctx, data)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}

	pieces := s.chunker.Split(res)
	existing, err := s.chunks.ListByDocument(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("list existing chunks: %w", err)
	}
	// Unchanged content keeps both its chunk row id and its vector, so the
	// vector's chunk reference stays valid across re-ingests and no
	// provider call is made.
	byHash := make(map[string]model.DocumentChunk, len(existing))
	for _, c := range existing {
		if c.VectorID != "" {
			byHash[c.ContentHash] = c
		}
	}

	now := timeutil.NowMilli()
	rows := make([]model.DocumentChunk, 0, len(pieces))
	var newVectors []string
	kept := map[string]struct{}{}
	rollback := func() {
		if len(newVectors) == 0 {
			return
		}
		if derr := s.idx.Delete(context.WithoutCancel(ctx), newVectors); derr != nil {
			logutil.GetLogger(ctx).Error("rollback vectors failed",
				zap.String("document_id", doc.ID), zap.Error(derr))
		}
	}

	for _, piece := range pieces {
		if err := ctx.Err(); err != nil {
			rollback()
			return err
		}
		chunkID := ""
		vectorID := ""
		if prev, ok := byHash[piece.ContentHash]; ok {
			chunkID = prev.ID
			vectorID = prev.VectorID
			delete(byHash, piece.ContentHash)
		} else {
			embedding, err := s.embedder.Embed(ctx, piece.Content, ai.TaskRetrievalDocument)
			if err != nil {
				rollback()
				return fmt.Errorf("embed chunk %d: %w", piece.Index, err)
			}
			chunkID = ids.New()
			vectorID = ids.New()
			entry := &index.Entry{
				VectorID:   vectorID,
				UserID:     doc.UserID,
				DocumentID: doc.ID,
				ChunkID:    chunkID,
				Embedding:  embedding,
				Ctime:      now,
			}
			if err := s.idx.Upsert(ctx, entry); err != nil {
				rollback()
				return fmt.Errorf("index chunk %d: %w", piece.Index, err)
			}
			newVectors = append(newVectors, vectorID)
		}
		kept[vectorID] = struct{}{}
		rows = append(rows, model.DocumentChunk{
			ID:           chunkID,
			DocumentID:   doc.ID,
			ChunkIndex:   piece.Index,
			Content:      piece.Content,
			ContentHash:  piece.ContentHash,
			VectorID:     vectorID,
			TokenCount:   piece.TokenCount,
			CharCount:    piece.CharCount,
			PageNumber:   piece.PageNumber,
			SectionTitle: piece.SectionTitle,
			Ctime:        now,
		})
	}

	if err := s.chunks.ReplaceAll(ctx, doc.ID, rows); err != nil {
		rollback()
		return fmt.Errorf("replace chunks: %w", err)
	}

	// vectors of replaced chunks that no new chunk reuses
	var stale []string
	for _, c := range existing {
		if c.VectorID == "" {
			continue
		}
		if _, ok := kept[c.VectorID]; !ok {
			stale = append(stale, c.VectorID)
		}
	}
	if len(stale) > 0 {
		if err := s.idx.Delete(ctx, stale); err != nil {
			logutil.GetLogger(ctx).Warn("delete stale vectors failed, reconcile sweep will retry",
				zap.String("document_id", doc.ID), zap.Error(err))
		}
	}

	s.enrich(ctx, doc, res.Text)
	return s.docs.MarkCompleted(ctx, doc.ID, totalWords(pieces), len(res.Pages), len(rows), timeutil.NowMilli())
}

func (s *Service) enrich(ctx context.Context, doc *model.Document, text string) {
	if s.enricher == nil {
		return
	}
	logger := logutil.GetLogger(ctx).With(zap.String("document_id", doc.ID))
	if summary, err := s.enricher.Summarize(ctx, text); err == nil {
		doc.Summary = summary
	} else {
		logger.Warn("summarize failed", zap.Error(err))
	}
	if keywords, err := s.enricher.ExtractKeywords(ctx, text, 10); err == nil {
		doc.Keywords = keywords
	} else {
		logger.Warn("extract keywords failed", zap.Error(err))
	}
	if doc.Summary == "" && doc.Keywords == "" {
		return
	}
	if err := s.docs.SetEnrichment(ctx, doc.ID, doc.Summary, doc.Keywords, timeutil.NowMilli()); err != nil {
		logger.Warn("save enrichment failed", zap.Error(err))
	}
}

func blobKey(docID, ext string) string {
	return "documents/" + docID + ext
}
