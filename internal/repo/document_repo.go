package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/model"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/dbutil"
	appErr "github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/errors"
)

var documentFields = []string{
	"id", "user_id", "title", "file_name", "file_path", "file_size", "file_type",
	"mime_type", "status", "processing_error", "processing_started_at",
	"processing_completed_at", "summary", "keywords", "word_count", "page_count",
	"chunk_count", "is_deleted", "ctime", "mtime",
}

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	data := map[string]interface{}{
		"id":                      doc.ID,
		"user_id":                 doc.UserID,
		"title":                   doc.Title,
		"file_name":               doc.FileName,
		"file_path":               doc.FilePath,
		"file_size":               doc.FileSize,
		"file_type":               doc.FileType,
		"mime_type":               doc.MimeType,
		"status":                  doc.Status,
		"processing_error":        doc.ProcessingError,
		"processing_started_at":   doc.ProcessingStartedAt,
		"processing_completed_at": doc.ProcessingCompletedAt,
		"summary":                 doc.Summary,
		"keywords":                doc.Keywords,
		"word_count":              doc.WordCount,
		"page_count":              doc.PageCount,
		"chunk_count":             doc.ChunkCount,
		"is_deleted":              doc.IsDeleted,
		"ctime":                   doc.Ctime,
		"mtime":                   doc.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("documents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *DocumentRepo) GetByID(ctx context.Context, userID, docID string) (*model.Document, error) {
	where := map[string]interface{}{
		"id":         docID,
		"user_id":    userID,
		"is_deleted": 0,
	}
	return r.getOne(ctx, where)
}

// Get looks a document up by id only, ignoring ownership and soft-delete
// state. The ingestion pipeline uses it to observe its own document.
func (r *DocumentRepo) Get(ctx context.Context, docID string) (*model.Document, error) {
	return r.getOne(ctx, map[string]interface{}{"id": docID})
}

func (r *DocumentRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.Document, error) {
	sqlStr, args, err := builder.BuildSelect("documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var doc model.Document
	if err := scanDocument(rows, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepo) List(ctx context.Context, userID string, limit, offset uint) ([]model.Document, error) {
	where := map[string]interface{}{
		"user_id":    userID,
		"is_deleted": 0,
		"_orderby":   "ctime desc",
	}
	if limit > 0 {
		where["_limit"] = []uint{offset, limit}
	}
	sqlStr, args, err := builder.BuildSelect("documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	docs := make([]model.Document, 0)
	for rows.Next() {
		var doc model.Document
		if err := scanDocument(rows, &doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepo) SetFilePath(ctx context.Context, docID, filePath string, fileSize int64, mtime int64) error {
	return r.update(ctx, docID, map[string]interface{}{
		"file_path": filePath,
		"file_size": fileSize,
		"mtime":     mtime,
	})
}

func (r *DocumentRepo) MarkCompleted(ctx context.Context, docID string, wordCount, pageCount, chunkCount int, now int64) error {
	return r.update(ctx, docID, map[string]interface{}{
		"status":                  model.DocumentStatusCompleted,
		"word_count":              wordCount,
		"page_count":              pageCount,
		"chunk_count":             chunkCount,
		"processing_completed_at": now,
		"processing_error":        "",
		"mtime":                   now,
	})
}

func (r *DocumentRepo) MarkProcessing(ctx context.Context, docID string, now int64) error {
	return r.update(ctx, docID, map[string]interface{}{
		"status":                model.DocumentStatusProcessing,
		"processing_error":      "",
		"processing_started_at": now,
		"mtime":                 now,
	})
}

func (r *DocumentRepo) SetEnrichment(ctx context.Context, docID, summary, keywords string, now int64) error {
	return r.update(ctx, docID, map[string]interface{}{
		"summary":  summary,
		"keywords": keywords,
		"mtime":    now,
	})
}

func (r *DocumentRepo) MarkFailed(ctx context.Context, docID, reason string, now int64) error {
	return r.update(ctx, docID, map[string]interface{}{
		"status":           model.DocumentStatusFailed,
		"processing_error": reason,
		"mtime":            now,
	})
}

// MarkDeleted flags the document before its chunks and vectors are removed,
// so a concurrent ingest task observes the tombstone and stops.
func (r *DocumentRepo) MarkDeleted(ctx context.Context, userID, docID string, now int64) error {
	where := map[string]interface{}{
		"id":         docID,
		"user_id":    userID,
		"is_deleted": 0,
	}
	update := map[string]interface{}{
		"status":     model.DocumentStatusDeleted,
		"is_deleted": 1,
		"mtime":      now,
	}
	sqlStr, args, err := builder.BuildUpdate("documents", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *DocumentRepo) update(ctx context.Context, docID string, update map[string]interface{}) error {
	where := map[string]interface{}{
		"id": docID,
	}
	sqlStr, args, err := builder.BuildUpdate("documents", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func scanDocument(rows *sql.Rows, doc *model.Document) error {
	return rows.Scan(
		&doc.ID, &doc.UserID, &doc.Title, &doc.FileName, &doc.FilePath,
		&doc.FileSize, &doc.FileType, &doc.MimeType, &doc.Status,
		&doc.ProcessingError, &doc.ProcessingStartedAt, &doc.ProcessingCompletedAt,
		&doc.Summary, &doc.Keywords, &doc.WordCount, &doc.PageCount,
		&doc.ChunkCount, &doc.IsDeleted, &doc.Ctime, &doc.Mtime,
	)
}
