package model

const (
	DocumentStatusProcessing = "processing"
	DocumentStatusCompleted  = "completed"
	DocumentStatusFailed     = "failed"
	DocumentStatusDeleted    = "deleted"
)

type Document struct {
	ID                    string `json:"id"`
	UserID                string `json:"user_id"`
	Title                 string `json:"title"`
	FileName              string `json:"file_name"`
	FilePath              string `json:"file_path"`
	FileSize              int64  `json:"file_size"`
	FileType              string `json:"file_type"`
	MimeType              string `json:"mime_type"`
	Status                string `json:"status"`
	ProcessingError       string `json:"processing_error"`
	ProcessingStartedAt   int64  `json:"processing_started_at"`
	ProcessingCompletedAt int64  `json:"processing_completed_at"`
	Summary               string `json:"summary"`
	Keywords              string `json:"keywords"`
	WordCount             int    `json:"word_count"`
	PageCount             int    `json:"page_count"`
	ChunkCount            int    `json:"chunk_count"`
	IsDeleted             int    `json:"is_deleted"`
	Ctime                 int64  `json:"ctime"`
	Mtime                 int64  `json:"mtime"`
}

type DocumentChunk struct {
	ID           string `json:"id"`
	DocumentID   string `json:"document_id"`
	ChunkIndex   int    `json:"chunk_index"`
	Content      string `json:"content"`
	ContentHash  string `json:"content_hash"`
	VectorID     string `json:"vector_id"`
	TokenCount   int    `json:"token_count"`
	CharCount    int    `json:"char_count"`
	PageNumber   int    `json:"page_number"`
	SectionTitle string `json:"section_title"`
	Ctime        int64  `json:"ctime"`
}
