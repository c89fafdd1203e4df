// Package extract turns uploaded file formats into plain text. Extractors
// for formats the core cannot parse itself (pdf, docx) are external
// collaborator capabilities registered at startup.
package extract

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Result is the extracted plain text. Pages is populated only when the
// format has a page structure the extractor can recover, Sections only
// when it has recoverable headings.
type Result struct {
	Text     string
	Pages    []string
	Sections []Section
}

// Section is a run of text under one heading. Title is empty for text
// that precedes the first heading.
type Section struct {
	Title string
	Text  string
}

type Extractor interface {
	Extract(ctx context.Context, data []byte) (*Result, error)
}

type ExtractorFunc func(ctx context.Context, data []byte) (*Result, error)

func (f ExtractorFunc) Extract(ctx context.Context, data []byte) (*Result, error) {
	return f(ctx, data)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Extractor{}
)

func Register(mimeType string, e Extractor) {
	key := normalize(mimeType)
	if key == "" || e == nil {
		return
	}
	registryMu.Lock()
	registry[key] = e
	registryMu.Unlock()
}

func ForMimeType(mimeType string) (Extractor, error) {
	key := normalize(mimeType)
	registryMu.RLock()
	e := registry[key]
	registryMu.RUnlock()
	if e == nil {
		return nil, fmt.Errorf("no extractor for mime type %s", mimeType)
	}
	return e, nil
}

func normalize(mimeType string) string {
	key := strings.ToLower(strings.TrimSpace(mimeType))
	// strip parameters like "; charset=utf-8"
	if idx := strings.Index(key, ";"); idx >= 0 {
		key = key[:idx]
	}
	return strings.TrimSpace(key)
}
