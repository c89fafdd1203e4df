package ai

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var ErrUnavailable = errors.New("ai provider unavailable")

// Embedding task types, passed through to providers that distinguish them.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

type IProvider interface {
	Name() string
	Generate(ctx context.Context, model string, prompt string) (string, error)
	Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error)
}

type IGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type IEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	ModelName() string
}

// boundModel fixes a provider to one model name so callers never carry
// model strings around. It backs both the generator and embedder facades.
type boundModel struct {
	provider IProvider
	model    string
}

func NewGenerator(p IProvider, model string) IGenerator {
	return &boundModel{provider: p, model: model}
}

func NewEmbedder(p IProvider, model string) IEmbedder {
	return &boundModel{provider: p, model: model}
}

func (b *boundModel) Generate(ctx context.Context, prompt string) (string, error) {
	return b.provider.Generate(ctx, b.model, prompt)
}

func (b *boundModel) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return b.provider.Embed(ctx, b.model, text, taskType)
}

func (b *boundModel) ModelName() string {
	return b.model
}

type ProviderFactory func(args interface{}) (IProvider, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]ProviderFactory{}
)

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

// Providers lists the registered provider names, sorted.
func Providers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func NewProvider(name string, args interface{}) (IProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider %q, registered: %s",
			name, strings.Join(Providers(), ", "))
	}
	return factory(args)
}
