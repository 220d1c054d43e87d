package domain

import (
	"context"
	"fmt"
)

// ValidationError is a client-side form error tied to a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// JobState is the re-index state of a single connector.
type JobState string

const (
	JobInProgress JobState = "in_progress"
	JobSuccess    JobState = "success"
	JobFailed     JobState = "failed"
)

// ReindexJobStatus is the progress of one connector on the secondary index.
type ReindexJobStatus struct {
	ConnectorID   int      `json:"cc_pair_id"`
	ConnectorName string   `json:"connector_name"`
	Status        JobState `json:"status"`
	DocsReindexed int      `json:"docs_reindexed"`
}

// EmbeddingProvider holds the credentials the backend stores for a cloud
// embedding provider.
type EmbeddingProvider struct {
	ProviderType string `json:"provider_type"`
	APIKey       string `json:"api_key,omitempty"`
	APIURL       string `json:"api_url,omitempty"`
}

// SearchDocument is a single hit returned by the document search endpoint.
type SearchDocument struct {
	DocumentID         string  `json:"document_id"`
	SemanticIdentifier string  `json:"semantic_identifier"`
	Blurb              string  `json:"blurb"`
	Link               string  `json:"link"`
	SourceType         string  `json:"source_type"`
	Score              float64 `json:"score"`
}

// SettingsReader fetches the backend-owned search settings.
// GetSecondarySearchSettings returns nil when no re-index is pending.
type SettingsReader interface {
	GetCurrentSearchSettings(ctx context.Context) (*SearchSettings, error)
	GetSecondarySearchSettings(ctx context.Context) (*SearchSettings, error)
}

// SettingsWriter commits search settings to the backend.
type SettingsWriter interface {
	UpdateSearchSettings(ctx context.Context, update SearchSettingsUpdate) error
	SetNewEmbeddingModel(ctx context.Context, model EmbeddingModel) error
	CancelNewEmbedding(ctx context.Context) error
}

// IndexingStatusReader reports per-connector indexing progress.
type IndexingStatusReader interface {
	IndexingStatus(ctx context.Context, secondary bool) ([]ReindexJobStatus, error)
}

// ProviderRegistry manages embedding-provider credentials on the backend.
type ProviderRegistry interface {
	ListEmbeddingProviders(ctx context.Context) ([]EmbeddingProvider, error)
	UpsertEmbeddingProvider(ctx context.Context, p EmbeddingProvider) error
	DeleteEmbeddingProvider(ctx context.Context, providerType string) error
	TestEmbeddingProvider(ctx context.Context, p EmbeddingProvider) error
}

// Searcher runs a document search against the active index.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]SearchDocument, error)
}
