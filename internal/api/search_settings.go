package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"searchadmin/internal/domain"
)

// Endpoint paths. The settings store uses them as cache keys.
const (
	PathCurrentSearchSettings   = "/api/search-settings/get-current-search-settings"
	PathSecondarySearchSettings = "/api/search-settings/get-secondary-search-settings"
	PathCurrentEmbeddingModel   = "/api/search-settings/get-current-embedding-model"
	PathSecondaryEmbeddingModel = "/api/search-settings/get-secondary-embedding-model"
	PathUpdateSearchSettings    = "/api/search-settings/update-search-settings"
	PathSetNewEmbeddingModel    = "/api/search-settings/set-new-embedding-model"
	PathCancelNewEmbedding      = "/api/search-settings/cancel-new-embedding"
	PathIndexingStatus          = "/api/manage/admin/connector/indexing-status"
	PathEmbeddingProviders      = "/api/admin/embedding/embedding-provider"
	PathTestEmbedding           = "/api/admin/embedding/test-embedding"
	PathDocumentSearch          = "/api/query/document-search"
)

// GetCurrentSearchSettings returns the active search settings.
// Corresponds to GET /api/search-settings/get-current-search-settings
func (c *Client) GetCurrentSearchSettings(ctx context.Context) (*domain.SearchSettings, error) {
	var s domain.SearchSettings
	isNull, err := c.getJSON(ctx, PathCurrentSearchSettings, &s)
	if err != nil {
		return nil, err
	}
	if isNull {
		return nil, fmt.Errorf("backend returned no current search settings")
	}
	return &s, nil
}

// GetSecondarySearchSettings returns the pending settings, or nil when no
// re-index is in flight.
// Corresponds to GET /api/search-settings/get-secondary-search-settings
func (c *Client) GetSecondarySearchSettings(ctx context.Context) (*domain.SearchSettings, error) {
	var s domain.SearchSettings
	isNull, err := c.getJSON(ctx, PathSecondarySearchSettings, &s)
	if err != nil {
		return nil, err
	}
	if isNull {
		return nil, nil
	}
	return &s, nil
}

// GetCurrentEmbeddingModel returns the model backing the active index.
// Corresponds to GET /api/search-settings/get-current-embedding-model
func (c *Client) GetCurrentEmbeddingModel(ctx context.Context) (*domain.EmbeddingModel, error) {
	var m domain.EmbeddingModel
	isNull, err := c.getJSON(ctx, PathCurrentEmbeddingModel, &m)
	if err != nil {
		return nil, err
	}
	if isNull {
		return nil, nil
	}
	return &m, nil
}

// GetSecondaryEmbeddingModel returns the model being rolled out, if any.
// Corresponds to GET /api/search-settings/get-secondary-embedding-model
func (c *Client) GetSecondaryEmbeddingModel(ctx context.Context) (*domain.EmbeddingModel, error) {
	var m domain.EmbeddingModel
	isNull, err := c.getJSON(ctx, PathSecondaryEmbeddingModel, &m)
	if err != nil {
		return nil, err
	}
	if isNull {
		return nil, nil
	}
	return &m, nil
}

// UpdateSearchSettings applies reranking and advanced options without re-indexing.
// Corresponds to POST /api/search-settings/update-search-settings
func (c *Client) UpdateSearchSettings(ctx context.Context, update domain.SearchSettingsUpdate) error {
	return c.sendJSON(ctx, http.MethodPost, PathUpdateSearchSettings, update, nil)
}

// SetNewEmbeddingModel starts a background re-index into a secondary index.
// Corresponds to POST /api/search-settings/set-new-embedding-model
func (c *Client) SetNewEmbeddingModel(ctx context.Context, model domain.EmbeddingModel) error {
	if err := model.Validate(); err != nil {
		return err
	}
	return c.sendJSON(ctx, http.MethodPost, PathSetNewEmbeddingModel, model, nil)
}

// CancelNewEmbedding drops the secondary index and stops the re-index.
// Corresponds to POST /api/search-settings/cancel-new-embedding
func (c *Client) CancelNewEmbedding(ctx context.Context) error {
	return c.sendJSON(ctx, http.MethodPost, PathCancelNewEmbedding, nil, nil)
}

// indexingStatusEntry is one element of the indexing-status array.
type indexingStatusEntry struct {
	CCPairID    int     `json:"cc_pair_id"`
	Name        *string `json:"name"`
	LastStatus  *string `json:"last_status"`
	DocsIndexed int     `json:"docs_indexed"`
	Connector   struct {
		Name string `json:"name"`
	} `json:"connector"`
}

func (e indexingStatusEntry) status() domain.ReindexJobStatus {
	name := e.Connector.Name
	if e.Name != nil && *e.Name != "" {
		name = *e.Name
	}
	state := domain.JobInProgress
	if e.LastStatus != nil {
		switch strings.ToLower(*e.LastStatus) {
		case "success", "completed_with_errors":
			state = domain.JobSuccess
		case "failed", "canceled":
			state = domain.JobFailed
		}
	}
	return domain.ReindexJobStatus{
		ConnectorID:   e.CCPairID,
		ConnectorName: name,
		Status:        state,
		DocsReindexed: e.DocsIndexed,
	}
}

// IndexingStatus lists per-connector indexing progress for the primary or the
// secondary index.
// Corresponds to GET /api/manage/admin/connector/indexing-status
func (c *Client) IndexingStatus(ctx context.Context, secondary bool) ([]domain.ReindexJobStatus, error) {
	q := url.Values{}
	q.Set("secondary_index", fmt.Sprintf("%t", secondary))
	var entries []indexingStatusEntry
	if _, err := c.getJSON(ctx, PathIndexingStatus+"?"+q.Encode(), &entries); err != nil {
		return nil, err
	}
	out := make([]domain.ReindexJobStatus, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.status())
	}
	return out, nil
}

var (
	_ domain.SettingsReader       = (*Client)(nil)
	_ domain.SettingsWriter       = (*Client)(nil)
	_ domain.IndexingStatusReader = (*Client)(nil)
)
