package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"searchadmin/internal/domain"
)

// ListEmbeddingProviders returns the cloud providers that have credentials.
// Corresponds to GET /api/admin/embedding/embedding-provider
func (c *Client) ListEmbeddingProviders(ctx context.Context) ([]domain.EmbeddingProvider, error) {
	var providers []domain.EmbeddingProvider
	if _, err := c.getJSON(ctx, PathEmbeddingProviders, &providers); err != nil {
		return nil, err
	}
	return providers, nil
}

// UpsertEmbeddingProvider stores credentials for a cloud provider.
// Corresponds to PUT /api/admin/embedding/embedding-provider
func (c *Client) UpsertEmbeddingProvider(ctx context.Context, p domain.EmbeddingProvider) error {
	if strings.TrimSpace(p.ProviderType) == "" {
		return &domain.ValidationError{Field: "provider_type", Message: "provider is required"}
	}
	if strings.TrimSpace(p.APIKey) == "" && strings.TrimSpace(p.APIURL) == "" {
		return &domain.ValidationError{Field: "api_key", Message: "an API key or URL is required"}
	}
	p.ProviderType = strings.ToLower(p.ProviderType)
	return c.sendJSON(ctx, http.MethodPut, PathEmbeddingProviders, p, nil)
}

// DeleteEmbeddingProvider removes stored credentials.
// Corresponds to DELETE /api/admin/embedding/embedding-provider/{provider_type}
func (c *Client) DeleteEmbeddingProvider(ctx context.Context, providerType string) error {
	if strings.TrimSpace(providerType) == "" {
		return errors.New("providerType cannot be empty")
	}
	path := PathEmbeddingProviders + "/" + url.PathEscape(strings.ToLower(providerType))
	return c.sendJSON(ctx, http.MethodDelete, path, nil, nil)
}

// TestEmbeddingProvider asks the backend to embed a probe string with the given
// credentials without storing them.
// Corresponds to POST /api/admin/embedding/test-embedding
func (c *Client) TestEmbeddingProvider(ctx context.Context, p domain.EmbeddingProvider) error {
	p.ProviderType = strings.ToLower(p.ProviderType)
	return c.sendJSON(ctx, http.MethodPost, PathTestEmbedding, p, nil)
}

// ProviderConfigured reports whether providers contains credentials for name.
func ProviderConfigured(providers []domain.EmbeddingProvider, name string) bool {
	for _, p := range providers {
		if strings.EqualFold(p.ProviderType, name) {
			return true
		}
	}
	return false
}

var _ domain.ProviderRegistry = (*Client)(nil)
