package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"searchadmin/internal/domain"
)

type documentSearchRequest struct {
	Message          string `json:"message"`
	SearchType       string `json:"search_type"`
	RetrievalOptions struct {
		RunSearch string `json:"run_search"`
		RealTime  bool   `json:"real_time"`
	} `json:"retrieval_options"`
	EvaluationType string `json:"evaluation_type"`
	ChunksAbove    int    `json:"chunks_above"`
	ChunksBelow    int    `json:"chunks_below"`
}

// Search runs a semantic document search against the active index.
// Corresponds to POST /api/query/document-search
func (c *Client) Search(ctx context.Context, query string, topK int) ([]domain.SearchDocument, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query cannot be empty")
	}
	body := documentSearchRequest{
		Message:        query,
		SearchType:     "semantic",
		EvaluationType: "skip",
	}
	body.RetrievalOptions.RunSearch = "always"
	body.RetrievalOptions.RealTime = true

	var out struct {
		TopDocuments []domain.SearchDocument `json:"top_documents"`
	}
	if err := c.sendJSON(ctx, http.MethodPost, PathDocumentSearch, body, &out); err != nil {
		return nil, err
	}
	docs := out.TopDocuments
	if topK > 0 && len(docs) > topK {
		docs = docs[:topK]
	}
	return docs, nil
}

var _ domain.Searcher = (*Client)(nil)
