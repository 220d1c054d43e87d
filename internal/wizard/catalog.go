package wizard

import "searchadmin/internal/domain"

// DefaultNumRerank is the number of results handed to a reranker.
const DefaultNumRerank = 20

// SelfHostedModels are served by the backend's own model server.
var SelfHostedModels = []domain.EmbeddingModel{
	{
		ModelName:     "nomic-ai/nomic-embed-text-v1",
		Kind:          domain.ProviderSelfHosted,
		Dimension:     768,
		Normalize:     true,
		QueryPrefix:   "search_query: ",
		PassagePrefix: "search_document: ",
		Description:   "Default model. Good general purpose quality with fast inference.",
	},
	{
		ModelName:     "intfloat/e5-base-v2",
		Kind:          domain.ProviderSelfHosted,
		Dimension:     768,
		Normalize:     true,
		QueryPrefix:   "query: ",
		PassagePrefix: "passage: ",
		Description:   "Older model with lower retrieval quality.",
	},
	{
		ModelName:     "intfloat/e5-small-v2",
		Kind:          domain.ProviderSelfHosted,
		Dimension:     384,
		Normalize:     true,
		QueryPrefix:   "query: ",
		PassagePrefix: "passage: ",
		Description:   "Smaller and faster e5 model, lower quality.",
	},
	{
		ModelName:     "intfloat/multilingual-e5-base",
		Kind:          domain.ProviderSelfHosted,
		Dimension:     768,
		Normalize:     true,
		QueryPrefix:   "query: ",
		PassagePrefix: "passage: ",
		Description:   "Multilingual e5 model for non-English corpora.",
	},
	{
		ModelName:   "thenlper/gte-small",
		Kind:        domain.ProviderSelfHosted,
		Dimension:   384,
		Normalize:   true,
		Description: "Lightweight model for constrained hardware.",
	},
}

// CloudModels are served by third-party embedding APIs and need provider
// credentials configured on the backend.
var CloudModels = []domain.EmbeddingModel{
	{ModelName: "text-embedding-3-large", Kind: domain.ProviderCloud, ProviderName: "openai", Dimension: 3072, Normalize: false, Description: "OpenAI's large embedding model."},
	{ModelName: "text-embedding-3-small", Kind: domain.ProviderCloud, ProviderName: "openai", Dimension: 1536, Normalize: false, Description: "OpenAI's small embedding model."},
	{ModelName: "embed-english-v3.0", Kind: domain.ProviderCloud, ProviderName: "cohere", Dimension: 1024, Normalize: true, Description: "Cohere's English embedding model."},
	{ModelName: "embed-multilingual-v3.0", Kind: domain.ProviderCloud, ProviderName: "cohere", Dimension: 1024, Normalize: true, Description: "Cohere's multilingual embedding model."},
	{ModelName: "voyage-large-2-instruct", Kind: domain.ProviderCloud, ProviderName: "voyage", Dimension: 1024, Normalize: true, Description: "Voyage's instruction-tuned model."},
	{ModelName: "text-embedding-004", Kind: domain.ProviderCloud, ProviderName: "google", Dimension: 768, Normalize: false, Description: "Google's Vertex AI embedding model."},
}

// AllModels returns self-hosted models followed by cloud models.
func AllModels() []domain.EmbeddingModel {
	out := make([]domain.EmbeddingModel, 0, len(SelfHostedModels)+len(CloudModels))
	out = append(out, SelfHostedModels...)
	return append(out, CloudModels...)
}

// RerankOption is a reranker the operator can pick.
type RerankOption struct {
	Label    string
	Provider domain.RerankProvider
	Model    string
}

// RerankOptions lists the built-in rerankers. The first entry disables reranking.
var RerankOptions = []RerankOption{
	{Label: "No reranking", Provider: domain.RerankNone},
	{Label: "Cohere rerank-english-v3.0", Provider: domain.RerankCohere, Model: "rerank-english-v3.0"},
	{Label: "Cohere rerank-multilingual-v3.0", Provider: domain.RerankCohere, Model: "rerank-multilingual-v3.0"},
	{Label: "LiteLLM proxy", Provider: domain.RerankLiteLLM},
}

// Choice builds a reranking choice from the option with the given credentials.
func (o RerankOption) Choice(apiKey, apiURL string) domain.RerankingChoice {
	if o.Provider == domain.RerankNone {
		return domain.RerankingChoice{}
	}
	return domain.RerankingChoice{
		ProviderType: o.Provider,
		ModelName:    o.Model,
		APIKey:       apiKey,
		APIURL:       apiURL,
		NumRerank:    DefaultNumRerank,
	}
}
