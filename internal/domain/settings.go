package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ProviderKind tags an embedding model as self-hosted or served by a cloud API.
type ProviderKind string

const (
	ProviderSelfHosted ProviderKind = "self_hosted"
	ProviderCloud      ProviderKind = "cloud"
)

// EmbeddingModel describes a candidate embedding model.
// A self-hosted model never carries a provider name; a cloud model always does.
type EmbeddingModel struct {
	ModelName     string
	Kind          ProviderKind
	ProviderName  string
	Dimension     int
	Normalize     bool
	QueryPrefix   string
	PassagePrefix string
	Description   string
}

// Identity returns the key two models are compared by.
func (m EmbeddingModel) Identity() string {
	if m.Kind == ProviderCloud {
		return strings.ToLower(m.ProviderName) + "/" + m.ModelName
	}
	return m.ModelName
}

// SameModel reports whether a and b name the same model. Nil only equals nil.
func SameModel(a, b *EmbeddingModel) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Identity() == b.Identity()
}

// Validate checks that the provider matches the kind and that fields are in range.
func (m EmbeddingModel) Validate() error {
	if strings.TrimSpace(m.ModelName) == "" {
		return &ValidationError{Field: "model_name", Message: "model name is required"}
	}
	if m.Dimension <= 0 {
		return &ValidationError{Field: "model_dim", Message: "dimension must be positive"}
	}
	switch m.Kind {
	case ProviderSelfHosted:
		if m.ProviderName != "" {
			return &ValidationError{Field: "provider_type", Message: "self-hosted models have no provider"}
		}
	case ProviderCloud:
		if strings.TrimSpace(m.ProviderName) == "" {
			return &ValidationError{Field: "provider_type", Message: "cloud models need a provider"}
		}
	default:
		return &ValidationError{Field: "provider_type", Message: fmt.Sprintf("unknown provider kind %q", m.Kind)}
	}
	return nil
}

// embeddingModelWire is the backend's EmbeddingModelDescriptor shape.
type embeddingModelWire struct {
	ModelName     string  `json:"model_name"`
	ModelDim      int     `json:"model_dim"`
	Normalize     bool    `json:"normalize"`
	QueryPrefix   *string `json:"query_prefix"`
	PassagePrefix *string `json:"passage_prefix"`
	ProviderType  *string `json:"provider_type"`
	Description   string  `json:"description,omitempty"`
}

func (m EmbeddingModel) MarshalJSON() ([]byte, error) {
	switch m.Kind {
	case ProviderCloud, ProviderSelfHosted:
	default:
		return nil, fmt.Errorf("unknown provider kind %q", m.Kind)
	}
	return json.Marshal(m.wire())
}

func (m *EmbeddingModel) UnmarshalJSON(data []byte) error {
	var w embeddingModelWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = w.model()
	return nil
}

func (m EmbeddingModel) wire() embeddingModelWire {
	w := embeddingModelWire{
		ModelName:     m.ModelName,
		ModelDim:      m.Dimension,
		Normalize:     m.Normalize,
		QueryPrefix:   optional(m.QueryPrefix),
		PassagePrefix: optional(m.PassagePrefix),
		Description:   m.Description,
	}
	if m.Kind == ProviderCloud {
		w.ProviderType = optional(strings.ToLower(m.ProviderName))
	}
	return w
}

func (w embeddingModelWire) model() EmbeddingModel {
	m := EmbeddingModel{
		ModelName:     w.ModelName,
		Kind:          ProviderSelfHosted,
		Dimension:     w.ModelDim,
		Normalize:     w.Normalize,
		QueryPrefix:   deref(w.QueryPrefix),
		PassagePrefix: deref(w.PassagePrefix),
		Description:   w.Description,
	}
	if p := deref(w.ProviderType); p != "" {
		m.Kind = ProviderCloud
		m.ProviderName = p
	}
	return m
}

// RerankProvider names a remote reranking service. Empty means none or self-hosted.
type RerankProvider string

const (
	RerankNone    RerankProvider = ""
	RerankCohere  RerankProvider = "cohere"
	RerankLiteLLM RerankProvider = "litellm"
)

// RerankingChoice selects how (and whether) search results are reranked.
type RerankingChoice struct {
	ProviderType RerankProvider `json:"rerank_provider_type"`
	ModelName    string         `json:"rerank_model_name"`
	APIKey       string         `json:"rerank_api_key"`
	APIURL       string         `json:"rerank_api_url"`
	NumRerank    int            `json:"num_rerank"`
}

// Enabled reports whether any reranker is configured.
func (c RerankingChoice) Enabled() bool {
	return c.ProviderType != RerankNone || c.ModelName != ""
}

// MissingCredentials reports whether a remote provider is chosen without the
// credential it needs.
func (c RerankingChoice) MissingCredentials() bool {
	switch c.ProviderType {
	case RerankCohere:
		return strings.TrimSpace(c.APIKey) == ""
	case RerankLiteLLM:
		return strings.TrimSpace(c.APIURL) == ""
	default:
		return false
	}
}

func (c RerankingChoice) Validate() error {
	if c.NumRerank < 0 {
		return &ValidationError{Field: "num_rerank", Message: "must not be negative"}
	}
	if c.ProviderType != RerankNone && strings.TrimSpace(c.ModelName) == "" {
		return &ValidationError{Field: "rerank_model_name", Message: "a reranking provider needs a model"}
	}
	switch c.ProviderType {
	case RerankNone, RerankCohere, RerankLiteLLM:
	default:
		return &ValidationError{Field: "rerank_provider_type", Message: fmt.Sprintf("unknown provider %q", c.ProviderType)}
	}
	if c.MissingCredentials() {
		field := "rerank_api_key"
		if c.ProviderType == RerankLiteLLM {
			field = "rerank_api_url"
		}
		return &ValidationError{Field: field, Message: fmt.Sprintf("%s requires credentials", c.ProviderType)}
	}
	return nil
}

// AdvancedIndexingOptions are the index-time knobs shown on the last wizard step.
type AdvancedIndexingOptions struct {
	MultilingualExpansion     []string `json:"multilingual_expansion"`
	MultipassIndexing         bool     `json:"multipass_indexing"`
	DisableRerankForStreaming bool     `json:"disable_rerank_for_streaming"`
}

func (o AdvancedIndexingOptions) Validate() error {
	for i, lang := range o.MultilingualExpansion {
		if strings.TrimSpace(lang) == "" {
			return &ValidationError{Field: "multilingual_expansion", Message: fmt.Sprintf("entry %d is empty", i+1)}
		}
	}
	return nil
}

// AdvancedOptionsPatch is a partial update; nil fields are left untouched.
type AdvancedOptionsPatch struct {
	MultilingualExpansion     *[]string
	MultipassIndexing         *bool
	DisableRerankForStreaming *bool
}

// Apply shallow-merges p into o and returns the result.
func (p AdvancedOptionsPatch) Apply(o AdvancedIndexingOptions) AdvancedIndexingOptions {
	if p.MultilingualExpansion != nil {
		o.MultilingualExpansion = append([]string(nil), (*p.MultilingualExpansion)...)
	}
	if p.MultipassIndexing != nil {
		o.MultipassIndexing = *p.MultipassIndexing
	}
	if p.DisableRerankForStreaming != nil {
		o.DisableRerankForStreaming = *p.DisableRerankForStreaming
	}
	return o
}

// SearchSettings is a full snapshot: either the active configuration or the
// pending (secondary) one being re-indexed.
type SearchSettings struct {
	Embedding *EmbeddingModel
	Reranking RerankingChoice
	Advanced  AdvancedIndexingOptions
	IndexName string
}

// Clone returns a deep copy.
func (s SearchSettings) Clone() SearchSettings {
	out := s
	if s.Embedding != nil {
		m := *s.Embedding
		out.Embedding = &m
	}
	out.Advanced.MultilingualExpansion = append([]string(nil), s.Advanced.MultilingualExpansion...)
	return out
}

// Update extracts the fields applied without re-indexing.
func (s SearchSettings) Update() SearchSettingsUpdate {
	return SearchSettingsUpdate{RerankingChoice: s.Reranking, AdvancedIndexingOptions: s.Advanced}
}

// SearchSettingsUpdate is the body of the update-search-settings call.
type SearchSettingsUpdate struct {
	RerankingChoice
	AdvancedIndexingOptions
}

func (u SearchSettingsUpdate) MarshalJSON() ([]byte, error) {
	type body struct {
		RerankProviderType        *string  `json:"rerank_provider_type"`
		RerankModelName           *string  `json:"rerank_model_name"`
		RerankAPIKey              *string  `json:"rerank_api_key"`
		RerankAPIURL              *string  `json:"rerank_api_url"`
		NumRerank                 int      `json:"num_rerank"`
		MultilingualExpansion     []string `json:"multilingual_expansion"`
		MultipassIndexing         bool     `json:"multipass_indexing"`
		DisableRerankForStreaming bool     `json:"disable_rerank_for_streaming"`
	}
	langs := u.MultilingualExpansion
	if langs == nil {
		langs = []string{}
	}
	return json.Marshal(body{
		RerankProviderType:        optional(string(u.ProviderType)),
		RerankModelName:           optional(u.ModelName),
		RerankAPIKey:              optional(u.APIKey),
		RerankAPIURL:              optional(u.APIURL),
		NumRerank:                 u.NumRerank,
		MultilingualExpansion:     langs,
		MultipassIndexing:         u.MultipassIndexing,
		DisableRerankForStreaming: u.DisableRerankForStreaming,
	})
}

// searchSettingsWire mirrors the backend's flat SavedSearchSettings document.
type searchSettingsWire struct {
	embeddingModelWire
	IndexName                 string   `json:"index_name"`
	RerankProviderType        *string  `json:"rerank_provider_type"`
	RerankModelName           *string  `json:"rerank_model_name"`
	RerankAPIKey              *string  `json:"rerank_api_key"`
	RerankAPIURL              *string  `json:"rerank_api_url"`
	NumRerank                 int      `json:"num_rerank"`
	MultilingualExpansion     []string `json:"multilingual_expansion"`
	MultipassIndexing         bool     `json:"multipass_indexing"`
	DisableRerankForStreaming bool     `json:"disable_rerank_for_streaming"`
}

func (s *SearchSettings) UnmarshalJSON(data []byte) error {
	var w searchSettingsWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := SearchSettings{
		IndexName: w.IndexName,
		Reranking: RerankingChoice{
			ProviderType: RerankProvider(deref(w.RerankProviderType)),
			ModelName:    deref(w.RerankModelName),
			APIKey:       deref(w.RerankAPIKey),
			APIURL:       deref(w.RerankAPIURL),
			NumRerank:    w.NumRerank,
		},
		Advanced: AdvancedIndexingOptions{
			MultilingualExpansion:     w.MultilingualExpansion,
			MultipassIndexing:         w.MultipassIndexing,
			DisableRerankForStreaming: w.DisableRerankForStreaming,
		},
	}
	if w.ModelName != "" {
		m := w.embeddingModelWire.model()
		out.Embedding = &m
	}
	*s = out
	return nil
}

func (s SearchSettings) MarshalJSON() ([]byte, error) {
	w := searchSettingsWire{
		IndexName:                 s.IndexName,
		RerankProviderType:        optional(string(s.Reranking.ProviderType)),
		RerankModelName:           optional(s.Reranking.ModelName),
		RerankAPIKey:              optional(s.Reranking.APIKey),
		RerankAPIURL:              optional(s.Reranking.APIURL),
		NumRerank:                 s.Reranking.NumRerank,
		MultilingualExpansion:     s.Advanced.MultilingualExpansion,
		MultipassIndexing:         s.Advanced.MultipassIndexing,
		DisableRerankForStreaming: s.Advanced.DisableRerankForStreaming,
	}
	if s.Embedding != nil {
		w.embeddingModelWire = s.Embedding.wire()
	}
	return json.Marshal(w)
}

// Validate runs client-side validation over the whole snapshot.
func (s SearchSettings) Validate() error {
	if s.Embedding != nil {
		if err := s.Embedding.Validate(); err != nil {
			return err
		}
	}
	if err := s.Reranking.Validate(); err != nil {
		return err
	}
	return s.Advanced.Validate()
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
