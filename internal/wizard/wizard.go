// Package wizard holds the search-configuration wizard: a working draft of
// search settings and the step sequencer that walks an operator through it.
package wizard

import (
	"errors"
	"fmt"

	"searchadmin/internal/domain"
)

// ErrRerankCredentialsRequired is returned when a remote reranker is chosen
// without its API key or URL.
var ErrRerankCredentialsRequired = errors.New("reranking provider requires credentials")

// Wizard owns the draft settings for one editing session. It is not safe for
// concurrent use.
type Wizard struct {
	seq     *Sequencer
	current domain.SearchSettings
	draft   domain.SearchSettings
}

// New seeds the draft from the backend's current settings.
func New(current domain.SearchSettings, check QualityCheck) *Wizard {
	return &Wizard{
		seq:     NewSequencer(check),
		current: current.Clone(),
		draft:   current.Clone(),
	}
}

func (w *Wizard) Step() Step              { return w.seq.Step() }
func (w *Wizard) PromptOpen() bool        { return w.seq.PromptOpen() }
func (w *Wizard) Prompts() int            { return w.seq.Prompts() }
func (w *Wizard) Advance() error          { return w.seq.Advance(w.draft.Embedding) }
func (w *Wizard) Retreat()                { w.seq.Retreat() }
func (w *Wizard) Confirm(accept bool)     { w.seq.Confirm(accept) }
func (w *Wizard) JumpTo(target Step) bool { return w.seq.JumpTo(target, w.draft.Embedding) }

func (w *Wizard) Current() domain.SearchSettings { return w.current.Clone() }

// Draft returns a copy of the working draft.
func (w *Wizard) Draft() domain.SearchSettings { return w.draft.Clone() }

// SelectedModel returns the draft's embedding model, or nil.
func (w *Wizard) SelectedModel() *domain.EmbeddingModel {
	if w.draft.Embedding == nil {
		return nil
	}
	m := *w.draft.Embedding
	return &m
}

// SelectEmbeddingModel replaces the draft's embedding model. No network call
// is made; a pending low-quality confirmation is discarded.
func (w *Wizard) SelectEmbeddingModel(m domain.EmbeddingModel) {
	if w.draft.Embedding != nil && domain.SameModel(w.draft.Embedding, &m) {
		w.draft.Embedding = &m
		return
	}
	w.draft.Embedding = &m
	w.seq.SelectionChanged()
}

// SelectReranking replaces the draft's reranking choice. A remote provider
// without credentials is rejected and the draft is left unchanged.
func (w *Wizard) SelectReranking(c domain.RerankingChoice) error {
	if c.MissingCredentials() {
		return fmt.Errorf("%w: %s", ErrRerankCredentialsRequired, c.ProviderType)
	}
	w.draft.Reranking = c
	return nil
}

// UpdateAdvancedOptions shallow-merges patch into the draft.
func (w *Wizard) UpdateAdvancedOptions(patch domain.AdvancedOptionsPatch) {
	w.draft.Advanced = patch.Apply(w.draft.Advanced)
}

// NeedsReindex reports whether committing the draft requires a background
// re-index: the model changed, or multipass indexing was toggled.
func (w *Wizard) NeedsReindex() bool {
	modelChanged := w.draft.Embedding != nil && !domain.SameModel(w.current.Embedding, w.draft.Embedding)
	return modelChanged || w.current.Advanced.MultipassIndexing != w.draft.Advanced.MultipassIndexing
}

// Reset discards the draft and reseeds it from current.
func (w *Wizard) Reset(current domain.SearchSettings) {
	w.current = current.Clone()
	w.draft = current.Clone()
	w.seq.Reset()
}

// Rebase records new backend settings after a successful commit, keeping the
// draft as is.
func (w *Wizard) Rebase(current domain.SearchSettings) {
	w.current = current.Clone()
}
