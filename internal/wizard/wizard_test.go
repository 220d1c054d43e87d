package wizard

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searchadmin/internal/domain"
)

func selfHosted(name string) domain.EmbeddingModel {
	return domain.EmbeddingModel{ModelName: name, Kind: domain.ProviderSelfHosted, Dimension: 768, Normalize: true}
}

func currentSettings(model string, multipass bool) domain.SearchSettings {
	m := selfHosted(model)
	return domain.SearchSettings{
		Embedding: &m,
		Advanced:  domain.AdvancedIndexingOptions{MultipassIndexing: multipass},
		IndexName: "danswer_chunk_" + model,
	}
}

func TestSequencer_StepStaysInRange(t *testing.T) {
	// Given: a wizard with a good model already selected
	w := New(currentSettings("nomic-ai/nomic-embed-text-v1", false), nil)
	rng := rand.New(rand.NewSource(42))

	// When: applying a long random sequence of advance/retreat
	for i := 0; i < 500; i++ {
		if rng.Intn(2) == 0 {
			require.NoError(t, w.Advance())
		} else {
			w.Retreat()
		}

		// Then: the step never leaves [0, 2]
		assert.GreaterOrEqual(t, int(w.Step()), 0)
		assert.LessOrEqual(t, int(w.Step()), 2)
	}
}

func TestSequencer_ClampsAtBothEnds(t *testing.T) {
	w := New(currentSettings("nomic-ai/nomic-embed-text-v1", false), nil)

	w.Retreat()
	assert.Equal(t, StepSelectEmbedding, w.Step())

	for i := 0; i < 5; i++ {
		require.NoError(t, w.Advance())
	}
	assert.Equal(t, StepAdvancedOptions, w.Step())
}

func TestSequencer_AdvanceRequiresModel(t *testing.T) {
	w := New(domain.SearchSettings{}, nil)

	err := w.Advance()

	assert.ErrorIs(t, err, ErrNoModelSelected)
	assert.Equal(t, StepSelectEmbedding, w.Step())
}

func TestSequencer_LowQualityGateConfirm(t *testing.T) {
	// Given: a wizard where the operator picks an e5 model
	w := New(currentSettings("nomic-ai/nomic-embed-text-v1", false), nil)
	w.SelectEmbeddingModel(selfHosted("intfloat/e5-base-v2"))

	// When: advancing repeatedly while the prompt is open
	require.NoError(t, w.Advance())
	require.NoError(t, w.Advance())
	require.NoError(t, w.Advance())

	// Then: the prompt opened once and the step did not move
	assert.True(t, w.PromptOpen())
	assert.Equal(t, 1, w.Prompts())
	assert.Equal(t, StepSelectEmbedding, w.Step())

	// When: confirming
	w.Confirm(true)

	// Then: we are on reranking and returning to step 0 does not re-prompt
	assert.Equal(t, StepSelectReranking, w.Step())
	w.Retreat()
	require.NoError(t, w.Advance())
	assert.Equal(t, StepSelectReranking, w.Step())
	assert.Equal(t, 1, w.Prompts())
}

func TestSequencer_LowQualityGateDecline(t *testing.T) {
	w := New(currentSettings("nomic-ai/nomic-embed-text-v1", false), nil)
	w.SelectEmbeddingModel(selfHosted("intfloat/E5-small-v2"))

	require.NoError(t, w.Advance())
	w.Confirm(false)

	assert.False(t, w.PromptOpen())
	assert.Equal(t, StepSelectEmbedding, w.Step())
}

func TestSequencer_PromptsOncePerSelection(t *testing.T) {
	// Given: an e5 model whose prompt was declined
	w := New(currentSettings("nomic-ai/nomic-embed-text-v1", false), nil)
	w.SelectEmbeddingModel(selfHosted("intfloat/e5-base-v2"))
	require.NoError(t, w.Advance())
	w.Confirm(false)

	// When: advancing again without reselecting
	require.NoError(t, w.Advance())

	// Then: the prompt is not shown again and the step moves on
	assert.Equal(t, 1, w.Prompts())
	assert.False(t, w.PromptOpen())
	assert.Equal(t, StepSelectReranking, w.Step())

	// When: reselecting the same model and going back
	w.SelectEmbeddingModel(selfHosted("intfloat/e5-base-v2"))
	w.Retreat()
	require.NoError(t, w.Advance())

	// Then: it is still the same selection
	assert.Equal(t, 1, w.Prompts())
	assert.Equal(t, StepSelectReranking, w.Step())
}

func TestSequencer_ReselectionResetsConfirmation(t *testing.T) {
	w := New(currentSettings("nomic-ai/nomic-embed-text-v1", false), nil)
	w.SelectEmbeddingModel(selfHosted("intfloat/e5-base-v2"))
	require.NoError(t, w.Advance())
	w.Confirm(true)
	w.Retreat()

	// When: a different low-quality model is selected
	w.SelectEmbeddingModel(selfHosted("intfloat/multilingual-e5-base"))
	require.NoError(t, w.Advance())

	// Then: the new selection is prompted again
	assert.True(t, w.PromptOpen())
	assert.Equal(t, 2, w.Prompts())
}

func TestSequencer_JumpTo(t *testing.T) {
	tests := []struct {
		name     string
		model    string
		noModel  bool
		target   Step
		wantMove bool
	}{
		{name: "forward with good model", model: "nomic-ai/nomic-embed-text-v1", target: StepAdvancedOptions, wantMove: true},
		{name: "forward with unconfirmed e5", model: "intfloat/e5-base-v2", target: StepSelectReranking, wantMove: false},
		{name: "forward without model", noModel: true, target: StepSelectReranking, wantMove: false},
		{name: "current step", model: "intfloat/e5-base-v2", target: StepSelectEmbedding, wantMove: true},
		{name: "out of range", model: "nomic-ai/nomic-embed-text-v1", target: Step(7), wantMove: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := currentSettings("thenlper/gte-small", false)
			if tt.noModel {
				current.Embedding = nil
			}
			w := New(current, nil)
			if !tt.noModel {
				w.SelectEmbeddingModel(selfHosted(tt.model))
			}

			moved := w.JumpTo(tt.target)

			assert.Equal(t, tt.wantMove, moved)
			if tt.wantMove {
				assert.Equal(t, tt.target, w.Step())
			} else {
				assert.Equal(t, StepSelectEmbedding, w.Step())
			}
		})
	}
}

func TestSequencer_JumpBackAlwaysAllowed(t *testing.T) {
	w := New(currentSettings("nomic-ai/nomic-embed-text-v1", false), nil)
	require.NoError(t, w.Advance())
	require.NoError(t, w.Advance())

	assert.True(t, w.JumpTo(StepSelectEmbedding))
	assert.Equal(t, StepSelectEmbedding, w.Step())
}

func TestMarkerCheck(t *testing.T) {
	check := MarkerCheck([]string{" E5 ", "", "minilm"})

	assert.True(t, check("intfloat/e5-base-v2"))
	assert.True(t, check("sentence-transformers/all-MiniLM-L6-v2"))
	assert.False(t, check("nomic-ai/nomic-embed-text-v1"))
}

func TestWizard_NeedsReindex(t *testing.T) {
	tests := []struct {
		name           string
		currentModel   string
		currentMulti   bool
		draftModel     string
		draftMulti     bool
		wantNeedsIndex bool
	}{
		{name: "nothing changed", currentModel: "e5-base", currentMulti: true, draftModel: "e5-base", draftMulti: true, wantNeedsIndex: false},
		{name: "multipass toggled", currentModel: "e5-base", currentMulti: true, draftModel: "e5-base", draftMulti: false, wantNeedsIndex: true},
		{name: "model changed", currentModel: "e5-base", currentMulti: false, draftModel: "nomic", draftMulti: false, wantNeedsIndex: true},
		{name: "both changed", currentModel: "e5-base", currentMulti: false, draftModel: "nomic", draftMulti: true, wantNeedsIndex: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New(currentSettings(tt.currentModel, tt.currentMulti), nil)

			w.SelectEmbeddingModel(selfHosted(tt.draftModel))
			w.UpdateAdvancedOptions(domain.AdvancedOptionsPatch{MultipassIndexing: &tt.draftMulti})

			assert.Equal(t, tt.wantNeedsIndex, w.NeedsReindex())
		})
	}
}

func TestWizard_NeedsReindexComparesProvider(t *testing.T) {
	w := New(currentSettings("embed-english-v3.0", false), nil)

	w.SelectEmbeddingModel(domain.EmbeddingModel{
		ModelName:    "embed-english-v3.0",
		Kind:         domain.ProviderCloud,
		ProviderName: "cohere",
		Dimension:    1024,
	})

	assert.True(t, w.NeedsReindex())
}

func TestWizard_UpdateAdvancedOptionsIsIdempotent(t *testing.T) {
	// Given: a draft with languages set
	current := currentSettings("nomic", false)
	current.Advanced.MultilingualExpansion = []string{"es", "fr"}
	current.Advanced.DisableRerankForStreaming = true
	w := New(current, nil)
	on := true

	// When: applying the same patch twice
	w.UpdateAdvancedOptions(domain.AdvancedOptionsPatch{MultipassIndexing: &on})
	once := w.Draft()
	w.UpdateAdvancedOptions(domain.AdvancedOptionsPatch{MultipassIndexing: &on})
	twice := w.Draft()

	// Then: the draft is the same and untouched fields survive
	assert.Equal(t, once, twice)
	assert.True(t, twice.Advanced.MultipassIndexing)
	assert.Equal(t, []string{"es", "fr"}, twice.Advanced.MultilingualExpansion)
	assert.True(t, twice.Advanced.DisableRerankForStreaming)
}

func TestWizard_DisjointPatchesCommute(t *testing.T) {
	on := true
	langs := []string{"de"}
	a := domain.AdvancedOptionsPatch{MultipassIndexing: &on}
	b := domain.AdvancedOptionsPatch{MultilingualExpansion: &langs}

	w1 := New(currentSettings("nomic", false), nil)
	w1.UpdateAdvancedOptions(a)
	w1.UpdateAdvancedOptions(b)

	w2 := New(currentSettings("nomic", false), nil)
	w2.UpdateAdvancedOptions(b)
	w2.UpdateAdvancedOptions(a)

	assert.Equal(t, w1.Draft(), w2.Draft())
}

func TestWizard_SelectRerankingRequiresCredentials(t *testing.T) {
	w := New(currentSettings("nomic", false), nil)

	err := w.SelectReranking(domain.RerankingChoice{ProviderType: domain.RerankCohere, ModelName: "rerank-english-v3.0", NumRerank: 20})

	require.ErrorIs(t, err, ErrRerankCredentialsRequired)
	assert.False(t, w.Draft().Reranking.Enabled())

	err = w.SelectReranking(RerankOptions[1].Choice("secret", ""))

	require.NoError(t, err)
	assert.Equal(t, "rerank-english-v3.0", w.Draft().Reranking.ModelName)
	assert.Equal(t, DefaultNumRerank, w.Draft().Reranking.NumRerank)
}

func TestWizard_DraftIsACopy(t *testing.T) {
	w := New(currentSettings("nomic", false), nil)

	d := w.Draft()
	d.Embedding.ModelName = "mutated"

	assert.Equal(t, "nomic", w.SelectedModel().ModelName)
}

func TestWizard_ResetDiscardsDraft(t *testing.T) {
	w := New(currentSettings("nomic", false), nil)
	w.SelectEmbeddingModel(selfHosted("intfloat/e5-base-v2"))
	require.NoError(t, w.Advance())
	w.Confirm(true)

	w.Reset(currentSettings("gte", true))

	assert.Equal(t, StepSelectEmbedding, w.Step())
	assert.Equal(t, "gte", w.SelectedModel().ModelName)
	assert.False(t, w.NeedsReindex())
}

func TestCatalog_ModelsAreValid(t *testing.T) {
	for _, m := range AllModels() {
		assert.NoError(t, m.Validate(), m.ModelName)
	}
}
