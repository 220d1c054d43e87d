package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searchadmin/internal/domain"
	"searchadmin/internal/monitor"
	"searchadmin/internal/notify"
	"searchadmin/internal/service"
	"searchadmin/internal/wizard"
)

type fakePort struct {
	commitRes  service.CommitResult
	commitErr  error
	commits    int
	cancels    int
	cancelErr  error
	cancelWiz  []*wizard.Wizard
	ready      bool
	configured []domain.EmbeddingProvider
	configErr  error
	lastCommit domain.SearchSettings
}

func (f *fakePort) Commit(_ context.Context, w *wizard.Wizard) (service.CommitResult, error) {
	f.commits++
	f.lastCommit = w.Draft()
	return f.commitRes, f.commitErr
}

func (f *fakePort) CancelReindex(_ context.Context, w *wizard.Wizard) error {
	f.cancels++
	f.cancelWiz = append(f.cancelWiz, w)
	return f.cancelErr
}

func (f *fakePort) ConfigureProvider(_ context.Context, p domain.EmbeddingProvider) error {
	f.configured = append(f.configured, p)
	return f.configErr
}

func (f *fakePort) ProviderReady(context.Context, domain.EmbeddingModel) (bool, error) {
	return f.ready, nil
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// collect runs cmd and any batched commands, returning their messages.
// Commands that do not answer quickly (cursor blinks) and spinner ticks are
// dropped.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	var msg tea.Msg
	select {
	case msg = <-ch:
	case <-time.After(250 * time.Millisecond):
		return nil
	}
	switch msg := msg.(type) {
	case nil, spinner.TickMsg:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func findMsg[T any](msgs []tea.Msg) (T, bool) {
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func settingsWith(name string) domain.SearchSettings {
	m := domain.EmbeddingModel{ModelName: name, Kind: domain.ProviderSelfHosted, Dimension: 768, Normalize: true}
	return domain.SearchSettings{Embedding: &m}
}

func newWizardModel(current domain.SearchSettings, port *fakePort) (WizardModel, *wizard.Wizard) {
	w := wizard.New(current, nil)
	return NewWizardModel(context.Background(), w, port, notify.NewCenter(5, nil), NoColorStyles()), w
}

func press(t *testing.T, m WizardModel, keys ...string) (WizardModel, []tea.Msg) {
	t.Helper()
	var msgs []tea.Msg
	for _, k := range keys {
		next, cmd := m.Update(key(k))
		m = next.(WizardModel)
		msgs = append(msgs, collect(cmd)...)
	}
	return m, msgs
}

// feed delivers msgs back into the model, as the runtime would.
func feed(m WizardModel, msgs []tea.Msg) (WizardModel, []tea.Msg) {
	var out []tea.Msg
	for _, msg := range msgs {
		next, cmd := m.Update(msg)
		m = next.(WizardModel)
		out = append(out, collect(cmd)...)
	}
	return m, out
}

func TestWizardModel_LowQualityPrompt(t *testing.T) {
	// Given: current settings already on an e5 model
	m, w := newWizardModel(settingsWith("intfloat/e5-base-v2"), &fakePort{})

	// When: advancing
	m, _ = press(t, m, "tab")

	// Then: the prompt is shown instead of moving on
	assert.True(t, w.PromptOpen())
	assert.Contains(t, m.View(), "Continue with it anyway?")

	// When: confirming
	m, _ = press(t, m, "y")

	// Then: the reranking step is shown
	assert.Equal(t, wizard.StepSelectReranking, w.Step())
	assert.Contains(t, m.View(), "reranked")
}

func TestWizardModel_DeclineKeepsStep(t *testing.T) {
	m, w := newWizardModel(settingsWith("intfloat/e5-small-v2"), &fakePort{})

	m, _ = press(t, m, "tab", "n")

	assert.False(t, w.PromptOpen())
	assert.Equal(t, wizard.StepSelectEmbedding, w.Step())
	assert.NotContains(t, m.View(), "Continue with it anyway?")
}

func TestWizardModel_CloudModelOpensCredentialForm(t *testing.T) {
	port := &fakePort{ready: false}
	m, w := newWizardModel(settingsWith("nomic-ai/nomic-embed-text-v1"), port)

	// Given: the cursor on the first cloud model
	for i := 0; i < len(wizard.SelfHostedModels); i++ {
		m, _ = press(t, m, "down")
	}

	// When: selecting it
	m, msgs := press(t, m, "enter")
	m, _ = feed(m, msgs)

	// Then: the credential form is open and the draft is unchanged
	require.True(t, m.form.open())
	assert.Contains(t, m.View(), "Configure openai")
	assert.Equal(t, "nomic-ai/nomic-embed-text-v1", w.SelectedModel().ModelName)

	// When: submitting a key
	m, msgs = press(t, m, "sk-test", "enter")
	m, _ = feed(m, msgs)

	// Then: credentials were stored and the model selected
	require.Len(t, port.configured, 1)
	assert.Equal(t, "openai", port.configured[0].ProviderType)
	assert.Equal(t, "sk-test", port.configured[0].APIKey)
	assert.False(t, m.form.open())
	assert.Equal(t, "text-embedding-3-large", w.SelectedModel().ModelName)
}

func TestWizardModel_RerankerCredentialSubflow(t *testing.T) {
	m, w := newWizardModel(settingsWith("nomic-ai/nomic-embed-text-v1"), &fakePort{})
	m, _ = press(t, m, "tab", "down")

	// When: choosing Cohere without a key
	m, _ = press(t, m, "enter")
	require.True(t, m.form.open())

	m, _ = press(t, m, "co-key", "enter")

	// Then: the choice carries the key
	assert.False(t, m.form.open())
	assert.Equal(t, domain.RerankCohere, w.Draft().Reranking.ProviderType)
	assert.Equal(t, "co-key", w.Draft().Reranking.APIKey)
}

func TestWizardModel_AdvancedOptions(t *testing.T) {
	m, w := newWizardModel(settingsWith("nomic-ai/nomic-embed-text-v1"), &fakePort{})
	m, _ = press(t, m, "3")
	require.Equal(t, wizard.StepAdvancedOptions, w.Step())

	m, _ = press(t, m, "enter", "es, FR ,", "enter", "down", " ")

	adv := w.Draft().Advanced
	assert.Equal(t, []string{"es", "fr"}, adv.MultilingualExpansion)
	assert.True(t, adv.MultipassIndexing)
	assert.True(t, w.NeedsReindex())
	assert.Contains(t, m.View(), "re-index")
}

func TestWizardModel_CommitRedirects(t *testing.T) {
	port := &fakePort{commitRes: service.CommitResult{SettingsApplied: true, Reindexing: true, Redirect: true}}
	m, _ := newWizardModel(settingsWith("nomic-ai/nomic-embed-text-v1"), port)

	m, msgs := press(t, m, "ctrl+s")
	assert.True(t, m.busy)
	m, out := feed(m, msgs)

	assert.Equal(t, 1, port.commits)
	assert.Equal(t, "nomic-ai/nomic-embed-text-v1", port.lastCommit.Embedding.ModelName)
	assert.False(t, m.busy)
	_, redirected := findMsg[redirectMsg](out)
	assert.True(t, redirected)
}

func TestWizardModel_CommitValidationShownInline(t *testing.T) {
	port := &fakePort{commitErr: &domain.ValidationError{Field: "num_rerank", Message: "must not be negative"}}
	m, _ := newWizardModel(settingsWith("nomic-ai/nomic-embed-text-v1"), port)

	m, msgs := press(t, m, "ctrl+s")
	m, _ = feed(m, msgs)

	assert.Contains(t, m.View(), "num_rerank: must not be negative")
}

func TestWizardModel_IgnoresKeysWhileBusy(t *testing.T) {
	m, w := newWizardModel(settingsWith("nomic-ai/nomic-embed-text-v1"), &fakePort{})
	m.busy = true

	m, _ = press(t, m, "tab")

	assert.Equal(t, wizard.StepSelectEmbedding, w.Step())
}

type staticBackend struct {
	pending *domain.SearchSettings
	jobs    []domain.ReindexJobStatus
}

func (s staticBackend) GetCurrentSearchSettings(context.Context) (*domain.SearchSettings, error) {
	cur := settingsWith("thenlper/gte-small")
	return &cur, nil
}

func (s staticBackend) GetSecondarySearchSettings(context.Context) (*domain.SearchSettings, error) {
	return s.pending, nil
}

func (s staticBackend) IndexingStatus(context.Context, bool) ([]domain.ReindexJobStatus, error) {
	return s.jobs, nil
}

func TestMonitorModel_RendersStatus(t *testing.T) {
	port := &fakePort{}
	mon := monitor.New(monitor.Config{Settings: staticBackend{}, Progress: staticBackend{}, Interval: time.Hour})
	m := NewMonitorModel(context.Background(), mon, port, notify.NewCenter(5, nil), NoColorStyles(), true)
	defer m.Stop()

	pending := settingsWith("thenlper/gte-small")
	next, _ := m.Update(statusMsg{mon: mon, status: monitor.Status{
		Active:  true,
		Pending: &pending,
		Jobs: []domain.ReindexJobStatus{
			{ConnectorID: 1, ConnectorName: "confluence", Status: domain.JobSuccess, DocsReindexed: 40},
			{ConnectorID: 2, ConnectorName: "github", Status: domain.JobInProgress, DocsReindexed: 12},
		},
	}})
	m = next.(MonitorModel)

	view := m.View()
	assert.Contains(t, view, "thenlper/gte-small")
	assert.Contains(t, view, "confluence")
	assert.Contains(t, view, "in_progress")
	assert.Contains(t, view, "1/2 connectors done")
}

func TestMonitorModel_CancelKey(t *testing.T) {
	port := &fakePort{}
	mon := monitor.New(monitor.Config{Settings: staticBackend{}, Progress: staticBackend{}, Interval: time.Hour})
	m := NewMonitorModel(context.Background(), mon, port, notify.NewCenter(5, nil), NoColorStyles(), true)
	defer m.Stop()

	next, cmd := m.Update(key("c"))
	m = next.(MonitorModel)
	assert.True(t, m.cancelling)
	assert.Contains(t, m.View(), "Cancelling")

	// A second press while cancelling is ignored.
	_, again := m.Update(key("c"))
	assert.Nil(t, again)

	msgs := collect(cmd)
	assert.Equal(t, 1, port.cancels)
	done, ok := findMsg[cancelDoneMsg](msgs)
	require.True(t, ok)
	next, cmd = m.Update(done)
	m = next.(MonitorModel)
	assert.False(t, m.cancelling)

	// A successful cancel ends monitoring without waiting for the next poll.
	assert.True(t, m.Finished())
	assert.Contains(t, m.View(), "No pending search settings")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestMonitorModel_CancelFailureKeepsPolling(t *testing.T) {
	// Given: a backend that refuses to cancel
	port := &fakePort{cancelErr: errors.New("boom")}
	mon := monitor.New(monitor.Config{Settings: staticBackend{}, Progress: staticBackend{}, Interval: time.Hour})
	m := NewMonitorModel(context.Background(), mon, port, notify.NewCenter(5, nil), NoColorStyles(), true)
	defer m.Stop()

	// When: the cancel key is pressed and the call fails
	next, cmd := m.Update(key("c"))
	m = next.(MonitorModel)
	done, ok := findMsg[cancelDoneMsg](collect(cmd))
	require.True(t, ok)
	next, cmd = m.Update(done)
	m = next.(MonitorModel)

	// Then: the monitor stays open and cancel can be retried
	assert.Nil(t, cmd)
	assert.False(t, m.Finished())
	assert.False(t, m.cancelling)
}

func TestMonitorModel_IgnoresStaleMonitor(t *testing.T) {
	mon := monitor.New(monitor.Config{Settings: staticBackend{}, Progress: staticBackend{}})
	other := monitor.New(monitor.Config{Settings: staticBackend{}, Progress: staticBackend{}})
	m := NewMonitorModel(context.Background(), mon, &fakePort{}, notify.NewCenter(5, nil), NoColorStyles(), true)
	defer m.Stop()

	next, cmd := m.Update(monitorStoppedMsg{mon: other})

	assert.Nil(t, cmd)
	assert.False(t, next.(MonitorModel).Finished())
}

func TestApp_RedirectRunsMonitorUntilSettingsClear(t *testing.T) {
	// Given: an app whose backend has no pending settings
	backend := staticBackend{}
	w := wizard.New(settingsWith("nomic-ai/nomic-embed-text-v1"), nil)
	w.SelectEmbeddingModel(domain.EmbeddingModel{ModelName: "thenlper/gte-small", Kind: domain.ProviderSelfHosted, Dimension: 384})
	app := NewApp(Deps{
		Wizard:   w,
		Settings: &fakePort{},
		Current:  backend.GetCurrentSearchSettings,
		NewMonitor: func() *monitor.Monitor {
			return monitor.New(monitor.Config{Settings: backend, Progress: backend, Interval: time.Hour})
		},
		Notes:  notify.NewCenter(5, nil),
		Styles: NoColorStyles(),
	})

	// When: a commit redirects
	next, cmd := app.Update(redirectMsg{})
	app = next.(App)
	require.Equal(t, screenMonitor, app.screen)

	// Then: the monitor stops on the first tick and the wizard is reloaded
	stopped, ok := findMsg[monitorStoppedMsg](collect(cmd))
	require.True(t, ok)
	require.NoError(t, stopped.err)

	next, cmd = app.Update(stopped)
	app = next.(App)
	assert.Equal(t, screenWizard, app.screen)

	loaded, ok := findMsg[currentLoadedMsg](collect(cmd))
	require.True(t, ok)
	next, _ = app.Update(loaded)
	app = next.(App)
	assert.Equal(t, "thenlper/gte-small", w.SelectedModel().ModelName)
	assert.False(t, w.NeedsReindex())
	assert.Contains(t, app.View(), "Search Settings")
}

func TestApp_BackLeavesMonitor(t *testing.T) {
	backend := staticBackend{pending: &domain.SearchSettings{}}
	w := wizard.New(settingsWith("nomic-ai/nomic-embed-text-v1"), nil)
	app := NewApp(Deps{
		Wizard:     w,
		Settings:   &fakePort{},
		Current:    func(context.Context) (*domain.SearchSettings, error) { return nil, errors.New("offline") },
		NewMonitor: func() *monitor.Monitor { return monitor.New(monitor.Config{Settings: backend, Progress: backend}) },
		Notes:      notify.NewCenter(5, nil),
		Styles:     NoColorStyles(),
	})
	next, _ := app.Update(redirectMsg{})
	app = next.(App)

	next, cmd := app.Update(key("esc"))
	app = next.(App)

	assert.Equal(t, screenWizard, app.screen)
	loaded, ok := findMsg[currentLoadedMsg](collect(cmd))
	require.True(t, ok)
	next, _ = app.Update(loaded)
	app = next.(App)
	assert.Contains(t, app.View(), "Failed to reload search settings")
}

func TestApp_CancelReturnsToWizard(t *testing.T) {
	// Given: an app monitoring a pending re-index
	backend := staticBackend{pending: &domain.SearchSettings{}}
	port := &fakePort{}
	w := wizard.New(settingsWith("nomic-ai/nomic-embed-text-v1"), nil)
	w.SelectEmbeddingModel(domain.EmbeddingModel{ModelName: "intfloat/e5-base-v2", Kind: domain.ProviderSelfHosted, Dimension: 768})
	app := NewApp(Deps{
		Wizard:   w,
		Settings: port,
		Current:  backend.GetCurrentSearchSettings,
		NewMonitor: func() *monitor.Monitor {
			return monitor.New(monitor.Config{Settings: backend, Progress: backend, Interval: time.Hour})
		},
		Notes:  notify.NewCenter(5, nil),
		Styles: NoColorStyles(),
	})
	next, _ := app.Update(redirectMsg{})
	app = next.(App)

	// When: the re-index is cancelled
	next, cmd := app.Update(key("c"))
	app = next.(App)
	done, ok := findMsg[cancelDoneMsg](collect(cmd))
	require.True(t, ok)
	require.Len(t, port.cancelWiz, 1)
	assert.Nil(t, port.cancelWiz[0])
	assert.Equal(t, "intfloat/e5-base-v2", w.SelectedModel().ModelName)

	next, cmd = app.Update(done)
	app = next.(App)

	// Then: the wizard screen returns and is reseeded on the update loop
	assert.Equal(t, screenWizard, app.screen)
	loaded, ok := findMsg[currentLoadedMsg](collect(cmd))
	require.True(t, ok)
	next, _ = app.Update(loaded)
	app = next.(App)
	assert.Equal(t, "thenlper/gte-small", w.SelectedModel().ModelName)
	assert.Contains(t, app.View(), "Search Settings")
}

type fakeSearcher struct {
	docs []domain.SearchDocument
	err  error
}

func (f fakeSearcher) Search(_ context.Context, _ string, topK int) ([]domain.SearchDocument, error) {
	if len(f.docs) > topK {
		return f.docs[:topK], f.err
	}
	return f.docs, f.err
}

func TestSearchModel_ShowsResults(t *testing.T) {
	s := NewSearchModel(context.Background(), fakeSearcher{docs: []domain.SearchDocument{
		{DocumentID: "1", SemanticIdentifier: "Onboarding guide", Blurb: "Welcome aboard. Reset your password in settings.", Score: 0.91},
		{DocumentID: "2", SemanticIdentifier: "Security policy", Blurb: "Passwords rotate yearly.", Score: 0.5},
	}}, 5, "model: nomic")
	next, _ := s.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	s = next.(SearchModel)

	for _, r := range "password" {
		next, _ = s.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		s = next.(SearchModel)
	}
	next, cmd := s.Update(key("enter"))
	s = next.(SearchModel)
	require.NotNil(t, cmd)
	next, _ = s.Update(cmd())
	s = next.(SearchModel)

	view := s.View()
	assert.Contains(t, view, "2 results")
	assert.Contains(t, view, "Onboarding guide")

	next, _ = s.Update(key("down"))
	s = next.(SearchModel)
	assert.Contains(t, s.View(), "Security policy")
}

func TestSearchModel_Error(t *testing.T) {
	s := NewSearchModel(context.Background(), fakeSearcher{err: errors.New("index offline")}, 5, "")
	next, _ := s.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	s = next.(SearchModel)

	next, _ = s.Update(searchResultMsg{query: "x", err: errors.New("index offline")})
	s = next.(SearchModel)

	assert.Contains(t, s.View(), "Error: index offline")
}

func TestHighlightBestSentence(t *testing.T) {
	text := "The cat sat. Dogs bark loudly at night. Birds sing."

	out := highlightBestSentence(text, "why do dogs bark")

	assert.Contains(t, out, "Dogs bark loudly at night.")
	assert.Contains(t, out, "The cat sat.")
	assert.Equal(t, 3, strings.Count(out, "."))
}

func TestTokenOverlapScore(t *testing.T) {
	q := toTokenSet("Reset Password")

	assert.Equal(t, 2, tokenOverlapScore(q, "To reset a password, reset it twice."))
	assert.Equal(t, 0, tokenOverlapScore(q, "Nothing relevant here."))
}

func TestParseLanguages(t *testing.T) {
	assert.Equal(t, []string{"es", "fr"}, parseLanguages(" ES, ,fr "))
	assert.Equal(t, []string{}, parseLanguages(""))
}

func TestRenderNotifications(t *testing.T) {
	c := notify.NewCenter(5, nil)
	c.Success("saved")
	c.Error("failed")

	out := renderNotifications(NoColorStyles(), c.Active())

	assert.Contains(t, out, "✓ saved")
	assert.Contains(t, out, "✗ failed")
}
