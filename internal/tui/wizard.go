package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"searchadmin/internal/domain"
	"searchadmin/internal/notify"
	"searchadmin/internal/service"
	"searchadmin/internal/wizard"
)

// SettingsPort is the TUI-facing subset of the settings service.
type SettingsPort interface {
	Commit(ctx context.Context, w *wizard.Wizard) (service.CommitResult, error)
	CancelReindex(ctx context.Context, w *wizard.Wizard) error
	ConfigureProvider(ctx context.Context, p domain.EmbeddingProvider) error
	ProviderReady(ctx context.Context, m domain.EmbeddingModel) (bool, error)
}

type providerReadyMsg struct {
	model domain.EmbeddingModel
	ready bool
	err   error
}

type providerConfiguredMsg struct {
	model domain.EmbeddingModel
	err   error
}

type commitDoneMsg struct {
	res service.CommitResult
	err error
}

// redirectMsg asks the app to show the re-index monitor.
type redirectMsg struct{}

type formKind int

const (
	formNone formKind = iota
	formEmbeddingProvider
	formReranker
)

// credentialForm collects provider credentials before a choice is applied.
type credentialForm struct {
	kind   formKind
	title  string
	labels []string
	fields []textinput.Model
	focus  int
	model  domain.EmbeddingModel
	rerank wizard.RerankOption
}

func (f credentialForm) open() bool { return f.kind != formNone }

func (f credentialForm) value(i int) string { return strings.TrimSpace(f.fields[i].Value()) }

func newField(placeholder string, secret bool) textinput.Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = placeholder
	ti.CharLimit = 0
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return ti
}

func embeddingProviderForm(m domain.EmbeddingModel) credentialForm {
	f := credentialForm{
		kind:   formEmbeddingProvider,
		title:  fmt.Sprintf("Configure %s", m.ProviderName),
		labels: []string{"API key"},
		fields: []textinput.Model{newField("API key", true)},
		model:  m,
	}
	f.fields[0].Focus()
	return f
}

func rerankerForm(opt wizard.RerankOption) credentialForm {
	f := credentialForm{kind: formReranker, title: "Configure " + opt.Label, rerank: opt}
	switch opt.Provider {
	case domain.RerankLiteLLM:
		f.labels = []string{"Proxy URL", "Model name", "API key (optional)"}
		f.fields = []textinput.Model{newField("https://litellm.example.com/rerank", false), newField("model", false), newField("API key", true)}
	default:
		f.labels = []string{"API key"}
		f.fields = []textinput.Model{newField("API key", true)}
	}
	f.fields[0].Focus()
	return f
}

// advanced step rows
const (
	rowLanguages = iota
	rowMultipass
	rowDisableRerankStreaming
	advancedRows
)

// WizardModel is the Bubble Tea model for the three-step settings wizard.
type WizardModel struct {
	ctx     context.Context
	wiz     *wizard.Wizard
	port    SettingsPort
	notes   *notify.Center
	styles  Styles
	spinner spinner.Model

	models  []domain.EmbeddingModel
	cursors [3]int
	form    credentialForm

	langs        textinput.Model
	editingLangs bool

	busy   bool
	inline string
	width  int
}

// NewWizardModel creates the wizard screen.
func NewWizardModel(ctx context.Context, wiz *wizard.Wizard, port SettingsPort, notes *notify.Center, styles Styles) WizardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime))

	langs := textinput.New()
	langs.Prompt = "> "
	langs.Placeholder = "es, fr, de"
	langs.CharLimit = 0

	m := WizardModel{
		ctx:     ctx,
		wiz:     wiz,
		port:    port,
		notes:   notes,
		styles:  styles,
		spinner: s,
		models:  wizard.AllModels(),
		langs:   langs,
		width:   80,
	}
	m.cursors[wizard.StepSelectEmbedding] = m.selectedModelIndex()
	return m
}

func (m WizardModel) selectedModelIndex() int {
	sel := m.wiz.SelectedModel()
	for i := range m.models {
		if domain.SameModel(sel, &m.models[i]) {
			return i
		}
	}
	return 0
}

// Init starts the spinner.
func (m WizardModel) Init() tea.Cmd { return m.spinner.Tick }

// Update handles keys and async results.
func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case providerReadyMsg:
		m.busy = false
		switch {
		case msg.err != nil:
			m.inline = msg.err.Error()
		case msg.ready:
			m.wiz.SelectEmbeddingModel(msg.model)
		default:
			m.form = embeddingProviderForm(msg.model)
		}
		return m, nil

	case providerConfiguredMsg:
		m.busy = false
		if msg.err == nil {
			m.form = credentialForm{}
			m.wiz.SelectEmbeddingModel(msg.model)
		}
		return m, nil

	case commitDoneMsg:
		m.busy = false
		var verr *domain.ValidationError
		if errors.As(msg.err, &verr) || errors.Is(msg.err, service.ErrNoModelForReindex) {
			m.inline = msg.err.Error()
		}
		if msg.res.Redirect {
			return m, func() tea.Msg { return redirectMsg{} }
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		switch {
		case m.form.open():
			return m.updateForm(msg)
		case m.wiz.PromptOpen():
			return m.updatePrompt(msg), nil
		case m.editingLangs:
			return m.updateLanguages(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m WizardModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	step := m.wiz.Step()
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursors[step] > 0 {
			m.cursors[step]--
		}
	case "down", "j":
		if m.cursors[step] < m.rows(step)-1 {
			m.cursors[step]++
		}
	case "enter", " ":
		return m.choose()
	case "tab", "right":
		m.inline = ""
		if err := m.wiz.Advance(); err != nil {
			m.inline = err.Error()
		}
	case "shift+tab", "left":
		m.inline = ""
		m.wiz.Retreat()
	case "1", "2", "3":
		m.wiz.JumpTo(wizard.Step(msg.String()[0] - '1'))
	case "x":
		if n, ok := m.notes.Latest(); ok {
			m.notes.Dismiss(n.ID)
		}
	case "ctrl+s":
		m.inline = ""
		m.busy = true
		ctx, wiz, port := m.ctx, m.wiz, m.port
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			res, err := port.Commit(ctx, wiz)
			return commitDoneMsg{res: res, err: err}
		})
	}
	return m, nil
}

func (m WizardModel) rows(step wizard.Step) int {
	switch step {
	case wizard.StepSelectEmbedding:
		return len(m.models)
	case wizard.StepSelectReranking:
		return len(wizard.RerankOptions)
	default:
		return advancedRows
	}
}

// choose applies the row under the cursor on the current step.
func (m WizardModel) choose() (tea.Model, tea.Cmd) {
	m.inline = ""
	step := m.wiz.Step()
	cursor := m.cursors[step]
	switch step {
	case wizard.StepSelectEmbedding:
		model := m.models[cursor]
		if model.Kind != domain.ProviderCloud {
			m.wiz.SelectEmbeddingModel(model)
			return m, nil
		}
		m.busy = true
		ctx, port := m.ctx, m.port
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			ready, err := port.ProviderReady(ctx, model)
			return providerReadyMsg{model: model, ready: ready, err: err}
		})

	case wizard.StepSelectReranking:
		opt := wizard.RerankOptions[cursor]
		if err := m.wiz.SelectReranking(opt.Choice("", "")); err != nil {
			if errors.Is(err, wizard.ErrRerankCredentialsRequired) {
				m.form = rerankerForm(opt)
				return m, textinput.Blink
			}
			m.inline = err.Error()
		}
		return m, nil

	default:
		adv := m.wiz.Draft().Advanced
		switch cursor {
		case rowLanguages:
			m.editingLangs = true
			m.langs.SetValue(strings.Join(adv.MultilingualExpansion, ", "))
			return m, m.langs.Focus()
		case rowMultipass:
			v := !adv.MultipassIndexing
			m.wiz.UpdateAdvancedOptions(domain.AdvancedOptionsPatch{MultipassIndexing: &v})
		case rowDisableRerankStreaming:
			v := !adv.DisableRerankForStreaming
			m.wiz.UpdateAdvancedOptions(domain.AdvancedOptionsPatch{DisableRerankForStreaming: &v})
		}
		return m, nil
	}
}

func (m WizardModel) updatePrompt(msg tea.KeyMsg) WizardModel {
	switch msg.String() {
	case "y", "enter":
		m.wiz.Confirm(true)
	case "n", "esc":
		m.wiz.Confirm(false)
	}
	return m
}

func (m WizardModel) updateLanguages(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editingLangs = false
		m.langs.Blur()
		return m, nil
	case tea.KeyEnter:
		langs := parseLanguages(m.langs.Value())
		m.wiz.UpdateAdvancedOptions(domain.AdvancedOptionsPatch{MultilingualExpansion: &langs})
		m.editingLangs = false
		m.langs.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.langs, cmd = m.langs.Update(msg)
	return m, cmd
}

func parseLanguages(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

func (m WizardModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.form = credentialForm{}
		return m, nil
	case tea.KeyTab, tea.KeyShiftTab:
		m.form.fields[m.form.focus].Blur()
		delta := 1
		if msg.Type == tea.KeyShiftTab {
			delta = len(m.form.fields) - 1
		}
		m.form.focus = (m.form.focus + delta) % len(m.form.fields)
		return m, m.form.fields[m.form.focus].Focus()
	case tea.KeyEnter:
		if m.form.focus < len(m.form.fields)-1 {
			m.form.fields[m.form.focus].Blur()
			m.form.focus++
			return m, m.form.fields[m.form.focus].Focus()
		}
		return m.submitForm()
	}
	var cmd tea.Cmd
	m.form.fields[m.form.focus], cmd = m.form.fields[m.form.focus].Update(msg)
	return m, cmd
}

func (m WizardModel) submitForm() (tea.Model, tea.Cmd) {
	m.inline = ""
	switch m.form.kind {
	case formEmbeddingProvider:
		key := m.form.value(0)
		if key == "" {
			m.inline = "api key: required"
			return m, nil
		}
		m.busy = true
		ctx, port, model := m.ctx, m.port, m.form.model
		p := domain.EmbeddingProvider{ProviderType: model.ProviderName, APIKey: key}
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			return providerConfiguredMsg{model: model, err: port.ConfigureProvider(ctx, p)}
		})

	case formReranker:
		opt := m.form.rerank
		var choice domain.RerankingChoice
		if opt.Provider == domain.RerankLiteLLM {
			opt.Model = m.form.value(1)
			choice = opt.Choice(m.form.value(2), m.form.value(0))
		} else {
			choice = opt.Choice(m.form.value(0), "")
		}
		if err := choice.Validate(); err != nil {
			m.inline = err.Error()
			return m, nil
		}
		if err := m.wiz.SelectReranking(choice); err != nil {
			m.inline = err.Error()
			return m, nil
		}
		m.form = credentialForm{}
	}
	return m, nil
}

// View renders the current step.
func (m WizardModel) View() string {
	var sections []string
	sections = append(sections, m.styles.Header.Render("Search Settings"))
	sections = append(sections, m.renderSteps())
	sections = append(sections, m.styles.Panel.Render(m.renderBody()))

	switch {
	case m.form.open():
		sections = append(sections, m.styles.Prompt.Render(m.renderForm()))
	case m.wiz.PromptOpen():
		sections = append(sections, m.styles.Prompt.Render(m.renderPrompt()))
	}

	if m.inline != "" {
		sections = append(sections, m.styles.Error.Render(m.inline))
	}
	if n := renderNotifications(m.styles, m.notes.Active()); n != "" {
		sections = append(sections, n)
	}
	sections = append(sections, m.renderStatusBar())
	return strings.Join(sections, "\n")
}

func (m WizardModel) renderSteps() string {
	current := m.wiz.Step()
	var parts []string
	for _, s := range wizard.Steps() {
		var icon string
		var style lipgloss.Style
		switch {
		case s < current:
			icon, style = "●", m.styles.Success
		case s == current:
			icon, style = "◉", m.styles.Active
		default:
			icon, style = "○", m.styles.Dim
		}
		parts = append(parts, style.Render(fmt.Sprintf("%s %d %s", icon, int(s)+1, s)))
	}
	return strings.Join(parts, m.styles.Dim.Render(" → "))
}

func (m WizardModel) renderBody() string {
	step := m.wiz.Step()
	cursor := m.cursors[step]
	draft := m.wiz.Draft()
	var b strings.Builder

	switch step {
	case wizard.StepSelectEmbedding:
		b.WriteString(m.styles.Label.Render("Choose the embedding model used to index documents.") + "\n\n")
		for i, model := range m.models {
			marker := "  "
			if domain.SameModel(draft.Embedding, &model) {
				marker = m.styles.Success.Render("✓ ")
			}
			line := fmt.Sprintf("%s (%d dims)", model.Identity(), model.Dimension)
			b.WriteString(m.row(i == cursor, marker+line) + "\n")
		}
		if cursor < len(m.models) && m.models[cursor].Description != "" {
			b.WriteString("\n" + m.styles.Dim.Render(m.models[cursor].Description))
		}

	case wizard.StepSelectReranking:
		b.WriteString(m.styles.Label.Render("Choose how results are reranked after retrieval.") + "\n\n")
		for i, opt := range wizard.RerankOptions {
			marker := "  "
			if draft.Reranking.ProviderType == opt.Provider && (opt.Model == "" || draft.Reranking.ModelName == opt.Model) {
				marker = m.styles.Success.Render("✓ ")
			}
			b.WriteString(m.row(i == cursor, marker+opt.Label) + "\n")
		}

	default:
		adv := draft.Advanced
		langs := strings.Join(adv.MultilingualExpansion, ", ")
		if langs == "" {
			langs = "none"
		}
		if m.editingLangs {
			langs = m.langs.View()
		}
		rows := []string{
			"Multilingual expansion: " + langs,
			"Multipass indexing: " + onOff(adv.MultipassIndexing),
			"Disable reranking for streaming: " + onOff(adv.DisableRerankForStreaming),
		}
		for i, r := range rows {
			b.WriteString(m.row(i == cursor, r) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m WizardModel) row(selected bool, text string) string {
	if selected {
		return m.styles.Selected.Render("› " + text)
	}
	return "  " + text
}

func (m WizardModel) renderPrompt() string {
	name := ""
	if sel := m.wiz.SelectedModel(); sel != nil {
		name = sel.ModelName
	}
	return m.styles.Warning.Render(fmt.Sprintf("%s is an older model with lower retrieval quality.", name)) +
		"\nContinue with it anyway? (y/n)"
}

func (m WizardModel) renderForm() string {
	lines := []string{m.styles.Header.Render(m.form.title)}
	for i, f := range m.form.fields {
		lines = append(lines, m.styles.Label.Render(m.form.labels[i]), f.View())
	}
	lines = append(lines, m.styles.Dim.Render("enter: next/save • tab: switch field • esc: cancel"))
	return strings.Join(lines, "\n")
}

func (m WizardModel) renderStatusBar() string {
	if m.busy {
		return m.spinner.View() + " Working..."
	}
	action := "ctrl+s: update search settings"
	if m.wiz.NeedsReindex() {
		action = m.styles.Warning.Render("ctrl+s: re-index")
	}
	help := "↑/↓: move • enter: select • tab/←: step • 1-3: jump • x: dismiss • q: quit"
	return m.styles.Dim.Render(help) + "  " + action
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
