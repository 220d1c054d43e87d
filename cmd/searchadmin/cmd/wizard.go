package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"searchadmin/internal/domain"
	"searchadmin/internal/tui"
)

func newWizardCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "wizard",
		Short: "Choose embedding model, reranking and indexing options",
		Long: `Open the interactive search settings wizard.

Steps:
  1. Embedding model (self-hosted or cloud)
  2. Reranking
  3. Advanced options

Committing a new model or toggling multipass indexing starts a background
re-index; the wizard then switches to the progress monitor. If a re-index is
already pending the monitor opens first.`,
		Annotations: map[string]string{annotationTUI: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWizard(cmd.Context(), opts)
		},
	}
}

func runWizard(ctx context.Context, opts *rootOptions) error {
	b, err := opts.backend()
	if err != nil {
		return err
	}
	current, err := b.current(ctx)
	if err != nil {
		return err
	}
	pending, err := b.store.Secondary(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pending search settings: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app := tui.NewApp(tui.Deps{
		Ctx:      ctx,
		Wizard:   b.newWizard(current),
		Settings: b.service,
		Current: func(ctx context.Context) (*domain.SearchSettings, error) {
			return b.store.Current(ctx)
		},
		NewMonitor:     b.newMonitor,
		Notes:          b.notes,
		Styles:         tui.GetStyles(),
		StartInMonitor: pending != nil,
	})
	if _, err := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("wizard: %w", err)
	}
	return nil
}
