package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"searchadmin/internal/monitor"
	"searchadmin/internal/tui"
)

func newMonitorCmd(opts *rootOptions) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Follow a pending re-index until it finishes",
		Long: `Poll the pending search settings and per-connector indexing progress
until the new index replaces the old one or the re-index is cancelled.

Output is interactive on a terminal and one line per update otherwise.`,
		Annotations: map[string]string{annotationTUI: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !plain {
				plain = !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd())
			}
			return runMonitor(cmd.Context(), cmd.OutOrStdout(), opts, plain)
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Print one line per update instead of the interactive view")

	return cmd
}

func runMonitor(ctx context.Context, out io.Writer, opts *rootOptions, plain bool) error {
	b, err := opts.backend()
	if err != nil {
		return err
	}
	pending, err := b.store.Secondary(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pending search settings: %w", err)
	}
	if pending == nil {
		_, err := fmt.Fprintln(out, "No re-index in progress.")
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	mon := b.newMonitor()
	if !plain {
		m := tui.NewMonitorModel(ctx, mon, b.service, b.notes, tui.GetStyles(), true)
		defer m.Stop()
		if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
			return fmt.Errorf("monitor: %w", err)
		}
		return nil
	}

	errc := make(chan error, 1)
	go func() { errc <- mon.Run(ctx) }()
	for s := range mon.Updates() {
		if _, err := fmt.Fprintln(out, formatStatusLine(s)); err != nil {
			stop()
		}
	}
	if err := <-errc; err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func formatStatusLine(s monitor.Status) string {
	ts := s.UpdatedAt.Format("15:04:05")
	if !s.Active {
		return ts + " no pending search settings: re-index finished or was cancelled"
	}
	if s.Err != nil {
		return ts + " poll failed: " + s.Err.Error()
	}
	target := "pending settings"
	if s.Pending != nil && s.Pending.Embedding != nil {
		target = s.Pending.Embedding.Identity()
	}
	return fmt.Sprintf("%s re-indexing to %s: %s", ts, target, formatSummary(s.Summary()))
}

func formatSummary(sum monitor.Summary) string {
	return fmt.Sprintf("%d/%d connectors done, %d failed, %d docs", sum.Succeeded+sum.Failed, sum.Total, sum.Failed, sum.Docs)
}
