package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"searchadmin/internal/domain"
	"searchadmin/internal/monitor"
)

// statusReport is the --json shape of the status command. API keys are redacted.
type statusReport struct {
	Current *domain.SearchSettings    `json:"current"`
	Pending *domain.SearchSettings    `json:"pending"`
	Jobs    []domain.ReindexJobStatus `json:"jobs,omitempty"`
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show current and pending search settings",
		Long: `Display the active search settings and, when a re-index is pending,
the settings being indexed and per-connector progress.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := loadStatus(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return printStatus(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// loadStatus fetches current settings, pending settings and secondary-index
// progress concurrently.
func loadStatus(ctx context.Context, opts *rootOptions) (statusReport, error) {
	b, err := opts.backend()
	if err != nil {
		return statusReport{}, err
	}

	var report statusReport
	var jobs []domain.ReindexJobStatus
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := b.store.Current(gctx)
		if err != nil {
			return fmt.Errorf("failed to load current search settings: %w", err)
		}
		report.Current = redact(s)
		return nil
	})
	g.Go(func() error {
		s, err := b.store.Secondary(gctx)
		if err != nil {
			return fmt.Errorf("failed to load pending search settings: %w", err)
		}
		report.Pending = redact(s)
		return nil
	})
	g.Go(func() error {
		var err error
		jobs, err = b.client.IndexingStatus(gctx, true)
		if err != nil {
			return fmt.Errorf("failed to load indexing status: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return statusReport{}, err
	}

	// Older backends omit the model from the settings document.
	if err := fillModel(ctx, report.Current, b.client.GetCurrentEmbeddingModel); err != nil {
		return statusReport{}, fmt.Errorf("failed to load current embedding model: %w", err)
	}
	if err := fillModel(ctx, report.Pending, b.client.GetSecondaryEmbeddingModel); err != nil {
		return statusReport{}, fmt.Errorf("failed to load pending embedding model: %w", err)
	}
	if report.Pending != nil {
		report.Jobs = jobs
	}
	return report, nil
}

func fillModel(ctx context.Context, s *domain.SearchSettings, get func(context.Context) (*domain.EmbeddingModel, error)) error {
	if s == nil || s.Embedding != nil {
		return nil
	}
	m, err := get(ctx)
	if err != nil {
		return err
	}
	s.Embedding = m
	return nil
}

func redact(s *domain.SearchSettings) *domain.SearchSettings {
	if s == nil {
		return nil
	}
	out := s.Clone()
	if out.Reranking.APIKey != "" {
		out.Reranking.APIKey = "********"
	}
	return &out
}

func printStatus(w io.Writer, r statusReport) error {
	var b strings.Builder
	b.WriteString("Current search settings\n")
	writeSettings(&b, r.Current)
	if r.Pending == nil {
		b.WriteString("\nNo re-index in progress.\n")
	} else {
		b.WriteString("\nPending re-index\n")
		writeSettings(&b, r.Pending)
		fmt.Fprintf(&b, "  %-18s %s\n", "Progress:", formatSummary(monitor.Status{Jobs: r.Jobs}.Summary()))
		for _, j := range r.Jobs {
			fmt.Fprintf(&b, "    %-30s %-12s %d docs\n", j.ConnectorName, j.Status, j.DocsReindexed)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeSettings(b *strings.Builder, s *domain.SearchSettings) {
	if s == nil {
		b.WriteString("  none\n")
		return
	}
	row := func(label, value string) { fmt.Fprintf(b, "  %-18s %s\n", label+":", value) }

	if m := s.Embedding; m != nil {
		kind := "self-hosted"
		if m.Kind == domain.ProviderCloud {
			kind = m.ProviderName
		}
		row("Embedding model", fmt.Sprintf("%s (%s, %d dims)", m.ModelName, kind, m.Dimension))
	} else {
		row("Embedding model", "none")
	}

	rr := "none"
	if s.Reranking.Enabled() {
		rr = s.Reranking.ModelName
		if s.Reranking.ProviderType != domain.RerankNone {
			rr = string(s.Reranking.ProviderType) + "/" + rr
		}
		rr += fmt.Sprintf(" (top %d)", s.Reranking.NumRerank)
	}
	row("Reranking", rr)

	langs := "none"
	if len(s.Advanced.MultilingualExpansion) > 0 {
		langs = strings.Join(s.Advanced.MultilingualExpansion, ", ")
	}
	row("Multilingual", langs)
	row("Multipass", onOff(s.Advanced.MultipassIndexing))
	row("Stream reranking", onOff(!s.Advanced.DisableRerankForStreaming))
	if s.IndexName != "" {
		row("Index", s.IndexName)
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
