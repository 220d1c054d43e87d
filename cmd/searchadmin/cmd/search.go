package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"searchadmin/internal/tui"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search documents in the active index",
		Long: `Run a document search against the active index.

With a query argument the results are printed; without one an interactive
search screen opens.`,
		Annotations: map[string]string{annotationTUI: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if topK <= 0 {
				topK = opts.cfg.Search.TopK
			}
			query := strings.TrimSpace(strings.Join(args, " "))
			if query != "" {
				return runSearchOnce(cmd.Context(), cmd.OutOrStdout(), opts, query, topK)
			}
			return runSearchTUI(cmd.Context(), opts, topK)
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of results (default search.top_k from config)")

	return cmd
}

func runSearchOnce(ctx context.Context, out io.Writer, opts *rootOptions, query string, topK int) error {
	b, err := opts.backend()
	if err != nil {
		return err
	}
	docs, err := b.client.Search(ctx, query, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(docs) == 0 {
		_, err := fmt.Fprintf(out, "No results for %q.\n", query)
		return err
	}
	var sb strings.Builder
	for i, d := range docs {
		name := d.SemanticIdentifier
		if name == "" {
			name = d.DocumentID
		}
		fmt.Fprintf(&sb, "%d. [%.3f] %s", i+1, d.Score, name)
		if d.SourceType != "" {
			fmt.Fprintf(&sb, " (%s)", d.SourceType)
		}
		sb.WriteString("\n")
		if d.Link != "" {
			fmt.Fprintf(&sb, "   %s\n", d.Link)
		}
		if blurb := strings.Join(strings.Fields(d.Blurb), " "); blurb != "" {
			fmt.Fprintf(&sb, "   %s\n", blurb)
		}
	}
	_, err = io.WriteString(out, sb.String())
	return err
}

func runSearchTUI(ctx context.Context, opts *rootOptions, topK int) error {
	b, err := opts.backend()
	if err != nil {
		return err
	}
	header := "model: unknown"
	if current, err := b.current(ctx); err == nil && current.Embedding != nil {
		header = "model: " + current.Embedding.Identity()
	}
	m := tui.NewSearchModel(ctx, b.client, topK, header)
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	return nil
}
