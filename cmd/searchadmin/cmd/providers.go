package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"searchadmin/internal/domain"
)

func newProvidersCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Manage cloud embedding provider credentials",
	}

	cmd.AddCommand(newProvidersListCmd(opts))
	cmd.AddCommand(newProvidersSetCmd(opts))
	cmd.AddCommand(newProvidersDeleteCmd(opts))
	cmd.AddCommand(newProvidersTestCmd(opts))

	return cmd
}

func newProvidersListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List providers with stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := opts.backend()
			if err != nil {
				return err
			}
			providers, err := b.client.ListEmbeddingProviders(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list embedding providers: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(providers) == 0 {
				_, err := fmt.Fprintln(out, "No embedding providers configured.")
				return err
			}
			for _, p := range providers {
				var has []string
				if p.APIKey != "" {
					has = append(has, "api key")
				}
				if p.APIURL != "" {
					has = append(has, "url "+p.APIURL)
				}
				if len(has) == 0 {
					has = append(has, "no credentials")
				}
				if _, err := fmt.Fprintf(out, "%-10s %s\n", p.ProviderType, strings.Join(has, ", ")); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// credentialFlags are shared by set and test.
type credentialFlags struct {
	apiKey    string
	apiKeyEnv string
	apiURL    string
}

func (f *credentialFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "Provider API key")
	cmd.Flags().StringVar(&f.apiKeyEnv, "api-key-env", "", "Read the API key from this environment variable")
	cmd.Flags().StringVar(&f.apiURL, "api-url", "", "Provider API URL")
}

func (f *credentialFlags) provider(name string) (domain.EmbeddingProvider, error) {
	key := f.apiKey
	if key == "" && f.apiKeyEnv != "" {
		key = os.Getenv(f.apiKeyEnv)
		if key == "" {
			return domain.EmbeddingProvider{}, fmt.Errorf("environment variable %s is empty", f.apiKeyEnv)
		}
	}
	if key == "" && f.apiURL == "" {
		return domain.EmbeddingProvider{}, errors.New("one of --api-key, --api-key-env or --api-url is required")
	}
	return domain.EmbeddingProvider{ProviderType: strings.ToLower(name), APIKey: key, APIURL: f.apiURL}, nil
}

func newProvidersSetCmd(opts *rootOptions) *cobra.Command {
	var flags credentialFlags

	cmd := &cobra.Command{
		Use:   "set <provider>",
		Short: "Test and store credentials for a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := flags.provider(args[0])
			if err != nil {
				return err
			}
			b, err := opts.backend()
			if err != nil {
				return err
			}
			if err := b.service.ConfigureProvider(cmd.Context(), p); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Configured %s.\n", p.ProviderType)
			return err
		},
	}
	flags.register(cmd)

	return cmd
}

func newProvidersTestCmd(opts *rootOptions) *cobra.Command {
	var flags credentialFlags

	cmd := &cobra.Command{
		Use:   "test <provider>",
		Short: "Check credentials against the provider without storing them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := flags.provider(args[0])
			if err != nil {
				return err
			}
			b, err := opts.backend()
			if err != nil {
				return err
			}
			if err := b.client.TestEmbeddingProvider(cmd.Context(), p); err != nil {
				return fmt.Errorf("credentials for %s were rejected: %w", p.ProviderType, err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Credentials for %s work.\n", p.ProviderType)
			return err
		},
	}
	flags.register(cmd)

	return cmd
}

func newProvidersDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <provider>",
		Short: "Remove stored credentials for a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.backend()
			if err != nil {
				return err
			}
			name := strings.ToLower(args[0])
			if err := b.client.DeleteEmbeddingProvider(cmd.Context(), name); err != nil {
				return fmt.Errorf("failed to delete provider %s: %w", name, err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", name)
			return err
		},
	}
}
