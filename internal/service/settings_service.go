// Package service commits wizard drafts to the backend and manages provider
// credentials, reporting every outcome through a notifier.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"searchadmin/internal/api"
	"searchadmin/internal/domain"
	"searchadmin/internal/notify"
	"searchadmin/internal/settings"
	"searchadmin/internal/wizard"
)

// ErrNoModelForReindex is returned when a re-index is needed but the draft
// has no embedding model to index with.
var ErrNoModelForReindex = errors.New("re-indexing requires an embedding model")

// CommitResult describes what a commit did.
type CommitResult struct {
	// SettingsApplied is true once update-search-settings succeeded.
	SettingsApplied bool

	// Reindexing is true once the backend accepted the new embedding model.
	Reindexing bool

	// Redirect asks the caller to switch to the progress monitor.
	Redirect bool
}

// SettingsService applies drafts in two phases: reranking and advanced options
// first, then the embedding model when a re-index is needed. The first phase
// is never rolled back if the second fails.
type SettingsService struct {
	writer    domain.SettingsWriter
	providers domain.ProviderRegistry
	store     *settings.Store
	notifier  notify.Notifier
	logger    *slog.Logger
}

// NewSettingsService wires the service. providers may be nil when the
// credential sub-flow is not used.
func NewSettingsService(writer domain.SettingsWriter, providers domain.ProviderRegistry, store *settings.Store, notifier notify.Notifier, logger *slog.Logger) *SettingsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsService{writer: writer, providers: providers, store: store, notifier: notifier, logger: logger}
}

// Commit validates the wizard's draft and sends it to the backend.
// Validation errors are returned without any network call or notification.
func (s *SettingsService) Commit(ctx context.Context, w *wizard.Wizard) (CommitResult, error) {
	var res CommitResult
	draft := w.Draft()
	if err := draft.Validate(); err != nil {
		return res, err
	}

	reindex := w.NeedsReindex()
	if reindex && draft.Embedding == nil {
		return res, ErrNoModelForReindex
	}

	if err := s.writer.UpdateSearchSettings(ctx, draft.Update()); err != nil {
		s.notifier.Notify(notify.LevelError, "Failed to update search settings: "+api.Message(err))
		return res, fmt.Errorf("update search settings: %w", err)
	}
	res.SettingsApplied = true
	s.store.Invalidate(settings.KeyCurrent)
	s.logger.Info("search settings updated", slog.Bool("reindex", reindex))

	if !reindex {
		s.notifier.Notify(notify.LevelSuccess, "Updated search settings")
		w.Rebase(draft)
		return res, nil
	}

	model := *draft.Embedding
	if err := s.writer.SetNewEmbeddingModel(ctx, model); err != nil {
		s.notifier.Notify(notify.LevelError, fmt.Sprintf(
			"Search settings were updated but re-indexing with %s failed to start: %s",
			model.ModelName, api.Message(err)))
		return res, fmt.Errorf("set new embedding model: %w", err)
	}

	res.Reindexing = true
	res.Redirect = true
	s.store.InvalidateAll()
	s.notifier.Notify(notify.LevelSuccess, fmt.Sprintf("Re-indexing started with %s", model.ModelName))
	s.logger.Info("re-index started", slog.String("model", model.Identity()))
	return res, nil
}

// CancelReindex asks the backend to drop the pending settings. On success the
// caches are dropped and the wizard draft is reseeded from fresh current
// settings; on failure monitoring should continue.
func (s *SettingsService) CancelReindex(ctx context.Context, w *wizard.Wizard) error {
	if err := s.writer.CancelNewEmbedding(ctx); err != nil {
		s.notifier.Notify(notify.LevelError, "Failed to cancel re-indexing: "+api.Message(err))
		return fmt.Errorf("cancel new embedding: %w", err)
	}
	s.store.InvalidateAll()
	s.notifier.Notify(notify.LevelSuccess, "Cancelled re-indexing")
	s.logger.Info("re-index cancelled")

	if w == nil {
		return nil
	}
	current, err := s.store.Current(ctx)
	if err != nil {
		s.logger.Warn("reload current settings after cancel", slog.String("error", err.Error()))
		return nil
	}
	if current != nil {
		w.Reset(*current)
	}
	return nil
}

// ConfigureProvider stores credentials for an embedding provider after
// checking them against the backend's test endpoint.
func (s *SettingsService) ConfigureProvider(ctx context.Context, p domain.EmbeddingProvider) error {
	if s.providers == nil {
		return errors.New("provider registry not configured")
	}
	name := strings.ToLower(p.ProviderType)
	if err := s.providers.TestEmbeddingProvider(ctx, p); err != nil {
		s.notifier.Notify(notify.LevelError, fmt.Sprintf("Invalid %s credentials: %s", name, api.Message(err)))
		return fmt.Errorf("test %s credentials: %w", name, err)
	}
	if err := s.providers.UpsertEmbeddingProvider(ctx, p); err != nil {
		s.notifier.Notify(notify.LevelError, fmt.Sprintf("Failed to save %s credentials: %s", name, api.Message(err)))
		return fmt.Errorf("save %s credentials: %w", name, err)
	}
	s.notifier.Notify(notify.LevelSuccess, fmt.Sprintf("Configured %s", name))
	return nil
}

// ProviderReady reports whether the model can be used without first running
// the credential sub-flow.
func (s *SettingsService) ProviderReady(ctx context.Context, m domain.EmbeddingModel) (bool, error) {
	if m.Kind != domain.ProviderCloud {
		return true, nil
	}
	if s.providers == nil {
		return false, errors.New("provider registry not configured")
	}
	list, err := s.providers.ListEmbeddingProviders(ctx)
	if err != nil {
		return false, fmt.Errorf("list embedding providers: %w", err)
	}
	return api.ProviderConfigured(list, m.ProviderName), nil
}
