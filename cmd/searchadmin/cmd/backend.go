package cmd

import (
	"context"
	"fmt"

	"searchadmin/internal/api"
	"searchadmin/internal/domain"
	"searchadmin/internal/monitor"
	"searchadmin/internal/notify"
	"searchadmin/internal/service"
	"searchadmin/internal/settings"
	"searchadmin/internal/wizard"
)

// backend assembles the components every command talks to.
type backend struct {
	client  *api.Client
	store   *settings.Store
	notes   *notify.Center
	service *service.SettingsService
	opts    *rootOptions
}

func (o *rootOptions) backend() (*backend, error) {
	client, err := api.NewClient(api.Config{
		BaseURL:   o.cfg.Server.BaseURL,
		APIKey:    o.cfg.APIKey(),
		Timeout:   o.cfg.Timeout(),
		UserAgent: "searchadmin/" + Version,
		Logger:    o.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	store := settings.NewStore(client, o.cfg.CacheTTL(), o.logger)
	notes := notify.NewCenter(5, o.logger)
	return &backend{
		client:  client,
		store:   store,
		notes:   notes,
		service: service.NewSettingsService(client, client, store, notes, o.logger),
		opts:    o,
	}, nil
}

func (b *backend) newMonitor() *monitor.Monitor {
	return monitor.New(monitor.Config{
		Settings: b.client,
		Progress: b.client,
		Store:    b.store,
		Interval: b.opts.cfg.PollInterval(),
		Logger:   b.opts.logger,
	})
}

// current returns the active settings; a backend with none yet yields an empty snapshot.
func (b *backend) current(ctx context.Context) (domain.SearchSettings, error) {
	s, err := b.store.Current(ctx)
	if err != nil {
		return domain.SearchSettings{}, fmt.Errorf("failed to load current search settings: %w", err)
	}
	if s == nil {
		return domain.SearchSettings{}, nil
	}
	return *s, nil
}

func (b *backend) newWizard(current domain.SearchSettings) *wizard.Wizard {
	return wizard.New(current, wizard.MarkerCheck(b.opts.cfg.Wizard.LowQualityMarkers))
}
