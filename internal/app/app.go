// Package app wires configuration into the imagery service and its adapters.
package app

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/i474232898/landsat-dashboard/internal/config"
	"github.com/i474232898/landsat-dashboard/internal/imagery"
	"github.com/i474232898/landsat-dashboard/internal/imagery/providers"
	"github.com/i474232898/landsat-dashboard/internal/notify"
	"github.com/i474232898/landsat-dashboard/internal/render"
	"github.com/i474232898/landsat-dashboard/internal/store"
)

// App holds the long-lived components shared by the server and the CLI.
type App struct {
	Config   *config.AppConfig
	Service  *imagery.Service
	Sessions *store.SessionStore

	closers []func() error
}

// Build constructs every component described by cfg.
func Build(cfg *config.AppConfig) (*App, error) {
	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	a := &App{
		Config:   cfg,
		Sessions: store.NewSessionStore(),
	}

	nasa := providers.NewNASAProvider(httpClient, providers.NASAConfig{
		BaseURL:    cfg.NASABaseURL,
		APIKey:     cfg.NASAAPIKey,
		Dim:        cfg.ImageryDim,
		MaxRetries: cfg.ImageryRetries,
	})

	geocoders := []imagery.Geocoder{
		providers.NewNominatimProvider(httpClient, cfg.NominatimBaseURL, cfg.NominatimUserAgent),
	}
	if cfg.GoogleGeocoderAPIKey != "" {
		geocoders = append(geocoders, providers.NewGoogleGeocoderProvider(cfg.GoogleGeocoderAPIKey))
	}

	images, err := providers.NewImageDownloader(httpClient, cfg.ImageCacheSize)
	if err != nil {
		return nil, err
	}

	renderer, err := render.New(render.Options{
		Dir:      cfg.ArtifactDir,
		Width:    cfg.FrameWidth,
		Height:   cfg.FrameHeight,
		Delay:    cfg.FrameDelay,
		FontPath: cfg.FontPath,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, renderer.Close)

	format, err := imagery.ParseFormat(cfg.AnimationFormat, imagery.FormatGIF)
	if err != nil {
		return nil, fmt.Errorf("invalid ANIMATION_FORMAT: %w", err)
	}

	deps := imagery.Dependencies{
		Geocoder:      providers.NewGeocoderChain(geocoders...),
		Locator:       providers.NewIPAPIProvider(httpClient, cfg.IPGeoBaseURL),
		Client:        nasa,
		Acquirer:      imagery.NewAcquirer(nasa, images, cfg.AcquireWorkers),
		Renderer:      renderer,
		Linker:        nasa,
		StepDays:      cfg.AnimationStepDays,
		DefaultFormat: format,
	}

	if cfg.SMTPUsername != "" {
		mailer, err := notify.New(notify.Config{
			Host:       cfg.SMTPHost,
			Port:       cfg.SMTPPort,
			Username:   cfg.SMTPUsername,
			Password:   cfg.SMTPPassword,
			From:       cfg.SMTPFrom,
			RequireTLS: cfg.SMTPRequireTLS,
			Timeout:    cfg.HTTPTimeout,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("configure mailer: %w", err)
		}
		deps.Notifier = mailer
	} else {
		log.Println("INFO: SMTP_USERNAME not set; email notifications disabled")
	}

	if cfg.ArchiveEnabled {
		archive, err := store.NewRecordArchive(cfg.ArchivePath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open record archive: %w", err)
		}
		deps.Archive = archive
		a.closers = append(a.closers, archive.Close)
	}

	a.Service = imagery.NewService(deps)
	return a, nil
}

// Close ends all sessions and releases resources.
func (a *App) Close() error {
	a.Sessions.Close()

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
