package cli

import (
	"context"
	"fmt"

	"github.com/existflow/memberbooth/internal/config"
	"github.com/existflow/memberbooth/internal/directory"
	"github.com/existflow/memberbooth/internal/directory/devstore"
	"github.com/existflow/memberbooth/internal/keyreader"
	"github.com/existflow/memberbooth/internal/labels"
	"github.com/existflow/memberbooth/internal/layout"
	"github.com/existflow/memberbooth/internal/logger"
	"github.com/existflow/memberbooth/internal/notify"
	"github.com/existflow/memberbooth/internal/printer"
)

// backends are the remote services a command talks to.
type backends struct {
	directory directory.Directory
	notifier  notify.Notifier
	store     *devstore.Store
}

// openBackends connects the directory and notifier cfg asks for.
func openBackends(ctx context.Context) (*backends, error) {
	b := &backends{}

	if cfg.NoBackend {
		store, err := devstore.Open(cfg.DevStorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open development store: %w", err)
		}
		if err := store.Seed(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to seed development store: %w", err)
		}
		logger.Info("Using development member store", logger.F("path", cfg.DevStorePath))
		b.store = store
		b.directory = store
	} else {
		b.directory = directory.NewClient(cfg.MakerAdminURL, cfg.MakerAdminToken)
	}

	if cfg.NoSlack {
		b.notifier = notify.Log{}
	} else {
		b.notifier = notify.NewSlack(cfg.SlackTokenPath, cfg.SlackChannelID, notify.Development(cfg.Development))
	}
	return b, nil
}

func (b *backends) Close() {
	if b.store == nil {
		return
	}
	if err := b.store.Close(); err != nil {
		logger.Warn("Failed to close development store", logger.Err(err))
	}
	logger.Info("Development store closed")
}

// newFactory loads fonts and artwork and checks that label URLs fit the QR codes.
func newFactory() (*labels.Factory, error) {
	if err := labels.CheckQRVersion(); err != nil {
		return nil, err
	}
	fonts, err := layout.DefaultFonts()
	if err != nil {
		return nil, fmt.Errorf("failed to load fonts: %w", err)
	}
	art, err := labels.LoadArtwork(labels.ArtworkPaths{
		Logo:      cfg.LogoPath,
		Flammable: cfg.FlammablePath,
		Rotating:  cfg.RotatingPath,
	}, fonts)
	if err != nil {
		return nil, fmt.Errorf("failed to load artwork: %w", err)
	}
	return labels.NewFactory(fonts, art, cfg.WikiLink), nil
}

func newPrinter() printer.Printer {
	return printer.NewQL(cfg.PrinterDevice, cfg.PrinterModel, cfg.LabelType)
}

// keyReaders returns nil when members log in with a PIN code.
func keyReaders() keyreader.Finder {
	if cfg.LoginMethod == config.LoginPIN {
		return nil
	}
	if cfg.KeyReader == config.ReaderKeyboard {
		return keyreader.KeyboardFinder
	}
	return keyreader.SerialFinder{Prefixes: cfg.SerialPrefixes}
}
