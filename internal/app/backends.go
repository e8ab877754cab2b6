// Package app opens the external backends selected by configuration. Both
// binaries share it.
package app

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"

	"github.com/iftarsharebd/iftarmap/internal/config"
	"github.com/iftarsharebd/iftarmap/internal/notify"
	"github.com/iftarsharebd/iftarmap/internal/repository/docstore"
	"github.com/iftarsharebd/iftarmap/internal/repository/firestore"
	"github.com/iftarsharebd/iftarmap/internal/repository/mongodb"
	"github.com/iftarsharebd/iftarmap/internal/repository/sheets"
	"github.com/iftarsharebd/iftarmap/internal/service/curation"
	"github.com/iftarsharebd/iftarmap/pkg/clients/whatsapp"
)

// Backends holds the opened store and the Firebase app when one is needed.
type Backends struct {
	Store    docstore.Store
	Firebase *firebase.App
}

// Open connects the configured store driver. The Firebase app is created
// for the firestore driver or when FCM alerts are enabled.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backends, error) {
	b := &Backends{}

	if cfg.Store.Driver == config.DriverFirestore || cfg.Notify.FCMTopic != "" {
		fb, err := firestore.NewApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsPath)
		if err != nil {
			return nil, err
		}
		b.Firebase = fb
	}

	switch cfg.Store.Driver {
	case config.DriverFirestore:
		store, err := firestore.NewStore(ctx, b.Firebase, logger.Named("repo.firestore"))
		if err != nil {
			return nil, err
		}
		b.Store = store
	case config.DriverMongoDB:
		store, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, cfg.MongoDB.PollInterval, logger.Named("repo.mongodb"))
		if err != nil {
			return nil, err
		}
		b.Store = store
	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		b.Store = docstore.NewMemory()
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}

	logger.Info("store opened", zap.String("driver", cfg.Store.Driver))
	return b, nil
}

// Close releases the store connection.
func (b *Backends) Close(ctx context.Context) error {
	if b.Store == nil {
		return nil
	}
	return b.Store.Close(ctx)
}

// Notifier combines the configured alert channels. It is notify.Nop when
// none is configured.
func (b *Backends) Notifier(ctx context.Context, cfg *config.Config, logger *zap.Logger) (notify.Notifier, error) {
	var out notify.Multi

	if cfg.Notify.FCMTopic != "" {
		client, err := b.Firebase.Messaging(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to init firebase messaging: %w", err)
		}
		out = append(out, notify.NewFCM(client, cfg.Notify.FCMTopic, logger.Named("notify.fcm")))
		logger.Info("fcm help alerts enabled", zap.String("topic", cfg.Notify.FCMTopic))
	}

	if cfg.WhatsApp.Enabled() {
		out = append(out, notify.NewWhatsApp(whatsapp.NewClient(cfg.WhatsApp), cfg.WhatsApp.CoordinatorID, logger.Named("notify.whatsapp")))
		logger.Info("whatsapp coordinator alerts enabled")
	}

	if len(out) == 0 {
		return notify.Nop{}, nil
	}
	return out, nil
}

// Curation builds the sheet importer, or returns nil when no sheet is configured.
func (b *Backends) Curation(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*curation.Service, error) {
	if !cfg.Sheets.Enabled() {
		return nil, nil
	}

	reader, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, logger.Named("repo.sheets"))
	if err != nil {
		return nil, err
	}
	return curation.NewService(reader, b.Store, cfg.Sheets.Range, logger.Named("svc.curation")), nil
}
