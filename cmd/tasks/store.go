package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/byronguina/tasktracker/internal/config"
	"github.com/byronguina/tasktracker/internal/db"
	"github.com/byronguina/tasktracker/internal/filestore"
	"github.com/byronguina/tasktracker/internal/kvclient"
	"github.com/byronguina/tasktracker/internal/repository"
)

// openStore returns the snapshot store for the configured backend and a
// function that releases it.
func openStore(ctx context.Context, cfg *config.Config, log *logrus.Entry) (repository.Store, func() error, error) {
	noop := func() error { return nil }
	log = log.WithField("backend", cfg.Storage.Backend)

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return repository.NewMemoryStore(), noop, nil

	case config.BackendFile:
		log.WithField("path", cfg.Storage.FilePath).Debug("using file storage")
		return filestore.New(cfg.Storage.FilePath, nil), noop, nil

	case config.BackendKV:
		client, err := kvclient.New(ctx, cfg.Storage.KVURL, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to %s: %w", cfg.Storage.KVURL, err)
		}
		log.WithField("url", cfg.Storage.KVURL).Debug("registered with kv server")
		return kvclient.NewStore(client), noop, nil

	case config.BackendSQLite, config.BackendPostgres:
		database, err := db.Open(cfg.Storage.Backend, cfg.Storage.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Init(); err != nil {
			database.Close()
			return nil, nil, err
		}
		log.Debug("using sql storage")
		return database, database.Close, nil
	}

	return nil, nil, fmt.Errorf("invalid storage backend: %q", cfg.Storage.Backend)
}
