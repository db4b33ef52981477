// Package repository selects the document store backend from configuration.
package repository

import (
	"context"
	"fmt"
	"log/slog"

	"bookora/internal/config"
	"bookora/internal/domain/repositories"
	"bookora/internal/repository/fallback"
	"bookora/internal/repository/github"
	"bookora/internal/repository/memory"
	"bookora/internal/repository/postgres"
)

// Store drivers accepted by STORE_DRIVER
const (
	DriverGitHub   = "github"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Opened is a ready document store and the function that releases it
type Opened struct {
	Store  repositories.DocumentStore
	Driver string
	Close  func()
}

// Open builds the configured store. The GitHub client is wrapped by the
// bundled-asset fallback so an unconfigured server still serves demo data.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Opened, error) {
	switch cfg.StoreDriver {
	case DriverGitHub, "":
		client := github.NewClient(github.Config{
			Token:  cfg.GitHubToken,
			Owner:  cfg.GitHubOwner,
			Repo:   cfg.GitHubRepo,
			Branch: cfg.GitHubBranch,
			APIURL: cfg.GitHubAPIURL,
			RPS:    cfg.GitHubRPS,
		}, logger)
		if !client.IsConfigured() {
			logger.Warn("github store not configured, serving bundled data read-only")
		}
		return &Opened{Store: fallback.New(client, logger), Driver: DriverGitHub, Close: func() {}}, nil

	case DriverMemory:
		logger.Warn("using in-memory document store, data is lost on restart")
		return &Opened{Store: memory.NewStore(), Driver: DriverMemory, Close: func() {}}, nil

	case DriverPostgres:
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store := postgres.NewDocumentStore(&postgres.RepositoryConfig{
			Pool:   pool,
			Tables: postgres.NewTableNames(cfg.TablePrefix),
			Logger: logger,
		})
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("database connected", "table_prefix", cfg.TablePrefix)
		return &Opened{Store: store, Driver: DriverPostgres, Close: pool.Close}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
