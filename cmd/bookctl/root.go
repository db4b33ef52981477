package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"bookora/internal/auth"
	"bookora/internal/catalog"
	"bookora/internal/config"
	"bookora/internal/repository"
	"bookora/internal/service"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "bookctl",
	Short: "bookora store inspection tool",
	Example: `bookctl verify-encoding "héllo wörld"
bookctl books list -g Fantasy -s mostViewed
bookctl logs -u writer@bookora.dev -a create
bookctl store ls books`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	},
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log store traffic to stderr")

	rootCmd.AddCommand(verifyEncodingCmd())
	rootCmd.AddCommand(booksCmd)
	booksCmd.AddCommand(listBooksCmd())
	rootCmd.AddCommand(logsCmd())
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(listStoreCmd())

	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	cobra.EnableCommandSorting = false
}

func newLogger() *slog.Logger {
	if verbose {
		return config.NewLogger("dev", os.Stderr)
	}
	return config.NewLogger("prod", io.Discard)
}

// session is an opened store with read-side services loaded from it
type session struct {
	cfg    *config.Config
	opened *repository.Opened
	svc    *service.Services
}

func (s *session) Close() { s.opened.Close() }

func openSession(ctx context.Context) (*session, error) {
	cfg := config.Load()
	logger := newLogger()

	opened, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	registry, err := catalog.NewRegistry()
	if err != nil {
		opened.Close()
		return nil, err
	}
	tokens, err := auth.NewHMACAuthority(cfg.AuthSecret, cfg.TokenTTL, logger)
	if err != nil {
		opened.Close()
		return nil, err
	}

	svc := service.SetupServices(service.Dependencies{
		Store:       opened.Store,
		DataPrefix:  cfg.DataPrefix,
		Catalog:     registry,
		Tokens:      tokens,
		AdminEmails: cfg.AdminEmails,
	}, logger)
	if err := svc.Reload(ctx); err != nil {
		opened.Close()
		return nil, fmt.Errorf("load store: %w", err)
	}
	return &session{cfg: cfg, opened: opened, svc: svc}, nil
}
