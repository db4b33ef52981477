package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"strings"

	"bookora/internal/auth"
	"bookora/internal/catalog"
	"bookora/internal/config"
	"bookora/internal/domain"
	"bookora/internal/domain/models"
	"bookora/internal/domain/services"
	"bookora/internal/media"
	"bookora/internal/repository"
	"bookora/internal/repository/postgres"
	"bookora/internal/service"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const demoPassword = "bookora-demo"

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop the documents table before seeding (postgres driver only)")
	skipPosts := flag.Bool("skip-posts", false, "Seed users and books only")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("🚫 BLOCKED: Cannot run --drop-tables in production environment")
	}

	logger := config.NewLogger("prod", os.Stdout)
	ctx := context.Background()

	if *dropTables {
		if cfg.StoreDriver != repository.DriverPostgres {
			log.Fatalf("--drop-tables needs STORE_DRIVER=postgres (got %q)", cfg.StoreDriver)
		}
		log.Println("🗑️  Dropping documents table...")
		if err := dropDocuments(ctx, cfg); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	log.Printf("🌱 Seeding %s store (environment: %s, prefix: %s)", cfg.StoreDriver, cfg.Environment, cfg.DataPrefix)

	opened, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open document store: %v", err)
	}
	defer opened.Close()
	if !opened.Store.IsConfigured() {
		log.Fatalf("Document store is not configured; set the GITHUB_* variables or choose another STORE_DRIVER")
	}

	registry, err := catalog.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	storage, _ := media.NewStorage(media.Config{}, logger)
	authority, err := auth.NewHMACAuthority(cfg.AuthSecret, cfg.TokenTTL, logger)
	if err != nil {
		log.Fatalf("Failed to create token authority: %v", err)
	}

	svc := service.SetupServices(service.Dependencies{
		Store:       opened.Store,
		DataPrefix:  cfg.DataPrefix,
		Catalog:     registry,
		Media:       storage,
		Tokens:      authority,
		AdminEmails: cfg.AdminEmails,
	}, logger)
	if err := svc.Reload(ctx); err != nil {
		log.Fatalf("Failed to load existing data: %v", err)
	}

	for _, email := range []string{"reader@bookora.dev", "writer@bookora.dev"} {
		_, err := svc.Users.Register(ctx, &services.RegisterRequest{Email: email, Password: demoPassword})
		var conflict *domain.ConflictError
		switch {
		case errors.As(err, &conflict):
			log.Printf("↩️  User %s already exists", email)
		case err != nil:
			log.Fatalf("Failed to register %s: %v", email, err)
		default:
			log.Printf("✅ Registered %s (password: %s)", email, demoPassword)
		}
	}

	existing := svc.Books.List(services.BookFilter{})
	titles := make(map[string]bool, len(existing.Books))
	for _, b := range existing.Books {
		titles[b.Title] = true
	}

	seeds := seedBooks()
	for i, req := range seeds {
		if titles[req.Title] {
			log.Printf("↩️  Book %q already exists", req.Title)
			continue
		}
		book, err := svc.Books.Add(ctx, "writer@bookora.dev", req)
		if err != nil {
			log.Printf("❌ Failed to create book %q: %v", req.Title, err)
			continue
		}
		log.Printf("✅ Created book %d/%d: %s (ID: %s, Pages: %d)", i+1, len(seeds), book.Title, book.ID, book.PageCount)
	}

	if !*skipPosts {
		post, err := svc.Feed.AddPost(ctx, "writer@bookora.dev", &services.CreatePostRequest{
			Content: "Two new books are up in the library. Feedback welcome!",
		})
		if err != nil {
			log.Printf("❌ Failed to create post: %v", err)
		} else {
			log.Printf("✅ Created post %s", post.ID)
		}
	}

	log.Println("🎉 Seeding complete!")
}

func dropDocuments(ctx context.Context, cfg *config.Config) error {
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	store := postgres.NewDocumentStore(&postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
	})
	return store.DropSchema(ctx)
}

func page(heading string, paragraphs ...string) models.Page {
	blocks := []models.Block{{ID: blockID(), Type: models.BlockHeading, Content: heading}}
	for _, p := range paragraphs {
		blocks = append(blocks, models.Block{ID: blockID(), Type: models.BlockParagraph, Content: p})
	}
	return models.Page{Content: blocks}
}

func blockID() string {
	return "block_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func seedBooks() []*services.CreateBookRequest {
	return []*services.CreateBookRequest{
		{
			Title:       "The Lantern Keeper",
			Author:      "Mara Ellison",
			Genre:       "Fantasy",
			Description: "A lighthouse keeper discovers her lamp guides more than ships.",
			Pages: []models.Page{
				page("The Last Ferry",
					"The ferry left at dusk and never once waited for anyone.",
					"Wren counted the passengers twice. Eleven boarded, twelve stepped off."),
				page("Salt and Oil",
					"Every night she trimmed the wick and every night the sea answered."),
				page("The Other Shore",
					"Beyond the reef the water glowed the same color as her lamp."),
			},
		},
		{
			Title:       "Quiet Hours",
			Author:      "Jonah Reyes",
			Genre:       "Mystery",
			Description: "A night-shift librarian finds notes tucked in returned books.",
			Pages: []models.Page{
				page("Returns",
					"The first note was folded into a copy of an atlas: you are not the only one awake."),
				page("Overdue",
					"By the third week the notes had started answering her questions."),
			},
		},
	}
}
