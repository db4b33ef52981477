package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"bookora/internal/cache"
	"bookora/internal/catalog"
	"bookora/internal/config"
	"bookora/internal/domain"
	"bookora/internal/domain/models"
	"bookora/internal/domain/services"
	"bookora/internal/service/docsync"
)

// MediaUploader moves inline data URLs to object storage
type MediaUploader interface {
	UploadDataURL(ctx context.Context, dataURL, prefix string) string
}

// bookService owns books.json (the index) and books/<id>.json
type bookService struct {
	syncer        *docsync.Syncer
	paths         Paths
	catalog       *catalog.Registry
	cache         cache.BookCache
	media         MediaUploader
	users         services.AuthService
	authorizer    services.ResourceAuthorizer
	notifications services.NotificationService
	activity      services.ActivityLogService
	logger        *slog.Logger
	now           func() time.Time

	mu    sync.RWMutex
	index []models.Book // index projections, pages stripped
}

// NewBookService creates the library service
func NewBookService(
	syncer *docsync.Syncer,
	paths Paths,
	registry *catalog.Registry,
	bookCache cache.BookCache,
	media MediaUploader,
	users services.AuthService,
	authorizer services.ResourceAuthorizer,
	notifications services.NotificationService,
	activity services.ActivityLogService,
	logger *slog.Logger,
) services.BookService {
	if bookCache == nil {
		bookCache = cache.NoopBookCache{}
	}
	return &bookService{
		syncer:        syncer,
		paths:         paths,
		catalog:       registry,
		cache:         bookCache,
		media:         media,
		users:         users,
		authorizer:    authorizer,
		notifications: notifications,
		activity:      activity,
		logger:        logger,
		now:           time.Now,
		index:         []models.Book{},
	}
}

func emptyIndex() []models.Book { return []models.Book{} }

func (s *bookService) Load(ctx context.Context) error {
	books, err := docsync.Load(ctx, s.syncer, s.paths.BooksIndex(), emptyIndex)
	if err != nil {
		s.logger.Warn("failed to load books index", "error", err)
		return err
	}

	index := make([]models.Book, 0, len(books))
	for _, b := range books {
		b.Normalize()
		index = append(index, b.IndexEntry())
	}

	s.mu.Lock()
	s.index = index
	s.mu.Unlock()

	s.logger.Debug("books index loaded", "books", len(index))
	return nil
}

func (s *bookService) snapshot() []models.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Book{}, s.index...)
}

func (s *bookService) List(filter services.BookFilter) *services.BookList {
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	result := []models.Book{}
	for _, b := range s.snapshot() {
		matchesSearch := query == "" ||
			strings.Contains(strings.ToLower(b.Title), query) ||
			strings.Contains(strings.ToLower(b.Author), query)
		matchesGenre := filter.Genre == "" || filter.Genre == services.GenreAll || b.Genre == filter.Genre
		if matchesSearch && matchesGenre {
			result = append(result, b)
		}
	}

	switch filter.Sort {
	case services.SortMostViewed:
		sort.SliceStable(result, func(i, j int) bool { return result[i].ViewCount > result[j].ViewCount })
	case services.SortMostDownloaded:
		sort.SliceStable(result, func(i, j int) bool { return result[i].DownloadCount > result[j].DownloadCount })
	case services.SortNewest, "":
		sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	}

	total := len(result)
	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			result = []models.Book{}
		} else {
			result = result[filter.Offset:]
		}
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return &services.BookList{Books: result, Total: total, Genres: s.Genres()}
}

// Genres returns "All" followed by each distinct genre in the index, sorted
func (s *bookService) Genres() []string {
	set := mapset.NewThreadUnsafeSet[string]()
	for _, b := range s.snapshot() {
		if b.Genre != "" {
			set.Add(b.Genre)
		}
	}
	genres := set.ToSlice()
	sort.Strings(genres)
	return append([]string{services.GenreAll}, genres...)
}

func (s *bookService) Get(id string) (*models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.index {
		if b.ID == id {
			book := b.Clone()
			return &book, nil
		}
	}
	return nil, bookNotFound(id)
}

func bookNotFound(id string) error {
	return &domain.NotFoundError{Message: fmt.Sprintf("book %s not found", id)}
}

// FetchDetails returns the full book. Books indexed without a per-book
// document come back as their index entry.
func (s *bookService) FetchDetails(ctx context.Context, id string) (*models.Book, error) {
	if cached, err := s.cache.GetBook(ctx, id); err != nil {
		s.logger.Warn("book cache read failed", "id", id, "error", err)
	} else if cached != nil {
		return cached, nil
	}

	book, _, err := docsync.Fetch[models.Book](ctx, s.syncer, s.paths.Book(id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.Get(id)
		}
		return nil, fmt.Errorf("fetch book %s: %w", id, err)
	}
	book.Normalize()
	s.replaceEntry(book)

	if err := s.cache.SetBook(ctx, &book); err != nil {
		s.logger.Warn("book cache write failed", "id", id, "error", err)
	}
	return &book, nil
}

// replaceEntry swaps the index entry for book, leaving order unchanged
func (s *bookService) replaceEntry(book models.Book) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.index {
		if s.index[i].ID == book.ID {
			s.index[i] = book.IndexEntry()
			return true
		}
	}
	return false
}

func (s *bookService) validateRequest(req *services.CreateBookRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, config.MaxTitleLength)),
		validation.Field(&req.Author, validation.Length(0, config.MaxTitleLength)),
		validation.Field(&req.Description, validation.Length(0, config.MaxDescriptionLength)),
	); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if req.Genre == "" {
		req.Genre = s.catalog.DefaultGenre()
	} else if genre, ok := s.catalog.CanonicalGenre(req.Genre); ok {
		req.Genre = genre
	} else {
		return &domain.ValidationError{Message: fmt.Sprintf("unknown genre %q", req.Genre)}
	}

	return s.validatePages(req.Pages)
}

func (s *bookService) validatePages(pages []models.Page) error {
	for _, p := range pages {
		for _, b := range p.Content {
			if !s.catalog.IsBlockType(b.Type) {
				return &domain.ValidationError{Message: fmt.Sprintf("unsupported block type %q", b.Type)}
			}
		}
	}
	return nil
}

// newID returns the creation time in unix milliseconds, bumped past any id
// already in the index. It must be called with s.mu held.
func (s *bookService) newID(now time.Time) string {
	ids := mapset.NewThreadUnsafeSet[string]()
	for _, b := range s.index {
		ids.Add(b.ID)
	}
	ms := millis(now)
	for ids.Contains(strconv.FormatInt(ms, 10)) {
		ms++
	}
	return strconv.FormatInt(ms, 10)
}

// hostMedia moves inline cover and image blocks to object storage
func (s *bookService) hostMedia(ctx context.Context, book *models.Book) {
	if s.media == nil {
		return
	}
	book.CoverImage = s.media.UploadDataURL(ctx, book.CoverImage, "cover")
	for i := range book.Pages {
		for j := range book.Pages[i].Content {
			block := &book.Pages[i].Content[j]
			if block.Type == models.BlockImage || block.Type == models.BlockVideo {
				block.Content = s.media.UploadDataURL(ctx, block.Content, string(block.Type))
			}
		}
	}
}

func upsertEntry(index *[]models.Book, book models.Book) {
	entry := book.IndexEntry()
	for i := range *index {
		if (*index)[i].ID == book.ID {
			(*index)[i] = entry
			return
		}
	}
	*index = append([]models.Book{entry}, *index...)
}

func removeEntry(index *[]models.Book, id string) {
	out := make([]models.Book, 0, len(*index))
	for _, b := range *index {
		if b.ID != id {
			out = append(out, b)
		}
	}
	*index = out
}

func (s *bookService) writeIndex(ctx context.Context, message string, mutate func(*[]models.Book)) error {
	_, err := docsync.Update(ctx, s.syncer, s.paths.BooksIndex(), message, emptyIndex,
		func(current *[]models.Book) error {
			mutate(current)
			for i := range *current {
				(*current)[i] = (*current)[i].IndexEntry()
			}
			return nil
		})
	return err
}

// Add creates the per-book document, prepends the book to the index and
// records it in the owner's created_books, in that order.
func (s *bookService) Add(ctx context.Context, owner string, req *services.CreateBookRequest) (*models.Book, error) {
	if owner == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	book := models.Book{
		Title:       req.Title,
		Author:      req.Author,
		Genre:       req.Genre,
		Description: req.Description,
		CoverImage:  req.CoverImage,
		Pages:       req.Pages,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if book.Author == "" {
		book.Author = models.UsernameFromEmail(owner)
	}
	if book.CoverImage == "" {
		book.CoverImage = s.catalog.DefaultCover(millis(now))
	}
	for i := range book.Pages {
		if book.Pages[i].ID == "" {
			book.Pages[i].ID = fmt.Sprintf("page_%d_%d", millis(now), i+1)
		}
	}
	book.Normalize()

	s.mu.Lock()
	book.ID = s.newID(now)
	upsertEntry(&s.index, book)
	s.mu.Unlock()
	id := book.ID

	// uploads run after the mirror holds the book; hosted urls replace the inline ones
	s.hostMedia(ctx, &book)
	s.replaceEntry(book)

	err := docsync.NewSaga("create book "+id, s.logger).
		Step("book", func(ctx context.Context) error {
			return docsync.Create(ctx, s.syncer, s.paths.Book(id), "Create book "+book.Title, book)
		}).
		Step("index", func(ctx context.Context) error {
			return s.writeIndex(ctx, "Update books index", func(index *[]models.Book) {
				upsertEntry(index, book)
			})
		}).
		Step("owner", func(ctx context.Context) error {
			return s.users.AddCreatedBook(ctx, owner, id)
		}).
		Run(ctx)
	if err != nil {
		return &book, err
	}

	if err := s.cache.SetBook(ctx, &book); err != nil {
		s.logger.Warn("book cache write failed", "id", id, "error", err)
	}

	s.announce(ctx, owner, book)
	s.log(ctx, services.LogEntry{
		Actor:        owner,
		Action:       models.ActionCreate,
		ResourceType: models.ResourceBook,
		ResourceID:   id,
		ResourceName: book.Title,
		Details:      map[string]any{"genre": book.Genre, "pageCount": book.PageCount},
	})

	s.logger.Info("book created", "id", id, "title", book.Title, "owner", owner, "pages", book.PageCount)
	return &book, nil
}

func (s *bookService) announce(ctx context.Context, owner string, book models.Book) {
	if s.notifications == nil {
		return
	}
	recipients := []string{owner}
	users, err := s.users.KnownUsers(ctx)
	if err != nil {
		s.logger.Warn("could not list users for notification", "error", err)
	}
	seen := mapset.NewThreadUnsafeSet(normalizeEmail(owner))
	for _, u := range users {
		if seen.Add(normalizeEmail(u)) {
			recipients = append(recipients, u)
		}
	}
	s.notifications.Broadcast(recipients, services.CreateNotificationRequest{
		Type:      models.NotificationNewBook,
		Title:     "New Book Published!",
		Message:   fmt.Sprintf("%q by %s is now available", book.Title, book.Author),
		ActionURL: "/read/" + book.ID,
		ImageURL:  book.CoverImage,
	})
}

func (s *bookService) log(ctx context.Context, entry services.LogEntry) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Log(ctx, entry); err != nil {
		s.logger.Warn("activity not recorded", "action", entry.Action, "resource_id", entry.ResourceID, "error", err)
	}
}

func (s *bookService) authorize(ctx context.Context, actor, id string) error {
	if s.authorizer == nil {
		return nil
	}
	return s.authorizer.CanEditBook(ctx, actor, id)
}

// Update writes the per-book document, then the index. View and download
// counters stay as the index has them.
func (s *bookService) Update(ctx context.Context, actor string, book *models.Book) (*models.Book, error) {
	existing, err := s.Get(book.ID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, book.ID); err != nil {
		return nil, err
	}

	req := &services.CreateBookRequest{
		Title:       book.Title,
		Author:      book.Author,
		Genre:       book.Genre,
		Description: book.Description,
		Pages:       book.Pages,
	}
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	updated := book.Clone()
	updated.Title, updated.Author, updated.Genre = req.Title, req.Author, req.Genre
	updated.CreatedAt = existing.CreatedAt
	updated.ViewCount = existing.ViewCount
	updated.DownloadCount = existing.DownloadCount
	updated.UpdatedAt = s.now().UTC()
	if updated.CoverImage == "" {
		updated.CoverImage = existing.CoverImage
	}
	updated.Normalize()
	updated.PageCount = len(updated.Pages)

	s.replaceEntry(updated)
	s.hostMedia(ctx, &updated)
	s.replaceEntry(updated)
	if err := s.cache.DeleteBook(ctx, updated.ID); err != nil {
		s.logger.Warn("book cache invalidation failed", "id", updated.ID, "error", err)
	}

	err = docsync.NewSaga("update book "+updated.ID, s.logger).
		Step("book", func(ctx context.Context) error {
			return docsync.Put(ctx, s.syncer, s.paths.Book(updated.ID), "Update book "+updated.Title, updated)
		}).
		Step("index", func(ctx context.Context) error {
			return s.writeIndex(ctx, "Update books index", func(index *[]models.Book) {
				upsertEntry(index, updated)
			})
		}).
		Run(ctx)
	if err != nil {
		return &updated, err
	}

	s.log(ctx, services.LogEntry{
		Actor:        actor,
		Action:       models.ActionUpdate,
		ResourceType: models.ResourceBook,
		ResourceID:   updated.ID,
		ResourceName: updated.Title,
		Details:      map[string]any{"pageCount": updated.PageCount},
	})
	s.logger.Info("book updated", "id", updated.ID, "actor", actor, "pages", updated.PageCount)
	return &updated, nil
}

// Delete removes the per-book document if present, then the index entry,
// then the id from its owner's created_books.
func (s *bookService) Delete(ctx context.Context, actor, id string) error {
	existing, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, actor, id); err != nil {
		return err
	}

	s.mu.Lock()
	removeEntry(&s.index, id)
	s.mu.Unlock()
	if err := s.cache.DeleteBook(ctx, id); err != nil {
		s.logger.Warn("book cache invalidation failed", "id", id, "error", err)
	}

	err = docsync.NewSaga("delete book "+id, s.logger).
		Step("book", func(ctx context.Context) error {
			return s.syncer.Delete(ctx, s.paths.Book(id), "Delete book "+existing.Title)
		}).
		Step("index", func(ctx context.Context) error {
			return s.writeIndex(ctx, "Update books index", func(index *[]models.Book) {
				removeEntry(index, id)
			})
		}).
		Step("owner", func(ctx context.Context) error {
			return s.users.RemoveCreatedBook(ctx, s.ownerOf(ctx, actor, id), id)
		}).
		Run(ctx)
	if err != nil {
		return err
	}

	s.log(ctx, services.LogEntry{
		Actor:        actor,
		Action:       models.ActionDelete,
		ResourceType: models.ResourceBook,
		ResourceID:   id,
		ResourceName: existing.Title,
	})
	s.logger.Info("book deleted", "id", id, "actor", actor)
	return nil
}

// ownerOf finds whose created_books holds id, assuming the actor when nobody else does
func (s *bookService) ownerOf(ctx context.Context, actor, id string) string {
	if u, err := s.users.GetUser(ctx, actor); err == nil && u.OwnsBook(id) {
		return actor
	}
	emails, err := s.users.KnownUsers(ctx)
	if err != nil {
		return actor
	}
	for _, email := range emails {
		if u, err := s.users.GetUser(ctx, email); err == nil && u.OwnsBook(id) {
			return email
		}
	}
	return actor
}

func (s *bookService) selectByIDs(ids []string) []models.Book {
	want := mapset.NewThreadUnsafeSet(ids...)
	out := []models.Book{}
	for _, b := range s.snapshot() {
		if want.Contains(b.ID) {
			out = append(out, b)
		}
	}
	return out
}

func (s *bookService) MyBooks(ctx context.Context, email string) ([]models.Book, error) {
	user, err := s.users.GetUser(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.selectByIDs(user.CreatedBooks), nil
}

func (s *bookService) Favorites(ctx context.Context, email string) ([]models.Book, error) {
	user, err := s.users.GetUser(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.selectByIDs(user.FavoriteBooks), nil
}

// errNoDocument stops an update when the per-book document was never written
var errNoDocument = errors.New("per-book document absent")

// bumpCounter increments a counter on the mirror, the per-book document and the index
func (s *bookService) bumpCounter(ctx context.Context, id, name string, bump func(*models.Book)) (*models.Book, error) {
	s.mu.Lock()
	var entry *models.Book
	for i := range s.index {
		if s.index[i].ID == id {
			bump(&s.index[i])
			e := s.index[i]
			entry = &e
			break
		}
	}
	s.mu.Unlock()
	if entry == nil {
		return nil, bookNotFound(id)
	}

	if err := s.cache.DeleteBook(ctx, id); err != nil {
		s.logger.Warn("book cache invalidation failed", "id", id, "error", err)
	}

	err := docsync.NewSaga(name+" "+id, s.logger).
		Step("book", func(ctx context.Context) error {
			_, err := docsync.Update(ctx, s.syncer, s.paths.Book(id), fmt.Sprintf("Record %s for book %s", name, id),
				func() models.Book { return models.Book{} },
				func(current *models.Book) error {
					if current.ID == "" {
						return errNoDocument
					}
					bump(current)
					return nil
				})
			if errors.Is(err, errNoDocument) {
				return nil
			}
			return err
		}).
		Step("index", func(ctx context.Context) error {
			return s.writeIndex(ctx, "Update books index", func(index *[]models.Book) {
				for i := range *index {
					if (*index)[i].ID == id {
						bump(&(*index)[i])
					}
				}
			})
		}).
		Run(ctx)
	return entry, err
}

func (s *bookService) RecordView(ctx context.Context, id string) (*models.Book, error) {
	return s.bumpCounter(ctx, id, "view", func(b *models.Book) { b.ViewCount++ })
}

// Download renders the book and counts the download
func (s *bookService) Download(ctx context.Context, id, format string) (*services.Export, error) {
	book, err := s.FetchDetails(ctx, id)
	if err != nil {
		return nil, err
	}

	var export *services.Export
	switch format {
	case "", services.ExportPDF:
		content, err := RenderPDF(book)
		if err != nil {
			return nil, fmt.Errorf("render pdf for book %s: %w", id, err)
		}
		export = &services.Export{Filename: DownloadFilename(book.Title, services.ExportPDF), ContentType: "application/pdf", Content: content}
	case services.ExportMarkdown:
		export = &services.Export{
			Filename:    DownloadFilename(book.Title, services.ExportMarkdown),
			ContentType: "text/markdown; charset=utf-8",
			Content:     RenderMarkdown(book),
		}
	default:
		return nil, &domain.ValidationError{Message: fmt.Sprintf("unsupported download format %q", format)}
	}

	if _, err := s.bumpCounter(ctx, id, "download", func(b *models.Book) { b.DownloadCount++ }); err != nil {
		s.logger.Warn("download count not persisted", "id", id, "error", err)
	}
	return export, nil
}
