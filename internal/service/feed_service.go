package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"bookora/internal/config"
	"bookora/internal/domain"
	"bookora/internal/domain/models"
	"bookora/internal/domain/services"
	"bookora/internal/service/docsync"
)

// feedService owns feed.json, newest post first
type feedService struct {
	syncer        *docsync.Syncer
	path          string
	media         MediaUploader
	authorizer    services.ResourceAuthorizer
	notifications services.NotificationService
	activity      services.ActivityLogService
	logger        *slog.Logger
	now           func() time.Time

	mu    sync.RWMutex
	posts []models.FeedItem
}

// NewFeedService creates the social feed service
func NewFeedService(
	syncer *docsync.Syncer,
	paths Paths,
	media MediaUploader,
	authorizer services.ResourceAuthorizer,
	notifications services.NotificationService,
	activity services.ActivityLogService,
	logger *slog.Logger,
) services.FeedService {
	return &feedService{
		syncer:        syncer,
		path:          paths.Feed(),
		media:         media,
		authorizer:    authorizer,
		notifications: notifications,
		activity:      activity,
		logger:        logger,
		now:           time.Now,
		posts:         []models.FeedItem{},
	}
}

func emptyFeed() []models.FeedItem { return []models.FeedItem{} }

func (s *feedService) Refresh(ctx context.Context) error {
	posts, err := docsync.Load(ctx, s.syncer, s.path, emptyFeed)
	if err != nil {
		s.logger.Warn("failed to load feed", "error", err)
		return err
	}
	for i := range posts {
		posts[i].Normalize()
	}
	if posts == nil {
		posts = emptyFeed()
	}

	s.mu.Lock()
	s.posts = posts
	s.mu.Unlock()
	return nil
}

func (s *feedService) List(viewer string) []models.FeedItem {
	return s.filter(viewer, func(models.FeedItem) bool { return true })
}

func (s *feedService) PostsBy(userID, viewer string) []models.FeedItem {
	return s.filter(viewer, func(p models.FeedItem) bool { return strings.EqualFold(p.UserID, userID) })
}

func (s *feedService) filter(viewer string, keep func(models.FeedItem) bool) []models.FeedItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.FeedItem{}
	for _, p := range s.posts {
		if keep(p) {
			out = append(out, p.ForViewer(viewer))
		}
	}
	return out
}

func (s *feedService) Get(id, viewer string) (*models.FeedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.posts {
		if p.ID == id {
			post := p.ForViewer(viewer)
			return &post, nil
		}
	}
	return nil, postNotFound(id)
}

func postNotFound(id string) error {
	return &domain.NotFoundError{Message: fmt.Sprintf("post %s not found", id)}
}

func validatePost(content string, images []string) error {
	return validation.Errors{
		"content": validation.Validate(content, validation.Length(0, config.MaxPostLength)),
		"images":  validation.Validate(images, validation.Length(0, config.MaxPostImages)),
	}.Filter()
}

// compactImages drops blank entries
func compactImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		if img != "" {
			out = append(out, img)
		}
	}
	return out
}

// hostImages uploads data-URL images, one result per input
func (s *feedService) hostImages(ctx context.Context, images []string) []string {
	out := make([]string, len(images))
	for i, img := range images {
		if s.media != nil {
			img = s.media.UploadDataURL(ctx, img, "feed")
		}
		out[i] = img
	}
	return out
}

func (s *feedService) mirror(mutate func(*[]models.FeedItem) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return mutate(&s.posts)
}

// persist applies mutate to the mirror, then to the freshly read feed
func (s *feedService) persist(ctx context.Context, message string, mutate func(*[]models.FeedItem) error) error {
	if err := s.mirror(mutate); err != nil {
		return err
	}
	return s.persistRemote(ctx, message, mutate)
}

// persistRemote applies mutate to the freshly read feed only
func (s *feedService) persistRemote(ctx context.Context, message string, mutate func(*[]models.FeedItem) error) error {
	_, err := docsync.Update(ctx, s.syncer, s.path, message, emptyFeed, func(current *[]models.FeedItem) error {
		for i := range *current {
			(*current)[i].Normalize()
		}
		if err := mutate(current); err != nil {
			// the post vanished remotely; keep the remote as it is
			return nil
		}
		for i := range *current {
			(*current)[i].HasLiked = false
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("feed not persisted", "message", message, "error", err)
		return syncFailed("feed", err)
	}
	return nil
}

// withPost runs fn on the post with id inside list
func withPost(list *[]models.FeedItem, id string, fn func(*models.FeedItem)) error {
	for i := range *list {
		if (*list)[i].ID == id {
			fn(&(*list)[i])
			return nil
		}
	}
	return postNotFound(id)
}

func (s *feedService) AddPost(ctx context.Context, author string, req *services.CreatePostRequest) (*models.FeedItem, error) {
	if author == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := validatePost(req.Content, req.Images); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	images := compactImages(req.Images)
	if strings.TrimSpace(req.Content) == "" && len(images) == 0 {
		return nil, &domain.ValidationError{Message: "a post needs content or at least one image"}
	}

	now := s.now().UTC()
	name := models.UsernameFromEmail(author)
	post := models.FeedItem{
		UserID:     author,
		UserName:   name,
		UserAvatar: models.AvatarFor(author),
		Content:    req.Content,
		Images:     images,
		Timestamp:  now,
		LikedBy:    []string{},
	}
	post.SyncImage()

	// the id is taken on the mirror, under its lock
	_ = s.mirror(func(list *[]models.FeedItem) error {
		post.ID = nextPostID(*list, now)
		*list = prependCapped(*list, post, 0)
		return nil
	})

	if hosted := s.hostImages(ctx, images); len(hosted) > 0 {
		post.Images = hosted
		post.SyncImage()
		_ = s.mirror(func(list *[]models.FeedItem) error {
			return withPost(list, post.ID, func(p *models.FeedItem) {
				p.Images = append([]string{}, hosted...)
				p.SyncImage()
			})
		})
	}

	err := s.persistRemote(ctx, "Update social feed", func(list *[]models.FeedItem) error {
		*list = prependCapped(*list, post, 0)
		return nil
	})

	s.log(ctx, services.LogEntry{
		Actor:        author,
		Action:       models.ActionCreate,
		ResourceType: models.ResourceFeed,
		ResourceID:   post.ID,
		Details:      map[string]any{"images": len(images)},
	})
	s.logger.Info("post created", "id", post.ID, "author", author, "images", len(images))

	out := post.ForViewer(author)
	return &out, err
}

// nextPostID returns "f" plus the creation time in unix milliseconds, bumped
// past any id already in list
func nextPostID(list []models.FeedItem, now time.Time) string {
	ids := mapset.NewThreadUnsafeSet[string]()
	for _, p := range list {
		ids.Add(p.ID)
	}
	ms := millis(now)
	for ids.Contains("f" + strconv.FormatInt(ms, 10)) {
		ms++
	}
	return "f" + strconv.FormatInt(ms, 10)
}

func (s *feedService) authorize(ctx context.Context, actor, id string) error {
	post, err := s.Get(id, actor)
	if err != nil {
		return err
	}
	if s.authorizer == nil {
		return nil
	}
	return s.authorizer.CanEditPost(ctx, actor, post)
}

// UpdatePost replaces content. Images are replaced only when the request carries a list.
func (s *feedService) UpdatePost(ctx context.Context, actor, id string, req *services.UpdatePostRequest) (*models.FeedItem, error) {
	if err := s.authorize(ctx, actor, id); err != nil {
		return nil, err
	}
	var images []string
	if req.Images != nil {
		images = *req.Images
	}
	if err := validatePost(req.Content, images); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	apply := func(images []string) func(*[]models.FeedItem) error {
		return func(list *[]models.FeedItem) error {
			return withPost(list, id, func(p *models.FeedItem) {
				p.Content = req.Content
				if req.Images != nil {
					p.Images = append([]string{}, images...)
				}
				p.SyncImage()
			})
		}
	}

	if req.Images != nil {
		images = compactImages(images)
	}
	if err := s.mirror(apply(images)); err != nil {
		return nil, err
	}
	if req.Images != nil {
		images = s.hostImages(ctx, images)
		_ = s.mirror(apply(images))
	}

	err := s.persistRemote(ctx, "Update social feed", apply(images))
	if err != nil && !isSyncError(err) {
		return nil, err
	}

	s.log(ctx, services.LogEntry{
		Actor:        actor,
		Action:       models.ActionUpdate,
		ResourceType: models.ResourceFeed,
		ResourceID:   id,
	})

	post, getErr := s.Get(id, actor)
	if getErr != nil {
		return nil, getErr
	}
	return post, err
}

func (s *feedService) DeletePost(ctx context.Context, actor, id string) error {
	if err := s.authorize(ctx, actor, id); err != nil {
		return err
	}

	err := s.persist(ctx, "Update social feed", func(list *[]models.FeedItem) error {
		for i, p := range *list {
			if p.ID == id {
				*list = append((*list)[:i:i], (*list)[i+1:]...)
				return nil
			}
		}
		return postNotFound(id)
	})
	if err != nil && !isSyncError(err) {
		return err
	}

	s.log(ctx, services.LogEntry{
		Actor:        actor,
		Action:       models.ActionDelete,
		ResourceType: models.ResourceFeed,
		ResourceID:   id,
	})
	s.logger.Info("post deleted", "id", id, "actor", actor)
	return err
}

// ToggleLike records the viewer's like in likedBy, so a second toggle by the
// same viewer undoes the first
func (s *feedService) ToggleLike(ctx context.Context, viewer, id string) (*models.FeedItem, error) {
	if viewer == "" {
		return nil, domain.ErrUnauthorized
	}
	current, err := s.Get(id, viewer)
	if err != nil {
		return nil, err
	}
	liked := !current.HasLiked

	err = s.persist(ctx, "Update social feed", func(list *[]models.FeedItem) error {
		return withPost(list, id, func(p *models.FeedItem) {
			if p.LikedByUser(viewer) != liked {
				p.ToggleLike(viewer)
			}
		})
	})
	if err != nil && !isSyncError(err) {
		return nil, err
	}

	if liked && !strings.EqualFold(current.UserID, viewer) && s.notifications != nil {
		s.notifications.Create(current.UserID, services.CreateNotificationRequest{
			Type:      models.NotificationLike,
			Title:     "New like",
			Message:   fmt.Sprintf("%s liked your post", models.UsernameFromEmail(viewer)),
			ActionURL: "/explore",
		})
	}

	post, getErr := s.Get(id, viewer)
	if getErr != nil {
		return nil, getErr
	}
	return post, err
}

func (s *feedService) SharePost(ctx context.Context, viewer, id string) (*models.FeedItem, error) {
	return s.increment(ctx, viewer, id, func(p *models.FeedItem) { p.Shares++ })
}

// AddComment only counts comments; their text is not stored
func (s *feedService) AddComment(ctx context.Context, viewer, id string) (*models.FeedItem, error) {
	post, err := s.increment(ctx, viewer, id, func(p *models.FeedItem) { p.Comments++ })
	if post != nil && s.notifications != nil && viewer != "" && !strings.EqualFold(post.UserID, viewer) {
		s.notifications.Create(post.UserID, services.CreateNotificationRequest{
			Type:      models.NotificationComment,
			Title:     "New comment",
			Message:   fmt.Sprintf("%s commented on your post", models.UsernameFromEmail(viewer)),
			ActionURL: "/explore",
		})
	}
	return post, err
}

func (s *feedService) increment(ctx context.Context, viewer, id string, fn func(*models.FeedItem)) (*models.FeedItem, error) {
	err := s.persist(ctx, "Update social feed", func(list *[]models.FeedItem) error {
		return withPost(list, id, fn)
	})
	if err != nil && !isSyncError(err) {
		return nil, err
	}
	post, getErr := s.Get(id, viewer)
	if getErr != nil {
		return nil, getErr
	}
	return post, err
}

func (s *feedService) log(ctx context.Context, entry services.LogEntry) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Log(ctx, entry); err != nil {
		s.logger.Warn("activity not recorded", "action", entry.Action, "resource_id", entry.ResourceID, "error", err)
	}
}
