package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"golang.org/x/crypto/bcrypt"

	"bookora/internal/auth"
	"bookora/internal/config"
	"bookora/internal/domain"
	"bookora/internal/domain/models"
	"bookora/internal/domain/services"
	"bookora/internal/service/docsync"
)

// authService owns users/<sanitized-email>.json documents
type authService struct {
	syncer *docsync.Syncer
	paths  Paths
	tokens auth.TokenIssuer
	admins services.AdminService
	logger *slog.Logger
	now    func() time.Time

	mu    sync.RWMutex
	users map[string]models.User // keyed by normalized email
}

// NewAuthService creates the user account service
func NewAuthService(
	syncer *docsync.Syncer,
	paths Paths,
	tokens auth.TokenIssuer,
	admins services.AdminService,
	logger *slog.Logger,
) services.AuthService {
	return &authService{
		syncer: syncer,
		paths:  paths,
		tokens: tokens,
		admins: admins,
		logger: logger,
		now:    time.Now,
		users:  make(map[string]models.User),
	}
}

func noUser() models.User { return models.User{} }

// Register creates a user document. The write carries no version token, so a
// concurrent registration of the same email fails with a conflict.
func (s *authService) Register(ctx context.Context, req *services.RegisterRequest) (*services.AuthResult, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Email, validation.Required, is.EmailFormat),
		validation.Field(&req.Password, validation.Required, validation.Length(config.MinPasswordLength, 0)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	path := s.paths.User(req.Email)
	if _, _, err := docsync.Fetch[models.User](ctx, s.syncer, path); err == nil {
		return nil, &domain.ConflictError{
			Message:      "an account with this email already exists",
			ResourceType: "user",
			ResourceID:   req.Email,
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:         req.Email,
		Password:      string(hash),
		Username:      models.UsernameFromEmail(req.Email),
		FavoriteBooks: []string{},
		CreatedBooks:  []string{},
		CreatedAt:     s.now().UTC(),
	}

	if err := docsync.Create(ctx, s.syncer, path, "Register "+req.Email, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, &domain.ConflictError{
				Message:      "an account with this email already exists",
				ResourceType: "user",
				ResourceID:   req.Email,
			}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.remember(user)
	s.logger.Info("user registered", "email", user.Email)

	return s.authenticated(user)
}

// Login checks credentials. Unknown users and wrong passwords return an
// unauthenticated result, not an error, and never write.
func (s *authService) Login(ctx context.Context, req *services.LoginRequest) (*services.AuthResult, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Email, validation.Required),
		validation.Field(&req.Password, validation.Required),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	user, _, err := docsync.Fetch[models.User](ctx, s.syncer, s.paths.User(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debug("login for unknown user", "email", req.Email)
			return &services.AuthResult{Authenticated: false}, nil
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	user.Normalize()

	ok, legacy := checkPassword(user.Password, req.Password)
	if !ok {
		s.logger.Debug("login with wrong password", "email", req.Email)
		return &services.AuthResult{Authenticated: false}, nil
	}

	if legacy {
		user = s.upgradePassword(ctx, user, req.Password)
	}

	s.remember(user)
	return s.authenticated(user)
}

// checkPassword compares against a bcrypt hash, or a plaintext value left by
// older clients. legacy reports the latter so the caller can re-hash.
func checkPassword(stored, given string) (ok bool, legacy bool) {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil, false
	}
	return stored != "" && subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1, true
}

func (s *authService) upgradePassword(ctx context.Context, user models.User, password string) models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Warn("failed to hash legacy password", "email", user.Email, "error", err)
		return user
	}

	updated, err := docsync.Update(ctx, s.syncer, s.paths.User(user.Email), "Upgrade password hash for "+user.Email, noUser,
		func(current *models.User) error {
			if current.Email == "" {
				return domain.ErrNotFound
			}
			current.Password = string(hash)
			return nil
		})
	if err != nil {
		s.logger.Warn("failed to upgrade legacy password", "email", user.Email, "error", err)
		return user
	}
	s.logger.Info("legacy password upgraded", "email", user.Email)
	return updated
}

func (s *authService) authenticated(user models.User) (*services.AuthResult, error) {
	admin := s.admins != nil && s.admins.IsAdmin(user.Email)
	token, err := s.tokens.Issue(user.Email, user.Username, admin)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	public := user.Public()
	return &services.AuthResult{Authenticated: true, Token: token, User: &public}, nil
}

func (s *authService) remember(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[normalizeEmail(user.Email)] = user
}

func (s *authService) cached(email string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[normalizeEmail(email)]
	return u, ok
}

// load returns the mirrored user, reading the document on first access
func (s *authService) load(ctx context.Context, email string) (models.User, error) {
	if u, ok := s.cached(email); ok {
		return u, nil
	}
	user, _, err := docsync.Fetch[models.User](ctx, s.syncer, s.paths.User(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return models.User{}, &domain.NotFoundError{Message: fmt.Sprintf("user %s not found", email)}
		}
		return models.User{}, fmt.Errorf("load user: %w", err)
	}
	user.Normalize()
	s.remember(user)
	return user, nil
}

func (s *authService) GetUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.load(ctx, email)
	if err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

func (s *authService) UpdateProfile(ctx context.Context, email string, req *services.UpdateProfileRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Username, validation.Required, validation.Length(1, 50)),
		validation.Field(&req.Password, validation.NilOrNotEmpty, validation.Length(config.MinPasswordLength, 0)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var hash string
	if req.Password != nil {
		b, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		hash = string(b)
	}

	updated, err := s.mutate(ctx, email, "Update profile for "+email, func(u *models.User) {
		u.Username = req.Username
		if hash != "" {
			u.Password = hash
		}
	})
	if err != nil {
		return nil, err
	}
	public := updated.Public()
	return &public, nil
}

// mutate applies fn to the mirror first, then to the freshly read document.
// A persistence failure after the mirror changed is a *domain.SyncError.
func (s *authService) mutate(ctx context.Context, email, message string, fn func(*models.User)) (models.User, error) {
	user, err := s.load(ctx, email)
	if err != nil {
		return models.User{}, err
	}
	fn(&user)
	s.remember(user)

	persisted, err := docsync.Update(ctx, s.syncer, s.paths.User(email), message, noUser,
		func(current *models.User) error {
			if current.Email == "" {
				return &domain.NotFoundError{Message: fmt.Sprintf("user %s not found", email)}
			}
			current.Normalize()
			fn(current)
			return nil
		})
	if err != nil {
		s.logger.Warn("user update not persisted", "email", email, "error", err)
		return user, syncFailed("user", err)
	}
	s.remember(persisted)
	return persisted, nil
}

func (s *authService) ToggleFavorite(ctx context.Context, email, bookID string) (bool, error) {
	user, err := s.load(ctx, email)
	if err != nil {
		return false, err
	}
	favorite := !user.IsFavorite(bookID)

	// set the decided state rather than toggling again, so a retry after a
	// conflict cannot flip it back
	_, err = s.mutate(ctx, email, fmt.Sprintf("Toggle favorite %s for %s", bookID, email), func(u *models.User) {
		if u.IsFavorite(bookID) != favorite {
			u.ToggleFavorite(bookID)
		}
	})
	return favorite, err
}

func (s *authService) AddCreatedBook(ctx context.Context, email, bookID string) error {
	_, err := s.mutate(ctx, email, fmt.Sprintf("Add book %s to %s", bookID, email), func(u *models.User) {
		u.AddCreatedBook(bookID)
	})
	return err
}

func (s *authService) RemoveCreatedBook(ctx context.Context, email, bookID string) error {
	_, err := s.mutate(ctx, email, fmt.Sprintf("Remove book %s from %s", bookID, email), func(u *models.User) {
		u.RemoveCreatedBook(bookID)
	})
	return err
}

// KnownUsers reads every user document in the users directory. Falls back to
// the users seen by this process when the directory cannot be listed.
func (s *authService) KnownUsers(ctx context.Context) ([]string, error) {
	entries, err := s.syncer.Store().List(ctx, s.paths.UsersDir())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.mirroredEmails(), nil
		}
		s.logger.Warn("failed to list users, using mirror", "error", err)
		return s.mirroredEmails(), nil
	}

	emails := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type != "file" || !strings.HasSuffix(e.Name, ".json") {
			continue
		}
		user, _, err := docsync.Fetch[models.User](ctx, s.syncer, e.Path)
		if err != nil {
			s.logger.Warn("skipping unreadable user document", "path", e.Path, "error", err)
			continue
		}
		user.Normalize()
		if user.Email == "" {
			continue
		}
		s.remember(user)
		emails = append(emails, user.Email)
	}
	return emails, nil
}

func (s *authService) mirroredEmails() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	emails := make([]string, 0, len(s.users))
	for _, u := range s.users {
		emails = append(emails, u.Email)
	}
	return emails
}
