package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"archon/internal/archonerr"
	"archon/internal/catalog"
)

// Store is the narrow slice of catalog.Store auth needs, grounded on
// UserDB (user_auth.go) but persistence-agnostic so tests can substitute a
// fake without a live Postgres instance.
type Store interface {
	CreateUser(ctx context.Context, u *catalog.User) error
	GetUserByUsername(ctx context.Context, username string) (*catalog.User, error)
	GetUserByID(ctx context.Context, id string) (*catalog.User, error)
	CountUsers(ctx context.Context) (int, error)
}

// Service issues tokens and manages accounts, replacing its
// process-wide `var userDB *UserDB` singleton (auth_handlers.go) with an
// injected collaborator per the re-architecture decision recorded in
// DESIGN.md.
type Service struct {
	store      Store
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      func() time.Time
}

// NewService builds a Service. secret signs and verifies every token.
func NewService(store Store, secret []byte, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		store:      store,
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		clock:      time.Now,
	}
}

// TokenPair is what Login and Refresh hand back to the HTTP layer.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Register creates the first account as admin; once any user exists, public
// registration is refused (§6: "public only while zero users exist; first
// user gets role admin; thereafter returns 403").
func (s *Service) Register(ctx context.Context, username, password string) (*catalog.User, error) {
	count, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, archonerr.Forbidden("registration is closed: an account already exists")
	}
	return s.createUser(ctx, username, password, catalog.RoleAdmin)
}

// AdminCreateUser creates an account with the given role without the
// zero-users restriction; callers must already have enforced admin-only
// access at the route (§6: "POST /auth/admin-register (admin only)").
func (s *Service) AdminCreateUser(ctx context.Context, username, password string, role catalog.Role) (*catalog.User, error) {
	return s.createUser(ctx, username, password, role)
}

func (s *Service) createUser(ctx context.Context, username, password string, role catalog.Role) (*catalog.User, error) {
	if username == "" || password == "" {
		return nil, archonerr.Validation("username and password are required")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := s.clock().UTC()
	user := &catalog.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues a fresh token pair.
func (s *Service) Login(ctx context.Context, username, password string) (TokenPair, *catalog.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return TokenPair{}, nil, archonerr.Unauthorized("invalid username or password")
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return TokenPair{}, nil, archonerr.Unauthorized("invalid username or password")
	}
	pair, err := s.issuePair(user)
	return pair, user, err
}

// Refresh verifies a refresh token and issues a new access token, keeping
// the same refresh token (§6 only names a new access_token on refresh).
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.ParseToken(refreshToken)
	if err != nil {
		return "", archonerr.Unauthorized("invalid refresh token")
	}
	if claims.Type != TokenRefresh {
		return "", archonerr.Unauthorized("not a refresh token")
	}
	user, err := s.store.GetUserByID(ctx, claims.Subject)
	if err != nil {
		return "", archonerr.Unauthorized("unknown user")
	}
	return s.issueToken(user.ID, user.Username, string(user.Role), TokenAccess, s.accessTTL, s.clock())
}

// CurrentUser resolves the user named by an already-verified access token's
// claims.
func (s *Service) CurrentUser(ctx context.Context, claims *Claims) (*catalog.User, error) {
	return s.store.GetUserByID(ctx, claims.Subject)
}

func (s *Service) issuePair(user *catalog.User) (TokenPair, error) {
	now := s.clock()
	access, err := s.issueToken(user.ID, user.Username, string(user.Role), TokenAccess, s.accessTTL, now)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.issueToken(user.ID, user.Username, string(user.Role), TokenRefresh, s.refreshTTL, now)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
