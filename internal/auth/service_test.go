package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archon/internal/archonerr"
	"archon/internal/catalog"
)

type fakeStore struct {
	byUsername map[string]*catalog.User
	byID       map[string]*catalog.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{byUsername: map[string]*catalog.User{}, byID: map[string]*catalog.User{}}
}

func (f *fakeStore) CreateUser(ctx context.Context, u *catalog.User) error {
	f.byUsername[u.Username] = u
	f.byID[u.ID] = u
	return nil
}

func (f *fakeStore) GetUserByUsername(ctx context.Context, username string) (*catalog.User, error) {
	u, ok := f.byUsername[username]
	if !ok {
		return nil, archonerr.NotFound("user %s not found", username)
	}
	return u, nil
}

func (f *fakeStore) GetUserByID(ctx context.Context, id string) (*catalog.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, archonerr.NotFound("user %s not found", id)
	}
	return u, nil
}

func (f *fakeStore) CountUsers(ctx context.Context) (int, error) {
	return len(f.byID), nil
}

func newTestService() *Service {
	return NewService(newFakeStore(), []byte("test-secret"), time.Hour, 24*time.Hour)
}

func TestRegisterFirstUserBecomesAdmin(t *testing.T) {
	s := newTestService()
	user, err := s.Register(context.Background(), "alice", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, catalog.RoleAdmin, user.Role)
}

func TestRegisterSecondUserIsRefused(t *testing.T) {
	s := newTestService()
	_, err := s.Register(context.Background(), "alice", "hunter22")
	require.NoError(t, err)

	_, err = s.Register(context.Background(), "bob", "password1")
	require.Error(t, err)
	assert.Equal(t, archonerr.KindForbidden, archonerr.KindOf(err))
}

func TestLoginIssuesValidAccessAndRefreshTokens(t *testing.T) {
	s := newTestService()
	_, err := s.Register(context.Background(), "alice", "hunter22")
	require.NoError(t, err)

	pair, user, err := s.Login(context.Background(), "alice", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	accessClaims, err := s.ParseToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, TokenAccess, accessClaims.Type)
	assert.Equal(t, "admin", accessClaims.Role)

	refreshClaims, err := s.ParseToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenRefresh, refreshClaims.Type)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	s := newTestService()
	_, err := s.Register(context.Background(), "alice", "hunter22")
	require.NoError(t, err)

	_, _, err = s.Login(context.Background(), "alice", "wrong-password")
	require.Error(t, err)
	assert.Equal(t, archonerr.KindUnauthorized, archonerr.KindOf(err))
}

func TestRefreshRejectsAccessTokenPresentedAsRefresh(t *testing.T) {
	s := newTestService()
	_, err := s.Register(context.Background(), "alice", "hunter22")
	require.NoError(t, err)
	pair, _, err := s.Login(context.Background(), "alice", "hunter22")
	require.NoError(t, err)

	_, err = s.Refresh(context.Background(), pair.AccessToken)
	require.Error(t, err)
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	s := newTestService()
	_, err := s.Register(context.Background(), "alice", "hunter22")
	require.NoError(t, err)
	pair, _, err := s.Login(context.Background(), "alice", "hunter22")
	require.NoError(t, err)

	access, err := s.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	claims, err := s.ParseToken(access)
	require.NoError(t, err)
	assert.Equal(t, TokenAccess, claims.Type)
}

func TestAdminCreateUserBypassesZeroUserRestriction(t *testing.T) {
	s := newTestService()
	_, err := s.Register(context.Background(), "alice", "hunter22")
	require.NoError(t, err)

	user, err := s.AdminCreateUser(context.Background(), "bob", "password1", catalog.RoleAnalyst)
	require.NoError(t, err)
	assert.Equal(t, catalog.RoleAnalyst, user.Role)
}
