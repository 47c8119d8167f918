package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productcatalog/platform/pkg/authn"
)

type fakeRepo struct {
	users map[string]User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]User)}
}

func (f *fakeRepo) FindByUsername(ctx context.Context, username string) (User, error) {
	u, ok := f.users[username]
	if !ok {
		return User{}, assert.AnError
	}

	return u, nil
}

func (f *fakeRepo) Create(ctx context.Context, u User) error {
	f.users[u.Username] = u
	return nil
}

func (f *fakeRepo) CountUsers(ctx context.Context) (int, error) {
	return len(f.users), nil
}

func testIssuer(t *testing.T) *authn.Issuer {
	t.Helper()

	issuer, err := authn.NewIssuer([]byte(testPrivateKeyPEM), "test-issuer", time.Hour)
	require.NoError(t, err)

	return issuer
}

func TestBootstrapAdmin_CreatesFirstUser(t *testing.T) {
	repo := newFakeRepo()
	uc := &UseCase{Repo: repo, Issuer: testIssuer(t)}

	err := uc.BootstrapAdmin(context.Background(), "admin", "s3cret!")
	require.NoError(t, err)

	user, err := repo.FindByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Role)
	assert.NotEmpty(t, user.PasswordHash)
}

func TestBootstrapAdmin_NoOpWhenUsersExist(t *testing.T) {
	repo := newFakeRepo()
	repo.users["existing"] = User{Username: "existing"}

	uc := &UseCase{Repo: repo, Issuer: testIssuer(t)}

	err := uc.BootstrapAdmin(context.Background(), "admin", "s3cret!")
	require.NoError(t, err)

	_, err = repo.FindByUsername(context.Background(), "admin")
	assert.Error(t, err)
}

func TestLogin_RejectsWrongPassword(t *testing.T) {
	repo := newFakeRepo()
	hash, err := authn.HashPassword("correct-horse")
	require.NoError(t, err)

	repo.users["alice"] = User{ID: "1", Username: "alice", PasswordHash: hash, Role: "editor"}

	uc := &UseCase{Repo: repo, Issuer: testIssuer(t)}

	_, err = uc.Login(context.Background(), "alice", "wrong")
	assert.Error(t, err)
}

func TestLogin_IssuesTokenOnSuccess(t *testing.T) {
	repo := newFakeRepo()
	hash, err := authn.HashPassword("correct-horse")
	require.NoError(t, err)

	repo.users["alice"] = User{ID: "1", Username: "alice", PasswordHash: hash, Role: "editor"}

	uc := &UseCase{Repo: repo, Issuer: testIssuer(t)}

	token, err := uc.Login(context.Background(), "alice", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}
