package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-taskflow/internal/adapter/repository/repositorytest"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/infrastructure/cache"
	ucerrors "github.com/johnquangdev/meeting-taskflow/internal/usecase/errors"
	"github.com/johnquangdev/meeting-taskflow/pkg/jwt"
)

type stubValidator struct {
	valid bool
	calls int
}

func (v *stubValidator) ValidateCredentials(ctx context.Context, username, apiToken string) bool {
	v.calls++
	return v.valid
}

func newService(t *testing.T, valid bool) (*Service, *repositorytest.Store, *stubValidator) {
	t.Helper()
	store := repositorytest.NewStore()
	validator := &stubValidator{valid: valid}
	revoked := cache.NewMemoryStore()
	t.Cleanup(func() { _ = revoked.Close() })
	svc := NewService(store.Users(), validator, jwt.NewManager("test-secret", time.Hour, ""), revoked, nil)
	return svc, store, validator
}

func TestPMLogin_CreatesThenUpdates(t *testing.T) {
	svc, store, validator := newService(t, true)
	ctx := context.Background()

	resp, err := svc.PMLogin(ctx, PMLoginInput{Username: "pm", JiraUsername: "pm@example.com", JiraAPIToken: "tok-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, entities.RoleProjectManager, resp.User.Role)

	_, err = svc.PMLogin(ctx, PMLoginInput{Username: "pm", JiraUsername: "pm@example.com", JiraAPIToken: "tok-2"})
	require.NoError(t, err)
	assert.Equal(t, 2, validator.calls)

	stored, err := store.Users().FindByUsername(ctx, "pm")
	require.NoError(t, err)
	require.True(t, stored.HasTrackerCredentials())
	assert.Equal(t, "tok-2", *stored.JiraAPIToken)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestPMLogin_Rejections(t *testing.T) {
	ctx := context.Background()

	svc, _, validator := newService(t, false)
	_, err := svc.PMLogin(ctx, PMLoginInput{Username: "pm", JiraUsername: "pm", JiraAPIToken: "bad"})
	assert.ErrorIs(t, err, ucerrors.ErrInvalidCredentials)

	_, err = svc.PMLogin(ctx, PMLoginInput{Username: "pm"})
	assert.ErrorIs(t, err, ucerrors.ErrInvalidInput)
	assert.Equal(t, 1, validator.calls)

	svc, store, _ := newService(t, true)
	require.NoError(t, store.Users().Create(ctx, entities.NewUser("dev", entities.RoleDeveloper)))
	_, err = svc.PMLogin(ctx, PMLoginInput{Username: "dev", JiraUsername: "dev", JiraAPIToken: "tok"})
	assert.ErrorIs(t, err, ucerrors.ErrRoleViolation)
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newService(t, true)
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "correct-horse", Role: entities.RoleDeveloper})
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.User.Username)

	_, err = svc.Register(ctx, RegisterInput{Username: "alice", Password: "another-pass", Role: entities.RoleDeveloper})
	assert.ErrorIs(t, err, ucerrors.ErrAlreadyExists)

	login, err := svc.Login(ctx, "alice", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, login.AccessToken)

	_, err = svc.Login(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, ucerrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "correct-horse")
	assert.ErrorIs(t, err, ucerrors.ErrInvalidCredentials)
}

func TestRegister_ClaimsRosterUser(t *testing.T) {
	svc, store, _ := newService(t, true)
	ctx := context.Background()

	roster := entities.NewUser("bob", entities.RoleQA)
	require.NoError(t, store.Users().Create(ctx, roster))

	resp, err := svc.Register(ctx, RegisterInput{Username: "bob", Password: "password-1", Role: entities.RoleDeveloper})
	require.NoError(t, err)
	assert.Equal(t, roster.ID, resp.User.ID)
	assert.Equal(t, entities.RoleQA, resp.User.Role)

	_, err = svc.Login(ctx, "bob", "password-1")
	assert.NoError(t, err)
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newService(t, true)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "carol", Password: "short", Role: entities.RoleDeveloper})
	assert.ErrorIs(t, err, ucerrors.ErrInvalidInput)

	_, err = svc.Register(ctx, RegisterInput{Username: "carol", Password: "long-enough", Role: "CEO"})
	assert.ErrorIs(t, err, ucerrors.ErrInvalidInput)
}

func TestValidateSessionAndLogout(t *testing.T) {
	svc, _, _ := newService(t, true)
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterInput{Username: "dana", Password: "password-1", Role: entities.RoleDesigner})
	require.NoError(t, err)

	user, err := svc.ValidateSession(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)

	_, err = svc.ValidateSession(ctx, "not-a-token")
	assert.ErrorIs(t, err, ucerrors.ErrTokenInvalid)

	require.NoError(t, svc.Logout(ctx, resp.AccessToken))
	_, err = svc.ValidateSession(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, ucerrors.ErrTokenRevoked)

	assert.ErrorIs(t, svc.Logout(ctx, "garbage"), ucerrors.ErrTokenInvalid)
}

func TestValidateSession_Expired(t *testing.T) {
	store := repositorytest.NewStore()
	svc := NewService(store.Users(), &stubValidator{valid: true}, jwt.NewManager("s", -time.Minute, ""), nil, nil)

	user := entities.NewUser("erin", entities.RoleDeveloper)
	require.NoError(t, store.Users().Create(context.Background(), user))
	token, err := jwt.NewManager("s", -time.Minute, "").GenerateAccessToken(user.ID, user.Username, string(user.Role))
	require.NoError(t, err)

	_, err = svc.ValidateSession(context.Background(), token)
	assert.ErrorIs(t, err, ucerrors.ErrTokenExpired)
}
