package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mittrack/internal/api"
	"mittrack/internal/model"
	"mittrack/internal/store"
)

type fakeAPI struct {
	user  *model.User
	token string
	err   error

	calls     int
	lastToken string
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	f.calls++
	if f.err != nil {
		return nil, "", f.err
	}
	return f.user, f.token, nil
}

func (f *fakeAPI) SetToken(token string) { f.lastToken = token }
func (f *fakeAPI) ClearToken()           { f.lastToken = "" }

func testUser() *model.User {
	return &model.User{ID: "u1", Name: "Ana", Email: "user@x.com", UserType: "admin"}
}

func TestLoginSuccessSetsAndPersistsSession(t *testing.T) {
	st := store.NewMemoryStore()
	remote := &fakeAPI{user: testUser(), token: "tok-123"}
	m := NewManager(remote, st, nil)

	assert.False(t, m.IsAuthenticated())

	ok := m.Login(context.Background(), "user@x.com", "secret")
	require.True(t, ok)
	assert.True(t, m.IsAuthenticated())
	assert.Empty(t, m.Err())
	assert.False(t, m.Loading())
	assert.Equal(t, "tok-123", m.Token())
	assert.Equal(t, "tok-123", remote.lastToken)

	token, err := st.Get(TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)

	raw, err := st.Get(UserKey)
	require.NoError(t, err)
	var persisted model.User
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
	assert.Equal(t, "u1", persisted.ID)
}

func TestLoginFailureLeavesStateUnchanged(t *testing.T) {
	st := store.NewMemoryStore()
	remote := &fakeAPI{err: &api.HTTPError{Status: 401, Message: "invalid credentials"}}
	m := NewManager(remote, st, nil)

	ok := m.Login(context.Background(), "user@x.com", "wrong")
	assert.False(t, ok)
	assert.False(t, m.IsAuthenticated())
	assert.Equal(t, "invalid credentials", m.Err())
	assert.Nil(t, m.CurrentUser())
	assert.Empty(t, m.Token())

	// no durable mutation on failure
	_, err := st.Get(TokenKey)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Get(UserKey)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLoginGenericFallbackMessage(t *testing.T) {
	remote := &fakeAPI{err: &api.NetworkError{Err: context.DeadlineExceeded}}
	m := NewManager(remote, store.NewMemoryStore(), nil)

	require.False(t, m.Login(context.Background(), "user@x.com", "secret"))
	assert.Equal(t, "login failed", m.Err())
}

func TestLoginClearsPriorError(t *testing.T) {
	remote := &fakeAPI{err: &api.SemanticError{Message: "nope"}}
	m := NewManager(remote, store.NewMemoryStore(), nil)

	require.False(t, m.Login(context.Background(), "user@x.com", "wrong"))
	require.Equal(t, "nope", m.Err())

	remote.err = nil
	remote.user = testUser()
	remote.token = "tok-2"
	require.True(t, m.Login(context.Background(), "user@x.com", "right"))
	assert.Empty(t, m.Err())
}

func TestLogoutClearsEverything(t *testing.T) {
	st := store.NewMemoryStore()
	remote := &fakeAPI{user: testUser(), token: "tok-123"}
	m := NewManager(remote, st, nil)
	require.True(t, m.Login(context.Background(), "user@x.com", "secret"))

	m.Logout()
	assert.False(t, m.IsAuthenticated())
	assert.Nil(t, m.CurrentUser())
	assert.Empty(t, m.Token())
	assert.Empty(t, m.Err())
	assert.Empty(t, remote.lastToken)

	_, err := st.Get(TokenKey)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Get(UserKey)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// idempotent when already logged out
	m.Logout()
	assert.False(t, m.IsAuthenticated())
}

func TestRestoreRoundTrip(t *testing.T) {
	st := store.NewMemoryStore()
	remote := &fakeAPI{user: testUser(), token: "tok-123"}
	m := NewManager(remote, st, nil)
	require.True(t, m.Login(context.Background(), "user@x.com", "secret"))

	// process-restart simulation: fresh manager, same store
	m2 := NewManager(&fakeAPI{}, st, nil)
	m2.Restore()

	assert.True(t, m2.IsAuthenticated())
	assert.Equal(t, "tok-123", m2.Token())
	require.NotNil(t, m2.CurrentUser())
	assert.Equal(t, m.CurrentUser().ID, m2.CurrentUser().ID)
	assert.Equal(t, m.CurrentUser().Email, m2.CurrentUser().Email)
}

func TestRestoreEmptyStore(t *testing.T) {
	m := NewManager(&fakeAPI{}, store.NewMemoryStore(), nil)
	m.Restore()
	assert.False(t, m.IsAuthenticated())
	assert.Empty(t, m.Err())
}

func TestRestoreTokenWithoutUser(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.Set(TokenKey, "tok-123"))

	m := NewManager(&fakeAPI{}, st, nil)
	m.Restore()
	assert.False(t, m.IsAuthenticated(), "token without user must not authenticate")
}

func TestRestorePurgesMalformedUser(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.Set(TokenKey, "tok-123"))
	require.NoError(t, st.Set(UserKey, "{not json"))

	m := NewManager(&fakeAPI{}, st, nil)
	m.Restore()

	assert.False(t, m.IsAuthenticated())
	_, err := st.Get(TokenKey)
	assert.ErrorIs(t, err, store.ErrNotFound, "token entry must be purged")
	_, err = st.Get(UserKey)
	assert.ErrorIs(t, err, store.ErrNotFound, "user entry must be purged")
}

func TestRestorePurgesExpiredJWT(t *testing.T) {
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u1",
		"exp":     jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	st := store.NewMemoryStore()
	raw, err := json.Marshal(testUser())
	require.NoError(t, err)
	require.NoError(t, st.Set(TokenKey, signed))
	require.NoError(t, st.Set(UserKey, string(raw)))

	m := NewManager(&fakeAPI{}, st, nil)
	m.Restore()

	assert.False(t, m.IsAuthenticated())
	_, err = st.Get(TokenKey)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRestoreAcceptsOpaqueToken(t *testing.T) {
	st := store.NewMemoryStore()
	raw, err := json.Marshal(testUser())
	require.NoError(t, err)
	require.NoError(t, st.Set(TokenKey, "opaque-token"))
	require.NoError(t, st.Set(UserKey, string(raw)))

	remote := &fakeAPI{}
	m := NewManager(remote, st, nil)
	m.Restore()

	assert.True(t, m.IsAuthenticated())
	assert.Equal(t, "opaque-token", remote.lastToken)
}

// isAuthenticated must track (user present AND token present) through every
// state transition.
func TestAuthenticatedInvariant(t *testing.T) {
	st := store.NewMemoryStore()
	remote := &fakeAPI{user: testUser(), token: "tok-123"}
	m := NewManager(remote, st, nil)

	check := func(stage string) {
		t.Helper()
		want := m.CurrentUser() != nil && m.Token() != ""
		assert.Equal(t, want, m.IsAuthenticated(), "invariant broken at %s", stage)
	}

	check("initial")
	m.Restore()
	check("after empty restore")
	m.Login(context.Background(), "user@x.com", "secret")
	check("after login")
	m.Logout()
	check("after logout")

	remote.err = &api.SemanticError{Message: "down"}
	m.Login(context.Background(), "user@x.com", "secret")
	check("after failed login")
}
