package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "rentdesk_session", time.Hour, false), mr
}

func TestLoadWithoutCookieReturnsAnonymous(t *testing.T) {
	sm, _ := testManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, int64(0), sess.UserID())
	require.Empty(t, sess.Role())
}

func TestCommitPersistsIdentityAndSetsCookie(t *testing.T) {
	sm, mr := testManager(t)

	sess := &Session{isNew: true}
	sess.SetIdentity(7, RoleTenant, 3)

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rec, sess))
	require.NotEmpty(t, sess.ID)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "rentdesk_session", cookies[0].Name)
	require.Equal(t, sess.ID, cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)
	require.True(t, mr.Exists("rentdesk:session:"+sess.ID))
}

func TestLoadRoundTripsIdentity(t *testing.T) {
	sm, _ := testManager(t)

	sess := &Session{isNew: true}
	sess.SetIdentity(7, RoleAdmin, 0)
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rec, sess))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "rentdesk_session", Value: sess.ID})
	loaded, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, int64(7), loaded.UserID())
	require.Equal(t, RoleAdmin, loaded.Role())
}

func TestExpiredSessionLoadsAsAnonymous(t *testing.T) {
	sm, mr := testManager(t)

	sess := &Session{isNew: true}
	sess.SetIdentity(7, RoleTenant, 3)
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rec, sess))

	mr.FastForward(2 * time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "rentdesk_session", Value: sess.ID})
	loaded, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, int64(0), loaded.UserID())
}

func TestDestroyDeletesSessionAndClearsCookie(t *testing.T) {
	sm, mr := testManager(t)

	sess := &Session{isNew: true}
	sess.SetIdentity(7, RoleTenant, 3)
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rec, sess))

	sm.Destroy(sess)
	rec = httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rec, sess))

	require.False(t, mr.Exists("rentdesk:session:"+sess.ID))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, -1, cookies[0].MaxAge)
}
