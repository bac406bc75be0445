// File: internal/service/auth_test.go
package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhsdash/xhs-cli/internal/credentials"
)

const (
	avatarSelector = ".user.side-bar-component .link-wrapper"
	qrcodeSelector = ".login-container .qrcode"
)

func seedCookies(t *testing.T, env *Env) []byte {
	t.Helper()
	require.NoError(t, env.Creds.Save([]credentials.Cookie{
		{Name: "web_session", Value: "abc", Domain: ".xiaohongshu.com", Path: "/"},
	}))
	blob, err := os.ReadFile(env.Creds.Path())
	require.NoError(t, err)
	return blob
}

func TestStatus_NoStoredSession(t *testing.T) {
	b := noBrowser()
	env := testEnv(t, b)
	svc := NewAuthService(env)

	res := svc.Status(context.Background(), "")
	require.True(t, res.Success)

	data, ok := res.Data.(StatusData)
	require.True(t, ok)
	assert.False(t, data.LoggedIn)
	assert.Zero(t, data.Cookies)
	assert.Zero(t, b.openCount(), "no stored session means no browser launch")
}

func TestStatus_ActiveSession(t *testing.T) {
	page := newFakePage()
	page.visible[avatarSelector] = true
	env := testEnv(t, &fakeBrowser{page: page})
	before := seedCookies(t, env)
	svc := NewAuthService(env)

	res := svc.Status(context.Background(), "")
	require.True(t, res.Success)
	data := res.Data.(StatusData)
	assert.True(t, data.LoggedIn)
	assert.Equal(t, 1, data.Cookies)

	after, err := os.ReadFile(env.Creds.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after, "status must never modify the cookie store")
}

func TestStatus_ExpiredSessionIsReportedNotCleared(t *testing.T) {
	page := newFakePage()
	page.visible[qrcodeSelector] = true
	env := testEnv(t, &fakeBrowser{page: page})
	before := seedCookies(t, env)
	svc := NewAuthService(env)

	res := svc.Status(context.Background(), "")
	require.True(t, res.Success, "an expired session is an answer, not an error")
	data := res.Data.(StatusData)
	assert.False(t, data.LoggedIn)

	after, err := os.ReadFile(env.Creds.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after, "a dead session must not destroy the stored cookies")
}

func TestLogin_AlreadyLoggedInRefreshesCookies(t *testing.T) {
	page := newFakePage()
	page.visible[avatarSelector] = true
	page.cookies = []credentials.Cookie{
		{Name: "web_session", Value: "fresh", Domain: ".xiaohongshu.com", Path: "/"},
		{Name: "a1", Value: "xyz", Domain: ".xiaohongshu.com", Path: "/"},
	}
	env := testEnv(t, &fakeBrowser{page: page})
	svc := NewAuthService(env)

	res := svc.Login(context.Background(), "")
	require.True(t, res.Success)
	data := res.Data.(LoginData)
	assert.True(t, data.LoggedIn)
	assert.Equal(t, 2, data.CookiesSaved)

	stored, err := env.Creds.Load()
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "fresh", stored[0].Value)
}

func TestLogin_Timeout(t *testing.T) {
	page := newFakePage()
	page.visible[qrcodeSelector] = true
	env := testEnv(t, &fakeBrowser{page: page})
	env.Cfg.Auth.LoginTimeout = 50 * time.Millisecond
	svc := NewAuthService(env)

	res := svc.Login(context.Background(), "")
	require.False(t, res.Success)
	assert.Equal(t, string(KindLoginTimeout), res.Code)
	assert.Contains(t, res.Context, "timeout")
}

func TestLogout_ClearsStore(t *testing.T) {
	env := testEnv(t, noBrowser())
	seedCookies(t, env)
	svc := NewAuthService(env)

	res := svc.Logout(context.Background())
	require.True(t, res.Success)

	stored, err := env.Creds.Load()
	require.NoError(t, err)
	assert.Empty(t, stored)

	// Logging out twice is fine.
	require.True(t, svc.Logout(context.Background()).Success)
}
