// File: internal/service/user_test.go
package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userStateFixture = `{
	"info":{"basicInfo":{"nickname":"阿黎","redId":"88812345","desc":"咖啡与书","images":"https://sns-avatar-qc.xhscdn.com/a1"},
		"interactions":[{"type":"follows","count":"120"},{"type":"fans","count":"3.4万"},{"type":"interaction","count":"12.8万"}]},
	"notes":[
		[{"id":"65f1b2c3000000000101aaaa","xsecToken":"t1","noteCard":{"type":"normal","displayTitle":"晨跑路线","cover":{"urlDefault":"https://sns-webpic-qc.xhscdn.com/c1"}}}],
		[{"id":"65f1b2c3000000000101bbbb","xsecToken":"t2","noteCard":{"type":"video","displayTitle":"手冲教程","cover":{"urlDefault":"https://sns-webpic-qc.xhscdn.com/c2"}}}]
	]
}`

func userEvalFn(stateJSON string) func(expr string, out interface{}) error {
	return func(expr string, out interface{}) error {
		if strings.Contains(expr, "userPageData") {
			*(out.(*string)) = stateJSON
			return nil
		}
		if v, ok := out.(*string); ok {
			*v = ""
		}
		return nil
	}
}

func TestProfile_ByUserID(t *testing.T) {
	page := newFakePage()
	page.evalFn = userEvalFn(userStateFixture)
	svc := NewUserService(testEnv(t, &fakeBrowser{page: page}))

	res := svc.Profile(context.Background(), "5c3f2a1b000000001a02e9f4", "")
	require.True(t, res.Success, "profile failed: %s", res.Message)

	data := res.Data.(ProfileData)
	require.NotNil(t, data.Profile)
	assert.Equal(t, "阿黎", data.Profile.Nickname)
	assert.Equal(t, "88812345", data.Profile.RedID)
	assert.Equal(t, "3.4万", data.Profile.Followers)
	assert.Equal(t, "120", data.Profile.Following)
	assert.Equal(t, "12.8万", data.Profile.Likes)

	// Masonry columns are flattened into one list.
	require.Equal(t, 2, data.Count)
	assert.Equal(t, "晨跑路线", data.Notes[0].Title)
	assert.Contains(t, data.Notes[1].URL, "/explore/65f1b2c3000000000101bbbb")

	require.NotEmpty(t, page.navigated)
	assert.Contains(t, page.navigated[0], "/user/profile/5c3f2a1b000000001a02e9f4")
}

func TestProfile_ByProfileURL(t *testing.T) {
	page := newFakePage()
	page.evalFn = userEvalFn(userStateFixture)
	svc := NewUserService(testEnv(t, &fakeBrowser{page: page}))

	res := svc.Profile(context.Background(),
		"https://www.xiaohongshu.com/user/profile/5c3f2a1b000000001a02e9f4?xsec_token=zz", "")
	require.True(t, res.Success)
	data := res.Data.(ProfileData)
	assert.Equal(t, "5c3f2a1b000000001a02e9f4", data.Profile.UserID)
}

func TestProfile_NicknameFallsBackToSearch(t *testing.T) {
	page := newFakePage()
	page.html = `<div class="user-item"><a href="/user/profile/5c3f2a1b000000001a02e9f4">阿黎</a></div>`
	page.evalFn = func(expr string, out interface{}) error {
		// The state only exists on the real profile page, not on the
		// nickname-as-ID guess.
		if strings.Contains(expr, "userPageData") && strings.Contains(page.url, "5c3f2a1b000000001a02e9f4") {
			*(out.(*string)) = userStateFixture
			return nil
		}
		if v, ok := out.(*string); ok {
			*v = ""
		}
		return nil
	}
	svc := NewUserService(testEnv(t, &fakeBrowser{page: page}))

	res := svc.Profile(context.Background(), "阿黎", "")
	require.True(t, res.Success, "profile failed: %s", res.Message)

	data := res.Data.(ProfileData)
	assert.Equal(t, "阿黎", data.Profile.Nickname)
	assert.Equal(t, "5c3f2a1b000000001a02e9f4", data.Profile.UserID)

	var searched bool
	for _, u := range page.navigated {
		if strings.Contains(u, "keyword=") {
			searched = true
		}
	}
	assert.True(t, searched, "expected a search navigation, got %v", page.navigated)
}

func TestProfile_EmptyStateIsNotFound(t *testing.T) {
	page := newFakePage()
	svc := NewUserService(testEnv(t, &fakeBrowser{page: page}))

	res := svc.Profile(context.Background(), "5c3f2a1b000000001a02e9f4", "")
	require.False(t, res.Success)
	assert.Equal(t, string(KindUserNotFound), res.Code)
}

func TestProfile_RequiresReference(t *testing.T) {
	b := noBrowser()
	svc := NewUserService(testEnv(t, b))

	res := svc.Profile(context.Background(), "  ", "")
	require.False(t, res.Success)
	assert.Equal(t, string(KindUserNotFound), res.Code)
	assert.Zero(t, b.openCount())
}
