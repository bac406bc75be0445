// File: internal/service/errors_test.go
package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("net::ERR_NAME_NOT_RESOLVED")
	err := Wrap(KindNavigation, "discover_feeds", "could not open the explore feed", cause)

	assert.Contains(t, err.Error(), "BROWSER_NAVIGATION")
	assert.Contains(t, err.Error(), "discover_feeds")
	assert.Contains(t, err.Error(), "ERR_NAME_NOT_RESOLVED")
	assert.ErrorIs(t, err, cause)
}

func TestKindOf(t *testing.T) {
	err := E(KindLoginTimeout, "login", "took too long")
	assert.Equal(t, KindLoginTimeout, KindOf(err))
	assert.Equal(t, KindLoginTimeout, KindOf(fmt.Errorf("outer: %w", err)))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestFail_MapsOpError(t *testing.T) {
	err := E(KindPublishValidation, "publish_image", "title too wide").
		WithContext("title_width", 44).
		WithContext("max_width", 40)

	res := Fail(err)
	require.False(t, res.Success)
	assert.Equal(t, "PUBLISH_VALIDATION", res.Code)
	assert.Equal(t, 44, res.Context["title_width"])
	assert.Equal(t, 40, res.Context["max_width"])
	assert.NotEmpty(t, res.Message)
}

func TestFail_PlainErrorIsInternal(t *testing.T) {
	res := Fail(errors.New("boom"))
	require.False(t, res.Success)
	assert.Equal(t, string(KindInternal), res.Code)
}

func TestFail_WrappedOpErrorSurvives(t *testing.T) {
	err := fmt.Errorf("outer: %w", E(KindUserNotFound, "user_profile", "gone"))
	res := Fail(err)
	assert.Equal(t, "USER_NOT_FOUND", res.Code)
}

func TestResultEnvelopeShape(t *testing.T) {
	blob, err := json.Marshal(OKMsg(map[string]int{"count": 3}, "done"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":{"count":3},"message":"done"}`, string(blob))

	blob, err = json.Marshal(Fail(E(KindFeedNotFound, "search", "no results")))
	require.NoError(t, err)
	assert.Contains(t, string(blob), `"success":false`)
	assert.Contains(t, string(blob), `"code":"FEED_NOT_FOUND"`)
}
