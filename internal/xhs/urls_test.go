// File: internal/xhs/urls_test.go
package xhs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNoteURL(t *testing.T) {
	t.Run("explore url with token", func(t *testing.T) {
		ref, err := ParseNoteURL("https://www.xiaohongshu.com/explore/68e66fef0000000004023fdb?xsec_token=ABc9MCVT=&xsec_source=pc_feed")
		require.NoError(t, err)
		assert.Equal(t, "68e66fef0000000004023fdb", ref.ID)
		assert.Equal(t, "ABc9MCVT=", ref.XsecToken)
	})

	t.Run("discovery item url", func(t *testing.T) {
		ref, err := ParseNoteURL("https://www.xiaohongshu.com/discovery/item/68e66fef0000000004023fdb")
		require.NoError(t, err)
		assert.Equal(t, "68e66fef0000000004023fdb", ref.ID)
		assert.Empty(t, ref.XsecToken)
	})

	t.Run("bare note id", func(t *testing.T) {
		ref, err := ParseNoteURL("68e66fef0000000004023fdb")
		require.NoError(t, err)
		assert.Equal(t, "68e66fef0000000004023fdb", ref.ID)
	})

	t.Run("unrelated url fails", func(t *testing.T) {
		_, err := ParseNoteURL("https://www.xiaohongshu.com/search_result?keyword=x")
		assert.Error(t, err)
	})
}

func TestNoteURL(t *testing.T) {
	t.Run("with token", func(t *testing.T) {
		got := NoteURL("https://www.xiaohongshu.com", "abc", "tok=en")
		assert.Equal(t, "https://www.xiaohongshu.com/explore/abc?xsec_token=tok%3Den&xsec_source=pc_feed", got)
	})
	t.Run("without token", func(t *testing.T) {
		got := NoteURL("https://www.xiaohongshu.com/", "abc", "")
		assert.Equal(t, "https://www.xiaohongshu.com/explore/abc", got)
	})
}

func TestIsShortLink(t *testing.T) {
	assert.True(t, IsShortLink("http://xhslink.com/a/AbCdEf"))
	assert.True(t, IsShortLink("https://www.xhslink.com/a/AbCdEf"))
	assert.False(t, IsShortLink("https://www.xiaohongshu.com/explore/abc"))
	assert.False(t, IsShortLink("not a url ::"))
}

func TestSearchURL(t *testing.T) {
	got := SearchURL("https://www.xiaohongshu.com/search_result", "咖啡 拉花")
	assert.Equal(t, "https://www.xiaohongshu.com/search_result?keyword=%E5%92%96%E5%95%A1+%E6%8B%89%E8%8A%B1&source=web_explore_feed", got)
}

func TestProfileURLRoundTrip(t *testing.T) {
	base := "https://www.xiaohongshu.com/user/profile"
	u := ProfileURL(base, "5ff0e6410000000001008400")
	id, err := ParseProfileURL(u)
	require.NoError(t, err)
	assert.Equal(t, "5ff0e6410000000001008400", id)
}
