// File: internal/xhs/cdn_test.go
package xhs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriteImageURL(t *testing.T) {
	t.Run("rendition url is rewritten to direct form", func(t *testing.T) {
		in := "http://sns-webpic-qc.xhscdn.com/202601151230/abcdef/1040g008312345!nd_dft_wlteh_webp_3"
		assert.Equal(t, "https://sns-img-qc.xhscdn.com/1040g008312345", RewriteImageURL(in))
	})

	t.Run("already direct url keeps its trace id", func(t *testing.T) {
		in := "https://sns-img-qc.xhscdn.com/1040g008312345"
		assert.Equal(t, "https://sns-img-qc.xhscdn.com/1040g008312345", RewriteImageURL(in))
	})

	t.Run("non cdn url passes through", func(t *testing.T) {
		in := "https://example.com/image.png"
		assert.Equal(t, in, RewriteImageURL(in))
	})
}

func TestImageExt(t *testing.T) {
	assert.Equal(t, "png", ImageExt("https://sns-img-qc.xhscdn.com/x.png"))
	assert.Equal(t, "webp", ImageExt("https://sns-img-qc.xhscdn.com/x.webp"))
	assert.Equal(t, "jpg", ImageExt("https://sns-img-qc.xhscdn.com/1040g008312345"))
	assert.Equal(t, "jpg", ImageExt("://bad"))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a_b", SanitizeFilename("a/b"))
	assert.Equal(t, "咖啡日记", SanitizeFilename(" 咖啡日记 "))
	assert.Equal(t, "unknown", SanitizeFilename("  "))
	assert.Equal(t, "c__d", SanitizeFilename("c:*d"))
}
