// File: internal/xhs/cdn.go
package xhs

import (
	"net/url"
	"path"
	"strings"
)

// The image URLs embedded in page state point at resized, format-negotiated
// renditions (a "!nd_dft_..." suffix selects the variant) that are prone to
// 403s outside a browser session. The original asset is addressable by its
// trace ID on the plain image CDN, so downloads rewrite to that form.
const imageCDNBase = "https://sns-img-qc.xhscdn.com"

// RewriteImageURL converts a rendition URL into the stable direct-access
// form. URLs that do not look like XHS CDN image URLs pass through
// unchanged.
func RewriteImageURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if !strings.Contains(u.Hostname(), "xhscdn.com") {
		return raw
	}

	segment := path.Base(u.Path)
	// Strip the rendition suffix: "1040g00831...!nd_dft_wlteh_webp_3".
	if i := strings.IndexByte(segment, '!'); i >= 0 {
		segment = segment[:i]
	}
	if segment == "" || segment == "/" || segment == "." {
		return raw
	}
	return imageCDNBase + "/" + segment
}

// ImageExt guesses a file extension for a CDN image URL. The direct-access
// form carries no extension, in which case jpg is assumed.
func ImageExt(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "jpg"
	}
	switch strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), ".")) {
	case "png":
		return "png"
	case "webp":
		return "webp"
	case "gif":
		return "gif"
	case "jpeg", "jpg":
		return "jpg"
	default:
		return "jpg"
	}
}
