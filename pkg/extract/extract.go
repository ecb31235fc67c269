// Package extract pulls embedded image references out of rendered post HTML.
package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Images returns the normalized src of every <img> in fragment, in document
// order. Duplicates are kept and empty src attributes are skipped. Markup that
// cannot be parsed yields no references.
func Images(fragment, baseURL string) []string {
	if strings.TrimSpace(fragment) == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil
	}

	var refs []string
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, exists := s.Attr("src")
		src = strings.TrimSpace(src)
		if !exists || src == "" {
			return
		}
		refs = append(refs, Normalize(src, baseURL))
	})
	return refs
}

// Normalize turns an image reference into an absolute locator:
// "//host/x" gets an https scheme, "/x" is resolved against the scheme and
// host of baseURL, and everything else passes through unchanged.
func Normalize(ref, baseURL string) string {
	switch {
	case strings.HasPrefix(ref, "//"):
		return "https:" + ref
	case strings.HasPrefix(ref, "/"):
		return resolve(ref, baseURL)
	default:
		return ref
	}
}

func resolve(ref, baseURL string) string {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return strings.TrimRight(baseURL, "/") + ref
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return base.Scheme + "://" + base.Host + ref
	}
	return base.ResolveReference(rel).String()
}
