package sources

import (
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// OGPData is the page metadata read from Open Graph, Twitter card and plain HTML tags
type OGPData struct {
	Title         string
	Description   string
	Image         string
	SiteName      string
	Type          string
	URL           string
	Author        string
	PublishedTime string
	Favicon       string
}

// ParseOGP reads page metadata from an HTML document. Each field falls back
// independently: Open Graph, then Twitter card, then generic tags.
// Relative image and favicon URLs are resolved against baseURL.
func ParseOGP(r io.Reader, baseURL string) (*OGPData, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	doc := goquery.NewDocumentFromNode(root)

	meta := collectMeta(doc)
	data := &OGPData{
		Title:         firstNonEmpty(meta["og:title"], meta["twitter:title"]),
		Description:   firstNonEmpty(meta["og:description"], meta["twitter:description"], meta["description"]),
		Image:         firstNonEmpty(meta["og:image"], meta["twitter:image"]),
		SiteName:      meta["og:site_name"],
		Type:          meta["og:type"],
		URL:           meta["og:url"],
		Author:        meta["article:author"],
		PublishedTime: meta["article:published_time"],
	}

	if data.Title == "" {
		data.Title = cleanText(doc.Find("title").First().Text())
	}

	if data.Image != "" {
		data.Image = resolveURL(data.Image, baseURL)
	}

	if href := findIcon(doc); href != "" {
		data.Favicon = resolveURL(href, baseURL)
	} else {
		data.Favicon = defaultFavicon(baseURL)
	}

	return data, nil
}

// collectMeta indexes meta tags by their property or name, keeping the first non-empty value
func collectMeta(doc *goquery.Document) map[string]string {
	meta := make(map[string]string)
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content := cleanText(s.AttrOr("content", ""))
		if content == "" {
			return
		}
		for _, attr := range []string{"property", "name"} {
			key := strings.ToLower(strings.TrimSpace(s.AttrOr(attr, "")))
			if key == "" {
				continue
			}
			if _, seen := meta[key]; !seen {
				meta[key] = content
			}
		}
	})
	return meta
}

func findIcon(doc *goquery.Document) string {
	var href string
	doc.Find("link[rel][href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, token := range strings.Fields(strings.ToLower(s.AttrOr("rel", ""))) {
			if token == "icon" {
				href = strings.TrimSpace(s.AttrOr("href", ""))
				return href == ""
			}
		}
		return true
	})
	return href
}

// defaultFavicon returns {origin}/favicon.ico, or "" when pageURL has no host
func defaultFavicon(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/favicon.ico"
}

// resolveURL makes ref absolute against base; unresolvable refs are returned unchanged
func resolveURL(ref, base string) string {
	baseURL, err := url.Parse(base)
	if err != nil || !baseURL.IsAbs() {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

// cleanText trims text that the HTML parser has already entity-decoded.
// Non-breaking spaces become plain spaces.
func cleanText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
