package web

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
)

// skipTags hold no readable content.
var skipTags = map[string]bool{
	"script": true, "style": true, "nav": true,
	"header": true, "footer": true, "aside": true,
	"noscript": true, "iframe": true, "template": true,
	"title": true,
}

// metaNames are <meta name=...> values kept as page fields.
var metaNames = map[string]bool{
	"description": true,
	"keywords":    true,
	"author":      true,
}

// analyseHTML extracts title, text, metadata and the favicon link of a page.
// FavIconURI holds the raw icon href until the caller resolves it.
func analyseHTML(body []byte) (*domain.ExtractedPage, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	page := &domain.ExtractedPage{Meta: make(map[string]string)}
	var text strings.Builder
	var bodyNode *html.Node

	var walk func(n *html.Node, inBody bool)
	walk = func(n *html.Node, inBody bool) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "html":
				if lang := attr(n, "lang"); lang != "" {
					page.Meta["lang"] = lang
				}
			case "body":
				bodyNode = n
				inBody = true
			case "title":
				if page.Title == "" && n.FirstChild != nil {
					page.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				name := strings.ToLower(attr(n, "name"))
				if metaNames[name] {
					page.Meta[name] = strings.TrimSpace(attr(n, "content"))
				}
			case "link":
				for _, rel := range strings.Fields(strings.ToLower(attr(n, "rel"))) {
					switch rel {
					case "icon":
						if page.FavIconURI == "" {
							page.FavIconURI = attr(n, "href")
						}
					case "canonical":
						page.Meta["canonicalUrl"] = attr(n, "href")
					}
				}
			}
			if skipTags[n.Data] {
				return
			}
		}

		if n.Type == html.TextNode && inBody {
			if t := strings.TrimSpace(n.Data); t != "" {
				text.WriteString(t)
				text.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inBody)
		}
	}
	walk(doc, false)

	page.FullText = strings.Join(strings.Fields(text.String()), " ")

	if bodyNode != nil {
		var buf bytes.Buffer
		if err := html.Render(&buf, bodyNode); err == nil {
			page.HTMLBody = buf.String()
		}
	}
	return page, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}
