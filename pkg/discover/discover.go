package discover

import (
	"bytes"
	"context"
	"io"
	"mime"
	"strings"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/PuerkitoBio/goquery"
	"github.com/samber/mo"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/KonishchevDmitry/headlined/pkg/parse"
	"github.com/KonishchevDmitry/headlined/pkg/query"
	"github.com/KonishchevDmitry/headlined/pkg/url"
)

const feedLinkSelector = `link[rel="alternate"][type*="rss"], ` +
	`link[type="application/rss+xml"], ` +
	`link[type="application/atom+xml"]`

// FeedLink looks for a feed advertised by the HTML page and returns its absolute URL.
func FeedLink(ctx context.Context, body string, pageURL string) mo.Option[string] {
	links := Links(ctx, body, pageURL)
	if len(links) == 0 {
		return mo.None[string]()
	}
	return mo.Some(links[0])
}

// Links returns all feed links advertised by the HTML page in document order. Block pages advertise nothing.
func Links(ctx context.Context, body string, pageURL string) []string {
	if body == "" || parse.IsBlockPage(body) {
		return nil
	}

	base, err := url.Resolve(nil, pageURL)
	if err != nil {
		logging.L(ctx).Warnf("Unable to discover feed links on %q page: %s.", pageURL, err)
		return nil
	}

	doc, err := document(ctx, body, pageURL)
	if err != nil {
		logging.L(ctx).Warnf("Unable to parse %q page: %s.", pageURL, err)
		return nil
	}

	return query.Map(doc.Find(feedLinkSelector), func(selection *goquery.Selection) (string, bool) {
		href, ok := query.Attr(selection, "href")
		if !ok {
			return "", false
		}

		resolved, err := url.Resolve(base, href)
		if err != nil {
			logging.L(ctx).Debugf("%q page advertises an invalid feed link: %s.", pageURL, err)
			return "", false
		}

		link := resolved.String()
		return link, url.IsHTTP(link)
	})
}

func document(ctx context.Context, body string, pageURL string) (*goquery.Document, error) {
	data := []byte(body)

	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	if encoding, ok := htmlCharset(ctx, doc, pageURL); ok && encoding != "utf-8" && encoding != "utf8" {
		charsetReader, err := charset.NewReaderLabel(encoding, bytes.NewReader(data))
		if err != nil {
			logging.L(ctx).Debugf("%q page has an unknown charset encoding: %q.", pageURL, encoding)
			return goquery.NewDocumentFromNode(doc), nil
		}

		if data, err = io.ReadAll(charsetReader); err != nil {
			return nil, err
		}

		if doc, err = html.Parse(bytes.NewReader(data)); err != nil {
			return nil, err
		}
	}

	return goquery.NewDocumentFromNode(doc), nil
}

func htmlCharset(ctx context.Context, doc *html.Node, pageURL string) (string, bool) {
	node, ok := findHTMLNode(doc, "html")
	if ok {
		node, ok = findHTMLNode(node, "head")
	}
	if !ok {
		return "", false
	}

	var (
		charset       mo.Option[string]
		isHTTPCharset = true
	)

	for node := node.FirstChild; node != nil; node = node.NextSibling {
		if node.Type != html.ElementNode || node.Data != "meta" {
			continue
		}

		attrs := make(map[string]string)
		for _, attr := range node.Attr {
			attrs[strings.ToLower(attr.Key)] = strings.ToLower(attr.Val)
		}

		if attrs["http-equiv"] == "content-type" {
			if _, params, err := mime.ParseMediaType(attrs["content"]); err != nil {
				logging.L(ctx).Debugf(
					`Got an invalid content type of %q from <meta http-equiv="Content-Type"> tag: %q.`,
					pageURL, attrs["content"])
			} else if encoding := params["charset"]; encoding != "" && isHTTPCharset {
				charset = mo.Some(encoding)
			}
		}

		if encoding := attrs["charset"]; encoding != "" {
			charset = mo.Some(encoding)
			isHTTPCharset = false
		}
	}

	return charset.Get()
}

func findHTMLNode(node *html.Node, name string) (*html.Node, bool) {
	for node = node.FirstChild; node != nil; node = node.NextSibling {
		if node.Type == html.ElementNode && node.Data == name {
			return node, true
		}
	}
	return nil, false
}
