package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/KonishchevDmitry/headlined/pkg/feed"
)

var (
	itemBlockRe  = blockRegexp("item")
	entryBlockRe = blockRegexp("entry")

	fieldRes = map[string]*regexp.Regexp{}

	hrefRe          = regexp.MustCompile(`(?is)<link\b[^>]*?\bhref\s*=\s*["']([^"']+)["']`)
	alternateHrefRe = regexp.MustCompile(`(?is)<link\b[^>]*?\brel\s*=\s*["']alternate["'][^>]*?\bhref\s*=\s*["']([^"']+)["']`)
	cdataRe         = regexp.MustCompile(`(?s)^\s*<!\[CDATA\[(.*?)\]\]>\s*$`)
)

var (
	fallbackLinkFields = []string{"link", "guid", "id"}
	fallbackDateFields = []string{"pubDate", "published", "updated", "dc:date", "date", "issued"}
)

func init() {
	for _, name := range append(append([]string{"title"}, fallbackLinkFields...), fallbackDateFields...) {
		fieldRes[name] = regexp.MustCompile(`(?is)<` + regexp.QuoteMeta(name) + `(?:\s[^>]*)?>(.*?)</` +
			regexp.QuoteMeta(name) + `\s*>`)
	}
}

func blockRegexp(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?is)<` + name + `(?:\s[^>]*)?>(.*?)</` + name + `\s*>`)
}

// Fallback extracts articles from documents which are not well-formed XML using regular expressions. Only RSS
// items are looked for first, then Atom entries.
func Fallback(text string, meta Meta) []feed.Article {
	blocks := itemBlockRe.FindAllStringSubmatch(text, ItemLimit)
	if len(blocks) == 0 {
		blocks = entryBlockRe.FindAllStringSubmatch(text, ItemLimit)
	}

	articles := make([]feed.Article, 0, len(blocks))
	for _, block := range blocks {
		articles = append(articles, fallbackArticle(block[1], meta))
	}

	return articles
}

func fallbackArticle(block string, meta Meta) feed.Article {
	links := []linkCandidate{
		{value: fallbackField(block, "link"), relative: true},
		{value: fallbackAttr(block, alternateHrefRe), relative: true},
		{value: fallbackAttr(block, hrefRe), relative: true},
		{value: fallbackField(block, "guid")},
		{value: fallbackField(block, "id")},
	}

	dates := make([]string, 0, len(fallbackDateFields))
	for _, name := range fallbackDateFields {
		dates = append(dates, fallbackField(block, name))
	}

	return feed.Article{
		Title:     chooseTitle(fallbackField(block, "title")),
		Link:      chooseLink(links, meta),
		Source:    meta.Source,
		Category:  meta.Category,
		Published: chooseDate(dates, meta),
		Method:    feed.Fallback,
	}
}

func fallbackField(block string, name string) string {
	match := fieldRes[name].FindStringSubmatch(block)
	if match == nil {
		return ""
	}

	value := match[1]
	if cdata := cdataRe.FindStringSubmatch(value); cdata != nil {
		value = cdata[1]
	}

	return strings.TrimSpace(html.UnescapeString(value))
}

func fallbackAttr(block string, re *regexp.Regexp) string {
	match := re.FindStringSubmatch(block)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(match[1]))
}
