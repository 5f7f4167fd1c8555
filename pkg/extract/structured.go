package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/mo"

	"github.com/KonishchevDmitry/headlined/pkg/feed"
)

var ErrParseFailed = errors.New("unable to parse the feed")

type strategy func(item *element) mo.Option[string]

func textOf(name string) strategy {
	return func(item *element) mo.Option[string] {
		element, ok := item.Child(name, nil)
		if !ok {
			return mo.None[string]()
		}
		return nonEmpty(element.Text())
	}
}

func attrOf(name string, attr string, filter func(element *element) bool) strategy {
	return func(item *element) mo.Option[string] {
		element, ok := item.Child(name, func(element *element) bool {
			_, ok := element.attrs[attr]
			return ok && (filter == nil || filter(element))
		})
		if !ok {
			return mo.None[string]()
		}
		return nonEmpty(element.attrs[attr])
	}
}

func withRel(rel string) func(element *element) bool {
	return func(element *element) bool {
		return strings.EqualFold(strings.TrimSpace(element.attrs["rel"]), rel)
	}
}

func nonEmpty(value string) mo.Option[string] {
	value = strings.TrimSpace(value)
	if value == "" {
		return mo.None[string]()
	}
	return mo.Some(value)
}

type linkStrategy struct {
	strategy
	relative bool
}

var (
	titleStrategy = textOf("title")

	linkStrategies = []linkStrategy{
		{textOf("link"), true},
		{attrOf("link", "href", withRel("alternate")), true},
		{attrOf("link", "href", nil), true},
		{textOf("guid"), false},
		{textOf("id"), false},
	}

	dateStrategies = []strategy{
		textOf("pubDate"),
		textOf("published"),
		textOf("updated"),
		textOf("date"),
		textOf("issued"),
	}
)

// Structured parses RSS or Atom document using strict XML decoder. Documents with no items are considered as
// failed to parse.
func Structured(text string, meta Meta) ([]feed.Article, error) {
	document, err := parseTree(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}

	items := document.All("item")
	if len(items) == 0 {
		items = document.All("entry")
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: the document has no items", ErrParseFailed)
	}

	if len(items) > ItemLimit {
		items = items[:ItemLimit]
	}

	articles := make([]feed.Article, 0, len(items))
	for _, item := range items {
		articles = append(articles, structuredArticle(item, meta))
	}

	return articles, nil
}

func structuredArticle(item *element, meta Meta) feed.Article {
	links := make([]linkCandidate, 0, len(linkStrategies))
	for _, strategy := range linkStrategies {
		if value, ok := strategy.strategy(item).Get(); ok {
			links = append(links, linkCandidate{value: value, relative: strategy.relative})
		}
	}

	var dates []string
	for _, strategy := range dateStrategies {
		if value, ok := strategy(item).Get(); ok {
			dates = append(dates, value)
		}
	}

	return feed.Article{
		Title:     chooseTitle(titleStrategy(item).OrEmpty()),
		Link:      chooseLink(links, meta),
		Source:    meta.Source,
		Category:  meta.Category,
		Published: chooseDate(dates, meta),
		Method:    feed.Structured,
	}
}
