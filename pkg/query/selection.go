package query

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Map maps the selection elements skipping the ones for which mapper returns false.
func Map[T any](selection *goquery.Selection, mapper func(*goquery.Selection) (T, bool)) []T {
	var items []T

	selection.Each(func(i int, selection *goquery.Selection) {
		if item, ok := mapper(selection); ok {
			items = append(items, item)
		}
	})

	return items
}

func Attr(selection *goquery.Selection, name string) (string, bool) {
	value, ok := selection.Attr(name)
	if !ok {
		return "", false
	}

	value = strings.TrimSpace(value)
	return value, value != ""
}
