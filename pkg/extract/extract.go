package extract

import (
	"context"
	"time"

	logging "github.com/KonishchevDmitry/go-easy-logging"

	"github.com/KonishchevDmitry/headlined/pkg/feed"
	"github.com/KonishchevDmitry/headlined/pkg/parse"
	"github.com/KonishchevDmitry/headlined/pkg/url"
)

const ItemLimit = 25

// Meta describes where the document came from.
type Meta struct {
	Source   string
	Category feed.Category
	URL      string
	Time     time.Time
}

// Articles extracts articles from the fetched document: the document is sanitized and parsed strictly, with a
// regexp-based fallback for documents which can't be parsed.
func Articles(ctx context.Context, body string, meta Meta) []feed.Article {
	text := parse.SanitizeEntities(body)

	articles, err := Structured(text, meta)
	if err == nil {
		return articles
	}

	logging.L(ctx).Debugf("%s: %s. Falling back to lenient parsing.", meta.URL, err)
	return Fallback(text, meta)
}

type linkCandidate struct {
	value    string
	relative bool
}

// chooseLink returns the first candidate which is (or resolves to when it's allowed to be relative) an absolute
// HTTP(S) URL. The request URL is the last resort.
func chooseLink(candidates []linkCandidate, meta Meta) string {
	var base *url.URL
	if parsed, err := url.Resolve(nil, meta.URL); err == nil && parsed.IsAbs() {
		base = parsed
	}

	for _, candidate := range candidates {
		if candidate.value == "" {
			continue
		}

		if url.IsHTTP(candidate.value) {
			if resolved, err := url.Resolve(nil, candidate.value); err == nil {
				return resolved.String()
			}
			continue
		}

		if !candidate.relative || base == nil {
			continue
		}

		resolved, err := url.Resolve(base, candidate.value)
		if err != nil {
			continue
		}

		if link := resolved.String(); url.IsHTTP(link) {
			return link
		}
	}

	return meta.URL
}

func chooseTitle(value string) string {
	if title := parse.TrimText(value); title != "" {
		return title
	}
	return feed.UntitledPlaceholder
}

func chooseDate(values []string, meta Meta) time.Time {
	for _, value := range values {
		if value == "" {
			continue
		}
		if date, err := parse.Date(value); err == nil {
			return date
		}
	}
	return meta.Time
}
