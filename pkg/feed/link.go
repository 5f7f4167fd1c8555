package feed

import (
	"net/url"
)

var trackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "utm_id",
	"mc_cid", "mc_eid",
}

// CanonicalLink returns a deduplication key for the link: fragment and tracking query parameters are dropped and
// the rest of the query is re-encoded in sorted order. Links that can't be parsed are returned as is.
func CanonicalLink(link string) string {
	parsed, err := url.Parse(link)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return link
	}

	parsed.Fragment = ""
	parsed.RawFragment = ""

	query := parsed.Query()
	for _, param := range trackingParams {
		query.Del(param)
	}
	parsed.RawQuery = query.Encode()
	parsed.ForceQuery = false

	return parsed.String()
}

// Deduplicate keeps the first article for every canonical link. The input slice is not modified.
func Deduplicate(articles []Article) []Article {
	seen := make(map[string]struct{}, len(articles))
	result := make([]Article, 0, len(articles))

	for _, article := range articles {
		key := CanonicalLink(article.Link)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, article)
	}

	return result
}
