package url

import (
	"fmt"
	"net/url"
	"strings"
)

type URL = url.URL

func MustParse(value string) *url.URL {
	url, err := url.Parse(value)
	if err != nil {
		panic(fmt.Sprintf("Invalid URL: %s", value))
	}
	return url
}

// Resolve resolves a possibly relative link against the base URL.
func Resolve(base *url.URL, link string) (*url.URL, error) {
	link = strings.TrimSpace(link)

	url, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("got an invalid link: %q", link)
	}

	if base == nil || url.IsAbs() {
		return url, nil
	}

	return base.ResolveReference(url), nil
}

// IsHTTP checks whether the link is an absolute HTTP(S) URL.
func IsHTTP(link string) bool {
	url, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return false
	}

	scheme := strings.ToLower(url.Scheme)
	return (scheme == "http" || scheme == "https") && url.Host != ""
}
