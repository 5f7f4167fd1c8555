package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/stretchr/testify/require"

	"github.com/KonishchevDmitry/headlined/pkg/feed"
	"github.com/KonishchevDmitry/headlined/pkg/fetch"
	"github.com/KonishchevDmitry/headlined/pkg/test/testutil"
)

const blockPage = `<html><body><p>Please enable JS and disable any ad blocker</p></body></html>`

func rssFeed(base string, count int) string {
	items := ""
	for index := range count {
		items += fmt.Sprintf("<item><title>Article %d</title><link>%s/articles/%d</link></item>", index, base, index)
	}
	return `<?xml version="1.0"?><rss version="2.0"><channel><title>Feed</title>` + items + `</channel></rss>`
}

func homepage(feedLink string) string {
	return heredoc.Docf(`
		<!DOCTYPE html>
		<html><head>
			<title>Home</title>
			<link rel="alternate" type="application/rss+xml" href="%s">
		</head><body><p>News</p></body></html>
	`, feedLink)
}

type fakeFetcher struct {
	pages     map[string]string
	forbidden map[string]string
	fetched   []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, header http.Header) (*fetch.Response, error) {
	f.fetched = append(f.fetched, url)

	if body, ok := f.forbidden[url]; ok {
		return nil, &fetch.NetworkError{URL: url, Err: &fetch.StatusError{StatusCode: http.StatusForbidden, Body: body}}
	}

	body, ok := f.pages[url]
	if !ok {
		return nil, &fetch.NetworkError{URL: url, Err: errors.New("the server returned an error: 404 Not Found")}
	}

	return &fetch.Response{URL: url, StatusCode: http.StatusOK, Body: body}, nil
}

func TestResolveSkipsBlockedCandidate(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a":
			_, _ = io.WriteString(w, blockPage)
		case "/b":
			w.Header().Set("Content-Type", "application/rss+xml")
			_, _ = io.WriteString(w, rssFeed("https://example.com", 3))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	resolver := New(fetch.New())
	resolution := resolver.Resolve(testutil.Context(t), feed.Source{
		Name:       "Example",
		Category:   feed.World,
		Candidates: []string{server.URL + "/a", server.URL + "/b"},
	})

	require.Equal(t, StatusOK, resolution.Status)
	require.Equal(t, server.URL+"/b", resolution.Candidate)
	require.Len(t, resolution.Articles, 3)
	for index, article := range resolution.Articles {
		require.Equal(t, fmt.Sprintf("https://example.com/articles/%d", index), article.Link)
		require.Equal(t, "Example", article.Source)
		require.Equal(t, feed.World, article.Category)
		require.Equal(t, feed.Structured, article.Method)
	}
}

func TestResolveDiscoversFeed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			_, _ = io.WriteString(w, homepage("/news.xml"))
		case "/news.xml":
			_, _ = io.WriteString(w, rssFeed("https://example.com", 2))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	resolution := New(fetch.New()).Resolve(testutil.Context(t), feed.Source{
		Name:       "Example",
		Category:   feed.Cyber,
		Candidates: []string{server.URL + "/"},
	})

	require.Equal(t, StatusOK, resolution.Status)
	require.Equal(t, server.URL+"/news.xml", resolution.Candidate)
	require.Len(t, resolution.Articles, 2)
}

func TestResolveMirror(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://www.reuters.com/world/us/":        blockPage,
		"https://feeds.reuters.com/reuters/USNews": rssFeed("https://www.reuters.com", 1),
	}}

	resolution := New(fetcher).Resolve(testutil.Context(t), feed.Source{
		Name:       "Reuters (US)",
		Category:   feed.US,
		Candidates: []string{"https://www.reuters.com/world/us/", "https://feeds.reuters.com/reuters/USNews"},
	})

	require.Equal(t, StatusOK, resolution.Status)
	require.Equal(t, "https://feeds.reuters.com/reuters/USNews", resolution.Candidate)
	require.Len(t, resolution.Articles, 1)
	require.Equal(t, []string{"https://www.reuters.com/world/us/", "https://feeds.reuters.com/reuters/USNews"},
		fetcher.fetched)
}

func TestResolveMirrorsForbiddenChallenge(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{
		pages: map[string]string{
			"https://feeds.reuters.com/reuters/worldNews": rssFeed("https://www.reuters.com", 2),
		},
		forbidden: map[string]string{
			"https://www.reuters.com/world/": blockPage,
		},
	}

	resolution := New(fetcher).Resolve(testutil.Context(t), feed.Source{
		Name:       "Reuters (World)",
		Category:   feed.World,
		Candidates: []string{"https://www.reuters.com/world/"},
	})

	require.Equal(t, StatusOK, resolution.Status)
	require.Equal(t, "https://feeds.reuters.com/reuters/worldNews", resolution.Candidate)
	require.Len(t, resolution.Articles, 2)
}

func TestResolveForbiddenChallengeIsBlocked(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `<html><head><script src="https://ct.captcha-delivery.com/c.js"></script></head></html>`)
	}))
	defer server.Close()

	resolution := New(fetch.New()).Resolve(testutil.Context(t), feed.Source{
		Name:       "Example",
		Category:   feed.World,
		Candidates: []string{server.URL + "/world/"},
	})

	require.Equal(t, StatusBlocked, resolution.Status)
	require.Empty(t, resolution.Articles)
}

func TestResolveBlockedFeedIsNotMirrored(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://www.reuters.com/world/feed": blockPage,
	}}

	resolution := New(fetcher).Resolve(testutil.Context(t), feed.Source{
		Name:       "Reuters",
		Category:   feed.World,
		Candidates: []string{"https://www.reuters.com/world/feed"},
	})

	require.Equal(t, StatusBlocked, resolution.Status)
	require.Empty(t, resolution.Articles)
	require.Equal(t, []string{"https://www.reuters.com/world/feed"}, fetcher.fetched)
}

func TestResolveFetchesEveryURLOnce(t *testing.T) {
	t.Parallel()

	// Pages advertise each other and the second candidate repeats the first one
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://a.example.com/": homepage("https://b.example.com/"),
		"https://b.example.com/": homepage("https://a.example.com/"),
	}}

	resolution := New(fetcher).Resolve(testutil.Context(t), feed.Source{
		Name:       "Loop",
		Category:   feed.World,
		Candidates: []string{"https://a.example.com/", "https://a.example.com/", "https://b.example.com/"},
	})

	require.Equal(t, StatusEmpty, resolution.Status)
	require.Empty(t, resolution.Articles)
	require.Equal(t, []string{"https://a.example.com/", "https://b.example.com/"}, fetcher.fetched)
}

func TestResolveNetworkError(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/feed/2": rssFeed("https://example.com", 1),
	}}

	resolver := New(fetcher)

	resolution := resolver.Resolve(testutil.Context(t), feed.Source{
		Name:       "Example",
		Category:   feed.World,
		Candidates: []string{"https://example.com/feed/1", "https://example.com/feed/2"},
	})
	require.Equal(t, StatusOK, resolution.Status)
	require.Equal(t, "https://example.com/feed/2", resolution.Candidate)

	resolution = resolver.Resolve(testutil.Context(t), feed.Source{
		Name:       "Example",
		Category:   feed.World,
		Candidates: []string{"https://example.com/feed/1"},
	})
	require.Equal(t, Resolution{Status: StatusNetworkError}, resolution)
}

func TestResolveFallbackParser(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/rss": `<rss><channel><item><title>Broken <br> markup</title>` +
			`<link>https://example.com/1</link></item></channel></rss>`,
	}}

	resolution := New(fetcher).Resolve(testutil.Context(t), feed.Source{
		Name:       "Example",
		Category:   feed.World,
		Candidates: []string{"https://example.com/rss"},
	})

	require.Equal(t, StatusOK, resolution.Status)
	require.Len(t, resolution.Articles, 1)
	require.Equal(t, feed.Fallback, resolution.Articles[0].Method)
}

func TestResolveUsesPreviouslyDiscoveredLink(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/":         homepage("/news.xml"),
		"https://example.com/news.xml": rssFeed("https://example.com", 1),
	}}

	source := feed.Source{
		Name:       "Example",
		Category:   feed.World,
		Candidates: []string{"https://example.com/"},
	}

	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	resolver := New(fetcher, Clock(func() time.Time { return now }))

	resolution := resolver.Resolve(testutil.Context(t), source)
	require.Equal(t, "https://example.com/news.xml", resolution.Candidate)
	require.Equal(t, now, resolution.Articles[0].Published)

	// The homepage starts to serve a bot challenge
	fetcher.pages["https://example.com/"] = blockPage
	fetcher.fetched = nil

	resolution = resolver.Resolve(testutil.Context(t), source)
	require.Equal(t, StatusOK, resolution.Status)
	require.Equal(t, "https://example.com/news.xml", resolution.Candidate)
	require.Equal(t, []string{"https://example.com/", "https://example.com/news.xml"}, fetcher.fetched)
}

func TestResolveRetryDelay(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{}}
	resolver := New(fetcher, RetryDelay(time.Hour))

	ctx, cancel := context.WithTimeout(testutil.Context(t), 100*time.Millisecond)
	defer cancel()

	resolution := resolver.Resolve(ctx, feed.Source{
		Name:       "Example",
		Category:   feed.World,
		Candidates: []string{"https://example.com/feed/1", "https://example.com/feed/2"},
	})

	require.Equal(t, StatusNetworkError, resolution.Status)
	require.Equal(t, []string{"https://example.com/feed/1"}, fetcher.fetched)
}

func TestLooksLikeFeed(t *testing.T) {
	t.Parallel()

	for url, expected := range map[string]bool{
		"https://example.com/feed/":                     true,
		"https://example.com/RSS.xml":                   true,
		"https://example.com/news/world/rss.xml":        true,
		"https://thehackernews.com/feeds/posts/default": true,
		"https://www.reuters.com/world/":                false,
		"https://example.com/":                          false,
	} {
		require.Equal(t, expected, looksLikeFeed(url), url)
	}
}
