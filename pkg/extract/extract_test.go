package extract

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/stretchr/testify/require"

	"github.com/KonishchevDmitry/headlined/pkg/feed"
	"github.com/KonishchevDmitry/headlined/pkg/test/testutil"
)

var testMeta = Meta{
	Source:   "Example",
	Category: feed.World,
	URL:      "https://example.com/news/rss",
	Time:     time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
}

func TestStructuredRSS(t *testing.T) {
	t.Parallel()

	articles, err := Structured(heredoc.Doc(`
		<?xml version="1.0" encoding="UTF-8"?>
		<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
			<channel>
				<title>Example</title>
				<link>https://example.com/</link>
				<item>
					<title>  First
						article </title>
					<link>https://example.com/first?utm_source=rss</link>
					<pubDate>Tue, 10 Jun 2025 10:00:00 GMT</pubDate>
				</item>
				<item>
					<title><![CDATA[Second & last]]></title>
					<link>/second</link>
					<dc:date>2025-06-09T08:30:00Z</dc:date>
				</item>
				<item>
					<link>tag:example.com,2025:3</link>
					<guid>https://example.com/third</guid>
				</item>
			</channel>
		</rss>
	`), testMeta)
	require.NoError(t, err)

	require.Equal(t, []feed.Article{{
		Title:     "First article",
		Link:      "https://example.com/first?utm_source=rss",
		Source:    "Example",
		Category:  feed.World,
		Published: time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC),
		Method:    feed.Structured,
	}, {
		Title:     "Second & last",
		Link:      "https://example.com/second",
		Source:    "Example",
		Category:  feed.World,
		Published: time.Date(2025, 6, 9, 8, 30, 0, 0, time.UTC),
		Method:    feed.Structured,
	}, {
		Title:     feed.UntitledPlaceholder,
		Link:      "https://example.com/third",
		Source:    "Example",
		Category:  feed.World,
		Published: testMeta.Time,
		Method:    feed.Structured,
	}}, normalizeDates(articles))
}

func TestStructuredAtom(t *testing.T) {
	t.Parallel()

	articles, err := Structured(heredoc.Doc(`
		<?xml version="1.0" encoding="utf-8"?>
		<feed xmlns="http://www.w3.org/2005/Atom">
			<title>Example</title>
			<entry>
				<title>With alternate link</title>
				<link rel="self" href="https://example.com/self/1"/>
				<link rel="alternate" href="https://example.com/1"/>
				<id>urn:uuid:1</id>
				<published>2025-06-08T10:00:00+02:00</published>
				<updated>2025-06-09T10:00:00+02:00</updated>
			</entry>
			<entry>
				<title>With plain link</title>
				<link href="2"/>
				<updated>2025-06-09T10:00:00Z</updated>
			</entry>
			<entry>
				<title>Without link</title>
				<id>urn:uuid:3</id>
			</entry>
		</feed>
	`), testMeta)
	require.NoError(t, err)
	require.Len(t, articles, 3)

	require.Equal(t, "https://example.com/1", articles[0].Link)
	require.Equal(t, time.Date(2025, 6, 8, 8, 0, 0, 0, time.UTC), articles[0].Published.UTC())

	require.Equal(t, "https://example.com/news/2", articles[1].Link)
	require.Equal(t, time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC), articles[1].Published.UTC())

	require.Equal(t, testMeta.URL, articles[2].Link)
	require.Equal(t, testMeta.Time, articles[2].Published)
}

func TestStructuredPrefersOwnFields(t *testing.T) {
	t.Parallel()

	articles, err := Structured(heredoc.Doc(`
		<?xml version="1.0" encoding="utf-8"?>
		<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
			<channel>
				<item>
					<media:title>Video caption</media:title>
					<title>RSS headline</title>
					<link>https://example.com/rss/1</link>
				</item>
				<item>
					<media:title>Only caption</media:title>
					<link>https://example.com/rss/2</link>
				</item>
			</channel>
		</rss>
	`), testMeta)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	require.Equal(t, "RSS headline", articles[0].Title)
	require.Equal(t, "Only caption", articles[1].Title)

	articles, err = Structured(heredoc.Doc(`
		<?xml version="1.0" encoding="utf-8"?>
		<feed xmlns="http://www.w3.org/2005/Atom">
			<entry>
				<source>
					<title>Original feed</title>
					<link href="https://origin.example.com/"/>
					<updated>2020-01-01T00:00:00Z</updated>
				</source>
				<title>Atom headline</title>
				<link href="https://example.com/atom/1"/>
			</entry>
		</feed>
	`), testMeta)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	require.Equal(t, "Atom headline", articles[0].Title)
	require.Equal(t, "https://example.com/atom/1", articles[0].Link)
	require.Equal(t, testMeta.Time, articles[0].Published)
}

func TestStructuredFailures(t *testing.T) {
	t.Parallel()

	for name, text := range map[string]string{
		"empty":    "",
		"html":     `<!DOCTYPE html><html><head><meta charset="utf-8"><title>Home</title></head><body></body></html>`,
		"no items": `<rss version="2.0"><channel><title>Empty</title></channel></rss>`,
		"entity":   `<rss version="2.0"><channel><item><title>a&nbsp;b</title></item></channel></rss>`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := Structured(text, testMeta)
			require.ErrorIs(t, err, ErrParseFailed)
		})
	}
}

func TestStructuredLimit(t *testing.T) {
	t.Parallel()

	articles, err := Structured(generateFeed(ItemLimit+10), testMeta)
	require.NoError(t, err)
	require.Len(t, articles, ItemLimit)
	require.Equal(t, "Article 0", articles[0].Title)
}

func TestFallback(t *testing.T) {
	t.Parallel()

	// Unclosed <br> makes the document invalid XML
	articles := Fallback(heredoc.Doc(`
		<rss version="2.0"><channel>
			<description>Broken<br></description>
			<item>
				<title><![CDATA[Caf&eacute; &amp; bar]]></title>
				<link>https://example.com/1</link>
				<pubDate>Mon, 09 Jun 2025 10:00:00 +0000</pubDate>
			</item>
			<ITEM>
				<title></title>
				<link>relative/2</link>
			</ITEM>
		</channel></rss>
	`), testMeta)

	require.Equal(t, []feed.Article{{
		Title:     "Café & bar",
		Link:      "https://example.com/1",
		Source:    "Example",
		Category:  feed.World,
		Published: time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC),
		Method:    feed.Fallback,
	}, {
		Title:     feed.UntitledPlaceholder,
		Link:      "https://example.com/news/relative/2",
		Source:    "Example",
		Category:  feed.World,
		Published: testMeta.Time,
		Method:    feed.Fallback,
	}}, normalizeDates(articles))
}

func TestFallbackAtom(t *testing.T) {
	t.Parallel()

	articles := Fallback(heredoc.Doc(`
		<feed xmlns="http://www.w3.org/2005/Atom"><hr>
			<entry>
				<title type="html">Atom &lt;entry&gt;</title>
				<link rel="self" href="https://example.com/self"/>
				<link rel="alternate" type="text/html" href="https://example.com/entry"/>
				<updated>2025-06-09T10:00:00Z</updated>
			</entry>
		</feed>
	`), testMeta)
	require.Len(t, articles, 1)

	article := articles[0]
	require.Equal(t, "Atom <entry>", article.Title)
	require.Equal(t, "https://example.com/entry", article.Link)
	require.Equal(t, time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC), article.Published.UTC())
}

func TestFallbackLimit(t *testing.T) {
	t.Parallel()
	require.Len(t, Fallback(generateFeed(ItemLimit*2), testMeta), ItemLimit)
	require.Empty(t, Fallback("<html><body>Nothing here</body></html>", testMeta))
}

func TestArticlesSanitizesEntities(t *testing.T) {
	t.Parallel()

	document := heredoc.Doc(`
		<?xml version="1.0" encoding="UTF-8"?>
		<rss version="2.0"><channel>
			<item>
				<title>Hello&nbsp;World &mdash; again</title>
				<link>https://example.com/hello</link>
			</item>
		</channel></rss>
	`)

	_, err := Structured(document, testMeta)
	require.ErrorIs(t, err, ErrParseFailed)

	articles := Articles(testutil.Context(t), document, testMeta)
	require.Len(t, articles, 1)
	require.Equal(t, "Hello World — again", articles[0].Title)
	require.Equal(t, feed.Structured, articles[0].Method)
}

func TestArticlesFallsBack(t *testing.T) {
	t.Parallel()

	articles := Articles(testutil.Context(t), heredoc.Doc(`
		<rss version="2.0"><channel>
			<item><title>Broken <b>markup</title><link>https://example.com/broken</link></item>
		</channel></rss>
	`), testMeta)

	require.Len(t, articles, 1)
	require.Equal(t, "Broken <b>markup", articles[0].Title)
	require.Equal(t, feed.Fallback, articles[0].Method)

	require.Empty(t, Articles(testutil.Context(t), "", testMeta))
}

func generateFeed(count int) string {
	var builder strings.Builder
	builder.WriteString(`<rss version="2.0"><channel>`)
	for index := range count {
		_, _ = fmt.Fprintf(&builder, "<item><title>Article %d</title><link>https://example.com/%d</link></item>", index, index)
	}
	builder.WriteString(`</channel></rss>`)
	return builder.String()
}

func normalizeDates(articles []feed.Article) []feed.Article {
	for index := range articles {
		articles[index].Published = articles[index].Published.UTC()
	}
	return articles
}
