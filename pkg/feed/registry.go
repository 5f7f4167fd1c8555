package feed

import (
	"regexp"
	"slices"
)

var defaultSources = []Source{
	// US
	{Name: "BBC (US & Canada)", Category: US, Candidates: []string{
		"http://feeds.bbci.co.uk/news/world/us_and_canada/rss.xml",
	}},
	{Name: "The Guardian (US)", Category: US, Candidates: []string{
		"https://www.theguardian.com/us-news/rss",
	}},
	{Name: "The Independent (US)", Category: US, Candidates: []string{
		"https://www.independent.co.uk/topic/us/rss",
	}},
	{Name: "POLITICO (Politics)", Category: US, Candidates: []string{
		"https://rss.politico.com/politics-news.xml",
		"https://www.politico.com/rss/politics-news.xml",
		"https://www.politico.com/rss/politics08.xml",
	}},
	{Name: "Racket News", Category: US, Candidates: []string{
		"https://www.racket.news/feed",
	}},
	{Name: "FfF Online (Reports)", Category: US, Candidates: []string{
		"https://foundationforfreedomonline.com/category/reports/feed/",
	}},
	{Name: "Reuters (US)", Category: US, Candidates: []string{
		"https://feeds.reuters.com/reuters/USNews",
		"https://feeds.reuters.com/Reuters/USNews",
	}},

	// World
	{Name: "BBC (World)", Category: World, Candidates: []string{
		"http://feeds.bbci.co.uk/news/world/rss.xml",
	}},
	{Name: "The Guardian (World)", Category: World, Candidates: []string{
		"https://www.theguardian.com/world/rss",
	}},
	{Name: "The Independent (World)", Category: World, Candidates: []string{
		"https://www.independent.co.uk/news/world/rss",
	}},
	{Name: "Popular Resistance", Category: World, Candidates: []string{
		"https://popularresistance.org/feed/",
	}},
	{Name: "Bellingcat", Category: World, Candidates: []string{
		"https://www.bellingcat.com/feed/",
	}},
	{Name: "The Grayzone", Category: World, Candidates: []string{
		"https://thegrayzone.com/feed/",
		"https://thegrayzone.com/category/news/feed/",
	}},
	{Name: "Reuters (World)", Category: World, Candidates: []string{
		"https://feeds.reuters.com/reuters/worldNews",
		"https://feeds.reuters.com/Reuters/worldNews",
	}},
	{Name: "WSJ (World)", Category: World, Candidates: []string{
		"https://feeds.a.dj.com/rss/RSSWorldNews.xml",
	}},

	// Cybersecurity
	{Name: "Dark Reading", Category: Cyber, Candidates: []string{
		"https://www.darkreading.com/rss.xml",
	}},
	{Name: "The Hacker News", Category: Cyber, Candidates: []string{
		"https://thehackernews.com/feeds/posts/default?alt=rss",
	}},
	{Name: "Cybersecurity Hub", Category: Cyber, Candidates: []string{
		"https://www.cshub.com/rss.xml",
		"https://cshub.com/rss.xml",
	}},
	{Name: "The Hill (Cyber)", Category: Cyber, Candidates: []string{
		"https://thehill.com/policy/cybersecurity/feed/",
	}},
}

// DefaultSources returns a copy of the built-in source catalog.
func DefaultSources() []Source {
	sources := make([]Source, 0, len(defaultSources))
	for _, source := range defaultSources {
		source.Candidates = slices.Clone(source.Candidates)
		sources = append(sources, source)
	}
	return sources
}

type mirror struct {
	section *regexp.Regexp
	feed    string
}

// Section pages which are known to serve a bot challenge, mapped to their direct feed mirrors. Order matters: the
// most specific section goes first.
var mirrors = []mirror{{
	section: regexp.MustCompile(`(?i)reuters\.com/world/us/?$`),
	feed:    "https://feeds.reuters.com/reuters/USNews",
}, {
	section: regexp.MustCompile(`(?i)reuters\.com/world/?$`),
	feed:    "https://feeds.reuters.com/reuters/worldNews",
}}

func MirrorFor(url string) (string, bool) {
	for _, mirror := range mirrors {
		if mirror.section.MatchString(url) {
			return mirror.feed, true
		}
	}
	return "", false
}
