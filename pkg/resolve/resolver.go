package resolve

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"time"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/samber/mo"

	"github.com/KonishchevDmitry/headlined/internal/util"
	"github.com/KonishchevDmitry/headlined/pkg/cache"
	"github.com/KonishchevDmitry/headlined/pkg/discover"
	"github.com/KonishchevDmitry/headlined/pkg/extract"
	"github.com/KonishchevDmitry/headlined/pkg/feed"
	"github.com/KonishchevDmitry/headlined/pkg/fetch"
	"github.com/KonishchevDmitry/headlined/pkg/parse"
)

const DefaultDiscoveryTTL = 24 * time.Hour

type Fetcher interface {
	Fetch(ctx context.Context, url string, header http.Header) (*fetch.Response, error)
}

type Resolution struct {
	Articles  []feed.Article
	Status    Status
	Candidate string
}

// Resolver finds a working endpoint for a source and fetches its articles. Feed links discovered on homepages are
// remembered across resolutions.
type Resolver struct {
	fetcher    Fetcher
	options    options
	discovered *cache.Cache[string]
}

func New(fetcher Fetcher, opts ...Option) *Resolver {
	options := options{
		discoveryTTL: DefaultDiscoveryTTL,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &Resolver{
		fetcher:    fetcher,
		options:    options,
		discovered: cache.New[string](options.discoveryTTL),
	}
}

// Resolve never fails: a source without working candidates resolves to no articles.
func (r *Resolver) Resolve(ctx context.Context, source feed.Source) Resolution {
	state := &resolution{
		Resolver: r,
		source:   source,
		visited:  make(map[string]struct{}),
		bodies:   make(map[string]string),
		status:   StatusEmpty,
	}

	for _, candidate := range source.Candidates {
		if resolution, ok := state.follow(ctx, candidate).Get(); ok {
			return resolution
		}
	}

	if len(source.Candidates) == 1 && !looksLikeFeed(source.Candidates[0]) {
		homepage := source.Candidates[0]
		if link, ok := state.lastResortLink(ctx, homepage).Get(); ok {
			logging.L(ctx).Infof("Trying %s as a last resort for %q.", link, source.Name)
			if resolution, ok := state.follow(ctx, link).Get(); ok {
				return resolution
			}
		}
	}

	logging.L(ctx).Warnf("Unable to get any articles from %q (%s).", source.Name, state.status)
	return Resolution{Status: state.status}
}

var feedPathRe = regexp.MustCompile(`(?i)/(rss|feed)`)

func looksLikeFeed(url string) bool {
	return feedPathRe.MatchString(url)
}

type resolution struct {
	*Resolver
	source  feed.Source
	visited map[string]struct{}
	bodies  map[string]string
	status  Status
}

// follow fetches the URL and then the chain of endpoints derived from it (a known mirror or a discovered feed link)
// until one of them gives articles. Every URL is fetched at most once.
func (r *resolution) follow(ctx context.Context, url string) mo.Option[Resolution] {
	next := mo.Some(url)

	for {
		url, ok := next.Get()
		if !ok {
			return mo.None[Resolution]()
		} else if _, ok := r.visited[url]; ok {
			return mo.None[Resolution]()
		}

		outcome := r.attempt(ctx, url)
		r.status = outcome.status()
		next = mo.None[string]()

		switch outcome.kind {
		case outcomeItems:
			method := ""
			if outcome.articles[0].Method == feed.Fallback {
				method = " [fallback]"
			}
			logging.L(ctx).Infof("Fetched %d from %q (%s)%s.", len(outcome.articles), r.source.Name, url, method)

			return mo.Some(Resolution{
				Articles:  outcome.articles,
				Status:    StatusOK,
				Candidate: url,
			})

		case outcomeBlocked:
			if !looksLikeFeed(url) {
				if mirror, ok := feed.MirrorFor(url); ok {
					logging.L(ctx).Infof("%q is blocked at %s. Trying %s mirror...", r.source.Name, url, mirror)
					next = mo.Some(mirror)
					continue
				}
			}
			logging.L(ctx).Infof("Got a block page for %q at %s.", r.source.Name, url)

		case outcomeEmpty:
			if !looksLikeFeed(url) {
				if link, ok := discover.FeedLink(ctx, outcome.body, url).Get(); ok {
					if _, ok := r.visited[link]; !ok {
						logging.L(ctx).Infof("Discovered feed for %q: %s.", r.source.Name, link)
						r.discovered.Add(ctx, url, link)
						next = mo.Some(link)
						continue
					}
				}
			}
			logging.L(ctx).Infof("No articles from %q (%s).", r.source.Name, url)

		case outcomeNetworkError:
			if util.IsTemporaryError(outcome.err) || ctx.Err() != nil {
				logging.L(ctx).Warnf("%q: %s.", r.source.Name, outcome.err)
			} else {
				logging.L(ctx).Errorf("%q: %s.", r.source.Name, outcome.err)
			}
		}
	}
}

// lastResortLink discovers a feed link for the homepage using its body fetched during this resolution or the link
// learned during the previous ones. The homepage is never fetched again.
func (r *resolution) lastResortLink(ctx context.Context, homepage string) mo.Option[string] {
	isNew := func(link string) bool {
		_, ok := r.visited[link]
		return !ok
	}

	if body, ok := r.bodies[homepage]; ok {
		if link, ok := discover.FeedLink(ctx, body, homepage).Get(); ok && isNew(link) {
			return mo.Some(link)
		}
	}

	if link, ok := r.discovered.Get(ctx, homepage); ok && isNew(link) {
		return mo.Some(link)
	}

	return mo.None[string]()
}

func (r *resolution) attempt(ctx context.Context, url string) fetchOutcome {
	if len(r.visited) != 0 && r.options.retryDelay > 0 {
		select {
		case <-time.After(r.options.retryDelay):
		case <-ctx.Done():
			return fetchOutcome{kind: outcomeNetworkError, err: ctx.Err()}
		}
	}
	r.visited[url] = struct{}{}

	fetchTime := r.options.now()
	response, err := r.fetcher.Fetch(ctx, url, nil)
	if err != nil {
		// Bot challenges are often served with 403 or 503
		var statusErr *fetch.StatusError
		if errors.As(err, &statusErr) && parse.IsBlockPage(statusErr.Body) {
			r.bodies[url] = statusErr.Body
			return fetchOutcome{kind: outcomeBlocked, body: statusErr.Body}
		}
		return fetchOutcome{kind: outcomeNetworkError, err: err}
	}

	body := response.Body
	r.bodies[url] = body

	if parse.IsBlockPage(body) {
		return fetchOutcome{kind: outcomeBlocked, body: body}
	}

	articles := extract.Articles(ctx, body, extract.Meta{
		Source:   r.source.Name,
		Category: r.source.Category,
		URL:      url,
		Time:     fetchTime,
	})
	if len(articles) == 0 {
		return fetchOutcome{kind: outcomeEmpty, body: body}
	}

	return fetchOutcome{kind: outcomeItems, articles: articles, body: body}
}
