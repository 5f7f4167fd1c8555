package aggregate

import (
	"bytes"
	"context"
	"math/rand/v2"
	"runtime/debug"
	"time"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/KonishchevDmitry/headlined/pkg/feed"
	"github.com/KonishchevDmitry/headlined/pkg/fetch"
	"github.com/KonishchevDmitry/headlined/pkg/resolve"
)

const MaxHeadlines = 200

type Resolver interface {
	Resolve(ctx context.Context, source feed.Source) resolve.Resolution
}

type Option func(o *options)

type options struct {
	concurrency   int
	fetchDuration *prometheus.HistogramVec
}

// Concurrency limits the number of sources which are resolved simultaneously.
func Concurrency(limit int) Option {
	return func(o *options) {
		o.concurrency = limit
	}
}

// FetchDuration makes fetches observe their duration labeled by source name.
func FetchDuration(histogram *prometheus.HistogramVec) Option {
	return func(o *options) {
		o.fetchDuration = histogram
	}
}

type Engine struct {
	resolver Resolver
	options  options
}

func New(resolver Resolver, opts ...Option) *Engine {
	var options options
	for _, opt := range opts {
		opt(&options)
	}
	return &Engine{
		resolver: resolver,
		options:  options,
	}
}

type SourceStats struct {
	Name      string
	Category  feed.Category
	Status    resolve.Status
	Articles  int
	Candidate string
	Duration  time.Duration
}

// Result is an immutable outcome of a refresh cycle.
type Result struct {
	Articles []feed.Article
	Sources  []SourceStats
	Time     time.Time
	Duration time.Duration
}

// RunCycle resolves all sources concurrently. A failure of one source never affects the others.
func (e *Engine) RunCycle(ctx context.Context, sources []feed.Source) *Result {
	logging.L(ctx).Infof("Fetching headlines from %d sources...", len(sources))

	startTime := time.Now()
	resolutions := make([]resolve.Resolution, len(sources))
	durations := make([]time.Duration, len(sources))

	var group errgroup.Group
	if e.options.concurrency > 0 {
		group.SetLimit(e.options.concurrency)
	}

	for index, source := range sources {
		group.Go(func() error {
			sourceStartTime := time.Now()
			resolutions[index] = e.resolve(ctx, source)
			durations[index] = time.Since(sourceStartTime)
			return nil
		})
	}
	_ = group.Wait()

	var articles []feed.Article
	stats := make([]SourceStats, 0, len(sources))

	for index, source := range sources {
		resolution := resolutions[index]
		articles = append(articles, resolution.Articles...)
		stats = append(stats, SourceStats{
			Name:      source.Name,
			Category:  source.Category,
			Status:    resolution.Status,
			Articles:  len(resolution.Articles),
			Candidate: resolution.Candidate,
			Duration:  durations[index],
		})
	}

	result := &Result{
		Articles: feed.Deduplicate(articles),
		Sources:  stats,
		Time:     time.Now(),
		Duration: time.Since(startTime),
	}

	logging.L(ctx).Infof("Got %d unique headlines (%d total) in %s.",
		len(result.Articles), len(articles), result.Duration.Round(time.Millisecond))

	return result
}

func (e *Engine) resolve(ctx context.Context, source feed.Source) (resolution resolve.Resolution) {
	if e.options.fetchDuration != nil {
		ctx = fetch.WithContext(ctx, e.options.fetchDuration.WithLabelValues(source.Name))
	}

	defer func() {
		if err := recover(); err != nil {
			stack := debug.Stack()
			logging.L(ctx).Errorf("Failed to resolve %q: it has panicked: %v\n%s",
				source.Name, err, bytes.TrimRight(stack, "\n"))
			resolution = resolve.Resolution{Status: resolve.StatusPanic}
		}
	}()

	return e.resolver.Resolve(ctx, source)
}

// Headlines returns deduplicated and fairly interleaved headlines of the category.
func (r *Result) Headlines(category feed.Category) []feed.Article {
	return r.headlines(category, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
}

func (r *Result) headlines(category feed.Category, rng *rand.Rand) []feed.Article {
	var articles []feed.Article
	for _, article := range r.Articles {
		if article.Category == category {
			articles = append(articles, article)
		}
	}

	articles = FairInterleave(feed.Deduplicate(articles), rng)
	if len(articles) > MaxHeadlines {
		articles = articles[:MaxHeadlines]
	}

	return articles
}
