package test

import (
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/KonishchevDmitry/headlined/pkg/feed"
	"github.com/KonishchevDmitry/headlined/pkg/fetch"
	"github.com/KonishchevDmitry/headlined/pkg/resolve"
	"github.com/KonishchevDmitry/headlined/pkg/test/testutil"
)

// LiveEnv enables tests which resolve real sources over the network.
const LiveEnv = "HEADLINED_LIVE_TESTS"

// Source resolves the source using real network and checks the produced headlines.
func Source(t *testing.T, source feed.Source, opts ...SourceOption) {
	t.Parallel()

	if os.Getenv(LiveEnv) == "" {
		t.Skipf("%s is not set.", LiveEnv)
	}

	var options options
	for _, opt := range opts {
		opt(&options)
	}

	ctx := testutil.Context(t)
	ctx = fetch.WithContext(ctx, prometheus.NewHistogram(prometheus.HistogramOpts{}))

	resolution := resolve.New(fetch.New()).Resolve(ctx, source)
	if !options.mayBeEmpty {
		require.NotEmpty(t, resolution.Articles)
		require.Equal(t, resolve.StatusOK, resolution.Status)
	}

	for _, article := range resolution.Articles {
		require.NotEmpty(t, article.Title)
		require.Regexp(t, `^https?://`, article.Link)
		require.Equal(t, source.Name, article.Source)
		require.Equal(t, source.Category, article.Category)
	}
}

type options struct {
	mayBeEmpty bool
}

type SourceOption func(o *options)

// MayBeEmpty is for sources which are known to be blocked from time to time.
func MayBeEmpty() SourceOption {
	return func(o *options) {
		o.mayBeEmpty = true
	}
}
