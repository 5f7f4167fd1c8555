package browser

import (
	"net/url"

	"github.com/samber/mo"
)

type options struct {
	remote mo.Option[string]
}

type Option func(o *options)

// Remote connects to an already running browser instead of starting a new one.
func Remote(hostPort string) Option {
	return func(o *options) {
		url := url.URL{
			Scheme: "ws",
			Host:   hostPort,
		}
		o.remote = mo.Some(url.String())
	}
}

type queryOptions struct {
	userAgent string
}

type QueryOption func(o *queryOptions)

// UserAgent overrides the browser's User-Agent which reveals headless mode.
func UserAgent(userAgent string) QueryOption {
	return func(o *queryOptions) {
		o.userAgent = userAgent
	}
}
