package resolve

import (
	"time"
)

type Option func(o *options)

type options struct {
	retryDelay   time.Duration
	discoveryTTL time.Duration
	now          func() time.Time
}

// RetryDelay sets a pause between fetches of the same source.
func RetryDelay(delay time.Duration) Option {
	return func(o *options) {
		o.retryDelay = delay
	}
}

// DiscoveryTTL sets how long feed links discovered on homepages are remembered.
func DiscoveryTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.discoveryTTL = ttl
	}
}

func Clock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}
