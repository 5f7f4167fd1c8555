package fetch

import (
	"time"

	"github.com/samber/mo"
	"golang.org/x/time/rate"
)

type Option func(o *options)

type options struct {
	timeout        time.Duration
	proxy          mo.Option[string]
	userAgent      string
	hostRate       rate.Limit
	hostBurst      int
	emulateBrowser bool
}

func Timeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// Proxy makes all requests go through the proxy as GET <proxy>?url=<target>.
func Proxy(url string) Option {
	return func(o *options) {
		o.proxy = mo.Some(url)
	}
}

func UserAgent(userAgent string) Option {
	return func(o *options) {
		o.userAgent = userAgent
	}
}

// HostRateLimit limits request rate to every host.
func HostRateLimit(limit rate.Limit, burst int) Option {
	return func(o *options) {
		o.hostRate = limit
		o.hostBurst = max(burst, 1)
	}
}

// EmulateBrowser fetches pages with the headless browser. The context passed to Fetch must be derived from the one
// returned by browser.Configure().
func EmulateBrowser() Option {
	return func(o *options) {
		o.emulateBrowser = true
	}
}
