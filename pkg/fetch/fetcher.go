package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"golang.org/x/time/rate"

	"github.com/KonishchevDmitry/headlined/internal/util"
	"github.com/KonishchevDmitry/headlined/pkg/browser"
)

const (
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/140.0.0.0 Safari/537.36"
	DefaultAccept = "application/rss+xml, application/atom+xml, text/xml;q=0.9, */*;q=0.8"

	maxBodySize = 8 * 1024 * 1024
)

type Response struct {
	URL        string
	StatusCode int
	Body       string
}

type Fetcher struct {
	options  options
	client   *http.Client
	limiters *hostLimiters
}

func New(opts ...Option) *Fetcher {
	options := options{
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(&options)
	}

	fetcher := &Fetcher{
		options: options,
		client:  &http.Client{},
	}
	if options.hostRate != 0 {
		fetcher.limiters = newHostLimiters(options.hostRate, options.hostBurst)
	}

	return fetcher
}

// Fetch fetches the URL within the configured timeout. Caller's headers override the default ones.
func (f *Fetcher) Fetch(ctx context.Context, target string, header http.Header) (_ *Response, retErr error) {
	defer func() {
		if retErr != nil {
			var networkErr *NetworkError
			if !errors.As(retErr, &networkErr) {
				retErr = &NetworkError{URL: target, Err: retErr}
			}
		}
	}()

	requestURL, host, err := f.requestURL(target)
	if err != nil {
		return nil, err
	}

	if f.limiters != nil {
		if err := f.limiters.wait(ctx, host); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.options.timeout)
	defer cancel()

	logging.L(ctx).Debugf("Fetching %s (emulate browser = %v)...", requestURL, f.options.emulateBrowser)

	startTime := time.Now()
	defer func() {
		if fetchCtx, ok := getContext(ctx); ok {
			fetchCtx.duration.Observe(time.Since(startTime).Seconds())
		}
	}()

	var response *Response
	if f.options.emulateBrowser {
		response, err = f.browserFetch(ctx, requestURL)
	} else {
		response, err = f.httpClientFetch(ctx, requestURL, header)
	}
	if err != nil {
		return nil, err
	}

	if statusCode := response.StatusCode; statusCode < 200 || statusCode >= 300 {
		return nil, &StatusError{StatusCode: statusCode, Body: response.Body}
	}

	return response, nil
}

func (f *Fetcher) requestURL(target string) (string, string, error) {
	targetURL, err := url.Parse(target)
	if err != nil {
		return "", "", fmt.Errorf("invalid URL: %w", err)
	} else if targetURL.Scheme != "http" && targetURL.Scheme != "https" {
		return "", "", fmt.Errorf("unsupported URL scheme: %q", targetURL.Scheme)
	}

	proxy, ok := f.options.proxy.Get()
	if !ok {
		return target, targetURL.Host, nil
	}

	proxyURL, err := url.Parse(proxy)
	if err != nil {
		return "", "", fmt.Errorf("invalid proxy URL: %w", err)
	}

	query := proxyURL.Query()
	query.Set("url", target)
	proxyURL.RawQuery = query.Encode()

	return proxyURL.String(), targetURL.Host, nil
}

func (f *Fetcher) httpClientFetch(ctx context.Context, url string, header http.Header) (*Response, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	request.Header.Set("User-Agent", f.options.userAgent)
	request.Header.Set("Accept", DefaultAccept)
	for name, values := range header {
		request.Header[http.CanonicalHeaderKey(name)] = values
	}

	response, err := f.client.Do(request)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.L(ctx).Errorf("Failed to close HTTP client body: %s.", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxBodySize+1))
	if err != nil {
		return nil, err
	} else if len(body) > maxBodySize {
		return nil, fmt.Errorf("the response is too big (more than %d bytes)", maxBodySize)
	}

	return &Response{
		URL:        response.Request.URL.String(),
		StatusCode: response.StatusCode,
		Body:       string(body),
	}, nil
}

func (f *Fetcher) browserFetch(ctx context.Context, url string) (*Response, error) {
	response, err := browser.Get(ctx, url, browser.UserAgent(f.options.userAgent))
	if err != nil {
		return nil, err
	}

	return &Response{
		URL:        response.URL,
		StatusCode: response.StatusCode,
		Body:       response.Body,
	}, nil
}

type hostLimiters struct {
	lock     util.GuardedLock
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func newHostLimiters(limit rate.Limit, burst int) *hostLimiters {
	return &hostLimiters{
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *hostLimiters) wait(ctx context.Context, host string) error {
	lock := l.lock.Lock()
	limiter, ok := l.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[host] = limiter
	}
	lock.Unlock()

	return limiter.Wait(ctx)
}
