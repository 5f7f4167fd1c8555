package browser

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"os/exec"
	"slices"
	"strings"
	"syscall"
	"unicode"

	"al.essio.dev/pkg/shellescape"
	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"github.com/KonishchevDmitry/headlined/internal/util"
)

const viewportWidth, viewportHeight = 1664, 992

// Configure starts (or connects to) the browser and returns a context which has to be passed to Get.
func Configure(ctx context.Context, opts ...Option) (_ context.Context, _ func(), retErr error) {
	if chromedp.FromContext(ctx) != nil {
		return ctx, nil, errors.New("an attempt to configure browser when it's already configured")
	}

	var options options
	for _, opt := range opts {
		opt(&options)
	}

	logging.L(ctx).Debugf("Configuring the browser...")

	var closers []func()
	stop := func() {
		logging.L(ctx).Debugf("Stopping the browser...")
		// chromedp.Cancel() would be more graceful, but cancelContext() panics after it when the browser has failed
		// to start.
		for _, close := range slices.Backward(closers) {
			close()
		}
		logging.L(ctx).Debugf("The browser has stopped.")
	}
	defer func() {
		if retErr != nil {
			stop()
		}
	}()

	var allocatorCtx context.Context
	var cancelAllocator func()

	if remote, ok := options.remote.Get(); ok {
		allocatorCtx, cancelAllocator = chromedp.NewRemoteAllocator(ctx, remote)
	} else {
		userDataDir, removeUserDataDir, err := getUserDataDir()
		if err != nil {
			return ctx, nil, err
		}
		closers = append(closers, func() {
			removeUserDataDir(ctx)
		})

		// Flag wrappers like chromedp.Headless implicitly enable other flags, so raw flags are used.
		allocatorOptions := []chromedp.ExecAllocatorOption{
			chromedp.Flag("headless", true),
			chromedp.Flag("no-first-run", true),
			chromedp.Flag("no-default-browser-check", true),
			chromedp.Flag("mute-audio", true),
			chromedp.Flag("disable-extensions", true),
			chromedp.Flag("disable-background-networking", true),
			chromedp.Flag("disable-features", "site-per-process,Translate"),
			chromedp.Flag("use-mock-keychain", true),
			chromedp.Flag("user-data-dir", userDataDir),
			chromedp.Flag("disable-dev-shm-usage", true),

			// https://developer.mozilla.org/en-US/docs/Web/API/Navigator/webdriver
			chromedp.Flag("disable-blink-features", "AutomationControlled"),

			chromedp.ModifyCmdFunc(func(cmd *exec.Cmd) {
				logging.L(ctx).Debugf("Starting the browser: %s", shellescape.QuoteCommand(
					append([]string{cmd.Path}, cmd.Args...)))
			}),
		}
		if util.IsContainer() {
			allocatorOptions = append(allocatorOptions, chromedp.Flag("no-sandbox", true))
		}

		allocatorCtx, cancelAllocator = chromedp.NewExecAllocator(ctx, allocatorOptions...)
	}
	closers = append(closers, cancelAllocator)

	browserCtx, cancelBrowser := chromedp.NewContext(allocatorCtx, chromedp.WithLogf(func(format string, args ...any) {
		logging.L(ctx).Debugf("Browser: "+format, args...)
	}))
	closers = append(closers, cancelBrowser)

	// Start the browser and connect to it
	if err := chromedp.Run(browserCtx); err != nil {
		return ctx, nil, err
	}

	return browserCtx, stop, nil
}

type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        string
}

// Chrome renders these media types as a document tree prefixed with a banner.
var xmlMediaTypes = []string{"application/rss+xml", "application/atom+xml", "application/xml", "text/xml"}

const xmlBanner = "This XML file does not appear to have any style information associated with it. " +
	"The document tree is shown below."

// Get opens the page in a new tab and returns its text (HTML pages are returned as markup).
func Get(ctx context.Context, url string, opts ...QueryOption) (*Response, error) {
	if context := chromedp.FromContext(ctx); context == nil || context.Browser == nil {
		return nil, errors.New("the browser is not configured")
	}

	var options queryOptions
	for _, opt := range opts {
		opt(&options)
	}

	// A child context is a new tab, so the browser may be used concurrently
	ctx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	actions := []chromedp.Action{
		emulation.SetDeviceMetricsOverride(viewportWidth, viewportHeight, 1, false),
	}
	if options.userAgent != "" {
		actions = append(actions, emulation.SetUserAgentOverride(options.userAgent))
	}

	var text, html string
	actions = append(actions,
		chromedp.Navigate(url),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.Evaluate("document.body.innerText", &text),
		chromedp.OuterHTML("html", &html),
	)

	response, err := chromedp.RunResponse(ctx, actions...)
	if err != nil {
		return nil, err
	}

	var contentType string
	for name, value := range response.Headers {
		if value, ok := value.(string); ok && strings.EqualFold(name, "Content-Type") {
			contentType = value
			break
		}
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("the server returned an invalid Content-Type: %q", contentType)
	}

	body := text
	if mediaType == "text/html" {
		body = html
	} else if slices.Contains(xmlMediaTypes, mediaType) {
		if trimmed := strings.TrimLeftFunc(text, unicode.IsSpace); strings.HasPrefix(trimmed, xmlBanner) {
			body = strings.TrimLeftFunc(trimmed[len(xmlBanner):], unicode.IsSpace)
		}
	}

	return &Response{
		URL:         response.URL,
		StatusCode:  int(response.Status),
		ContentType: contentType,
		Body:        body,
	}, nil
}

func getUserDataDir() (string, func(ctx context.Context), error) {
	dataDir, err := os.MkdirTemp("", "headlined-browser-*")
	if err != nil {
		return "", nil, err
	}

	return dataDir, func(ctx context.Context) {
		// chromedp doesn't wait for termination of all browser processes, so they may still write to the directory
		for attempt := 1; ; attempt++ {
			err := os.RemoveAll(dataDir)
			if err == nil {
				return
			}

			var errno syscall.Errno
			if errors.As(err, &errno) && errno == syscall.ENOTEMPTY && attempt < 10 {
				continue
			}

			logging.L(ctx).Errorf("Failed to delete browser data directory %q: %s.", dataDir, err)
			return
		}
	}, nil
}
