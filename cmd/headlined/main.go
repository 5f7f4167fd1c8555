package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/KonishchevDmitry/headlined/internal/config"
	"github.com/KonishchevDmitry/headlined/internal/refresh"
	"github.com/KonishchevDmitry/headlined/pkg/browser"
	"github.com/KonishchevDmitry/headlined/pkg/fetch"
	"github.com/KonishchevDmitry/headlined/pkg/resolve"
	"github.com/KonishchevDmitry/headlined/pkg/server"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to a TOML config (built-in defaults are used if not specified)")
	flag.Parse()

	conf, err := config.Read(configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to read the config: %s.\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(conf.Devel)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to initialize the logger: %s.\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, logger.Sugar())

	if err := run(ctx, conf); err != nil {
		logging.L(ctx).Errorf("%s.", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func newLogger(devel bool) (*zap.Logger, error) {
	if devel {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(ctx context.Context, conf config.Config) error {
	sources, err := conf.Registry()
	if err != nil {
		return err
	}

	schedule, err := conf.CronSchedule()
	if err != nil {
		return err
	}

	fetchOptions := []fetch.Option{
		fetch.Timeout(conf.Fetch.Timeout.Duration),
		fetch.UserAgent(conf.Fetch.UserAgent),
	}
	// The proxy endpoint may be our own, so it's not proxied
	proxyFetcher := fetch.New(fetchOptions...)

	if conf.Fetch.Proxy != "" {
		fetchOptions = append(fetchOptions, fetch.Proxy(conf.Fetch.Proxy))
	}
	if conf.Fetch.HostRate > 0 {
		fetchOptions = append(fetchOptions, fetch.HostRateLimit(rate.Limit(conf.Fetch.HostRate), conf.Fetch.HostBurst))
	}

	if conf.Fetch.Browser {
		var browserOptions []browser.Option
		if conf.Fetch.BrowserRemote != "" {
			browserOptions = append(browserOptions, browser.Remote(conf.Fetch.BrowserRemote))
		}

		browserCtx, stopBrowser, err := browser.Configure(ctx, browserOptions...)
		if err != nil {
			return fmt.Errorf("failed to start the browser: %w", err)
		}
		defer stopBrowser()

		ctx = browserCtx
		fetchOptions = append(fetchOptions, fetch.EmulateBrowser())
	}

	resolver := resolve.New(fetch.New(fetchOptions...),
		resolve.RetryDelay(conf.Resolve.RetryDelay.Duration),
		resolve.DiscoveryTTL(conf.Resolve.DiscoveryTTL.Duration))

	schedulerOptions := []refresh.Option{refresh.Schedule(schedule)}
	if conf.Devel {
		schedulerOptions = append(schedulerOptions, refresh.Devel())
	}
	if conf.Aggregate.Concurrency > 0 {
		schedulerOptions = append(schedulerOptions, refresh.Concurrency(conf.Aggregate.Concurrency))
	}

	scheduler, err := refresh.New(resolver, sources, schedulerOptions...)
	if err != nil {
		return err
	}

	logging.L(ctx).Infof("Serving headlines from %d sources.", len(sources))
	return server.New(scheduler, proxyFetcher).Serve(ctx, conf.FeedsAddr, conf.MetricsAddr)
}
