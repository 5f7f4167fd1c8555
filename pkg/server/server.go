package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/ggicci/httpin/integration"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/KonishchevDmitry/headlined/internal/refresh"
	"github.com/KonishchevDmitry/headlined/pkg/aggregate"
	"github.com/KonishchevDmitry/headlined/pkg/fetch"
)

func init() {
	integration.UseGorillaMux("path", mux.Vars)
}

type Scheduler interface {
	prometheus.Collector

	Start(ctx context.Context)
	Stop(ctx context.Context)

	Get(ctx context.Context) (*aggregate.Result, error)
	State() refresh.State
	Refresh(ctx context.Context)
	Pause(ctx context.Context)
	Resume(ctx context.Context)
}

type Fetcher interface {
	Fetch(ctx context.Context, url string, header http.Header) (*fetch.Response, error)
}

type Server struct {
	router    *mux.Router
	scheduler Scheduler
	fetcher   Fetcher
}

var _ http.Handler = &Server{}

// New creates a server which serves headlines of the scheduler. The fetcher is used by the proxy endpoint.
func New(scheduler Scheduler, fetcher Fetcher) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		scheduler: scheduler,
		fetcher:   fetcher,
	}

	s.register("/rss", s.proxy, http.MethodGet)
	s.register("/refresh", s.refresh, http.MethodPost)
	s.register("/visibility", s.visibility, http.MethodPost)
	s.register("/{category}.rss", s.headlines, http.MethodGet)
	s.register("/", func(ctx context.Context, request *http.Request) response {
		return makeErrorResponse(http.StatusNotFound, "Not found")
	})

	return s
}

func (s *Server) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	s.router.ServeHTTP(writer, request)
}

func (s *Server) Serve(ctx context.Context, feedsAddr string, metricsAddr string) error {
	var waitGroup sync.WaitGroup
	defer waitGroup.Wait()

	// Servers are shut down after ctx is done
	shutdownCtx := context.WithoutCancel(ctx)

	if err := prometheus.DefaultRegisterer.Register(s.scheduler); err != nil {
		return err
	}

	//nolint:gosec
	feedsServer := http.Server{
		Addr:     feedsAddr,
		Handler:  s,
		ErrorLog: log.New(newHTTPLogger(logging.L(ctx)), "Feeds HTTP server: ", 0),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
	defer func() {
		if err := feedsServer.Shutdown(shutdownCtx); err != nil {
			logging.L(ctx).Errorf("Failed to shutdown feeds HTTP server: %s.", err)
		}
	}()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorLog: newPrometheusLogger(logging.L(ctx)),
	}))

	//nolint:gosec
	metricsServer := http.Server{
		Addr:     metricsAddr,
		Handler:  metricsMux,
		ErrorLog: log.New(newHTTPLogger(logging.L(ctx)), "Metrics HTTP server: ", 0),
	}
	defer func() {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logging.L(ctx).Errorf("Failed to shutdown metrics HTTP server: %s.", err)
		}
	}()

	logging.L(ctx).Infof("Listening on %s (feeds) and %s (metrics)...", feedsAddr, metricsAddr)

	feedsSocket, err := net.Listen("tcp", feedsAddr)
	if err != nil {
		return err
	}
	closeFeedsSocket := true
	defer func() {
		if closeFeedsSocket {
			if err := feedsSocket.Close(); err != nil {
				logging.L(ctx).Errorf("Failed to close a socket: %s.", err)
			}
		}
	}()

	metricsSocket, err := net.Listen("tcp", metricsAddr)
	if err != nil {
		return err
	}
	closeMetricsSocket := true
	defer func() {
		if closeMetricsSocket {
			if err := metricsSocket.Close(); err != nil {
				logging.L(ctx).Errorf("Failed to close a socket: %s.", err)
			}
		}
	}()

	serverCrashed := make(chan error, 2)

	closeFeedsSocket = false
	waitGroup.Go(func() {
		if err := feedsServer.Serve(feedsSocket); !errors.Is(err, http.ErrServerClosed) {
			serverCrashed <- fmt.Errorf("feeds HTTP server has crashed: %w", err)
		}
	})

	closeMetricsSocket = false
	waitGroup.Go(func() {
		if err := metricsServer.Serve(metricsSocket); !errors.Is(err, http.ErrServerClosed) {
			serverCrashed <- fmt.Errorf("metrics HTTP server has crashed: %w", err)
		}
	})

	s.scheduler.Start(ctx)
	defer s.scheduler.Stop(shutdownCtx)

	select {
	case err := <-serverCrashed:
		return err
	case <-ctx.Done():
		logging.L(ctx).Infof("Shutting down...")
		return nil
	}
}

func (s *Server) register(
	path string, handler func(ctx context.Context, request *http.Request) response, methods ...string,
) {
	route := s.router.HandleFunc(path, func(writer http.ResponseWriter, request *http.Request) {
		ctx := request.Context()
		logging.L(ctx).Debugf("%s %s...", request.Method, request.RequestURI)
		handler(ctx, request).write(ctx, writer)
		logging.L(ctx).Debugf("%s %s finished.", request.Method, request.RequestURI)
	})
	if len(methods) != 0 {
		route.Methods(methods...)
	}
}
