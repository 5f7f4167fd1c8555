package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/ggicci/httpin"

	"github.com/KonishchevDmitry/headlined/internal/refresh"
	"github.com/KonishchevDmitry/headlined/pkg/feed"
	"github.com/KonishchevDmitry/headlined/pkg/fetch"
	"github.com/KonishchevDmitry/headlined/pkg/rss"
)

var categoryTitles = map[feed.Category]string{
	feed.World: "World",
	feed.US:    "US",
	feed.Cyber: "Cybersecurity",
}

type headlinesParams struct {
	Category string `in:"path=category"`
}

func (s *Server) headlines(ctx context.Context, request *http.Request) response {
	params, err := httpin.Decode[headlinesParams](request)
	if err != nil {
		logging.L(ctx).Warnf("Invalid headlines request: %s.", err)
		return makeErrorResponse(http.StatusNotFound, "Not found")
	}

	category, err := feed.ParseCategory(params.Category)
	if err != nil {
		return makeErrorResponse(http.StatusNotFound, "Not found")
	}

	result, err := s.scheduler.Get(ctx)
	if errors.Is(err, refresh.ErrStopped) {
		return makeErrorResponse(http.StatusServiceUnavailable, "The server is shutting down")
	} else if err != nil {
		return makeErrorResponse(http.StatusGatewayTimeout, "Headlines aren't collected yet")
	}

	candidates := make(map[string]string, len(result.Sources))
	for _, stats := range result.Sources {
		candidates[stats.Name] = stats.Candidate
	}

	link := url.URL{Scheme: "http", Host: request.Host, Path: request.URL.Path}
	if request.TLS != nil {
		link.Scheme = "https"
	}

	title := categoryTitles[category]
	headlines := rss.NewFeed(title+" headlines", link.String(), fmt.Sprintf("Latest %s headlines", title))
	headlines.Date = rss.Date{Time: result.Time}

	for _, article := range result.Headlines(category) {
		item := rss.NewItem(article.Published, article.Title, article.Link)
		if candidate := candidates[article.Source]; candidate != "" {
			item.Source = &rss.Source{Name: article.Source, URL: candidate}
		} else {
			item.Categories = append(item.Categories, article.Source)
		}
		headlines.Items = append(headlines.Items, item)
	}
	headlines.Normalize()

	data, err := rss.Generate(headlines)
	if err != nil {
		logging.L(ctx).Errorf("Failed to render %q headlines: %s.", category, err)
		return makeErrorResponse(http.StatusInternalServerError, "Failed to generate the RSS feed")
	}

	return makeResponse(http.StatusOK, rss.ContentType, data)
}

type proxyParams struct {
	URL string `in:"query=url;required"`
}

// Fetches the target with the default headers and returns its body as is, error pages included.
func (s *Server) proxy(ctx context.Context, request *http.Request) response {
	params, err := httpin.Decode[proxyParams](request)
	if err != nil || params.URL == "" {
		return makeErrorResponse(http.StatusBadRequest, "Missing url param")
	}

	upstream, err := s.fetcher.Fetch(ctx, params.URL, nil)

	var statusErr *fetch.StatusError
	if errors.As(err, &statusErr) {
		logging.L(ctx).Debugf("Proxying %s: %s.", params.URL, statusErr)
		return makeResponse(http.StatusOK, "text/xml; charset=utf-8", []byte(statusErr.Body))
	} else if err != nil {
		logging.L(ctx).Warnf("Proxy request has failed: %s.", err)
		return makeErrorResponse(http.StatusBadGateway, fmt.Sprintf("Upstream fetch failed: %s", err))
	}

	return makeResponse(http.StatusOK, "text/xml; charset=utf-8", []byte(upstream.Body))
}

func (s *Server) refresh(ctx context.Context, request *http.Request) response {
	s.scheduler.Refresh(ctx)
	return makeResponse(http.StatusAccepted, "text/plain; charset=utf-8", []byte("Refresh is scheduled"))
}

type visibilityParams struct {
	State string `in:"query=state;required"`
}

// The client reports its visibility: periodic refreshes are paused while nobody looks at the headlines.
func (s *Server) visibility(ctx context.Context, request *http.Request) response {
	params, err := httpin.Decode[visibilityParams](request)
	if err != nil {
		return makeErrorResponse(http.StatusBadRequest, "Missing state param")
	}

	switch params.State {
	case "hidden":
		s.scheduler.Pause(ctx)
	case "visible":
		s.scheduler.Resume(ctx)
	default:
		return makeErrorResponse(http.StatusBadRequest, fmt.Sprintf("Invalid state: %q", params.State))
	}

	return makeResponse(http.StatusOK, "text/plain; charset=utf-8", []byte(s.scheduler.State().String()))
}
