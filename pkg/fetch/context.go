package fetch

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

type fetchContext struct {
	duration prometheus.Observer
}

type contextKey struct{}

// WithContext returns a context which makes all fetches observe their duration.
func WithContext(ctx context.Context, duration prometheus.Observer) context.Context {
	return context.WithValue(ctx, contextKey{}, &fetchContext{
		duration: duration,
	})
}

func getContext(ctx context.Context) (*fetchContext, bool) {
	context, ok := ctx.Value(contextKey{}).(*fetchContext)
	return context, ok
}
