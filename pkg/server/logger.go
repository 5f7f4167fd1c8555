package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type httpLogger struct {
	logger *zap.SugaredLogger
}

func newHTTPLogger(logger *zap.SugaredLogger) *httpLogger {
	return &httpLogger{logger}
}

var _ io.Writer = &httpLogger{}

// Errors caused by clients which have gone away
var clientErrors = []string{"broken pipe", "connection reset by peer", "i/o timeout"}

func (l *httpLogger) Write(message []byte) (int, error) {
	size := len(message)
	text := strings.TrimSuffix(string(message), "\n")

	level := zapcore.ErrorLevel
	for _, clientError := range clientErrors {
		if strings.Contains(text, clientError) {
			level = zapcore.DebugLevel
			break
		}
	}

	l.logger.Logf(level, "%s.", text)
	return size, nil
}

type prometheusLogger struct {
	logger *zap.SugaredLogger
}

func newPrometheusLogger(logger *zap.SugaredLogger) *prometheusLogger {
	return &prometheusLogger{logger}
}

var _ promhttp.Logger = prometheusLogger{}

func (l prometheusLogger) Println(v ...any) {
	level := zapcore.ErrorLevel

	for _, value := range v {
		if err, ok := value.(error); ok {
			var netErr *net.OpError
			if errors.As(err, &netErr) && netErr.Op == "write" &&
				(netErr.Timeout() || errors.Is(netErr.Err, syscall.EPIPE)) || errors.Is(err, context.Canceled) {
				level = zap.DebugLevel
			}
			break
		}
	}

	l.logger.Logf(level, "Prometheus: %s.", strings.TrimRight(fmt.Sprintf("%v", v), "\n"))
}
