package server

import (
	"context"
	"net/http"
	"strconv"

	logging "github.com/KonishchevDmitry/go-easy-logging"
)

type response struct {
	status      int
	contentType string
	data        []byte
}

func makeResponse(status int, contentType string, data []byte) response {
	return response{
		status:      status,
		contentType: contentType,
		data:        data,
	}
}

func makeErrorResponse(status int, message string) response {
	return makeResponse(status, "text/plain; charset=utf-8", []byte(message))
}

func (r response) write(ctx context.Context, writer http.ResponseWriter) {
	header := writer.Header()
	header.Set("Content-Type", r.contentType)
	header.Set("Content-Length", strconv.Itoa(len(r.data)))
	writer.WriteHeader(r.status)

	if _, err := writer.Write(r.data); err != nil {
		logging.L(ctx).Debugf("Failed to send the response: %s.", err)
	}
}
