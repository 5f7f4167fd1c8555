package fetch

import (
	"fmt"
	"net/http"

	"github.com/KonishchevDmitry/headlined/internal/util"
)

// NetworkError is returned on transport failures, timeouts and non-2xx responses.
type NetworkError struct {
	URL string
	Err error
}

var _ util.Temporary = &NetworkError{}

func (e *NetworkError) Temporary() bool {
	return true
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %s", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StatusError is a non-2xx response. Its body may be a bot challenge page or an error text.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("the server returned an error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}
