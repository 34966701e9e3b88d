package ports

import "net/http"

// HTTPClient abstracts the HTTP round trip of lookup queries.
// The standard *http.Client satisfies this interface.
type HTTPClient interface {
	// Do sends an HTTP request and returns an HTTP response.
	Do(req *http.Request) (*http.Response, error)
}
