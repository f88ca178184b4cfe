package apicall

import (
	"fmt"
	"net/http"
	"strings"
)

// whitespace matches the characters stripped by PHP's trim().
const whitespace = " \t\n\r\x00\x0B"

// Target is a fully resolved request.
type Target struct {
	URL    string
	Method string
	Body   string // form-encoded parameters, POST only
}

// BuildTarget resolves method against address and encodes params according to
// verb. For GET the parameters go into the query string, for POST they become
// the request body. An empty address returns ErrNotConfigured.
func BuildTarget(address, method, verb string, params Params) (*Target, error) {
	address = trimAddress(address)
	if address == "" {
		return nil, ErrNotConfigured
	}
	path := address + trimMethod(method)

	switch verb {
	case http.MethodGet:
		return &Target{
			URL:    strings.TrimRight(path+"?"+params.Encode(), "?"),
			Method: verb,
		}, nil
	case http.MethodPost:
		return &Target{
			URL:    strings.TrimRight(path, "?"),
			Method: verb,
			Body:   params.Encode(),
		}, nil
	default:
		return nil, fmt.Errorf("invalid request method %s", verb)
	}
}

// trimAddress removes surrounding whitespace and slashes from a base address.
func trimAddress(address string) string {
	return strings.TrimLeft(strings.TrimRight(strings.Trim(address, whitespace), "/"), "/")
}

// trimMethod turns a logical method name into a path suffix. Every "_" acts
// as a path separator, and a non-empty result always starts with exactly one
// "/".
func trimMethod(method string) string {
	m := strings.TrimLeft(strings.Trim(strings.ReplaceAll(method, "_", "/"), whitespace), "/")
	if m == "" {
		return ""
	}
	return "/" + m
}
