package apicall

import (
	"net/http"
	"strings"
)

// Prefix identifies how an operation name is dispatched.
type Prefix int

const (
	// PrefixCall ("apiCall") performs a GET
	PrefixCall Prefix = iota
	// PrefixGet ("apiGet") performs a GET
	PrefixGet
	// PrefixPost ("apiPost") performs a POST
	PrefixPost
)

// prefixes lists recognized prefixes in matching order.
var prefixes = []Prefix{PrefixCall, PrefixPost, PrefixGet}

func (p Prefix) String() string {
	switch p {
	case PrefixCall:
		return "apiCall"
	case PrefixGet:
		return "apiGet"
	case PrefixPost:
		return "apiPost"
	default:
		return "invalid"
	}
}

// Method returns the HTTP method used for calls made with this prefix.
func (p Prefix) Method() string {
	if p == PrefixPost {
		return http.MethodPost
	}
	return http.MethodGet
}

// ParseName splits a prefix-tagged operation name such as "apiPostCreateUser"
// into its prefix and the remaining logical name ("CreateUser"). Names that do
// not start with a recognized prefix return ErrNotDispatchable.
func ParseName(name string) (Prefix, string, error) {
	for _, p := range prefixes {
		s := p.String()
		if strings.HasPrefix(name, s) {
			return p, name[len(s):], nil
		}
	}
	return 0, "", ErrNotDispatchable
}
