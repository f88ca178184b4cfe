package apicall

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/KarpelesLab/typutil"
)

// Param is a single named request parameter.
type Param struct {
	Key   string
	Value any
}

// Params is an ordered set of request parameters. Encoding keeps insertion
// order, which is why a plain map is not used here.
type Params []Param

// P builds Params from alternating keys and values:
//
//	apicall.P("a", 1, "b", "two")
//
// A trailing key without a value is ignored.
func P(kv ...any) Params {
	res := make(Params, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		res = res.Set(fmt.Sprint(kv[i]), kv[i+1])
	}
	return res
}

// FromMap converts an unordered map into Params sorted by key.
func FromMap(m map[string]any) Params {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	res := make(Params, 0, len(keys))
	for _, k := range keys {
		res = append(res, Param{Key: k, Value: m[k]})
	}
	return res
}

// Set returns a copy of p with key set to value. An existing key keeps its
// position; a new key is appended. p itself is not modified.
func (p Params) Set(key string, value any) Params {
	res := make(Params, len(p), len(p)+1)
	copy(res, p)
	for i := range res {
		if res[i].Key == key {
			res[i].Value = value
			return res
		}
	}
	return append(res, Param{Key: key, Value: value})
}

// Get returns the value stored for key.
func (p Params) Get(key string) (any, bool) {
	for _, v := range p {
		if v.Key == key {
			return v.Value, true
		}
	}
	return nil, false
}

// Encode returns the form-encoded representation of p, keys in insertion
// order, joined by "&". Nil values are skipped, booleans become 1/0 and
// slices or maps are expanded as key[0]=v / key[sub]=v.
func (p Params) Encode() string {
	if len(p) == 0 {
		return ""
	}
	var parts []string
	for _, v := range p {
		parts = appendEncoded(parts, v.Key, v.Value)
	}
	return strings.Join(parts, "&")
}

func appendEncoded(parts []string, key string, v any) []string {
	switch val := v.(type) {
	case nil:
		return parts
	case Params:
		for _, sub := range val {
			parts = appendEncoded(parts, key+"["+sub.Key+"]", sub.Value)
		}
		return parts
	case map[string]any:
		return appendEncoded(parts, key, FromMap(val))
	case []any:
		for i, sub := range val {
			parts = appendEncoded(parts, key+"["+strconv.Itoa(i)+"]", sub)
		}
		return parts
	case []string:
		for i, sub := range val {
			parts = appendEncoded(parts, key+"["+strconv.Itoa(i)+"]", sub)
		}
		return parts
	}
	return append(parts, formEscape(key)+"="+formEscape(scalarString(v)))
}

// formEscape matches PHP's urlencode, which also escapes "~".
func formEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "~", "%7E")
}

func scalarString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	}
	if s, ok := typutil.AsString(v); ok {
		return s
	}
	return fmt.Sprint(v)
}
