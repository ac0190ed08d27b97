// Package shapeutil holds small, stateless helpers that generated shape
// code calls: percent-encoding a path parameter, stringifying a scalar for
// the query string, and coercing a response header string back into a
// number or boolean. Kept separate from the engine package itself since
// generated code (out of scope here, per spec §1) is the intended caller.
package shapeutil

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// EncodePathParam renders a {name} or {name+} path template substitution.
// greedy=false is the {name} form: the value is substituted verbatim and
// must already be URI-safe by construction (spec §4.2). greedy=true is the
// {name+} form: URL-path percent-encoding is applied, but "/" is preserved
// since {name+} spans multiple path segments.
func EncodePathParam(value string, greedy bool) string {
	if !greedy {
		return value
	}
	segments := strings.Split(value, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

// StringifyScalar renders a Go value in its natural textual form for use
// as a query-string or form value, per spec §4.4 "values are stringified
// via their natural textual form". nil becomes the empty string.
func StringifyScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// CoerceHeaderValue turns a raw response-header string into a number or
// boolean when it parses as one, integers preferred over floats when the
// value has no fractional part (spec §4.7 step 3). Values that don't parse
// as either are returned unchanged as strings.
func CoerceHeaderValue(s string) any {
	if s == "true" || s == "false" {
		b, _ := strconv.ParseBool(s)
		return b
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	}
	return s
}
