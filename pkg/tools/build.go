package tools

import (
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/bturcanu/pipedrive-connector/pkg/pipedrive"
)

// Build turns caller arguments into a request. Unknown arguments are ignored.
// Path parameters are substituted into the path and never copied into the
// body. Optional parameters that were not supplied are omitted entirely.
func (d Descriptor) Build(args map[string]any, forceLegacy bool) (pipedrive.Request, error) {
	req := pipedrive.Request{
		Method:  d.Method,
		Path:    d.Path,
		Version: d.Version,
	}
	if forceLegacy && d.Version == pipedrive.V2 {
		req.Version = pipedrive.V1
		if d.LegacyMethod != "" {
			req.Method = d.LegacyMethod
		}
	}

	var body map[string]any
	for _, p := range d.Params {
		if p.In == InBody && body == nil {
			body = map[string]any{}
		}

		raw, ok := args[p.Name]
		if !ok || raw == nil {
			if p.Required {
				return req, &ValidationError{Tool: d.Name, Field: p.Name, Reason: "is required"}
			}
			continue
		}
		v, err := checkType(d.Name, p, raw)
		if err != nil {
			return req, err
		}

		switch p.In {
		case InPath:
			req.Path = strings.ReplaceAll(req.Path, "{"+p.Name+"}", url.PathEscape(queryValue(v)))
		case InQuery:
			if req.Query == nil {
				req.Query = url.Values{}
			}
			req.Query.Set(p.Name, queryValue(v))
		case InBody:
			body[p.Name] = v
		}
	}

	if d.ContactShim && body != nil {
		shimContacts(body, req.Version)
	}
	if body != nil {
		req.Body = body
	}
	return req, nil
}

// checkType verifies v against p.Type and returns it in a normalised form:
// integers become int64 so they encode without a decimal point.
func checkType(tool string, p Param, v any) (any, error) {
	bad := func(reason string) error {
		return &ValidationError{Tool: tool, Field: p.Name, Reason: reason}
	}

	switch p.Type {
	case String:
		s, ok := v.(string)
		if !ok {
			return nil, bad("must be a string")
		}
		if len(p.Enum) > 0 && !contains(p.Enum, s) {
			return nil, bad("must be one of " + strings.Join(p.Enum, ", "))
		}
		return s, nil
	case Integer:
		n, ok := toInt(v)
		if !ok {
			return nil, bad("must be an integer")
		}
		return n, nil
	case Number:
		f, ok := toFloat(v)
		if !ok {
			return nil, bad("must be a number")
		}
		return f, nil
	case Boolean:
		b, ok := v.(bool)
		if !ok {
			return nil, bad("must be a boolean")
		}
		return b, nil
	case Array:
		items, ok := toSlice(v)
		if !ok {
			return nil, bad("must be an array")
		}
		if p.Items == "" {
			return items, nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			iv, err := checkType(tool, Param{Name: p.Name + "[" + strconv.Itoa(i) + "]", Type: p.Items}, item)
			if err != nil {
				return nil, err
			}
			out[i] = iv
		}
		return out, nil
	case Object:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, bad("must be an object")
		}
		return m, nil
	}
	return v, nil
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return wholeInt(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return wholeInt(f)
	}
	return 0, false
}

// wholeInt accepts f only when it is integral and fits in an int64.
func wholeInt(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < -(1<<63) || f >= 1<<63 {
		return 0, false
	}
	return int64(f), true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func toSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case []int:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case []int64:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	}
	return nil, false
}

// queryValue renders a checked value for a URL. Arrays are comma-joined,
// which is how Pipedrive accepts multi-value filters such as ids.
func queryValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = queryValue(item)
		}
		return strings.Join(parts, ",")
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
