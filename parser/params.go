package parser

import (
	"time"
)

// Params carries the parser parameters declared in the vocabulary catalog
// plus any request options merged in by the caller. Keys are free-form;
// the typed accessors tolerate missing keys and YAML-decoded value shapes.
type Params map[string]any

// Request option keys understood by the fetch helper.
const (
	ParamTimeout  = "timeout"
	ParamProxy    = "proxy"
	ParamUser     = "user"
	ParamPassword = "password"
)

// Parser parameter keys shared by several parsers.
const (
	ParamSchemes   = "schemes"
	ParamRDFTypes  = "rdf_types"
	ParamLanguages = "languages"
	ParamFormat    = "format"
	ParamLimit     = "limit"
)

// Merge returns a copy of p overlaid with other; other wins on conflicts.
func (p Params) Merge(other Params) Params {
	out := make(Params, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// String returns the string value for key, or "".
func (p Params) String(key string) string {
	if s, ok := p[key].(string); ok {
		return s
	}
	return ""
}

// Int returns the integer value for key, or 0.
func (p Params) Int(key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Strings returns the list value for key. YAML decoding yields []any, so
// both []string and []any of strings are accepted.
func (p Params) Strings(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Timeout returns the request timeout, accepting durations, strings
// ("30s") and numbers of seconds.
func (p Params) Timeout() time.Duration {
	switch v := p[ParamTimeout].(type) {
	case time.Duration:
		return v
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case int:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	}
	return 0
}
