// Package querydata implements the "mime,body" query-data codec used by
// Provider cells: a blob is either absent (empty string) or a
// comma-separated pair of a mime type (always
// application/x-www-form-urlencoded for this codec) and an
// x-www-form-urlencoded body. Unlike net/url.Values, field insertion order
// is preserved and duplicate field names are not supported: the last
// write to a name replaces its value in place.
package querydata

import (
	"fmt"
	"net/url"
	"strings"
)

// MimeType is the only mime type this codec understands.
const MimeType = "application/x-www-form-urlencoded"

type field struct {
	name  string
	value string
}

// HasData reports whether qd carries a non-empty query-data blob.
func HasData(qd string) bool {
	return qd != ""
}

func parse(qd string) ([]field, error) {
	if qd == "" {
		return nil, nil
	}
	idx := strings.IndexByte(qd, ',')
	if idx < 0 {
		return nil, fmt.Errorf("querydata: %q is not a mime,body pair", qd)
	}
	mime, body := qd[:idx], qd[idx+1:]
	if mime != MimeType {
		return nil, fmt.Errorf("querydata: unsupported mime type %q", mime)
	}
	if body == "" {
		return nil, nil
	}
	var fields []field
	for _, part := range strings.Split(body, "&") {
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		name, err := url.QueryUnescape(kv[0])
		if err != nil {
			return nil, fmt.Errorf("querydata: invalid field name %q: %w", kv[0], err)
		}
		value := ""
		if len(kv) == 2 {
			value, err = url.QueryUnescape(kv[1])
			if err != nil {
				return nil, fmt.Errorf("querydata: invalid field value %q: %w", kv[1], err)
			}
		}
		fields = append(fields, field{name: name, value: value})
	}
	return fields, nil
}

func encode(fields []field) string {
	if len(fields) == 0 {
		return ""
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, url.QueryEscape(f.name)+"="+url.QueryEscape(f.value))
	}
	return MimeType + "," + strings.Join(parts, "&")
}

// GetField returns the current value of name within qd, and whether it was
// present at all.
func GetField(qd, name string) (string, bool, error) {
	fields, err := parse(qd)
	if err != nil {
		return "", false, err
	}
	for _, f := range fields {
		if f.name == name {
			return f.value, true, nil
		}
	}
	return "", false, nil
}

// SetField sets name to value within qd and returns the resulting
// query-data blob. Setting to the empty string unsets the field instead.
func SetField(qd, name, value string) (string, error) {
	if value == "" {
		return UnsetField(qd, name)
	}
	fields, err := parse(qd)
	if err != nil {
		return "", err
	}
	for i, f := range fields {
		if f.name == name {
			fields[i].value = value
			return encode(fields), nil
		}
	}
	fields = append(fields, field{name: name, value: value})
	return encode(fields), nil
}

// UnsetField removes name from qd. If the removal leaves no fields behind,
// the whole query-data collapses to the empty string (absent).
func UnsetField(qd, name string) (string, error) {
	fields, err := parse(qd)
	if err != nil {
		return "", err
	}
	out := make([]field, 0, len(fields))
	for _, f := range fields {
		if f.name == name {
			continue
		}
		out = append(out, f)
	}
	return encode(out), nil
}
