package http

import (
	"keja/pkg/config"
	apperrors "keja/pkg/errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit, err := QueryInt(query, "limit")
	if err != nil {
		return 0, 0, err
	}

	offset, err := QueryInt64(query, "offset")
	if err != nil {
		return 0, 0, err
	}

	l := config.NormalizePaginationLimit(deref(limit))
	o := config.NormalizeOffset(deref(offset))

	return l, o, nil
}

// QueryInt returns nil when key is absent or blank.
func QueryInt(query url.Values, key string) (*int, error) {
	s := strings.TrimSpace(query.Get(key))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid " + key + " parameter: " + s)
	}
	return &v, nil
}

func QueryInt64(query url.Values, key string) (*int64, error) {
	s := strings.TrimSpace(query.Get(key))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid " + key + " parameter: " + s)
	}
	return &v, nil
}

// QueryCSV collects comma separated values across repeated keys.
func QueryCSV(query url.Values, key string) []string {
	var out []string
	for _, raw := range query[key] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func deref[T int | int64](v *T) T {
	if v == nil {
		return 0
	}
	return *v
}
