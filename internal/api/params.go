package api

import (
	"net/http"
	"strconv"
	"time"

	"querywatch/internal/domain"
)

// optParam returns a pointer to the named query parameter, or nil when
// it is absent or empty.
func optParam(r *http.Request, name string) *string {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil
	}
	return &v
}

// pageFromQuery extracts max_results/page_token into a PageRequest.
// A non-numeric max_results is a validation error.
func pageFromQuery(r *http.Request) (domain.PageRequest, error) {
	p := domain.PageRequest{PageToken: r.URL.Query().Get("page_token")}
	if raw := r.URL.Query().Get("max_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, domain.ErrValidation("invalid max_results %q", raw)
		}
		p.MaxResults = n
	}
	return p, nil
}

// timeParam parses the named query parameter as RFC 3339.
func timeParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.ErrValidation("invalid %s %q: must be RFC 3339", name, raw)
	}
	return &t, nil
}
