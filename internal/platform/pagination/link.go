package pagination

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// BuildLinkHeader constructs an RFC 8288 Link header with first, prev, next and last
// relations, preserving the filter query parameters.
func BuildLinkHeader(baseURL string, query url.Values, meta Meta) string {
	if meta.TotalPages == 0 {
		return ""
	}
	link := func(page int, rel string) string {
		q := cloneValues(query)
		q.Set("page", strconv.Itoa(page))
		q.Set("pageSize", strconv.Itoa(meta.PageSize))
		return fmt.Sprintf("<%s?%s>; rel=%q", baseURL, q.Encode(), rel)
	}
	links := []string{link(1, "first")}
	if meta.HasPrev {
		prev := min(meta.Page-1, meta.TotalPages)
		links = append(links, link(prev, "prev"))
	}
	if meta.HasNext {
		links = append(links, link(meta.Page+1, "next"))
	}
	links = append(links, link(meta.TotalPages, "last"))
	return strings.Join(links, ", ")
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
