package downloader

import (
	"context"
	"net/url"
	"strings"
)

// Route sends URLs whose host ends with one of Hosts to Extractor
type Route struct {
	Hosts     []string
	Extractor Extractor
}

// Router dispatches each URL to the extractor registered for its host
type Router struct {
	def    Extractor
	routes []Route
}

// NewRouter returns a Router; URLs that match no route go to def.
// A nil def makes unmatched URLs fail with ErrUnsupportedURL.
func NewRouter(def Extractor, routes ...Route) *Router {
	return &Router{def: def, routes: routes}
}

func (r *Router) Name() string {
	names := make([]string, 0, len(r.routes)+1)
	if r.def != nil {
		names = append(names, r.def.Name())
	}
	for _, rt := range r.routes {
		names = append(names, rt.Extractor.Name())
	}
	return "router(" + strings.Join(names, ",") + ")"
}

func (r *Router) Extract(ctx context.Context, rawURL string, download bool) (*Metadata, error) {
	ex := r.For(rawURL)
	if ex == nil {
		return nil, &ExtractionError{URL: rawURL, Extractor: "router", Err: ErrUnsupportedURL}
	}
	return ex.Extract(ctx, rawURL, download)
}

// For returns the extractor that would handle rawURL
func (r *Router) For(rawURL string) Extractor {
	host := hostOf(rawURL)
	if host != "" {
		for _, rt := range r.routes {
			for _, h := range rt.Hosts {
				h = strings.ToLower(h)
				if host == h || strings.HasSuffix(host, "."+h) {
					return rt.Extractor
				}
			}
		}
	}
	return r.def
}

func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
