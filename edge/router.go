package edge

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/hearthside/foyer"
)

const (
	// CookieName is the name of the cohort cookie we set on static content visitors
	CookieName = "ab-variant"

	// CookieMaxAge is how long a cohort assignment sticks to a client
	CookieMaxAge = 30 * 24 * time.Hour

	VariantA = "A"
	VariantB = "B"
)

// CoinFlip returns the variant assigned to a new visitor. The default is an unbiased 50/50 split,
// tests inject their own to force either branch.
type CoinFlip func() string

// RandomCoinFlip is our default CoinFlip
func RandomCoinFlip() string {
	if rand.Intn(2) == 0 {
		return VariantA
	}
	return VariantB
}

// Router fronts the static origin and the API origin. Requests under the API prefix are forwarded
// to the API origin, everything else goes to the static origin after cohort bucketing. The router
// keeps no state between requests, cohort state lives entirely in the client's cookie.
type Router struct {
	apiPrefix string
	static    *httputil.ReverseProxy
	api       *httputil.ReverseProxy
	flip      CoinFlip
}

// NewRouter creates a new edge router for the passed in configuration
func NewRouter(config *foyer.Config) (*Router, error) {
	return NewRouterWithCoinFlip(config, RandomCoinFlip)
}

// NewRouterWithCoinFlip creates a new edge router which uses the passed in coin flip for
// cohort assignment
func NewRouterWithCoinFlip(config *foyer.Config, flip CoinFlip) (*Router, error) {
	staticURL, err := url.Parse(config.StaticOrigin)
	if err != nil {
		return nil, fmt.Errorf("invalid static origin '%s': %w", config.StaticOrigin, err)
	}
	apiURL, err := url.Parse(config.APIOrigin)
	if err != nil {
		return nil, fmt.Errorf("invalid API origin '%s': %w", config.APIOrigin, err)
	}

	api := newOriginProxy(apiURL)

	// API responses are never cacheable at the edge
	api.ModifyResponse = func(resp *http.Response) error {
		resp.Header.Set("Cache-Control", "no-store")
		return nil
	}

	return &Router{
		apiPrefix: config.APIPrefix,
		static:    newOriginProxy(staticURL),
		api:       api,
		flip:      flip,
	}, nil
}

// newOriginProxy creates a reverse proxy which forwards the viewer's method, path, query and
// headers verbatim, except the Host header which is rewritten so the origin sees its own host
// rather than the edge's public hostname
func newOriginProxy(target *url.URL) *httputil.ReverseProxy {
	proxy := httputil.NewSingleHostReverseProxy(target)
	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		director(req)
		req.Host = target.Host
	}
	return proxy
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, rt.apiPrefix) {
		rt.api.ServeHTTP(w, r)
		return
	}

	// static content visitors without a cohort get one assigned and are redirected back to the
	// same URI so the cookie is presented on the retry
	if _, err := r.Cookie(CookieName); err != nil {
		variant := rt.flip()
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    variant,
			Path:     "/",
			MaxAge:   int(CookieMaxAge / time.Second),
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, r.URL.RequestURI(), http.StatusFound)

		slog.Info("variant assigned", "comp", "edge", "variant", variant, "path", r.URL.Path)
		return
	}

	rt.static.ServeHTTP(w, r)
}
