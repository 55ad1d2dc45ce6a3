package offline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/zombor/spendy/internal/metrics"
)

// Offline response bodies
const (
	externalUnavailableBody = "Offline - external resource unavailable"
	offlineMutationBody     = `{"error":"You are offline. This action will be synced when you reconnect."}`
	offlineBody             = "Offline"
)

// Cache policies, used as metric labels
const (
	policyNetworkOnly  = "network_only"
	policyNetworkFirst = "network_first"
	policyMutation     = "mutation"
	policyCacheFirst   = "cache_first"
	policyPassthrough  = "passthrough"
)

// Router is an http.RoundTripper that applies the offline cache policies to every
// request before handing it to the network transport
type Router struct {
	cfg       Config
	transport http.RoundTripper
	storage   Storage
	metrics   *metrics.Metrics

	refreshes sync.WaitGroup
}

// NewRouter creates a Router; a nil transport uses http.DefaultTransport
func NewRouter(cfg Config, transport http.RoundTripper, storage Storage, m *metrics.Metrics) *Router {
	if transport == nil {
		transport = http.DefaultTransport
	}
	if m == nil {
		m = metrics.New()
	}
	return &Router{
		cfg:       cfg,
		transport: transport,
		storage:   storage,
		metrics:   m,
	}
}

// Install fetches every precache URL and stores it; any failure aborts the install
func (r *Router) Install(ctx context.Context) error {
	slog.Info("Installing offline cache", "cache", r.cfg.PrecacheName(), "urls", len(r.cfg.PrecacheURLs))

	cache, err := r.storage.Open(r.cfg.PrecacheName())
	if err != nil {
		return fmt.Errorf("opening precache: %w", err)
	}

	for _, path := range r.cfg.PrecacheURLs {
		u, err := r.cfg.resolve(path)
		if err != nil {
			return fmt.Errorf("precaching %s: %w", path, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return fmt.Errorf("precaching %s: %w", path, err)
		}

		resp, err := r.transport.RoundTrip(req)
		if err != nil {
			return fmt.Errorf("precaching %s: %w", path, err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("precaching %s: reading body: %w", path, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("precaching %s: unexpected status %d", path, resp.StatusCode)
		}

		if err := cache.Put(ctx, cacheKey(u), NewCachedResponse(resp, body)); err != nil {
			return fmt.Errorf("precaching %s: storing: %w", path, err)
		}
	}

	return nil
}

// Activate deletes every store that is not one of the two current caches
func (r *Router) Activate(ctx context.Context) error {
	slog.Info("Activating offline cache")

	names, err := r.storage.Keys()
	if err != nil {
		return fmt.Errorf("listing caches: %w", err)
	}

	for _, name := range names {
		if name == r.cfg.PrecacheName() || name == r.cfg.RuntimeName() {
			continue
		}
		slog.Info("Deleting old cache", "cache", name)
		if err := r.storage.Delete(name); err != nil {
			return fmt.Errorf("deleting cache %s: %w", name, err)
		}
	}

	return nil
}

// Wait blocks until all background refreshes have finished
func (r *Router) Wait() {
	r.refreshes.Wait()
}

// RoundTrip implements http.RoundTripper
func (r *Router) RoundTrip(req *http.Request) (*http.Response, error) {
	if !r.cfg.sameOrigin(req.URL) {
		if r.cfg.networkOnly(req.URL) {
			r.count(policyNetworkOnly, "network")
			return r.transport.RoundTrip(req)
		}
		return r.networkFirst(req)
	}

	switch strings.ToUpper(req.Method) {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return r.mutation(req)
	case http.MethodGet:
		return r.cacheFirst(req)
	default:
		r.count(policyPassthrough, "network")
		return r.transport.RoundTrip(req)
	}
}

// networkFirst serves other cross-origin requests
func (r *Router) networkFirst(req *http.Request) (*http.Response, error) {
	resp, err := r.transport.RoundTrip(req)
	if err != nil {
		slog.Warn("External request failed", "url", req.URL.String(), "error", err)
		r.count(policyNetworkFirst, "offline")
		return syntheticResponse(req, http.StatusServiceUnavailable, "text/plain; charset=utf-8", externalUnavailableBody), nil
	}
	r.count(policyNetworkFirst, "network")
	return resp, nil
}

// mutation serves same-origin POST, PUT and DELETE
func (r *Router) mutation(req *http.Request) (*http.Response, error) {
	resp, err := r.transport.RoundTrip(req)
	if err != nil {
		slog.Error("Network request failed", "method", req.Method, "url", req.URL.String(), "error", err)
		r.count(policyMutation, "offline")
		return syntheticResponse(req, http.StatusServiceUnavailable, "application/json", offlineMutationBody), nil
	}
	r.count(policyMutation, "network")
	return resp, nil
}

// cacheFirst serves same-origin GETs
func (r *Router) cacheFirst(req *http.Request) (*http.Response, error) {
	key := cacheKey(req.URL)

	entry, ok, err := r.storage.Match(req.Context(), key)
	if err != nil {
		slog.Warn("Error reading cache", "key", key, "error", err)
	}
	if ok {
		r.count(policyCacheFirst, "hit")
		r.refresh(req, key)
		return entry.Response(req), nil
	}

	resp, err := r.transport.RoundTrip(req)
	if err != nil {
		slog.Error("Fetch failed", "url", req.URL.String(), "error", err)
		if isNavigation(req) {
			if shell, ok := r.shell(req.Context()); ok {
				r.count(policyCacheFirst, "shell")
				return shell.Response(req), nil
			}
		}
		r.count(policyCacheFirst, "offline")
		return syntheticResponse(req, http.StatusServiceUnavailable, "text/plain; charset=utf-8", offlineBody), nil
	}

	r.count(policyCacheFirst, "miss")
	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))

	r.store(req.Context(), key, NewCachedResponse(resp, body))
	return resp, nil
}

// refresh re-fetches key in the background; failures are only logged
func (r *Router) refresh(req *http.Request, key string) {
	ctx := context.WithoutCancel(req.Context())
	refreshReq := req.Clone(ctx)

	r.refreshes.Add(1)
	go func() {
		defer r.refreshes.Done()

		resp, err := r.transport.RoundTrip(refreshReq)
		if err != nil {
			slog.Debug("Background refresh failed", "key", key, "error", err)
			return
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			slog.Debug("Background refresh failed", "key", key, "error", err)
			return
		}
		if resp.StatusCode != http.StatusOK {
			slog.Debug("Background refresh skipped", "key", key, "status", resp.StatusCode)
			return
		}
		r.store(ctx, key, NewCachedResponse(resp, body))
	}()
}

func (r *Router) store(ctx context.Context, key string, entry *CachedResponse) {
	cache, err := r.storage.Open(r.cfg.RuntimeName())
	if err != nil {
		slog.Warn("Error opening runtime cache", "error", err)
		return
	}
	if err := cache.Put(ctx, key, entry); err != nil {
		slog.Warn("Error storing response", "key", key, "error", err)
	}
}

func (r *Router) shell(ctx context.Context) (*CachedResponse, bool) {
	u, err := r.cfg.resolve(r.cfg.ShellPath)
	if err != nil {
		return nil, false
	}
	entry, ok, err := r.storage.Match(ctx, cacheKey(u))
	if err != nil {
		slog.Warn("Error reading shell from cache", "error", err)
		return nil, false
	}
	return entry, ok
}

func (r *Router) count(policy, outcome string) {
	r.metrics.CacheRequests.WithLabelValues(policy, outcome).Inc()
}

// isNavigation reports whether req loads a page rather than a subresource
func isNavigation(req *http.Request) bool {
	if req.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.EqualFold(req.Method, http.MethodGet) && strings.Contains(req.Header.Get("Accept"), "text/html")
}
