package offline

import (
	"fmt"
	"net/url"
	"strings"
)

const cachePrefix = "spendy"

// Default precache assets and network-only host patterns
var (
	DefaultPrecacheURLs     = []string{"/", "/index.html", "/manifest.json"}
	DefaultNetworkOnlyHosts = []string{"supabase", "anthropic", "claude"}
)

// Config is the explicit state of a cache router
type Config struct {
	// Origin is the app origin; requests to any other origin are cross-origin
	Origin *url.URL
	// Version is part of both cache names; bumping it purges old stores on Activate
	Version string
	// PrecacheURLs are fetched and stored on Install, relative to Origin
	PrecacheURLs []string
	// NetworkOnlyHosts are substrings of cross-origin origins that are never cached
	NetworkOnlyHosts []string
	// ShellPath is served to navigation requests when the network is unavailable
	ShellPath string
}

// NewConfig parses origin and returns a Config with the default asset lists
func NewConfig(origin string, version string) (Config, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return Config{}, fmt.Errorf("parsing origin: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Config{}, fmt.Errorf("origin %q must include scheme and host", origin)
	}
	if version == "" {
		return Config{}, fmt.Errorf("cache version is required")
	}

	return Config{
		Origin:           &url.URL{Scheme: u.Scheme, Host: u.Host},
		Version:          version,
		PrecacheURLs:     append([]string(nil), DefaultPrecacheURLs...),
		NetworkOnlyHosts: append([]string(nil), DefaultNetworkOnlyHosts...),
		ShellPath:        "/index.html",
	}, nil
}

// PrecacheName is the name of the install-time store
func (c Config) PrecacheName() string {
	return cachePrefix + "-" + c.Version
}

// RuntimeName is the name of the store filled by same-origin GETs
func (c Config) RuntimeName() string {
	return cachePrefix + "-runtime-" + c.Version
}

func (c Config) sameOrigin(u *url.URL) bool {
	return strings.EqualFold(u.Scheme, c.Origin.Scheme) && strings.EqualFold(u.Host, c.Origin.Host)
}

func (c Config) networkOnly(u *url.URL) bool {
	origin := u.Scheme + "://" + u.Host
	for _, pattern := range c.NetworkOnlyHosts {
		if pattern != "" && strings.Contains(origin, pattern) {
			return true
		}
	}
	return false
}

// resolve turns a path from the config into an absolute URL on Origin
func (c Config) resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", path, err)
	}
	return c.Origin.ResolveReference(ref), nil
}

// cacheKey is the full URL without credentials or fragment
func cacheKey(u *url.URL) string {
	k := *u
	k.User = nil
	k.Fragment = ""
	k.RawFragment = ""
	if k.Path == "" && k.RawPath == "" {
		k.Path = "/"
	}
	return k.String()
}
