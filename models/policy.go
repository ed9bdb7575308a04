package models

import "fmt"

// RequestPolicy decides whether an operation uses the network, the local
// store, or both, and in which fallback order.
type RequestPolicy string

const (
	// CacheOnly never touches the network; local writes are flagged noSync.
	CacheOnly RequestPolicy = "cacheOnly"
	// NetworkOnly requires the network and never falls back to the cache.
	NetworkOnly RequestPolicy = "networkOnly"
	// NetworkFirst requires the network, mirroring successful results locally.
	NetworkFirst RequestPolicy = "networkFirst"
	// CacheFirst serves the cache at once and runs the network leg in the background.
	CacheFirst RequestPolicy = "cacheFirst"
	// CacheAndNetwork tries the network and falls back to the cache on failure.
	CacheAndNetwork RequestPolicy = "cacheAndNetwork"
)

// DefaultPolicy is used whenever the caller does not pick a policy.
const DefaultPolicy = CacheAndNetwork

// AllPolicies lists every known policy.
var AllPolicies = []RequestPolicy{CacheOnly, NetworkOnly, NetworkFirst, CacheFirst, CacheAndNetwork}

// String implements fmt.Stringer.
func (p RequestPolicy) String() string {
	return string(p)
}

// Valid reports whether p is one of the known policies.
func (p RequestPolicy) Valid() bool {
	for _, known := range AllPolicies {
		if p == known {
			return true
		}
	}
	return false
}

// OrDefault returns p, or DefaultPolicy when p is empty.
func (p RequestPolicy) OrDefault() RequestPolicy {
	if p == "" {
		return DefaultPolicy
	}
	return p
}

// ParseRequestPolicy converts s into a RequestPolicy. An empty string
// yields DefaultPolicy.
func ParseRequestPolicy(s string) (RequestPolicy, error) {
	p := RequestPolicy(s).OrDefault()
	if !p.Valid() {
		return "", fmt.Errorf("unknown request policy %q", s)
	}
	return p, nil
}
