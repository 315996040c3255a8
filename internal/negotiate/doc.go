// Package negotiate agrees on a single media format between two linked
// pads using the caps algebra.
//
// A negotiation intersects the upstream and downstream caps, optionally
// restricts the result with a filter, and fixates the first remaining
// structure. Results can be cached in process (MemoryCache) or shared
// through Redis (RedisCache), and every negotiation can be recorded in a
// History such as the registry.
//
// Each negotiation gets a session ID, a span named
// "negotiate.Negotiator.Negotiate", and the Prometheus metrics
// capnego_negotiations_total, capnego_negotiation_duration_seconds and
// capnego_cache_lookups_total.
package negotiate
