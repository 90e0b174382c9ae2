// Package cache provides a generic, thread-safe LRU cache.
//
// The state registry uses it to memoize ancestor chains, keyed by state name.
// Because any registration can change any chain, the registry purges the whole
// cache on every Register instead of tracking which entries depend on which
// names.
//
//	chains := cache.MustNew[string, []*state.State](256)
//	chains.Put("contact", chain)
//	if c, ok := chains.Get("contact"); ok {
//		...
//	}
//	chains.Purge()
//
// Stats exposes hit, miss and eviction counters so callers can size the cache.
package cache
