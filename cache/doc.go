// Package cache stores LLM responses keyed by a hash of their request.
//
// Keys are derived by a Keyer from a namespace (usually the provider and
// model) and the canonical JSON form of the request, so two requests that
// differ only in map ordering share an entry. MemoryCache is a bounded LRU
// with per-entry TTLs; RedisCache shares entries between processes.
// Middleware puts a cache in front of a generating function and never stores
// errors or responses the function marks as not storable, such as fallbacks.
package cache
