// Package cache defines the building blocks of the response cache: the
// configuration, the Store contract, the entries kept in it and the metrics
// hook notified of cache events.
//
// # Entries
//
// An Entry records the response payload for one URL together with the
// Signature of the request that produced it and the time it was fetched:
//
//	entry := cache.Entry{
//		FetchedAt: clock.Now(),
//		Signature: cache.NewSignature(transport.MethodGet, params),
//		Kind:      cache.KindList,
//		Payload:   payload,
//	}
//
// A later request to the same URL only reuses the entry when its signature is
// structurally equal, so a GET with different headers or body misses.
//
// # Stores
//
// NewStore builds the backend named in Config.Backend:
//
//   - memory: an unbounded map that keeps insertion order (default)
//   - sturdyc: a sharded sturdyc client bounded by capacity and a hard TTL
//
// Stores are not safe for concurrent use on their own; the responsecache
// package serializes access.
//
// # Configuration
//
// Config can be built in code, read from RESPCACHE_* environment variables
// with LoadConfigFromEnv, or read from YAML with LoadConfigFile:
//
//	id_key: uuid
//	validity: 1m
//	backend: sturdyc
//	sturdyc:
//	  capacity: 5000
//	  num_shards: 64
//	  ttl: 1h
//	  eviction_percentage: 10
//
// Always call Validate before handing a Config to a cache.
package cache
