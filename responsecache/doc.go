// Package responsecache provides an in-memory response cache in front of a
// transport.Transport.
//
// # Overview
//
// A ResponseCache memoizes list and single item responses per URL, answers
// point lookups by any field without a network round trip when a cached
// payload holds the item, and invalidates itself on writes. It is meant to be
// created once per API resource and shared by the code talking to it.
//
// # Basic Usage
//
//	tr := transport.NewHTTP(transport.DefaultHTTPConfig(), transport.WithTokenSource(tokens))
//	users, err := responsecache.New(tr, cache.DefaultConfig())
//
//	list, err := users.GetList(ctx, transport.MethodGet, transport.Params{URL: "/users"})
//	user, err := users.Find(42, responsecache.SubPaths{})
//
// # Read Path
//
// GetList and Get first drop the entries older than Config.Validity, unless
// Config.Unexpiring is set. An entry for the request URL is then served only
// when its request signature (method, body and headers) is structurally equal
// to the current one. Otherwise the transport is called and a successful
// response replaces the entry for that URL. Failed responses are never cached
// and transport errors are returned unchanged.
//
// # Point Lookups
//
// FindByKey walks the cached payloads in the order their URLs were first
// cached. List payloads are searched element by element and occurrence
// payloads are tested directly. SubPaths locate the data inside response
// envelopes:
//
//	// {"data": {"list": [{"id": 1}, {"id": 2}]}}
//	item, err := c.FindByKey("id", 2, responsecache.SubPaths{List: []string{"data", "list"}})
//
// A path that does not resolve skips the entry. Values are compared
// structurally, with numbers compared by value whatever their Go type.
//
// The ...OrRequest variants fall back to Get on a miss. The ...OrRequestGetAll
// variants start fetching the whole list in the background and search the
// cache once more straight away; that second search usually misses until the
// list arrives. Wait blocks until background fetches have finished.
//
// # Invalidation
//
//   - Create drops every list entry before sending the request
//   - Update and Delete drop the occurrence entries for the id and every list entry
//   - Request and RequestCached accept RequestOptions to clear the whole
//     cache, the lists or one occurrence
//
// Ids are matched loosely during invalidation, so 42 also clears an item whose
// id field is "42". Invalidation happens before the write reaches the
// transport: a read issued while a write is in flight may cache the old state
// again if the write then fails.
//
// # Concurrency
//
// A ResponseCache is safe for concurrent use. The store is guarded by a mutex
// that is never held across a transport call, so concurrent misses for the
// same URL may each reach the transport; the last response wins.
package responsecache
