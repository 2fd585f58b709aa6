package didresolver

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sage-x-project/didmediator/errs"
	"github.com/sage-x-project/didmediator/internal/logger"
)

// Options configures the cached resolver.
type Options struct {
	CacheCapacity  int
	CacheTTL       time.Duration
	NetworkTimeout time.Duration
}

// Resolver is the C2 contract: resolve(did) -> DIDDocument, backed by a
// TTL+LRU cache in front of a NetworkResolver. On cache miss it
// performs a network resolve; on network failure it fails the call
// rather than serving stale data (spec.md §4.2).
type Resolver struct {
	network NetworkResolver
	cache   *lruCache
	timeout time.Duration
	log     logger.Logger
	group   singleflight.Group
}

// New constructs a Resolver wrapping network with a cache sized per opts.
func New(network NetworkResolver, opts Options) *Resolver {
	if opts.CacheCapacity <= 0 {
		opts.CacheCapacity = 256
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.NetworkTimeout <= 0 {
		opts.NetworkTimeout = 5 * time.Second
	}
	return &Resolver{
		network: network,
		cache:   newLRUCache(opts.CacheCapacity, opts.CacheTTL),
		timeout: opts.NetworkTimeout,
		log:     logger.GetDefaultLogger(),
	}
}

// Resolve returns the DID document for did, serving from cache when
// possible. Concurrent cache misses for the same DID are collapsed
// into a single network call via singleflight, grounded on
// pkg/agent/handshake/server.go's golang.org/x/sync/singleflight use.
func (r *Resolver) Resolve(ctx context.Context, did string) (*Document, error) {
	if doc, ok := r.cache.get(did); ok {
		return doc, nil
	}

	v, err, _ := r.group.Do(did, func() (interface{}, error) {
		resolveCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		doc, err := r.network.Resolve(resolveCtx, did)
		if err != nil {
			r.log.Warn("did resolution failed", logger.String("did", did), logger.Error(err))
			return nil, errs.New(errs.NotFound, "did resolution failed", err).WithDetails("did", did)
		}

		r.cache.put(did, doc)
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Document), nil
}
