// Package ratelimit provides in-process fixed-window rate limiting.
//
// # Limiter
//
// A Limiter counts requests per key over fixed windows:
//
//	limiter := ratelimit.NewLimiter(logger)
//	limiter.Start()
//	defer limiter.Stop()
//
//	res := limiter.Check("chat:acct-1", ratelimit.Config{Window: time.Minute, MaxRequests: 20})
//
// The first request for a key (or the first after its window elapses) opens a
// fresh window; subsequent requests within the window decrement Remaining
// until the cap is hit, after which checks are denied with a RetryAfter.
//
// Entries are ephemeral: a background sweep, started with Start, evicts every
// entry whose window has passed so the map stays bounded. The clock is
// injectable for tests.
//
// # Gate
//
// Gate layers two checks: the caller's own quota for a request category, then
// a shared global ceiling protecting aggregate throughput. Both must pass.
// Limits are process-local; nothing here coordinates across processes.
package ratelimit
