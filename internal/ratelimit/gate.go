// ABOUTME: Two-tier rate limit gate combining per-identity and global ceilings
// ABOUTME: Both checks must pass; a denial carries the relevant retry-after

package ratelimit

import "fmt"

// globalKey is the shared counter key protecting aggregate throughput.
const globalKey = "__global__"

// Gate evaluates the per-identity limit for a category first (cheap early
// reject per caller), then the shared global ceiling. A request proceeds only
// when both allow it.
type Gate struct {
	limiter    *Limiter
	categories map[string]Config
	global     Config
}

// NewGate creates a Gate over the given limiter. categories maps category
// names to their per-identity limits; global is the shared ceiling applied
// across all identities.
func NewGate(limiter *Limiter, categories map[string]Config, global Config) *Gate {
	return &Gate{limiter: limiter, categories: categories, global: global}
}

// Allow checks identity against the named category and then the global
// ceiling. The returned Result reflects the per-identity window when allowed,
// and whichever tier denied when not.
func (g *Gate) Allow(category, identity string) (Result, error) {
	cfg, ok := g.categories[category]
	if !ok {
		return Result{}, fmt.Errorf("unknown rate limit category %q", category)
	}

	identityRes := g.limiter.Check(category+":"+identity, cfg)
	if !identityRes.Allowed {
		return identityRes, nil
	}

	globalRes := g.limiter.Check(globalKey, g.global)
	if !globalRes.Allowed {
		return globalRes, nil
	}

	return identityRes, nil
}
