package resolution

import (
	"sync"
	"time"

	"ocm.software/open-component-model/resolution/cache"
	"ocm.software/open-component-model/resolution/coordinate"
	"ocm.software/open-component-model/resolution/repository/caching"
)

// ChangingValues records cached values that may change over time, i.e. version
// listings used for dynamic selectors and changing components. Results built from
// them are only valid as long as the values are.
type ChangingValues struct {
	mu       sync.Mutex
	values   []string
	validFor time.Duration
	bounded  bool
}

var _ caching.Listener = (*ChangingValues)(nil)

func (c *ChangingValues) OnDynamicVersionSelection(selector coordinate.Selector, expiry cache.Expiry, _ []string) {
	c.record("versions of "+selector.String(), expiry)
}

func (c *ChangingValues) OnChangingModuleResolve(id coordinate.Component, expiry cache.Expiry) {
	c.record("changing component "+id.String(), expiry)
}

func (c *ChangingValues) record(value string, expiry cache.Expiry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = append(c.values, value)
	if expiry.KeepFor == cache.Forever {
		return
	}
	keep := max(expiry.KeepFor, 0)
	if !c.bounded || keep < c.validFor {
		c.validFor = keep
		c.bounded = true
	}
}

// Values returns the descriptions of the recorded values.
func (c *ChangingValues) Values() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.values...)
}

// ValidFor returns how long all recorded values stay valid.
// It returns false if none of them expires.
func (c *ChangingValues) ValidFor() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validFor, c.bounded
}
