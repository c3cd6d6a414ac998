package query

// sweepLoop runs [Cache.Sweep] every SweepInterval.
func (c *Cache) sweepLoop() {
	defer c.wg.Done()

	ticker := c.clock.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.Chan():
			if n := c.Sweep(); n > 0 {
				c.logger.Debug("evicted idle entries", "count", n)
			}
		}
	}
}

// Sweep removes entries that nobody observes, that have no fetch running and that were last read
// at least GCTime ago. It returns the number removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gcTime <= 0 {
		return 0
	}

	now := c.clock.Now()
	n := 0
	for h, e := range c.entries {
		if len(e.subs) > 0 || e.inFlight != nil {
			continue
		}
		if now.Sub(e.lastRead) < c.gcTime {
			continue
		}
		delete(c.entries, h)
		n++
	}
	c.stats.Evictions += uint64(n)
	return n
}
