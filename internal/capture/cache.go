package capture

import "time"

// DefaultCacheDuration is how long a captured frame stays reusable
const DefaultCacheDuration = 15 * time.Millisecond

// frameCache keeps the last good frame for one region.
// It is guarded by the Manager's lock.
type frameCache struct {
	frame    *Frame
	region   Rect
	stamp    time.Time
	duration time.Duration
	now      func() time.Time
}

func newFrameCache(duration time.Duration, now func() time.Time) *frameCache {
	return &frameCache{duration: duration, now: now}
}

// put stores a copy of f for region, reusing the cached buffer when sizes match
func (c *frameCache) put(f *Frame, region Rect) {
	c.frame = f.CopyInto(c.frame)
	c.region = region
	c.stamp = c.now()
}

// get returns a copy of the cached frame for region, or nil if none is fresh
func (c *frameCache) get(region Rect) *Frame {
	if c.frame == nil || c.region != region || c.now().Sub(c.stamp) > c.duration {
		return nil
	}
	return c.frame.Clone()
}

func (c *frameCache) reset() {
	c.frame = nil
	c.stamp = time.Time{}
}
