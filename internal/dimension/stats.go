package dimension

import "sync/atomic"

// Statistics tracks cache counters. All methods are safe for concurrent use.
type Statistics struct {
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

func (s *Statistics) hit()      { s.hits.Add(1) }
func (s *Statistics) miss()     { s.misses.Add(1) }
func (s *Statistics) eviction() { s.evictions.Add(1) }

// Hits returns the number of lookups served from memory.
func (s *Statistics) Hits() int64 { return s.hits.Load() }

// Misses returns the number of lookups that were not cached.
func (s *Statistics) Misses() int64 { return s.misses.Load() }

// Evictions returns the number of entries dropped to stay within capacity.
func (s *Statistics) Evictions() int64 { return s.evictions.Load() }

// Stats is a point-in-time snapshot of one cache.
type Stats struct {
	Name      string `json:"name"`
	Size      int    `json:"size"`
	Capacity  int    `json:"capacity"`
	Hits      int64  `json:"hits"`
	Misses    int64  `json:"misses"`
	Evictions int64  `json:"evictions"`
}

// HitRatio returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
