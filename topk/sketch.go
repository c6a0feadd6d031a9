// Package topk wraps a sliding-window top-k sketch for spotting IPs
// that dominate recent traffic.
package topk

import (
	"sync"

	"github.com/keilerkonzept/topk/sliding"
)

// An IP is flagged once its windowed count passes this share of the
// window's request capacity.
const thresholdPercent = 80

// Sketch is a thread-safe sliding sketch that ticks every tickSize
// observations.
type Sketch struct {
	mu        sync.Mutex
	sketch    *sliding.Sketch
	tickSize  uint64
	tickReq   uint64
	threshold uint32
}

func NewSketch(instance *sliding.Sketch, tickSize uint64) *Sketch {
	if instance == nil {
		panic("sketch instance cannot be nil")
	}
	if tickSize == 0 {
		tickSize = 1000
	}

	windowCapacity := uint64(instance.WindowSize) * tickSize
	return &Sketch{
		sketch:    instance,
		tickSize:  tickSize,
		threshold: uint32((windowCapacity * thresholdPercent) / 100),
	}
}

// Observe counts one request from ip. On every tickSize-th observation
// the window advances and the IPs whose windowed count exceeds the
// threshold are returned; otherwise the result is nil.
func (s *Sketch) Observe(ip string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sketch.Incr(ip)
	s.tickReq++

	if s.tickReq < s.tickSize {
		return nil
	}
	s.tickReq = 0

	// Read before ticking: Tick ages out the oldest segment, so reading
	// afterwards would cap the observable count below the threshold.
	var flagged []string
	for _, item := range s.sketch.SortedSlice() {
		if item.Count <= s.threshold {
			// Sorted by count, nothing further qualifies.
			break
		}
		flagged = append(flagged, item.Item)
	}
	s.sketch.Tick()
	return flagged
}
