package aggregator

import (
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/models"
)

// historyRing is a bounded rolling buffer of stream samples. Once full, the
// oldest sample is overwritten. Not safe for concurrent use on its own; the
// service serializes access.
type historyRing struct {
	samples []models.StreamSample
	next    int
	full    bool
}

func newHistoryRing(capacity int) *historyRing {
	if capacity < 1 {
		capacity = 1
	}
	return &historyRing{samples: make([]models.StreamSample, capacity)}
}

func (h *historyRing) push(sample models.StreamSample) {
	h.samples[h.next] = sample
	h.next++
	if h.next == len(h.samples) {
		h.next = 0
		h.full = true
	}
}

// snapshot returns the buffered samples oldest-first.
func (h *historyRing) snapshot() []models.StreamSample {
	if !h.full {
		out := make([]models.StreamSample, h.next)
		copy(out, h.samples[:h.next])
		return out
	}
	out := make([]models.StreamSample, 0, len(h.samples))
	out = append(out, h.samples[h.next:]...)
	out = append(out, h.samples[:h.next]...)
	return out
}
