package masstrace

import (
	"github.com/openms-go/featurefinder/internal/msmodel"
)

// consumedSet is the monotone (0->1 only) consumed-centroid bitmap described
// in SPEC_FULL.md §5: once a centroid is claimed by a trace, later seeds
// skip it. C3 walks seeds sequentially, so Get/Set never race.
type consumedSet struct {
	offsets []int // offsets[msIdx] = flat index of that spectrum's first centroid
	flags   []bool
}

func newConsumedSet(spectra []msmodel.Spectrum) *consumedSet {
	offsets := make([]int, len(spectra)+1)
	total := 0
	for i, sp := range spectra {
		offsets[i] = total
		total += len(sp.Centroids)
	}
	offsets[len(spectra)] = total
	return &consumedSet{offsets: offsets, flags: make([]bool, total)}
}

func (c *consumedSet) flat(msIdx, centroidIdx int) int {
	return c.offsets[msIdx] + centroidIdx
}

// Get reports whether the centroid is already consumed.
func (c *consumedSet) Get(msIdx, centroidIdx int) bool {
	return c.flags[c.flat(msIdx, centroidIdx)]
}

// Set marks the centroid consumed. Idempotent.
func (c *consumedSet) Set(msIdx, centroidIdx int) {
	c.flags[c.flat(msIdx, centroidIdx)] = true
}
