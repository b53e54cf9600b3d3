// Package sampler produces the index batches that drive semi-supervised
// training: each batch mixes a small labeled pool with a larger unlabeled
// pool at a fixed split. An epoch is one full pass over the primary
// (labeled) pool; the secondary pool is reshuffled and cycled through as
// many times as needed during that pass.
package sampler

import (
	"math/rand"

	"github.com/gomlx/exceptions"
)

// TwoStreamBatchSampler mixes two disjoint index pools into fixed-size
// batches: the first primary-batch entries of every batch are drawn without
// replacement from one permutation of the primary pool, the remainder from
// an endlessly reshuffled cycle over the secondary pool.
type TwoStreamBatchSampler struct {
	primary   []int
	secondary []int

	primaryBatch   int
	secondaryBatch int
}

// New builds a sampler over the given pools. batchSize is the total batch
// size; secondaryBatchSize of it comes from the secondary pool and the rest
// from the primary pool. Pool or batch sizes that cannot produce a single
// full batch are a configuration error and panic immediately.
func New(primary, secondary []int, batchSize, secondaryBatchSize int) *TwoStreamBatchSampler {
	primaryBatch := batchSize - secondaryBatchSize
	if primaryBatch <= 0 || len(primary) < primaryBatch {
		exceptions.Panicf("sampler: need len(primary)=%d >= primary batch size=%d > 0",
			len(primary), primaryBatch)
	}
	if secondaryBatchSize <= 0 || len(secondary) < secondaryBatchSize {
		exceptions.Panicf("sampler: need len(secondary)=%d >= secondary batch size=%d > 0",
			len(secondary), secondaryBatchSize)
	}
	return &TwoStreamBatchSampler{
		primary:        append([]int{}, primary...),
		secondary:      append([]int{}, secondary...),
		primaryBatch:   primaryBatch,
		secondaryBatch: secondaryBatchSize,
	}
}

// NumBatches returns how many full batches one epoch produces:
// len(primary) / primaryBatchSize. Trailing primary indices that do not fill
// a whole batch are dropped.
func (s *TwoStreamBatchSampler) NumBatches() int {
	return len(s.primary) / s.primaryBatch
}

// BatchSize returns the total batch size.
func (s *TwoStreamBatchSampler) BatchSize() int {
	return s.primaryBatch + s.secondaryBatch
}

// PrimaryBatchSize returns how many entries of each batch come from the
// primary pool.
func (s *TwoStreamBatchSampler) PrimaryBatchSize() int { return s.primaryBatch }

// SecondaryBatchSize returns how many entries of each batch come from the
// secondary pool.
func (s *TwoStreamBatchSampler) SecondaryBatchSize() int { return s.secondaryBatch }

// Batches starts a new epoch: a fresh permutation of the primary pool and a
// fresh secondary cycle, both drawn from rng. Epochs are independent; call
// Batches again to re-run.
func (s *TwoStreamBatchSampler) Batches(rng *rand.Rand) *Epoch {
	perm := make([]int, len(s.primary))
	for i, j := range rng.Perm(len(s.primary)) {
		perm[i] = s.primary[j]
	}
	return &Epoch{
		sampler:   s,
		primary:   perm,
		secondary: newCycle(s.secondary, rng),
	}
}

// Epoch iterates the batches of one pass over the primary pool.
type Epoch struct {
	sampler   *TwoStreamBatchSampler
	primary   []int
	pos       int
	secondary *cycle
}

// Next returns the next index batch and true, or nil and false once fewer
// than a full primary chunk remains. Each batch lists its primary entries
// first, then the secondary entries.
func (e *Epoch) Next() ([]int, bool) {
	pb, sb := e.sampler.primaryBatch, e.sampler.secondaryBatch
	if e.pos+pb > len(e.primary) {
		return nil, false
	}
	batch := make([]int, 0, pb+sb)
	batch = append(batch, e.primary[e.pos:e.pos+pb]...)
	e.pos += pb
	for i := 0; i < sb; i++ {
		batch = append(batch, e.secondary.next())
	}
	return batch, true
}

// cycle yields the elements of one shuffled copy of indices after another,
// forever. It replaces a generator chain of infinite shuffles with an
// explicit buffer plus cursor, refilled on exhaustion.
type cycle struct {
	indices []int
	buf     []int
	pos     int
	rng     *rand.Rand
}

func newCycle(indices []int, rng *rand.Rand) *cycle {
	c := &cycle{
		indices: indices,
		buf:     make([]int, len(indices)),
		rng:     rng,
	}
	c.refill()
	return c
}

func (c *cycle) refill() {
	for i, j := range c.rng.Perm(len(c.indices)) {
		c.buf[i] = c.indices[j]
	}
	c.pos = 0
}

func (c *cycle) next() int {
	if c.pos == len(c.buf) {
		c.refill()
	}
	v := c.buf[c.pos]
	c.pos++
	return v
}

// Split partitions the dataset indices [0, n) into the conventional
// semi-supervised pools: the first numLabeled indices form the labeled
// (primary) pool and the rest the unlabeled (secondary) pool.
func Split(n, numLabeled int) (labeled, unlabeled []int) {
	if numLabeled <= 0 || numLabeled >= n {
		exceptions.Panicf("sampler: numLabeled=%d must be in (0, %d)", numLabeled, n)
	}
	labeled = make([]int, numLabeled)
	unlabeled = make([]int, n-numLabeled)
	for i := 0; i < n; i++ {
		if i < numLabeled {
			labeled[i] = i
		} else {
			unlabeled[i-numLabeled] = i
		}
	}
	return
}
