package datasets

import (
	"io"
	"math/rand"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/train"
	"github.com/pkg/errors"

	"github.com/Noofbiz/segdata/sampler"
	"github.com/Noofbiz/segdata/transforms"
)

// Batches adapts a Drive dataset plus a TwoStreamBatchSampler into a gomlx
// train.Dataset: every Yield retrieves and transforms one index batch and
// stacks the samples into [batch, ...] tensors. The epoch ends (io.EOF) when
// the sampler's primary pool is exhausted; Reset starts a new epoch with
// fresh shuffles.
type Batches struct {
	name string
	ds   *Drive
	smp  *sampler.TwoStreamBatchSampler
	rng  *rand.Rand

	epoch *sampler.Epoch
}

var _ train.Dataset = &Batches{}

// NewBatches creates the adapter and starts its first epoch. rng drives both
// the sampler shuffles and the per-sample augmentation; give each concurrent
// consumer its own adapter and rng.
func NewBatches(name string, ds *Drive, smp *sampler.TwoStreamBatchSampler, rng *rand.Rand) *Batches {
	b := &Batches{name: name, ds: ds, smp: smp, rng: rng}
	b.Reset()
	return b
}

// Name implements train.Dataset.
func (b *Batches) Name() string { return b.name }

// NumBatches returns how many batches each epoch yields.
func (b *Batches) NumBatches() int { return b.smp.NumBatches() }

// Reset implements train.Dataset: it begins a new epoch with a fresh primary
// permutation and secondary cycle.
func (b *Batches) Reset() {
	b.epoch = b.smp.Batches(b.rng)
}

// Yield implements train.Dataset. It returns:
//
//   - inputs: one tensor, the image batch (float32, [batch, channels/depth,
//     height, width]).
//   - labels: the label batch (int64) and, when the pipeline produces one-hot
//     labels, the one-hot batch (int64) as a second tensor.
//
// Yield returns io.EOF once fewer than a full primary chunk remains in the
// epoch.
func (b *Batches) Yield() (spec any, inputs, labels []*tensors.Tensor, err error) {
	indices, ok := b.epoch.Next()
	if !ok {
		return nil, nil, nil, io.EOF
	}
	samples := make([]*transforms.Sample, len(indices))
	for i, idx := range indices {
		samples[i], err = b.ds.ItemWithRNG(idx, b.rng)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	imageT, err := stackFloat(samples, func(s *transforms.Sample) *transforms.Volume { return s.Image })
	if err != nil {
		return nil, nil, nil, err
	}
	labelT, err := stackInt(samples, func(s *transforms.Sample) *transforms.Volume { return s.Label })
	if err != nil {
		return nil, nil, nil, err
	}
	labels = []*tensors.Tensor{labelT}
	if samples[0].Onehot != nil {
		onehotT, err := stackInt(samples, func(s *transforms.Sample) *transforms.Volume { return s.Onehot })
		if err != nil {
			return nil, nil, nil, err
		}
		labels = append(labels, onehotT)
	}
	return b, []*tensors.Tensor{imageT}, labels, nil
}

// stackFloat stacks one volume per sample into a [batch, ...] float32 tensor.
// All volumes must share the same dimensions; the crop ops guarantee that for
// well-configured pipelines.
func stackFloat(samples []*transforms.Sample, pick func(*transforms.Sample) *transforms.Volume) (*tensors.Tensor, error) {
	dims, size, err := checkStackable(samples, pick)
	if err != nil {
		return nil, err
	}
	flat := make([]float32, len(samples)*size)
	for i, s := range samples {
		copy(flat[i*size:], pick(s).Data)
	}
	return tensors.FromFlatDataAndDimensions(flat, append([]int{len(samples)}, dims...)...), nil
}

// stackInt is stackFloat with an int64 cast, used for label and one-hot
// volumes.
func stackInt(samples []*transforms.Sample, pick func(*transforms.Sample) *transforms.Volume) (*tensors.Tensor, error) {
	dims, size, err := checkStackable(samples, pick)
	if err != nil {
		return nil, err
	}
	flat := make([]int64, len(samples)*size)
	for i, s := range samples {
		for j, v := range pick(s).Data {
			flat[i*size+j] = int64(v)
		}
	}
	return tensors.FromFlatDataAndDimensions(flat, append([]int{len(samples)}, dims...)...), nil
}

func checkStackable(samples []*transforms.Sample, pick func(*transforms.Sample) *transforms.Volume) (dims []int, size int, err error) {
	first := pick(samples[0])
	if first == nil {
		return nil, 0, errors.Errorf("batch sample 0 is missing the volume to stack")
	}
	for i, s := range samples[1:] {
		v := pick(s)
		if v == nil || !sameDims(first.Dims, v.Dims) {
			return nil, 0, errors.Errorf("batch sample %d has dimensions %v, want %v (did the pipeline crop to a fixed size?)",
				i+1, dimsOf(v), first.Dims)
		}
	}
	return first.Dims, first.Size(), nil
}

func sameDims(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func dimsOf(v *transforms.Volume) []int {
	if v == nil {
		return nil
	}
	return v.Dims
}
