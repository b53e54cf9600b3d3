package transforms

import (
	"math/rand"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// This package implements the per-sample augmentation pipeline used to prepare
// segmentation volumes for training: padding/cropping, random rotation and
// flipping, additive noise, one-hot label expansion and the final conversion
// into gomlx tensors.
//
// Every randomized op takes an explicit *rand.Rand instead of reading global
// state, so callers (for example parallel loader workers) can seed each worker
// independently and keep augmentation reproducible.

// Sample is one dataset example as it moves through the pipeline. Image and
// Label are always present; SDF and Onehot are optional and nil when absent.
// Image and Label (and SDF, when present) share the same spatial extent at
// every pipeline stage, except transiently while an op pads before cropping.
//
// ToTensor fills the tensor fields at the end of the pipeline; before that
// they are nil.
type Sample struct {
	Image *Volume
	Label *Volume

	// SDF is the signed distance field cropped alongside image and label by
	// RandomCrop when configured with WithSDF.
	SDF *Volume

	// Onehot is the per-class indicator stack produced by CreateOnehotLabel,
	// shaped [classes, label dims...].
	Onehot *Volume

	ImageTensor  *tensors.Tensor
	LabelTensor  *tensors.Tensor
	OnehotTensor *tensors.Tensor
}

// Transform is a single pipeline stage. Apply may mutate and return the given
// sample; pipeline order matters. The ops assume well-formed rectangular
// inputs with consistent image/label extents; violating that is a programming
// error and panics rather than returning an error.
type Transform interface {
	Apply(rng *rand.Rand, sample *Sample) *Sample
}

// Compose applies an ordered list of transforms.
type Compose []Transform

// Apply runs each transform in order on the sample.
func (c Compose) Apply(rng *rand.Rand, sample *Sample) *Sample {
	for _, t := range c {
		sample = t.Apply(rng, sample)
	}
	return sample
}
