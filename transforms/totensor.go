package transforms

import (
	"math/rand"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// ToTensor converts the sample volumes into gomlx tensors: the image becomes
// a float32 tensor, the label an int64 tensor, and the one-hot stack (when
// present) an int64 tensor as well. Shapes and values are preserved; only the
// representation changes. This is the final pipeline stage before a training
// loop consumes the sample.
type ToTensor struct{}

// Apply implements Transform.
func (ToTensor) Apply(_ *rand.Rand, sample *Sample) *Sample {
	sample.ImageTensor = floatTensor(sample.Image)
	sample.LabelTensor = intTensor(sample.Label)
	if sample.Onehot != nil {
		sample.OnehotTensor = intTensor(sample.Onehot)
	}
	return sample
}

func floatTensor(v *Volume) *tensors.Tensor {
	data := make([]float32, len(v.Data))
	copy(data, v.Data)
	return tensors.FromFlatDataAndDimensions(data, v.Dims...)
}

func intTensor(v *Volume) *tensors.Tensor {
	data := make([]int64, len(v.Data))
	for i, x := range v.Data {
		data[i] = int64(x)
	}
	return tensors.FromFlatDataAndDimensions(data, v.Dims...)
}
