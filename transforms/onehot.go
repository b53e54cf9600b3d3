package transforms

import "math/rand"

// CreateOnehotLabel expands the integer-valued label volume into a stack of
// per-class indicator channels shaped [NumClasses, label dims...]: channel c
// holds 1 where label == c and 0 elsewhere. The image and label are kept
// alongside the new Onehot volume.
type CreateOnehotLabel struct {
	NumClasses int
}

// Apply implements Transform.
func (o CreateOnehotLabel) Apply(_ *rand.Rand, sample *Sample) *Sample {
	label := sample.Label
	dims := append([]int{o.NumClasses}, label.Dims...)
	onehot := NewVolume(dims...)
	n := label.Size()
	for c := 0; c < o.NumClasses; c++ {
		channel := onehot.Data[c*n : (c+1)*n]
		for i, v := range label.Data {
			if v == float32(c) {
				channel[i] = 1
			}
		}
	}
	return &Sample{Image: sample.Image, Label: label, Onehot: onehot}
}
