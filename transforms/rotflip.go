package transforms

import "math/rand"

// RandomRotFlip applies a uniformly random number k in {0,1,2,3} of 90-degree
// rotations about the two trailing axes, followed by a flip along a uniformly
// random axis in {0,1}. Image and label always undergo the exact same
// rotation count and flip axis, never independent draws.
type RandomRotFlip struct{}

// Apply implements Transform.
func (RandomRotFlip) Apply(rng *rand.Rand, sample *Sample) *Sample {
	image, label := sample.Image, sample.Label
	k := rng.Intn(4)
	for i := 0; i < k; i++ {
		image = image.Rot90()
		label = label.Rot90()
	}
	axis := rng.Intn(2)
	image = image.Flip(axis)
	label = label.Flip(axis)
	return &Sample{Image: image, Label: label}
}
