package transforms

import "math/rand"

// RandomNoise adds Gaussian noise to the image only: each element receives
// clip(Sigma*N(0,1), -2*Sigma, 2*Sigma) + Mu, so no element ever moves by
// more than 2*Sigma from the clean value (plus the constant Mu offset). The
// label is left untouched.
type RandomNoise struct {
	Mu    float64
	Sigma float64
}

// Apply implements Transform.
func (n RandomNoise) Apply(rng *rand.Rand, sample *Sample) *Sample {
	image := sample.Image.Clone()
	lo, hi := -2*n.Sigma, 2*n.Sigma
	for i := range image.Data {
		noise := n.Sigma * rng.NormFloat64()
		if noise < lo {
			noise = lo
		} else if noise > hi {
			noise = hi
		}
		image.Data[i] += float32(noise + n.Mu)
	}
	return &Sample{Image: image, Label: sample.Label}
}
