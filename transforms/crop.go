package transforms

import (
	"math"
	"math/rand"

	"github.com/gomlx/exceptions"
)

// padAmount is the symmetric padding applied to an axis that is too small for
// its crop target: floor((target-size)/2) + 3, clamped at zero. The extra 3
// elements leave slack for the random offset.
func padAmount(target, size int) int {
	p := floorDiv(target-size, 2) + 3
	if p < 0 {
		return 0
	}
	return p
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// CenterCrop deterministically crops the two trailing spatial axes of image
// and label to OutputSize, zero-padding first whenever either axis is not
// strictly larger than its target. The result's trailing dimensions are
// exactly OutputSize.
type CenterCrop struct {
	OutputSize [2]int
}

// Apply implements Transform. The rng is unused; CenterCrop has no
// randomness, it only participates in pipelines.
func (c CenterCrop) Apply(_ *rand.Rand, sample *Sample) *Sample {
	image, label := sample.Image, sample.Label
	r := label.Rank()
	h, w := label.Dims[r-2], label.Dims[r-1]
	if h <= c.OutputSize[0] || w <= c.OutputSize[1] {
		p1 := padAmount(c.OutputSize[0], h)
		p2 := padAmount(c.OutputSize[1], w)
		image = image.PadTrailing2(p1, p2)
		label = label.PadTrailing2(p1, p2)
	}

	r = image.Rank()
	h, w = image.Dims[r-2], image.Dims[r-1]
	y := int(math.Round(float64(h-c.OutputSize[0]) / 2))
	x := int(math.Round(float64(w-c.OutputSize[1]) / 2))

	image = image.Narrow(r-2, y, c.OutputSize[0]).Narrow(r-1, x, c.OutputSize[1])
	label = label.Narrow(label.Rank()-2, y, c.OutputSize[0]).Narrow(label.Rank()-1, x, c.OutputSize[1])
	return &Sample{Image: image, Label: label}
}

// RandomCrop crops [depth, height, width] volumes to OutputSize with uniform
// random offsets on the height and width axes. The depth axis always keeps
// its full extent: the size check reads all three label axes, but padding and
// the random offsets only touch axes 1 and 2, so inputs are expected to
// arrive already sized on axis 0.
//
// When WithSDF is set the sample's SDF volume is padded and sliced with the
// exact same offsets as image and label.
type RandomCrop struct {
	OutputSize [3]int
	WithSDF    bool
}

// Apply implements Transform. If after padding the height or width extent
// does not exceed the crop target, the inputs violated the op's contract and
// it panics.
func (c RandomCrop) Apply(rng *rand.Rand, sample *Sample) *Sample {
	image, label := sample.Image, sample.Label
	var sdf *Volume
	if c.WithSDF {
		sdf = sample.SDF
	}

	d, h, w := label.Dims[0], label.Dims[1], label.Dims[2]
	if d <= c.OutputSize[0] || h <= c.OutputSize[1] || w <= c.OutputSize[2] {
		p1 := padAmount(c.OutputSize[1], h)
		p2 := padAmount(c.OutputSize[2], w)
		image = image.PadTrailing2(p1, p2)
		label = label.PadTrailing2(p1, p2)
		if sdf != nil {
			sdf = sdf.PadTrailing2(p1, p2)
		}
	}

	h, w = image.Dims[1], image.Dims[2]
	if h-c.OutputSize[1] <= 0 || w-c.OutputSize[2] <= 0 {
		exceptions.Panicf("transforms: RandomCrop extent %dx%d not larger than target %dx%d after padding",
			h, w, c.OutputSize[1], c.OutputSize[2])
	}
	y := rng.Intn(h - c.OutputSize[1])
	x := rng.Intn(w - c.OutputSize[2])

	crop := func(v *Volume) *Volume {
		return v.Narrow(1, y, c.OutputSize[1]).Narrow(2, x, c.OutputSize[2])
	}
	image = crop(image)
	label = crop(label)
	if sdf != nil {
		return &Sample{Image: image, Label: label, SDF: crop(sdf)}
	}
	return &Sample{Image: image, Label: label}
}
