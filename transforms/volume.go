package transforms

import (
	"github.com/gomlx/exceptions"
)

// Volume is a dense n-dimensional float32 array stored as a flat row-major
// buffer plus its dimensions. It is the unit the transform ops operate on:
// images are typically [channels, height, width] or [depth, height, width],
// labels [1, height, width] and one-hot stacks [classes, ...].
//
// The helpers below (pad, narrow, rot90, flip) return new volumes and never
// alias the receiver's buffer, so ops can be chained without worrying about
// shared storage.
type Volume struct {
	Dims []int
	Data []float32
}

// NewVolume returns a zero-filled volume with the given dimensions.
func NewVolume(dims ...int) *Volume {
	size := 1
	for _, d := range dims {
		if d <= 0 {
			exceptions.Panicf("transforms: volume dimensions must be positive, got %v", dims)
		}
		size *= d
	}
	return &Volume{
		Dims: append([]int{}, dims...),
		Data: make([]float32, size),
	}
}

// FromData wraps an existing flat buffer. The buffer length must match the
// product of the dimensions.
func FromData(data []float32, dims ...int) *Volume {
	size := 1
	for _, d := range dims {
		size *= d
	}
	if len(data) != size {
		exceptions.Panicf("transforms: data length %d does not match dimensions %v (size %d)",
			len(data), dims, size)
	}
	return &Volume{Dims: append([]int{}, dims...), Data: data}
}

// Rank returns the number of dimensions.
func (v *Volume) Rank() int { return len(v.Dims) }

// Size returns the total number of elements.
func (v *Volume) Size() int { return len(v.Data) }

// Clone returns a deep copy of the volume.
func (v *Volume) Clone() *Volume {
	data := make([]float32, len(v.Data))
	copy(data, v.Data)
	return FromData(data, v.Dims...)
}

// strides returns the row-major stride of each axis.
func (v *Volume) strides() []int {
	strides := make([]int, len(v.Dims))
	stride := 1
	for axis := len(v.Dims) - 1; axis >= 0; axis-- {
		strides[axis] = stride
		stride *= v.Dims[axis]
	}
	return strides
}

// At returns the element at the given multidimensional index.
func (v *Volume) At(indices ...int) float32 {
	if len(indices) != len(v.Dims) {
		exceptions.Panicf("transforms: At got %d indices for rank %d volume", len(indices), v.Rank())
	}
	flat := 0
	for axis, stride := range v.strides() {
		idx := indices[axis]
		if idx < 0 || idx >= v.Dims[axis] {
			exceptions.Panicf("transforms: index %d out of range for axis %d (dim %d)", idx, axis, v.Dims[axis])
		}
		flat += idx * stride
	}
	return v.Data[flat]
}

// Set assigns the element at the given multidimensional index.
func (v *Volume) Set(value float32, indices ...int) {
	if len(indices) != len(v.Dims) {
		exceptions.Panicf("transforms: Set got %d indices for rank %d volume", len(indices), v.Rank())
	}
	flat := 0
	for axis, stride := range v.strides() {
		flat += indices[axis] * stride
	}
	v.Data[flat] = value
}

// outerInner splits the dimensions around axis: the product of the dimensions
// before it and the product of the dimensions after it.
func (v *Volume) outerInner(axis int) (outer, inner int) {
	outer, inner = 1, 1
	for a := 0; a < axis; a++ {
		outer *= v.Dims[a]
	}
	for a := axis + 1; a < len(v.Dims); a++ {
		inner *= v.Dims[a]
	}
	return
}

// Narrow returns a copy of the sub-volume spanning [start, start+length) along
// the given axis, keeping every other axis whole.
func (v *Volume) Narrow(axis, start, length int) *Volume {
	if axis < 0 || axis >= v.Rank() {
		exceptions.Panicf("transforms: Narrow axis %d out of range for rank %d volume", axis, v.Rank())
	}
	if start < 0 || length <= 0 || start+length > v.Dims[axis] {
		exceptions.Panicf("transforms: Narrow range [%d, %d) invalid for axis %d of dim %d",
			start, start+length, axis, v.Dims[axis])
	}
	outDims := append([]int{}, v.Dims...)
	outDims[axis] = length
	out := NewVolume(outDims...)
	outer, inner := v.outerInner(axis)
	axisLen := v.Dims[axis]
	for o := 0; o < outer; o++ {
		src := v.Data[(o*axisLen+start)*inner : (o*axisLen+start+length)*inner]
		copy(out.Data[o*length*inner:], src)
	}
	return out
}

// PadTrailing2 zero-pads the last two axes symmetrically: p1 elements on both
// sides of the second-to-last axis and p2 on both sides of the last axis.
// Leading axes are untouched.
func (v *Volume) PadTrailing2(p1, p2 int) *Volume {
	if v.Rank() < 2 {
		exceptions.Panicf("transforms: PadTrailing2 requires rank >= 2, got %d", v.Rank())
	}
	if p1 < 0 || p2 < 0 {
		exceptions.Panicf("transforms: negative padding (%d, %d)", p1, p2)
	}
	if p1 == 0 && p2 == 0 {
		return v.Clone()
	}
	r := v.Rank()
	h, w := v.Dims[r-2], v.Dims[r-1]
	outDims := append([]int{}, v.Dims...)
	outDims[r-2] = h + 2*p1
	outDims[r-1] = w + 2*p2
	out := NewVolume(outDims...)
	outer := 1
	for a := 0; a < r-2; a++ {
		outer *= v.Dims[a]
	}
	outH, outW := outDims[r-2], outDims[r-1]
	for o := 0; o < outer; o++ {
		for y := 0; y < h; y++ {
			srcRow := v.Data[(o*h+y)*w : (o*h+y+1)*w]
			dstOff := (o*outH+y+p1)*outW + p2
			copy(out.Data[dstOff:dstOff+w], srcRow)
		}
	}
	return out
}

// Rot90 rotates the volume 90 degrees about its two trailing axes, the same
// orientation as numpy's rot90 over those axes. The two trailing dimensions
// swap: [..., h, w] becomes [..., w, h].
func (v *Volume) Rot90() *Volume {
	if v.Rank() < 2 {
		exceptions.Panicf("transforms: Rot90 requires rank >= 2, got %d", v.Rank())
	}
	r := v.Rank()
	h, w := v.Dims[r-2], v.Dims[r-1]
	outDims := append([]int{}, v.Dims...)
	outDims[r-2], outDims[r-1] = w, h
	out := NewVolume(outDims...)
	outer := 1
	for a := 0; a < r-2; a++ {
		outer *= v.Dims[a]
	}
	// out[o, i, j] = in[o, j, w-1-i]
	for o := 0; o < outer; o++ {
		for i := 0; i < w; i++ {
			for j := 0; j < h; j++ {
				out.Data[(o*w+i)*h+j] = v.Data[(o*h+j)*w+(w-1-i)]
			}
		}
	}
	return out
}

// Flip reverses the volume along the given axis.
func (v *Volume) Flip(axis int) *Volume {
	if axis < 0 || axis >= v.Rank() {
		exceptions.Panicf("transforms: Flip axis %d out of range for rank %d volume", axis, v.Rank())
	}
	out := NewVolume(v.Dims...)
	outer, inner := v.outerInner(axis)
	axisLen := v.Dims[axis]
	for o := 0; o < outer; o++ {
		for i := 0; i < axisLen; i++ {
			src := v.Data[(o*axisLen+i)*inner : (o*axisLen+i+1)*inner]
			dstOff := (o*axisLen + (axisLen - 1 - i)) * inner
			copy(out.Data[dstOff:dstOff+inner], src)
		}
	}
	return out
}

// Equal reports whether two volumes have the same dimensions and identical
// element values.
func (v *Volume) Equal(other *Volume) bool {
	if other == nil || len(v.Dims) != len(other.Dims) {
		return false
	}
	for a, d := range v.Dims {
		if other.Dims[a] != d {
			return false
		}
	}
	for i, x := range v.Data {
		if other.Data[i] != x {
			return false
		}
	}
	return true
}
